package campgrounds

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/campground-backend/pkg/db/models"
)

// CampgroundDTO is the public projection of a campground.
type CampgroundDTO struct {
	ID            uuid.UUID       `json:"id"`
	Name          string          `json:"name"`
	Address       string          `json:"address"`
	District      string          `json:"district"`
	Province      string          `json:"province"`
	PostalCode    string          `json:"postalcode"`
	Tel           *string         `json:"tel"`
	Region        string          `json:"region"`
	Price         decimal.Decimal `json:"price"`
	BookingsCount *int64          `json:"bookingsCount,omitempty"`
	CreatedAt     time.Time       `json:"createdAt"`
	UpdatedAt     time.Time       `json:"updatedAt"`
}

// Summary is the campground shape embedded in bookings.
type Summary struct {
	ID       uuid.UUID `json:"id"`
	Name     string    `json:"name"`
	Province string    `json:"province"`
	Tel      *string   `json:"tel"`
}

// CreateInput carries a new campground.
type CreateInput struct {
	Name       string           `json:"name" validate:"required,max=50"`
	Address    string           `json:"address" validate:"required"`
	District   string           `json:"district"`
	Province   string           `json:"province"`
	PostalCode string           `json:"postalcode" validate:"omitempty,max=5"`
	Tel        *string          `json:"tel" validate:"omitempty,min=1"`
	Region     string           `json:"region"`
	Price      *decimal.Decimal `json:"price" validate:"required"`
}

// UpdateInput is a partial campground patch.
type UpdateInput struct {
	Name       *string          `json:"name" validate:"omitempty,min=1,max=50"`
	Address    *string          `json:"address" validate:"omitempty,min=1"`
	District   *string          `json:"district"`
	Province   *string          `json:"province"`
	PostalCode *string          `json:"postalcode" validate:"omitempty,max=5"`
	Tel        *string          `json:"tel" validate:"omitempty,min=1"`
	Region     *string          `json:"region"`
	Price      *decimal.Decimal `json:"price"`
}

// ToModel maps the input onto a new row.
func (in CreateInput) ToModel() *models.Campground {
	var price decimal.Decimal
	if in.Price != nil {
		price = *in.Price
	}
	return &models.Campground{
		Name:       strings.TrimSpace(in.Name),
		Address:    in.Address,
		District:   in.District,
		Province:   in.Province,
		PostalCode: in.PostalCode,
		Tel:        in.Tel,
		Region:     in.Region,
		Price:      price,
	}
}

// Apply copies the set fields of the patch onto the row.
func (in UpdateInput) Apply(c *models.Campground) {
	if in.Name != nil {
		c.Name = strings.TrimSpace(*in.Name)
	}
	if in.Address != nil {
		c.Address = *in.Address
	}
	if in.District != nil {
		c.District = *in.District
	}
	if in.Province != nil {
		c.Province = *in.Province
	}
	if in.PostalCode != nil {
		c.PostalCode = *in.PostalCode
	}
	if in.Tel != nil {
		tel := *in.Tel
		c.Tel = &tel
	}
	if in.Region != nil {
		c.Region = *in.Region
	}
	if in.Price != nil {
		c.Price = *in.Price
	}
}

// FromModel converts a row into its public projection.
func FromModel(c *models.Campground) CampgroundDTO {
	return CampgroundDTO{
		ID:         c.ID,
		Name:       c.Name,
		Address:    c.Address,
		District:   c.District,
		Province:   c.Province,
		PostalCode: c.PostalCode,
		Tel:        c.Tel,
		Region:     c.Region,
		Price:      c.Price,
		CreatedAt:  c.CreatedAt,
		UpdatedAt:  c.UpdatedAt,
	}
}

// SummaryFromModel builds the embedded campground shape.
func SummaryFromModel(c *models.Campground) Summary {
	return Summary{ID: c.ID, Name: c.Name, Province: c.Province, Tel: c.Tel}
}

// Project keeps only the requested public fields. The id is always kept.
func (d CampgroundDTO) Project(fields []string) map[string]any {
	all := map[string]any{
		"id":         d.ID,
		"name":       d.Name,
		"address":    d.Address,
		"district":   d.District,
		"province":   d.Province,
		"postalcode": d.PostalCode,
		"tel":        d.Tel,
		"region":     d.Region,
		"price":      d.Price,
		"createdAt":  d.CreatedAt,
		"updatedAt":  d.UpdatedAt,
	}
	out := map[string]any{"id": d.ID}
	for _, f := range fields {
		if v, ok := all[f]; ok {
			out[f] = v
		}
	}
	return out
}
