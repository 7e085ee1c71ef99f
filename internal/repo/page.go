package repo

import (
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	DefaultPage  = 1
	DefaultLimit = 25
	MaxLimit     = 100
)

// Page is a 1-based offset window.
type Page struct {
	Page  int
	Limit int
}

// Normalize clamps page and limit into their accepted ranges.
func (p Page) Normalize() Page {
	if p.Page < 1 {
		p.Page = DefaultPage
	}
	if p.Limit < 1 {
		p.Limit = DefaultLimit
	}
	if p.Limit > MaxLimit {
		p.Limit = MaxLimit
	}
	return p
}

// Offset is the zero-based start index of the window.
func (p Page) Offset() int {
	return (p.Page - 1) * p.Limit
}

// Scope applies LIMIT/OFFSET for the normalized window.
func (p Page) Scope() func(*gorm.DB) *gorm.DB {
	n := p.Normalize()
	return func(db *gorm.DB) *gorm.DB {
		return db.Offset(n.Offset()).Limit(n.Limit)
	}
}

// SortField is one ORDER BY term.
type SortField struct {
	Column string
	Desc   bool
}

// ParseSort turns "name,-price" into sort fields, dropping columns outside
// allowed. The map key is the public field name, the value the column.
func ParseSort(raw string, allowed map[string]string) []SortField {
	var fields []SortField
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		desc := strings.HasPrefix(part, "-")
		column, ok := allowed[strings.TrimPrefix(part, "-")]
		if !ok {
			continue
		}
		fields = append(fields, SortField{Column: column, Desc: desc})
	}
	return fields
}

// OrderScope applies the sort fields in order.
func OrderScope(fields []SortField) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if len(fields) == 0 {
			return db
		}
		columns := make([]clause.OrderByColumn, 0, len(fields))
		for _, f := range fields {
			columns = append(columns, clause.OrderByColumn{Column: clause.Column{Name: f.Column}, Desc: f.Desc})
		}
		return db.Order(clause.OrderBy{Columns: columns})
	}
}
