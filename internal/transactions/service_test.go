package transactions

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/campground-backend/internal/campgrounds"
	"github.com/angelmondragon/campground-backend/internal/paymentmethods"
	"github.com/angelmondragon/campground-backend/pkg/auth"
	"github.com/angelmondragon/campground-backend/pkg/db/dbtest"
	"github.com/angelmondragon/campground-backend/pkg/db/models"
	"github.com/angelmondragon/campground-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/campground-backend/pkg/errors"
)

type bookingRows struct{ db *gorm.DB }

func (b bookingRows) FindByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.Booking, error) {
	var rows []models.Booking
	if err := b.db.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make(map[uuid.UUID]models.Booking, len(rows))
	for _, row := range rows {
		out[row.ID] = row
	}
	return out, nil
}

type ledgerFixture struct {
	conn       *gorm.DB
	svc        Service
	campground models.Campground
	method     models.PaymentMethod
}

func newLedgerFixture(t *testing.T, owner uuid.UUID) *ledgerFixture {
	t.Helper()
	conn := dbtest.Open(t).DB()
	ctx := context.Background()

	campground := models.Campground{Name: "Pine Ridge", Address: "1 Forest Road", Province: "Chiang Mai", Price: decimal.NewFromInt(1500)}
	require.NoError(t, campgrounds.NewRepository(conn).Create(ctx, &campground))

	masked := "************1111"
	fingerprint := "fp-1"
	method := models.PaymentMethod{UserID: owner, Method: enums.PaymentMethodCreditCard, CardNumber: &masked, CardFingerprint: &fingerprint}
	require.NoError(t, paymentmethods.NewRepository(conn).Create(ctx, &method))

	svc, err := NewService(ServiceParams{
		Repo:           NewRepository(conn),
		Bookings:       bookingRows{db: conn},
		Campgrounds:    campgrounds.NewRepository(conn),
		PaymentMethods: paymentmethods.NewRepository(conn),
	})
	require.NoError(t, err)
	return &ledgerFixture{conn: conn, svc: svc, campground: campground, method: method}
}

func (f *ledgerFixture) record(t *testing.T, userID uuid.UUID, at time.Time) models.Transaction {
	t.Helper()
	booking := models.Booking{UserID: userID, CampgroundID: f.campground.ID, ApptDate: at.Add(48 * time.Hour)}
	require.NoError(t, f.conn.Create(&booking).Error)
	entry := models.Transaction{
		UserID:          userID,
		BookingID:       booking.ID,
		CampgroundID:    f.campground.ID,
		PaymentMethodID: f.method.ID,
		Amount:          f.campground.Price,
		TransactionDate: at,
		PaidAt:          &at,
	}
	require.NoError(t, NewRepository(f.conn).Create(context.Background(), &entry))
	return entry
}

func TestGetScopesToOwner(t *testing.T) {
	camper := auth.Principal{UserID: uuid.New(), Role: enums.UserRoleUser}
	stranger := auth.Principal{UserID: uuid.New(), Role: enums.UserRoleUser}
	admin := auth.Principal{UserID: uuid.New(), Role: enums.UserRoleAdmin}
	f := newLedgerFixture(t, camper.UserID)
	ctx := context.Background()

	entry := f.record(t, camper.UserID, time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))

	got, err := f.svc.Get(ctx, camper, entry.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.TransactionStatusSuccess, got.Status)
	require.NotNil(t, got.Booking)
	require.NotNil(t, got.Campground)
	assert.Equal(t, "Pine Ridge", got.Campground.Name)
	require.NotNil(t, got.PaymentMethod)
	assert.Equal(t, "************1111", got.PaymentMethod.MaskedNumber)

	_, err = f.svc.Get(ctx, stranger, entry.ID)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	_, err = f.svc.Get(ctx, admin, entry.ID)
	assert.NoError(t, err)

	_, err = f.svc.Get(ctx, camper, uuid.New())
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestListSortedNewestFirstAndScoped(t *testing.T) {
	camper := auth.Principal{UserID: uuid.New(), Role: enums.UserRoleUser}
	other := uuid.New()
	admin := auth.Principal{UserID: uuid.New(), Role: enums.UserRoleAdmin}
	f := newLedgerFixture(t, camper.UserID)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	older := f.record(t, camper.UserID, base)
	newer := f.record(t, camper.UserID, base.Add(time.Hour))
	f.record(t, other, base.Add(2*time.Hour))

	own, err := f.svc.List(ctx, camper)
	require.NoError(t, err)
	require.Len(t, own, 2)
	assert.Equal(t, newer.ID, own[0].ID)
	assert.Equal(t, older.ID, own[1].ID)

	all, err := f.svc.List(ctx, admin)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestSummariesOmittedAfterBookingRemoved(t *testing.T) {
	camper := auth.Principal{UserID: uuid.New(), Role: enums.UserRoleUser}
	f := newLedgerFixture(t, camper.UserID)
	entry := f.record(t, camper.UserID, time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))

	require.NoError(t, f.conn.Where("id = ?", entry.BookingID).Delete(&models.Booking{}).Error)

	got, err := f.svc.Get(context.Background(), camper, entry.ID)
	require.NoError(t, err)
	assert.Nil(t, got.Booking)
	assert.Equal(t, entry.BookingID, got.BookingID)
	assert.NotNil(t, got.Campground)
}
