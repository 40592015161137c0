package jobs

import (
	"context"
	"io"
	"testing"
	"time"

	config "github.com/anjiri1684/field_booking/configs"
	"github.com/anjiri1684/field_booking/database"
	"github.com/anjiri1684/field_booking/models"
	"github.com/anjiri1684/field_booking/services"
	"github.com/anjiri1684/field_booking/utils"
	"github.com/robfig/cron/v3"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setup(t *testing.T) (*gorm.DB, *Runner) {
	t.Helper()
	db, err := database.OpenSQLite("file::memory:?_pragma=foreign_keys(1)")
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	require.NoError(t, database.SeedPaymentMethods(db))
	t.Cleanup(func() { _ = database.Close(db) })

	log := logrus.New()
	log.SetOutput(io.Discard)
	svc := services.New(services.Deps{
		DB:     db,
		Log:    log,
		Config: config.Config{PointsPerBooking: 10, PointsExpiryDays: 365},
	})
	return db, NewRunner(svc, log, time.UTC)
}

func customer(t *testing.T, db *gorm.DB) models.User {
	t.Helper()
	id := utils.NewID(utils.KindUser)
	u := models.User{ID: id, Username: id, Email: id + "@example.com", Password: "x", FullName: "Job User", PhoneNumber: "0800", UserType: models.RoleCustomer, IsActive: true}
	require.NoError(t, db.Create(&u).Error)
	return u
}

func TestSchedule(t *testing.T) {
	_, r := setup(t)
	c := cron.New()
	require.NoError(t, r.Schedule(c))
	assert.Len(t, c.Entries(), 2)
}

func TestCompleteFinishedBookings(t *testing.T) {
	db, r := setup(t)
	ctx := context.Background()
	u := customer(t, db)
	p := services.Principal{ID: u.ID, Role: u.UserType}

	field, err := r.svc.Fields.Create(ctx, services.CreateFieldInput{FieldName: "Court", Capacity: 4, HourlyRate: decimal.NewFromInt(40000), FieldType: models.FieldIndoor})
	require.NoError(t, err)
	day := time.Now().UTC().AddDate(0, 0, 1)
	b, err := r.svc.Bookings.Create(ctx, p, services.CreateBookingInput{FieldID: field.ID, Date: day.Format(utils.DateLayout), StartTime: "10:00", EndTime: "11:00"})
	require.NoError(t, err)
	pay, err := r.svc.Payments.Create(ctx, p, services.CreatePaymentInput{BookingID: b.BookingID, MethodID: 1, Amount: b.TotalAmount})
	require.NoError(t, err)
	_, err = r.svc.Payments.Verify(ctx, pay.PaymentID, services.VerifyCompleted, nil)
	require.NoError(t, err)

	status := func() string {
		var got models.Booking
		require.NoError(t, db.First(&got, "id = ?", b.BookingID).Error)
		return got.BookingStatus
	}

	r.now = func() time.Time { return time.Date(day.Year(), day.Month(), day.Day(), 10, 30, 0, 0, time.UTC) }
	r.CompleteFinishedBookings()
	assert.Equal(t, models.BookingConfirmed, status())

	r.now = func() time.Time { return time.Date(day.Year(), day.Month(), day.Day(), 11, 0, 0, 0, time.UTC) }
	r.CompleteFinishedBookings()
	assert.Equal(t, models.BookingCompleted, status())
}

func TestRemindExpiringPoints(t *testing.T) {
	db, r := setup(t)
	soon := customer(t, db)
	later := customer(t, db)
	now := time.Now().UTC()

	grant := func(userID string, points int, expiry time.Time) {
		require.NoError(t, db.Create(&models.LoyaltyPoint{
			ID: utils.NewID(utils.KindPoint), UserID: userID, PointsEarned: points,
			Source: models.PointSourceBooking, Reference: utils.NewID(utils.KindBooking),
			EarnedDate: now.AddDate(-1, 0, 0), ExpiryDate: expiry,
		}).Error)
	}
	grant(soon.ID, 120, now.AddDate(0, 0, 2))
	grant(soon.ID, 30, now.AddDate(0, 0, 6))
	grant(later.ID, 500, now.AddDate(0, 1, 0))

	r.RemindExpiringPoints()

	var notes []models.Notification
	require.NoError(t, db.Find(&notes).Error)
	require.Len(t, notes, 1)
	assert.Equal(t, soon.ID, notes[0].UserID)
	assert.Equal(t, models.NotificationSystem, notes[0].Type)
	assert.Contains(t, notes[0].Message, "150 of your loyalty points")
}
