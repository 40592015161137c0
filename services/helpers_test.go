package services

import (
	"context"
	"io"
	"testing"
	"time"

	config "github.com/anjiri1684/field_booking/configs"
	"github.com/anjiri1684/field_booking/database"
	"github.com/anjiri1684/field_booking/events"
	"github.com/anjiri1684/field_booking/models"
	"github.com/anjiri1684/field_booking/notifications"
	"github.com/anjiri1684/field_booking/utils"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const testDSN = "file::memory:?_pragma=foreign_keys(1)"

type env struct {
	db     *gorm.DB
	log    *logrus.Logger
	events *events.Recorder
	svc    *Services
	cfg    config.Config
}

func newEnv(t *testing.T) *env {
	t.Helper()

	db, err := database.OpenSQLite(testDSN)
	require.NoError(t, err)
	return newEnvWith(t, db)
}

// newEnvWith migrates and seeds db and builds the services on top of it.
func newEnvWith(t *testing.T, db *gorm.DB) *env {
	t.Helper()

	require.NoError(t, database.Migrate(db))
	require.NoError(t, database.SeedPaymentMethods(db))
	t.Cleanup(func() { _ = database.Close(db) })

	log := logrus.New()
	log.SetOutput(io.Discard)

	cfg := config.Config{
		JWTSecret:        "test-secret",
		JWTTTLHrs:        1,
		PointsPerBooking: 10,
		PointsExpiryDays: 365,
	}
	rec := &events.Recorder{}
	svc := New(Deps{
		DB:     db,
		Log:    log,
		Config: cfg,
		Events: rec,
		Mailer: notifications.LogMailer{Log: log},
	})
	return &env{db: db, log: log, events: rec, svc: svc, cfg: cfg}
}

func (e *env) user(t *testing.T, role string) models.User {
	t.Helper()
	id := utils.NewID(utils.KindUser)
	u := models.User{
		ID:          id,
		Username:    id,
		Email:       id + "@example.com",
		Password:    "x",
		FullName:    "User " + id[len(id)-4:],
		PhoneNumber: "0800",
		UserType:    role,
		IsActive:    true,
	}
	require.NoError(t, e.db.Create(&u).Error)
	return u
}

func (e *env) field(t *testing.T, rate int64) models.Field {
	t.Helper()
	f, err := e.svc.Fields.Create(context.Background(), CreateFieldInput{
		FieldName:  "Field " + utils.NewID("")[1:6],
		Capacity:   10,
		HourlyRate: decimal.NewFromInt(rate),
		FieldType:  models.FieldOutdoor,
	})
	require.NoError(t, err)
	return *f
}

func (e *env) book(t *testing.T, p Principal, fieldID, date, start, end string) *BookingCreated {
	t.Helper()
	b, err := e.svc.Bookings.Create(context.Background(), p, CreateBookingInput{
		FieldID: fieldID, Date: date, StartTime: start, EndTime: end,
	})
	require.NoError(t, err)
	return b
}

// paid books a slot and settles it, returning the booking id.
func (e *env) paid(t *testing.T, p Principal, fieldID, date, start, end string) string {
	t.Helper()
	b := e.book(t, p, fieldID, date, start, end)
	pay, err := e.svc.Payments.Create(context.Background(), p, CreatePaymentInput{
		BookingID: b.BookingID, MethodID: 2, Amount: b.TotalAmount,
	})
	require.NoError(t, err)
	_, err = e.svc.Payments.Verify(context.Background(), pay.PaymentID, VerifyCompleted, nil)
	require.NoError(t, err)
	return b.BookingID
}

func (e *env) grant(t *testing.T, userID string, points int, earned, expiry time.Time) models.LoyaltyPoint {
	t.Helper()
	g := models.LoyaltyPoint{
		ID:           utils.NewID(utils.KindPoint),
		UserID:       userID,
		PointsEarned: points,
		Source:       models.PointSourceBooking,
		Reference:    utils.NewID(utils.KindBooking),
		EarnedDate:   earned,
		ExpiryDate:   expiry,
	}
	require.NoError(t, e.db.Create(&g).Error)
	return g
}

func (e *env) program(t *testing.T, required int, rewardType string) models.LoyaltyProgram {
	t.Helper()
	p, err := e.svc.Loyalty.CreateProgram(context.Background(), ProgramInput{
		ProgramName:    "Program " + rewardType,
		Description:    "test program",
		PointsRequired: required,
		RewardType:     rewardType,
		RewardValue:    "10%",
		StartDate:      time.Now().UTC().AddDate(0, 0, -1),
	})
	require.NoError(t, err)
	return *p
}

func (e *env) activeBalance(t *testing.T, userID string) int {
	t.Helper()
	pts, err := e.svc.Loyalty.GetUserPoints(context.Background(), userID)
	require.NoError(t, err)
	return pts.ActivePoints
}

func principal(u models.User) Principal {
	return Principal{ID: u.ID, Role: u.UserType}
}

// tomorrow is a booking date safely in the future.
func tomorrow() string {
	return time.Now().UTC().AddDate(0, 0, 1).Format(utils.DateLayout)
}
