package services

import (
	"context"
	"testing"
	"time"

	"github.com/anjiri1684/field_booking/apperrors"
	"github.com/anjiri1684/field_booking/events"
	"github.com/anjiri1684/field_booking/models"
	"github.com/anjiri1684/field_booking/utils"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestPriceBooking(t *testing.T) {
	cases := []struct {
		rate       string
		start, end int
		duration   string
		total      string
	}{
		{"50000", 9 * 60, 11 * 60, "2", "100000"},
		{"80000", 9*60 + 30, 10*60 + 15, "0.75", "60000"},
		{"150000", 8 * 60, 9 * 60, "1", "150000"},
		{"99.99", 13*60 + 45, 14*60 + 30, "0.75", "74.99"},
		{"120000", 17*60 + 15, 18*60 + 45, "1.5", "180000"},
	}
	for _, c := range cases {
		d, total := PriceBooking(dec(c.rate), c.start, c.end)
		assert.True(t, dec(c.duration).Equal(d), "duration %s want %s", d, c.duration)
		assert.True(t, dec(c.total).Equal(total), "total %s want %s", total, c.total)
		assert.True(t, models.RoundMoney(dec(c.rate).Mul(d)).Equal(total), "rate x duration for %v", c)
	}
}

func TestCreateBookingScenario(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	customer := e.user(t, models.RoleCustomer)
	field := e.field(t, 50000)

	out, err := e.svc.Bookings.Create(ctx, principal(customer), CreateBookingInput{
		FieldID: field.ID, Date: tomorrow(), StartTime: "09:00", EndTime: "11:00",
	})
	require.NoError(t, err)
	assert.True(t, dec("2").Equal(out.DurationHours))
	assert.True(t, dec("100000").Equal(out.TotalAmount))
	assert.Len(t, out.PaymentMethods, 4)

	var stored models.Booking
	require.NoError(t, e.db.First(&stored, "id = ?", out.BookingID).Error)
	assert.Equal(t, models.BookingPending, stored.BookingStatus)
	assert.Equal(t, customer.ID, stored.UserID)
	assert.Equal(t, 9*60, utils.ClockMinutes(stored.StartTime))
	assert.Equal(t, 11*60, utils.ClockMinutes(stored.EndTime))
	assert.Contains(t, e.events.Keys(), events.BookingCreated)
}

func TestCreateBookingRejections(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	p := principal(e.user(t, models.RoleCustomer))
	field := e.field(t, 50000)
	day := tomorrow()

	e.book(t, p, field.ID, day, "09:00", "10:00")

	cases := []struct {
		name string
		in   CreateBookingInput
		kind apperrors.Kind
	}{
		{"unknown field", CreateBookingInput{FieldID: "field-missing", Date: day, StartTime: "12:00", EndTime: "13:00"}, apperrors.KindNotFound},
		{"bad date", CreateBookingInput{FieldID: field.ID, Date: "tomorrow", StartTime: "12:00", EndTime: "13:00"}, apperrors.KindValidation},
		{"end before start", CreateBookingInput{FieldID: field.ID, Date: day, StartTime: "13:00", EndTime: "12:00"}, apperrors.KindValidation},
		{"zero length", CreateBookingInput{FieldID: field.ID, Date: day, StartTime: "13:00", EndTime: "13:00"}, apperrors.KindValidation},
		{"overlap", CreateBookingInput{FieldID: field.ID, Date: day, StartTime: "09:30", EndTime: "10:30"}, apperrors.KindValidation},
		{"before opening", CreateBookingInput{FieldID: field.ID, Date: day, StartTime: "07:00", EndTime: "08:00"}, apperrors.KindValidation},
		{"after closing", CreateBookingInput{FieldID: field.ID, Date: day, StartTime: "21:30", EndTime: "22:30"}, apperrors.KindValidation},
	}
	for _, c := range cases {
		_, err := e.svc.Bookings.Create(ctx, p, c.in)
		assert.Equal(t, c.kind, apperrors.KindOf(err), c.name)
	}

	// Touching the end of an existing booking is fine.
	e.book(t, p, field.ID, day, "10:00", "11:00")
}

func TestCreateBookingUnavailableField(t *testing.T) {
	e := newEnv(t)
	field := e.field(t, 50000)
	off := false
	_, err := e.svc.Fields.Update(context.Background(), field.ID, UpdateFieldInput{IsAvailable: &off})
	require.NoError(t, err)

	_, err = e.svc.Bookings.Create(context.Background(), principal(e.user(t, models.RoleCustomer)), CreateBookingInput{
		FieldID: field.ID, Date: tomorrow(), StartTime: "09:00", EndTime: "10:00",
	})
	assert.True(t, apperrors.Is(err, apperrors.KindValidation))
	assert.ErrorContains(t, err, "not available")
}

func TestCancelledBookingFreesSlot(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	p := principal(e.user(t, models.RoleCustomer))
	field := e.field(t, 50000)

	b := e.book(t, p, field.ID, tomorrow(), "09:00", "10:00")
	_, err := e.svc.Bookings.Cancel(ctx, p, b.BookingID)
	require.NoError(t, err)

	e.book(t, p, field.ID, tomorrow(), "09:00", "10:00")
}

func TestCancelWithoutPayment(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	p := principal(e.user(t, models.RoleCustomer))
	b := e.book(t, p, e.field(t, 50000).ID, tomorrow(), "09:00", "10:00")

	res, err := e.svc.Bookings.Cancel(ctx, p, b.BookingID)
	require.NoError(t, err)
	assert.Equal(t, b.BookingID, res.BookingID)
	assert.Nil(t, res.RefundStatus)
	assert.Nil(t, res.RefundAmount)

	_, err = e.svc.Bookings.Cancel(ctx, p, b.BookingID)
	assert.True(t, apperrors.Is(err, apperrors.KindValidation))
	assert.ErrorContains(t, err, "already cancelled")
}

func TestCancelRefundsCompletedPayment(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	p := principal(e.user(t, models.RoleCustomer))
	bookingID := e.paid(t, p, e.field(t, 50000).ID, tomorrow(), "09:00", "11:00")

	res, err := e.svc.Bookings.Cancel(ctx, p, bookingID)
	require.NoError(t, err)
	require.NotNil(t, res.RefundStatus)
	assert.Equal(t, "processing", *res.RefundStatus)
	require.NotNil(t, res.RefundAmount)
	assert.True(t, dec("90000").Equal(*res.RefundAmount))

	var pay models.Payment
	require.NoError(t, e.db.First(&pay, "booking_id = ?", bookingID).Error)
	assert.Equal(t, models.PaymentRefunded, pay.Status)
	require.NotNil(t, pay.Notes)
	assert.Equal(t, "Refunded due to cancellation", *pay.Notes)

	var b models.Booking
	require.NoError(t, e.db.First(&b, "id = ?", bookingID).Error)
	assert.Equal(t, models.BookingCancelled, b.BookingStatus)
}

func TestCancelPendingPaymentHasNoRefund(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	p := principal(e.user(t, models.RoleCustomer))
	b := e.book(t, p, e.field(t, 50000).ID, tomorrow(), "09:00", "10:00")
	_, err := e.svc.Payments.Create(ctx, p, CreatePaymentInput{BookingID: b.BookingID, MethodID: 3, Amount: b.TotalAmount})
	require.NoError(t, err)

	res, err := e.svc.Bookings.Cancel(ctx, p, b.BookingID)
	require.NoError(t, err)
	assert.Nil(t, res.RefundAmount)

	var pay models.Payment
	require.NoError(t, e.db.First(&pay, "booking_id = ?", b.BookingID).Error)
	assert.Equal(t, models.PaymentPending, pay.Status)
}

func TestCancelAuthorization(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	owner := principal(e.user(t, models.RoleCustomer))
	other := principal(e.user(t, models.RoleCustomer))
	admin := principal(e.user(t, models.RoleAdmin))
	field := e.field(t, 50000)

	b := e.book(t, owner, field.ID, tomorrow(), "09:00", "10:00")
	_, err := e.svc.Bookings.Cancel(ctx, other, b.BookingID)
	assert.True(t, apperrors.Is(err, apperrors.KindAuthorization))

	_, err = e.svc.Bookings.Cancel(ctx, admin, b.BookingID)
	assert.NoError(t, err)

	_, err = e.svc.Bookings.Cancel(ctx, admin, "booking-missing")
	assert.True(t, apperrors.Is(err, apperrors.KindNotFound))
}

func TestCompletedBookingCannotBeCancelled(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	p := principal(e.user(t, models.RoleCustomer))
	bookingID := e.paid(t, p, e.field(t, 50000).ID, tomorrow(), "09:00", "10:00")

	_, err := e.svc.Bookings.UpdateStatus(ctx, bookingID, models.BookingCompleted, nil)
	require.NoError(t, err)

	_, err = e.svc.Bookings.Cancel(ctx, p, bookingID)
	assert.True(t, apperrors.Is(err, apperrors.KindValidation))

	var pay models.Payment
	require.NoError(t, e.db.First(&pay, "booking_id = ?", bookingID).Error)
	assert.Equal(t, models.PaymentCompleted, pay.Status)
}

func TestUpdateStatus(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	p := principal(e.user(t, models.RoleCustomer))
	field := e.field(t, 50000)
	b := e.book(t, p, field.ID, tomorrow(), "09:00", "10:00")

	_, err := e.svc.Bookings.UpdateStatus(ctx, b.BookingID, "archived", nil)
	assert.True(t, apperrors.Is(err, apperrors.KindValidation))

	_, err = e.svc.Bookings.UpdateStatus(ctx, b.BookingID, models.BookingCompleted, nil)
	assert.True(t, apperrors.Is(err, apperrors.KindValidation), "pending cannot jump to completed")

	_, err = e.svc.Bookings.UpdateStatus(ctx, "booking-missing", models.BookingConfirmed, nil)
	assert.True(t, apperrors.Is(err, apperrors.KindNotFound))

	note := "confirmed by phone"
	res, err := e.svc.Bookings.UpdateStatus(ctx, b.BookingID, models.BookingConfirmed, &note)
	require.NoError(t, err)
	assert.Equal(t, models.BookingConfirmed, res.BookingStatus)

	// A missing note leaves the stored one alone.
	_, err = e.svc.Bookings.UpdateStatus(ctx, b.BookingID, models.BookingCompleted, nil)
	require.NoError(t, err)

	var stored models.Booking
	require.NoError(t, e.db.First(&stored, "id = ?", b.BookingID).Error)
	assert.Equal(t, models.BookingCompleted, stored.BookingStatus)
	require.NotNil(t, stored.Notes)
	assert.Equal(t, note, *stored.Notes)
}

func TestGetBookingDetail(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	owner := e.user(t, models.RoleCustomer)
	field := e.field(t, 50000)
	_, err := e.svc.Fields.AddImages(ctx, field.ID, []string{"https://img.example/a.jpg"}, true)
	require.NoError(t, err)

	bookingID := e.paid(t, principal(owner), field.ID, tomorrow(), "09:00", "11:00")

	d, err := e.svc.Bookings.Get(ctx, principal(owner), bookingID)
	require.NoError(t, err)
	assert.Equal(t, owner.FullName, d.User.FullName)
	assert.Equal(t, owner.PhoneNumber, d.User.PhoneNumber)
	require.NotNil(t, d.Field.ImageURL)
	assert.Equal(t, "https://img.example/a.jpg", *d.Field.ImageURL)
	assert.Equal(t, "09:00:00", d.StartTime)
	assert.Equal(t, models.BookingConfirmed, d.BookingStatus)
	require.NotNil(t, d.Payment)
	assert.Equal(t, "bank_transfer", d.Payment.Method)
	require.NotNil(t, d.PointsEarned)
	assert.Equal(t, 10010, *d.PointsEarned)

	_, err = e.svc.Bookings.Get(ctx, principal(e.user(t, models.RoleCustomer)), bookingID)
	assert.True(t, apperrors.Is(err, apperrors.KindAuthorization))
	_, err = e.svc.Bookings.Get(ctx, principal(owner), "booking-missing")
	assert.True(t, apperrors.Is(err, apperrors.KindNotFound))
}

func TestListBookingsFilters(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	alice := principal(e.user(t, models.RoleCustomer))
	bob := principal(e.user(t, models.RoleCustomer))
	f1, f2 := e.field(t, 50000), e.field(t, 70000)
	day := tomorrow()

	e.book(t, alice, f1.ID, day, "09:00", "10:00")
	e.book(t, alice, f2.ID, day, "09:00", "10:00")
	cancelled := e.book(t, alice, f1.ID, day, "12:00", "13:00")
	e.book(t, bob, f1.ID, day, "15:00", "16:00")
	_, err := e.svc.Bookings.Cancel(ctx, alice, cancelled.BookingID)
	require.NoError(t, err)

	rows, meta, err := e.svc.Bookings.ListForUser(ctx, alice.ID, BookingFilter{}, utils.NewPage(1, 10))
	require.NoError(t, err)
	assert.Len(t, rows, 3)
	assert.Equal(t, int64(3), meta.TotalItems)
	assert.Equal(t, "09:00:00", rows[0].StartTime)

	rows, _, err = e.svc.Bookings.ListForUser(ctx, alice.ID, BookingFilter{Status: models.BookingCancelled}, utils.NewPage(1, 10))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, cancelled.BookingID, rows[0].BookingID)

	rows, meta, err = e.svc.Bookings.ListAll(ctx, BookingFilter{FieldID: f1.ID}, utils.NewPage(1, 2))
	require.NoError(t, err)
	assert.Len(t, rows, 2)
	assert.Equal(t, int64(3), meta.TotalItems)
	assert.Equal(t, 2, meta.TotalPages)

	past := time.Now().UTC().AddDate(0, 0, -10)
	rows, _, err = e.svc.Bookings.ListAll(ctx, BookingFilter{To: &past}, utils.NewPage(1, 10))
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestBookingReport(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	p := principal(e.user(t, models.RoleCustomer))
	f1, f2 := e.field(t, 50000), e.field(t, 80000)
	day := time.Now().UTC().AddDate(0, 0, 1)
	next := day.AddDate(0, 0, 1)

	e.book(t, p, f1.ID, day.Format(utils.DateLayout), "09:00", "11:00")
	e.book(t, p, f1.ID, next.Format(utils.DateLayout), "09:30", "10:15")
	e.book(t, p, f2.ID, day.Format(utils.DateLayout), "13:00", "14:00")
	c := e.book(t, p, f2.ID, day.Format(utils.DateLayout), "15:00", "16:00")
	_, err := e.svc.Bookings.Cancel(ctx, p, c.BookingID)
	require.NoError(t, err)

	rep, err := e.svc.Bookings.Report(ctx, day, next, nil)
	require.NoError(t, err)
	assert.Equal(t, 4, rep.TotalBookings)
	assert.Equal(t, 1, rep.CancelledBookings)
	assert.Equal(t, 0, rep.CompletedBookings)
	assert.True(t, dec("217500").Equal(rep.TotalRevenue), rep.TotalRevenue.String())

	require.Len(t, rep.FieldsUsage, 2)
	assert.Equal(t, f1.ID, rep.FieldsUsage[0].FieldID)
	assert.Equal(t, 2, rep.FieldsUsage[0].BookingsCount)
	assert.True(t, dec("2.75").Equal(rep.FieldsUsage[0].TotalHours))

	require.Len(t, rep.DailyBookings, 2)
	assert.Equal(t, day.Format(utils.DateLayout), rep.DailyBookings[0].Date)
	assert.Equal(t, 2, rep.DailyBookings[0].BookingsCount)
	assert.True(t, dec("180000").Equal(rep.DailyBookings[0].Revenue))

	only := f2.ID
	rep, err = e.svc.Bookings.Report(ctx, day, next, &only)
	require.NoError(t, err)
	assert.Equal(t, 2, rep.TotalBookings)

	_, err = e.svc.Bookings.Report(ctx, next, day, nil)
	assert.True(t, apperrors.Is(err, apperrors.KindValidation))
}

func TestCompleteFinished(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	p := principal(e.user(t, models.RoleCustomer))
	field := e.field(t, 50000)
	day := time.Now().UTC().AddDate(0, 0, 1)

	early := e.paid(t, p, field.ID, day.Format(utils.DateLayout), "09:00", "10:00")
	late := e.paid(t, p, field.ID, day.Format(utils.DateLayout), "18:00", "19:00")
	pending := e.book(t, p, field.ID, day.Format(utils.DateLayout), "12:00", "13:00")

	noon := time.Date(day.Year(), day.Month(), day.Day(), 12, 0, 0, 0, time.UTC)
	ids, err := e.svc.Bookings.CompleteFinished(ctx, noon, time.UTC)
	require.NoError(t, err)
	assert.Equal(t, []string{early}, ids)

	status := func(id string) string {
		var b models.Booking
		require.NoError(t, e.db.First(&b, "id = ?", id).Error)
		return b.BookingStatus
	}
	assert.Equal(t, models.BookingCompleted, status(early))
	assert.Equal(t, models.BookingConfirmed, status(late))
	assert.Equal(t, models.BookingPending, status(pending.BookingID))

	ids, err = e.svc.Bookings.CompleteFinished(ctx, noon.AddDate(0, 0, 1), time.UTC)
	require.NoError(t, err)
	assert.Equal(t, []string{late}, ids)
}
