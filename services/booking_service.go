package services

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"time"

	"github.com/anjiri1684/field_booking/apperrors"
	"github.com/anjiri1684/field_booking/database"
	"github.com/anjiri1684/field_booking/events"
	"github.com/anjiri1684/field_booking/models"
	"github.com/anjiri1684/field_booking/utils"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const refundNote = "Refunded due to cancellation"

var refundRate = decimal.New(9, -1)

type BookingService struct {
	db     *gorm.DB
	log    *logrus.Logger
	events events.Publisher
	notify Notifier
	window Window
}

func NewBookingService(db *gorm.DB, log *logrus.Logger, pub events.Publisher, notify Notifier) *BookingService {
	return &BookingService{db: db, log: log, events: pub, notify: notify, window: BusinessWindow}
}

type CreateBookingInput struct {
	FieldID   string
	Date      string
	StartTime string
	EndTime   string
	Notes     *string
}

type BookingCreated struct {
	BookingID      string                 `json:"booking_id"`
	TotalAmount    decimal.Decimal        `json:"total_amount"`
	DurationHours  decimal.Decimal        `json:"duration_hours"`
	PaymentMethods []models.PaymentMethod `json:"payment_methods"`
}

type CancelResult struct {
	BookingID    string           `json:"booking_id"`
	RefundStatus *string          `json:"refund_status"`
	RefundAmount *decimal.Decimal `json:"refund_amount"`
}

// BookingFilter narrows booking lists. Empty members do not filter.
type BookingFilter struct {
	Status  string
	FieldID string
	UserID  string
	From    *time.Time
	To      *time.Time
}

func (f BookingFilter) scope(db *gorm.DB) *gorm.DB {
	if f.Status != "" {
		db = db.Where("bookings.booking_status = ?", f.Status)
	}
	if f.FieldID != "" {
		db = db.Where("bookings.field_id = ?", f.FieldID)
	}
	if f.UserID != "" {
		db = db.Where("bookings.user_id = ?", f.UserID)
	}
	if f.From != nil {
		db = db.Where("bookings.booking_date >= ?", utils.DateOf(*f.From))
	}
	if f.To != nil {
		db = db.Where("bookings.booking_date <= ?", utils.DateOf(*f.To))
	}
	return db
}

type UserRef struct {
	UserID      string `json:"user_id"`
	FullName    string `json:"full_name"`
	PhoneNumber string `json:"phone_number,omitempty"`
}

type FieldRef struct {
	FieldID   string  `json:"field_id"`
	FieldName string  `json:"field_name"`
	ImageURL  *string `json:"image_url,omitempty"`
}

type BookingSummary struct {
	BookingID     string          `json:"booking_id"`
	User          UserRef         `json:"user"`
	Field         FieldRef        `json:"field"`
	BookingDate   string          `json:"booking_date"`
	StartTime     string          `json:"start_time"`
	EndTime       string          `json:"end_time"`
	DurationHours decimal.Decimal `json:"duration_hours"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	BookingStatus string          `json:"booking_status"`
	PaymentStatus *string         `json:"payment_status"`
	CreatedAt     time.Time       `json:"created_at"`
}

type BookingPayment struct {
	PaymentID     string     `json:"payment_id"`
	Method        string     `json:"method"`
	Status        string     `json:"status"`
	PaymentDate   *time.Time `json:"payment_date"`
	TransactionID *string    `json:"transaction_id"`
}

type BookingDetail struct {
	BookingSummary
	Notes        *string         `json:"notes"`
	UpdatedAt    time.Time       `json:"updated_at"`
	PointsEarned *int            `json:"points_earned"`
	Payment      *BookingPayment `json:"payment,omitempty"`
}

// PriceBooking returns the duration in hours and the amount due for
// [start, end) at rate per hour, both rounded to cents.
func PriceBooking(rate decimal.Decimal, start, end int) (duration, total decimal.Decimal) {
	minutes := decimal.NewFromInt(int64(end - start))
	duration = minutes.Div(decimal.NewFromInt(60)).Round(2)
	total = models.RoundMoney(rate.Mul(minutes).Div(decimal.NewFromInt(60)))
	return duration, total
}

// Create books [start, end) on a field for p. The field row is locked for the
// availability re-check so two requests cannot take the same slot.
func (s *BookingService) Create(ctx context.Context, p Principal, in CreateBookingInput) (*BookingCreated, error) {
	day, err := utils.ParseDate(in.Date)
	if err != nil {
		return nil, apperrors.Validation("Invalid booking date, expected YYYY-MM-DD")
	}
	start, err := utils.ParseClock(in.StartTime)
	if err != nil {
		return nil, apperrors.Validation("Invalid start time: %v", err)
	}
	end, err := utils.ParseClock(in.EndTime)
	if err != nil {
		return nil, apperrors.Validation("Invalid end time: %v", err)
	}
	if end <= start {
		return nil, apperrors.Validation("End time must be after start time")
	}

	var out BookingCreated
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var field models.Field
		if err := tx.Clauses(forUpdate).First(&field, "id = ?", in.FieldID).Error; err != nil {
			if database.IsNotFound(err) {
				return apperrors.NotFound("Field not found")
			}
			return err
		}
		if !field.IsAvailable {
			return apperrors.Validation("Field is not available for booking")
		}

		booked, err := bookedSlots(tx, field.ID, day)
		if err != nil {
			return err
		}
		if !FitsAvailableSlot(ComputeSlots(s.window, booked), Slot{Start: start, End: end}) {
			return apperrors.Validation("Selected time slot is not available")
		}

		duration, total := PriceBooking(field.HourlyRate, start, end)
		booking := models.Booking{
			ID:            utils.NewID(utils.KindBooking),
			UserID:        p.ID,
			FieldID:       field.ID,
			BookingDate:   day,
			StartTime:     utils.ClockTime(start),
			EndTime:       utils.ClockTime(end),
			DurationHours: duration,
			TotalAmount:   total,
			BookingStatus: models.BookingPending,
			Notes:         in.Notes,
		}
		if err := tx.Create(&booking).Error; err != nil {
			return err
		}

		var methods []models.PaymentMethod
		if err := tx.Where("is_active = ?", true).Order("id ASC").Find(&methods).Error; err != nil {
			return err
		}

		out = BookingCreated{
			BookingID:      booking.ID,
			TotalAmount:    total,
			DurationHours:  duration,
			PaymentMethods: methods,
		}
		return nil
	})
	if err != nil {
		return nil, storeErr(err, "Failed to create booking")
	}

	s.log.WithFields(logrus.Fields{"booking_id": out.BookingID, "user_id": p.ID, "field_id": in.FieldID}).Info("booking created")
	publish(ctx, s.events, s.log, events.BookingCreated, map[string]any{"booking_id": out.BookingID, "user_id": p.ID, "field_id": in.FieldID, "total_amount": out.TotalAmount})
	return &out, nil
}

func (s *BookingService) Get(ctx context.Context, p Principal, id string) (*BookingDetail, error) {
	var b models.Booking
	err := s.db.WithContext(ctx).Preload("User").Preload("Field").First(&b, "id = ?", id).Error
	if database.IsNotFound(err) {
		return nil, apperrors.NotFound("Booking not found")
	}
	if err != nil {
		return nil, storeErr(err, "Failed to load booking")
	}
	if !p.CanAccess(b.UserID) {
		return nil, apperrors.Forbidden("You do not have permission to view this booking")
	}

	detail := BookingDetail{
		BookingSummary: summarize(b, nil),
		Notes:          b.Notes,
		UpdatedAt:      b.UpdatedAt,
	}
	detail.User.PhoneNumber = b.User.PhoneNumber

	var img models.FieldImage
	if err := s.db.WithContext(ctx).Where("field_id = ? AND is_primary = ?", b.FieldID, true).Limit(1).Find(&img).Error; err != nil {
		return nil, storeErr(err, "Failed to load field image")
	}
	if img.ID != "" {
		detail.Field.ImageURL = &img.ImageURL
	}

	var payments []models.Payment
	if err := s.db.WithContext(ctx).Preload("Method").Where("booking_id = ?", b.ID).Limit(1).Find(&payments).Error; err != nil {
		return nil, storeErr(err, "Failed to load payment")
	}
	if len(payments) == 1 {
		pay := payments[0]
		detail.PaymentStatus = &pay.Status
		detail.Payment = &BookingPayment{
			PaymentID:     pay.ID,
			Method:        pay.Method.MethodName,
			Status:        pay.Status,
			PaymentDate:   pay.PaymentDate,
			TransactionID: pay.TransactionID,
		}
	}

	// A split grant leaves the original row and smaller remainders behind;
	// the original carries the full amount earned.
	var earned []int
	err = s.db.WithContext(ctx).Model(&models.LoyaltyPoint{}).
		Where("reference = ? AND source = ?", b.ID, models.PointSourceBooking).
		Pluck("points_earned", &earned).Error
	if err != nil {
		return nil, storeErr(err, "Failed to load points")
	}
	if len(earned) > 0 {
		maxEarned := slices.Max(earned)
		detail.PointsEarned = &maxEarned
	}
	return &detail, nil
}

func (s *BookingService) ListForUser(ctx context.Context, userID string, filter BookingFilter, page utils.Page) ([]BookingSummary, utils.PageMeta, error) {
	filter.UserID = userID
	return s.list(ctx, filter, page)
}

func (s *BookingService) ListAll(ctx context.Context, filter BookingFilter, page utils.Page) ([]BookingSummary, utils.PageMeta, error) {
	return s.list(ctx, filter, page)
}

func (s *BookingService) list(ctx context.Context, filter BookingFilter, page utils.Page) ([]BookingSummary, utils.PageMeta, error) {
	db := s.db.WithContext(ctx)

	var total int64
	if err := db.Model(&models.Booking{}).Scopes(filter.scope).Count(&total).Error; err != nil {
		return nil, utils.PageMeta{}, storeErr(err, "Failed to count bookings")
	}

	var rows []models.Booking
	err := db.Preload("User").Preload("Field").
		Scopes(filter.scope, page.Scope).
		Order("bookings.booking_date DESC").Order("bookings.start_time ASC").
		Find(&rows).Error
	if err != nil {
		return nil, utils.PageMeta{}, storeErr(err, "Failed to list bookings")
	}

	ids := make([]string, 0, len(rows))
	for _, b := range rows {
		ids = append(ids, b.ID)
	}
	status := map[string]string{}
	if len(ids) > 0 {
		var pays []models.Payment
		if err := db.Select("booking_id", "status").Where("booking_id IN ?", ids).Find(&pays).Error; err != nil {
			return nil, utils.PageMeta{}, storeErr(err, "Failed to load payments")
		}
		for _, p := range pays {
			status[p.BookingID] = p.Status
		}
	}

	out := make([]BookingSummary, 0, len(rows))
	for _, b := range rows {
		var ps *string
		if st, ok := status[b.ID]; ok {
			ps = &st
		}
		out = append(out, summarize(b, ps))
	}
	return out, page.Meta(total), nil
}

func summarize(b models.Booking, paymentStatus *string) BookingSummary {
	return BookingSummary{
		BookingID:     b.ID,
		User:          UserRef{UserID: b.UserID, FullName: b.User.FullName},
		Field:         FieldRef{FieldID: b.FieldID, FieldName: b.Field.FieldName},
		BookingDate:   b.BookingDate.Format(utils.DateLayout),
		StartTime:     utils.FormatClock(utils.ClockMinutes(b.StartTime)),
		EndTime:       utils.FormatClock(utils.ClockMinutes(b.EndTime)),
		DurationHours: b.DurationHours,
		TotalAmount:   b.TotalAmount,
		BookingStatus: b.BookingStatus,
		PaymentStatus: paymentStatus,
		CreatedAt:     b.CreatedAt,
	}
}

// Cancel cancels a booking and, when it was paid, refunds 90% of the total.
// Both status changes commit together or not at all.
func (s *BookingService) Cancel(ctx context.Context, p Principal, id string) (*CancelResult, error) {
	var (
		out     = CancelResult{BookingID: id}
		ownerID string
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var b models.Booking
		if err := tx.Clauses(forUpdate).First(&b, "id = ?", id).Error; err != nil {
			if database.IsNotFound(err) {
				return apperrors.NotFound("Booking not found")
			}
			return err
		}
		if !p.CanAccess(b.UserID) {
			return apperrors.Forbidden("You do not have permission to cancel this booking")
		}
		switch b.BookingStatus {
		case models.BookingCancelled:
			return apperrors.Validation("Booking is already cancelled")
		case models.BookingCompleted:
			return apperrors.Validation("Completed bookings cannot be cancelled")
		}
		ownerID = b.UserID

		if err := tx.Model(&b).Update("booking_status", models.BookingCancelled).Error; err != nil {
			return err
		}

		var pays []models.Payment
		if err := tx.Clauses(forUpdate).Where("booking_id = ?", id).Limit(1).Find(&pays).Error; err != nil {
			return err
		}
		if len(pays) == 0 || pays[0].Status != models.PaymentCompleted {
			return nil
		}

		refund := models.RoundMoney(b.TotalAmount.Mul(refundRate))
		err := tx.Model(&pays[0]).Updates(map[string]any{
			"status": models.PaymentRefunded,
			"notes":  refundNote,
		}).Error
		if err != nil {
			return err
		}
		processing := "processing"
		out.RefundStatus = &processing
		out.RefundAmount = &refund
		return nil
	})
	if err != nil {
		return nil, storeErr(err, "Failed to cancel booking")
	}

	s.log.WithFields(logrus.Fields{"booking_id": id, "user_id": p.ID, "refunded": out.RefundAmount != nil}).Info("booking cancelled")
	publish(ctx, s.events, s.log, events.BookingCancelled, out)
	msg := "Your booking has been cancelled."
	if out.RefundAmount != nil {
		msg = fmt.Sprintf("Your booking has been cancelled. A refund of %s is being processed.", out.RefundAmount.StringFixed(2))
	}
	notifyUser(ctx, s.notify, s.log, ownerID, "Booking Cancelled", msg, models.NotificationBooking, id)
	return &out, nil
}

type StatusResult struct {
	BookingID     string `json:"booking_id"`
	BookingStatus string `json:"booking_status"`
}

// UpdateStatus sets a booking's status. Notes are only overwritten when given.
func (s *BookingService) UpdateStatus(ctx context.Context, id, status string, notes *string) (*StatusResult, error) {
	if !slices.Contains(models.BookingStatuses, status) {
		return nil, apperrors.Validation("Invalid booking status %q", status)
	}

	var ownerID string
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var b models.Booking
		if err := tx.Clauses(forUpdate).First(&b, "id = ?", id).Error; err != nil {
			if database.IsNotFound(err) {
				return apperrors.NotFound("Booking not found")
			}
			return err
		}
		if b.BookingStatus == models.BookingPending && status == models.BookingCompleted {
			return apperrors.Validation("A pending booking must be confirmed before it can be completed")
		}
		ownerID = b.UserID

		updates := map[string]any{"booking_status": status}
		if notes != nil {
			updates["notes"] = *notes
		}
		return tx.Model(&b).Updates(updates).Error
	})
	if err != nil {
		return nil, storeErr(err, "Failed to update booking status")
	}

	s.log.WithFields(logrus.Fields{"booking_id": id, "status": status}).Info("booking status updated")
	if status == models.BookingCompleted {
		publish(ctx, s.events, s.log, events.BookingCompleted, map[string]any{"booking_id": id})
	}
	notifyUser(ctx, s.notify, s.log, ownerID, "Booking Updated",
		fmt.Sprintf("Your booking status is now %s.", status), models.NotificationBooking, id)
	return &StatusResult{BookingID: id, BookingStatus: status}, nil
}

// CompleteFinished marks confirmed bookings whose end time has passed as
// completed. now is read in loc, the zone booking times are expressed in.
func (s *BookingService) CompleteFinished(ctx context.Context, now time.Time, loc *time.Location) ([]string, error) {
	local := now.In(loc)
	today := utils.DateOf(local)
	clock := utils.ClockTime(local.Hour()*60 + local.Minute())

	var ids []string
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Model(&models.Booking{}).
			Where("booking_status = ?", models.BookingConfirmed).
			Where("(booking_date < ? OR (booking_date = ? AND end_time <= ?))", today, today, clock).
			Pluck("id", &ids).Error
		if err != nil || len(ids) == 0 {
			return err
		}
		return tx.Model(&models.Booking{}).
			Where("id IN ? AND booking_status = ?", ids, models.BookingConfirmed).
			Update("booking_status", models.BookingCompleted).Error
	})
	if err != nil {
		return nil, storeErr(err, "Failed to complete bookings")
	}
	for _, id := range ids {
		publish(ctx, s.events, s.log, events.BookingCompleted, map[string]any{"booking_id": id})
	}
	return ids, nil
}

type Period struct {
	FromDate string `json:"from_date"`
	ToDate   string `json:"to_date"`
}

func newPeriod(from, to time.Time) (Period, error) {
	if to.Before(from) {
		return Period{}, apperrors.Validation("to_date must not be before from_date")
	}
	return Period{FromDate: from.Format(utils.DateLayout), ToDate: to.Format(utils.DateLayout)}, nil
}

type FieldUsage struct {
	FieldID       string          `json:"field_id"`
	FieldName     string          `json:"field_name"`
	BookingsCount int             `json:"bookings_count"`
	TotalHours    decimal.Decimal `json:"total_hours"`
	Revenue       decimal.Decimal `json:"revenue"`
}

type DailyBookings struct {
	Date          string          `json:"date"`
	BookingsCount int             `json:"bookings_count"`
	Revenue       decimal.Decimal `json:"revenue"`
}

type BookingReport struct {
	Period            Period          `json:"period"`
	TotalBookings     int             `json:"total_bookings"`
	CompletedBookings int             `json:"completed_bookings"`
	CancelledBookings int             `json:"cancelled_bookings"`
	TotalRevenue      decimal.Decimal `json:"total_revenue"`
	FieldsUsage       []FieldUsage    `json:"fields_usage"`
	DailyBookings     []DailyBookings `json:"daily_bookings"`
}

// Report aggregates bookings dated within [from, to]. Revenue, field usage
// and daily figures leave cancelled bookings out.
func (s *BookingService) Report(ctx context.Context, from, to time.Time, fieldID *string) (*BookingReport, error) {
	period, err := newPeriod(from, to)
	if err != nil {
		return nil, err
	}

	q := s.db.WithContext(ctx).Preload("Field").
		Where("booking_date >= ? AND booking_date <= ?", utils.DateOf(from), utils.DateOf(to))
	if fieldID != nil && *fieldID != "" {
		q = q.Where("field_id = ?", *fieldID)
	}
	var rows []models.Booking
	if err := q.Order("booking_date ASC").Find(&rows).Error; err != nil {
		return nil, storeErr(err, "Failed to load bookings")
	}

	rep := BookingReport{
		Period:        period,
		TotalBookings: len(rows),
		TotalRevenue:  decimal.Zero,
		FieldsUsage:   []FieldUsage{},
		DailyBookings: []DailyBookings{},
	}
	fields := map[string]*FieldUsage{}
	days := map[string]*DailyBookings{}
	for _, b := range rows {
		switch b.BookingStatus {
		case models.BookingCompleted:
			rep.CompletedBookings++
		case models.BookingCancelled:
			rep.CancelledBookings++
			continue
		}
		rep.TotalRevenue = rep.TotalRevenue.Add(b.TotalAmount)

		fu, ok := fields[b.FieldID]
		if !ok {
			fu = &FieldUsage{FieldID: b.FieldID, FieldName: b.Field.FieldName}
			fields[b.FieldID] = fu
		}
		fu.BookingsCount++
		fu.TotalHours = fu.TotalHours.Add(b.DurationHours)
		fu.Revenue = fu.Revenue.Add(b.TotalAmount)

		key := b.BookingDate.Format(utils.DateLayout)
		d, ok := days[key]
		if !ok {
			d = &DailyBookings{Date: key}
			days[key] = d
		}
		d.BookingsCount++
		d.Revenue = d.Revenue.Add(b.TotalAmount)
	}

	rep.TotalRevenue = models.RoundMoney(rep.TotalRevenue)
	for _, fu := range fields {
		fu.TotalHours = fu.TotalHours.Round(2)
		fu.Revenue = models.RoundMoney(fu.Revenue)
		rep.FieldsUsage = append(rep.FieldsUsage, *fu)
	}
	sort.Slice(rep.FieldsUsage, func(i, j int) bool {
		a, b := rep.FieldsUsage[i], rep.FieldsUsage[j]
		if a.BookingsCount != b.BookingsCount {
			return a.BookingsCount > b.BookingsCount
		}
		return a.FieldName < b.FieldName
	})
	for _, d := range days {
		d.Revenue = models.RoundMoney(d.Revenue)
		rep.DailyBookings = append(rep.DailyBookings, *d)
	}
	sort.Slice(rep.DailyBookings, func(i, j int) bool {
		return rep.DailyBookings[i].Date < rep.DailyBookings[j].Date
	})
	return &rep, nil
}
