package services

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"time"

	config "github.com/anjiri1684/field_booking/configs"
	"github.com/anjiri1684/field_booking/apperrors"
	"github.com/anjiri1684/field_booking/database"
	"github.com/anjiri1684/field_booking/events"
	"github.com/anjiri1684/field_booking/models"
	"github.com/anjiri1684/field_booking/notifications"
	"github.com/anjiri1684/field_booking/utils"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"gorm.io/gorm"
)

const (
	VerifyCompleted = 2
	VerifyFailed    = 3
)

// Methods settled by the provider itself; anything else needs an admin.
var selfVerifiedMethods = []string{"credit_card", "e_wallet"}

type PaymentService struct {
	db     *gorm.DB
	log    *logrus.Logger
	cfg    config.Config
	events events.Publisher
	notify Notifier
	mailer notifications.Mailer
}

func NewPaymentService(db *gorm.DB, log *logrus.Logger, cfg config.Config, pub events.Publisher, notify Notifier, mailer notifications.Mailer) *PaymentService {
	return &PaymentService{db: db, log: log, cfg: cfg, events: pub, notify: notify, mailer: mailer}
}

type CreatePaymentInput struct {
	BookingID     string
	MethodID      uint
	Amount        decimal.Decimal
	TransactionID *string
}

type PaymentCreated struct {
	PaymentID            string `json:"payment_id"`
	Status               string `json:"status"`
	VerificationRequired bool   `json:"verification_required"`
}

type VerifyResult struct {
	PaymentID    string `json:"payment_id"`
	BookingID    string `json:"booking_id"`
	Status       string `json:"status"`
	PointsEarned *int   `json:"points_earned,omitempty"`
}

type PaymentView struct {
	PaymentID     string          `json:"payment_id"`
	BookingID     string          `json:"booking_id"`
	Amount        decimal.Decimal `json:"amount"`
	Method        string          `json:"method_name"`
	Status        string          `json:"status"`
	TransactionID *string         `json:"transaction_id"`
	PaymentDate   *time.Time      `json:"payment_date"`
	Notes         *string         `json:"notes"`
	CreatedAt     time.Time       `json:"created_at"`
}

type PaymentFilter struct {
	Status string
	From   *time.Time
	To     *time.Time
}

func (f PaymentFilter) scope(db *gorm.DB) *gorm.DB {
	if f.Status != "" {
		db = db.Where("status = ?", f.Status)
	}
	if f.From != nil {
		db = db.Where("created_at >= ?", utils.DateOf(*f.From))
	}
	if f.To != nil {
		db = db.Where("created_at < ?", utils.DateOf(*f.To).AddDate(0, 0, 1))
	}
	return db
}

func viewOf(p models.Payment) PaymentView {
	return PaymentView{
		PaymentID:     p.ID,
		BookingID:     p.BookingID,
		Amount:        p.Amount,
		Method:        p.Method.MethodName,
		Status:        p.Status,
		TransactionID: p.TransactionID,
		PaymentDate:   p.PaymentDate,
		Notes:         p.Notes,
		CreatedAt:     p.CreatedAt,
	}
}

// PointsFor is the grant earned by a settled booking of total.
func PointsFor(total decimal.Decimal, base int) int {
	return int(total.Div(decimal.NewFromInt(10)).Floor().IntPart()) + base
}

func (s *PaymentService) Create(ctx context.Context, p Principal, in CreatePaymentInput) (*PaymentCreated, error) {
	if !in.Amount.IsPositive() {
		return nil, apperrors.Validation("Amount must be positive")
	}

	var out PaymentCreated
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var b models.Booking
		if err := tx.Select("id", "user_id", "booking_status").First(&b, "id = ?", in.BookingID).Error; err != nil {
			if database.IsNotFound(err) {
				return apperrors.NotFound("Booking not found")
			}
			return err
		}
		if !p.CanAccess(b.UserID) {
			return apperrors.Forbidden("You do not have permission to pay for this booking")
		}
		if b.BookingStatus == models.BookingCancelled {
			return apperrors.Validation("Cannot pay for a cancelled booking")
		}

		var existing int64
		if err := tx.Model(&models.Payment{}).Where("booking_id = ?", b.ID).Count(&existing).Error; err != nil {
			return err
		}
		if existing > 0 {
			return apperrors.Conflict("Payment already exists for this booking")
		}

		var method models.PaymentMethod
		if err := tx.First(&method, "id = ?", in.MethodID).Error; err != nil {
			if database.IsNotFound(err) {
				return apperrors.Validation("Invalid payment method")
			}
			return err
		}
		if !method.IsActive {
			return apperrors.Validation("Payment method %s is not active", method.MethodName)
		}

		payment := models.Payment{
			ID:            utils.NewID(utils.KindPayment),
			BookingID:     b.ID,
			MethodID:      method.ID,
			Amount:        models.RoundMoney(in.Amount),
			Status:        models.PaymentPending,
			TransactionID: in.TransactionID,
		}
		if err := tx.Create(&payment).Error; err != nil {
			if database.IsDuplicate(err) {
				return apperrors.Conflict("Payment already exists for this booking")
			}
			return err
		}

		out = PaymentCreated{
			PaymentID:            payment.ID,
			Status:               payment.Status,
			VerificationRequired: !slices.Contains(selfVerifiedMethods, method.MethodName),
		}
		return nil
	})
	if err != nil {
		return nil, storeErr(err, "Failed to create payment")
	}

	s.log.WithFields(logrus.Fields{"payment_id": out.PaymentID, "booking_id": in.BookingID}).Info("payment recorded")
	publish(ctx, s.events, s.log, events.PaymentCreated, map[string]any{"payment_id": out.PaymentID, "booking_id": in.BookingID})
	return &out, nil
}

func (s *PaymentService) Get(ctx context.Context, p Principal, id string) (*PaymentView, error) {
	var pay models.Payment
	err := s.db.WithContext(ctx).Preload("Method").Preload("Booking").First(&pay, "id = ?", id).Error
	if database.IsNotFound(err) {
		return nil, apperrors.NotFound("Payment not found")
	}
	if err != nil {
		return nil, storeErr(err, "Failed to load payment")
	}
	if !p.CanAccess(pay.Booking.UserID) {
		return nil, apperrors.Forbidden("You do not have permission to view this payment")
	}
	v := viewOf(pay)
	return &v, nil
}

func (s *PaymentService) ListMethods(ctx context.Context) ([]models.PaymentMethod, error) {
	var methods []models.PaymentMethod
	if err := s.db.WithContext(ctx).Where("is_active = ?", true).Order("id ASC").Find(&methods).Error; err != nil {
		return nil, storeErr(err, "Failed to load payment methods")
	}
	return methods, nil
}

func (s *PaymentService) ListAll(ctx context.Context, filter PaymentFilter, page utils.Page) ([]PaymentView, utils.PageMeta, error) {
	var total int64
	if err := s.db.WithContext(ctx).Model(&models.Payment{}).Scopes(filter.scope).Count(&total).Error; err != nil {
		return nil, utils.PageMeta{}, storeErr(err, "Failed to count payments")
	}
	var rows []models.Payment
	err := s.db.WithContext(ctx).Preload("Method").Scopes(filter.scope, page.Scope).Order("created_at DESC").Find(&rows).Error
	if err != nil {
		return nil, utils.PageMeta{}, storeErr(err, "Failed to list payments")
	}
	out := make([]PaymentView, 0, len(rows))
	for _, r := range rows {
		out = append(out, viewOf(r))
	}
	return out, page.Meta(total), nil
}

// Verify settles a payment. statusID 2 completes it, which confirms the
// booking and grants loyalty points; 3 marks it failed and leaves the
// booking as it was. Settled payments cannot be verified again.
func (s *PaymentService) Verify(ctx context.Context, paymentID string, statusID int, notes *string) (*VerifyResult, error) {
	ctx, span := tracer.Start(ctx, "PaymentService.Verify")
	defer span.End()
	span.SetAttributes(attribute.String("payment.id", paymentID), attribute.Int("payment.status_id", statusID))

	var status string
	switch statusID {
	case VerifyCompleted:
		status = models.PaymentCompleted
	case VerifyFailed:
		status = models.PaymentFailed
	default:
		return nil, apperrors.Validation("Invalid status ID")
	}

	var (
		out     = VerifyResult{PaymentID: paymentID, Status: status}
		booking models.Booking
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var pay models.Payment
		if err := tx.Clauses(forUpdate).First(&pay, "id = ?", paymentID).Error; err != nil {
			if database.IsNotFound(err) {
				return apperrors.NotFound("Payment not found")
			}
			return err
		}
		if pay.Status == models.PaymentCompleted || pay.Status == models.PaymentRefunded {
			return apperrors.Validation("Payment has already been %s", pay.Status)
		}
		out.BookingID = pay.BookingID

		if err := tx.Clauses(forUpdate).First(&booking, "id = ?", pay.BookingID).Error; err != nil {
			return err
		}
		if err := tx.First(&booking.User, "id = ?", booking.UserID).Error; err != nil {
			return err
		}
		if status == models.PaymentCompleted && booking.BookingStatus == models.BookingCancelled {
			return apperrors.Validation("Cannot complete payment for a cancelled booking")
		}

		now := time.Now().UTC()
		err := tx.Model(&pay).Updates(map[string]any{
			"status":       status,
			"notes":        notes,
			"payment_date": now,
		}).Error
		if err != nil {
			return err
		}
		if status != models.PaymentCompleted {
			return nil
		}

		if err := tx.Model(&models.Booking{}).Where("id = ?", booking.ID).Update("booking_status", models.BookingConfirmed).Error; err != nil {
			return err
		}

		points := PointsFor(booking.TotalAmount, s.cfg.PointsPerBooking)
		grant := models.LoyaltyPoint{
			ID:           utils.NewID(utils.KindPoint),
			UserID:       booking.UserID,
			PointsEarned: points,
			Source:       models.PointSourceBooking,
			Reference:    booking.ID,
			EarnedDate:   now,
			ExpiryDate:   now.AddDate(0, 0, s.cfg.PointsExpiryDays),
		}
		if err := tx.Create(&grant).Error; err != nil {
			return err
		}
		out.PointsEarned = &points
		return nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, storeErr(err, "Failed to verify payment")
	}

	s.log.WithFields(logrus.Fields{"payment_id": paymentID, "booking_id": out.BookingID, "status": status}).Info("payment verified")
	publish(ctx, s.events, s.log, events.PaymentVerified, out)

	if status == models.PaymentCompleted {
		notifyUser(ctx, s.notify, s.log, booking.UserID, "Booking Confirmed",
			fmt.Sprintf("Your payment was verified and your booking on %s is confirmed. You earned %d points.",
				booking.BookingDate.Format(utils.DateLayout), *out.PointsEarned),
			models.NotificationPayment, out.BookingID)
		notifications.SendAsync(s.mailer, s.log, booking.User.FullName, booking.User.Email,
			"Your Booking is Confirmed!",
			fmt.Sprintf("<h1>Booking Confirmed</h1><p>Your booking on %s from %s to %s is confirmed.</p>",
				booking.BookingDate.Format(utils.DateLayout),
				utils.FormatClock(utils.ClockMinutes(booking.StartTime)),
				utils.FormatClock(utils.ClockMinutes(booking.EndTime))))
	} else {
		notifyUser(ctx, s.notify, s.log, booking.UserID, "Payment Failed",
			"Your payment could not be verified. Please contact us or submit a new payment.",
			models.NotificationPayment, out.BookingID)
	}
	return &out, nil
}

type MethodSummary struct {
	MethodName string          `json:"method_name"`
	Count      int             `json:"count"`
	Amount     decimal.Decimal `json:"amount"`
}

type PaymentReport struct {
	Period         Period          `json:"period"`
	TotalRevenue   decimal.Decimal `json:"total_revenue"`
	Payments       []PaymentView   `json:"payments"`
	MethodsSummary []MethodSummary `json:"methods_summary"`
}

// Report covers completed payments created within [from, to].
func (s *PaymentService) Report(ctx context.Context, from, to time.Time) (*PaymentReport, error) {
	period, err := newPeriod(from, to)
	if err != nil {
		return nil, err
	}

	var rows []models.Payment
	err = s.db.WithContext(ctx).Preload("Method").
		Scopes(PaymentFilter{Status: models.PaymentCompleted, From: &from, To: &to}.scope).
		Order("created_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, storeErr(err, "Failed to load payments")
	}

	rep := PaymentReport{Period: period, Payments: make([]PaymentView, 0, len(rows)), MethodsSummary: []MethodSummary{}}
	byMethod := map[string]*MethodSummary{}
	for _, r := range rows {
		rep.TotalRevenue = rep.TotalRevenue.Add(r.Amount)
		rep.Payments = append(rep.Payments, viewOf(r))
		m, ok := byMethod[r.Method.MethodName]
		if !ok {
			m = &MethodSummary{MethodName: r.Method.MethodName}
			byMethod[r.Method.MethodName] = m
		}
		m.Count++
		m.Amount = m.Amount.Add(r.Amount)
	}
	rep.TotalRevenue = models.RoundMoney(rep.TotalRevenue)
	for _, m := range byMethod {
		m.Amount = models.RoundMoney(m.Amount)
		rep.MethodsSummary = append(rep.MethodsSummary, *m)
	}
	sort.Slice(rep.MethodsSummary, func(i, j int) bool {
		return rep.MethodsSummary[i].MethodName < rep.MethodsSummary[j].MethodName
	})
	return &rep, nil
}
