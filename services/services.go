package services

import (
	"context"
	"errors"

	config "github.com/anjiri1684/field_booking/configs"
	"github.com/anjiri1684/field_booking/apperrors"
	"github.com/anjiri1684/field_booking/events"
	"github.com/anjiri1684/field_booking/models"
	"github.com/anjiri1684/field_booking/notifications"
	"github.com/anjiri1684/field_booking/obs"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var tracer = otel.Tracer(obs.TracerName)

// Principal is the authenticated caller as established by the JWT middleware.
type Principal struct {
	ID   string
	Role string
}

func (p Principal) IsAdmin() bool {
	return p.Role == models.RoleAdmin || p.Role == models.RoleSuperAdmin
}

// CanAccess reports whether p may act on a resource owned by ownerID.
func (p Principal) CanAccess(ownerID string) bool {
	return p.ID == ownerID || p.IsAdmin()
}

// Notifier records in-app notifications. A nil userID broadcasts to every
// active user. It returns how many users were notified.
type Notifier interface {
	Notify(ctx context.Context, userID *string, title, message, kind string, referenceID *string) (int, error)
}

// Pusher delivers a payload to a user's live connection.
type Pusher interface {
	Push(userID string, v any) (bool, error)
}

type Deps struct {
	DB     *gorm.DB
	Log    *logrus.Logger
	Config config.Config
	Events events.Publisher
	Mailer notifications.Mailer
	Pusher Pusher
}

type Services struct {
	Fields        *FieldService
	Bookings      *BookingService
	Payments      *PaymentService
	Loyalty       *LoyaltyService
	Reports       *ReportService
	Users         *UserService
	Notifications *NotificationService
}

func New(d Deps) *Services {
	if d.Events == nil {
		d.Events = events.Nop{}
	}
	if d.Mailer == nil {
		d.Mailer = notifications.LogMailer{Log: d.Log}
	}
	notifier := NewNotificationService(d.DB, d.Log, d.Pusher)
	payments := NewPaymentService(d.DB, d.Log, d.Config, d.Events, notifier, d.Mailer)
	return &Services{
		Fields:        NewFieldService(d.DB, d.Log),
		Bookings:      NewBookingService(d.DB, d.Log, d.Events, notifier),
		Payments:      payments,
		Loyalty:       NewLoyaltyService(d.DB, d.Log, d.Events, notifier),
		Reports:       NewReportService(d.DB, payments),
		Users:         NewUserService(d.DB, d.Log, d.Config, d.Mailer),
		Notifications: notifier,
	}
}

// storeErr passes service errors through and wraps anything else as Internal.
func storeErr(err error, msg string) error {
	if err == nil {
		return nil
	}
	var appErr *apperrors.Error
	if errors.As(err, &appErr) {
		return err
	}
	return apperrors.Internal(msg, err)
}

var forUpdate = clause.Locking{Strength: "UPDATE"}

// notifyUser never fails the caller; delivery problems are logged.
func notifyUser(ctx context.Context, n Notifier, log *logrus.Logger, userID, title, message, kind, ref string) {
	if n == nil {
		return
	}
	if _, err := n.Notify(ctx, &userID, title, message, kind, &ref); err != nil {
		log.WithError(err).WithField("user_id", userID).Warn("failed to record notification")
	}
}

// publish emits an event after commit; broker failures are only logged.
func publish(ctx context.Context, pub events.Publisher, log *logrus.Logger, key string, payload any) {
	if err := pub.PublishJSON(ctx, key, payload); err != nil {
		log.WithError(err).WithField("event", key).Warn("failed to publish event")
	}
}
