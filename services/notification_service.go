package services

import (
	"context"

	"github.com/anjiri1684/field_booking/apperrors"
	"github.com/anjiri1684/field_booking/models"
	"github.com/anjiri1684/field_booking/utils"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type NotificationService struct {
	db     *gorm.DB
	log    *logrus.Logger
	pusher Pusher
}

func NewNotificationService(db *gorm.DB, log *logrus.Logger, pusher Pusher) *NotificationService {
	return &NotificationService{db: db, log: log, pusher: pusher}
}

var notificationTypes = map[string]bool{
	models.NotificationSystem:    true,
	models.NotificationBooking:   true,
	models.NotificationPayment:   true,
	models.NotificationPromotion: true,
}

// Notify stores one notification per recipient in a single transaction and
// then pushes each to the recipient's live connection. A nil userID
// broadcasts to every active user. Push failures are logged only.
func (s *NotificationService) Notify(ctx context.Context, userID *string, title, message, kind string, referenceID *string) (int, error) {
	if !notificationTypes[kind] {
		return 0, apperrors.Validation("Invalid notification type %q", kind)
	}

	var rows []models.Notification
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var recipients []string
		if userID != nil {
			var n int64
			if err := tx.Model(&models.User{}).Where("id = ?", *userID).Count(&n).Error; err != nil {
				return err
			}
			if n == 0 {
				return apperrors.NotFound("User not found")
			}
			recipients = []string{*userID}
		} else if err := tx.Model(&models.User{}).Where("is_active = ?", true).Pluck("id", &recipients).Error; err != nil {
			return err
		}
		if len(recipients) == 0 {
			return nil
		}

		rows = make([]models.Notification, 0, len(recipients))
		for _, id := range recipients {
			rows = append(rows, models.Notification{
				ID:          utils.NewID(utils.KindNotification),
				UserID:      id,
				Title:       title,
				Message:     message,
				Type:        kind,
				ReferenceID: referenceID,
			})
		}
		return tx.CreateInBatches(&rows, 100).Error
	})
	if err != nil {
		return 0, storeErr(err, "Failed to create notifications")
	}

	if s.pusher != nil {
		for _, n := range rows {
			if _, err := s.pusher.Push(n.UserID, n); err != nil {
				s.log.WithError(err).WithField("user_id", n.UserID).Warn("dropping stale websocket connection")
			}
		}
	}
	return len(rows), nil
}

func (s *NotificationService) ListForUser(ctx context.Context, userID string, unreadOnly bool, page utils.Page) ([]models.Notification, utils.PageMeta, error) {
	q := func() *gorm.DB {
		db := s.db.WithContext(ctx).Model(&models.Notification{}).Where("user_id = ?", userID)
		if unreadOnly {
			db = db.Where("is_read = ?", false)
		}
		return db
	}

	var total int64
	if err := q().Count(&total).Error; err != nil {
		return nil, utils.PageMeta{}, storeErr(err, "Failed to count notifications")
	}
	var rows []models.Notification
	if err := q().Scopes(page.Scope).Order("created_at DESC").Find(&rows).Error; err != nil {
		return nil, utils.PageMeta{}, storeErr(err, "Failed to list notifications")
	}
	return rows, page.Meta(total), nil
}

// MarkAsRead marks one notification read, or all of the user's when id is empty.
func (s *NotificationService) MarkAsRead(ctx context.Context, userID, id string) (int64, error) {
	q := s.db.WithContext(ctx).Model(&models.Notification{}).Where("user_id = ? AND is_read = ?", userID, false)
	if id != "" {
		var exists int64
		if err := s.db.WithContext(ctx).Model(&models.Notification{}).Where("id = ? AND user_id = ?", id, userID).Count(&exists).Error; err != nil {
			return 0, storeErr(err, "Failed to load notification")
		}
		if exists == 0 {
			return 0, apperrors.NotFound("Notification not found")
		}
		q = q.Where("id = ?", id)
	}
	res := q.Update("is_read", true)
	if res.Error != nil {
		return 0, storeErr(res.Error, "Failed to update notifications")
	}
	return res.RowsAffected, nil
}
