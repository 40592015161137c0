package models

import "time"

const (
	NotificationSystem    = "system"
	NotificationBooking   = "booking"
	NotificationPayment   = "payment"
	NotificationPromotion = "promotion"
)

type Notification struct {
	ID          string    `gorm:"type:varchar(50);primaryKey" json:"notification_id"`
	UserID      string    `gorm:"type:varchar(50);not null;index" json:"-"`
	Title       string    `gorm:"size:100;not null" json:"title"`
	Message     string    `gorm:"type:text;not null" json:"message"`
	Type        string    `gorm:"size:20;not null" json:"type"`
	ReferenceID *string   `gorm:"size:50" json:"reference_id"`
	IsRead      bool      `gorm:"not null;default:false;index" json:"is_read"`
	CreatedAt   time.Time `json:"created_at"`

	User User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}
