package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

const (
	BookingPending   = "pending"
	BookingConfirmed = "confirmed"
	BookingCompleted = "completed"
	BookingCancelled = "cancelled"
)

var BookingStatuses = []string{BookingPending, BookingConfirmed, BookingCompleted, BookingCancelled}

type Booking struct {
	ID            string          `gorm:"type:varchar(50);primaryKey" json:"booking_id"`
	UserID        string          `gorm:"type:varchar(50);not null;index" json:"user_id"`
	FieldID       string          `gorm:"type:varchar(50);not null;index" json:"field_id"`
	BookingDate   time.Time       `gorm:"type:date;not null;index" json:"booking_date"`
	StartTime     datatypes.Time  `gorm:"not null" json:"start_time"`
	EndTime       datatypes.Time  `gorm:"not null" json:"end_time"`
	DurationHours decimal.Decimal `gorm:"type:numeric(4,2);not null" json:"duration_hours"`
	TotalAmount   decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"total_amount"`
	BookingStatus string          `gorm:"size:20;not null;default:'pending';index" json:"booking_status"`
	Notes         *string         `gorm:"type:text" json:"notes"`

	User  User  `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Field Field `gorm:"foreignKey:FieldID;constraint:OnDelete:CASCADE" json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
