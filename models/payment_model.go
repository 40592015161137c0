package models

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	PaymentPending   = "pending"
	PaymentCompleted = "completed"
	PaymentFailed    = "failed"
	PaymentRefunded  = "refunded"
)

type PaymentMethod struct {
	ID         uint      `gorm:"primaryKey;autoIncrement" json:"method_id"`
	MethodName string    `gorm:"size:50;not null;unique" json:"method_name"`
	IsActive   bool      `gorm:"not null;default:true" json:"-"`
	CreatedAt  time.Time `json:"-"`
}

type Payment struct {
	ID            string          `gorm:"type:varchar(50);primaryKey" json:"payment_id"`
	BookingID     string          `gorm:"type:varchar(50);not null;unique" json:"booking_id"`
	MethodID      uint            `gorm:"not null" json:"method_id"`
	Amount        decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"amount"`
	Status        string          `gorm:"size:20;not null;default:'pending';index" json:"status"`
	TransactionID *string         `gorm:"size:100" json:"transaction_id"`
	PaymentDate   *time.Time      `json:"payment_date"`
	Notes         *string         `gorm:"type:text" json:"notes"`

	Booking Booking       `gorm:"foreignKey:BookingID;constraint:OnDelete:CASCADE" json:"-"`
	Method  PaymentMethod `gorm:"foreignKey:MethodID;constraint:OnDelete:RESTRICT" json:"method"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
