package models

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	FieldIndoor  = "indoor"
	FieldOutdoor = "outdoor"
	FieldHybrid  = "hybrid"
)

type Field struct {
	ID          string          `gorm:"type:varchar(50);primaryKey" json:"field_id"`
	FieldName   string          `gorm:"size:100;not null" json:"field_name"`
	Description *string         `gorm:"type:text" json:"description"`
	Capacity    int             `gorm:"not null" json:"capacity"`
	HourlyRate  decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"hourly_rate"`
	FieldType   string          `gorm:"size:20;not null" json:"field_type"`
	IsAvailable bool            `gorm:"not null;default:true" json:"is_available"`

	Images []FieldImage `gorm:"foreignKey:FieldID;constraint:OnDelete:CASCADE" json:"images"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type FieldImage struct {
	ID        string    `gorm:"type:varchar(50);primaryKey" json:"image_id"`
	FieldID   string    `gorm:"type:varchar(50);not null;index" json:"-"`
	ImageURL  string    `gorm:"size:255;not null" json:"image_url"`
	IsPrimary bool      `gorm:"not null;default:false" json:"is_primary"`
	CreatedAt time.Time `json:"created_at"`
}
