package models

import "time"

const (
	RewardDiscount    = "discount"
	RewardFreeBooking = "free_booking"
	RewardMerchandise = "merchandise"

	PointSourceBooking = "booking"

	RedemptionCompleted = "completed"
)

// LoyaltyPoint is one grant. A partially consumed grant is marked used and
// its unconsumed remainder lives on as a new unused row with the same
// source, reference, earned and expiry dates.
type LoyaltyPoint struct {
	ID           string    `gorm:"type:varchar(50);primaryKey" json:"point_id"`
	UserID       string    `gorm:"type:varchar(50);not null;index" json:"-"`
	PointsEarned int       `gorm:"not null" json:"points_earned"`
	Source       string    `gorm:"size:50;not null" json:"source"`
	Reference    string    `gorm:"size:50;not null" json:"reference"`
	IsUsed       bool      `gorm:"not null;default:false" json:"is_used"`
	EarnedDate   time.Time `gorm:"not null;index" json:"earned_date"`
	ExpiryDate   time.Time `gorm:"not null;index" json:"expiry_date"`

	User User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}

type LoyaltyProgram struct {
	ID             string     `gorm:"type:varchar(50);primaryKey" json:"program_id"`
	ProgramName    string     `gorm:"size:100;not null" json:"program_name"`
	Description    string     `gorm:"type:text;not null" json:"description"`
	PointsRequired int        `gorm:"not null" json:"points_required"`
	RewardType     string     `gorm:"size:20;not null" json:"reward_type"`
	RewardValue    string     `gorm:"size:50;not null" json:"reward_value"`
	IsActive       bool       `gorm:"not null;default:true" json:"is_active"`
	StartDate      time.Time  `gorm:"type:date;not null" json:"start_date"`
	EndDate        *time.Time `gorm:"type:date" json:"end_date"`

	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`
}

type Redemption struct {
	ID             string     `gorm:"type:varchar(50);primaryKey" json:"redemption_id"`
	UserID         string     `gorm:"type:varchar(50);not null;index" json:"-"`
	ProgramID      string     `gorm:"type:varchar(50);not null;index" json:"program_id"`
	PointsUsed     int        `gorm:"not null" json:"points_used"`
	RedemptionCode string     `gorm:"size:50;not null;unique" json:"redemption_code"`
	Status         string     `gorm:"size:20;not null;default:'pending'" json:"status"`
	Notes          *string    `gorm:"type:text" json:"notes"`
	RedemptionDate time.Time  `gorm:"not null;index" json:"redemption_date"`
	ExpiryDate     *time.Time `json:"expiry_date,omitempty"`

	User    User           `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Program LoyaltyProgram `gorm:"foreignKey:ProgramID;constraint:OnDelete:RESTRICT" json:"-"`
}
