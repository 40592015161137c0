package models

import "time"

const (
	RoleCustomer   = "customer"
	RoleAdmin      = "admin"
	RoleSuperAdmin = "super_admin"
)

type User struct {
	ID          string    `gorm:"type:varchar(50);primaryKey" json:"user_id"`
	Username    string    `gorm:"size:50;not null;unique" json:"username"`
	Email       string    `gorm:"size:100;not null;unique" json:"email"`
	Password    string    `gorm:"size:100;not null" json:"-"`
	FullName    string    `gorm:"size:100;not null" json:"full_name"`
	PhoneNumber string    `gorm:"size:20;not null" json:"phone_number"`
	UserType    string    `gorm:"size:20;not null;default:'customer'" json:"user_type"`
	IsActive    bool      `gorm:"not null;default:true" json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
