package models

import "time"

// User logs in with Email. Password holds the bcrypt hash.
type User struct {
	ID          uint      `gorm:"primaryKey"`
	Email       string    `gorm:"size:254;uniqueIndex;not null"`
	Username    string    `gorm:"size:150;uniqueIndex;not null"`
	FirstName   string    `gorm:"size:150;not null"`
	LastName    string    `gorm:"size:150;not null"`
	Password    string    `gorm:"size:255;not null" json:"-"` // Don't expose password hash
	IsBlocked   bool      `gorm:"not null;default:false"`
	IsSuperuser bool      `gorm:"not null;default:false"`
	DateJoined  time.Time `gorm:"autoCreateTime"`
	UpdatedAt   time.Time
	Roles       []Role `gorm:"many2many:user_roles;constraint:OnDelete:CASCADE"`
}
