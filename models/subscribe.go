package models

import "time"

// Subscribe records that User follows Author. A user never follows themselves.
type Subscribe struct {
	ID        uint `gorm:"primaryKey"`
	UserID    uint `gorm:"not null;uniqueIndex:idx_subscribe_user_author"`
	AuthorID  uint `gorm:"not null;uniqueIndex:idx_subscribe_user_author;index"`
	User      User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	Author    User `gorm:"foreignKey:AuthorID;constraint:OnDelete:CASCADE"`
	CreatedAt time.Time
}
