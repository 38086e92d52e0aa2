package models

type Tag struct {
	ID    uint   `gorm:"primaryKey"`
	Name  string `gorm:"size:200;not null"`
	Color string `gorm:"size:7;not null"` // #RRGGBB
	Slug  string `gorm:"size:200;uniqueIndex;not null"`
}
