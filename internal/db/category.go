package db

import "time"

// Category groups articles. Deleting a category leaves its articles in
// place with a null category.
type Category struct {
	ID       uint      `gorm:"primaryKey"`
	Title    string    `gorm:"size:100;not null"`
	Created  time.Time `gorm:"autoCreateTime"`
	Articles []Article `gorm:"constraint:OnDelete:SET NULL;"`
}
