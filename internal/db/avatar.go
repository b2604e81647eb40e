package db

import "time"

// Avatar is an uploaded title image. Content holds the storage path,
// partitioned by upload date (avatar/20060102/...).
type Avatar struct {
	ID      uint      `gorm:"primaryKey"`
	Content string    `gorm:"size:255;not null"`
	Created time.Time `gorm:"autoCreateTime"`
}
