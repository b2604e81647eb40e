package db

// Tag 定义了标签模型，text 全局唯一（区分大小写）
type Tag struct {
	ID   uint   `gorm:"primaryKey"`
	Text string `gorm:"size:30;uniqueIndex;not null"`
}
