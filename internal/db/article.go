package db

import "time"

// Article 定义了文章模型
type Article struct {
	ID         uint   `gorm:"primaryKey"`
	Title      string `gorm:"size:100;not null"`
	Body       string `gorm:"type:text"`
	AuthorID   uint   `gorm:"not null;index"`
	Author     User   `gorm:"constraint:OnDelete:CASCADE;"`
	CategoryID *uint  `gorm:"index"`
	Category   *Category
	AvatarID   *uint     `gorm:"index"`
	Avatar     *Avatar   `gorm:"constraint:OnDelete:SET NULL;"`
	Tags       []Tag     `gorm:"many2many:article_tags;"`
	Created    time.Time `gorm:"autoCreateTime"`
	Updated    time.Time `gorm:"autoUpdateTime"`
}

// TagTexts returns the labels of the loaded tags in their stored order.
func (a Article) TagTexts() []string {
	texts := make([]string, 0, len(a.Tags))
	for _, tag := range a.Tags {
		texts = append(texts, tag.Text)
	}
	return texts
}
