package service

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/quillpress/internal/db"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrTagExists   = errors.New("tag already exists")
	ErrTagNotFound = errors.New("tag not found")
)

const maxTagLength = 30

// TagService wraps tag related operations.
type TagService struct {
	db *gorm.DB
}

// NewTagService creates a TagService instance.
func NewTagService(gdb *gorm.DB) *TagService {
	return &TagService{db: gdb}
}

// List returns one page of tags ordered by id.
func (s *TagService) List(p Pagination) (*PageResult[db.Tag], error) {
	return paginate[db.Tag](s.db, p, nil, nil, "tags.id asc")
}

// Get fetches a tag by id.
func (s *TagService) Get(id uint) (*db.Tag, error) {
	var tag db.Tag
	if err := s.db.First(&tag, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTagNotFound
		}
		return nil, err
	}
	return &tag, nil
}

// Create inserts a new tag with unique text.
func (s *TagService) Create(text string) (*db.Tag, error) {
	text, err := validateTagText(text)
	if err != nil {
		return nil, err
	}

	var count int64
	if err := s.db.Model(&db.Tag{}).Where("text = ?", text).Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, tagExistsError(text)
	}

	tag := db.Tag{Text: text}
	if err := s.db.Create(&tag).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, tagExistsError(text)
		}
		return nil, err
	}

	return &tag, nil
}

// Update changes the tag text while keeping uniqueness. Keeping the
// current text is allowed.
func (s *TagService) Update(id uint, text string) (*db.Tag, error) {
	text, err := validateTagText(text)
	if err != nil {
		return nil, err
	}

	tag, err := s.Get(id)
	if err != nil {
		return nil, err
	}

	var count int64
	if err := s.db.Model(&db.Tag{}).Where("text = ? AND id <> ?", text, id).Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, tagExistsError(text)
	}

	tag.Text = text
	if err := s.db.Save(tag).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, tagExistsError(text)
		}
		return nil, err
	}

	return tag, nil
}

// Delete removes a tag and its links to articles.
func (s *TagService) Delete(id uint) error {
	tag, err := s.Get(id)
	if err != nil {
		return err
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("DELETE FROM article_tags WHERE tag_id = ?", tag.ID).Error; err != nil {
			return err
		}
		return tx.Delete(tag).Error
	})
}

// Normalize makes sure every requested label exists as a Tag and returns
// the tags in request order, duplicates collapsed. It runs on the caller's
// transaction so rolling back the article write also drops the tags it
// created. Insertion tolerates a concurrent writer creating the same label.
func (s *TagService) Normalize(tx *gorm.DB, labels []string) ([]db.Tag, error) {
	texts, err := normalizeLabels(labels)
	if err != nil {
		return nil, err
	}

	tags := make([]db.Tag, 0, len(texts))
	for _, text := range texts {
		tag, err := ensureTag(tx, text)
		if err != nil {
			return nil, err
		}
		tags = append(tags, tag)
	}
	return tags, nil
}

func ensureTag(tx *gorm.DB, text string) (db.Tag, error) {
	var tag db.Tag
	err := tx.Where("text = ?", text).Limit(1).Find(&tag).Error
	if err != nil {
		return db.Tag{}, err
	}
	if tag.ID != 0 {
		return tag, nil
	}

	tag = db.Tag{Text: text}
	if err := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "text"}},
		DoNothing: true,
	}).Create(&tag).Error; err != nil {
		return db.Tag{}, err
	}
	if tag.ID != 0 {
		return tag, nil
	}

	// another writer inserted the label first
	if err := tx.Where("text = ?", text).First(&tag).Error; err != nil {
		return db.Tag{}, err
	}
	return tag, nil
}

func normalizeLabels(labels []string) ([]string, error) {
	seen := make(map[string]struct{}, len(labels))
	texts := make([]string, 0, len(labels))
	verr := &ValidationError{}

	for _, label := range labels {
		text := strings.TrimSpace(label)
		if text == "" {
			verr.Add("tags", msgBlank)
			continue
		}
		if utf8.RuneCountInString(text) > maxTagLength {
			verr.Add("tags", fmt.Sprintf("Tag %q is longer than %d characters.", text, maxTagLength))
			continue
		}
		if _, ok := seen[text]; ok {
			continue
		}
		seen[text] = struct{}{}
		texts = append(texts, text)
	}

	if err := verr.errOrNil(); err != nil {
		return nil, err
	}
	return texts, nil
}

func validateTagText(text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", NewValidationError("text", msgBlank)
	}
	if utf8.RuneCountInString(text) > maxTagLength {
		return "", NewValidationError("text", maxLengthMessage(maxTagLength))
	}
	return text, nil
}

func tagExistsError(text string) error {
	return NewValidationError("text", fmt.Sprintf("Tag with text %s exists.", text)).WithCause(ErrTagExists)
}
