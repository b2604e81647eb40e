package service

import (
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/quillpress/internal/db"
	"gorm.io/gorm"
)

var ErrCategoryNotFound = errors.New("category not found")

// CategoryService handles category CRUD.
type CategoryService struct {
	db *gorm.DB
}

// CategoryFilter describes filters for listing categories.
type CategoryFilter struct {
	Search  string
	Page    int
	PerPage int
}

// NewCategoryService creates a CategoryService instance.
func NewCategoryService(gdb *gorm.DB) *CategoryService {
	return &CategoryService{db: gdb}
}

// List returns categories matching the title search, newest first.
func (s *CategoryService) List(filter CategoryFilter) (*PageResult[db.Category], error) {
	apply := func(query *gorm.DB) *gorm.DB {
		return whereTitleContains(query, "categories.title", filter.Search)
	}
	return paginate[db.Category](s.db, Pagination{Page: filter.Page, PerPage: filter.PerPage}, apply, nil, "categories.created desc, categories.id desc")
}

// Get fetches a category together with the id and title of its articles.
func (s *CategoryService) Get(id uint) (*db.Category, error) {
	var category db.Category
	err := s.db.
		Preload("Articles", func(tx *gorm.DB) *gorm.DB {
			return tx.Select("id", "title", "category_id", "created").Order("articles.created desc, articles.id desc")
		}).
		First(&category, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCategoryNotFound
		}
		return nil, err
	}
	return &category, nil
}

// Create inserts a category.
func (s *CategoryService) Create(title string) (*db.Category, error) {
	title, err := validateCategoryTitle(title)
	if err != nil {
		return nil, err
	}

	category := db.Category{Title: title}
	if err := s.db.Create(&category).Error; err != nil {
		return nil, err
	}
	return &category, nil
}

// Update renames a category.
func (s *CategoryService) Update(id uint, title string) (*db.Category, error) {
	title, err := validateCategoryTitle(title)
	if err != nil {
		return nil, err
	}

	var category db.Category
	if err := s.db.First(&category, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCategoryNotFound
		}
		return nil, err
	}

	category.Title = title
	if err := s.db.Omit("Articles").Save(&category).Error; err != nil {
		return nil, err
	}
	return &category, nil
}

// Delete removes a category. Its articles are kept and lose their category.
func (s *CategoryService) Delete(id uint) error {
	var category db.Category
	if err := s.db.First(&category, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrCategoryNotFound
		}
		return err
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&db.Article{}).
			Where("category_id = ?", category.ID).
			UpdateColumn("category_id", nil).Error; err != nil {
			return err
		}
		return tx.Delete(&category).Error
	})
}

func validateCategoryTitle(title string) (string, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return "", NewValidationError("title", msgBlank)
	}
	if utf8.RuneCountInString(title) > maxTitleLength {
		return "", NewValidationError("title", maxLengthMessage(maxTitleLength))
	}
	return title, nil
}
