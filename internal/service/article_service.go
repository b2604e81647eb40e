package service

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/quillpress/internal/db"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var ErrArticleNotFound = errors.New("article not found")

const maxTitleLength = 100

// ArticleService wraps article related database operations and owns the
// write pipeline: tag normalization, reference validation, persistence.
type ArticleService struct {
	db   *gorm.DB
	tags *TagService
	refs *ReferenceValidator
}

// NullableID distinguishes an absent JSON field, an explicit null and a value.
type NullableID struct {
	Set   bool
	Value *uint
}

// UnmarshalJSON marks the field as supplied, including for null.
func (n *NullableID) UnmarshalJSON(data []byte) error {
	n.Set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		n.Value = nil
		return nil
	}
	var v uint
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	n.Value = &v
	return nil
}

// ID wraps a value as a supplied reference.
func ID(v uint) NullableID {
	return NullableID{Set: true, Value: &v}
}

// Null is a supplied, explicitly empty reference.
func Null() NullableID {
	return NullableID{Set: true}
}

// ArticleInput represents fields accepted when creating or updating an
// article. Nil pointers and unset references are left untouched on partial
// updates; Tags nil keeps the current tags, an empty slice clears them.
type ArticleInput struct {
	Title      *string
	Body       *string
	CategoryID NullableID
	AvatarID   NullableID
	Tags       *[]string
}

// ArticleFilter describes filters for listing articles.
type ArticleFilter struct {
	CategoryID *uint
	Search     string
	Page       int
	PerPage    int
}

// Actor is the authenticated caller of a write.
type Actor struct {
	UserID  uint
	IsStaff bool
}

func (a Actor) owns(authorID uint) bool {
	return a.IsStaff || (a.UserID != 0 && a.UserID == authorID)
}

// NewArticleService creates an ArticleService instance.
func NewArticleService(gdb *gorm.DB, tags *TagService, refs *ReferenceValidator) *ArticleService {
	return &ArticleService{db: gdb, tags: tags, refs: refs}
}

// List provides paginated articles, newest first.
func (s *ArticleService) List(filter ArticleFilter) (*PageResult[db.Article], error) {
	apply := func(query *gorm.DB) *gorm.DB {
		if filter.CategoryID != nil {
			query = query.Where("articles.category_id = ?", *filter.CategoryID)
		}
		return whereTitleContains(query, "articles.title", filter.Search)
	}

	return paginate[db.Article](s.db, Pagination{Page: filter.Page, PerPage: filter.PerPage}, apply, preloadArticle, "articles.created desc, articles.id desc")
}

// Get fetches an article with author, category, avatar and tags.
func (s *ArticleService) Get(id uint) (*db.Article, error) {
	var article db.Article
	if err := preloadArticle(s.db).First(&article, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrArticleNotFound
		}
		return nil, err
	}
	return &article, nil
}

// Create persists a new article owned by authorID. Tags are normalized and
// references validated inside the same transaction as the insert, so a
// rejected write leaves nothing behind.
func (s *ArticleService) Create(authorID uint, input ArticleInput) (*db.Article, error) {
	if err := validateArticleInput(input, false); err != nil {
		return nil, err
	}

	article := db.Article{
		Title:      strings.TrimSpace(*input.Title),
		Body:       *input.Body,
		AuthorID:   authorID,
		CategoryID: input.CategoryID.Value,
		AvatarID:   input.AvatarID.Value,
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var tags []db.Tag
		if input.Tags != nil {
			normalized, err := s.tags.Normalize(tx, *input.Tags)
			if err != nil {
				return err
			}
			tags = normalized
		}

		if err := s.refs.Validate(tx, References{CategoryID: input.CategoryID.Value, AvatarID: input.AvatarID.Value}); err != nil {
			return err
		}

		if err := tx.Omit(clause.Associations).Create(&article).Error; err != nil {
			return translateWriteError(err)
		}

		if len(tags) > 0 {
			if err := tx.Model(&article).Association("Tags").Append(tags); err != nil {
				return translateWriteError(err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.Get(article.ID)
}

// Update applies a full (partial=false) or partial update. The author
// never changes.
func (s *ArticleService) Update(id uint, actor Actor, input ArticleInput, partial bool) (*db.Article, error) {
	var existing db.Article
	if err := s.db.First(&existing, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrArticleNotFound
		}
		return nil, err
	}

	if !actor.owns(existing.AuthorID) {
		return nil, ErrForbidden
	}

	if err := validateArticleInput(input, partial); err != nil {
		return nil, err
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var tags []db.Tag
		if input.Tags != nil {
			normalized, err := s.tags.Normalize(tx, *input.Tags)
			if err != nil {
				return err
			}
			tags = normalized
		}

		var refs References
		if input.CategoryID.Set {
			refs.CategoryID = input.CategoryID.Value
		}
		if input.AvatarID.Set {
			refs.AvatarID = input.AvatarID.Value
		}
		if err := s.refs.Validate(tx, refs); err != nil {
			return err
		}

		updates := map[string]interface{}{}
		if input.Title != nil {
			updates["title"] = strings.TrimSpace(*input.Title)
		}
		if input.Body != nil {
			updates["body"] = *input.Body
		}
		if input.CategoryID.Set {
			updates["category_id"] = input.CategoryID.Value
		}
		if input.AvatarID.Set {
			updates["avatar_id"] = input.AvatarID.Value
		}

		if len(updates) > 0 {
			if err := tx.Model(&existing).Omit(clause.Associations).Updates(updates).Error; err != nil {
				return translateWriteError(err)
			}
		}

		if input.Tags != nil {
			association := tx.Model(&existing).Association("Tags")
			var err error
			if len(tags) == 0 {
				err = association.Clear()
			} else {
				err = association.Replace(tags)
			}
			if err != nil {
				return translateWriteError(err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.Get(existing.ID)
}

// Delete removes an article and its tag links.
func (s *ArticleService) Delete(id uint, actor Actor) error {
	var existing db.Article
	if err := s.db.First(&existing, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrArticleNotFound
		}
		return err
	}

	if !actor.owns(existing.AuthorID) {
		return ErrForbidden
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&existing).Association("Tags").Clear(); err != nil {
			return err
		}
		return tx.Delete(&existing).Error
	})
}

func preloadArticle(query *gorm.DB) *gorm.DB {
	return query.
		Preload("Author").
		Preload("Category").
		Preload("Avatar").
		Preload("Tags", func(tx *gorm.DB) *gorm.DB {
			return tx.Order("tags.id asc")
		})
}

func validateArticleInput(input ArticleInput, partial bool) error {
	verr := &ValidationError{}

	switch {
	case input.Title == nil:
		if !partial {
			verr.Add("title", msgRequired)
		}
	case strings.TrimSpace(*input.Title) == "":
		verr.Add("title", msgBlank)
	case utf8.RuneCountInString(strings.TrimSpace(*input.Title)) > maxTitleLength:
		verr.Add("title", maxLengthMessage(maxTitleLength))
	}

	switch {
	case input.Body == nil:
		if !partial {
			verr.Add("body", msgRequired)
		}
	case strings.TrimSpace(*input.Body) == "":
		verr.Add("body", msgBlank)
	}

	return verr.errOrNil()
}
