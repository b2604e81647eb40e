package service

import (
	"strings"

	"gorm.io/gorm"
)

const defaultPerPage = 10

// Pagination selects one page of a list; Page is 1-based.
type Pagination struct {
	Page    int
	PerPage int
}

// PageResult is a bounded slice of a list together with its counters.
type PageResult[T any] struct {
	Items      []T
	Total      int64
	Page       int
	PerPage    int
	TotalPages int
}

// HasNext reports whether a later page exists.
func (r *PageResult[T]) HasNext() bool {
	return r.Page < r.TotalPages
}

// HasPrevious reports whether an earlier page exists.
func (r *PageResult[T]) HasPrevious() bool {
	return r.Page > 1
}

// paginate counts rows matched by filter and loads the requested page.
// Pages past the end are rejected with ErrInvalidPage; page 1 is always valid.
func paginate[T any](gdb *gorm.DB, p Pagination, filter, load func(*gorm.DB) *gorm.DB, order string) (*PageResult[T], error) {
	result := &PageResult[T]{
		Page:    normalizePage(p.Page),
		PerPage: normalizePerPage(p.PerPage, defaultPerPage),
	}

	var model T
	countQuery := gdb.Model(&model)
	if filter != nil {
		countQuery = filter(countQuery)
	}
	if err := countQuery.Count(&result.Total).Error; err != nil {
		return nil, err
	}

	result.TotalPages = calculateTotalPages(result.Total, result.PerPage)
	if result.Page > result.TotalPages {
		return nil, ErrInvalidPage
	}

	dataQuery := gdb.Model(&model)
	if filter != nil {
		dataQuery = filter(dataQuery)
	}
	if load != nil {
		dataQuery = load(dataQuery)
	}

	items := make([]T, 0, result.PerPage)
	offset := (result.Page - 1) * result.PerPage
	if err := dataQuery.Order(order).Limit(result.PerPage).Offset(offset).Find(&items).Error; err != nil {
		return nil, err
	}

	result.Items = items
	return result, nil
}

func normalizePage(page int) int {
	if page < 1 {
		return 1
	}
	return page
}

func normalizePerPage(perPage, fallback int) int {
	if perPage <= 0 {
		return fallback
	}
	return perPage
}

func calculateTotalPages(total int64, perPage int) int {
	if perPage <= 0 {
		return 1
	}
	if total == 0 {
		return 1
	}
	return int((total + int64(perPage) - 1) / int64(perPage))
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)

// whereTitleContains 按标题做大小写不敏感的子串匹配，LIKE 通配符按字面处理。
func whereTitleContains(query *gorm.DB, column, search string) *gorm.DB {
	search = strings.TrimSpace(search)
	if search == "" {
		return query
	}
	pattern := "%" + likeEscaper.Replace(strings.ToLower(search)) + "%"
	return query.Where("LOWER("+column+") LIKE ? ESCAPE '\\'", pattern)
}
