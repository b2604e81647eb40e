package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/quillpress/internal/db"
	"github.com/quillpress/internal/service"
)

type categoryRequest struct {
	Title *string `json:"title"`
}

// ListCategories 获取分类列表
func (a *API) ListCategories(c *gin.Context) {
	page, ok := a.pagination(c)
	if !ok {
		return
	}

	result, err := a.categories.List(service.CategoryFilter{
		Search:  c.Query("search"),
		Page:    page.Page,
		PerPage: page.PerPage,
	})
	if err != nil {
		a.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, newPageEnvelope(a, c, result, func(category db.Category) categoryView {
		return a.categoryView(c, category)
	}))
}

// GetCategory 获取分类详情及其下的文章
func (a *API) GetCategory(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	category, err := a.categories.Get(id)
	if err != nil {
		a.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, a.categoryDetailView(c, *category))
}

// CreateCategory 创建分类
func (a *API) CreateCategory(c *gin.Context) {
	var req categoryRequest
	if !bindJSON(c, &req) {
		return
	}
	if req.Title == nil {
		respondValidation(c, map[string][]string{"title": {msgFieldRequired}})
		return
	}

	category, err := a.categories.Create(*req.Title)
	if err != nil {
		a.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, a.categoryView(c, *category))
}

// UpdateCategory 全量更新分类
func (a *API) UpdateCategory(c *gin.Context) {
	a.updateCategory(c, false)
}

// PatchCategory 部分更新分类
func (a *API) PatchCategory(c *gin.Context) {
	a.updateCategory(c, true)
}

func (a *API) updateCategory(c *gin.Context, partial bool) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req categoryRequest
	if !bindJSON(c, &req) {
		return
	}

	var (
		category *db.Category
		err      error
	)
	switch {
	case req.Title != nil:
		category, err = a.categories.Update(id, *req.Title)
	case partial:
		category, err = a.categories.Get(id)
	default:
		respondValidation(c, map[string][]string{"title": {msgFieldRequired}})
		return
	}
	if err != nil {
		a.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, a.categoryView(c, *category))
}

// DeleteCategory 删除分类，文章保留但不再属于该分类
func (a *API) DeleteCategory(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	if err := a.categories.Delete(id); err != nil {
		a.handleServiceError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
