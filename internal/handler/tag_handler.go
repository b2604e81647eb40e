package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/quillpress/internal/db"
)

type tagRequest struct {
	Text *string `json:"text"`
}

// ListTags 获取标签列表
func (a *API) ListTags(c *gin.Context) {
	page, ok := a.pagination(c)
	if !ok {
		return
	}

	result, err := a.tags.List(page)
	if err != nil {
		a.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, newPageEnvelope(a, c, result, func(tag db.Tag) tagView {
		return a.tagView(c, tag)
	}))
}

// GetTag 获取单个标签
func (a *API) GetTag(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	tag, err := a.tags.Get(id)
	if err != nil {
		a.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, a.tagView(c, *tag))
}

// CreateTag 创建新标签
func (a *API) CreateTag(c *gin.Context) {
	var req tagRequest
	if !bindJSON(c, &req) {
		return
	}
	if req.Text == nil {
		respondValidation(c, map[string][]string{"text": {msgFieldRequired}})
		return
	}

	tag, err := a.tags.Create(*req.Text)
	if err != nil {
		a.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, a.tagView(c, *tag))
}

// UpdateTag 全量更新标签
func (a *API) UpdateTag(c *gin.Context) {
	a.updateTag(c, false)
}

// PatchTag 部分更新标签
func (a *API) PatchTag(c *gin.Context) {
	a.updateTag(c, true)
}

func (a *API) updateTag(c *gin.Context, partial bool) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req tagRequest
	if !bindJSON(c, &req) {
		return
	}

	var (
		tag *db.Tag
		err error
	)
	switch {
	case req.Text != nil:
		tag, err = a.tags.Update(id, *req.Text)
	case partial:
		tag, err = a.tags.Get(id)
	default:
		respondValidation(c, map[string][]string{"text": {msgFieldRequired}})
		return
	}
	if err != nil {
		a.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, a.tagView(c, *tag))
}

// DeleteTag 删除标签并解除与文章的关联
func (a *API) DeleteTag(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	if err := a.tags.Delete(id); err != nil {
		a.handleServiceError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
