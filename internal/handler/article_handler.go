package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/quillpress/internal/db"
	"github.com/quillpress/internal/service"
)

type articleRequest struct {
	Title      *string            `json:"title"`
	Body       *string            `json:"body"`
	CategoryID service.NullableID `json:"category_id"`
	AvatarID   service.NullableID `json:"avatar_id"`
	Tags       *[]string          `json:"tags"`
}

func (r articleRequest) input() service.ArticleInput {
	return service.ArticleInput{
		Title:      r.Title,
		Body:       r.Body,
		CategoryID: r.CategoryID,
		AvatarID:   r.AvatarID,
		Tags:       r.Tags,
	}
}

// ListArticles 获取文章列表，支持 category 过滤与标题搜索
func (a *API) ListArticles(c *gin.Context) {
	page, ok := a.pagination(c)
	if !ok {
		return
	}

	filter := service.ArticleFilter{
		Search:  c.Query("search"),
		Page:    page.Page,
		PerPage: page.PerPage,
	}
	if raw := strings.TrimSpace(c.Query("category")); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			respondValidation(c, map[string][]string{"category": {"Enter a number."}})
			return
		}
		categoryID := uint(id)
		filter.CategoryID = &categoryID
	}

	result, err := a.articles.List(filter)
	if err != nil {
		a.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, newPageEnvelope(a, c, result, func(article db.Article) articleView {
		return a.articleView(c, article)
	}))
}

// GetArticle 获取文章详情，附带渲染后的正文与目录
func (a *API) GetArticle(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	article, err := a.articles.Get(id)
	if err != nil {
		a.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, a.articleDetailView(c, *article))
}

// CreateArticle 创建文章，作者取自当前登录用户
func (a *API) CreateArticle(c *gin.Context) {
	var req articleRequest
	if !bindJSON(c, &req) {
		return
	}

	article, err := a.articles.Create(actor(c).UserID, req.input())
	if err != nil {
		a.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, a.articleDetailView(c, *article))
}

// UpdateArticle 全量更新文章
func (a *API) UpdateArticle(c *gin.Context) {
	a.updateArticle(c, false)
}

// PatchArticle 部分更新文章
func (a *API) PatchArticle(c *gin.Context) {
	a.updateArticle(c, true)
}

func (a *API) updateArticle(c *gin.Context, partial bool) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req articleRequest
	if !bindJSON(c, &req) {
		return
	}

	article, err := a.articles.Update(id, actor(c), req.input(), partial)
	if err != nil {
		a.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, a.articleDetailView(c, *article))
}

// DeleteArticle 删除文章
func (a *API) DeleteArticle(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	if err := a.articles.Delete(id, actor(c)); err != nil {
		a.handleServiceError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
