package handler

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/quillpress/internal/db"
	"github.com/quillpress/internal/markdown"
)

// 每个接口使用独立的输出结构，列表与详情互不影响。

type userView struct {
	ID         uint       `json:"id"`
	Username   string     `json:"username"`
	LastLogin  *time.Time `json:"last_login"`
	DateJoined time.Time  `json:"date_joined"`
}

type categoryView struct {
	ID      uint      `json:"id"`
	URL     string    `json:"url"`
	Title   string    `json:"title"`
	Created time.Time `json:"created"`
}

type categoryArticleView struct {
	URL   string `json:"url"`
	Title string `json:"title"`
}

type categoryDetailView struct {
	ID       uint                  `json:"id"`
	Title    string                `json:"title"`
	Created  time.Time             `json:"created"`
	Articles []categoryArticleView `json:"articles"`
}

type tagView struct {
	ID   uint   `json:"id"`
	URL  string `json:"url"`
	Text string `json:"text"`
}

type avatarView struct {
	ID      uint      `json:"id"`
	URL     string    `json:"url"`
	Content string    `json:"content"`
	Created time.Time `json:"created"`
}

// articleView never carries the body.
type articleView struct {
	ID       uint          `json:"id"`
	URL      string        `json:"url"`
	Title    string        `json:"title"`
	Author   userView      `json:"author"`
	Category *categoryView `json:"category"`
	Avatar   *avatarView   `json:"avatar"`
	Tags     []string      `json:"tags"`
	Created  time.Time     `json:"created"`
	Updated  time.Time     `json:"updated"`
}

type articleDetailView struct {
	articleView
	Body     string `json:"body"`
	BodyHTML string `json:"body_html"`
	TOCHTML  string `json:"toc_html"`
}

func newUserView(user db.User) userView {
	return userView{
		ID:         user.ID,
		Username:   user.Username,
		LastLogin:  user.LastLogin,
		DateJoined: user.DateJoined,
	}
}

func (a *API) categoryView(c *gin.Context, category db.Category) categoryView {
	return categoryView{
		ID:      category.ID,
		URL:     a.resourceURL(c, "category", category.ID),
		Title:   category.Title,
		Created: category.Created,
	}
}

func (a *API) categoryDetailView(c *gin.Context, category db.Category) categoryDetailView {
	view := categoryDetailView{
		ID:       category.ID,
		Title:    category.Title,
		Created:  category.Created,
		Articles: make([]categoryArticleView, 0, len(category.Articles)),
	}
	for _, article := range category.Articles {
		view.Articles = append(view.Articles, categoryArticleView{
			URL:   a.resourceURL(c, "article", article.ID),
			Title: article.Title,
		})
	}
	return view
}

func (a *API) tagView(c *gin.Context, tag db.Tag) tagView {
	return tagView{
		ID:   tag.ID,
		URL:  a.resourceURL(c, "tag", tag.ID),
		Text: tag.Text,
	}
}

func (a *API) avatarView(c *gin.Context, avatar db.Avatar) avatarView {
	content := a.avatars.URL(avatar)
	if strings.HasPrefix(content, "/") {
		content = a.absoluteURL(c, content)
	}
	return avatarView{
		ID:      avatar.ID,
		URL:     a.resourceURL(c, "avatar", avatar.ID),
		Content: content,
		Created: avatar.Created,
	}
}

func (a *API) articleView(c *gin.Context, article db.Article) articleView {
	view := articleView{
		ID:      article.ID,
		URL:     a.resourceURL(c, "article", article.ID),
		Title:   article.Title,
		Author:  newUserView(article.Author),
		Tags:    article.TagTexts(),
		Created: article.Created,
		Updated: article.Updated,
	}
	if article.Category != nil {
		category := a.categoryView(c, *article.Category)
		view.Category = &category
	}
	if article.Avatar != nil {
		avatar := a.avatarView(c, *article.Avatar)
		view.Avatar = &avatar
	}
	return view
}

func (a *API) articleDetailView(c *gin.Context, article db.Article) articleDetailView {
	rendered := markdown.Render(article.Body)
	return articleDetailView{
		articleView: a.articleView(c, article),
		Body:        article.Body,
		BodyHTML:    rendered.HTML,
		TOCHTML:     rendered.TOC,
	}
}
