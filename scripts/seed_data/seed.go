package main

import (
	"errors"

	"github.com/quillpress/internal/db"
	"github.com/quillpress/internal/service"
	"gorm.io/gorm"
)

type seedResult struct {
	categories int
	articles   int
	skipped    int
}

type seedArticle struct {
	title    string
	body     string
	category string
	tags     []string
}

var seedCategories = []string{"技术", "生活", "教程"}

var seedArticles = []seedArticle{
	{
		title:    "Go 语言入门指南",
		body:     "# Go 语言入门指南\n\n## 安装\n\n下载并安装 Go。\n\n## Hello World\n\n```go\npackage main\n\nfunc main() {\n\tprintln(\"hello\")\n}\n```\n",
		category: "教程",
		tags:     []string{"Go", "教程"},
	},
	{
		title:    "用 gorm 管理多对多关系",
		body:     "# 多对多\n\n| 表 | 说明 |\n|---|---|\n| articles | 文章 |\n| tags | 标签 |\n",
		category: "技术",
		tags:     []string{"Go", "数据库"},
	},
	{
		title:    "周末随笔",
		body:     "今天天气很好，写点东西。\n\n## 读书\n\n读完了一本书。\n",
		category: "生活",
		tags:     []string{"生活"},
	},
}

// seed 通过服务层写入示例数据，已存在同名文章时跳过。
func seed(gdb *gorm.DB, username, password string) (seedResult, error) {
	var result seedResult

	if err := db.EnsureUser(gdb, username, password); err != nil {
		return result, err
	}
	var author db.User
	if err := gdb.Where("username = ?", username).First(&author).Error; err != nil {
		return result, err
	}

	categories := service.NewCategoryService(gdb)
	articles := service.NewArticleService(gdb, service.NewTagService(gdb), service.NewReferenceValidator(nil))

	categoryIDs := make(map[string]uint, len(seedCategories))
	for _, title := range seedCategories {
		var existing db.Category
		err := gdb.Where("title = ?", title).First(&existing).Error
		switch {
		case err == nil:
			categoryIDs[title] = existing.ID
		case errors.Is(err, gorm.ErrRecordNotFound):
			created, err := categories.Create(title)
			if err != nil {
				return result, err
			}
			categoryIDs[title] = created.ID
			result.categories++
		default:
			return result, err
		}
	}

	for _, item := range seedArticles {
		var count int64
		if err := gdb.Model(&db.Article{}).Where("title = ?", item.title).Count(&count).Error; err != nil {
			return result, err
		}
		if count > 0 {
			result.skipped++
			continue
		}

		title, body, tags := item.title, item.body, item.tags
		_, err := articles.Create(author.ID, service.ArticleInput{
			Title:      &title,
			Body:       &body,
			CategoryID: service.ID(categoryIDs[item.category]),
			Tags:       &tags,
		})
		if err != nil {
			return result, err
		}
		result.articles++
	}

	return result, nil
}
