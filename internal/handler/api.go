package handler

import (
	"strings"

	"github.com/quillpress/internal/config"
	"github.com/quillpress/internal/service"
	"github.com/quillpress/internal/storage"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// API bundles shared dependencies for HTTP handlers.
type API struct {
	db         *gorm.DB
	articles   *service.ArticleService
	categories *service.CategoryService
	tags       *service.TagService
	avatars    *service.AvatarService
	users      *service.UserService
	auth       *service.AuthService
	log        *logrus.Logger
	baseURL    string
	pageSize   int
}

// NewAPI constructs a handler set with shared services.
func NewAPI(db *gorm.DB, media storage.MediaStore, cfg config.AppConfig, log *logrus.Logger) *API {
	tags := service.NewTagService(db)
	users := service.NewUserService(db)

	return &API{
		db:         db,
		articles:   service.NewArticleService(db, tags, service.NewReferenceValidator(nil)),
		categories: service.NewCategoryService(db),
		tags:       tags,
		avatars:    service.NewAvatarService(db, media),
		users:      users,
		auth:       service.NewAuthService(users, cfg.JWTAccessSecret, cfg.JWTRefreshSecret, cfg.AccessTTL, cfg.RefreshTTL),
		log:        log,
		baseURL:    strings.TrimRight(cfg.SiteBaseURL, "/"),
		pageSize:   cfg.PageSize,
	}
}

// DB exposes the underlying gorm instance.
func (a *API) DB() *gorm.DB {
	return a.db
}
