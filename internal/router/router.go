package router

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/quillpress/internal/config"
	"github.com/quillpress/internal/handler"
	"github.com/quillpress/internal/storage"
	"github.com/quillpress/internal/validation"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const sessionName = "quillpress_session"

type resource struct {
	list, get, create, update, patch, remove gin.HandlerFunc
}

// SetupRouter 配置 Gin 引擎和路由
func SetupRouter(cfg config.AppConfig, gdb *gorm.DB, media storage.MediaStore, log *logrus.Logger) *gin.Engine {
	validation.Init()

	r := gin.New()
	r.Use(gin.Recovery(), handler.RequestID(), handler.RequestLogger(log))

	if origins := cfg.CORSOrigins(); len(origins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins:     origins,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"},
			ExposeHeaders:    []string{"X-Request-ID"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	// 配置会话中间件，供 api-auth 登录使用
	store := cookie.NewStore([]byte(cfg.SessionSecret))
	store.Options(sessions.Options{Path: "/", HttpOnly: true, SameSite: http.SameSiteLaxMode})
	r.Use(sessions.Sessions(sessionName, store))

	// 本地存储时直接提供媒体文件
	if local, ok := media.(*storage.LocalStore); ok && strings.HasPrefix(cfg.MediaURLPath, "/") {
		r.Static(cfg.MediaURLPath, local.Root())
	}

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "pong",
		})
	})

	h := handler.NewAPI(gdb, media, cfg, log)

	apiAuth := r.Group("/api-auth")
	{
		apiAuth.POST("/login", h.SessionLogin)
		apiAuth.POST("/logout", h.SessionLogout)
	}

	api := r.Group("/api")
	{
		api.POST("/token", h.ObtainToken)
		api.POST("/token/refresh", h.RefreshToken)
		api.POST("/token/verify", h.VerifyToken)

		authed := api.Group("", h.Authenticate())
		register(authed, "article", resource{h.ListArticles, h.GetArticle, h.CreateArticle, h.UpdateArticle, h.PatchArticle, h.DeleteArticle})
		register(authed, "category", resource{h.ListCategories, h.GetCategory, h.CreateCategory, h.UpdateCategory, h.PatchCategory, h.DeleteCategory})
		register(authed, "tag", resource{h.ListTags, h.GetTag, h.CreateTag, h.UpdateTag, h.PatchTag, h.DeleteTag})
		register(authed, "avatar", resource{h.ListAvatars, h.GetAvatar, h.CreateAvatar, h.UpdateAvatar, h.PatchAvatar, h.DeleteAvatar})
		register(authed, "user", resource{h.ListUsers, h.GetUser, h.CreateUser, h.UpdateUser, h.PatchUser, h.DeleteUser})
	}

	return r
}

// register 挂载一个集合的读写路由，写操作需要登录
func register(group *gin.RouterGroup, name string, res resource) {
	collection := "/" + name
	item := collection + "/:id"

	group.GET(collection, res.list)
	group.GET(item, res.get)

	writes := group.Group("", handler.RequireUser())
	writes.POST(collection, res.create)
	writes.PUT(item, res.update)
	writes.PATCH(item, res.patch)
	writes.DELETE(item, res.remove)
}
