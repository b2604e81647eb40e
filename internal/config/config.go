package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// AppConfig 汇总运行服务所需的基础配置。
type AppConfig struct {
	ListenAddr  string
	Port        string
	GinMode     string
	Env         string
	SiteBaseURL string

	DatabaseDriver string
	DatabasePath   string
	DatabaseDSN    string

	SessionSecret    string
	JWTAccessSecret  string
	JWTRefreshSecret string
	AccessTTL        time.Duration
	RefreshTTL       time.Duration

	MediaBackend       string
	MediaRoot          string
	MediaURLPath       string
	GCSBucket          string
	GCSCredentialsPath string

	PageSize           int
	CORSAllowedOrigins string

	SuperRootUserName string
	SuperRootPassword string
}

// Load 从环境变量读取应用配置，并为缺失项提供安全的默认值。
func Load() AppConfig {
	port := env("PORT", "8000")

	listenAddr := env("LISTEN_ADDR", "")
	if listenAddr == "" {
		listenAddr = fmt.Sprintf(":%s", port)
	}

	mediaURL := env("MEDIA_URL", "/media")
	if !strings.HasPrefix(mediaURL, "/") && !strings.Contains(mediaURL, "://") {
		mediaURL = "/" + mediaURL
	}

	return AppConfig{
		ListenAddr:  listenAddr,
		Port:        port,
		GinMode:     env("GIN_MODE", "release"),
		Env:         env("APP_ENV", "development"),
		SiteBaseURL: strings.TrimRight(env("SITE_BASE_URL", ""), "/"),

		DatabaseDriver: strings.ToLower(env("DATABASE_DRIVER", "sqlite")),
		DatabasePath:   env("DATABASE_PATH", "quillpress.db"),
		DatabaseDSN:    env("DATABASE_DSN", ""),

		SessionSecret:    env("SESSION_SECRET", "quillpress-dev-secret"),
		JWTAccessSecret:  env("JWT_ACCESS_SECRET", "quillpress-dev-access"),
		JWTRefreshSecret: env("JWT_REFRESH_SECRET", "quillpress-dev-refresh"),
		AccessTTL:        envDuration("JWT_ACCESS_TTL", 5*time.Minute),
		RefreshTTL:       envDuration("JWT_REFRESH_TTL", 24*time.Hour),

		MediaBackend:       strings.ToLower(env("MEDIA_BACKEND", "local")),
		MediaRoot:          env("MEDIA_ROOT", "media"),
		MediaURLPath:       strings.TrimRight(mediaURL, "/"),
		GCSBucket:          env("GCS_BUCKET", ""),
		GCSCredentialsPath: env("GCS_CREDENTIALS_JSON", ""),

		PageSize:           envInt("PAGE_SIZE", 10),
		CORSAllowedOrigins: env("CORS_ALLOWED_ORIGINS", ""),

		SuperRootUserName: env("SUPER_ROOT_USER_NAME", ""),
		SuperRootPassword: env("SUPER_ROOT_PASSWORD", ""),
	}
}

// CORSOrigins returns the allowed origins as a slice.
func (c AppConfig) CORSOrigins() []string {
	parts := strings.Split(c.CORSAllowedOrigins, ",")
	origins := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			origins = append(origins, p)
		}
	}
	return origins
}

// Development reports whether the service runs with developer defaults.
func (c AppConfig) Development() bool {
	return c.Env == "development"
}

func env(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		logrus.WithField("key", key).Warnf("invalid int %q, using default %d", raw, def)
		return def
	}
	return n
}

func envDuration(key string, def time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		logrus.WithField("key", key).Warnf("invalid duration %q, using default %v", raw, def)
		return def
	}
	return d
}
