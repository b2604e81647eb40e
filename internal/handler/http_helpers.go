package handler

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/quillpress/internal/service"
	"github.com/quillpress/internal/validation"
	"github.com/sirupsen/logrus"
)

const (
	msgInvalidInput  = "Invalid input."
	msgFieldRequired = "This field is required."
	msgNotFound      = "Not found."
	msgForbidden     = "You do not have permission to perform this action."
	msgInvalidPage   = "Invalid page."
)

func respondError(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"error": message})
}

func respondValidation(c *gin.Context, fields map[string][]string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": msgInvalidInput, "fields": fields})
}

func bindJSON(c *gin.Context, dst interface{}) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		respondValidation(c, validation.ToDetails(err))
		return false
	}
	return true
}

func parseUintParam(c *gin.Context, key string) (uint, error) {
	raw := c.Param(key)
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return uint(id), nil
}

// pathID 解析路径中的 id，失败时直接返回 404
func pathID(c *gin.Context) (uint, bool) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusNotFound, msgNotFound)
		return 0, false
	}
	return id, true
}

func isNotFound(err error) bool {
	for _, target := range []error{
		service.ErrArticleNotFound,
		service.ErrCategoryNotFound,
		service.ErrTagNotFound,
		service.ErrAvatarNotFound,
		service.ErrUserNotFound,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// handleServiceError maps service errors onto HTTP responses.
func (a *API) handleServiceError(c *gin.Context, err error) {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		respondValidation(c, verr.Fields)
	case errors.Is(err, service.ErrForbidden):
		respondError(c, http.StatusForbidden, msgForbidden)
	case errors.Is(err, service.ErrInvalidPage):
		respondError(c, http.StatusNotFound, msgInvalidPage)
	case isNotFound(err):
		respondError(c, http.StatusNotFound, msgNotFound)
	case errors.Is(err, service.ErrInvalidCredentials):
		respondError(c, http.StatusUnauthorized, service.ErrInvalidCredentials.Error())
	case errors.Is(err, service.ErrTokenInvalid):
		respondError(c, http.StatusUnauthorized, "Token is invalid or expired")
	case errors.Is(err, service.ErrIntegrityConflict):
		a.logger(c).WithError(err).Warn("write rejected by store constraint")
		respondError(c, http.StatusConflict, "The request conflicts with existing data.")
	default:
		a.logger(c).WithError(err).Error("request failed")
		respondError(c, http.StatusInternalServerError, "Internal server error.")
	}
}

func (a *API) logger(c *gin.Context) *logrus.Entry {
	fields := logrus.Fields{
		"method": c.Request.Method,
		"path":   c.Request.URL.Path,
	}
	if id, ok := c.Get(requestIDKey); ok {
		fields["request_id"] = id
	}
	return a.log.WithFields(fields)
}

// absoluteURL prefixes path with the configured site URL, or with the
// scheme and host of the current request.
func (a *API) absoluteURL(c *gin.Context, path string) string {
	if strings.Contains(path, "://") {
		return path
	}
	if a.baseURL != "" {
		return a.baseURL + path
	}

	scheme := "http"
	if c.Request.TLS != nil {
		scheme = "https"
	}
	if proto := c.GetHeader("X-Forwarded-Proto"); proto != "" {
		scheme = strings.TrimSpace(strings.Split(proto, ",")[0])
	}
	return scheme + "://" + c.Request.Host + path
}

func (a *API) resourceURL(c *gin.Context, collection string, id uint) string {
	return a.absoluteURL(c, fmt.Sprintf("/api/%s/%d", collection, id))
}

// pagination reads ?page= the way page-number pagination does; anything
// that is not a positive integer is an invalid page.
func (a *API) pagination(c *gin.Context) (service.Pagination, bool) {
	p := service.Pagination{Page: 1, PerPage: a.pageSize}

	raw := strings.TrimSpace(c.Query("page"))
	if raw == "" {
		return p, true
	}
	page, err := strconv.Atoi(raw)
	if err != nil || page < 1 {
		respondError(c, http.StatusNotFound, msgInvalidPage)
		return p, false
	}
	p.Page = page
	return p, true
}

type pageEnvelope[T any] struct {
	Count    int64   `json:"count"`
	Next     *string `json:"next"`
	Previous *string `json:"previous"`
	Results  []T     `json:"results"`
}

func newPageEnvelope[S, T any](a *API, c *gin.Context, result *service.PageResult[S], project func(S) T) pageEnvelope[T] {
	env := pageEnvelope[T]{
		Count:   result.Total,
		Results: make([]T, 0, len(result.Items)),
	}
	for _, item := range result.Items {
		env.Results = append(env.Results, project(item))
	}
	if result.HasNext() {
		link := a.pageLink(c, result.Page+1)
		env.Next = &link
	}
	if result.HasPrevious() {
		link := a.pageLink(c, result.Page-1)
		env.Previous = &link
	}
	return env
}

func (a *API) pageLink(c *gin.Context, page int) string {
	query := url.Values{}
	for key, values := range c.Request.URL.Query() {
		query[key] = values
	}
	if page <= 1 {
		query.Del("page")
	} else {
		query.Set("page", strconv.Itoa(page))
	}

	link := a.absoluteURL(c, c.Request.URL.Path)
	if encoded := query.Encode(); encoded != "" {
		link += "?" + encoded
	}
	return link
}
