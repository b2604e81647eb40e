package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/quillpress/internal/service"
)

type userCreateRequest struct {
	Username string `json:"username" binding:"required,max=150"`
	Password string `json:"password" binding:"required,pwd"`
	IsStaff  bool   `json:"is_staff"`
}

type userUpdateRequest struct {
	Username *string `json:"username"`
	Password *string `json:"password"`
}

// ListUsers 获取用户列表
func (a *API) ListUsers(c *gin.Context) {
	page, ok := a.pagination(c)
	if !ok {
		return
	}

	result, err := a.users.List(page)
	if err != nil {
		a.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, newPageEnvelope(a, c, result, newUserView))
}

// GetUser 获取用户公开信息
func (a *API) GetUser(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	user, err := a.users.Get(id)
	if err != nil {
		a.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, newUserView(*user))
}

// CreateUser 创建账号
func (a *API) CreateUser(c *gin.Context) {
	var req userCreateRequest
	if !bindJSON(c, &req) {
		return
	}

	user, err := a.users.Register(actor(c), req.Username, req.Password, req.IsStaff)
	if err != nil {
		a.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, newUserView(*user))
}

// UpdateUser 全量更新，用户名必填
func (a *API) UpdateUser(c *gin.Context) {
	a.updateUser(c, false)
}

// PatchUser 部分更新
func (a *API) PatchUser(c *gin.Context) {
	a.updateUser(c, true)
}

func (a *API) updateUser(c *gin.Context, partial bool) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req userUpdateRequest
	if !bindJSON(c, &req) {
		return
	}
	if !partial && req.Username == nil {
		respondValidation(c, map[string][]string{"username": {msgFieldRequired}})
		return
	}

	user, err := a.users.Update(id, actor(c), service.UserInput{Username: req.Username, Password: req.Password})
	if err != nil {
		a.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, newUserView(*user))
}

// DeleteUser 删除账号及其文章
func (a *API) DeleteUser(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	if err := a.users.Delete(id, actor(c)); err != nil {
		a.handleServiceError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
