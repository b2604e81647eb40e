package handler

import (
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/quillpress/internal/validation"
)

type tokenObtainRequest struct {
	Username string `json:"username" form:"username" binding:"required"`
	Password string `json:"password" form:"password" binding:"required"`
}

type tokenRefreshRequest struct {
	Refresh string `json:"refresh" binding:"required"`
}

type tokenVerifyRequest struct {
	Token string `json:"token" binding:"required"`
}

// ObtainToken 使用用户名和密码换取 access/refresh 令牌
func (a *API) ObtainToken(c *gin.Context) {
	var req tokenObtainRequest
	if !bindJSON(c, &req) {
		return
	}

	pair, err := a.auth.Obtain(req.Username, req.Password)
	if err != nil {
		a.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"refresh": pair.Refresh, "access": pair.Access})
}

// RefreshToken 使用 refresh 令牌换取新的 access 令牌
func (a *API) RefreshToken(c *gin.Context) {
	var req tokenRefreshRequest
	if !bindJSON(c, &req) {
		return
	}

	access, err := a.auth.Refresh(req.Refresh)
	if err != nil {
		a.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"access": access})
}

// VerifyToken 校验令牌是否有效
func (a *API) VerifyToken(c *gin.Context) {
	var req tokenVerifyRequest
	if !bindJSON(c, &req) {
		return
	}

	if err := a.auth.Verify(req.Token); err != nil {
		a.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{})
}

// SessionLogin 处理 api-auth 登录，接受表单或 JSON
func (a *API) SessionLogin(c *gin.Context) {
	var req tokenObtainRequest
	if err := c.ShouldBind(&req); err != nil {
		respondValidation(c, validation.ToDetails(err))
		return
	}

	user, err := a.users.Authenticate(req.Username, req.Password)
	if err != nil {
		a.handleServiceError(c, err)
		return
	}

	session := sessions.Default(c)
	session.Set(sessionUserKey, user.ID)
	if err := session.Save(); err != nil {
		a.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, newUserView(*user))
}

// SessionLogout 清除 api-auth 会话
func (a *API) SessionLogout(c *gin.Context) {
	session := sessions.Default(c)
	session.Clear()
	if err := session.Save(); err != nil {
		a.handleServiceError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
