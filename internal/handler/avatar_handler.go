package handler

import (
	"errors"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/quillpress/internal/db"
)

const avatarField = "content"

// ListAvatars 获取图片列表
func (a *API) ListAvatars(c *gin.Context) {
	page, ok := a.pagination(c)
	if !ok {
		return
	}

	result, err := a.avatars.List(page)
	if err != nil {
		a.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, newPageEnvelope(a, c, result, func(avatar db.Avatar) avatarView {
		return a.avatarView(c, avatar)
	}))
}

// GetAvatar 获取单张图片
func (a *API) GetAvatar(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	avatar, err := a.avatars.Get(id)
	if err != nil {
		a.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, a.avatarView(c, *avatar))
}

// CreateAvatar 上传图片，表单字段为 content
func (a *API) CreateAvatar(c *gin.Context) {
	file, ok := uploadedFile(c)
	if !ok {
		return
	}
	defer file.Close()

	avatar, err := a.avatars.Create(c.Request.Context(), file)
	if err != nil {
		a.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, a.avatarView(c, *avatar))
}

// UpdateAvatar 替换图片内容
func (a *API) UpdateAvatar(c *gin.Context) {
	a.updateAvatar(c, false)
}

// PatchAvatar 部分更新；未提交文件时保持原样
func (a *API) PatchAvatar(c *gin.Context) {
	a.updateAvatar(c, true)
}

func (a *API) updateAvatar(c *gin.Context, partial bool) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	if partial && !hasUpload(c) {
		avatar, err := a.avatars.Get(id)
		if err != nil {
			a.handleServiceError(c, err)
			return
		}
		c.JSON(http.StatusOK, a.avatarView(c, *avatar))
		return
	}

	file, ok := uploadedFile(c)
	if !ok {
		return
	}
	defer file.Close()

	avatar, err := a.avatars.Update(c.Request.Context(), id, file)
	if err != nil {
		a.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, a.avatarView(c, *avatar))
}

// DeleteAvatar 删除图片记录，引用它的文章置空
func (a *API) DeleteAvatar(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	if err := a.avatars.Delete(id); err != nil {
		a.handleServiceError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func hasUpload(c *gin.Context) bool {
	_, err := c.FormFile(avatarField)
	return err == nil
}

func uploadedFile(c *gin.Context) (multipart.File, bool) {
	header, err := c.FormFile(avatarField)
	if err != nil {
		message := "No file was submitted."
		if !errors.Is(err, http.ErrMissingFile) && !errors.Is(err, http.ErrNotMultipart) {
			message = "The submitted data was not a file. Check the encoding type on the form."
		}
		respondValidation(c, map[string][]string{avatarField: {message}})
		return nil, false
	}

	file, err := header.Open()
	if err != nil {
		respondValidation(c, map[string][]string{avatarField: {"The submitted file is empty."}})
		return nil, false
	}
	return file, true
}
