package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/quillpress/internal/db"
	"github.com/quillpress/internal/storage"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
	"gorm.io/gorm"
)

var ErrAvatarNotFound = errors.New("avatar not found")

const (
	maxAvatarBytes  = 10 << 20
	msgInvalidImage = "Upload a valid image. The file you uploaded was either not an image or a corrupted image."
)

var imageExtensions = map[string]string{
	"jpeg": ".jpg",
	"png":  ".png",
	"gif":  ".gif",
	"webp": ".webp",
	"bmp":  ".bmp",
	"tiff": ".tiff",
}

// AvatarService stores uploaded article images.
type AvatarService struct {
	db    *gorm.DB
	media storage.MediaStore
	now   func() time.Time
}

// NewAvatarService creates an AvatarService instance.
func NewAvatarService(gdb *gorm.DB, media storage.MediaStore) *AvatarService {
	return &AvatarService{db: gdb, media: media, now: time.Now}
}

// URL returns the media URL of an avatar's content.
func (s *AvatarService) URL(avatar db.Avatar) string {
	return s.media.URL(avatar.Content)
}

// List returns one page of avatars ordered by id.
func (s *AvatarService) List(p Pagination) (*PageResult[db.Avatar], error) {
	return paginate[db.Avatar](s.db, p, nil, nil, "avatars.id asc")
}

// Get fetches an avatar by id.
func (s *AvatarService) Get(id uint) (*db.Avatar, error) {
	var avatar db.Avatar
	if err := s.db.First(&avatar, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAvatarNotFound
		}
		return nil, err
	}
	return &avatar, nil
}

// Create validates the upload as an image, stores it under
// avatar/YYYYMMDD/ and records it.
func (s *AvatarService) Create(ctx context.Context, r io.Reader) (*db.Avatar, error) {
	name, err := s.store(ctx, r)
	if err != nil {
		return nil, err
	}

	avatar := db.Avatar{Content: name}
	if err := s.db.Create(&avatar).Error; err != nil {
		return nil, errors.Join(err, s.media.Delete(ctx, name))
	}
	return &avatar, nil
}

// Update replaces the image of an avatar. The previous file is kept, the
// same way uploads are never removed on delete.
func (s *AvatarService) Update(ctx context.Context, id uint, r io.Reader) (*db.Avatar, error) {
	avatar, err := s.Get(id)
	if err != nil {
		return nil, err
	}

	name, err := s.store(ctx, r)
	if err != nil {
		return nil, err
	}

	avatar.Content = name
	if err := s.db.Save(avatar).Error; err != nil {
		return nil, errors.Join(err, s.media.Delete(ctx, name))
	}
	return avatar, nil
}

// Delete removes the avatar row; articles using it keep existing with a
// null avatar.
func (s *AvatarService) Delete(id uint) error {
	avatar, err := s.Get(id)
	if err != nil {
		return err
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&db.Article{}).
			Where("avatar_id = ?", avatar.ID).
			UpdateColumn("avatar_id", nil).Error; err != nil {
			return err
		}
		return tx.Delete(avatar).Error
	})
}

func (s *AvatarService) store(ctx context.Context, r io.Reader) (string, error) {
	if r == nil {
		return "", NewValidationError("content", "No file was submitted.")
	}

	data, err := io.ReadAll(io.LimitReader(r, maxAvatarBytes+1))
	if err != nil {
		return "", err
	}
	if len(data) == 0 {
		return "", NewValidationError("content", "The submitted file is empty.")
	}
	if len(data) > maxAvatarBytes {
		return "", NewValidationError("content", fmt.Sprintf("Ensure the file is at most %d bytes.", maxAvatarBytes))
	}

	format, err := detectImageFormat(data)
	if err != nil {
		return "", NewValidationError("content", msgInvalidImage)
	}

	name := fmt.Sprintf("avatar/%s/%s%s", s.now().Format("20060102"), uuid.NewString(), imageExtensions[format])
	if err := s.media.Save(ctx, name, "image/"+format, bytes.NewReader(data)); err != nil {
		return "", err
	}
	return name, nil
}

func detectImageFormat(data []byte) (string, error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return "", err
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return "", errors.New("image has no pixels")
	}
	if _, ok := imageExtensions[format]; !ok {
		return "", fmt.Errorf("unsupported image format %q", format)
	}
	return format, nil
}
