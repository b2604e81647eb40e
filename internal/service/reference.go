package service

import (
	"fmt"
	"strings"

	"github.com/quillpress/internal/db"
	"gorm.io/gorm"
)

const defaultMessageKey = "default"

// DefaultReferenceMessages are the failure templates per reference field.
var DefaultReferenceMessages = map[string]string{
	"category_id":     "Category with id {value} not exists.",
	"avatar_id":       "Avatar with id {value} not exists.",
	defaultMessageKey: "No more message here..",
}

// References lists the optional foreign keys of an article write. A nil
// pointer means the reference is null or was not supplied.
type References struct {
	CategoryID *uint
	AvatarID   *uint
}

// ReferenceValidator checks that supplied references point at existing rows.
type ReferenceValidator struct {
	templates map[string]string
}

// NewReferenceValidator builds a validator. Missing templates, including
// the default entry, are filled from DefaultReferenceMessages.
func NewReferenceValidator(templates map[string]string) *ReferenceValidator {
	merged := make(map[string]string, len(DefaultReferenceMessages)+len(templates))
	for field, tpl := range DefaultReferenceMessages {
		merged[field] = tpl
	}
	for field, tpl := range templates {
		merged[field] = tpl
	}
	return &ReferenceValidator{templates: merged}
}

// ResolveMessage picks the template registered for field, or the default
// one, and substitutes {value}.
func ResolveMessage(templates map[string]string, field string, value any) string {
	tpl, ok := templates[field]
	if !ok {
		tpl = templates[defaultMessageKey]
	}
	return strings.ReplaceAll(tpl, "{value}", fmt.Sprint(value))
}

// Validate reports every failing field at once through a *ValidationError.
func (v *ReferenceValidator) Validate(tx *gorm.DB, refs References) error {
	verr := &ValidationError{}

	if err := v.check(tx, &db.Category{}, "category_id", refs.CategoryID, verr); err != nil {
		return err
	}
	if err := v.check(tx, &db.Avatar{}, "avatar_id", refs.AvatarID, verr); err != nil {
		return err
	}

	return verr.errOrNil()
}

func (v *ReferenceValidator) check(tx *gorm.DB, model any, field string, id *uint, verr *ValidationError) error {
	if id == nil {
		return nil
	}

	var count int64
	if err := tx.Model(model).Where("id = ?", *id).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		verr.Add(field, ResolveMessage(v.templates, field, *id))
	}
	return nil
}
