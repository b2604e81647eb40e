package service

import (
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/quillpress/internal/db"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidCredentials = errors.New("no active account found with the given credentials")
)

const (
	maxUsernameLength = 150
	minPasswordLength = 8
)

// UserService exposes the small slice of user management this API owns.
type UserService struct {
	db  *gorm.DB
	now func() time.Time
}

// UserInput represents profile fields; nil fields are left untouched.
type UserInput struct {
	Username *string
	Password *string
}

// NewUserService creates a UserService instance.
func NewUserService(gdb *gorm.DB) *UserService {
	return &UserService{db: gdb, now: time.Now}
}

// List returns one page of users ordered by id.
func (s *UserService) List(p Pagination) (*PageResult[db.User], error) {
	return paginate[db.User](s.db, p, nil, nil, "users.id asc")
}

// Get fetches a user by id.
func (s *UserService) Get(id uint) (*db.User, error) {
	var user db.User
	if err := s.db.First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

// Register creates an account on behalf of actor. Only staff may create
// staff accounts.
func (s *UserService) Register(actor Actor, username, password string, staff bool) (*db.User, error) {
	if staff && !actor.IsStaff {
		return nil, ErrForbidden
	}

	input := UserInput{Username: &username, Password: &password}
	if err := s.validate(input, 0); err != nil {
		return nil, err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := db.User{Username: strings.TrimSpace(username), Password: string(hashed), IsStaff: staff}
	if err := s.db.Create(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, usernameTakenError()
		}
		return nil, err
	}
	return &user, nil
}

// Update edits a profile. Only the user itself or staff may do so.
func (s *UserService) Update(id uint, actor Actor, input UserInput) (*db.User, error) {
	user, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	if !actor.owns(user.ID) {
		return nil, ErrForbidden
	}
	if err := s.validate(input, user.ID); err != nil {
		return nil, err
	}

	if input.Username != nil {
		user.Username = strings.TrimSpace(*input.Username)
	}
	if input.Password != nil {
		hashed, err := bcrypt.GenerateFromPassword([]byte(*input.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, err
		}
		user.Password = string(hashed)
	}

	if err := s.db.Save(user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, usernameTakenError()
		}
		return nil, err
	}
	return user, nil
}

// Delete removes an account together with its articles.
func (s *UserService) Delete(id uint, actor Actor) error {
	user, err := s.Get(id)
	if err != nil {
		return err
	}
	if !actor.owns(user.ID) {
		return ErrForbidden
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		owned := tx.Model(&db.Article{}).Select("id").Where("author_id = ?", user.ID)
		if err := tx.Exec("DELETE FROM article_tags WHERE article_id IN (?)", owned).Error; err != nil {
			return err
		}
		if err := tx.Where("author_id = ?", user.ID).Delete(&db.Article{}).Error; err != nil {
			return err
		}
		return tx.Delete(user).Error
	})
}

// Authenticate checks credentials and records the login time.
func (s *UserService) Authenticate(username, password string) (*db.User, error) {
	var user db.User
	if err := s.db.Where("username = ?", strings.TrimSpace(username)).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	now := s.now()
	if err := s.db.Model(&user).UpdateColumn("last_login", now).Error; err != nil {
		return nil, err
	}
	user.LastLogin = &now
	return &user, nil
}

func (s *UserService) validate(input UserInput, selfID uint) error {
	verr := &ValidationError{}

	if input.Username != nil {
		username := strings.TrimSpace(*input.Username)
		switch {
		case username == "":
			verr.Add("username", msgBlank)
		case utf8.RuneCountInString(username) > maxUsernameLength:
			verr.Add("username", maxLengthMessage(maxUsernameLength))
		default:
			var count int64
			if err := s.db.Model(&db.User{}).Where("username = ? AND id <> ?", username, selfID).Count(&count).Error; err != nil {
				return err
			}
			if count > 0 {
				return usernameTakenError()
			}
		}
	}

	if input.Password != nil && utf8.RuneCountInString(*input.Password) < minPasswordLength {
		verr.Add("password", "This password is too short. It must contain at least 8 characters.")
	}

	return verr.errOrNil()
}

func usernameTakenError() error {
	return NewValidationError("username", "A user with that username already exists.")
}
