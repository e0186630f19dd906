package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/landingkit/internal/db"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUserExists         = errors.New("user already exists")
	ErrCredentialsMissing = errors.New("email and password are required")
	ErrUserNotFound       = errors.New("user not found")
	ErrPasswordTooShort   = fmt.Errorf("password must be at least %d characters", MinPasswordLength)
)

// MinPasswordLength applies to admins created from the CLI.
const MinPasswordLength = 8

// UserService 管理后台管理员账号。
type UserService struct {
	db *gorm.DB
}

// NewUserService creates a UserService.
func NewUserService(gdb *gorm.DB) *UserService {
	return &UserService{db: gdb}
}

// Authenticate checks an email/password pair. Unknown emails and wrong passwords produce the
// same error.
func (s *UserService) Authenticate(ctx context.Context, email, password string) (*db.User, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	var user db.User
	if err := s.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return &user, nil
}

// CreateAdmin stores a new admin with a bcrypt-hashed password.
func (s *UserService) CreateAdmin(ctx context.Context, email, password string) (*db.User, error) {
	email = normalizeEmail(email)
	password = strings.TrimSpace(password)
	if email == "" || password == "" {
		return nil, ErrCredentialsMissing
	}
	if len(password) < MinPasswordLength {
		return nil, ErrPasswordTooShort
	}

	var count int64
	if err := s.db.WithContext(ctx).Model(&db.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, ErrUserExists
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := db.User{Email: email, Password: string(hashed)}
	if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
		if db.IsUniqueViolation(err) {
			return nil, ErrUserExists
		}
		return nil, err
	}
	return &user, nil
}

// GetByID loads the admin referenced by a session.
func (s *UserService) GetByID(ctx context.Context, id uint) (*db.User, error) {
	var user db.User
	if err := s.db.WithContext(ctx).First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
