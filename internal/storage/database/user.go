package database

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/VitaminP8/blog/internal/apperr"
	"github.com/VitaminP8/blog/models"
	"github.com/google/uuid"
	"github.com/jinzhu/gorm"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// userNamespace - пространство имен UUIDv5 для публичных идентификаторов пользователей
var userNamespace = uuid.MustParse("6f1c3b8e-2a4d-5e7f-9a0b-1c2d3e4f5a6b")

// UserUUID детерминированно выводит публичный uuid из имени пользователя
func UserUUID(username string) string {
	return uuid.NewSHA1(userNamespace, []byte(username)).String()
}

type UserStorage struct {
	db     *gorm.DB
	logger *zap.Logger

	dummyOnce sync.Once
	dummyHash []byte
}

func NewUserStorage(db *gorm.DB, logger *zap.Logger) *UserStorage {
	return &UserStorage{db: db, logger: logger}
}

func (s *UserStorage) RegisterUser(username, email, password string) (*models.User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, apperr.Validation("username", "username is required")
	}
	if password == "" {
		return nil, apperr.Validation("password", "password is required")
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return nil, apperr.Validation("password", "password must be at most 72 bytes")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		UUID:     UserUUID(username),
		Username: username,
		Password: string(hashedPassword),
	}
	if email = strings.TrimSpace(email); email != "" {
		user.Email = &email
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		// проверка - существует ли такой пользователь
		var count int
		if err := tx.Model(&models.User{}).Where("username = ?", username).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return apperr.ErrDuplicateUsername
		}

		return tx.Create(user).Error
	})
	if isUniqueViolation(err) {
		// параллельная регистрация прошла проверку раньше нас
		err = apperr.ErrDuplicateUsername
	}
	if err != nil {
		if isDomainError(err) {
			return nil, fmt.Errorf("user with username %s: %w", username, err)
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return user, nil
}

// VerifyCredentials не различает "нет пользователя" и "неверный пароль":
// для неизвестного имени все равно выполняется сравнение bcrypt с фиктивным хешем.
func (s *UserStorage) VerifyCredentials(username, password string) (*models.User, error) {
	var user models.User
	err := s.db.Where("username = ?", username).First(&user).Error
	if gorm.IsRecordNotFoundError(err) {
		_ = bcrypt.CompareHashAndPassword(s.fakeHash(), []byte(password))
		return nil, apperr.ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("could not get user: %w", err)
	}

	if err = bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, apperr.ErrInvalidCredentials
	}

	now := time.Now()
	if err = s.db.Model(&user).Update("last_login", now).Error; err != nil {
		// вход все равно успешен, время входа - не критичные данные
		s.logger.Warn("could not update last login", zap.Uint("userID", user.ID), zap.Error(err))
	} else {
		user.LastLogin = &now
	}

	return &user, nil
}

func (s *UserStorage) FindByUUID(publicID string) (*models.User, error) {
	var user models.User
	err := s.db.Where("uuid = ?", publicID).First(&user).Error
	if gorm.IsRecordNotFoundError(err) {
		return nil, fmt.Errorf("user %s: %w", publicID, apperr.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("could not get user by uuid: %w", err)
	}
	return &user, nil
}

func (s *UserStorage) GetUserByID(id uint) (*models.User, error) {
	var user models.User
	err := s.db.First(&user, id).Error
	if gorm.IsRecordNotFoundError(err) {
		return nil, fmt.Errorf("user %d: %w", id, apperr.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("could not get user by id: %w", err)
	}
	return &user, nil
}

func (s *UserStorage) fakeHash() []byte {
	s.dummyOnce.Do(func() {
		s.dummyHash, _ = bcrypt.GenerateFromPassword([]byte("not-a-real-password"), bcrypt.DefaultCost)
	})
	return s.dummyHash
}
