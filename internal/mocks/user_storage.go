package mocks

import (
	"fmt"
	"sync"

	"github.com/VitaminP8/blog/internal/apperr"
	"github.com/VitaminP8/blog/models"
)

// MockUserStorage реализует интерфейс user.UserStorage для тестирования
type MockUserStorage struct {
	mu        sync.Mutex
	users     map[string]*models.User // username -> user
	passwords map[string]string       // username -> password
	nextID    uint
}

// NewMockUserStorage создает новый экземпляр мока для хранилища пользователей
func NewMockUserStorage() *MockUserStorage {
	return &MockUserStorage{
		users:     make(map[string]*models.User),
		passwords: make(map[string]string),
		nextID:    1,
	}
}

// RegisterUser имитирует регистрацию пользователя
func (m *MockUserStorage) RegisterUser(username, email, password string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if username == "" {
		return nil, apperr.Validation("username", "username is required")
	}
	if password == "" {
		return nil, apperr.Validation("password", "password is required")
	}
	// bcrypt не принимает пароли длиннее 72 байт
	if len(password) > 72 {
		return nil, apperr.Validation("password", "password must be at most 72 bytes")
	}

	// Проверяем, существует ли пользователь с таким username
	if _, exists := m.users[username]; exists {
		return nil, fmt.Errorf("user with username %s: %w", username, apperr.ErrDuplicateUsername)
	}

	user := &models.User{
		ID:       m.nextID,
		UUID:     fmt.Sprintf("uuid-%s", username),
		Username: username,
	}
	if email != "" {
		user.Email = &email
	}
	m.nextID++

	m.users[username] = user
	m.passwords[username] = password

	return user, nil
}

// VerifyCredentials имитирует проверку пароля
func (m *MockUserStorage) VerifyCredentials(username, password string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	user, exists := m.users[username]
	if !exists || m.passwords[username] != password {
		return nil, apperr.ErrInvalidCredentials
	}
	return user, nil
}

func (m *MockUserStorage) FindByUUID(uuid string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, user := range m.users {
		if user.UUID == uuid {
			return user, nil
		}
	}
	return nil, apperr.ErrNotFound
}

func (m *MockUserStorage) GetUserByID(id uint) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, user := range m.users {
		if user.ID == id {
			return user, nil
		}
	}
	return nil, apperr.ErrNotFound
}
