package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jinzhu/gorm"
	"github.com/zennieheo/hackathon2024-BE/models"
)

var (
	ErrUserNotFound  = errors.New("user not found")
	ErrUsernameTaken = errors.New("username taken")
)

// UserStore persists users, their API keys and revoked refresh tokens.
type UserStore interface {
	CreateUser(ctx context.Context, user *models.User) error
	FindByUsername(ctx context.Context, username string) (*models.User, error)
	FindByID(ctx context.Context, id uint64) (*models.User, error)
	// GetOrCreateAPIKey returns the user's key, storing newKey() when none exists.
	GetOrCreateAPIKey(ctx context.Context, userID uint64, newKey func() (string, error)) (*models.APIKey, error)
	FindAPIKey(ctx context.Context, key string) (*models.APIKey, error)
	RevokeToken(ctx context.Context, jti string, expiresAt time.Time) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

type GormUserStore struct {
	db *gorm.DB
}

func NewGormUserStore(db *gorm.DB) *GormUserStore {
	return &GormUserStore{db: db}
}

func (s *GormUserStore) CreateUser(ctx context.Context, user *models.User) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	var count int
	if err := s.db.Model(&models.User{}).Where("username = ?", user.Username).Count(&count).Error; err != nil {
		return fmt.Errorf("check username: %w", err)
	}
	if count > 0 {
		return ErrUsernameTaken
	}
	if err := s.db.Create(user).Error; err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

func (s *GormUserStore) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.findUser(ctx, "username = ?", username)
}

func (s *GormUserStore) FindByID(ctx context.Context, id uint64) (*models.User, error) {
	return s.findUser(ctx, "id = ?", id)
}

func (s *GormUserStore) findUser(ctx context.Context, query string, arg interface{}) (*models.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var user models.User
	err := s.db.Where(query, arg).First(&user).Error
	if gorm.IsRecordNotFoundError(err) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	return &user, nil
}

func (s *GormUserStore) GetOrCreateAPIKey(ctx context.Context, userID uint64, newKey func() (string, error)) (*models.APIKey, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var apiKey models.APIKey
	err := s.db.Where("user_id = ?", userID).First(&apiKey).Error
	if err == nil {
		return &apiKey, nil
	}
	if !gorm.IsRecordNotFoundError(err) {
		return nil, fmt.Errorf("find api key: %w", err)
	}

	key, err := newKey()
	if err != nil {
		return nil, err
	}
	now := time.Now()
	apiKey = models.APIKey{Key: key, UserID: userID, Created: &now}
	if err := s.db.Create(&apiKey).Error; err != nil {
		return nil, fmt.Errorf("create api key: %w", err)
	}
	return &apiKey, nil
}

func (s *GormUserStore) FindAPIKey(ctx context.Context, key string) (*models.APIKey, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var apiKey models.APIKey
	err := s.db.Where("`key` = ?", key).First(&apiKey).Error
	if gorm.IsRecordNotFoundError(err) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find api key: %w", err)
	}
	return &apiKey, nil
}

func (s *GormUserStore) RevokeToken(ctx context.Context, jti string, expiresAt time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.db.Create(&models.RevokedToken{JTI: jti, ExpiresAt: expiresAt}).Error; err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	return nil
}

func (s *GormUserStore) IsRevoked(ctx context.Context, jti string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	var count int
	if err := s.db.Model(&models.RevokedToken{}).Where("jti = ?", jti).Count(&count).Error; err != nil {
		return false, fmt.Errorf("check revoked token: %w", err)
	}
	return count > 0, nil
}

// MemoryUserStore backs the memory database client.
type MemoryUserStore struct {
	mu      sync.Mutex
	users   []models.User
	keys    map[uint64]models.APIKey
	revoked map[string]time.Time
}

func NewMemoryUserStore() *MemoryUserStore {
	return &MemoryUserStore{
		keys:    make(map[uint64]models.APIKey),
		revoked: make(map[string]time.Time),
	}
}

func (m *MemoryUserStore) CreateUser(ctx context.Context, user *models.User) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.users {
		if existing.Username == user.Username {
			return ErrUsernameTaken
		}
	}
	now := time.Now()
	user.ID = uint64(len(m.users) + 1)
	user.CreatedAt = &now
	user.UpdatedAt = &now
	m.users = append(m.users, *user)
	return nil
}

func (m *MemoryUserStore) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	return m.find(ctx, func(u models.User) bool { return u.Username == username })
}

func (m *MemoryUserStore) FindByID(ctx context.Context, id uint64) (*models.User, error) {
	return m.find(ctx, func(u models.User) bool { return u.ID == id })
}

func (m *MemoryUserStore) find(ctx context.Context, match func(models.User) bool) (*models.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, user := range m.users {
		if match(user) {
			found := user
			return &found, nil
		}
	}
	return nil, ErrUserNotFound
}

func (m *MemoryUserStore) GetOrCreateAPIKey(ctx context.Context, userID uint64, newKey func() (string, error)) (*models.APIKey, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.keys[userID]; ok {
		return &existing, nil
	}
	key, err := newKey()
	if err != nil {
		return nil, err
	}
	now := time.Now()
	apiKey := models.APIKey{ID: uint64(len(m.keys) + 1), Key: key, UserID: userID, Created: &now}
	m.keys[userID] = apiKey
	return &apiKey, nil
}

func (m *MemoryUserStore) FindAPIKey(ctx context.Context, key string) (*models.APIKey, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, apiKey := range m.keys {
		if apiKey.Key == key {
			found := apiKey
			return &found, nil
		}
	}
	return nil, ErrUserNotFound
}

func (m *MemoryUserStore) RevokeToken(ctx context.Context, jti string, expiresAt time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.revoked[jti] = expiresAt
	return nil
}

func (m *MemoryUserStore) IsRevoked(ctx context.Context, jti string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.revoked[jti]
	return ok, nil
}
