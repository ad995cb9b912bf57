package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/zennieheo/hackathon2024-BE/apperr"
	"github.com/zennieheo/hackathon2024-BE/models"
	"github.com/zennieheo/hackathon2024-BE/services/trackLog"
	"github.com/zennieheo/hackathon2024-BE/structs"
	"golang.org/x/crypto/bcrypt"
)

const (
	tokenAccess  = "access"
	tokenRefresh = "refresh"

	apiKeyBytes = 20
)

var (
	ErrInvalidCredentials = apperr.Unauthorized("No active account found with the given credentials")
	ErrInvalidToken       = apperr.Unauthorized("Token is invalid or expired")
	ErrInvalidAPIKey      = apperr.Unauthorized("Invalid API key.")
)

// Claims are carried by both access and refresh tokens.
type Claims struct {
	TokenType string `json:"token_type"`
	jwt.RegisteredClaims
}

// TokenPair is the login and refresh response.
type TokenPair struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

type Service struct {
	users      UserStore
	signingKey []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

type Option func(*Service)

func WithTokenTTL(access, refresh time.Duration) Option {
	return func(s *Service) {
		if access > 0 {
			s.accessTTL = access
		}
		if refresh > 0 {
			s.refreshTTL = refresh
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

func NewService(users UserStore, signingKey string, opts ...Option) *Service {
	s := &Service{
		users:      users,
		signingKey: []byte(signingKey),
		accessTTL:  5 * time.Minute,
		refreshTTL: 24 * time.Hour,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register creates a user with a bcrypt hashed password.
func (s *Service) Register(ctx context.Context, param structs.RegisterParam) (*models.User, error) {
	problems := apperr.FieldErrors{}
	if param.Password != param.Password2 {
		problems.Add("password", "Password fields didn't match.")
	}
	if err := problems.Err(); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(param.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperr.Internal("hash password", err)
	}
	user := &models.User{Username: param.Username, Password: string(hash)}
	if err := s.users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, ErrUsernameTaken) {
			return nil, apperr.FieldErrors{"username": {"A user with that username already exists."}}.Err()
		}
		return nil, apperr.Internal("create user", err)
	}

	trackLog.WithFields(logrus.Fields{"task": "register", "user_id": user.ID}).Info("user registered")
	return user, nil
}

// Login checks credentials and issues an access/refresh pair.
func (s *Service) Login(ctx context.Context, param structs.CredentialParam) (TokenPair, error) {
	user, err := s.checkCredentials(ctx, param)
	if err != nil {
		return TokenPair{}, err
	}
	return s.issuePair(user.ID)
}

// Refresh exchanges a refresh token for a new pair and revokes the old one.
func (s *Service) Refresh(ctx context.Context, refresh string) (TokenPair, error) {
	claims, err := s.parse(ctx, refresh, tokenRefresh)
	if err != nil {
		return TokenPair{}, err
	}
	userID, err := strconv.ParseUint(claims.Subject, 10, 64)
	if err != nil {
		return TokenPair{}, ErrInvalidToken
	}

	if err := s.users.RevokeToken(ctx, claims.ID, claims.ExpiresAt.Time); err != nil {
		return TokenPair{}, apperr.Internal("revoke refresh token", err)
	}
	return s.issuePair(userID)
}

// CreateAPIKey returns the user's API key, creating it on first request.
func (s *Service) CreateAPIKey(ctx context.Context, param structs.CredentialParam) (*models.APIKey, error) {
	user, err := s.checkCredentials(ctx, param)
	if err != nil {
		return nil, err
	}
	apiKey, err := s.users.GetOrCreateAPIKey(ctx, user.ID, generateKey)
	if err != nil {
		return nil, apperr.Internal("get or create api key", err)
	}
	return apiKey, nil
}

// Authenticate resolves an access token to its owner identifier.
func (s *Service) Authenticate(ctx context.Context, token string) (string, error) {
	claims, err := s.parse(ctx, token, tokenAccess)
	if err != nil {
		return "", err
	}
	return claims.Subject, nil
}

// AuthenticateAPIKey resolves an API key to its owner identifier.
func (s *Service) AuthenticateAPIKey(ctx context.Context, key string) (string, error) {
	apiKey, err := s.users.FindAPIKey(ctx, key)
	if errors.Is(err, ErrUserNotFound) {
		return "", ErrInvalidAPIKey
	}
	if err != nil {
		return "", apperr.Internal("find api key", err)
	}
	return strconv.FormatUint(apiKey.UserID, 10), nil
}

// Profile loads the user behind an owner identifier.
func (s *Service) Profile(ctx context.Context, owner string) (*models.User, error) {
	id, err := strconv.ParseUint(owner, 10, 64)
	if err != nil {
		return nil, apperr.NotFound("User not found.")
	}
	user, err := s.users.FindByID(ctx, id)
	if errors.Is(err, ErrUserNotFound) {
		return nil, apperr.NotFound("User not found.")
	}
	if err != nil {
		return nil, apperr.Internal("find user", err)
	}
	return user, nil
}

func (s *Service) checkCredentials(ctx context.Context, param structs.CredentialParam) (*models.User, error) {
	user, err := s.users.FindByUsername(ctx, param.Username)
	if errors.Is(err, ErrUserNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, apperr.Internal("find user", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(param.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

func (s *Service) issuePair(userID uint64) (TokenPair, error) {
	access, err := s.sign(userID, tokenAccess, s.accessTTL)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, err := s.sign(userID, tokenRefresh, s.refreshTTL)
	if err != nil {
		return TokenPair{}, err
	}
	return TokenPair{Access: access, Refresh: refresh}, nil
}

func (s *Service) sign(userID uint64, tokenType string, ttl time.Duration) (string, error) {
	now := s.now()
	claims := Claims{
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   strconv.FormatUint(userID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.signingKey)
	if err != nil {
		return "", apperr.Internal("sign token", err)
	}
	return signed, nil
}

func (s *Service) parse(ctx context.Context, token, tokenType string) (*Claims, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return s.signingKey, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !parsed.Valid || claims.TokenType != tokenType || claims.Subject == "" {
		return nil, ErrInvalidToken
	}

	revoked, err := s.users.IsRevoked(ctx, claims.ID)
	if err != nil {
		return nil, apperr.Internal("check revoked token", err)
	}
	if revoked {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

func generateKey() (string, error) {
	buf := make([]byte, apiKeyBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate api key: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
