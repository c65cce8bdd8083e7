package service

import (
	"context"
	"errors"
	"net/mail"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"taxnavo/internal/model"
	"taxnavo/internal/repository"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidToken       = errors.New("invalid or expired token")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidEmail       = errors.New("invalid email address")
	ErrEmptyPassword      = errors.New("password is required")
)

const bcryptCost = 10

// AuthConfig holds token and signup settings
type AuthConfig struct {
	JWTSecret  string
	TokenTTL   time.Duration
	SignupYear int
}

// AuthService handles account signup, login and token validation
type AuthService struct {
	users      repository.UserRepo
	store      Store
	jwtSecret  []byte
	tokenTTL   time.Duration
	signupYear int
	logger     *zap.Logger
}

// NewAuthService creates a new auth service
func NewAuthService(users repository.UserRepo, store Store, cfg AuthConfig, logger *zap.Logger) *AuthService {
	return &AuthService{
		users:      users,
		store:      store,
		jwtSecret:  []byte(cfg.JWTSecret),
		tokenTTL:   cfg.TokenTTL,
		signupYear: cfg.SignupYear,
		logger:     logger.Named("auth"),
	}
}

// Signup creates an account and an empty questionnaire for the signup year
func (s *AuthService) Signup(ctx context.Context, email, password, name string) (*model.SignupResponse, error) {
	address, ok := normalizeEmail(email)
	if !ok {
		return nil, ErrInvalidEmail
	}
	if password == "" {
		return nil, ErrEmptyPassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		ID:           uuid.New().String(),
		Email:        address,
		Name:         strings.TrimSpace(name),
		PasswordHash: string(hash),
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}

	// A missing record loads as empty, so this only seeds the dashboard
	if err := s.store.Save(ctx, user.ID, s.signupYear, model.AnswerMap{}); err != nil {
		s.logger.Warn("initial questionnaire not created", zap.String("user_id", user.ID), zap.Error(err))
	}

	s.logger.Info("user signed up", zap.String("user_id", user.ID))
	return &model.SignupResponse{UserID: user.ID, Email: user.Email}, nil
}

// Login checks credentials and issues a token
func (s *AuthService) Login(ctx context.Context, email, password string) (*model.LoginResponse, error) {
	address, ok := normalizeEmail(email)
	if !ok {
		return nil, ErrInvalidCredentials
	}
	user, err := s.users.GetByEmail(ctx, address)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	token, err := s.GenerateToken(user)
	if err != nil {
		return nil, err
	}
	return &model.LoginResponse{Token: token, UserID: user.ID, Email: user.Email}, nil
}

// normalizeEmail reduces input to its bare address the same way for signup
// and login, so "Pat <pat@example.com>" and " pat@example.com " match.
func normalizeEmail(email string) (string, bool) {
	addr, err := mail.ParseAddress(strings.TrimSpace(email))
	if err != nil {
		return "", false
	}
	return addr.Address, true
}

// GenerateToken signs a token for user
func (s *AuthService) GenerateToken(user *model.User) (string, error) {
	now := time.Now()
	claims := &model.UserClaims{
		UserID: user.ID,
		Email:  user.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.jwtSecret)
}

// ValidateToken validates a user JWT and returns claims
func (s *AuthService) ValidateToken(tokenString string) (*model.UserClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &model.UserClaims{}, func(token *jwt.Token) (interface{}, error) {
		return s.jwtSecret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*model.UserClaims)
	if !ok || !token.Valid || claims.UserID == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
