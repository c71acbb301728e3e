package service

import (
	"context"
	"net/http"
	"time"

	"github.com/pharmastock/pharmastock-backend/internal/auth/jwt"
	"github.com/pharmastock/pharmastock-backend/internal/pharmacy/domain"
	"github.com/pharmastock/pharmastock-backend/pkg/errors"
	"github.com/pharmastock/pharmastock-backend/pkg/logger"
	"github.com/pharmastock/pharmastock-backend/pkg/permissions"
	"golang.org/x/crypto/bcrypt"
)

// LoginRequest is the body of a login
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// RefreshRequest is the body of a token refresh
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// LoginResponse carries the tokens and the signed-in user
type LoginResponse struct {
	*jwt.TokenPair
	User *domain.User `json:"user"`
}

// AuthService handles credential checks and token issue
type AuthService struct {
	users  UserStore
	jwt    *jwt.Manager
	logger *logger.Logger
}

// NewAuthService creates a new auth service
func NewAuthService(users UserStore, jwtManager *jwt.Manager, log *logger.Logger) *AuthService {
	return &AuthService{
		users:  users,
		jwt:    jwtManager,
		logger: log.WithComponent("auth"),
	}
}

// Login checks the password and issues a token pair. Unknown users, inactive
// users and wrong passwords are indistinguishable to the caller.
func (s *AuthService) Login(ctx context.Context, req *LoginRequest) (*LoginResponse, error) {
	user, err := s.users.GetByUsername(ctx, req.Username)
	if err != nil {
		if errors.IsNotFound(err) {
			return nil, errors.InvalidCredentials()
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, errors.InvalidCredentials()
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		s.logger.Warn().Str("username", req.Username).Msg("failed login attempt")
		return nil, errors.InvalidCredentials()
	}

	tokens, err := s.issue(user)
	if err != nil {
		return nil, err
	}

	if err := s.users.TouchLastLogin(ctx, user.ID, time.Now()); err != nil {
		s.logger.Warn().Err(err).Str("user_id", user.ID).Msg("failed to record last login")
	}

	s.logger.Info().Str("user_id", user.ID).Str("role", user.Role).Msg("user logged in")
	return &LoginResponse{TokenPair: tokens, User: user}, nil
}

// Refresh exchanges a refresh token for a new pair, reloading the user so
// deactivation and role changes apply.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*jwt.TokenPair, error) {
	claims, err := s.jwt.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, err
	}

	user, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.IsNotFound(err) {
			return nil, errors.TokenInvalid()
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, errors.TokenInvalid()
	}
	return s.issue(user)
}

func (s *AuthService) issue(user *domain.User) (*jwt.TokenPair, error) {
	tokens, err := s.jwt.GenerateTokenPair(&jwt.UserInfo{
		ID:          user.ID,
		Username:    user.Username,
		Role:        user.Role,
		Permissions: permissions.ForRole(user.Role),
	})
	if err != nil {
		return nil, errors.Wrap(err, "TOKEN_ERROR", "failed to issue tokens", http.StatusInternalServerError)
	}
	return tokens, nil
}

// CreateUser hashes the password and stores a new active user
func (s *AuthService) CreateUser(ctx context.Context, username, password, role string) (*domain.User, error) {
	if username == "" || password == "" {
		return nil, errors.Validation(map[string]string{"username": "username and password are required"})
	}
	if !permissions.ValidRole(role) {
		return nil, errors.Validation(map[string]string{"role": "must be one of admin pharmacist cashier"})
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		Username:     username,
		PasswordHash: string(hash),
		Role:         role,
		IsActive:     true,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}
