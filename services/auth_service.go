package services

import (
	"context"
	"strings"

	"restaurant-service/models"
	"restaurant-service/repository"

	"github.com/golang-jwt/jwt/v4"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

var commonPasswords = map[string]bool{
	"password": true,
	"12345678": true,
	"qwertyui": true,
	"letmein1": true,
	"welcome1": true,
}

// TokenIssuer creates and checks JWTs.
type TokenIssuer interface {
	GenerateTokenPair(userID uint, username string) (*TokenPair, error)
	ValidateToken(tokenStr, expectedType string) (jwt.MapClaims, error)
}

// AuthService defines account registration and token issuance.
type AuthService interface {
	Register(ctx context.Context, req *models.RegisterRequest, staff bool) (*models.User, *ServiceError)
	Login(ctx context.Context, req *models.LoginRequest) (*TokenPair, *ServiceError)
	Refresh(ctx context.Context, refreshToken string) (*TokenPair, *ServiceError)
	Me(ctx context.Context, userID uint) (*models.User, *ServiceError)
}

type authServiceImpl struct {
	users  repository.UserRepository
	tokens TokenIssuer
	logger *zap.Logger
}

func NewAuthService(users repository.UserRepository, tokens TokenIssuer, logger *zap.Logger) AuthService {
	return &authServiceImpl{users: users, tokens: tokens, logger: logger}
}

// Register creates an account. staff marks an administrator and is only set
// from the command line.
func (s *authServiceImpl) Register(ctx context.Context, req *models.RegisterRequest, staff bool) (*models.User, *ServiceError) {
	username := strings.TrimSpace(req.Username)
	if username == "" {
		return nil, FieldError("username", "This field may not be blank.")
	}
	if svcErr := checkPassword(req.Password, username); svcErr != nil {
		return nil, svcErr
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		s.logger.Error("Failed to hash password", zap.Error(err))
		return nil, Internal("Failed to create account")
	}

	user := &models.User{
		Username:  username,
		Email:     strings.TrimSpace(req.Email),
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Password:  string(hash),
		IsStaff:   staff,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, FieldError("username", "A user with that username already exists.")
		}
		s.logger.Error("Failed to create user", zap.String("username", username), zap.Error(err))
		return nil, Internal("Failed to create account")
	}

	s.logger.Info("User registered", zap.Uint("user_id", user.ID), zap.Bool("staff", staff))
	return user, nil
}

func (s *authServiceImpl) Login(ctx context.Context, req *models.LoginRequest) (*TokenPair, *ServiceError) {
	user, err := s.users.FindByUsername(ctx, req.Username)
	if err != nil {
		if !repository.IsNotFound(err) {
			s.logger.Error("Failed to look up user", zap.Error(err))
			return nil, Internal("Failed to log in")
		}
		return nil, invalidCredentials()
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return nil, invalidCredentials()
	}

	pair, err := s.tokens.GenerateTokenPair(user.ID, user.Username)
	if err != nil {
		s.logger.Error("Failed to issue tokens", zap.Uint("user_id", user.ID), zap.Error(err))
		return nil, Internal("Failed to log in")
	}
	return pair, nil
}

func (s *authServiceImpl) Refresh(ctx context.Context, refreshToken string) (*TokenPair, *ServiceError) {
	claims, err := s.tokens.ValidateToken(refreshToken, TokenTypeRefresh)
	if err != nil {
		return nil, Unauthorized("Invalid refresh token")
	}
	userID, err := UserIDFromClaims(claims)
	if err != nil {
		return nil, Unauthorized("Invalid refresh token")
	}
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, Unauthorized("User not found")
	}

	pair, err := s.tokens.GenerateTokenPair(user.ID, user.Username)
	if err != nil {
		s.logger.Error("Failed to issue tokens", zap.Uint("user_id", user.ID), zap.Error(err))
		return nil, Internal("Failed to refresh token")
	}
	return pair, nil
}

func (s *authServiceImpl) Me(ctx context.Context, userID uint) (*models.User, *ServiceError) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, NotFound("Not found.")
		}
		s.logger.Error("Failed to load user", zap.Uint("user_id", userID), zap.Error(err))
		return nil, Internal("Failed to load user")
	}
	return user, nil
}

func checkPassword(password, username string) *ServiceError {
	var msgs []string
	if len(password) < 8 {
		msgs = append(msgs, "This password is too short. It must contain at least 8 characters.")
	}
	if commonPasswords[strings.ToLower(password)] {
		msgs = append(msgs, "This password is too common.")
	}
	if strings.Trim(password, "0123456789") == "" {
		msgs = append(msgs, "This password is entirely numeric.")
	}
	if strings.EqualFold(password, username) {
		msgs = append(msgs, "The password is too similar to the username.")
	}
	if len(msgs) > 0 {
		return Validation(map[string][]string{"password": msgs})
	}
	return nil
}

func invalidCredentials() *ServiceError {
	return FieldError("non_field_errors", "Unable to log in with provided credentials.")
}
