package services

import (
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
)

const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

// TokenPair holds the generated access and refresh tokens.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// TokenService is responsible for creating and validating JWTs.
type TokenService struct {
	secretKey  []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
}

func NewTokenService(secret string, accessTTL, refreshTTL time.Duration) *TokenService {
	return &TokenService{secretKey: []byte(secret), accessTTL: accessTTL, refreshTTL: refreshTTL}
}

// GenerateTokenPair creates a new access and refresh token pair.
func (s *TokenService) GenerateTokenPair(userID uint, username string) (*TokenPair, error) {
	access, err := s.generateToken(userID, username, TokenTypeAccess, s.accessTTL, "")
	if err != nil {
		return nil, err
	}
	refresh, err := s.generateToken(userID, username, TokenTypeRefresh, s.refreshTTL, uuid.NewString())
	if err != nil {
		return nil, err
	}
	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// ValidateToken parses and validates any given token string.
func (s *TokenService) ValidateToken(tokenStr, expectedType string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenStr, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method")
		}
		return s.secretKey, nil
	})
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("invalid or expired token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, fmt.Errorf("invalid token claims")
	}
	if expectedType != "" {
		if typ, ok := claims["typ"].(string); !ok || typ != expectedType {
			return nil, fmt.Errorf("invalid token type")
		}
	}
	return claims, nil
}

// UserIDFromClaims reads the numeric user id from the sub claim.
func UserIDFromClaims(claims jwt.MapClaims) (uint, error) {
	sub, ok := claims["sub"].(string)
	if !ok {
		return 0, fmt.Errorf("sub claim is missing")
	}
	id, err := strconv.ParseUint(sub, 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("sub claim is not a user id")
	}
	return uint(id), nil
}

func (s *TokenService) generateToken(userID uint, username, tokenType string, ttl time.Duration, tokenID string) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":      strconv.FormatUint(uint64(userID), 10),
		"username": username,
		"typ":      tokenType,
		"exp":      now.Add(ttl).Unix(),
		"iat":      now.Unix(),
	}
	if tokenID != "" {
		claims["jti"] = tokenID
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secretKey)
}
