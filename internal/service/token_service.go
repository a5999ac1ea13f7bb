package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"movie-quiz/internal/dto"
	"movie-quiz/internal/logger"
)

var ErrInvalidToken = errors.New("invalid token")

// TokenService validates the bearer tokens players are identified by.
// Tokens are issued elsewhere; CreateToken serves tooling and tests.
type TokenService interface {
	ValidateToken(tokenString string) (*dto.AuthClaims, error)
	CreateToken(username string, ttl time.Duration) (string, error)
}

type tokenService struct {
	secret []byte
	now    func() time.Time
}

func NewTokenService(secret string) (TokenService, error) {
	if secret == "" {
		return nil, errors.New("jwt secret key is not configured")
	}
	return &tokenService{secret: []byte(secret), now: time.Now}, nil
}

func (s *tokenService) CreateToken(username string, ttl time.Duration) (string, error) {
	now := s.now()
	claims := dto.AuthClaims{
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Subject:   username,
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

func (s *tokenService) ValidateToken(tokenString string) (*dto.AuthClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &dto.AuthClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			logger.Get().Debug("TokenService: token expired", zap.Error(err))
		} else {
			logger.Get().Debug("TokenService: token validation failed", zap.Error(err))
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*dto.AuthClaims)
	if !ok || !token.Valid || claims.Username == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
