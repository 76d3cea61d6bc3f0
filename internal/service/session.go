package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/gerry004/fendrapp/internal/models"
)

var (
	ErrMissingCredential = errors.New("missing user id or access token")
	ErrInvalidToken      = errors.New("invalid session token")
	ErrTokenExpired      = errors.New("session token expired")
)

// SessionService issues and verifies the session JWTs the engine's own API
// runs on. The platform access token inside a session is opaque to this
// service; acquiring or refreshing it is the connect flow's job, not ours.
type SessionService interface {
	Issue(userID, accessToken string) (string, time.Time, error)
	Verify(tokenString string) (*models.Claims, error)
}

type sessionService struct {
	secret []byte
	expiry time.Duration
	logger *zap.Logger
}

// NewSessionService creates a session service signing with the given HMAC
// secret.
func NewSessionService(secret string, expiry time.Duration, logger *zap.Logger) SessionService {
	return &sessionService{
		secret: []byte(secret),
		expiry: expiry,
		logger: logger,
	}
}

func (s *sessionService) Issue(userID, accessToken string) (string, time.Time, error) {
	if userID == "" || accessToken == "" {
		return "", time.Time{}, ErrMissingCredential
	}

	expirationTime := time.Now().Add(s.expiry)
	claims := &models.Claims{
		UserID:      userID,
		AccessToken: accessToken,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expirationTime),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(s.secret)
	if err != nil {
		s.logger.Error("Failed to sign session token", zap.Error(err))
		return "", time.Time{}, fmt.Errorf("failed to generate token: %w", err)
	}

	return tokenString, expirationTime, nil
}

func (s *sessionService) Verify(tokenString string) (*models.Claims, error) {
	claims := &models.Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return s.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrInvalidToken
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
