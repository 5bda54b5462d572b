package auth

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const issuer = "tetoca"

// TokenConfig carries the signing parameters for access tokens.
type TokenConfig struct {
	Secret    []byte
	Algorithm string
	TTL       time.Duration
}

func (tc TokenConfig) method() (jwt.SigningMethod, error) {
	switch strings.ToUpper(strings.TrimSpace(tc.Algorithm)) {
	case "", "HS256":
		return jwt.SigningMethodHS256, nil
	case "HS384":
		return jwt.SigningMethodHS384, nil
	case "HS512":
		return jwt.SigningMethodHS512, nil
	default:
		return nil, fmt.Errorf("unsupported signing algorithm %q", tc.Algorithm)
	}
}

// GenerateToken signs a JWT whose subject is the user id.
func (tc TokenConfig) GenerateToken(userID int64) (string, error) {
	if len(tc.Secret) == 0 {
		return "", errors.New("auth secret is not configured")
	}
	if tc.TTL <= 0 {
		return "", errors.New("ttl must be greater than zero")
	}
	method, err := tc.method()
	if err != nil {
		return "", err
	}

	now := time.Now().UTC()
	claims := jwt.RegisteredClaims{
		Issuer:    issuer,
		Subject:   strconv.FormatInt(userID, 10),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(tc.TTL)),
		ID:        uuid.NewString(),
	}
	signed, err := jwt.NewWithClaims(method, claims).SignedString(tc.Secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// ParseToken verifies the signature and claims and returns the user id.
func (tc TokenConfig) ParseToken(token string) (int64, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return 0, ErrInvalidToken
	}
	method, err := tc.method()
	if err != nil {
		return 0, err
	}

	var claims jwt.RegisteredClaims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		if t.Method != method {
			return nil, ErrInvalidToken
		}
		return tc.Secret, nil
	})
	if err != nil || !parsed.Valid {
		return 0, ErrInvalidToken
	}
	if claims.Issuer != issuer || claims.ExpiresAt == nil {
		return 0, ErrInvalidToken
	}
	userID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil || userID <= 0 {
		return 0, ErrInvalidToken
	}
	return userID, nil
}
