package service

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/devfong/cinema-gate/config"
)

// AdmissionClaims binds an admission token to one participant and one
// movie for the length of an active session.
type AdmissionClaims struct {
	MovieID   string `json:"movieId"`
	RequestID string `json:"requestId"`
	jwt.RegisteredClaims
}

type TokenIssuer struct {
	secret []byte
	expiry time.Duration
}

func NewTokenIssuer(cfg config.JWTConfig) *TokenIssuer {
	return &TokenIssuer{
		secret: []byte(cfg.Secret),
		expiry: cfg.Expiry,
	}
}

func (t *TokenIssuer) Issue(movieID, requestID string) (string, error) {
	now := time.Now()
	claims := AdmissionClaims{
		MovieID:   movieID,
		RequestID: requestID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   requestID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.expiry)),
		},
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
}

func (t *TokenIssuer) Verify(tokenStr string) (*AdmissionClaims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &AdmissionClaims{}, func(tok *jwt.Token) (interface{}, error) {
		if _, ok := tok.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", tok.Header["alg"])
		}
		return t.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*AdmissionClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}

	return claims, nil
}
