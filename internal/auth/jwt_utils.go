package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrEmptySecret  = errors.New("jwt secret is empty")
)

// Claims defines what is inside an operator token
type Claims struct {
	OperatorID uint   `json:"operator_id"`
	Username   string `json:"username"`
	Role       string `json:"role"`
	jwt.RegisteredClaims
}

// Signer issues and checks the tokens the React client sends to this terminal.
type Signer struct {
	key []byte
	ttl time.Duration
}

func NewSigner(secret string, ttl time.Duration) (*Signer, error) {
	if secret == "" {
		return nil, ErrEmptySecret
	}
	if ttl <= 0 {
		ttl = 12 * time.Hour // one shift
	}
	return &Signer{key: []byte(secret), ttl: ttl}, nil
}

// GenerateToken creates a signed JWT for an operator
func (s *Signer) GenerateToken(operatorID uint, username, role string) (string, error) {
	if len(s.key) == 0 {
		return "", ErrEmptySecret
	}
	now := time.Now()
	claims := &Claims{
		OperatorID: operatorID,
		Username:   username,
		Role:       role,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.key)
}

// ValidateToken checks if a token is forged or expired
func (s *Signer) ValidateToken(tokenString string) (*Claims, error) {
	if len(s.key) == 0 {
		return nil, ErrEmptySecret
	}
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return s.key, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))

	if err != nil {
		return nil, err
	}

	if !token.Valid {
		return nil, ErrInvalidToken
	}

	return claims, nil
}
