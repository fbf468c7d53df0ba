package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrEmptySecret  = errors.New("jwt secret is empty")
)

// DefaultTokenTTL is the lifetime of tokens issued by IssueToken when no TTL
// is given.
const DefaultTokenTTL = 24 * time.Hour

// Service validates bearer tokens issued by the account service. Accounts
// themselves live elsewhere; this service only needs the shared secret.
type Service struct {
	jwtSecret []byte
}

func NewService(jwtSecret string) (*Service, error) {
	if jwtSecret == "" {
		return nil, ErrEmptySecret
	}
	return &Service{jwtSecret: []byte(jwtSecret)}, nil
}

// Identity is who a token was issued to.
type Identity struct {
	UserID      string `json:"userId"`
	DisplayName string `json:"displayName"`
}

type claims struct {
	Name string `json:"name,omitempty"`
	jwt.RegisteredClaims
}

func (s *Service) ValidateToken(tokenString string) (Identity, error) {
	var c claims
	token, err := jwt.ParseWithClaims(tokenString, &c, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		return Identity{}, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if !token.Valid {
		return Identity{}, ErrInvalidToken
	}
	if c.Subject == "" {
		return Identity{}, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}

	name := c.Name
	if name == "" {
		name = c.Subject
	}
	return Identity{UserID: c.Subject, DisplayName: name}, nil
}

// IssueToken signs a token for id. It backs local tooling and tests; in
// production tokens come from the account service.
func (s *Service) IssueToken(id Identity, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	now := time.Now()
	c := claims{
		Name: id.DisplayName,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	signed, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}
