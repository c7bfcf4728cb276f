package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"testmaker-service/internal/domain"
)

// ErrInvalidCredentials is returned when a login or token check fails.
var ErrInvalidCredentials = errors.New("invalid credentials")

// HashPassword returns the bcrypt hash stored for a user.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// CheckPassword compares a candidate password against the stored hash.
func CheckPassword(hash, password string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return ErrInvalidCredentials
	}
	return nil
}

type claims struct {
	jwt.RegisteredClaims
	UserName string   `json:"userName"`
	Roles    []string `json:"roles"`
}

// TokenIssuer signs and verifies the HS256 access tokens callers present on
// write operations.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewTokenIssuer(secret string, ttl time.Duration) *TokenIssuer {
	return &TokenIssuer{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// NewTokenIssuerWithClock is test-only for deterministic expiry checks.
func NewTokenIssuerWithClock(secret string, ttl time.Duration, now func() time.Time) *TokenIssuer {
	i := NewTokenIssuer(secret, ttl)
	i.now = now
	return i
}

// Issue returns a signed token carrying the user's identity and roles.
func (i *TokenIssuer) Issue(user domain.User) (string, error) {
	now := i.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
		},
		UserName: user.UserName,
		Roles:    user.Roles,
	})
	signed, err := token.SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Parse verifies a raw token and returns the caller identity it carries.
func (i *TokenIssuer) Parse(raw string) (domain.Identity, error) {
	var c claims
	_, err := jwt.ParseWithClaims(raw, &c,
		func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
			}
			return i.secret, nil
		},
		jwt.WithTimeFunc(i.now),
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	)
	if err != nil {
		return domain.Identity{}, fmt.Errorf("%w: %v", ErrInvalidCredentials, err)
	}
	return domain.Identity{
		UserID:   c.Subject,
		UserName: c.UserName,
		Roles:    c.Roles,
	}, nil
}
