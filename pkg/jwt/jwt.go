package jwt

import (
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token has expired")
	ErrEmptySecret  = errors.New("jwt secret must not be empty")
)

// Claims represents JWT claims.
type Claims struct {
	jwt.RegisteredClaims
	UserID int64  `json:"id"`
	Email  string `json:"email"`
	Role   string `json:"role"`
}

// Manager signs and verifies HS256 bearer tokens.
type Manager struct {
	secret   []byte
	duration time.Duration
	issuer   string
	now      func() time.Time
}

// NewManager creates a new JWT manager. A zero duration issues tokens
// without an expiry.
func NewManager(secret string, duration time.Duration, issuer string) (*Manager, error) {
	if secret == "" {
		return nil, ErrEmptySecret
	}
	return &Manager{
		secret:   []byte(secret),
		duration: duration,
		issuer:   issuer,
		now:      time.Now,
	}, nil
}

// Generate creates a signed token for the user. The returned expiry is a
// unix timestamp, or 0 when the token does not expire.
func (m *Manager) Generate(userID int64, email, role string) (string, int64, error) {
	now := m.now()

	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:   m.issuer,
			Subject:  strconv.FormatInt(userID, 10),
			IssuedAt: jwt.NewNumericDate(now),
		},
		UserID: userID,
		Email:  email,
		Role:   role,
	}

	var exp int64
	if m.duration > 0 {
		expiresAt := now.Add(m.duration)
		claims.ExpiresAt = jwt.NewNumericDate(expiresAt)
		exp = expiresAt.Unix()
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", 0, err
	}
	return token, exp, nil
}

// Validate verifies a token and returns its claims.
func (m *Manager) Validate(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return m.secret, nil
	}, jwt.WithTimeFunc(m.now))

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.UserID == 0 {
		return nil, ErrInvalidToken
	}

	return claims, nil
}
