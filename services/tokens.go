// services/tokens.go - JWT issuing and parsing
package services

import (
	"fmt"
	"time"

	"carbonsense/models"

	"github.com/golang-jwt/jwt/v5"
)

// Claims carry either a user id or, for demo tokens, a demo session id.
type Claims struct {
	UserID      uint   `json:"user_id,omitempty"`
	Username    string `json:"username,omitempty"`
	IsGuest     bool   `json:"is_guest"`
	DemoSession string `json:"demo_session,omitempty"`
	jwt.RegisteredClaims
}

func (c *Claims) IsDemo() bool {
	return c.DemoSession != ""
}

type TokenIssuer struct {
	secret []byte
	expiry time.Duration
	now    func() time.Time
}

func NewTokenIssuer(secret string, expiry time.Duration) *TokenIssuer {
	return &TokenIssuer{secret: []byte(secret), expiry: expiry, now: time.Now}
}

func (t *TokenIssuer) Issue(user *models.User) (string, error) {
	now := t.now()
	return t.sign(&Claims{
		UserID:   user.ID,
		Username: user.Username,
		IsGuest:  user.IsGuest,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.expiry)),
		},
	})
}

// IssueDemo signs a token that expires with the session.
func (t *TokenIssuer) IssueDemo(session *DemoSession) (string, error) {
	return t.sign(&Claims{
		Username:    session.User.FullName,
		DemoSession: session.ID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(session.CreatedAt),
			ExpiresAt: jwt.NewNumericDate(session.ExpiresAt),
		},
	})
}

func (t *TokenIssuer) sign(claims *Claims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Parse validates signature and expiry. Every failure is ErrInvalidToken.
func (t *TokenIssuer) Parse(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return t.secret, nil
	}, jwt.WithTimeFunc(t.now), jwt.WithExpirationRequired())
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.UserID == 0 && claims.DemoSession == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
