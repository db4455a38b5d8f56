package services

import (
	"testing"
	"time"

	"carbonsense/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestIssuer(c *clock) *TokenIssuer {
	t := NewTokenIssuer("test-secret", 24*time.Hour)
	t.now = c.now
	return t
}

func TestIssueAndParse(t *testing.T) {
	c := &clock{t: testNow}
	issuer := newTestIssuer(c)

	token, err := issuer.Issue(&models.User{ID: 11, Username: "guest_ab12cd34", IsGuest: true})
	require.NoError(t, err)

	claims, err := issuer.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, uint(11), claims.UserID)
	assert.Equal(t, "guest_ab12cd34", claims.Username)
	assert.True(t, claims.IsGuest)
	assert.False(t, claims.IsDemo())
	assert.Equal(t, testNow.Add(24*time.Hour).Unix(), claims.ExpiresAt.Unix())

	c.advance(25 * time.Hour)
	_, err = issuer.Parse(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseRejectsForeignTokens(t *testing.T) {
	c := &clock{t: testNow}
	issuer := newTestIssuer(c)

	other := NewTokenIssuer("another-secret", time.Hour)
	other.now = c.now
	foreign, err := other.Issue(&models.User{ID: 1})
	require.NoError(t, err)
	_, err = issuer.Parse(foreign)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = issuer.Parse("not.a.token")
	assert.ErrorIs(t, err, ErrInvalidToken)

	// No expiry.
	bare, err := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{UserID: 1}).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	_, err = issuer.Parse(bare)
	assert.ErrorIs(t, err, ErrInvalidToken)

	// Neither a user nor a demo session.
	empty, err := issuer.sign(&Claims{RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(testNow.Add(time.Hour))}})
	require.NoError(t, err)
	_, err = issuer.Parse(empty)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestDemoTokenExpiresWithSession(t *testing.T) {
	c := &clock{t: testNow}
	issuer := newTestIssuer(c)
	registry, _ := newTestRegistry(time.Hour)
	session := registry.Enable()

	token, err := issuer.IssueDemo(session)
	require.NoError(t, err)

	claims, err := issuer.Parse(token)
	require.NoError(t, err)
	assert.True(t, claims.IsDemo())
	assert.Equal(t, session.ID, claims.DemoSession)
	assert.Zero(t, claims.UserID)
	assert.Equal(t, "Eco Explorer", claims.Username)

	c.advance(time.Hour)
	_, err = issuer.Parse(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
