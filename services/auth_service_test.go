package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

func newTestAuth() (*AuthService, *memStore, *TokenIssuer) {
	store := newMemStore()
	c := &clock{t: testNow}
	tokens := newTestIssuer(c)
	svc := NewAuthService(store, tokens, zap.NewNop())
	svc.now = c.now
	return svc, store, tokens
}

func TestGuestLogin(t *testing.T) {
	svc, store, tokens := newTestAuth()

	res, err := svc.Guest(context.Background())
	require.NoError(t, err)
	assert.True(t, res.User.IsGuest)
	assert.True(t, strings.HasPrefix(res.User.Username, "guest_"))
	assert.Len(t, res.User.Username, len("guest_")+8)
	assert.Equal(t, "Guest", res.User.FullName)
	assert.Equal(t, testNow, res.User.LastActivity)

	claims, err := tokens.Parse(res.Token)
	require.NoError(t, err)
	assert.Equal(t, res.User.ID, claims.UserID)
	assert.True(t, claims.IsGuest)
	assert.Len(t, store.users, 1)
}

func TestRegisterAndLogin(t *testing.T) {
	svc, store, _ := newTestAuth()
	ctx := context.Background()

	res, err := svc.Register(ctx, RegisterRequest{Username: " maya ", Email: "maya@example.com", Password: "secret1", FullName: "Maya R"})
	require.NoError(t, err)
	assert.Equal(t, "maya", res.User.Username)
	require.NotNil(t, res.User.Email)
	assert.Equal(t, "maya@example.com", *res.User.Email)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(store.users[res.User.ID].Password), []byte("secret1")))

	_, err = svc.Register(ctx, RegisterRequest{Username: "maya", Password: "another"})
	assert.ErrorIs(t, err, ErrUsernameTaken)

	svc.now = fixedClock(testNow.Add(time.Hour))
	login, err := svc.Login(ctx, LoginRequest{Username: "maya", Password: "secret1"})
	require.NoError(t, err)
	assert.NotEmpty(t, login.Token)
	assert.Equal(t, testNow.Add(time.Hour), store.users[res.User.ID].LastLogin)

	_, err = svc.Login(ctx, LoginRequest{Username: "maya", Password: "wrong"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = svc.Login(ctx, LoginRequest{Username: "nobody", Password: "secret1"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestRegisterRejectsTakenEmail(t *testing.T) {
	svc, store, _ := newTestAuth()
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterRequest{Username: "maya", Email: "maya@example.com", Password: "secret1"})
	require.NoError(t, err)

	_, err = svc.Register(ctx, RegisterRequest{Username: "maya2", Email: " maya@example.com ", Password: "secret1"})
	assert.ErrorIs(t, err, ErrEmailTaken)
	assert.Len(t, store.users, 1)

	guest, err := svc.Guest(ctx)
	require.NoError(t, err)
	_, err = svc.Upgrade(ctx, guest.User.ID, RegisterRequest{Username: "leaf", Email: "maya@example.com", Password: "secret1"})
	assert.ErrorIs(t, err, ErrEmailTaken)
	assert.True(t, store.users[guest.User.ID].IsGuest)
}

func TestRegisterWithoutEmail(t *testing.T) {
	svc, _, _ := newTestAuth()
	res, err := svc.Register(context.Background(), RegisterRequest{Username: "noemail", Password: "secret1"})
	require.NoError(t, err)
	assert.Nil(t, res.User.Email)
}

func TestGuestCannotLogin(t *testing.T) {
	svc, _, _ := newTestAuth()
	guest, err := svc.Guest(context.Background())
	require.NoError(t, err)

	_, err = svc.Login(context.Background(), LoginRequest{Username: guest.User.Username, Password: ""})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestUpgradeGuest(t *testing.T) {
	svc, store, tokens := newTestAuth()
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterRequest{Username: "taken", Password: "secret1"})
	require.NoError(t, err)

	guest, err := svc.Guest(ctx)
	require.NoError(t, err)

	_, err = svc.Upgrade(ctx, guest.User.ID, RegisterRequest{Username: "taken", Password: "secret1"})
	assert.ErrorIs(t, err, ErrUsernameTaken)

	res, err := svc.Upgrade(ctx, guest.User.ID, RegisterRequest{Username: "leaf", Password: "secret1", FullName: "Leaf"})
	require.NoError(t, err)
	assert.Equal(t, guest.User.ID, res.User.ID)
	assert.False(t, res.User.IsGuest)
	assert.Equal(t, "Leaf", store.users[guest.User.ID].FullName)

	claims, err := tokens.Parse(res.Token)
	require.NoError(t, err)
	assert.False(t, claims.IsGuest)
	assert.Equal(t, "leaf", claims.Username)

	_, err = svc.Upgrade(ctx, guest.User.ID, RegisterRequest{Username: "leaf", Password: "secret1"})
	assert.ErrorIs(t, err, ErrNotGuest)

	_, err = svc.Upgrade(ctx, 999, RegisterRequest{Username: "x", Password: "secret1"})
	assert.ErrorIs(t, err, ErrUserNotFound)

	login, err := svc.Login(ctx, LoginRequest{Username: "leaf", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, guest.User.ID, login.User.ID)
}
