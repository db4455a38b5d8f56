// services/auth_service.go - Guest, password and upgrade flows
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"carbonsense/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// UserStore is the slice of GormStore the auth flows need.
type UserStore interface {
	CreateUser(ctx context.Context, user *models.User) error
	FindUserByID(ctx context.Context, id uint) (*models.User, error)
	FindUserByUsername(ctx context.Context, username string) (*models.User, error)
	UsernameExists(ctx context.Context, username string) (bool, error)
	EmailExists(ctx context.Context, email string) (bool, error)
	SaveUser(ctx context.Context, user *models.User) error
}

type RegisterRequest struct {
	Username string `json:"username" validate:"required,min=3,max=50"`
	Email    string `json:"email" validate:"omitempty,email"`
	Password string `json:"password" validate:"required,min=6"`
	FullName string `json:"full_name" validate:"max=100"`
}

type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// AuthResult is a signed token and the user it was issued for.
type AuthResult struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

type AuthService struct {
	users  UserStore
	tokens *TokenIssuer
	log    *zap.Logger
	now    func() time.Time
}

func NewAuthService(users UserStore, tokens *TokenIssuer, log *zap.Logger) *AuthService {
	return &AuthService{users: users, tokens: tokens, log: log, now: time.Now}
}

// Guest creates a throwaway account. Guests idle past the retention window
// are removed by the cleanup service.
func (s *AuthService) Guest(ctx context.Context) (*AuthResult, error) {
	now := s.now()
	user := &models.User{
		Username:     fmt.Sprintf("guest_%s", uuid.NewString()[:8]),
		FullName:     "Guest",
		IsGuest:      true,
		LastLogin:    now,
		LastActivity: now,
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("create guest: %w", err)
	}
	s.log.Info("Guest account created", zap.Uint("user_id", user.ID))
	return s.issue(user)
}

func (s *AuthService) Register(ctx context.Context, req RegisterRequest) (*AuthResult, error) {
	username := strings.TrimSpace(req.Username)
	exists, err := s.users.UsernameExists(ctx, username)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrUsernameTaken
	}
	if err := s.checkEmail(ctx, req.Email, nil); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := s.now()
	user := &models.User{
		Username:     username,
		Email:        optional(req.Email),
		Password:     string(hash),
		FullName:     strings.TrimSpace(req.FullName),
		LastLogin:    now,
		LastActivity: now,
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	s.log.Info("User registered", zap.Uint("user_id", user.ID), zap.String("username", user.Username))
	return s.issue(user)
}

// Login accepts registered users only. Unknown user and wrong password give
// the same error.
func (s *AuthService) Login(ctx context.Context, req LoginRequest) (*AuthResult, error) {
	user, err := s.users.FindUserByUsername(ctx, strings.TrimSpace(req.Username))
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if user.IsGuest {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	now := s.now()
	user.LastLogin = now
	user.LastActivity = now
	if err := s.users.SaveUser(ctx, user); err != nil {
		s.log.Warn("Failed to record login time", zap.Uint("user_id", user.ID), zap.Error(err))
	}
	return s.issue(user)
}

// Upgrade turns a guest into a registered account, keeping its entries and
// badges.
func (s *AuthService) Upgrade(ctx context.Context, userID uint, req RegisterRequest) (*AuthResult, error) {
	user, err := s.users.FindUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !user.IsGuest {
		return nil, ErrNotGuest
	}

	username := strings.TrimSpace(req.Username)
	if username != user.Username {
		exists, err := s.users.UsernameExists(ctx, username)
		if err != nil {
			return nil, err
		}
		if exists {
			return nil, ErrUsernameTaken
		}
	}
	if err := s.checkEmail(ctx, req.Email, user.Email); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user.Username = username
	user.Email = optional(req.Email)
	user.Password = string(hash)
	user.IsGuest = false
	if name := strings.TrimSpace(req.FullName); name != "" {
		user.FullName = name
	}
	user.LastActivity = s.now()

	if err := s.users.SaveUser(ctx, user); err != nil {
		return nil, fmt.Errorf("upgrade guest: %w", err)
	}
	s.log.Info("Guest upgraded", zap.Uint("user_id", user.ID), zap.String("username", user.Username))
	return s.issue(user)
}

func (s *AuthService) Me(ctx context.Context, userID uint) (*models.User, error) {
	return s.users.FindUserByID(ctx, userID)
}

func (s *AuthService) issue(user *models.User) (*AuthResult, error) {
	token, err := s.tokens.Issue(user)
	if err != nil {
		return nil, err
	}
	return &AuthResult{Token: token, User: user}, nil
}

// checkEmail returns ErrEmailTaken when email belongs to another account.
// An empty email or the caller's current one is always accepted.
func (s *AuthService) checkEmail(ctx context.Context, email string, current *string) error {
	email = strings.TrimSpace(email)
	if email == "" || (current != nil && *current == email) {
		return nil
	}
	exists, err := s.users.EmailExists(ctx, email)
	if err != nil {
		return err
	}
	if exists {
		return ErrEmailTaken
	}
	return nil
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
