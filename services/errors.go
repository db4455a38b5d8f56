package services

import "errors"

var (
	ErrPredictionFailed    = errors.New("failed to calculate emissions")
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrUsernameTaken       = errors.New("username already exists")
	ErrEmailTaken          = errors.New("email already registered")
	ErrUserNotFound        = errors.New("user not found")
	ErrNotGuest            = errors.New("account is not a guest account")
	ErrDemoSessionNotFound = errors.New("demo session not found or expired")
	ErrInvalidToken        = errors.New("invalid or expired token")
	ErrAlreadyEarned       = errors.New("badge already earned")
)
