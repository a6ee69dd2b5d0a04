package domain

import "errors"

var (
	ErrInvalidInput        = errors.New("invalid input")
	ErrUserNotFound        = errors.New("user not found")
	ErrUserExists          = errors.New("user already exists")
	ErrReadingNotFound     = errors.New("reading not found")
	ErrTransactionNotFound = errors.New("transaction not found")
	ErrNoCredits           = errors.New("no reading credits available")
)
