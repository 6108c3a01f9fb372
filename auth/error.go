package auth

import "errors"

var (
	ErrNoSession  = errors.New("no session")
	ErrNotValid   = errors.New("not valid")
	ErrUnexpected = errors.New("unexpected")
)
