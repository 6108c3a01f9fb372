package basecamp

import "errors"

var (
	ErrBadConfig     = errors.New("bad config")
	ErrNotConfigured = errors.New("not configured")
	ErrNotExist      = errors.New("not exist")
	ErrNotValid      = errors.New("invalid")
)
