package errors

import "errors"

var (
	ErrInvalidMemberInput = errors.New("invalid member input")
	ErrInvalidRole        = errors.New("invalid member role")
	ErrMemberNotFound     = errors.New("member not found")
	ErrEmailTaken         = errors.New("email is already registered")
)
