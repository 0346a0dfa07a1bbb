package domain

import "errors"

var (
	ErrUserNotFound    = errors.New("user not found")
	ErrMessageNotFound = errors.New("message not found")
	ErrEmptyContent    = errors.New("message content is empty")
	ErrSelfMessage     = errors.New("cannot send messages to yourself")
	ErrNotMessageOwner = errors.New("user is neither sender nor recipient of the message")
)
