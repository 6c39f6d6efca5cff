package store

import "errors"

var (
	ErrTicketNotFound  = errors.New("ticket not found")
	ErrAlreadyPaid     = errors.New("ticket already paid")
	ErrUnauthorized    = errors.New("access password incorrect")
	ErrSessionNotFound = errors.New("session not found")
)
