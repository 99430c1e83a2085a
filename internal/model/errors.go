package model

import "errors"

var (
	// ErrNotFound is returned when the addressed post does not exist.
	ErrNotFound = errors.New("not found")
	// ErrNoRecords is returned by GetAll when the store is empty or unreadable.
	ErrNoRecords = errors.New("no records")
	// ErrDuplicateID is returned when a post with the same unique id exists.
	ErrDuplicateID = errors.New("post with this unique id already exists")
	// ErrUserNotFound is returned when an update names an unknown username.
	ErrUserNotFound = errors.New("user not found")
	// ErrMalformedRecord is returned when a stored record cannot be decoded.
	ErrMalformedRecord = errors.New("malformed record")
)
