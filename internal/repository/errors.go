package repository

import "errors"

var (
	// ErrNotFound is returned when the requested record does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrInviteUsed is returned by Consume when the invite was already
	// consumed, including by a concurrent caller that won the race.
	ErrInviteUsed = errors.New("invite already used")

	// ErrDuplicateCode is returned by Mint when the code already exists.
	// This is the storage-level backstop beneath the generator's own check.
	ErrDuplicateCode = errors.New("invite code already exists")

	// ErrDuplicateEmail is returned when a member with the same email
	// address is already registered.
	ErrDuplicateEmail = errors.New("member email already registered")
)
