package domain

import "errors"

var (
	ErrNotFound         = errors.New("party not found")
	ErrDuplicateTitle   = errors.New("a party with this title already exists")
	ErrAlreadyMember    = errors.New("user is already a member of this party")
	ErrPasswordRequired = errors.New("party is private, password required")
	ErrInvalidPassword  = errors.New("invalid password")
	ErrInvalidTag       = errors.New("tag is not in the allowed vocabulary")
	ErrPersistence      = errors.New("persistence failure")

	ErrTitleEmpty   = errors.New("title empty")
	ErrTitleTooLong = errors.New("title too long")
)
