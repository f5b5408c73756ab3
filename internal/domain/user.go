// Package domain contains entities without logic, just meta-data.
package domain

import "errors"

const (
	MaxTitleLen       = 64
	MaxDisplayNameLen = 36
)

var (
	ErrDisplayNameEmpty   = errors.New("display name empty")
	ErrDisplayNameTooLong = errors.New("display name too long")
)

// UserID is the stable identifier resolved by the credential verifier.
type UserID string

// ValidDisplayName checks the handle a member presents inside a party.
func ValidDisplayName(name string) error {
	if len(name) == 0 {
		return ErrDisplayNameEmpty
	}
	if len(name) > MaxDisplayNameLen {
		return ErrDisplayNameTooLong
	}
	return nil
}
