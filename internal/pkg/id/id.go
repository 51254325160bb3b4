package id

import (
	"encoding/base64"
	"strings"

	"github.com/google/uuid"
)

// shortLen is the length of word, clip and TTS ids inside a project document.
const shortLen = 10

// New returns a random UUID string, used for media, asset and session ids.
func New() string {
	return uuid.New().String()
}

// IsValid reports whether id is a well-formed UUID.
func IsValid(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

// Short returns a 10 character id drawn from [A-Za-z0-9_-].
// Uniqueness only needs to hold within one generated document.
func Short() string {
	u := uuid.New()
	s := base64.RawURLEncoding.EncodeToString(u[:])
	return s[:shortLen]
}

// IsShort reports whether s looks like an id produced by Short.
func IsShort(s string) bool {
	if len(s) != shortLen {
		return false
	}
	return strings.Trim(s, "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789-_") == ""
}
