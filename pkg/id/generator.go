package id

import (
	"strings"

	"github.com/google/uuid"
)

// NewRunID returns a unique identifier for one repeated evaluation.
func NewRunID() string {
	return uuid.New().String()
}

// Short returns the first 8 characters of an identifier, for display.
func Short(id string) string {
	if len(id) <= 8 {
		return id
	}
	return id[:8]
}

// Valid reports whether s is a run identifier produced by NewRunID.
func Valid(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil && strings.Count(s, "-") == 4
}
