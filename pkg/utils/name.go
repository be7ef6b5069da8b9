package utils

import (
	"errors"
	"strings"
)

var EmptyNameError = errors.New("'name' is required")

// CheckName rejects names that are empty once surrounding whitespace is removed.
func CheckName(name string) error {
	if len(strings.TrimSpace(name)) == 0 {
		return EmptyNameError
	}

	return nil
}
