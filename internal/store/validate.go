package store

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// MaxIDBytes is the longest id Firestore accepts.
const MaxIDBytes = 1500

// ValidateID reports whether id can be used as a single path segment.
func ValidateID(id string) error {
	switch {
	case id == "":
		return fmt.Errorf("%w: empty", ErrInvalidID)
	case len(id) > MaxIDBytes:
		return fmt.Errorf("%w: longer than %d bytes", ErrInvalidID, MaxIDBytes)
	case !utf8.ValidString(id):
		return fmt.Errorf("%w: %q is not valid UTF-8", ErrInvalidID, id)
	case strings.Contains(id, "/"):
		return fmt.Errorf("%w: %q contains '/'", ErrInvalidID, id)
	case id == "." || id == "..":
		return fmt.Errorf("%w: %q", ErrInvalidID, id)
	case len(id) >= 4 && strings.HasPrefix(id, "__") && strings.HasSuffix(id, "__"):
		return fmt.Errorf("%w: %q uses a reserved form", ErrInvalidID, id)
	}
	return nil
}
