package errors

import (
	"strings"
	"unicode"
)

// maxIDLength bounds node, link and region identifiers read from documents.
const maxIDLength = 256

// ValidateID validates an identifier read from an external document.
//
// The validation rules are intentionally conservative:
//   - No empty identifiers
//   - No control characters or null bytes
//   - No leading or trailing whitespace
//   - Maximum length of 256 characters
//
// kind names the identifier in error messages ("node", "link", "region").
func ValidateID(kind, id string) error {
	if id == "" {
		return New(ErrCodeInvalidID, "%s ID cannot be empty", kind)
	}
	if len(id) > maxIDLength {
		return New(ErrCodeInvalidID, "%s ID too long (max %d characters)", kind, maxIDLength)
	}
	for _, r := range id {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidID, "%s ID %q contains control characters", kind, id)
		}
	}
	if strings.TrimSpace(id) != id {
		return New(ErrCodeInvalidID, "%s ID %q has surrounding whitespace", kind, id)
	}
	return nil
}

// ValidateIDs validates each identifier and returns the first failure.
func ValidateIDs(kind string, ids []string) error {
	for _, id := range ids {
		if err := ValidateID(kind, id); err != nil {
			return err
		}
	}
	return nil
}
