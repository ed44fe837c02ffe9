package registry

import (
	"strings"

	"github.com/google/uuid"
)

// guidLength is the length of a well-formed GUID: 32 hex digits plus four
// dashes at positions 8, 13, 18, 23.
const guidLength = 36

// newGUID mints a fresh 36-character lowercase-hex GUID with dashes at
// positions 8, 13, 18, 23. uuid.New() already produces exactly this shape.
func newGUID() string {
	return uuid.New().String()
}

// validGUID reports whether s is a well-formed GUID: 36 characters,
// lowercase hexadecimal, dashes at 8/13/18/23. uuid.Parse alone is not
// enough because it also accepts uppercase hex and braces/urn forms that
// this stricter wire format does not.
func validGUID(s string) bool {
	if len(s) != guidLength {
		return false
	}
	if s != strings.ToLower(s) {
		return false
	}
	for i, c := range s {
		switch i {
		case 8, 13, 18, 23:
			if c != '-' {
				return false
			}
		default:
			if !isLowerHex(byte(c)) {
				return false
			}
		}
	}
	_, err := uuid.Parse(s)
	return err == nil
}

func isLowerHex(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f')
}
