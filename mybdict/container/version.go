package container

import (
	"fmt"
	"strconv"
	"strings"
)

// SemVer is the dictionary's own version stored in the header.
type SemVer struct {
	Major uint16
	Minor uint16
	Patch uint16
}

func (v SemVer) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}

// ParseSemVer parses "a.b.c" with each component in 0..65535.
func ParseSemVer(text string) (SemVer, error) {
	parts := strings.Split(strings.TrimSpace(text), ".")
	if len(parts) != 3 {
		return SemVer{}, fmt.Errorf("%w: want a.b.c, got %q", ErrInvalidVersion, text)
	}
	var out [3]uint16
	for i, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return SemVer{}, fmt.Errorf("%w: %q: %v", ErrInvalidVersion, text, err)
		}
		if n < 0 || n > 0xFFFF {
			return SemVer{}, fmt.Errorf("%w: component %d out of range 0..65535 in %q", ErrInvalidVersion, n, text)
		}
		out[i] = uint16(n)
	}
	return SemVer{Major: out[0], Minor: out[1], Patch: out[2]}, nil
}
