package model

import (
	"fmt"
	"strings"
)

// LineEnding selects how the patcher treats carriage returns.
type LineEnding string

const (
	// LineEndingAuto strips carriage returns before matching and restores them
	// on the lines that had one, so mixed files keep their endings.
	LineEndingAuto LineEnding = "auto"
	// LineEndingLF leaves content untouched.
	LineEndingLF LineEnding = "lf"
	// LineEndingCRLF normalizes CRLF to LF before matching and restores it afterwards.
	LineEndingCRLF LineEnding = "crlf"
)

// ParseLineEnding converts a config or flag value into a LineEnding.
// An empty value selects LineEndingAuto.
func ParseLineEnding(value string) (LineEnding, error) {
	switch LineEnding(strings.ToLower(strings.TrimSpace(value))) {
	case "", LineEndingAuto:
		return LineEndingAuto, nil
	case LineEndingLF:
		return LineEndingLF, nil
	case LineEndingCRLF:
		return LineEndingCRLF, nil
	}

	return "", fmt.Errorf("unsupported line ending %q (want auto, lf or crlf)", value)
}
