package domain

import (
	"fmt"

	"github.com/pmezard/go-difflib/difflib"
)

const diffContextLines = 3

// diffCode renders a unified diff between the original and patched content.
func diffCode(path string, original, patched string) (string, error) {
	diff, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(original),
		B:        difflib.SplitLines(patched),
		FromFile: "a/" + path,
		ToFile:   "b/" + path,
		Context:  diffContextLines,
	})
	if err != nil {
		return "", fmt.Errorf("diff %s: %w", path, err)
	}

	return diff, nil
}
