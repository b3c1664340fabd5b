package domain

import "strings"

// IsCandidate reports whether a smali file declares a class implementing
// X509TrustManager. False positives only cost a pattern scan.
func IsCandidate(content string) bool {
	return strings.Contains(content, TrustManagerInterface)
}
