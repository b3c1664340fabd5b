package model

// ReplacementPolicy selects the no-op body written in place of a pinned method.
type ReplacementPolicy int

const (
	// PolicyReturnVoid replaces the body with an immediate void return.
	PolicyReturnVoid ReplacementPolicy = iota
	// PolicyReturnEmptyIssuers replaces the body with one returning an empty
	// X509Certificate array.
	PolicyReturnEmptyIssuers
)

func (p ReplacementPolicy) String() string {
	switch p {
	case PolicyReturnVoid:
		return "return-void"
	case PolicyReturnEmptyIssuers:
		return "return-empty-issuers"
	default:
		return "unknown"
	}
}

// MethodSignature identifies one target method by name and type descriptor.
type MethodSignature struct {
	Name       string
	Descriptor string
	Policy     ReplacementPolicy
}

// String returns the signature as it appears in a smali method header,
// e.g. "getAcceptedIssuers()[Ljava/security/cert/X509Certificate;".
func (s MethodSignature) String() string {
	return s.Name + s.Descriptor
}
