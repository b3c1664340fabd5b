// Package domain contains the certificate-pinning patch engine and the
// workflow that applies it to a decompiled application tree.
package domain

import m "unpin.dev/pkg/unpin/internal/model"

// TrustManagerInterface is the line apktool emits for classes implementing
// javax.net.ssl.X509TrustManager.
const TrustManagerInterface = ".implements Ljavax/net/ssl/X509TrustManager;"

const x509CertificateArray = "[Ljava/security/cert/X509Certificate;"

// DefaultSignatures is the X509TrustManager contract, in the order the
// patcher applies it.
var DefaultSignatures = []m.MethodSignature{
	{
		Name:       "checkClientTrusted",
		Descriptor: "(" + x509CertificateArray + "Ljava/lang/String;)V",
		Policy:     m.PolicyReturnVoid,
	},
	{
		Name:       "checkServerTrusted",
		Descriptor: "(" + x509CertificateArray + "Ljava/lang/String;)V",
		Policy:     m.PolicyReturnVoid,
	},
	{
		Name:       "getAcceptedIssuers",
		Descriptor: "()" + x509CertificateArray,
		Policy:     m.PolicyReturnEmptyIssuers,
	},
}

// replacementBodies holds the instructions written for each policy.
var replacementBodies = map[m.ReplacementPolicy][]string{
	m.PolicyReturnVoid: {
		".locals 0",
		"return-void",
	},
	m.PolicyReturnEmptyIssuers: {
		".locals 1",
		"const/4 v0, 0x0",
		"new-array v0, v0, " + x509CertificateArray,
		"return-object v0",
	},
}
