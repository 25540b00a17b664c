// Package authscheme describes how an acquired credential is presented to a
// downstream service: the declared token type, the Authorization header
// scheme prefix and, for proof-of-possession variants, the binding key id.
// A scheme is chosen once per acquisition context and only read afterwards.
package authscheme

// Token type constants as they appear in the final credential result.
const (
	TokenTypeBearer  = "Bearer"
	TokenTypePoP     = "pop"
	TokenTypeMtlsPoP = "mtls_pop"
)

// Scheme describes the presentation of an acquired credential, independent
// of which endpoint produced it.
type Scheme interface {
	// TokenType is the declared access-token type of the final result.
	TokenType() string
	// AuthorizationPrefix is the scheme prefix of the Authorization header.
	AuthorizationPrefix() string
	// KeyID identifies the cryptographic key the credential is bound to.
	// Empty for plain bearer credentials.
	KeyID() string
}

// Bearer is the plain bearer scheme: no binding key, standard prefix.
type Bearer struct{}

func (Bearer) TokenType() string           { return TokenTypeBearer }
func (Bearer) AuthorizationPrefix() string { return TokenTypeBearer }
func (Bearer) KeyID() string               { return "" }

// PopHeader binds the credential to a JSON-key thumbprint carried in a
// request header. Proof construction itself happens outside this module.
type PopHeader struct {
	// KeyThumbprint is the base64url SHA-256 thumbprint of the proof key.
	KeyThumbprint string
}

func (p PopHeader) TokenType() string           { return TokenTypePoP }
func (p PopHeader) AuthorizationPrefix() string { return "PoP" }
func (p PopHeader) KeyID() string               { return p.KeyThumbprint }

// MtlsPop binds the credential to the client certificate used for
// mutual TLS. The binding itself occurs at the transport layer via the
// certificate; the scheme only carries the thumbprint into the result.
type MtlsPop struct {
	// CertThumbprint is the bound certificate's thumbprint.
	CertThumbprint string
}

func (m MtlsPop) TokenType() string           { return TokenTypeMtlsPoP }
func (m MtlsPop) AuthorizationPrefix() string { return TokenTypeMtlsPoP }
func (m MtlsPop) KeyID() string               { return m.CertThumbprint }

// FormatAuthorizationHeader renders the Authorization header value for a
// credential under the given scheme.
func FormatAuthorizationHeader(s Scheme, token string) string {
	return s.AuthorizationPrefix() + " " + token
}
