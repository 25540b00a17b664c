// Package popkey holds the cryptographic key material a proof-of-possession
// credential is bound to. The key is derived from an x509 certificate: the
// certificate endpoint receives the public material as a JWK confirmation
// claim and the resulting credential carries the key thumbprint.
package popkey

import (
	"crypto"
	_ "crypto/sha256" // registers SHA-256 for jwk thumbprints
	"crypto/x509"
	"encoding/base64"
	"encoding/json"

	"github.com/lestrrat-go/jwx/v2/jwk"
	"github.com/pkg/errors"
)

// Key wraps the public material of a bound certificate.
type Key struct {
	cert       *x509.Certificate
	jwkKey     jwk.Key
	thumbprint string
}

// FromCertificate builds a Key from the certificate's public key. The JWK
// key id is set to the base64url SHA-256 thumbprint of the key.
func FromCertificate(cert *x509.Certificate) (*Key, error) {
	if cert == nil {
		return nil, errors.New("[popkey.FromCertificate] certificate is required")
	}
	key, err := jwk.FromRaw(cert.PublicKey)
	if err != nil {
		return nil, errors.Wrap(err, "[popkey.FromCertificate] jwk.FromRaw")
	}
	raw, err := key.Thumbprint(crypto.SHA256)
	if err != nil {
		return nil, errors.Wrap(err, "[popkey.FromCertificate] jwk thumbprint")
	}
	thumbprint := base64.RawURLEncoding.EncodeToString(raw)
	if err := key.Set(jwk.KeyIDKey, thumbprint); err != nil {
		return nil, errors.Wrap(err, "[popkey.FromCertificate] set kid")
	}
	return &Key{cert: cert, jwkKey: key, thumbprint: thumbprint}, nil
}

// Thumbprint returns the base64url SHA-256 thumbprint of the public key.
func (k *Key) Thumbprint() string {
	return k.thumbprint
}

// Certificate returns the bound certificate.
func (k *Key) Certificate() *x509.Certificate {
	return k.cert
}

// ConfirmationJWK serializes the public key as the JWK carried inside the
// cnf claim of a certificate-bound credential request.
func (k *Key) ConfirmationJWK() (json.RawMessage, error) {
	b, err := json.Marshal(k.jwkKey)
	if err != nil {
		return nil, errors.Wrap(err, "[popkey.ConfirmationJWK] marshal jwk")
	}
	return b, nil
}
