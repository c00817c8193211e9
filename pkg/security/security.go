// Package security provides the per-call authentication header for FDR
// transport calls and the obscuring helpers required before account
// identifiers may be attached to error-report context.
//
// Credential material (certificate and key PEM blocks) is loaded by the
// embedding application and handed in; provisioning and rotation are
// outside this package.
package security

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"time"

	"github.com/c360/fdrgateway/errors"
)

// Credentials holds the certificate material an FDR header is derived
// from, plus the namespace context the provider expects it scoped to.
type Credentials struct {
	Certificate []byte
	Key         []byte
	Namespace   string
}

// Header is the opaque per-call authentication header consumed by the
// transport. Fields follow the WS-Security username-token shape the
// provider's SOAP stack validates.
type Header struct {
	Token   string
	Nonce   string
	Created string
	Digest  string
}

// HeaderProvider produces a fresh authentication header per call. Building
// a header is cheap; callers may cache but the provider does not.
type HeaderProvider interface {
	Build() (Header, error)
}

// TokenProvider derives WS-Security style headers from static credential
// material. A fresh nonce and created timestamp are generated per call and
// digested together with the certificate.
type TokenProvider struct {
	creds Credentials
	now   func() time.Time
}

// NewTokenProvider creates a provider from credential material.
func NewTokenProvider(creds Credentials) (*TokenProvider, error) {
	if len(creds.Certificate) == 0 || len(creds.Key) == 0 {
		return nil, errors.WrapConfiguration(
			errors.ErrMissingConfig, "TokenProvider", "NewTokenProvider", "credential validation")
	}
	return &TokenProvider{creds: creds, now: time.Now}, nil
}

// Build implements HeaderProvider. The token identifies the caller from
// the certificate alone; key material enters only the one-way digest and
// never appears on the wire.
func (p *TokenProvider) Build() (Header, error) {
	nonce := make([]byte, 16)
	if _, err := rand.Read(nonce); err != nil {
		return Header{}, errors.WrapUnexpected(err, "TokenProvider", "Build", "nonce generation")
	}

	created := p.now().UTC().Format(time.RFC3339)

	digest := sha256.New()
	digest.Write(nonce)
	digest.Write([]byte(created))
	digest.Write(p.creds.Certificate)
	digest.Write(p.creds.Key)

	token := sha256.Sum256(p.creds.Certificate)

	return Header{
		Token:   base64.StdEncoding.EncodeToString(token[:]),
		Nonce:   base64.StdEncoding.EncodeToString(nonce),
		Created: created,
		Digest:  base64.StdEncoding.EncodeToString(digest.Sum(nil)),
	}, nil
}

// ObscureAccountRef transforms an account reference so it is not readable
// in error-report context. Base64, not a hash: an operator can decode it
// to correlate with provider records.
func ObscureAccountRef(ref string) string {
	return base64.StdEncoding.EncodeToString([]byte(ref))
}
