// Package signer produces the HMAC-SHA256 request signatures used by the
// timestamped exchange protocol.
package signer

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Case selects the hex alphabet of an encoded signature.
type Case int

const (
	// Lower encodes with a-f. It is what the supported exchanges expect.
	Lower Case = iota
	// Upper encodes with A-F.
	Upper
)

// Sign returns the hex-encoded HMAC-SHA256 of payload keyed by secret.
func Sign(secret, payload string, c Case) string {
	mac := hmac.New(sha256.New, []byte(secret))
	_, _ = mac.Write([]byte(payload))
	encoded := hex.EncodeToString(mac.Sum(nil))
	if c == Upper {
		return strings.ToUpper(encoded)
	}
	return encoded
}

// Signer binds a secret to an encoding case.
type Signer struct {
	secret string
	enc    Case
}

// New returns a signer for secret using lowercase hex.
func New(secret string) Signer {
	return Signer{secret: secret, enc: Lower}
}

// WithCase returns a copy of s that encodes with c.
func (s Signer) WithCase(c Case) Signer {
	s.enc = c
	return s
}

// Sign signs payload.
func (s Signer) Sign(payload string) string {
	return Sign(s.secret, payload, s.enc)
}

// Configured reports whether a secret is present.
func (s Signer) Configured() bool {
	return s.secret != ""
}
