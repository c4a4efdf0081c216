package wire

import (
	"crypto/hmac"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"fmt"
	"hash"
	"strings"
)

// Signer computes and verifies the HMAC digest over the four JSON
// parts of a message.
//
// An empty key disables signing entirely: Sign returns the empty
// digest and Verify accepts anything. Connection files with signing
// turned off are valid per the protocol, not an error.
type Signer struct {
	key     []byte
	newHash func() hash.Hash
}

// NewSigner builds a signer for the connection's signature scheme.
func NewSigner(scheme, key string) (*Signer, error) {
	var newHash func() hash.Hash
	switch strings.TrimSpace(scheme) {
	case "", "hmac-sha256":
		newHash = sha256.New
	case "hmac-sha512":
		newHash = sha512.New
	case "hmac-sha1":
		newHash = sha1.New
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownSignatureScheme, scheme)
	}
	return &Signer{key: []byte(key), newHash: newHash}, nil
}

// Enabled reports whether a signing key is configured.
func (s *Signer) Enabled() bool {
	return len(s.key) > 0
}

// Sign returns the hex HMAC digest over parts, concatenated in order.
func (s *Signer) Sign(parts ...[]byte) string {
	if !s.Enabled() {
		return ""
	}
	mac := hmac.New(s.newHash, s.key)
	for _, p := range parts {
		mac.Write(p)
	}
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify checks digest against parts in constant time.
func (s *Signer) Verify(digest string, parts ...[]byte) bool {
	if !s.Enabled() {
		return true
	}
	want := s.Sign(parts...)
	return hmac.Equal([]byte(want), []byte(strings.ToLower(digest)))
}
