package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content-addressed identity.
// Version suffix enables future algorithm migration.
const (
	DomainAttributes = "resin/attributes/v" + FingerprintVersion
	DomainConfig     = "resin/config/v" + FingerprintVersion
)

// hashWithDomain computes SHA-256 hash with domain separation.
// Format: SHA256(domain + 0x00 + data)
// The null byte separator prevents domain/data boundary ambiguity.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// Fingerprint computes the content-addressed identity of an attribute set.
// Two sets share a fingerprint iff they hold the same pairs in the same
// order (after NFC normalization).
func Fingerprint(set AttributeSet) (string, error) {
	canonical, err := MarshalCanonical(set)
	if err != nil {
		return "", fmt.Errorf("Fingerprint: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainAttributes, canonical), nil
}

// MustFingerprint is like Fingerprint but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustFingerprint(set AttributeSet) string {
	fp, err := Fingerprint(set)
	if err != nil {
		panic(err)
	}
	return fp
}

// ConfigHash identifies the raw configuration document a batch was run from.
func ConfigHash(raw []byte) string {
	return hashWithDomain(DomainConfig, raw)
}
