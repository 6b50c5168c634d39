package canon

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Fingerprint domains. The version suffix allows the algorithm to change
// without colliding with stored fingerprints.
const (
	DomainMessage = "sat/message/v1"
	DomainBatch   = "sat/batch/v1"
	DomainState   = "sat/state/v1"
)

// hashWithDomain computes SHA256(domain + 0x00 + data).
// The null separator prevents domain/data boundary ambiguity.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// Fingerprint returns the domain-separated hash of v's canonical form.
func Fingerprint(domain string, v any) (string, error) {
	data, err := MarshalCanonical(v)
	if err != nil {
		return "", fmt.Errorf("fingerprint %s: %w", domain, err)
	}
	return hashWithDomain(domain, data), nil
}

// FingerprintJSON parses raw JSON and fingerprints its canonical form.
// Strings are compared code point for code point.
func FingerprintJSON(domain string, raw []byte) (string, error) {
	v, err := Parse(raw)
	if err != nil {
		return "", fmt.Errorf("fingerprint %s: %w", domain, err)
	}
	return Fingerprint(domain, v)
}

// FingerprintJSONNFC is FingerprintJSON over NFC-normalized strings, so
// text that differs only in Unicode composition shares a fingerprint.
func FingerprintJSONNFC(domain string, raw []byte) (string, error) {
	v, err := Parse(raw)
	if err != nil {
		return "", fmt.Errorf("fingerprint %s: %w", domain, err)
	}
	return Fingerprint(domain, NFC(v))
}

// CanonicalJSON parses raw JSON and re-serializes it canonically.
func CanonicalJSON(raw []byte) ([]byte, error) {
	v, err := Parse(raw)
	if err != nil {
		return nil, err
	}
	return MarshalCanonical(v)
}
