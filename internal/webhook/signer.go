// Package webhook verifies and decodes GitHub webhook deliveries.
package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
)

// Delivery headers set by GitHub.
const (
	HeaderSignature  = "X-Hub-Signature-256"
	HeaderEvent      = "X-GitHub-Event"
	HeaderDeliveryID = "X-GitHub-Delivery"
)

const signaturePrefix = "sha256="

var (
	// ErrMissingSignature is returned when a signed delivery carries no signature.
	ErrMissingSignature = errors.New("missing signature")
	// ErrInvalidSignature is returned when signature verification fails.
	ErrInvalidSignature = errors.New("invalid signature")
)

// GenerateSignature creates the HMAC-SHA256 signature GitHub sends for
// payload, in header form: "sha256=<hex>".
func GenerateSignature(secret string, payload []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return signaturePrefix + hex.EncodeToString(mac.Sum(nil))
}

// ValidateSignature verifies a delivery signature in constant time.
func ValidateSignature(secret, signature string, payload []byte) error {
	if signature == "" {
		return ErrMissingSignature
	}
	if !strings.HasPrefix(signature, signaturePrefix) {
		return ErrInvalidSignature
	}

	expected := GenerateSignature(secret, payload)
	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return ErrInvalidSignature
	}

	return nil
}
