package signature

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
)

var (
	ErrMissingSignature = errors.New("missing signature")
	ErrInvalidSignature = errors.New("invalid signature")
	ErrEmptySecret      = errors.New("empty secret")
)

// WebhookVerifier checks base64 HMAC-SHA256 signatures computed over a raw request body
type WebhookVerifier struct {
	secret []byte
}

// NewWebhookVerifier creates a verifier for one secret
func NewWebhookVerifier(secret string) *WebhookVerifier {
	return &WebhookVerifier{secret: []byte(secret)}
}

// Sign returns the base64 HMAC-SHA256 of payload
func (v *WebhookVerifier) Sign(payload []byte) string {
	return base64.StdEncoding.EncodeToString(v.mac(payload))
}

// Verify compares the provided signature against the one computed over payload.
// payload must be the exact bytes received; the comparison is constant-time.
func (v *WebhookVerifier) Verify(payload []byte, provided string) error {
	if len(v.secret) == 0 {
		return ErrEmptySecret
	}
	if provided == "" {
		return ErrMissingSignature
	}
	decoded, err := base64.StdEncoding.DecodeString(provided)
	if err != nil {
		return ErrInvalidSignature
	}
	if !hmac.Equal(decoded, v.mac(payload)) {
		return ErrInvalidSignature
	}
	return nil
}

func (v *WebhookVerifier) mac(payload []byte) []byte {
	h := hmac.New(sha256.New, v.secret)
	h.Write(payload)
	return h.Sum(nil)
}
