// Copyright The Meeting Lifecycle Service contributors
// SPDX-License-Identifier: MIT

// Package webhook validates the authenticity of inbound provider webhooks.
package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"

	"github.com/meetassist/meeting-lifecycle-service/internal/domain"
)

// StreamWebhookValidator validates provider webhook signatures. The
// signature is a hex HMAC-SHA256 digest of the exact raw request body
// computed with the shared API secret.
type StreamWebhookValidator struct {
	apiSecret string
}

// NewStreamWebhookValidator creates a new webhook signature validator.
func NewStreamWebhookValidator(apiSecret string) *StreamWebhookValidator {
	return &StreamWebhookValidator{
		apiSecret: apiSecret,
	}
}

// ValidateSignature verifies the signature over the raw body. It must be
// called before the body is parsed or any state is touched.
func (v *StreamWebhookValidator) ValidateSignature(body []byte, signature string) error {
	if v.apiSecret == "" {
		return domain.NewConfigurationError("webhook secret not configured")
	}

	if signature == "" {
		return domain.NewValidationError("missing webhook signature")
	}

	h := hmac.New(sha256.New, []byte(v.apiSecret))
	h.Write(body)
	expected := hex.EncodeToString(h.Sum(nil))

	// Constant-time comparison
	if !hmac.Equal([]byte(signature), []byte(expected)) {
		return domain.NewAuthenticationError("invalid webhook signature")
	}

	return nil
}
