// Package otp adapts the external one-time-password validator used to gate
// master credential resets. The validator itself is an opaque collaborator.
package otp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Validator is the pass/fail gate consulted before credential resets.
type Validator interface {
	// Validate checks a one-time password. aux carries auxiliary material
	// (the current transport challenge) the validator may bind the check to.
	Validate(ctx context.Context, otp, otpID, aux string) (bool, error)
}

// HTTPValidator delegates validation to an external HTTP endpoint.
type HTTPValidator struct {
	url    string
	client *http.Client
}

// NewHTTPValidator constructs a validator client for the given endpoint.
func NewHTTPValidator(url string) *HTTPValidator {
	return &HTTPValidator{
		url:    url,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

// Validate posts the OTP to the validator and reports its verdict.
func (v *HTTPValidator) Validate(ctx context.Context, otp, otpID, aux string) (bool, error) {
	body, err := json.Marshal(map[string]string{
		"otp":       otp,
		"otp_id":    otpID,
		"challenge": aux,
	})
	if err != nil {
		return false, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, v.url, bytes.NewReader(body))
	if err != nil {
		return false, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := v.client.Do(req)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false, fmt.Errorf("otp validator: unexpected status %d", resp.StatusCode)
	}
	var out struct {
		Valid bool `json:"valid"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return false, err
	}
	return out.Valid, nil
}
