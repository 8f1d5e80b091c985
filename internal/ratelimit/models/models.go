// Package models holds rate-limit policy and check results.
package models

import (
	"time"

	dErrors "onboarding/pkg/domain-errors"
)

// EndpointClass groups routes that share a request budget.
type EndpointClass string

const (
	// ClassRead covers customer, address and download URL lookups.
	ClassRead EndpointClass = "read"
	// ClassWrite covers registration, address creation, status changes and KYC decisions.
	ClassWrite EndpointClass = "write"
	// ClassUpload covers KYC document uploads, which carry up to several MiB each.
	ClassUpload EndpointClass = "upload"
)

func (c EndpointClass) IsValid() bool {
	switch c {
	case ClassRead, ClassWrite, ClassUpload:
		return true
	}
	return false
}

// Limit is a request budget per sliding window.
type Limit struct {
	RequestsPerWindow int
	Window            time.Duration
}

// Policy maps each endpoint class to its budget.
type Policy map[EndpointClass]Limit

// NewPolicy builds the per-class budgets. Uploads get their own, smaller budget.
func NewPolicy(requests, uploadRequests int, window time.Duration) (Policy, error) {
	if requests <= 0 || uploadRequests <= 0 {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "rate limit request counts must be positive")
	}
	if window <= 0 {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "rate limit window must be positive")
	}
	return Policy{
		ClassRead:   {RequestsPerWindow: requests, Window: window},
		ClassWrite:  {RequestsPerWindow: requests, Window: window},
		ClassUpload: {RequestsPerWindow: uploadRequests, Window: window},
	}, nil
}

// RateLimitResult represents the outcome of a rate limit check.
type RateLimitResult struct {
	Allowed    bool      `json:"allowed"`
	Limit      int       `json:"limit"`
	Remaining  int       `json:"remaining"`
	ResetAt    time.Time `json:"reset_at"`
	RetryAfter int       `json:"retry_after,omitempty"` // seconds, only set when not allowed
	// Degraded is set when the result came from the per-process fallback store.
	Degraded bool `json:"degraded,omitempty"`
}

// RetryAfterSeconds computes the Retry-After value for a denied request.
func RetryAfterSeconds(resetAt, now time.Time) int {
	secs := int(resetAt.Sub(now).Seconds())
	if resetAt.Sub(now) > time.Duration(secs)*time.Second {
		secs++
	}
	if secs < 1 {
		return 1
	}
	return secs
}
