package testutil

import (
	"net/http"
	"time"

	"onboarding/pkg/requestcontext"
)

// WithRequestTime pins the request-scoped clock, the way the requesttime
// middleware would for a live request.
func WithRequestTime(req *http.Request, at time.Time) *http.Request {
	return req.WithContext(requestcontext.WithTime(req.Context(), at))
}

// WithClientIP sets the client address seen by rate limiting and audit logs.
func WithClientIP(req *http.Request, ip string) *http.Request {
	ctx := requestcontext.WithClientMetadata(req.Context(), ip, req.UserAgent())
	return req.WithContext(ctx)
}
