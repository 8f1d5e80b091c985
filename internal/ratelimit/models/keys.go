package models

import "strings"

const keyPrefix = "rl"

// SanitizeKeySegment escapes the ':' delimiter so a client-controlled segment
// (an IPv6 address, for instance) cannot spill into adjacent key segments.
func SanitizeKeySegment(s string) string {
	return strings.ReplaceAll(s, ":", "_")
}

// NewIPRateLimitKey returns the bucket key for a client IP and endpoint class.
func NewIPRateLimitKey(ip string, class EndpointClass) string {
	return keyPrefix + ":ip:" + SanitizeKeySegment(ip) + ":" + string(class)
}
