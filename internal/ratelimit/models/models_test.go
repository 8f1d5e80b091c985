package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPolicy(t *testing.T) {
	p, err := NewPolicy(60, 5, time.Minute)
	require.NoError(t, err)
	assert.Equal(t, 60, p[ClassRead].RequestsPerWindow)
	assert.Equal(t, 60, p[ClassWrite].RequestsPerWindow)
	assert.Equal(t, 5, p[ClassUpload].RequestsPerWindow)

	_, err = NewPolicy(0, 5, time.Minute)
	assert.Error(t, err)
	_, err = NewPolicy(10, 5, 0)
	assert.Error(t, err)
}

func TestNewIPRateLimitKey(t *testing.T) {
	assert.Equal(t, "rl:ip:10.0.0.1:upload", NewIPRateLimitKey("10.0.0.1", ClassUpload))
	assert.Equal(t, "rl:ip:2001_db8__1:read", NewIPRateLimitKey("2001:db8::1", ClassRead))
}

func TestRetryAfterSeconds(t *testing.T) {
	now := time.Unix(1000, 0)
	assert.Equal(t, 30, RetryAfterSeconds(now.Add(30*time.Second), now))
	assert.Equal(t, 31, RetryAfterSeconds(now.Add(30*time.Second+time.Millisecond), now))
	assert.Equal(t, 1, RetryAfterSeconds(now.Add(-time.Second), now))
}
