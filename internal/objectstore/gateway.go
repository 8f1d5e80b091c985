// Package objectstore stores KYC document bytes and issues time-limited read URLs.
package objectstore

import (
	"context"
	"time"
)

// CacheControl is set on every stored object; document bytes are never cacheable.
const CacheControl = "private, max-age=0"

// Gateway is the object store seen by the KYC ledger. Calls block until the
// store answers and are not retried.
type Gateway interface {
	// Put stores content under key. Writing an existing key fails.
	Put(ctx context.Context, key string, content []byte, mimeType string) error
	// SignedReadURL returns a URL that allows reading key until ttl elapses.
	SignedReadURL(ctx context.Context, key string, ttl time.Duration) (string, error)
}
