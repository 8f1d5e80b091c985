package objectstore

import (
	"context"
	"fmt"
	"net/url"
	"sync"
	"time"

	"onboarding/pkg/platform/sentinel"
)

// Object is a stored payload held by InMemory.
type Object struct {
	Content      []byte
	ContentType  string
	CacheControl string
}

// InMemory is a Gateway for local development and tests. Signed URLs use the
// memory:// scheme and are not servable.
type InMemory struct {
	mu      sync.RWMutex
	bucket  string
	objects map[string]Object
	now     func() time.Time
}

// NewInMemory creates an empty in-memory bucket.
func NewInMemory(bucket string) *InMemory {
	if bucket == "" {
		bucket = "local"
	}
	return &InMemory{
		bucket:  bucket,
		objects: make(map[string]Object),
		now:     time.Now,
	}
}

// Put stores a copy of content. Writing an existing key fails with
// sentinel.ErrAlreadyUsed, matching the GCS DoesNotExist precondition.
func (m *InMemory) Put(ctx context.Context, key string, content []byte, mimeType string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.objects[key]; ok {
		return fmt.Errorf("object %s: %w", key, sentinel.ErrAlreadyUsed)
	}
	m.objects[key] = Object{
		Content:      append([]byte(nil), content...),
		ContentType:  mimeType,
		CacheControl: CacheControl,
	}
	return nil
}

// SignedReadURL returns memory://<bucket>/<key>?expires=<unix>.
func (m *InMemory) SignedReadURL(ctx context.Context, key string, ttl time.Duration) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	u := url.URL{
		Scheme:   "memory",
		Host:     m.bucket,
		Path:     "/" + key,
		RawQuery: url.Values{"expires": {fmt.Sprint(m.now().Add(ttl).Unix())}}.Encode(),
	}
	return u.String(), nil
}

// Get returns the stored object for key.
func (m *InMemory) Get(key string) (Object, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	obj, ok := m.objects[key]
	return obj, ok
}

// Len reports how many objects are stored.
func (m *InMemory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.objects)
}
