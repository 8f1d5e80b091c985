package httpserver

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"onboarding/internal/platform/config"
)

func TestNew(t *testing.T) {
	handler := http.NotFoundHandler()

	t.Run("zero timeouts use defaults", func(t *testing.T) {
		srv := New(config.Server{Addr: ":3000"}, handler)
		assert.Equal(t, ":3000", srv.Addr)
		assert.Equal(t, defaultReadHeaderTimeout, srv.ReadHeaderTimeout)
		assert.Equal(t, defaultReadTimeout, srv.ReadTimeout)
		assert.Equal(t, defaultWriteTimeout, srv.WriteTimeout)
		assert.Equal(t, defaultIdleTimeout, srv.IdleTimeout)
	})

	t.Run("configured timeouts are kept", func(t *testing.T) {
		srv := New(config.Server{
			Addr:              ":8080",
			ReadHeaderTimeout: time.Second,
			ReadTimeout:       10 * time.Second,
			WriteTimeout:      2 * time.Minute,
			IdleTimeout:       time.Minute,
		}, handler)
		assert.Equal(t, time.Second, srv.ReadHeaderTimeout)
		assert.Equal(t, 10*time.Second, srv.ReadTimeout)
		assert.Equal(t, 2*time.Minute, srv.WriteTimeout)
		assert.Equal(t, time.Minute, srv.IdleTimeout)
	})
}
