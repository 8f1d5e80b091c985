package circuit

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBreakerDefaults(t *testing.T) {
	b := New("redis-buckets")
	assert.Equal(t, "redis-buckets", b.Name())
	assert.Equal(t, StateClosed, b.State())
	assert.Equal(t, "closed", b.State().String())

	for i := 0; i < defaultFailureThreshold-1; i++ {
		useFallback, _ := b.RecordFailure()
		assert.False(t, useFallback)
	}
	useFallback, change := b.RecordFailure()
	assert.True(t, useFallback)
	assert.True(t, change.Opened)
	assert.Equal(t, "open", b.State().String())
}

func TestBreakerTransitions(t *testing.T) {
	t.Run("already open failures do not report a change", func(t *testing.T) {
		b := New("t", WithFailureThreshold(1))
		_, change := b.RecordFailure()
		assert.True(t, change.Opened)

		useFallback, change := b.RecordFailure()
		assert.True(t, useFallback)
		assert.False(t, change.Opened)
	})

	t.Run("closes after consecutive successes", func(t *testing.T) {
		b := New("t", WithFailureThreshold(1), WithSuccessThreshold(2))
		b.RecordFailure()

		usePrimary, change := b.RecordSuccess()
		assert.False(t, usePrimary)
		assert.False(t, change.Closed)

		usePrimary, change = b.RecordSuccess()
		assert.True(t, usePrimary)
		assert.True(t, change.Closed)
		assert.False(t, b.IsOpen())
	})

	t.Run("a failure while open restarts the success streak", func(t *testing.T) {
		b := New("t", WithFailureThreshold(1), WithSuccessThreshold(2))
		b.RecordFailure()
		b.RecordSuccess()
		b.RecordFailure()
		b.RecordSuccess()
		assert.True(t, b.IsOpen())
		b.RecordSuccess()
		assert.False(t, b.IsOpen())
	})

	t.Run("success while closed clears the failure streak", func(t *testing.T) {
		b := New("t", WithFailureThreshold(2))
		b.RecordFailure()
		b.RecordSuccess()
		b.RecordFailure()
		assert.False(t, b.IsOpen())
	})

	t.Run("reset closes", func(t *testing.T) {
		b := New("t", WithFailureThreshold(1))
		b.RecordFailure()
		b.Reset()
		assert.Equal(t, StateClosed, b.State())
	})
}
