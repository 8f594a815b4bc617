package core

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestContextConcurrentAccess tests that context values can be safely accessed concurrently.
func TestContextConcurrentAccess(t *testing.T) {
	ctx := WithSuppressHeader(context.Background())

	const numGoroutines = 50
	done := make(chan bool, numGoroutines)

	for i := range numGoroutines {
		go func(id int) {
			defer func() { done <- true }()
			assert.True(t, shouldSuppressHeader(ctx), "Goroutine %d: shouldSuppressHeader should be true", id)
		}(i)
	}

	for range numGoroutines {
		<-done
	}
}

func TestShouldSuppressHeaderDefault(t *testing.T) {
	assert.False(t, shouldSuppressHeader(context.Background()))

	ctx := context.WithValue(context.Background(), suppressHeaderKey, "yes")
	assert.False(t, shouldSuppressHeader(ctx), "non-bool values are ignored")
}
