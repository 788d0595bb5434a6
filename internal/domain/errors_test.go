package domain

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidationError(t *testing.T) {
	err := NewValidationError("query", "is required")

	assert.Equal(t, "validation error: query: is required", err.Error())
	assert.True(t, errors.Is(err, ErrInvalidInput))
	assert.False(t, errors.Is(err, ErrUpstream))
}

func TestUpstreamError(t *testing.T) {
	t.Run("with status code", func(t *testing.T) {
		err := NewUpstreamError("search", http.StatusUnauthorized, "invalid key", nil)

		assert.Equal(t, "upstream search failed (status 401): invalid key", err.Error())
		assert.True(t, errors.Is(err, ErrUpstream))
		assert.False(t, errors.Is(err, ErrRateLimited))
	})

	t.Run("without response", func(t *testing.T) {
		err := NewUpstreamError("author_affiliation", 0, "connection refused", nil)

		assert.Equal(t, "upstream author_affiliation failed: connection refused", err.Error())
	})

	t.Run("too many requests is rate limited", func(t *testing.T) {
		err := NewUpstreamError("search", http.StatusTooManyRequests, "quota exceeded", nil)

		assert.True(t, errors.Is(err, ErrUpstream))
		assert.True(t, errors.Is(err, ErrRateLimited))
	})

	t.Run("cause is reachable", func(t *testing.T) {
		err := NewUpstreamError("search", 0, "request failed", context.DeadlineExceeded)

		assert.True(t, errors.Is(err, context.DeadlineExceeded))
	})

	t.Run("survives wrapping", func(t *testing.T) {
		wrapped := fmt.Errorf("fetch papers: %w", NewUpstreamError("search", http.StatusBadGateway, "bad", nil))

		var ue *UpstreamError
		require.True(t, errors.As(wrapped, &ue))
		assert.Equal(t, http.StatusBadGateway, ue.StatusCode)
		assert.True(t, errors.Is(wrapped, ErrUpstream))
	})
}
