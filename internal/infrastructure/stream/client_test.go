// Copyright The Meeting Lifecycle Service contributors
// SPDX-License-Identifier: MIT

package stream

import (
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestShouldRetry(t *testing.T) {
	tests := []struct {
		name       string
		statusCode int
		err        error
		want       bool
	}{
		{name: "network error", statusCode: 0, err: errors.New("connection refused"), want: true},
		{name: "server error", statusCode: http.StatusBadGateway, want: true},
		{name: "internal server error", statusCode: http.StatusInternalServerError, want: true},
		{name: "rate limited", statusCode: http.StatusTooManyRequests, want: true},
		{name: "bad request", statusCode: http.StatusBadRequest, want: false},
		{name: "unauthorized", statusCode: http.StatusUnauthorized, want: false},
		{name: "not found", statusCode: http.StatusNotFound, want: false},
		{name: "success", statusCode: http.StatusOK, want: false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, shouldRetry(tc.statusCode, tc.err))
		})
	}
}

func TestCalculateBackoff(t *testing.T) {
	client := NewClient(Config{
		APIKey:            "key",
		APISecret:         "secret",
		InitialBackoff:    time.Second,
		MaxBackoff:        10 * time.Second,
		BackoffMultiplier: 2.0,
	})

	t.Run("never drops below the initial backoff", func(t *testing.T) {
		for attempt := 0; attempt < 10; attempt++ {
			assert.GreaterOrEqual(t, client.calculateBackoff(attempt), time.Second)
		}
	})

	t.Run("caps at max backoff plus jitter", func(t *testing.T) {
		// Jitter is bounded by ±25% of the capped backoff.
		limit := time.Duration(float64(10*time.Second) * 1.25)
		for attempt := 0; attempt < 10; attempt++ {
			assert.LessOrEqual(t, client.calculateBackoff(attempt), limit)
		}
	})

	t.Run("grows with the attempt number", func(t *testing.T) {
		// Compare against jitter-free bounds rather than successive samples.
		low := client.calculateBackoff(1)
		assert.GreaterOrEqual(t, low, time.Second)
		assert.LessOrEqual(t, low, time.Duration(float64(2*time.Second)*1.25))
	})
}
