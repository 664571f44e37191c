// Copyright The Meeting Lifecycle Service contributors
// SPDX-License-Identifier: MIT

package stream

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/meetassist/meeting-lifecycle-service/internal/domain"
)

// TranscriptFetcher downloads transcript artifacts over HTTP. Artifact
// URLs are pre-signed so no authentication is attached; retry policy is
// the caller's concern.
type TranscriptFetcher struct {
	httpClient *http.Client
}

// NewTranscriptFetcher creates a transcript fetcher with the given
// timeout (zero means 30 seconds).
func NewTranscriptFetcher(timeout time.Duration) *TranscriptFetcher {
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &TranscriptFetcher{
		httpClient: &http.Client{Timeout: timeout},
	}
}

// FetchTranscript returns the raw artifact body at url.
func (f *TranscriptFetcher) FetchTranscript(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, domain.NewValidationError("invalid transcript URL", err)
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, domain.NewProviderError("failed to download transcript", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, domain.NewProviderError("transcript download failed",
			fmt.Errorf("unexpected status %d", resp.StatusCode))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, domain.NewProviderError("failed to read transcript body", err)
	}

	return body, nil
}
