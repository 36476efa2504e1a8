//go:generate mockgen -source index.go -destination ../../internal/mocks/mock_index.go -package mocks Searcher

// Package index contains the client contract of the search index backend and
// an Elasticsearch implementation of it.
package index

import (
	"context"
	"errors"
	"fmt"
)

// ErrUnavailable is returned while the index backend is considered down.
var ErrUnavailable = errors.New("search index unavailable")

// Searcher runs search requests against the index backend.
type Searcher interface {
	// Search executes body against index, a comma separated list of index
	// names or '*', and returns the raw response document.
	Search(ctx context.Context, index string, body map[string]any) ([]byte, error)
}

// ResponseError is returned when the backend answers with a non-2xx status.
type ResponseError struct {
	StatusCode int
	Body       string
}

func (e *ResponseError) Error() string {
	return fmt.Sprintf("search index responded with status %d: %s", e.StatusCode, e.Body)
}

// IsClientError reports whether the request itself was rejected.
func (e *ResponseError) IsClientError() bool {
	return e.StatusCode >= 400 && e.StatusCode < 500
}
