package api

import (
	"context"
	"time"
)

// QueryTimeout bounds every store and gateway call made on behalf of a
// single event. Event sources bridging into the engine must not wait
// longer than this for the synchronous state mutation.
const QueryTimeout = 10 * time.Second

// WithQueryTimeout creates a context with the engine's query timeout.
func WithQueryTimeout(parent context.Context) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	return context.WithTimeout(parent, QueryTimeout)
}
