// Package cache keeps rendered landing page HTML so repeat visits skip the renderer.
package cache

import "context"

// PageCache stores rendered HTML by slug. Implementations swallow backend failures: a cache
// outage degrades to rendering on every request, never to an error page.
type PageCache interface {
	Get(ctx context.Context, slug string) ([]byte, bool)
	Set(ctx context.Context, slug string, html []byte)
	Invalidate(ctx context.Context, slugs ...string)
}

// Noop is used when no cache backend is configured.
type Noop struct{}

func (Noop) Get(context.Context, string) ([]byte, bool) { return nil, false }
func (Noop) Set(context.Context, string, []byte) {}
func (Noop) Invalidate(context.Context, ...string) {}

// Stats are counters since process start.
type Stats struct {
	Hits   int64 `json:"hits"`
	Misses int64 `json:"misses"`
	Sets   int64 `json:"sets"`
}
