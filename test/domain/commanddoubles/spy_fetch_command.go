//go:build integration || unit || test

// Package commanddoubles provides test doubles for domain command interfaces.
package commanddoubles //nolint:revive,staticcheck // Test package naming follows established project structure

import (
	"context"
	"sync"

	"github.com/rios0rios0/modfetch/internal/domain/commands"
	"github.com/rios0rios0/modfetch/internal/domain/entities"
)

// SpyFetchCommand records every run it is asked to execute and returns a
// configurable summary.
type SpyFetchCommand struct {
	mu sync.Mutex

	// Summary and Err are returned from every Execute call.
	Summary entities.RunSummary
	Err     error

	// Runs and Options are the recorded calls, in arrival order.
	Runs    []entities.RunRequest
	Options []commands.FetchOptions
}

var _ commands.Fetch = (*SpyFetchCommand)(nil)

func (c *SpyFetchCommand) Execute(
	_ context.Context, run entities.RunRequest, opts commands.FetchOptions,
) (entities.RunSummary, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Runs = append(c.Runs, run)
	c.Options = append(c.Options, opts)
	return c.Summary, c.Err
}
