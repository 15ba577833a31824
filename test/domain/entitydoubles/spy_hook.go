//go:build integration || unit || test

// Package entitydoubles provides test doubles for domain entity interfaces.
package entitydoubles //nolint:revive,staticcheck // Test package naming follows established project structure

import (
	"context"
	"sync"

	"github.com/rios0rios0/modfetch/internal/domain/entities"
)

// SpyHook records every event it sees and can be configured to abort the
// item at one event.
type SpyHook struct {
	HookName string
	AbortOn  entities.HookEvent

	mu     sync.Mutex
	Events []entities.HookEvent
}

var _ entities.Hook = (*SpyHook)(nil)

func (h *SpyHook) Name() string {
	return h.HookName
}

func (h *SpyHook) OnEvent(_ context.Context, hookCtx entities.HookContext) entities.HookSignal {
	h.mu.Lock()
	h.Events = append(h.Events, hookCtx.Event)
	h.mu.Unlock()

	if h.AbortOn != "" && hookCtx.Event == h.AbortOn {
		return entities.SignalAbortItem
	}
	return entities.SignalContinue
}

// SeenEvents returns a copy of the recorded events.
func (h *SpyHook) SeenEvents() []entities.HookEvent {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]entities.HookEvent(nil), h.Events...)
}
