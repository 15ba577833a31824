package entities

import "context"

// HookEvent identifies a well-defined point in the fetch pipeline.
type HookEvent string

const (
	HookBeforeResolve    HookEvent = "before_resolve"
	HookAfterResolve     HookEvent = "after_resolve"
	HookBeforeDownload   HookEvent = "before_download"
	HookAfterDownload    HookEvent = "after_download"
	HookDownloadProgress HookEvent = "download_progress"
	HookDownloadFailed   HookEvent = "download_failed"
)

// HookSignal is a hook's verdict on the current item.
type HookSignal int

const (
	// SignalContinue lets the pipeline proceed with the item.
	SignalContinue HookSignal = iota
	// SignalAbortItem drops the current item. The run itself continues.
	SignalAbortItem
)

// HookContext is the information passed to hooks at each event. Fields are
// populated as far as the pipeline has progressed for the item.
type HookContext struct {
	Event       HookEvent
	GameVersion string
	ModLoader   string
	Target      string // project identifier or filename
	URL         string
	Outcome     *DownloadOutcome
	Err         error
	Downloaded  int64
	Total       int64
}

// Hook is a capability handle invoked at pipeline events. The embedding
// mechanism behind a hook (scripts, plugins) is not this package's concern.
type Hook interface {
	Name() string
	OnEvent(ctx context.Context, hookCtx HookContext) HookSignal
}

// HookChain invokes hooks in order. The first abort signal wins; a chain
// never aborts the whole run, only the item the event belongs to.
type HookChain []Hook

// Fire dispatches the event to every hook in order and returns the combined
// signal.
func (c HookChain) Fire(ctx context.Context, hookCtx HookContext) HookSignal {
	for _, hook := range c {
		if hook.OnEvent(ctx, hookCtx) == SignalAbortItem {
			return SignalAbortItem
		}
	}
	return SignalContinue
}
