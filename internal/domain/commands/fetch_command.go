package commands

import (
	"context"
	"os"
	"path/filepath"
	"sync"

	logger "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/rios0rios0/modfetch/internal/domain/entities"
	domainRepos "github.com/rios0rios0/modfetch/internal/domain/repositories"
)

const defaultWorkers = 5

// Fetch is the interface for the fetch command.
type Fetch interface {
	Execute(
		ctx context.Context,
		run entities.RunRequest,
		opts FetchOptions,
	) (entities.RunSummary, error)
}

// FetchOptions holds runtime options for a single run.
type FetchOptions struct {
	// MaxConcurrent bounds simultaneous downloads. Zero means the default.
	MaxConcurrent int
	// Hooks are invoked in order at the pipeline's extension points.
	Hooks entities.HookChain
	// SkipExtraVerification treats caller-supplied hashes on extra files as
	// informational instead of enforced. Off by default: a stated hash is
	// verified with the same policy as registry files.
	SkipExtraVerification bool
}

// FetchCommand drives one run: it expands the request list into a resolved
// download set, fetches every file plus the extra URLs, and aggregates the
// per-item outcomes into a summary.
type FetchCommand struct {
	registry  domainRepos.RegistryRepository
	downloads domainRepos.DownloadRepository
}

// NewFetchCommand creates a FetchCommand with the given collaborators.
func NewFetchCommand(
	registry domainRepos.RegistryRepository,
	downloads domainRepos.DownloadRepository,
) *FetchCommand {
	return &FetchCommand{
		registry:  registry,
		downloads: downloads,
	}
}

// downloadJob is one file handed to the download workers.
type downloadJob struct {
	request entities.DownloadRequest
}

// Execute runs the full pipeline for one run request. Item-level failures
// are recorded in the summary; only configuration and target directory
// errors abort the run.
func (it *FetchCommand) Execute(
	ctx context.Context,
	run entities.RunRequest,
	opts FetchOptions,
) (entities.RunSummary, error) {
	if err := run.Validate(); err != nil {
		return entities.RunSummary{}, err
	}

	modsDir := filepath.Join(run.DownloadDir, "mods")
	if err := os.MkdirAll(modsDir, 0o755); err != nil {
		return entities.RunSummary{}, entities.NewFetchError(
			entities.KindFilesystem, run.DownloadDir, err)
	}

	workers := opts.MaxConcurrent
	if workers <= 0 {
		workers = defaultWorkers
	}

	recorder := entities.NewSummaryRecorder()
	jobs := make(chan downloadJob)

	group, groupCtx := errgroup.WithContext(ctx)
	for worker := 0; worker < workers; worker++ {
		group.Go(func() error {
			for job := range jobs {
				it.runDownload(groupCtx, run, opts.Hooks, recorder, job)
			}
			return nil
		})
	}

	// Claiming a target path before enqueueing guarantees at most one
	// in-flight download per path, across both pipelines.
	claimed := make(map[string]struct{})
	var claimedMu sync.Mutex
	enqueue := func(job downloadJob) {
		target := filepath.Join(job.request.TargetDir, job.request.Filename)
		claimedMu.Lock()
		_, duplicate := claimed[target]
		if !duplicate {
			claimed[target] = struct{}{}
		}
		claimedMu.Unlock()
		if duplicate {
			recorder.AddSkip(job.request.Filename, "target path already claimed in this run")
			return
		}
		select {
		case jobs <- job:
		case <-groupCtx.Done():
		}
	}

	it.resolveAll(ctx, run, opts.Hooks, recorder, func(item entities.ResolvedItem) {
		enqueue(downloadJob{
			request: entities.DownloadRequest{
				URL:          item.File.URL,
				TargetDir:    modsDir,
				Filename:     item.File.Filename,
				ExpectedSHA1: item.File.Hashes.SHA1,
				Force:        run.Force,
			},
		})
	})

	it.resolvePacks(ctx, run, opts.Hooks, recorder, enqueue)
	it.processExtras(ctx, run, opts, recorder, enqueue)

	close(jobs)
	_ = group.Wait()

	summary := recorder.Summary()
	logger.Infof(
		"Run complete for %s-%s: %d resolved, %d downloaded, %d skipped, %d failed",
		run.GameVersion, run.ModLoader,
		summary.ResolvedCount, summary.DownloadedCount, summary.SkippedCount, summary.FailedCount,
	)
	return summary, ctx.Err()
}

// runDownload performs one download with its surrounding hooks and records
// the outcome.
func (it *FetchCommand) runDownload(
	ctx context.Context,
	run entities.RunRequest,
	hooks entities.HookChain,
	recorder *entities.SummaryRecorder,
	job downloadJob,
) {
	hookCtx := entities.HookContext{
		Event:       entities.HookBeforeDownload,
		GameVersion: run.GameVersion,
		ModLoader:   run.ModLoader,
		Target:      job.request.Filename,
		URL:         job.request.URL,
	}
	if hooks.Fire(ctx, hookCtx) == entities.SignalAbortItem {
		recorder.AddSkip(job.request.Filename, "aborted by hook")
		return
	}

	// A progress hook may abort the item mid-stream; cancelling the item
	// context makes the engine drop the partial file.
	itemCtx, cancelItem := context.WithCancel(ctx)
	defer cancelItem()
	var aborted bool

	request := job.request
	request.Progress = func(downloaded, total int64) {
		progressCtx := hookCtx
		progressCtx.Event = entities.HookDownloadProgress
		progressCtx.Downloaded = downloaded
		progressCtx.Total = total
		if hooks.Fire(itemCtx, progressCtx) == entities.SignalAbortItem {
			aborted = true
			cancelItem()
		}
	}

	outcome := it.downloads.Download(itemCtx, request)
	if aborted && outcome.Status == entities.StatusFailed {
		outcome.Detail = "aborted by hook during download"
	}

	resultCtx := hookCtx
	resultCtx.Outcome = &outcome
	if outcome.Status == entities.StatusFailed {
		resultCtx.Event = entities.HookDownloadFailed
	} else {
		resultCtx.Event = entities.HookAfterDownload
	}
	hooks.Fire(ctx, resultCtx)

	recorder.AddOutcome(outcome)
}
