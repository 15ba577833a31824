//go:build integration || unit || test

package repositorydoubles //nolint:revive,staticcheck // Test package naming follows established project structure

import (
	"context"
	"sync"

	"github.com/rios0rios0/modfetch/internal/domain/entities"
	"github.com/rios0rios0/modfetch/internal/domain/repositories"
)

// SpyDownloadRepository records every download request. Outcomes default to
// success and can be forced per filename. Safe for concurrent use since the
// fetch pipeline downloads from a worker pool.
type SpyDownloadRepository struct {
	mu sync.Mutex

	// Outcomes forces the outcome for a given filename.
	Outcomes map[string]entities.DownloadOutcome

	// ProgressSizes, when set, feeds the request's progress callback with
	// these cumulative byte counts against ProgressTotal before the outcome
	// is decided.
	ProgressSizes []int64
	ProgressTotal int64

	// Requests are the recorded download requests, in arrival order.
	Requests []entities.DownloadRequest
}

var _ repositories.DownloadRepository = (*SpyDownloadRepository)(nil)

func (r *SpyDownloadRepository) Download(
	ctx context.Context, request entities.DownloadRequest,
) entities.DownloadOutcome {
	r.mu.Lock()
	r.Requests = append(r.Requests, request)
	r.mu.Unlock()

	if request.Progress != nil {
		for _, downloaded := range r.ProgressSizes {
			request.Progress(downloaded, r.ProgressTotal)
		}
	}
	// A progress callback may cancel the item context mid-stream; the real
	// engine fails the item and removes the partial file in that case.
	if ctx.Err() != nil {
		return entities.DownloadOutcome{
			TargetName: request.Filename,
			Status:     entities.StatusFailed,
			Detail:     ctx.Err().Error(),
		}
	}

	if outcome, ok := r.Outcomes[request.Filename]; ok {
		return outcome
	}
	return entities.DownloadOutcome{
		TargetName: request.Filename,
		Status:     entities.StatusSuccess,
	}
}

// RequestedFilenames returns the filenames of all recorded requests.
func (r *SpyDownloadRepository) RequestedFilenames() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := make([]string, 0, len(r.Requests))
	for _, request := range r.Requests {
		names = append(names, request.Filename)
	}
	return names
}
