package repositories

import (
	"context"

	"github.com/rios0rios0/modfetch/internal/domain/entities"
)

// DownloadRepository fetches single files to disk with skip, verify and
// retry semantics. Failures are converted into the returned outcome; the
// engine never aborts the caller's pipeline.
type DownloadRepository interface {
	Download(ctx context.Context, request entities.DownloadRequest) entities.DownloadOutcome
}
