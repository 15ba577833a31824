package download

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	logger "github.com/sirupsen/logrus"

	"github.com/rios0rios0/modfetch/internal/domain/entities"
	domainRepos "github.com/rios0rios0/modfetch/internal/domain/repositories"
	infraRepos "github.com/rios0rios0/modfetch/internal/infrastructure/repositories/session"
)

const copyChunkSize = 32 * 1024

// terminalError marks a failure that must not be retried (e.g. a 404).
type terminalError struct {
	err error
}

func (e *terminalError) Error() string { return e.err.Error() }
func (e *terminalError) Unwrap() error { return e.err }

// integrityError marks a post-download hash mismatch, retried within the
// same attempt budget as transport failures.
type integrityError struct {
	expected string
	actual   string
}

func (e *integrityError) Error() string {
	return fmt.Sprintf("sha1 mismatch: expected %s, got %s", e.expected, e.actual)
}

// HTTPDownloadRepository fetches files over HTTP with skip, verify and retry
// semantics. Two downloads targeting the same path are serialized; a failed
// or cancelled attempt never leaves a partial file behind.
type HTTPDownloadRepository struct {
	session *infraRepos.Session

	mu        sync.Mutex
	pathLocks map[string]*sync.Mutex
}

var _ domainRepos.DownloadRepository = (*HTTPDownloadRepository)(nil)

// NewHTTPDownloadRepository creates an engine on top of the shared session.
func NewHTTPDownloadRepository(session *infraRepos.Session) *HTTPDownloadRepository {
	return &HTTPDownloadRepository{
		session:   session,
		pathLocks: make(map[string]*sync.Mutex),
	}
}

// Download fetches one file to request.TargetDir/request.Filename. All
// failures are converted into the returned outcome.
func (r *HTTPDownloadRepository) Download(
	ctx context.Context,
	request entities.DownloadRequest,
) entities.DownloadOutcome {
	target := filepath.Join(request.TargetDir, request.Filename)

	lock := r.lockFor(target)
	lock.Lock()
	defer lock.Unlock()

	if skip, detail := r.shouldSkip(target, request); skip {
		logger.Infof("Skipping %q: %s", request.Filename, detail)
		return entities.DownloadOutcome{
			TargetName: request.Filename,
			Status:     entities.StatusSkipped,
			Detail:     detail,
		}
	}

	var lastErr error
	for attempt := 0; attempt < r.session.MaxAttempts(); attempt++ {
		if attempt > 0 {
			if waitErr := r.wait(ctx, attempt-1); waitErr != nil {
				lastErr = waitErr
				break
			}
			logger.Debugf("Retrying download of %q (attempt %d)", request.Filename, attempt+1)
		}

		lastErr = r.fetchOnce(ctx, request, target)
		if lastErr == nil {
			logger.Infof("Downloaded %q", request.Filename)
			return entities.DownloadOutcome{
				TargetName: request.Filename,
				Status:     entities.StatusSuccess,
			}
		}

		var terminal *terminalError
		if errors.As(lastErr, &terminal) || ctx.Err() != nil {
			break
		}
	}

	failure := r.classify(request.Filename, lastErr)
	logger.Errorf("Failed to download %q: %v", request.Filename, failure)
	return entities.DownloadOutcome{
		TargetName: request.Filename,
		Status:     entities.StatusFailed,
		Detail:     failure.Error(),
	}
}

// shouldSkip applies the skip rule: an existing non-empty file is kept when
// force is off and its digest matches the expected one (or none was given).
// Zero-size and stale files are always redownloaded.
func (r *HTTPDownloadRepository) shouldSkip(
	target string,
	request entities.DownloadRequest,
) (bool, string) {
	if request.Force {
		return false, ""
	}

	info, err := os.Stat(target)
	if err != nil || info.Size() == 0 {
		return false, ""
	}

	if request.ExpectedSHA1 == "" {
		return true, "file already exists"
	}

	actual, hashErr := fileSHA1(target)
	if hashErr != nil {
		return false, ""
	}
	if strings.EqualFold(actual, request.ExpectedSHA1) {
		return true, "file already exists with matching sha1"
	}

	logger.Warnf("Existing file %q has stale sha1, redownloading", request.Filename)
	return false, ""
}

// fetchOnce performs a single streamed download attempt, verifying the
// digest afterwards. Whatever was written is removed on any failure.
func (r *HTTPDownloadRepository) fetchOnce(
	ctx context.Context,
	request entities.DownloadRequest,
	target string,
) error {
	if err := r.session.Wait(ctx); err != nil {
		return err
	}

	httpRequest, err := http.NewRequestWithContext(ctx, http.MethodGet, request.URL, nil)
	if err != nil {
		return &terminalError{err: fmt.Errorf("invalid download URL: %w", err)}
	}

	response, err := r.session.StandardClient().Do(httpRequest)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = response.Body.Close() }()

	switch {
	case response.StatusCode == http.StatusOK:
		// proceed
	case response.StatusCode == http.StatusTooManyRequests,
		response.StatusCode >= http.StatusInternalServerError:
		return fmt.Errorf("server returned status %d", response.StatusCode)
	default:
		return &terminalError{err: fmt.Errorf("server returned status %d", response.StatusCode)}
	}

	if err = r.writeStream(ctx, response, target, request.Progress); err != nil {
		r.removePartial(target)
		return err
	}

	if request.ExpectedSHA1 != "" {
		actual, hashErr := fileSHA1(target)
		if hashErr != nil {
			r.removePartial(target)
			return fmt.Errorf("failed to hash downloaded file: %w", hashErr)
		}
		if !strings.EqualFold(actual, request.ExpectedSHA1) {
			r.removePartial(target)
			return &integrityError{expected: request.ExpectedSHA1, actual: actual}
		}
	}

	return nil
}

// writeStream copies the response body to the target path in chunks,
// reporting progress and honoring cancellation between chunks.
func (r *HTTPDownloadRepository) writeStream(
	ctx context.Context,
	response *http.Response,
	target string,
	progress func(downloaded, total int64),
) error {
	out, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return &terminalError{err: fmt.Errorf("failed to open %q for writing: %w", target, err)}
	}

	total := response.ContentLength
	var downloaded int64
	buffer := make([]byte, copyChunkSize)

	for {
		if ctxErr := ctx.Err(); ctxErr != nil {
			_ = out.Close()
			return ctxErr
		}

		n, readErr := response.Body.Read(buffer)
		if n > 0 {
			if _, writeErr := out.Write(buffer[:n]); writeErr != nil {
				_ = out.Close()
				return fmt.Errorf("failed to write to %q: %w", target, writeErr)
			}
			downloaded += int64(n)
			if progress != nil {
				progress(downloaded, total)
			}
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			_ = out.Close()
			return fmt.Errorf("stream interrupted: %w", readErr)
		}
	}

	if closeErr := out.Close(); closeErr != nil {
		return fmt.Errorf("failed to close %q: %w", target, closeErr)
	}
	return nil
}

// classify maps the final attempt error onto the failure taxonomy.
func (r *HTTPDownloadRepository) classify(filename string, err error) error {
	var integrity *integrityError
	if errors.As(err, &integrity) {
		return entities.NewFetchError(entities.KindIntegrity, filename, err)
	}
	return entities.NewFetchError(entities.KindNetwork, filename, err)
}

// wait sleeps for the session backoff, aborting early on cancellation.
func (r *HTTPDownloadRepository) wait(ctx context.Context, retry int) error {
	timer := time.NewTimer(r.session.Backoff(retry))
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (r *HTTPDownloadRepository) removePartial(target string) {
	if removeErr := os.Remove(target); removeErr != nil && !os.IsNotExist(removeErr) {
		logger.Warnf("Failed to remove partial file %q: %v", target, removeErr)
	}
}

func (r *HTTPDownloadRepository) lockFor(target string) *sync.Mutex {
	r.mu.Lock()
	defer r.mu.Unlock()
	lock, ok := r.pathLocks[target]
	if !ok {
		lock = &sync.Mutex{}
		r.pathLocks[target] = lock
	}
	return lock
}

// fileSHA1 returns the hex SHA1 digest of the file at path.
func fileSHA1(path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer func() { _ = file.Close() }()

	digest := sha1.New()
	if _, err = io.Copy(digest, file); err != nil {
		return "", err
	}
	return hex.EncodeToString(digest.Sum(nil)), nil
}
