//go:build unit

package download_test

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rios0rios0/modfetch/internal/domain/entities"
	infraRepos "github.com/rios0rios0/modfetch/internal/infrastructure/repositories/session"
	"github.com/rios0rios0/modfetch/internal/infrastructure/repositories/download"
)

func testSession() *infraRepos.Session {
	return infraRepos.NewSession(infraRepos.SessionConfig{
		RetryMax:              2,
		RetryWaitMin:          time.Millisecond,
		RetryWaitMax:          5 * time.Millisecond,
		ResponseHeaderTimeout: 5 * time.Second,
		RequestsPerSecond:     1000,
	})
}

func sha1Of(content string) string {
	digest := sha1.Sum([]byte(content))
	return hex.EncodeToString(digest[:])
}

func serveContent(hits *atomic.Int32, content string) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		_, _ = w.Write([]byte(content))
	}))
}

func TestHTTPDownloadRepositoryDownload(t *testing.T) {
	t.Parallel()

	t.Run("should download a fresh file and verify its digest", func(t *testing.T) {
		// given
		var hits atomic.Int32
		server := serveContent(&hits, "mod bytes")
		defer server.Close()

		dir := t.TempDir()
		repo := download.NewHTTPDownloadRepository(testSession())

		// when
		outcome := repo.Download(context.Background(), entities.DownloadRequest{
			URL:          server.URL + "/mod.jar",
			TargetDir:    dir,
			Filename:     "mod.jar",
			ExpectedSHA1: sha1Of("mod bytes"),
		})

		// then
		assert.Equal(t, entities.StatusSuccess, outcome.Status)
		assert.Equal(t, int32(1), hits.Load())
		written, err := os.ReadFile(filepath.Join(dir, "mod.jar"))
		require.NoError(t, err)
		assert.Equal(t, "mod bytes", string(written))
	})

	t.Run("should skip an existing non-empty file when no digest is expected", func(t *testing.T) {
		// given
		var hits atomic.Int32
		server := serveContent(&hits, "new bytes")
		defer server.Close()

		dir := t.TempDir()
		target := filepath.Join(dir, "mod.jar")
		require.NoError(t, os.WriteFile(target, []byte("old bytes"), 0o644))
		repo := download.NewHTTPDownloadRepository(testSession())

		// when
		outcome := repo.Download(context.Background(), entities.DownloadRequest{
			URL:       server.URL + "/mod.jar",
			TargetDir: dir,
			Filename:  "mod.jar",
		})

		// then
		assert.Equal(t, entities.StatusSkipped, outcome.Status)
		assert.Equal(t, int32(0), hits.Load())
		written, err := os.ReadFile(target)
		require.NoError(t, err)
		assert.Equal(t, "old bytes", string(written))
	})

	t.Run("should skip an existing file whose digest matches", func(t *testing.T) {
		// given
		var hits atomic.Int32
		server := serveContent(&hits, "same bytes")
		defer server.Close()

		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, "mod.jar"), []byte("same bytes"), 0o644))
		repo := download.NewHTTPDownloadRepository(testSession())

		// when
		outcome := repo.Download(context.Background(), entities.DownloadRequest{
			URL:          server.URL + "/mod.jar",
			TargetDir:    dir,
			Filename:     "mod.jar",
			ExpectedSHA1: sha1Of("same bytes"),
		})

		// then
		assert.Equal(t, entities.StatusSkipped, outcome.Status)
		assert.Equal(t, int32(0), hits.Load())
	})

	t.Run("should redownload an existing file whose digest is stale", func(t *testing.T) {
		// given
		var hits atomic.Int32
		server := serveContent(&hits, "fresh bytes")
		defer server.Close()

		dir := t.TempDir()
		target := filepath.Join(dir, "mod.jar")
		require.NoError(t, os.WriteFile(target, []byte("stale bytes"), 0o644))
		repo := download.NewHTTPDownloadRepository(testSession())

		// when
		outcome := repo.Download(context.Background(), entities.DownloadRequest{
			URL:          server.URL + "/mod.jar",
			TargetDir:    dir,
			Filename:     "mod.jar",
			ExpectedSHA1: sha1Of("fresh bytes"),
		})

		// then
		assert.Equal(t, entities.StatusSuccess, outcome.Status)
		assert.Equal(t, int32(1), hits.Load())
		written, err := os.ReadFile(target)
		require.NoError(t, err)
		assert.Equal(t, "fresh bytes", string(written))
	})

	t.Run("should redownload a zero-size file", func(t *testing.T) {
		// given
		var hits atomic.Int32
		server := serveContent(&hits, "real bytes")
		defer server.Close()

		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, "mod.jar"), nil, 0o644))
		repo := download.NewHTTPDownloadRepository(testSession())

		// when
		outcome := repo.Download(context.Background(), entities.DownloadRequest{
			URL:       server.URL + "/mod.jar",
			TargetDir: dir,
			Filename:  "mod.jar",
		})

		// then
		assert.Equal(t, entities.StatusSuccess, outcome.Status)
		assert.Equal(t, int32(1), hits.Load())
	})

	t.Run("should redownload when forced even if the file matches", func(t *testing.T) {
		// given
		var hits atomic.Int32
		server := serveContent(&hits, "same bytes")
		defer server.Close()

		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, "mod.jar"), []byte("same bytes"), 0o644))
		repo := download.NewHTTPDownloadRepository(testSession())

		// when
		outcome := repo.Download(context.Background(), entities.DownloadRequest{
			URL:          server.URL + "/mod.jar",
			TargetDir:    dir,
			Filename:     "mod.jar",
			ExpectedSHA1: sha1Of("same bytes"),
			Force:        true,
		})

		// then
		assert.Equal(t, entities.StatusSuccess, outcome.Status)
		assert.Equal(t, int32(1), hits.Load())
	})

	t.Run("should exhaust the attempt budget on a persistent digest mismatch", func(t *testing.T) {
		// given
		var hits atomic.Int32
		server := serveContent(&hits, "corrupted bytes")
		defer server.Close()

		dir := t.TempDir()
		session := testSession()
		repo := download.NewHTTPDownloadRepository(session)

		// when
		outcome := repo.Download(context.Background(), entities.DownloadRequest{
			URL:          server.URL + "/mod.jar",
			TargetDir:    dir,
			Filename:     "mod.jar",
			ExpectedSHA1: sha1Of("pristine bytes"),
		})

		// then
		assert.Equal(t, entities.StatusFailed, outcome.Status)
		assert.Contains(t, outcome.Detail, "sha1 mismatch")
		assert.Equal(t, int32(session.MaxAttempts()), hits.Load())
		_, statErr := os.Stat(filepath.Join(dir, "mod.jar"))
		assert.True(t, os.IsNotExist(statErr))
	})

	t.Run("should not retry a 404", func(t *testing.T) {
		// given
		var hits atomic.Int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			hits.Add(1)
			w.WriteHeader(http.StatusNotFound)
		}))
		defer server.Close()

		dir := t.TempDir()
		repo := download.NewHTTPDownloadRepository(testSession())

		// when
		outcome := repo.Download(context.Background(), entities.DownloadRequest{
			URL:       server.URL + "/missing.jar",
			TargetDir: dir,
			Filename:  "missing.jar",
		})

		// then
		assert.Equal(t, entities.StatusFailed, outcome.Status)
		assert.Contains(t, outcome.Detail, "404")
		assert.Equal(t, int32(1), hits.Load())
		_, statErr := os.Stat(filepath.Join(dir, "missing.jar"))
		assert.True(t, os.IsNotExist(statErr))
	})

	t.Run("should retry a server error before succeeding", func(t *testing.T) {
		// given
		var hits atomic.Int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			if hits.Add(1) == 1 {
				w.WriteHeader(http.StatusInternalServerError)
				return
			}
			_, _ = w.Write([]byte("eventual bytes"))
		}))
		defer server.Close()

		dir := t.TempDir()
		repo := download.NewHTTPDownloadRepository(testSession())

		// when
		outcome := repo.Download(context.Background(), entities.DownloadRequest{
			URL:       server.URL + "/mod.jar",
			TargetDir: dir,
			Filename:  "mod.jar",
		})

		// then
		assert.Equal(t, entities.StatusSuccess, outcome.Status)
		assert.Equal(t, int32(2), hits.Load())
	})

	t.Run("should report progress against the content length", func(t *testing.T) {
		// given
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Length", "14")
			_, _ = w.Write([]byte("progress bytes"))
		}))
		defer server.Close()

		dir := t.TempDir()
		repo := download.NewHTTPDownloadRepository(testSession())

		var lastDownloaded, lastTotal int64

		// when
		outcome := repo.Download(context.Background(), entities.DownloadRequest{
			URL:       server.URL + "/mod.jar",
			TargetDir: dir,
			Filename:  "mod.jar",
			Progress: func(downloaded, total int64) {
				lastDownloaded = downloaded
				lastTotal = total
			},
		})

		// then
		assert.Equal(t, entities.StatusSuccess, outcome.Status)
		assert.Equal(t, int64(14), lastDownloaded)
		assert.Equal(t, int64(14), lastTotal)
	})

	t.Run("should remove the partial file when cancelled mid-stream", func(t *testing.T) {
		// given: the server sends a first chunk, then stalls until the client
		// gives up
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte("first chunk"))
			if flusher, ok := w.(http.Flusher); ok {
				flusher.Flush()
			}
			<-r.Context().Done()
		}))
		defer server.Close()

		dir := t.TempDir()
		repo := download.NewHTTPDownloadRepository(testSession())
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		// when: the first progress report cancels the download
		outcome := repo.Download(ctx, entities.DownloadRequest{
			URL:       server.URL + "/mod.jar",
			TargetDir: dir,
			Filename:  "mod.jar",
			Progress: func(_, _ int64) {
				cancel()
			},
		})

		// then
		assert.Equal(t, entities.StatusFailed, outcome.Status)
		_, statErr := os.Stat(filepath.Join(dir, "mod.jar"))
		assert.True(t, os.IsNotExist(statErr))
	})

	t.Run("should stop immediately on a cancelled context", func(t *testing.T) {
		// given
		var hits atomic.Int32
		server := serveContent(&hits, "never served")
		defer server.Close()

		dir := t.TempDir()
		repo := download.NewHTTPDownloadRepository(testSession())
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		// when
		outcome := repo.Download(ctx, entities.DownloadRequest{
			URL:       server.URL + "/mod.jar",
			TargetDir: dir,
			Filename:  "mod.jar",
		})

		// then
		assert.Equal(t, entities.StatusFailed, outcome.Status)
		assert.Equal(t, int32(0), hits.Load())
	})
}
