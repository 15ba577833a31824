package entities

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a fetch failure. Item-level kinds are recorded as
// outcomes and never abort a run; run-level kinds abort the current run only.
type ErrorKind string

const (
	// KindConfig marks a missing or invalid run field (run-level).
	KindConfig ErrorKind = "config"
	// KindNotFound marks a project the registry does not know.
	KindNotFound ErrorKind = "not_found"
	// KindVersionNotFound marks a project with no version matching the
	// requested game version, loader, or exact version number.
	KindVersionNotFound ErrorKind = "version_not_found"
	// KindNoPrimaryFile marks a version whose file list has no primary entry.
	KindNoPrimaryFile ErrorKind = "no_primary_file"
	// KindNetwork marks an exhausted or terminal transport failure.
	KindNetwork ErrorKind = "network"
	// KindIntegrity marks a hash verification that failed after all retries.
	KindIntegrity ErrorKind = "integrity"
	// KindTemplate marks an extra-URL placeholder or filename problem.
	KindTemplate ErrorKind = "template"
	// KindFilesystem marks a target directory that cannot be created (run-level).
	KindFilesystem ErrorKind = "filesystem"
	// KindAborted marks an item cancelled by a hook.
	KindAborted ErrorKind = "aborted"
)

// FetchError carries the failure kind and the target it applies to, so the
// final report can name the item without re-running at higher verbosity.
type FetchError struct {
	Kind   ErrorKind
	Target string
	Err    error
}

func (e *FetchError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Kind, e.Target)
	}
	return fmt.Sprintf("%s: %s: %v", e.Kind, e.Target, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// NewFetchError creates a FetchError with the given kind and target.
func NewFetchError(kind ErrorKind, target string, err error) *FetchError {
	return &FetchError{Kind: kind, Target: target, Err: err}
}

// KindOf returns the ErrorKind carried by err, or KindNetwork when the error
// is not a FetchError (bare transport errors surface from the HTTP stack).
func KindOf(err error) ErrorKind {
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return KindNetwork
}

// IsRunFatal reports whether err must abort the current run instead of being
// recorded as a per-item outcome.
func IsRunFatal(err error) bool {
	kind := KindOf(err)
	return kind == KindConfig || kind == KindFilesystem
}
