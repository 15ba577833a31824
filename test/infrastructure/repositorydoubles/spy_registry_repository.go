//go:build integration || unit || test

// Package repositorydoubles provides test doubles (spies, stubs, dummies) for
// repository interfaces. These are hand-crafted implementations, no mock frameworks.
package repositorydoubles //nolint:revive,staticcheck // Test package naming follows established project structure

import (
	"context"
	"fmt"
	"sync"

	"github.com/rios0rios0/modfetch/internal/domain/entities"
	"github.com/rios0rios0/modfetch/internal/domain/repositories"
)

// SpyRegistryRepository implements repositories.RegistryRepository as a
// configurable in-memory registry that records every lookup.
type SpyRegistryRepository struct {
	mu sync.Mutex

	// Projects is keyed by any identifier a caller may use (slug and id).
	Projects map[string]*entities.Project
	// Versions and Files are keyed by project id.
	Versions map[string]*entities.Version
	Files    map[string]*entities.File

	// VersionErrs forces GetCompatibleVersion to fail for a project id.
	VersionErrs map[string]error

	// --- recorded calls ---
	ProjectCalls []string
	VersionCalls []string
}

var _ repositories.RegistryRepository = (*SpyRegistryRepository)(nil)

func (r *SpyRegistryRepository) GetProject(
	_ context.Context, identifier string,
) (*entities.Project, error) {
	r.mu.Lock()
	r.ProjectCalls = append(r.ProjectCalls, identifier)
	r.mu.Unlock()

	if project, ok := r.Projects[identifier]; ok {
		return project, nil
	}
	return nil, entities.NewFetchError(entities.KindNotFound, identifier,
		fmt.Errorf("project %q not found in registry", identifier))
}

func (r *SpyRegistryRepository) GetCompatibleVersion(
	_ context.Context, projectID, _, _, exactVersion string,
) (*entities.Version, *entities.File, error) {
	r.mu.Lock()
	r.VersionCalls = append(r.VersionCalls, projectID)
	r.mu.Unlock()

	if err, ok := r.VersionErrs[projectID]; ok {
		return nil, nil, err
	}

	version, ok := r.Versions[projectID]
	if !ok {
		return nil, nil, entities.NewFetchError(entities.KindVersionNotFound, projectID,
			fmt.Errorf("no versions for project %q", projectID))
	}
	if exactVersion != "" && exactVersion != version.VersionNumber {
		return nil, nil, entities.NewFetchError(entities.KindVersionNotFound, projectID,
			fmt.Errorf("version %q not found", exactVersion))
	}

	file, ok := r.Files[projectID]
	if !ok {
		return nil, nil, entities.NewFetchError(entities.KindNoPrimaryFile, projectID,
			fmt.Errorf("version %q has no primary file", version.VersionNumber))
	}
	return version, file, nil
}
