package repositories

import (
	"context"

	"github.com/rios0rios0/modfetch/internal/domain/entities"
)

// RegistryRepository abstracts typed access to the remote package registry.
// Implementations cache project records and retry transient failures; lookup
// misses surface as entities.FetchError values.
type RegistryRepository interface {
	// GetProject resolves a project by slug or id.
	GetProject(ctx context.Context, identifier string) (*entities.Project, error)

	// GetCompatibleVersion selects the version of a project compatible with
	// the given game version and loader, and its primary file. When
	// exactVersion is empty the most recently published match wins.
	GetCompatibleVersion(
		ctx context.Context,
		projectID, gameVersion, loader, exactVersion string,
	) (*entities.Version, *entities.File, error)
}
