package modrinth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	retryablehttp "github.com/hashicorp/go-retryablehttp"
	lru "github.com/hashicorp/golang-lru/v2"
	logger "github.com/sirupsen/logrus"

	"github.com/rios0rios0/modfetch/internal/domain/entities"
	domainRepos "github.com/rios0rios0/modfetch/internal/domain/repositories"
	infraRepos "github.com/rios0rios0/modfetch/internal/infrastructure/repositories/session"
)

const (
	// DefaultBaseURL is the public Modrinth v2 API.
	DefaultBaseURL = "https://api.modrinth.com/v2"

	// DefaultCacheSize bounds the project record cache. Each record is
	// cached under both its id and its slug, so the effective capacity in
	// projects is half of this.
	DefaultCacheSize = 256
)

// RegistryRepository implements domainRepos.RegistryRepository against the
// Modrinth HTTP API. Project lookups are cached; transient failures are
// retried by the shared session.
type RegistryRepository struct {
	baseURL string
	session *infraRepos.Session
	cache   *lru.Cache[string, *entities.Project]
}

var _ domainRepos.RegistryRepository = (*RegistryRepository)(nil)

// NewRegistryRepository creates a client with a fresh bounded cache.
func NewRegistryRepository(session *infraRepos.Session, baseURL string) *RegistryRepository {
	cache, err := lru.New[string, *entities.Project](DefaultCacheSize)
	if err != nil {
		panic(err) // only fails on a non-positive size
	}
	return NewRegistryRepositoryWithCache(session, baseURL, cache)
}

// NewRegistryRepositoryWithCache creates a client around an injected cache,
// so callers can pick the capacity or observe eviction in tests.
func NewRegistryRepositoryWithCache(
	session *infraRepos.Session,
	baseURL string,
	cache *lru.Cache[string, *entities.Project],
) *RegistryRepository {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &RegistryRepository{
		baseURL: baseURL,
		session: session,
		cache:   cache,
	}
}

// GetProject resolves a project by slug or id, consulting the cache first.
// A successful lookup populates the cache under both keys so shared
// dependencies referenced by id hit the cache even when requested by slug.
func (r *RegistryRepository) GetProject(
	ctx context.Context,
	identifier string,
) (*entities.Project, error) {
	if project, ok := r.cache.Get(identifier); ok {
		logger.Debugf("Cache hit for project %q", identifier)
		return project, nil
	}

	body, status, err := r.get(ctx, "/project/"+url.PathEscape(identifier), nil)
	if err != nil {
		return nil, entities.NewFetchError(entities.KindNetwork, identifier, err)
	}
	if status == http.StatusNotFound {
		return nil, entities.NewFetchError(entities.KindNotFound, identifier,
			fmt.Errorf("project %q not found in registry", identifier))
	}
	if status != http.StatusOK {
		return nil, entities.NewFetchError(entities.KindNetwork, identifier,
			fmt.Errorf("registry returned status %d", status))
	}

	var project entities.Project
	if unmarshalErr := json.Unmarshal(body, &project); unmarshalErr != nil {
		return nil, entities.NewFetchError(entities.KindNetwork, identifier,
			fmt.Errorf("failed to decode project record: %w", unmarshalErr))
	}

	r.cache.Add(project.ID, &project)
	if project.Slug != "" {
		r.cache.Add(project.Slug, &project)
	}
	return &project, nil
}

// GetCompatibleVersion lists the versions of a project filtered by game
// version and loader, then selects one: the exact version number when given,
// otherwise the most recently published match. The selected version's
// primary file is returned alongside it.
func (r *RegistryRepository) GetCompatibleVersion(
	ctx context.Context,
	projectID, gameVersion, loader, exactVersion string,
) (*entities.Version, *entities.File, error) {
	params := url.Values{}
	params.Set("game_versions", fmt.Sprintf("[%q]", gameVersion))
	params.Set("loaders", fmt.Sprintf("[%q]", loader))

	body, status, err := r.get(ctx, "/project/"+url.PathEscape(projectID)+"/version", params)
	if err != nil {
		return nil, nil, entities.NewFetchError(entities.KindNetwork, projectID, err)
	}
	if status == http.StatusNotFound {
		return nil, nil, entities.NewFetchError(entities.KindVersionNotFound, projectID,
			fmt.Errorf("no versions for project %q", projectID))
	}
	if status != http.StatusOK {
		return nil, nil, entities.NewFetchError(entities.KindNetwork, projectID,
			fmt.Errorf("registry returned status %d", status))
	}

	var versions []entities.Version
	if unmarshalErr := json.Unmarshal(body, &versions); unmarshalErr != nil {
		return nil, nil, entities.NewFetchError(entities.KindNetwork, projectID,
			fmt.Errorf("failed to decode version list: %w", unmarshalErr))
	}

	selected := selectVersion(versions, exactVersion)
	if selected == nil {
		detail := fmt.Errorf("no version of %q matches game version %q and loader %q",
			projectID, gameVersion, loader)
		if exactVersion != "" {
			detail = fmt.Errorf("version %q of %q not found for game version %q and loader %q",
				exactVersion, projectID, gameVersion, loader)
		}
		return nil, nil, entities.NewFetchError(entities.KindVersionNotFound, projectID, detail)
	}

	file := selected.PrimaryFile()
	if file == nil {
		return nil, nil, entities.NewFetchError(entities.KindNoPrimaryFile, projectID,
			fmt.Errorf("version %q of %q has no primary file", selected.VersionNumber, projectID))
	}

	return selected, file, nil
}

// selectVersion picks the exact version number when requested, otherwise the
// most recently published entry. Returns nil when nothing matches.
func selectVersion(versions []entities.Version, exactVersion string) *entities.Version {
	if exactVersion != "" {
		for i := range versions {
			if versions[i].VersionNumber == exactVersion {
				return &versions[i]
			}
		}
		return nil
	}

	var newest *entities.Version
	for i := range versions {
		if newest == nil || versions[i].DatePublished.After(newest.DatePublished) {
			newest = &versions[i]
		}
	}
	return newest
}

// get performs one retried GET against the registry. The outer deadline is
// sized to the session's full retry budget; each individual attempt is
// bounded by the transport's header timeout. 404 is returned to the caller
// for classification; other outcomes are the response body and status.
func (r *RegistryRepository) get(
	ctx context.Context,
	path string,
	params url.Values,
) ([]byte, int, error) {
	callCtx, cancel := context.WithTimeout(ctx, r.session.CallTimeout())
	defer cancel()

	endpoint := r.baseURL + path
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}

	request, err := retryablehttp.NewRequestWithContext(callCtx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build registry request: %w", err)
	}

	response, err := r.session.Do(request)
	if err != nil {
		return nil, 0, fmt.Errorf("registry request failed: %w", err)
	}
	defer func() { _ = response.Body.Close() }()

	body, err := io.ReadAll(response.Body)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to read registry response: %w", err)
	}

	return body, response.StatusCode, nil
}
