package repositories

import (
	"os"

	"go.uber.org/dig"

	domainRepos "github.com/rios0rios0/modfetch/internal/domain/repositories"
	"github.com/rios0rios0/modfetch/internal/infrastructure/repositories/download"
	"github.com/rios0rios0/modfetch/internal/infrastructure/repositories/modrinth"
	"github.com/rios0rios0/modfetch/internal/infrastructure/repositories/session"
)

// RegisterProviders registers all repository providers with the DIG container.
func RegisterProviders(container *dig.Container) error {
	if err := container.Provide(session.NewDefaultSession); err != nil {
		return err
	}

	if err := container.Provide(func(session *session.Session) domainRepos.RegistryRepository {
		return modrinth.NewRegistryRepository(session, os.Getenv("MODFETCH_REGISTRY_URL"))
	}); err != nil {
		return err
	}

	if err := container.Provide(func(session *session.Session) domainRepos.DownloadRepository {
		return download.NewHTTPDownloadRepository(session)
	}); err != nil {
		return err
	}

	return nil
}
