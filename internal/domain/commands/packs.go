package commands

import (
	"context"
	"os"
	"path/filepath"

	logger "github.com/sirupsen/logrus"

	"github.com/rios0rios0/modfetch/internal/domain/entities"
)

// packList is one registry-backed pack category and its subdirectory of the
// run directory.
type packList struct {
	requests []entities.ModRequest
	subdir   string
}

// resolvePacks resolves the resource pack and shader pack lists and enqueues
// their downloads. Packs are leaves: their dependency lists are never
// expanded, and a failed pack never stops the remaining entries.
func (it *FetchCommand) resolvePacks(
	ctx context.Context,
	run entities.RunRequest,
	hooks entities.HookChain,
	recorder *entities.SummaryRecorder,
	enqueue func(job downloadJob),
) {
	lists := []packList{
		{requests: run.ResourcePacks, subdir: "resourcepacks"},
		{requests: run.ShaderPacks, subdir: "shaderpacks"},
	}

	for _, list := range lists {
		if len(list.requests) == 0 {
			continue
		}

		targetDir := filepath.Join(run.DownloadDir, list.subdir)
		if err := os.MkdirAll(targetDir, 0o755); err != nil {
			fsErr := entities.NewFetchError(entities.KindFilesystem, targetDir, err)
			for _, request := range list.requests {
				recorder.AddFailure(request.Identifier, fsErr)
			}
			continue
		}

		for _, request := range list.requests {
			if ctx.Err() != nil {
				return
			}
			it.resolvePack(ctx, run, hooks, recorder, request, targetDir, enqueue)
		}
	}
}

func (it *FetchCommand) resolvePack(
	ctx context.Context,
	run entities.RunRequest,
	hooks entities.HookChain,
	recorder *entities.SummaryRecorder,
	request entities.ModRequest,
	targetDir string,
	enqueue func(job downloadJob),
) {
	hookCtx := entities.HookContext{
		Event:       entities.HookBeforeResolve,
		GameVersion: run.GameVersion,
		ModLoader:   run.ModLoader,
		Target:      request.Identifier,
	}
	if hooks.Fire(ctx, hookCtx) == entities.SignalAbortItem {
		recorder.AddFailure(request.Identifier,
			entities.NewFetchError(entities.KindAborted, request.Identifier, nil))
		return
	}

	project, err := it.registry.GetProject(ctx, request.Identifier)
	if err != nil {
		logger.Warnf("Failed to resolve pack %q: %v", request.Identifier, err)
		recorder.AddFailure(request.Identifier, err)
		return
	}

	version, file, err := it.registry.GetCompatibleVersion(
		ctx, project.ID, run.GameVersion, run.ModLoader, request.Version,
	)
	if err != nil {
		logger.Warnf("No usable version for pack %q: %v", project.Slug, err)
		recorder.AddFailure(project.Slug, err)
		return
	}

	recorder.AddResolved()
	logger.Infof("Resolved pack %q to version %s (%s)",
		project.Slug, version.VersionNumber, file.Filename)

	hookCtx.Event = entities.HookAfterResolve
	hookCtx.Target = project.Slug
	hookCtx.URL = file.URL
	if hooks.Fire(ctx, hookCtx) == entities.SignalAbortItem {
		recorder.AddSkip(file.Filename, "aborted by hook after resolution")
		return
	}

	enqueue(downloadJob{
		request: entities.DownloadRequest{
			URL:          file.URL,
			TargetDir:    targetDir,
			Filename:     file.Filename,
			ExpectedSHA1: file.Hashes.SHA1,
			Force:        run.Force,
		},
	})
}
