package commands

import (
	"context"

	logger "github.com/sirupsen/logrus"

	"github.com/rios0rios0/modfetch/internal/domain/entities"
)

// resolutionState is the explicit traversal state for one run: a processed
// set, a FIFO pending queue and the set of identifiers already queued. The
// dedup check fires before any re-enqueue, which is what makes cyclic
// dependency graphs terminate.
type resolutionState struct {
	processed map[string]struct{}
	queued    map[string]struct{}
	pending   []entities.ModRequest
}

func newResolutionState(seed []entities.ModRequest) *resolutionState {
	state := &resolutionState{
		processed: make(map[string]struct{}),
		queued:    make(map[string]struct{}),
	}
	for _, request := range seed {
		state.pending = append(state.pending, request)
		state.queued[request.Identifier] = struct{}{}
	}
	return state
}

// next dequeues the oldest pending request. FIFO order gives breadth-first,
// shallowest-depth-first resolution and a deterministic traversal.
func (s *resolutionState) next() (entities.ModRequest, bool) {
	if len(s.pending) == 0 {
		return entities.ModRequest{}, false
	}
	request := s.pending[0]
	s.pending = s.pending[1:]
	return request, true
}

func (s *resolutionState) isProcessed(projectID string) bool {
	_, ok := s.processed[projectID]
	return ok
}

func (s *resolutionState) markProcessed(projectID string) {
	s.processed[projectID] = struct{}{}
}

// enqueueDependency queues a bare request for a required dependency unless
// the project is already processed or already waiting in the queue.
func (s *resolutionState) enqueueDependency(projectID string) bool {
	if _, ok := s.processed[projectID]; ok {
		return false
	}
	if _, ok := s.queued[projectID]; ok {
		return false
	}
	s.queued[projectID] = struct{}{}
	s.pending = append(s.pending, entities.ModRequest{Identifier: projectID})
	return true
}

// resolveAll drains the queue, resolving each request and emitting the
// chosen file for download. Resolution failures are recorded and never stop
// the queue.
func (it *FetchCommand) resolveAll(
	ctx context.Context,
	run entities.RunRequest,
	hooks entities.HookChain,
	recorder *entities.SummaryRecorder,
	emit func(item entities.ResolvedItem),
) {
	state := newResolutionState(run.Mods)

	for {
		if ctx.Err() != nil {
			return
		}
		request, ok := state.next()
		if !ok {
			return
		}
		it.resolveOne(ctx, run, hooks, recorder, state, request, emit)
	}
}

func (it *FetchCommand) resolveOne(
	ctx context.Context,
	run entities.RunRequest,
	hooks entities.HookChain,
	recorder *entities.SummaryRecorder,
	state *resolutionState,
	request entities.ModRequest,
	emit func(item entities.ResolvedItem),
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
		logger.Warnf("Failed to resolve project %q: %v", request.Identifier, err)
		recorder.AddFailure(request.Identifier, err)
		return
	}

	if state.isProcessed(project.ID) && !run.Force {
		logger.Debugf("Project %q already processed, skipping", project.Slug)
		recorder.AddSkip(project.Slug, "already processed in this run")
		return
	}

	logger.Infof("Resolving %q (id %s)", project.Slug, project.ID)

	version, file, err := it.registry.GetCompatibleVersion(
		ctx, project.ID, run.GameVersion, run.ModLoader, request.Version,
	)
	if err != nil {
		// Nothing beneath a failed node is reached: its dependencies stay
		// unqueued.
		logger.Warnf("No usable version for %q: %v", project.Slug, err)
		recorder.AddFailure(project.Slug, err)
		return
	}

	state.markProcessed(project.ID)
	recorder.AddResolved()
	logger.Infof("Resolved %q to version %s (%s)", project.Slug, version.VersionNumber, file.Filename)

	for _, dependency := range version.Dependencies {
		if dependency.DependencyType != entities.DependencyRequired || dependency.ProjectID == "" {
			continue
		}
		if state.enqueueDependency(dependency.ProjectID) {
			logger.Infof("Queued required dependency %q of %q", dependency.ProjectID, project.Slug)
		}
	}

	hookCtx.Event = entities.HookAfterResolve
	hookCtx.Target = project.Slug
	hookCtx.URL = file.URL
	if hooks.Fire(ctx, hookCtx) == entities.SignalAbortItem {
		recorder.AddSkip(file.Filename, "aborted by hook after resolution")
		return
	}

	emit(entities.ResolvedItem{
		ProjectID:     project.ID,
		Slug:          project.Slug,
		VersionNumber: version.VersionNumber,
		File:          *file,
	})
}
