package controllers

import (
	"context"

	logger "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/rios0rios0/modfetch/internal/domain/commands"
	"github.com/rios0rios0/modfetch/internal/domain/entities"
	infraRepos "github.com/rios0rios0/modfetch/internal/infrastructure/repositories/session"
)

// FetchController handles the "fetch" subcommand. It owns the shared HTTP
// session for the duration of its runs and closes it when they finish.
type FetchController struct {
	command commands.Fetch
	session *infraRepos.Session
}

// NewFetchController creates a new FetchController.
func NewFetchController(command commands.Fetch, session *infraRepos.Session) *FetchController {
	return &FetchController{command: command, session: session}
}

// GetBind returns the Cobra command metadata for the fetch controller.
func (it *FetchController) GetBind() entities.ControllerBind {
	return entities.ControllerBind{
		Use:   "fetch",
		Short: "Resolve and download the configured mods",
		Long: `Resolve every configured mod against the registry for each
configured game version, expand required dependencies, and download
the resulting files with integrity verification.

Each game version is an independent run with its own target directory;
a failed run never affects its siblings.`,
	}
}

// Execute runs one fetch per configured game version.
func (it *FetchController) Execute(cmd *cobra.Command, _ []string) {
	ctx := context.Background()
	defer it.session.Close()

	configPath, _ := cmd.Flags().GetString("config")
	verbose, _ := cmd.Flags().GetBool("verbose")
	force, _ := cmd.Flags().GetBool("force")

	if verbose {
		logger.SetLevel(logger.DebugLevel)
	}

	cfgPath := configPath
	if cfgPath == "" {
		var err error
		cfgPath, err = entities.FindConfigFile()
		if err != nil {
			logger.Errorf(
				"no config file found: %v\nSpecify one with --config or create modfetch.yaml",
				err,
			)
			return
		}
	}

	logger.Infof("Using config file: %s", cfgPath)

	settings, err := entities.NewSettings(cfgPath)
	if err != nil {
		logger.Errorf("failed to load config: %v", err)
		return
	}
	if force {
		settings.Force = true
	}

	// Run-level failures abort that run only; the remaining game versions
	// still get their turn.
	for _, gameVersion := range settings.GameVersions {
		run := settings.RunFor(gameVersion)
		logger.Infof("Starting run for %s (%s) into %s",
			run.GameVersion, run.ModLoader, run.DownloadDir)

		summary, runErr := it.command.Execute(ctx, run, commands.FetchOptions{
			MaxConcurrent: settings.MaxConcurrent,
		})
		if runErr != nil {
			logger.Errorf("Run for %s failed: %v", gameVersion, runErr)
			continue
		}

		logger.Infof("Summary for %s: %d resolved, %d downloaded, %d skipped, %d failed",
			gameVersion, summary.ResolvedCount, summary.DownloadedCount,
			summary.SkippedCount, summary.FailedCount)
		for _, failure := range summary.Failures {
			logger.Warnf("  failed: %s (%s)", failure.Target, failure.Reason)
		}
	}
}

// AddFlags adds the fetch-specific flags to the given Cobra command.
func (it *FetchController) AddFlags(cmd *cobra.Command) {
	cmd.Flags().Bool("force", false, "Redownload files even when they already exist")
}
