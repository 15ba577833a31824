package commands

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"

	logger "github.com/sirupsen/logrus"

	"github.com/rios0rios0/modfetch/internal/domain/entities"
)

// placeholderPattern matches {name} tokens in extra URL templates.
var placeholderPattern = regexp.MustCompile(`\{([^{}]*)}`)

// expandTemplate substitutes {game_version} and {mod_loader} into an extra
// URL template. Any other placeholder is an error.
func expandTemplate(template, gameVersion, modLoader string) (string, error) {
	var unknown []string
	expanded := placeholderPattern.ReplaceAllStringFunc(template, func(match string) string {
		name := placeholderPattern.FindStringSubmatch(match)[1]
		switch name {
		case "game_version":
			return gameVersion
		case "mod_loader":
			return modLoader
		default:
			unknown = append(unknown, name)
			return match
		}
	})
	if len(unknown) > 0 {
		return "", entities.NewFetchError(entities.KindTemplate, template,
			fmt.Errorf("unknown placeholder %q", unknown[0]))
	}
	return expanded, nil
}

// deriveFilename takes the basename of the URL path, with any query string
// or fragment already stripped by parsing. A URL whose path has no usable
// basename is an error.
func deriveFilename(rawURL string) (string, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return "", entities.NewFetchError(entities.KindTemplate, rawURL,
			fmt.Errorf("invalid URL: %w", err))
	}
	base := path.Base(parsed.Path)
	if base == "" || base == "." || base == "/" {
		return "", entities.NewFetchError(entities.KindTemplate, rawURL,
			errors.New("URL path has no usable filename"))
	}
	return base, nil
}

// extraTargetDir maps an extra entry type onto its subdirectory of the run
// directory.
func extraTargetDir(runDir, extraType string) string {
	switch extraType {
	case entities.ExtraTypeMod:
		return filepath.Join(runDir, "mods")
	case entities.ExtraTypeResourcePack:
		return filepath.Join(runDir, "resourcepacks")
	case entities.ExtraTypeShaderPack:
		return filepath.Join(runDir, "shaderpacks")
	default:
		return runDir
	}
}

// processExtras resolves every extra URL entry and enqueues its download.
// Per-item errors are recorded and processing continues with the next entry.
func (it *FetchCommand) processExtras(
	ctx context.Context,
	run entities.RunRequest,
	opts FetchOptions,
	recorder *entities.SummaryRecorder,
	enqueue func(job downloadJob),
) {
	for _, entry := range run.ExtraURLs {
		if ctx.Err() != nil {
			return
		}
		if entry.OnlyVersion != "" && entry.OnlyVersion != run.GameVersion {
			logger.Debugf("Extra URL %q restricted to version %s, skipping", entry.URL, entry.OnlyVersion)
			continue
		}

		expanded, err := expandTemplate(entry.URL, run.GameVersion, run.ModLoader)
		if err != nil {
			logger.Warnf("Bad extra URL template %q: %v", entry.URL, err)
			recorder.AddFailure(entry.URL, err)
			continue
		}

		filename := entry.Filename
		if filename == "" {
			filename, err = deriveFilename(expanded)
			if err != nil {
				logger.Warnf("Cannot derive filename for %q: %v", expanded, err)
				recorder.AddFailure(expanded, err)
				continue
			}
		}
		filename = strings.TrimSpace(filename)

		targetDir := extraTargetDir(run.DownloadDir, entry.Type)
		if mkdirErr := os.MkdirAll(targetDir, 0o755); mkdirErr != nil {
			recorder.AddFailure(filename,
				entities.NewFetchError(entities.KindFilesystem, targetDir, mkdirErr))
			continue
		}

		// Extra files have no registry-verified hash; a caller-supplied one
		// is enforced unless verification is switched off for extras.
		expectedSHA1 := entry.SHA1
		if opts.SkipExtraVerification {
			expectedSHA1 = ""
		}

		logger.Infof("Queued extra file %q from %s", filename, expanded)
		enqueue(downloadJob{
			request: entities.DownloadRequest{
				URL:          expanded,
				TargetDir:    targetDir,
				Filename:     filename,
				ExpectedSHA1: expectedSHA1,
				Force:        run.Force,
			},
		})
	}
}
