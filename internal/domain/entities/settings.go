package entities

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	logger "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

const defaultMaxConcurrent = 5

// envVarPattern matches ${VAR_NAME} placeholders in extra URLs.
var envVarPattern = regexp.MustCompile(`\$\{([^}]+)}`)

// supportedLoaders are the mod-loading runtimes the registry indexes.
var supportedLoaders = map[string]bool{
	"fabric":   true,
	"forge":    true,
	"quilt":    true,
	"neoforge": true,
}

// Settings is the top-level configuration for modfetch. One settings file
// describes runs for one or more game versions against the same registry.
type Settings struct {
	GameVersions  []string         `yaml:"game_versions"`
	ModLoader     string           `yaml:"mod_loader"`
	Mods          []ModRequest     `yaml:"mods"`
	ResourcePacks []ModRequest     `yaml:"resource_packs"`
	ShaderPacks   []ModRequest     `yaml:"shader_packs"`
	ExtraURLs     []ExtraFileEntry `yaml:"extra_urls"`
	DownloadDir   string           `yaml:"download_dir"`
	MaxConcurrent int              `yaml:"max_concurrent"`
	Force         bool             `yaml:"force"`
}

// RunRequest is the normalized input for a single run: one game version, one
// loader, one target directory.
type RunRequest struct {
	GameVersion   string
	ModLoader     string
	Mods          []ModRequest
	ResourcePacks []ModRequest
	ShaderPacks   []ModRequest
	ExtraURLs     []ExtraFileEntry
	DownloadDir   string
	Force         bool
}

// NewSettings reads and parses a configuration file.
func NewSettings(path string) (*Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %q: %w", path, err)
	}

	var settings Settings
	if unmarshalErr := yaml.Unmarshal(data, &settings); unmarshalErr != nil {
		return nil, NewFetchError(KindConfig, path, unmarshalErr)
	}

	if settings.MaxConcurrent <= 0 {
		if settings.MaxConcurrent < 0 {
			logger.Warnf("Invalid max_concurrent %d, using default %d",
				settings.MaxConcurrent, defaultMaxConcurrent)
		}
		settings.MaxConcurrent = defaultMaxConcurrent
	}

	// Extra URLs may carry credentials as ${VAR} references so tokens never
	// live in the config file itself.
	for i := range settings.ExtraURLs {
		settings.ExtraURLs[i].URL = expandEnvVars(settings.ExtraURLs[i].URL)
	}

	if validateErr := settings.validate(); validateErr != nil {
		return nil, validateErr
	}

	return &settings, nil
}

// expandEnvVars replaces ${VAR} references with the environment value,
// leaving unset references untouched.
func expandEnvVars(raw string) string {
	return envVarPattern.ReplaceAllStringFunc(raw, func(match string) string {
		name := envVarPattern.FindStringSubmatch(match)[1]
		if value := os.Getenv(name); value != "" {
			return value
		}
		return match
	})
}

// FindConfigFile searches for a configuration file in standard locations.
// Returns the path to the first file found or an error if none is found.
func FindConfigFile() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		homeDir = ""
	}

	locations := []string{
		".",
		".config",
		"configs",
	}
	if homeDir != "" {
		locations = append(
			locations,
			homeDir,
			filepath.Join(homeDir, ".config"),
		)
	}

	patterns := []string{
		".modfetch.yaml",
		".modfetch.yml",
		"modfetch.yaml",
		"modfetch.yml",
	}

	for _, loc := range locations {
		for _, pat := range patterns {
			p := filepath.Join(loc, pat)
			if _, statErr := os.Stat(p); statErr == nil {
				return p, nil
			}
		}
	}

	return "", errors.New("config file not found in default locations")
}

// RunFor builds the normalized run request for one game version. The target
// directory is scoped per version and loader so runs never collide.
func (s *Settings) RunFor(gameVersion string) RunRequest {
	return RunRequest{
		GameVersion:   gameVersion,
		ModLoader:     s.ModLoader,
		Mods:          s.Mods,
		ResourcePacks: s.ResourcePacks,
		ShaderPacks:   s.ShaderPacks,
		ExtraURLs:     s.ExtraURLs,
		DownloadDir:   filepath.Join(s.DownloadDir, gameVersion+"-"+s.ModLoader),
		Force:         s.Force,
	}
}

func (s *Settings) validate() error {
	if len(s.GameVersions) == 0 {
		return NewFetchError(KindConfig, "game_versions",
			errors.New("at least one game version is required"))
	}
	if s.ModLoader == "" {
		return NewFetchError(KindConfig, "mod_loader",
			errors.New("mod_loader is required"))
	}
	if !supportedLoaders[s.ModLoader] {
		return NewFetchError(KindConfig, "mod_loader",
			fmt.Errorf("unsupported loader %q (use fabric, forge, quilt or neoforge)", s.ModLoader))
	}
	if s.DownloadDir == "" {
		return NewFetchError(KindConfig, "download_dir",
			errors.New("download_dir is required"))
	}
	if len(s.Mods) == 0 {
		return NewFetchError(KindConfig, "mods",
			errors.New("at least one mod is required"))
	}
	for i, extra := range s.ExtraURLs {
		if !KnownExtraType(extra.Type) {
			return NewFetchError(KindConfig, fmt.Sprintf("extra_urls[%d]", i),
				fmt.Errorf("unknown extra URL type %q", extra.Type))
		}
	}
	return nil
}

// Validate checks the required fields of a single run request.
func (r *RunRequest) Validate() error {
	if r.GameVersion == "" {
		return NewFetchError(KindConfig, "game_version",
			errors.New("game version is required"))
	}
	if r.ModLoader == "" {
		return NewFetchError(KindConfig, "mod_loader",
			errors.New("mod loader is required"))
	}
	if r.DownloadDir == "" {
		return NewFetchError(KindConfig, "download_dir",
			errors.New("download directory is required"))
	}
	return nil
}
