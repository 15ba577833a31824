//go:build unit

package entities_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rios0rios0/modfetch/internal/domain/entities"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "modfetch.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestNewSettings(t *testing.T) {
	t.Parallel()

	t.Run("should parse string and mapping forms of mods and extras", func(t *testing.T) {
		// given
		path := writeConfig(t, `
game_versions: ["1.20.1", "1.21"]
mod_loader: fabric
download_dir: downloads
mods:
  - sodium
  - slug: lithium
    version: "0.12.1"
resource_packs:
  - faithful
shader_packs:
  - slug: complementary
    version: "4.7.2"
extra_urls:
  - https://cdn.example/{game_version}/pack.zip
  - url: https://cdn.example/shaders.zip
    filename: shaders.zip
    type: shaderpack
    sha1: da39a3ee5e6b4b0d3255bfef95601890afd80709
`)

		// when
		settings, err := entities.NewSettings(path)

		// then
		require.NoError(t, err)
		assert.Equal(t, []string{"1.20.1", "1.21"}, settings.GameVersions)
		require.Len(t, settings.Mods, 2)
		assert.Equal(t, "sodium", settings.Mods[0].Identifier)
		assert.Empty(t, settings.Mods[0].Version)
		assert.Equal(t, "lithium", settings.Mods[1].Identifier)
		assert.Equal(t, "0.12.1", settings.Mods[1].Version)
		require.Len(t, settings.ResourcePacks, 1)
		assert.Equal(t, "faithful", settings.ResourcePacks[0].Identifier)
		require.Len(t, settings.ShaderPacks, 1)
		assert.Equal(t, "complementary", settings.ShaderPacks[0].Identifier)
		assert.Equal(t, "4.7.2", settings.ShaderPacks[0].Version)
		require.Len(t, settings.ExtraURLs, 2)
		assert.Equal(t, entities.ExtraTypeFile, settings.ExtraURLs[0].Type)
		assert.Equal(t, entities.ExtraTypeShaderPack, settings.ExtraURLs[1].Type)
		assert.Equal(t, "shaders.zip", settings.ExtraURLs[1].Filename)
	})

	t.Run("should default max_concurrent when unset or negative", func(t *testing.T) {
		// given
		path := writeConfig(t, `
game_versions: ["1.20.1"]
mod_loader: fabric
download_dir: downloads
max_concurrent: -3
mods: [sodium]
`)

		// when
		settings, err := entities.NewSettings(path)

		// then
		require.NoError(t, err)
		assert.Equal(t, 5, settings.MaxConcurrent)
	})

	t.Run("should keep an explicit max_concurrent", func(t *testing.T) {
		// given
		path := writeConfig(t, `
game_versions: ["1.20.1"]
mod_loader: fabric
download_dir: downloads
max_concurrent: 2
mods: [sodium]
`)

		// when
		settings, err := entities.NewSettings(path)

		// then
		require.NoError(t, err)
		assert.Equal(t, 2, settings.MaxConcurrent)
	})

	t.Run("should fail on a missing file", func(t *testing.T) {
		// when
		_, err := entities.NewSettings(filepath.Join(t.TempDir(), "nope.yaml"))

		// then
		require.Error(t, err)
	})

	t.Run("should fail on invalid yaml", func(t *testing.T) {
		// given
		path := writeConfig(t, "game_versions: [unterminated")

		// when
		_, err := entities.NewSettings(path)

		// then
		require.Error(t, err)
		assert.Equal(t, entities.KindConfig, entities.KindOf(err))
	})

	t.Run("should reject an unsupported loader", func(t *testing.T) {
		// given
		path := writeConfig(t, `
game_versions: ["1.20.1"]
mod_loader: bukkit
download_dir: downloads
mods: [sodium]
`)

		// when
		_, err := entities.NewSettings(path)

		// then
		require.Error(t, err)
		assert.Equal(t, entities.KindConfig, entities.KindOf(err))
		assert.Contains(t, err.Error(), "bukkit")
	})

	t.Run("should reject an unknown extra URL type", func(t *testing.T) {
		// given
		path := writeConfig(t, `
game_versions: ["1.20.1"]
mod_loader: fabric
download_dir: downloads
mods: [sodium]
extra_urls:
  - url: https://cdn.example/pack.zip
    type: datapack
`)

		// when
		_, err := entities.NewSettings(path)

		// then
		require.Error(t, err)
		assert.Equal(t, entities.KindConfig, entities.KindOf(err))
		assert.Contains(t, err.Error(), "datapack")
	})

	t.Run("should require game versions, loader, download dir and mods", func(t *testing.T) {
		configs := map[string]string{
			"game_versions": `
mod_loader: fabric
download_dir: downloads
mods: [sodium]
`,
			"mod_loader": `
game_versions: ["1.20.1"]
download_dir: downloads
mods: [sodium]
`,
			"download_dir": `
game_versions: ["1.20.1"]
mod_loader: fabric
mods: [sodium]
`,
			"mods": `
game_versions: ["1.20.1"]
mod_loader: fabric
download_dir: downloads
`,
		}

		for field, content := range configs {
			t.Run(field, func(t *testing.T) {
				// when
				_, err := entities.NewSettings(writeConfig(t, content))

				// then
				require.Error(t, err)
				assert.Equal(t, entities.KindConfig, entities.KindOf(err))
				assert.Contains(t, err.Error(), field)
			})
		}
	})
}

func TestNewSettingsEnvExpansion(t *testing.T) {
	t.Run("should expand ${VAR} references in extra URLs", func(t *testing.T) {
		// given
		t.Setenv("CDN_TOKEN", "secret123")
		path := writeConfig(t, `
game_versions: ["1.20.1"]
mod_loader: fabric
download_dir: downloads
mods: [sodium]
extra_urls:
  - https://cdn.example/pack.zip?token=${CDN_TOKEN}
`)

		// when
		settings, err := entities.NewSettings(path)

		// then
		require.NoError(t, err)
		require.Len(t, settings.ExtraURLs, 1)
		assert.Equal(t, "https://cdn.example/pack.zip?token=secret123", settings.ExtraURLs[0].URL)
	})

	t.Run("should leave unset references untouched", func(t *testing.T) {
		// given
		path := writeConfig(t, `
game_versions: ["1.20.1"]
mod_loader: fabric
download_dir: downloads
mods: [sodium]
extra_urls:
  - https://cdn.example/pack.zip?token=${UNSET_TOKEN_VAR}
`)

		// when
		settings, err := entities.NewSettings(path)

		// then
		require.NoError(t, err)
		assert.Contains(t, settings.ExtraURLs[0].URL, "${UNSET_TOKEN_VAR}")
	})
}

func TestSettingsRunFor(t *testing.T) {
	t.Parallel()

	t.Run("should scope the download directory per version and loader", func(t *testing.T) {
		// given
		settings := &entities.Settings{
			GameVersions:  []string{"1.20.1", "1.21"},
			ModLoader:     "fabric",
			DownloadDir:   "downloads",
			Mods:          []entities.ModRequest{{Identifier: "sodium"}},
			ResourcePacks: []entities.ModRequest{{Identifier: "faithful"}},
			Force:         true,
		}

		// when
		run := settings.RunFor("1.21")

		// then
		assert.Equal(t, "1.21", run.GameVersion)
		assert.Equal(t, "fabric", run.ModLoader)
		assert.Equal(t, filepath.Join("downloads", "1.21-fabric"), run.DownloadDir)
		assert.True(t, run.Force)
		assert.Equal(t, settings.Mods, run.Mods)
		assert.Equal(t, settings.ResourcePacks, run.ResourcePacks)
	})
}

func TestRunRequestValidate(t *testing.T) {
	t.Parallel()

	t.Run("should accept a complete request", func(t *testing.T) {
		// given
		run := &entities.RunRequest{
			GameVersion: "1.20.1",
			ModLoader:   "fabric",
			DownloadDir: "downloads/1.20.1-fabric",
		}

		// then
		assert.NoError(t, run.Validate())
	})

	t.Run("should reject missing fields", func(t *testing.T) {
		// given
		runs := []entities.RunRequest{
			{ModLoader: "fabric", DownloadDir: "d"},
			{GameVersion: "1.20.1", DownloadDir: "d"},
			{GameVersion: "1.20.1", ModLoader: "fabric"},
		}

		for _, run := range runs {
			// when
			err := run.Validate()

			// then
			require.Error(t, err)
			assert.Equal(t, entities.KindConfig, entities.KindOf(err))
		}
	})
}
