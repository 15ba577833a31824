//go:build unit

package commands

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rios0rios0/modfetch/internal/domain/entities"
)

func TestExpandTemplate(t *testing.T) {
	t.Parallel()

	t.Run("should substitute both known placeholders", func(t *testing.T) {
		// given
		template := "https://x/{game_version}/{mod_loader}/a.jar"

		// when
		expanded, err := expandTemplate(template, "1.20.1", "fabric")

		// then
		require.NoError(t, err)
		assert.Equal(t, "https://x/1.20.1/fabric/a.jar", expanded)
	})

	t.Run("should leave URLs without placeholders untouched", func(t *testing.T) {
		// when
		expanded, err := expandTemplate("https://x/plain.jar", "1.20.1", "fabric")

		// then
		require.NoError(t, err)
		assert.Equal(t, "https://x/plain.jar", expanded)
	})

	t.Run("should fail on an unknown placeholder", func(t *testing.T) {
		// when
		_, err := expandTemplate("https://x/{unknown}/a.jar", "1.20.1", "fabric")

		// then
		require.Error(t, err)
		assert.Equal(t, entities.KindTemplate, entities.KindOf(err))
		assert.Contains(t, err.Error(), "unknown")
	})
}

func TestDeriveFilename(t *testing.T) {
	t.Parallel()

	t.Run("should take the basename of the URL path", func(t *testing.T) {
		// when
		filename, err := deriveFilename("https://x/1.20.1/fabric/a.jar")

		// then
		require.NoError(t, err)
		assert.Equal(t, "a.jar", filename)
	})

	t.Run("should strip query strings and fragments", func(t *testing.T) {
		// when
		filename, err := deriveFilename("https://x/path/file.jar?token=abc#section")

		// then
		require.NoError(t, err)
		assert.Equal(t, "file.jar", filename)
	})

	t.Run("should fail when the path has no usable basename", func(t *testing.T) {
		// when
		_, err := deriveFilename("https://x/")

		// then
		require.Error(t, err)
		assert.Equal(t, entities.KindTemplate, entities.KindOf(err))
	})
}

func TestExtraTargetDir(t *testing.T) {
	t.Parallel()

	t.Run("should map entry types onto subdirectories", func(t *testing.T) {
		// given
		runDir := filepath.Join("downloads", "1.20.1-fabric")

		// then
		assert.Equal(t, runDir, extraTargetDir(runDir, entities.ExtraTypeFile))
		assert.Equal(t, filepath.Join(runDir, "mods"), extraTargetDir(runDir, entities.ExtraTypeMod))
		assert.Equal(t, filepath.Join(runDir, "resourcepacks"), extraTargetDir(runDir, entities.ExtraTypeResourcePack))
		assert.Equal(t, filepath.Join(runDir, "shaderpacks"), extraTargetDir(runDir, entities.ExtraTypeShaderPack))
	})
}
