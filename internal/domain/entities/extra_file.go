package entities

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// Extra file types decide which subdirectory of the run directory the file
// lands in.
const (
	ExtraTypeFile         = "file"
	ExtraTypeMod          = "mod"
	ExtraTypeResourcePack = "resourcepack"
	ExtraTypeShaderPack   = "shaderpack"
)

// ExtraFileEntry is an out-of-registry download. The URL may contain
// {game_version} and {mod_loader} placeholders, substituted per run.
type ExtraFileEntry struct {
	URL         string `yaml:"-"`
	Filename    string `yaml:"-"` // optional override, otherwise derived from the URL path
	SHA1        string `yaml:"-"` // optional caller-supplied digest
	Type        string `yaml:"-"` // file, mod, resourcepack, shaderpack
	OnlyVersion string `yaml:"-"` // restricts the entry to one game version
}

// extraFileDoc is the mapping form accepted in configuration files.
type extraFileDoc struct {
	URL         string `yaml:"url"`
	Filename    string `yaml:"filename"`
	SHA1        string `yaml:"sha1"`
	Type        string `yaml:"type"`
	OnlyVersion string `yaml:"only_version"`
}

// UnmarshalYAML accepts either a plain URL string or a mapping with url,
// filename, sha1, type and only_version keys.
func (e *ExtraFileEntry) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		var rawURL string
		if err := node.Decode(&rawURL); err != nil {
			return err
		}
		e.URL = rawURL
		e.Type = ExtraTypeFile
		return nil
	}

	var doc extraFileDoc
	if err := node.Decode(&doc); err != nil {
		return fmt.Errorf("invalid extra URL entry: %w", err)
	}
	if doc.URL == "" {
		return fmt.Errorf("extra URL entry needs a %q key (line %d)", "url", node.Line)
	}

	e.URL = doc.URL
	e.Filename = doc.Filename
	e.SHA1 = doc.SHA1
	e.OnlyVersion = doc.OnlyVersion
	e.Type = doc.Type
	if e.Type == "" {
		e.Type = ExtraTypeFile
	}
	return nil
}

// KnownExtraType reports whether t is one of the supported extra file types.
func KnownExtraType(t string) bool {
	switch t {
	case ExtraTypeFile, ExtraTypeMod, ExtraTypeResourcePack, ExtraTypeShaderPack:
		return true
	}
	return false
}
