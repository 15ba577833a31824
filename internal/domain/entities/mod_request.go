package entities

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// ModRequest asks for one project, by slug or id, optionally pinned to an
// exact version number. Dependencies discovered during resolution are
// expressed as bare requests (no version pin).
type ModRequest struct {
	Identifier string `yaml:"-"`
	Version    string `yaml:"-"`
}

// modRequestDoc is the mapping form accepted in configuration files.
type modRequestDoc struct {
	Slug    string `yaml:"slug"`
	ID      string `yaml:"id"`
	Version string `yaml:"version"`
}

// UnmarshalYAML accepts either a plain string ("sodium") or a mapping
// ({slug: sodium, version: "0.5.8"}), matching both historic config shapes.
func (r *ModRequest) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		var identifier string
		if err := node.Decode(&identifier); err != nil {
			return err
		}
		r.Identifier = identifier
		return nil
	}

	var doc modRequestDoc
	if err := node.Decode(&doc); err != nil {
		return fmt.Errorf("invalid mod entry: %w", err)
	}

	switch {
	case doc.Slug != "":
		r.Identifier = doc.Slug
	case doc.ID != "":
		r.Identifier = doc.ID
	default:
		return fmt.Errorf("mod entry needs a %q or %q key (line %d)", "slug", "id", node.Line)
	}
	r.Version = doc.Version
	return nil
}
