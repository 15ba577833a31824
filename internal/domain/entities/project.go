package entities

import "time"

// Dependency kinds as reported by the registry. Only required dependencies
// are followed during resolution.
const (
	DependencyRequired     = "required"
	DependencyOptional     = "optional"
	DependencyIncompatible = "incompatible"
	DependencyEmbedded     = "embedded"
)

// Project is a distributable unit (mod, resource pack, shader pack) indexed
// by the registry under both its id and its slug.
type Project struct {
	ID          string `json:"id"`
	Slug        string `json:"slug"`
	Title       string `json:"title"`
	Description string `json:"description"`
	ProjectType string `json:"project_type"`
}

// Version is a single release of a project.
type Version struct {
	ID            string       `json:"id"`
	ProjectID     string       `json:"project_id"`
	VersionNumber string       `json:"version_number"`
	DatePublished time.Time    `json:"date_published"`
	GameVersions  []string     `json:"game_versions"`
	Loaders       []string     `json:"loaders"`
	Files         []File       `json:"files"`
	Dependencies  []Dependency `json:"dependencies"`
}

// File is one downloadable artifact of a version.
type File struct {
	Filename string     `json:"filename"`
	URL      string     `json:"url"`
	Hashes   FileHashes `json:"hashes"`
	Primary  bool       `json:"primary"`
	Size     int64      `json:"size"`
}

// FileHashes holds the registry-published digests of a file.
type FileHashes struct {
	SHA1   string `json:"sha1"`
	SHA512 string `json:"sha512"`
}

// Dependency is an edge from a version to another project.
type Dependency struct {
	ProjectID      string `json:"project_id"`
	VersionID      string `json:"version_id"`
	DependencyType string `json:"dependency_type"`
}

// PrimaryFile returns the file flagged as primary, or nil if none is.
func (v *Version) PrimaryFile() *File {
	for i := range v.Files {
		if v.Files[i].Primary {
			return &v.Files[i]
		}
	}
	return nil
}
