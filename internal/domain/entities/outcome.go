package entities

// Outcome statuses for a single target file.
const (
	StatusSuccess = "success"
	StatusSkipped = "skipped"
	StatusFailed  = "failed"
)

// DownloadOutcome is the recorded result for one target file.
type DownloadOutcome struct {
	TargetName string
	Status     string
	Detail     string
}

// DownloadRequest describes one file fetch handed to the download engine.
type DownloadRequest struct {
	URL          string
	TargetDir    string
	Filename     string
	ExpectedSHA1 string // empty means no verification
	Force        bool
	Progress     func(downloaded, total int64)
}

// ResolvedItem is the concrete file chosen for a project, created at most
// once per project per run.
type ResolvedItem struct {
	ProjectID     string
	Slug          string
	VersionNumber string
	File          File
}
