package constants

// DocumentStatus is the canonical per-document pipeline stage.
type DocumentStatus string

// Stable values (store these exact strings in DB). Transitions are
// one-directional: queued → extracting → classified → built → validated,
// with failed reachable from any non-terminal stage.
const (
	DocStatusQueued     DocumentStatus = "queued"
	DocStatusExtracting DocumentStatus = "extracting"
	DocStatusClassified DocumentStatus = "classified"
	DocStatusBuilt      DocumentStatus = "built"
	DocStatusValidated  DocumentStatus = "validated" // terminal
	DocStatusFailed     DocumentStatus = "failed"    // terminal
)

// Terminal reports whether no further pipeline work applies to the document.
func (s DocumentStatus) Terminal() bool {
	return s == DocStatusValidated || s == DocStatusFailed
}

// JobStatus is the canonical status for rows in jobs.
type JobStatus string

const (
	JobStatusQueued     JobStatus = "queued"
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed" // terminal: every document is terminal
)
