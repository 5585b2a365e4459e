package models

// ParseRequest identifies a project to reconcile
type ParseRequest struct {
	ProjectPath  string `json:"project_path" binding:"required"`
	BmadDocsPath string `json:"bmad_docs_path,omitempty"`
}

// WatchRequest starts watching a project's artifacts directory
type WatchRequest struct {
	ProjectID    string `json:"project_id" binding:"required"`
	BmadDocsPath string `json:"bmad_docs_path" binding:"required"`
}

// DocumentWriteRequest replaces the content of a document on disk
type DocumentWriteRequest struct {
	Path    string `json:"path" binding:"required"`
	Content string `json:"content"`
}

// DocumentResponse carries a document read from disk
type DocumentResponse struct {
	Path    string `json:"path"`
	Content string `json:"content"`
}

// Change kinds emitted by the watcher
const (
	ChangeCreate = "create"
	ChangeModify = "modify"
	ChangeRemove = "remove"
)

// ChangeEvent notifies that a watched project changed on disk
type ChangeEvent struct {
	ProjectID string `json:"project_id"`
	Path      string `json:"path"`
	Kind      string `json:"kind"`
}

// ErrorResponse is the body of every failed API call
type ErrorResponse struct {
	Error string `json:"error"`
}
