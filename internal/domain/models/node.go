package models

import (
	"time"
)

// Node is a single entry in a project's virtual file tree - either a file or
// a folder. Path is always derived from ParentPath and Name; every write that
// changes an ancestor rewrites the stored paths of its descendants in the
// same transaction, so a committed tree never contains a stale path.
type Node struct {
	ID         string    `json:"id" db:"id"`
	ProjectID  string    `json:"project_id" db:"project_id"`
	Name       string    `json:"name" db:"name"`
	ParentPath string    `json:"parent_path" db:"parent_path"` // "" = root level
	Path       string    `json:"path" db:"path"`
	IsFolder   bool      `json:"is_folder" db:"is_folder"`
	Content    string    `json:"content" db:"content"`
	FileType   string    `json:"file_type" db:"file_type"`
	IsBinary   bool      `json:"is_binary" db:"is_binary"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time `json:"updated_at" db:"updated_at"`
}
