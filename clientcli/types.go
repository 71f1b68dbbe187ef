package clientcli

import (
	"github.com/sagarc03/fragments"
)

// UploadOptions configures an upload operation.
type UploadOptions struct {
	LocalPath   string
	ContentType string // optional, detected from the extension if empty
	Recursive   bool
}

// UploadResult represents the result of uploading a single file.
type UploadResult struct {
	LocalPath string             `json:"local_path"`
	Location  string             `json:"location,omitempty"`
	Fragment  fragments.Fragment `json:"fragment"`
	Err       error              `json:"-"` // nil on success
}

// DownloadOptions configures a download operation.
type DownloadOptions struct {
	ID        string
	Ext       string // empty = stored type
	LocalPath string // empty = derive from id, "-" = return the body
}

// DownloadResult represents the result of downloading a fragment.
type DownloadResult struct {
	ID          string `json:"id"`
	LocalPath   string `json:"local_path"`
	ContentType string `json:"content_type"`
	Size        int64  `json:"size_bytes"`
}

// DeleteOptions configures a delete operation.
type DeleteOptions struct {
	IDs []string
}

// DeleteResult represents the result of deleting a single fragment.
type DeleteResult struct {
	ID      string `json:"id"`
	Deleted bool   `json:"deleted"`
	Err     error  `json:"-"` // nil on success
}

// ListOptions configures a list operation.
type ListOptions struct {
	Expand bool
}

// ListResult holds the caller's fragment ids, plus full metadata when expanded.
type ListResult struct {
	IDs       []string             `json:"ids"`
	Fragments []fragments.Fragment `json:"fragments,omitempty"`
}

// TotalSize sums the sizes of expanded fragments.
func (r *ListResult) TotalSize() int64 {
	var total int64
	for _, f := range r.Fragments {
		total += f.Size
	}
	return total
}

// InfoResult is a fragment's metadata with the formats it can be rendered in.
type InfoResult struct {
	Fragment fragments.Fragment `json:"fragment"`
	Formats  []string           `json:"formats"`
}

// HealthResult is the server's health response.
type HealthResult struct {
	Status  string `json:"status"`
	Service string `json:"service"`
	Version string `json:"version"`
}

type fragmentResponse struct {
	Status   string             `json:"status"`
	Fragment fragments.Fragment `json:"fragment"`
	Formats  []string           `json:"formats"`
}

type listResponse[T any] struct {
	Status    string `json:"status"`
	Fragments []T    `json:"fragments"`
}

type errorResponse struct {
	Status string `json:"status"`
	Error  struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}
