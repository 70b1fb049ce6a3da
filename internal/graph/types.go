package graph

import (
	"fmt"
	"strings"

	"github.com/rescale/drive-explorer/internal/drive"
)

// driveItem is the subset of the Graph driveItem resource the explorer reads.
type driveItem struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	Size        int64        `json:"size"`
	Folder      *folderFacet `json:"folder,omitempty"`
	File        *fileFacet   `json:"file,omitempty"`
	Deleted     *struct{}    `json:"deleted,omitempty"`
	DownloadURL string       `json:"@microsoft.graph.downloadUrl,omitempty"`
}

type folderFacet struct {
	ChildCount int `json:"childCount"`
}

type fileFacet struct {
	MimeType string `json:"mimeType"`
}

type listChildrenResponse struct {
	Value    []driveItem `json:"value"`
	NextLink string      `json:"@odata.nextLink"`
}

type errorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// toItem converts a wire item into the tagged union. Items that are neither a
// folder nor a file (packages, deleted tombstones) are skipped.
func toItem(d driveItem) (drive.Item, bool) {
	switch {
	case d.Deleted != nil:
		return drive.Item{}, false
	case d.Folder != nil:
		return drive.NewFolder(d.ID, d.Name, d.Folder.ChildCount), true
	case d.File != nil:
		return drive.NewFile(d.ID, d.Name, d.Size, d.DownloadURL), true
	default:
		return drive.Item{}, false
	}
}

// stripAnnotations drops OData control fields (@odata.etag, @odata.context)
// from a listItem fields document.
func stripAnnotations(fields map[string]any) map[string]any {
	out := make(map[string]any, len(fields))
	for k, v := range fields {
		if strings.HasPrefix(k, "@") {
			continue
		}
		out[k] = v
	}
	return out
}

// StatusError is a non-2xx response from Graph or the download host.
type StatusError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *StatusError) Error() string {
	switch {
	case e.Code != "" && e.Message != "":
		return fmt.Sprintf("status %d: %s: %s", e.StatusCode, e.Code, e.Message)
	case e.Code != "":
		return fmt.Sprintf("status %d: %s", e.StatusCode, e.Code)
	default:
		return fmt.Sprintf("status %d", e.StatusCode)
	}
}
