// Package drive defines the remote drive model consumed by the explorer core:
// the Item tagged union and the Service interface implemented by remote adapters.
package drive

import (
	"context"
	"fmt"
)

// Kind discriminates the two item variants. It is decided once when the remote
// response is parsed and never re-inspected from raw fields afterwards.
type Kind int

const (
	KindFolder Kind = iota + 1
	KindFile
)

func (k Kind) String() string {
	switch k {
	case KindFolder:
		return "folder"
	case KindFile:
		return "file"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Item is a node in the remote hierarchy: either a folder or a file, never both.
// Folder items use ChildCount; file items use Size and DownloadURL.
type Item struct {
	Kind Kind
	ID   string
	Name string

	// Folder variant
	ChildCount int

	// File variant
	Size int64
	// DownloadURL is a short-lived pre-authenticated link. Empty when the
	// caller's permissions do not expose one.
	DownloadURL string
}

// NewFolder builds a folder item.
func NewFolder(id, name string, childCount int) Item {
	return Item{Kind: KindFolder, ID: id, Name: name, ChildCount: childCount}
}

// NewFile builds a file item. downloadURL may be empty.
func NewFile(id, name string, size int64, downloadURL string) Item {
	return Item{Kind: KindFile, ID: id, Name: name, Size: size, DownloadURL: downloadURL}
}

// IsFolder reports whether the item is a folder.
func (i Item) IsFolder() bool { return i.Kind == KindFolder }

// IsFile reports whether the item is a file.
func (i Item) IsFile() bool { return i.Kind == KindFile }

// HasDownloadURL reports whether a file item can be fetched without further API calls.
func (i Item) HasDownloadURL() bool {
	return i.Kind == KindFile && i.DownloadURL != ""
}

// Page is one page of a folder listing. Continuation is empty on the last page.
type Page struct {
	Items        []Item
	Continuation string
}

// Service is the remote drive API consumed by the explorer.
//
// ListChildren returns one page of children; callers pass the previous page's
// Continuation until it comes back empty (pass "" for the first page).
// FetchContent retrieves bytes from a pre-authenticated URL and must not attach
// credentials.
type Service interface {
	ListChildren(ctx context.Context, driveID, folderID, continuation string) (Page, error)
	GetFields(ctx context.Context, driveID, itemID string) (map[string]any, error)
	FetchContent(ctx context.Context, url string) ([]byte, error)
}
