package listing

import "fmt"

// FetchError reports a transport or status failure while listing a folder.
// Items gathered from earlier pages are still returned alongside it.
type FetchError struct {
	FolderID string
	Pages    int // pages fetched successfully before the failure
	Err      error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("list folder %s (after %d pages): %v", e.FolderID, e.Pages, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// UserMessage is shown in place of the listing.
func (e *FetchError) UserMessage() string {
	return "Folder empty or unreachable."
}

// MetadataError reports a failed sidecar fetch for one file. The file is still
// listed, with the placeholder in place of its document number.
type MetadataError struct {
	FileID string
	Err    error
}

func (e *MetadataError) Error() string {
	return fmt.Sprintf("fetch fields for %s: %v", e.FileID, e.Err)
}

func (e *MetadataError) Unwrap() error { return e.Err }

// UserMessage names the file whose details could not be loaded.
func (e *MetadataError) UserMessage(name string) string {
	return fmt.Sprintf("Could not load details for %s.", name)
}
