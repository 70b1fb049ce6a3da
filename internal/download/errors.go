package download

import (
	"errors"
	"fmt"
)

// ErrInvalidTransition is returned when an operation is not allowed from the
// flow's current state (for example Save before the content is Ready).
var ErrInvalidTransition = errors.New("invalid download transition")

// Sentinel causes for a failed resolution. Match with errors.Is.
var (
	ErrMissingDownloadURL = errors.New("MissingDownloadUrl")
	ErrContentFetch       = errors.New("ContentFetchError")
)

// ResolutionError records why a targeted file could not be prepared for saving.
// Its Reason is one of ErrMissingDownloadURL or ErrContentFetch; Err holds the
// underlying transport or status failure, if any.
type ResolutionError struct {
	FileID string
	Reason error
	Err    error
}

// NewMissingURLError reports a file item that carries no transient download URL,
// usually because the application lacks the permission scope to expose one.
func NewMissingURLError(fileID string) *ResolutionError {
	return &ResolutionError{FileID: fileID, Reason: ErrMissingDownloadURL}
}

// NewFetchError wraps a failed content retrieval.
func NewFetchError(fileID string, err error) *ResolutionError {
	return &ResolutionError{FileID: fileID, Reason: ErrContentFetch, Err: err}
}

func (e *ResolutionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("download %s: %s: %v", e.FileID, e.Reason, e.Err)
	}
	return fmt.Sprintf("download %s: %s", e.FileID, e.Reason)
}

// Is matches the reason sentinel so callers can write errors.Is(err, ErrMissingDownloadURL).
func (e *ResolutionError) Is(target error) bool {
	return target == e.Reason
}

func (e *ResolutionError) Unwrap() error {
	return e.Err
}

// Kind returns the reason name, "MissingDownloadUrl" or "ContentFetchError".
func (e *ResolutionError) Kind() string {
	return e.Reason.Error()
}

// UserMessage is the text shown next to the Retry and Dismiss actions.
func (e *ResolutionError) UserMessage() string {
	if errors.Is(e, ErrMissingDownloadURL) {
		return "URL not found."
	}
	return "download failed"
}
