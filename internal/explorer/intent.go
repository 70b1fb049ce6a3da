package explorer

import (
	"context"
	"fmt"
)

// IntentKind names a user action.
type IntentKind string

const (
	IntentRefresh         IntentKind = "refresh"
	IntentOpenFolder      IntentKind = "open"
	IntentBreadcrumb      IntentKind = "breadcrumb"
	IntentHome            IntentKind = "home"
	IntentRequestDownload IntentKind = "download"
	IntentRetryDownload   IntentKind = "retry"
	IntentDismissDownload IntentKind = "dismiss"
	IntentCancelDownload  IntentKind = "cancel"
)

// Intent is one user action. Only the fields relevant to Kind are read.
type Intent struct {
	Kind     IntentKind `json:"kind"`
	FolderID string     `json:"folderId,omitempty"`
	Name     string     `json:"name,omitempty"`
	Index    int        `json:"index,omitempty"`
	FileID   string     `json:"fileId,omitempty"`
}

// Handle applies an intent and renders the result. Saving is not an intent:
// it hands over bytes, see SaveDownload.
//
// An error means the intent was rejected (unknown kind, or a download action
// that is not valid from the current state); the session is unchanged and the
// caller may still Render.
func (s *Session) Handle(ctx context.Context, in Intent) (View, error) {
	switch in.Kind {
	case IntentRefresh:
	case IntentOpenFolder:
		if err := s.OpenFolder(in.FolderID, in.Name); err != nil {
			return View{}, err
		}
	case IntentBreadcrumb:
		s.NavigateToBreadcrumb(in.Index)
	case IntentHome:
		s.GoHome()
	case IntentRequestDownload:
		if err := s.RequestDownload(in.FileID); err != nil {
			return View{}, err
		}
	case IntentRetryDownload:
		if err := s.RetryDownload(); err != nil {
			return View{}, err
		}
	case IntentDismissDownload:
		if err := s.DismissDownload(); err != nil {
			return View{}, err
		}
	case IntentCancelDownload:
		s.CancelDownload()
	default:
		return View{}, fmt.Errorf("unknown intent %q", in.Kind)
	}
	return s.Render(ctx), nil
}
