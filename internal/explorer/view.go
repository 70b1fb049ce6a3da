package explorer

import (
	"context"
	"errors"

	"github.com/rescale/drive-explorer/internal/download"
	"github.com/rescale/drive-explorer/internal/listing"
	"github.com/rescale/drive-explorer/internal/navigation"
)

// NoticeLevel ranks a user-facing message.
type NoticeLevel string

const (
	NoticeInfo    NoticeLevel = "info"
	NoticeWarning NoticeLevel = "warning"
	NoticeError   NoticeLevel = "error"
)

// Notice is a recovered error or hint shown above the listing.
type Notice struct {
	Level   NoticeLevel `json:"level"`
	Message string      `json:"message"`
}

// FolderView is one folder row.
type FolderView struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	ChildCount int    `json:"childCount"`
}

// FileView is one file row.
type FileView struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Size           int64  `json:"size"`
	SizeText       string `json:"sizeText"`
	DocumentNumber string `json:"documentNumber"`
	Downloadable   bool   `json:"downloadable"`
}

// DownloadView describes the download flow.
type DownloadView struct {
	State    string `json:"state"`
	FileID   string `json:"fileId,omitempty"`
	Filename string `json:"filename,omitempty"`
	Size     int    `json:"size,omitempty"`
	Reason   string `json:"reason,omitempty"`
	Message  string `json:"message,omitempty"`
}

// View is an immutable snapshot of a session after one render pass.
type View struct {
	SessionID   string             `json:"sessionId"`
	Breadcrumbs []navigation.Entry `json:"breadcrumbs"`
	Folders     []FolderView       `json:"folders"`
	Files       []FileView         `json:"files"`
	Empty       bool               `json:"empty"`
	Download    DownloadView       `json:"download"`
	Notices     []Notice           `json:"notices"`
}

// Render performs one pass over the session: list the current folder (metadata
// included), then resolve the download if one is targeted, then snapshot.
// Recovered errors become notices; Render itself never fails.
func (s *Session) Render(ctx context.Context) View {
	s.mu.Lock()
	folderID := s.nav.Current().ID
	res, listErr := s.lister.List(ctx, folderID)
	pending := s.flow.State() == download.Targeted
	s.mu.Unlock()

	var notices []Notice
	var fe *listing.FetchError
	if errors.As(listErr, &fe) {
		notices = append(notices, Notice{Level: NoticeWarning, Message: fe.UserMessage()})
	}
	for _, me := range res.MetadataErrors {
		name := me.FileID
		if f, ok := res.FindFile(me.FileID); ok {
			name = f.Name
		}
		notices = append(notices, Notice{Level: NoticeInfo, Message: me.UserMessage(name)})
	}

	if pending {
		// Not targeted any more means another intent got there first; nothing to do.
		_, _ = s.ResolveDownload(ctx)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	v := View{
		SessionID:   s.id,
		Breadcrumbs: s.nav.Breadcrumbs(),
		Folders:     make([]FolderView, 0, len(res.Folders)),
		Files:       make([]FileView, 0, len(res.Files)),
		Empty:       res.Empty(),
		Download:    downloadView(s.flow.Snapshot()),
		Notices:     notices,
	}
	if v.Notices == nil {
		v.Notices = []Notice{}
	}
	for _, f := range res.Folders {
		v.Folders = append(v.Folders, FolderView{ID: f.ID, Name: f.Name, ChildCount: f.ChildCount})
	}
	for _, f := range res.Files {
		v.Files = append(v.Files, FileView{
			ID:             f.ID,
			Name:           f.Name,
			Size:           f.Size,
			SizeText:       f.SizeText(),
			DocumentNumber: f.DocumentNumber,
			Downloadable:   f.HasDownloadURL(),
		})
	}
	return v
}

func downloadView(snap download.Snapshot) DownloadView {
	dv := DownloadView{
		State:    snap.State.String(),
		FileID:   snap.FileID,
		Filename: snap.Filename,
		Size:     snap.Size,
	}
	if snap.Failure != nil {
		dv.Reason = snap.Failure.Kind()
		dv.Message = snap.Failure.UserMessage()
	}
	return dv
}
