// Package explorer is the session boundary between the browser UI and the drive.
//
// A Session owns one user's breadcrumb path, download flow and cache. Every
// intent runs as one synchronous pass: mutate navigation or the download flow,
// then Render lists the current folder, fetches file metadata, resolves a
// targeted download (in that order) and returns an immutable View.
package explorer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rescale/drive-explorer/internal/cache"
	"github.com/rescale/drive-explorer/internal/constants"
	"github.com/rescale/drive-explorer/internal/download"
	"github.com/rescale/drive-explorer/internal/drive"
	"github.com/rescale/drive-explorer/internal/listing"
	"github.com/rescale/drive-explorer/internal/logging"
	"github.com/rescale/drive-explorer/internal/metrics"
	"github.com/rescale/drive-explorer/internal/navigation"
)

// ErrEmptyFolderID is returned by OpenFolder when no folder id is given.
var ErrEmptyFolderID = errors.New("folder id is required")

// Options configures each session.
type Options struct {
	DriveID             string
	HiddenPrefixes      []string
	DocumentNumberField string
	TTL                 time.Duration

	// CacheOptions are passed to the session's cache (tests inject a clock).
	CacheOptions []cache.Option
}

// Session is one user's explorer state. Its methods are safe for concurrent
// use; intents for the same session are serialised.
type Session struct {
	id string

	mu     sync.Mutex
	nav    *navigation.State
	flow   *download.Flow
	cache  *cache.Cache
	lister *listing.Lister
	svc    drive.Service
	ttl    time.Duration
	log    *logging.Logger
}

// NewSession creates a session positioned at the drive root with no pending download.
func NewSession(id string, svc drive.Service, opts Options, log *logging.Logger) *Session {
	if log == nil {
		log = logging.NewNopLogger()
	}
	if opts.TTL <= 0 {
		opts.TTL = constants.DefaultCacheTTL
	}
	c := cache.New(opts.CacheOptions...)
	return &Session{
		id:    id,
		nav:   navigation.New(),
		flow:  download.NewFlow(),
		cache: c,
		lister: listing.New(svc, c, listing.Options{
			DriveID:             opts.DriveID,
			HiddenPrefixes:      opts.HiddenPrefixes,
			DocumentNumberField: opts.DocumentNumberField,
			TTL:                 opts.TTL,
		}, log),
		svc: svc,
		ttl: opts.TTL,
		log: log,
	}
}

// ID returns the session id.
func (s *Session) ID() string { return s.id }

// Breadcrumbs returns the path from the root to the current folder. Never empty.
func (s *Session) Breadcrumbs() []navigation.Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.nav.Breadcrumbs()
}

// OpenFolder descends into a child folder and cancels any pending download.
func (s *Session) OpenFolder(folderID, name string) error {
	if folderID == "" {
		return ErrEmptyFolderID
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nav.Push(navigation.Entry{Name: name, ID: folderID})
	s.cancelDownloadLocked("navigation")
	return nil
}

// NavigateToBreadcrumb jumps back to path[index]. An out-of-range index (a stale
// click) changes nothing and returns false.
func (s *Session) NavigateToBreadcrumb(index int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.nav.TruncateTo(index) {
		s.log.Debug().Int("index", index).Msg("Ignoring out-of-range breadcrumb")
		return false
	}
	s.cancelDownloadLocked("navigation")
	return true
}

// GoHome returns to the root.
func (s *Session) GoHome() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nav.Reset()
	s.cancelDownloadLocked("navigation")
}

// ListCurrentFolder lists the folder on screen through the session cache.
func (s *Session) ListCurrentFolder(ctx context.Context) (listing.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lister.List(ctx, s.nav.Current().ID)
}

// RequestDownload targets a file, replacing any previous target.
func (s *Session) RequestDownload(fileID string) error {
	if fileID == "" {
		return fmt.Errorf("%w: empty file id", download.ErrInvalidTransition)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.flow.Select(fileID)
	return nil
}

// ResolveDownload prepares the targeted file's content. It returns the flow's
// state afterwards; a failed resolution is a state, not an error. The error is
// non-nil only when nothing was targeted.
func (s *Session) ResolveDownload(ctx context.Context) (download.Snapshot, error) {
	s.mu.Lock()
	ticket, err := s.flow.Begin()
	if err != nil {
		snap := s.flow.Snapshot()
		s.mu.Unlock()
		return snap, err
	}
	folderID := s.nav.Current().ID
	s.mu.Unlock()

	content, filename, resErr := s.resolve(ctx, folderID, ticket.FileID)

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.flow.Complete(ticket, content, filename, resErr) {
		metrics.RecordDownload("discarded")
		s.log.Debug().Str("file_id", ticket.FileID).Msg("Discarding download result, flow moved on")
		return s.flow.Snapshot(), nil
	}
	snap := s.flow.Snapshot()
	switch {
	case snap.State == download.Ready:
		metrics.RecordDownload("ready")
	case errors.Is(snap.Failure, download.ErrMissingDownloadURL):
		metrics.RecordDownload("missing_url")
	default:
		metrics.RecordDownload("fetch_error")
	}
	return snap, nil
}

// resolve runs without the session lock. It looks the file up in the (cached)
// listing of the folder it was requested from, then fetches through the content
// cache keyed by URL.
func (s *Session) resolve(ctx context.Context, folderID, fileID string) ([]byte, string, error) {
	items, err := s.lister.Children(ctx, folderID)
	var item drive.Item
	found := false
	for _, it := range items {
		if it.ID == fileID {
			item, found = it, true
			break
		}
	}
	if !found {
		if err != nil {
			return nil, "", download.NewFetchError(fileID, err)
		}
		return nil, "", download.NewMissingURLError(fileID)
	}
	if !item.HasDownloadURL() {
		return nil, item.Name, download.NewMissingURLError(fileID)
	}

	key := cache.NewKey(constants.NamespaceContent, item.DownloadURL)
	content, err := cache.GetOrFetch(s.cache, key, s.ttl, func() ([]byte, error) {
		start := time.Now()
		b, err := s.svc.FetchContent(ctx, item.DownloadURL)
		outcome := "ok"
		if err != nil {
			outcome = "error"
		}
		metrics.RecordRemoteCall("fetch_content", outcome, time.Since(start))
		return b, err
	})
	if err != nil {
		s.log.Warn().Err(err).Str("file_id", fileID).Msg("Content fetch failed")
		return nil, item.Name, download.NewFetchError(fileID, err)
	}
	s.log.Debug().Str("file_id", fileID).Int("bytes", len(content)).Msg("Download ready")
	return content, item.Name, nil
}

// SaveDownload hands over prepared content once and returns the flow to Idle.
// Only valid when the download is Ready.
func (s *Session) SaveDownload() ([]byte, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	content, name, err := s.flow.Save()
	if err != nil {
		return nil, "", err
	}
	metrics.RecordDownloadSaved(len(content))
	return content, name, nil
}

// RetryDownload re-targets a failed file.
func (s *Session) RetryDownload() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.flow.Retry()
}

// DismissDownload clears a failure.
func (s *Session) DismissDownload() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.flow.Dismiss()
}

// CancelDownload returns the flow to Idle from any state.
func (s *Session) CancelDownload() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancelDownloadLocked("cancelled")
}

// DownloadState returns a snapshot of the download flow.
func (s *Session) DownloadState() download.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.flow.Snapshot()
}

func (s *Session) cancelDownloadLocked(reason string) {
	if s.flow.State() != download.Idle {
		s.log.Debug().Str("file_id", s.flow.FileID()).Str("reason", reason).Msg("Clearing pending download")
	}
	s.flow.Cancel()
}
