// Package listing builds the view of one folder: children fetched page by page
// through the session cache, split into folders and files, filtered, sorted and
// decorated with each file's document number.
package listing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/rescale/drive-explorer/internal/cache"
	"github.com/rescale/drive-explorer/internal/constants"
	"github.com/rescale/drive-explorer/internal/drive"
	"github.com/rescale/drive-explorer/internal/logging"
	"github.com/rescale/drive-explorer/internal/metrics"
)

// Options configures a Lister.
type Options struct {
	DriveID string

	// HiddenPrefixes are folder-name prefixes kept out of the root view.
	// Matching is case-insensitive. Subfolders are never filtered.
	HiddenPrefixes []string

	// DocumentNumberField is the sidecar field surfaced for each file.
	DocumentNumberField string

	// TTL bounds how long listings and metadata are reused. Zero means the default.
	TTL time.Duration
}

// File is a listed file together with its surfaced document number.
type File struct {
	drive.Item
	DocumentNumber string
}

// SizeText is the formatted size.
func (f File) SizeText() string {
	return FormatSize(f.Size)
}

// Result is the processed content of one folder.
type Result struct {
	FolderID string
	Folders  []drive.Item
	Files    []File

	// MetadataErrors lists sidecar failures recovered with the placeholder.
	MetadataErrors []*MetadataError
}

// Empty reports whether the folder shows nothing.
func (r Result) Empty() bool {
	return len(r.Folders) == 0 && len(r.Files) == 0
}

// FindFile returns the listed file with the given id.
func (r Result) FindFile(id string) (File, bool) {
	for _, f := range r.Files {
		if f.ID == id {
			return f, true
		}
	}
	return File{}, false
}

// Lister lists folders for one session. It shares the session's cache.
type Lister struct {
	svc   drive.Service
	cache *cache.Cache
	opts  Options
	log   *logging.Logger
}

// New creates a Lister.
func New(svc drive.Service, c *cache.Cache, opts Options, log *logging.Logger) *Lister {
	if opts.DocumentNumberField == "" {
		opts.DocumentNumberField = constants.DefaultDocumentNumberField
	}
	if opts.TTL <= 0 {
		opts.TTL = constants.DefaultCacheTTL
	}
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &Lister{svc: svc, cache: c, opts: opts, log: log}
}

// List returns the processed content of folderID. On a listing failure it still
// returns whatever pages arrived, together with a *FetchError; the failure is not
// cached, so the next call asks the remote source again.
// Metadata failures never fail the call; they are reported in Result.MetadataErrors.
func (l *Lister) List(ctx context.Context, folderID string) (Result, error) {
	items, listErr := l.Children(ctx, folderID)

	res := Result{FolderID: folderID}
	hide := folderID == constants.RootFolderID
	for _, it := range items {
		switch it.Kind {
		case drive.KindFolder:
			if hide && l.hidden(it.Name) {
				continue
			}
			res.Folders = append(res.Folders, it)
		case drive.KindFile:
			res.Files = append(res.Files, File{Item: it})
		}
	}

	sort.SliceStable(res.Folders, func(i, j int) bool { return res.Folders[i].Name < res.Folders[j].Name })
	sort.SliceStable(res.Files, func(i, j int) bool { return res.Files[i].Name < res.Files[j].Name })

	for i := range res.Files {
		num, err := l.DocumentNumber(ctx, res.Files[i].ID)
		if err != nil {
			var me *MetadataError
			if errors.As(err, &me) {
				res.MetadataErrors = append(res.MetadataErrors, me)
			}
		}
		res.Files[i].DocumentNumber = num
	}

	return res, listErr
}

// Children returns every child of folderID across all pages, through the cache.
func (l *Lister) Children(ctx context.Context, folderID string) ([]drive.Item, error) {
	key := cache.NewKey(constants.NamespaceListing, l.opts.DriveID, folderID)
	return cache.GetOrFetch(l.cache, key, l.opts.TTL, func() ([]drive.Item, error) {
		return l.fetchAllPages(ctx, folderID)
	})
}

func (l *Lister) fetchAllPages(ctx context.Context, folderID string) ([]drive.Item, error) {
	var (
		all   []drive.Item
		token string
		pages int
	)
	seen := make(map[string]bool)
	for {
		start := time.Now()
		page, err := l.svc.ListChildren(ctx, l.opts.DriveID, folderID, token)
		if err != nil {
			metrics.RecordRemoteCall("list_children", "error", time.Since(start))
			l.log.Warn().Err(err).Str("folder_id", folderID).Int("pages", pages).Msg("Folder listing failed")
			return all, &FetchError{FolderID: folderID, Pages: pages, Err: err}
		}
		metrics.RecordRemoteCall("list_children", "ok", time.Since(start))
		pages++
		all = append(all, page.Items...)

		if page.Continuation == "" {
			break
		}
		if seen[page.Continuation] {
			err := fmt.Errorf("continuation token repeated on page %d", pages)
			return all, &FetchError{FolderID: folderID, Pages: pages, Err: err}
		}
		seen[page.Continuation] = true
		token = page.Continuation
	}

	l.log.Debug().Str("folder_id", folderID).Int("pages", pages).Int("items", len(all)).Msg("Listed folder")
	return all, nil
}

// DocumentNumber returns the surfaced sidecar field for a file, or the placeholder
// when the field is absent. A fetch failure returns the placeholder and a *MetadataError.
func (l *Lister) DocumentNumber(ctx context.Context, fileID string) (string, error) {
	key := cache.NewKey(constants.NamespaceMetadata, l.opts.DriveID, fileID)
	fields, err := cache.GetOrFetch(l.cache, key, l.opts.TTL, func() (map[string]any, error) {
		start := time.Now()
		f, err := l.svc.GetFields(ctx, l.opts.DriveID, fileID)
		outcome := "ok"
		if err != nil {
			outcome = "error"
		}
		metrics.RecordRemoteCall("get_fields", outcome, time.Since(start))
		return f, err
	})
	if err != nil {
		l.log.Warn().Err(err).Str("file_id", fileID).Msg("Metadata fetch failed, using placeholder")
		return constants.MetadataPlaceholder, &MetadataError{FileID: fileID, Err: err}
	}
	return fieldText(fields, l.opts.DocumentNumberField), nil
}

func fieldText(fields map[string]any, name string) string {
	v, ok := fields[name]
	if !ok || v == nil {
		return constants.MetadataPlaceholder
	}
	var s string
	switch v := v.(type) {
	case string:
		s = strings.TrimSpace(v)
	case float64:
		// JSON numbers decode as float64; a Number column must not render as 1.2e+06.
		s = strconv.FormatFloat(v, 'f', -1, 64)
	case json.Number:
		s = v.String()
	default:
		s = strings.TrimSpace(fmt.Sprint(v))
	}
	if s == "" {
		return constants.MetadataPlaceholder
	}
	return s
}

func (l *Lister) hidden(name string) bool {
	lower := strings.ToLower(name)
	for _, p := range l.opts.HiddenPrefixes {
		if p != "" && strings.HasPrefix(lower, strings.ToLower(p)) {
			return true
		}
	}
	return false
}
