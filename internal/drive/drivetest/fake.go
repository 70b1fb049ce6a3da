// Package drivetest provides an in-memory drive.Service with call counting.
package drivetest

import (
	"context"
	"fmt"
	"sync"

	"github.com/rescale/drive-explorer/internal/drive"
)

// Fake serves folders, fields and content from maps. Folders may be split into
// several pages to exercise continuation handling.
type Fake struct {
	mu sync.Mutex

	// Pages maps folder id to the pages returned for it, in order.
	Pages map[string][][]drive.Item
	// Fields maps item id to its sidecar fields.
	Fields map[string]map[string]any
	// Content maps download URL to bytes.
	Content map[string][]byte

	// Error injection: ListErr fails the listing of a folder at the given page index.
	ListErr    map[string]ListFailure
	FieldsErr  map[string]error
	ContentErr map[string]error

	listCalls    map[string]int
	fieldsCalls  map[string]int
	contentCalls map[string]int
}

// ListFailure makes page Page of a folder fail with Err.
type ListFailure struct {
	Page int
	Err  error
}

// New returns an empty fake.
func New() *Fake {
	return &Fake{
		Pages:        make(map[string][][]drive.Item),
		Fields:       make(map[string]map[string]any),
		Content:      make(map[string][]byte),
		ListErr:      make(map[string]ListFailure),
		FieldsErr:    make(map[string]error),
		ContentErr:   make(map[string]error),
		listCalls:    make(map[string]int),
		fieldsCalls:  make(map[string]int),
		contentCalls: make(map[string]int),
	}
}

// AddFolder registers the children of folderID as a single page.
func (f *Fake) AddFolder(folderID string, items ...drive.Item) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Pages[folderID] = [][]drive.Item{items}
}

// AddPages registers the children of folderID split across pages.
func (f *Fake) AddPages(folderID string, pages ...[]drive.Item) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Pages[folderID] = pages
}

// ListChildren implements drive.Service. Continuation tokens are "<folder>#<page>".
func (f *Fake) ListChildren(_ context.Context, _ string, folderID, continuation string) (drive.Page, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls[folderID]++

	idx := 0
	if continuation != "" {
		if _, err := fmt.Sscanf(continuation, folderID+"#%d", &idx); err != nil {
			return drive.Page{}, fmt.Errorf("bad continuation %q", continuation)
		}
	}
	if fail, ok := f.ListErr[folderID]; ok && fail.Page == idx {
		return drive.Page{}, fail.Err
	}

	pages := f.Pages[folderID]
	if idx >= len(pages) {
		return drive.Page{}, nil
	}
	page := drive.Page{Items: append([]drive.Item(nil), pages[idx]...)}
	if idx+1 < len(pages) {
		page.Continuation = fmt.Sprintf("%s#%d", folderID, idx+1)
	}
	return page, nil
}

// GetFields implements drive.Service.
func (f *Fake) GetFields(_ context.Context, _ string, itemID string) (map[string]any, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fieldsCalls[itemID]++
	if err := f.FieldsErr[itemID]; err != nil {
		return nil, err
	}
	return f.Fields[itemID], nil
}

// FetchContent implements drive.Service.
func (f *Fake) FetchContent(_ context.Context, url string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.contentCalls[url]++
	if err := f.ContentErr[url]; err != nil {
		return nil, err
	}
	b, ok := f.Content[url]
	if !ok {
		return nil, fmt.Errorf("status 404 for %s", url)
	}
	return b, nil
}

// ListCalls returns how many pages were requested for folderID.
func (f *Fake) ListCalls(folderID string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.listCalls[folderID]
}

// FieldsCalls returns how many sidecar fetches hit itemID.
func (f *Fake) FieldsCalls(itemID string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fieldsCalls[itemID]
}

// ContentCalls returns how many content fetches hit url.
func (f *Fake) ContentCalls(url string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.contentCalls[url]
}

var _ drive.Service = (*Fake)(nil)
