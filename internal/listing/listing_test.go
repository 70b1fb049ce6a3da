package listing

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/rescale/drive-explorer/internal/cache"
	"github.com/rescale/drive-explorer/internal/drive"
	"github.com/rescale/drive-explorer/internal/drive/drivetest"
)

func newLister(svc drive.Service) *Lister {
	return New(svc, cache.New(), Options{
		DriveID:        "drive-1",
		HiddenPrefixes: []string{"MEX-"},
	}, nil)
}

func names(items []drive.Item) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.Name
	}
	return out
}

func fileNames(files []File) []string {
	out := make([]string, len(files))
	for i, f := range files {
		out[i] = f.Name
	}
	return out
}

func equal(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestListRootScenario(t *testing.T) {
	fake := drivetest.New()
	fake.AddFolder("root",
		drive.NewFile("f1", "report.pdf", 512000, "https://dl.example.invalid/f1"),
		drive.NewFolder("d1", "Archive", 4),
		drive.NewFolder("d2", "MEX-Internal", 1),
	)
	fake.Fields["f1"] = map[string]any{"DocumentNumber": "DOC-0042"}

	res, err := newLister(fake).List(context.Background(), "root")
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if got := names(res.Folders); !equal(got, []string{"Archive"}) {
		t.Errorf("folders = %v, want [Archive]", got)
	}
	if got := fileNames(res.Files); !equal(got, []string{"report.pdf"}) {
		t.Fatalf("files = %v, want [report.pdf]", got)
	}
	if got := res.Files[0].SizeText(); got != "500.0 KB" {
		t.Errorf("SizeText() = %q, want 500.0 KB", got)
	}
	if got := res.Files[0].DocumentNumber; got != "DOC-0042" {
		t.Errorf("DocumentNumber = %q", got)
	}
}

func TestHiddenPrefixAppliesOnlyAtRoot(t *testing.T) {
	tests := []struct {
		name     string
		folderID string
		want     []string
	}{
		{"root hides case-insensitively", "root", []string{"Reports"}},
		{"subfolder keeps everything", "sub", []string{"MEX-Internal", "Reports", "mex-lower"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := drivetest.New()
			fake.AddFolder(tt.folderID,
				drive.NewFolder("a", "Reports", 0),
				drive.NewFolder("b", "MEX-Internal", 0),
				drive.NewFolder("c", "mex-lower", 0),
			)
			res, err := newLister(fake).List(context.Background(), tt.folderID)
			if err != nil {
				t.Fatalf("List() error = %v", err)
			}
			if got := names(res.Folders); !equal(got, tt.want) {
				t.Errorf("folders = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestHiddenPrefixNeverHidesFiles(t *testing.T) {
	fake := drivetest.New()
	fake.AddFolder("root", drive.NewFile("f", "MEX-notes.txt", 3, ""))
	res, _ := newLister(fake).List(context.Background(), "root")
	if len(res.Files) != 1 {
		t.Errorf("files = %v, want the MEX- file kept", fileNames(res.Files))
	}
}

func TestSortIsByteWise(t *testing.T) {
	fake := drivetest.New()
	fake.AddFolder("sub",
		drive.NewFile("1", "beta.txt", 1, ""),
		drive.NewFile("2", "Zeta.txt", 1, ""),
		drive.NewFile("3", "alpha.txt", 1, ""),
		drive.NewFolder("4", "b", 0),
		drive.NewFolder("5", "B", 0),
		drive.NewFolder("6", "a", 0),
	)
	res, _ := newLister(fake).List(context.Background(), "sub")

	if got := fileNames(res.Files); !equal(got, []string{"Zeta.txt", "alpha.txt", "beta.txt"}) {
		t.Errorf("files = %v", got)
	}
	if got := names(res.Folders); !equal(got, []string{"B", "a", "b"}) {
		t.Errorf("folders = %v", got)
	}
}

func TestPaginationAccumulatesAllPages(t *testing.T) {
	fake := drivetest.New()
	fake.AddPages("sub",
		[]drive.Item{drive.NewFile("1", "one.txt", 1, "")},
		[]drive.Item{drive.NewFile("2", "two.txt", 2, "")},
	)
	res, err := newLister(fake).List(context.Background(), "sub")
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(res.Files) != 2 {
		t.Errorf("files = %v, want 2 items", fileNames(res.Files))
	}
	if got := fake.ListCalls("sub"); got != 2 {
		t.Errorf("page fetches = %d, want 2", got)
	}
}

func TestRepeatedListUsesCache(t *testing.T) {
	fake := drivetest.New()
	fake.AddPages("sub",
		[]drive.Item{drive.NewFile("1", "one.txt", 1, "")},
		[]drive.Item{drive.NewFile("2", "two.txt", 2, "")},
	)
	l := newLister(fake)
	first, _ := l.List(context.Background(), "sub")
	second, _ := l.List(context.Background(), "sub")

	if !equal(fileNames(first.Files), fileNames(second.Files)) {
		t.Errorf("results differ: %v vs %v", fileNames(first.Files), fileNames(second.Files))
	}
	if got := fake.ListCalls("sub"); got != 2 {
		t.Errorf("page fetches = %d, want 2 (second List served from cache)", got)
	}
	if got := fake.FieldsCalls("1"); got != 1 {
		t.Errorf("fields fetches for file 1 = %d, want 1", got)
	}
}

func TestPartialFailureReturnsAccumulatedItems(t *testing.T) {
	fake := drivetest.New()
	fake.AddPages("sub",
		[]drive.Item{drive.NewFile("1", "one.txt", 1, "")},
		[]drive.Item{drive.NewFile("2", "two.txt", 2, "")},
	)
	boom := errors.New("status 503")
	fake.ListErr["sub"] = drivetest.ListFailure{Page: 1, Err: boom}

	l := newLister(fake)
	res, err := l.List(context.Background(), "sub")

	var fe *FetchError
	if !errors.As(err, &fe) {
		t.Fatalf("List() error = %v, want *FetchError", err)
	}
	if !errors.Is(err, boom) || fe.Pages != 1 {
		t.Errorf("FetchError = %+v", fe)
	}
	if got := fileNames(res.Files); !equal(got, []string{"one.txt"}) {
		t.Errorf("partial files = %v, want [one.txt]", got)
	}

	// failures are not cached: the next call goes back to the source
	delete(fake.ListErr, "sub")
	res, err = l.List(context.Background(), "sub")
	if err != nil {
		t.Fatalf("second List() error = %v", err)
	}
	if len(res.Files) != 2 {
		t.Errorf("files after recovery = %v", fileNames(res.Files))
	}
}

func TestEmptyFolderIsCached(t *testing.T) {
	fake := drivetest.New()
	fake.AddFolder("empty")
	l := newLister(fake)
	for i := 0; i < 3; i++ {
		res, err := l.List(context.Background(), "empty")
		if err != nil || !res.Empty() {
			t.Fatalf("List() = %+v, %v", res, err)
		}
	}
	if got := fake.ListCalls("empty"); got != 1 {
		t.Errorf("page fetches = %d, want 1", got)
	}
}

func TestDocumentNumberPlaceholder(t *testing.T) {
	fake := drivetest.New()
	fake.AddFolder("sub",
		drive.NewFile("a", "a.txt", 1, ""),
		drive.NewFile("b", "b.txt", 1, ""),
		drive.NewFile("c", "c.txt", 1, ""),
		drive.NewFile("d", "d.txt", 1, ""),
	)
	fake.Fields["a"] = map[string]any{"DocumentNumber": 1042.0}
	fake.Fields["b"] = map[string]any{"Title": "no number"}
	fake.Fields["c"] = map[string]any{"DocumentNumber": "  "}
	fake.FieldsErr["d"] = errors.New("status 404")

	res, err := newLister(fake).List(context.Background(), "sub")
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	want := map[string]string{"a": "1042", "b": "N/A", "c": "N/A", "d": "N/A"}
	for _, f := range res.Files {
		if f.DocumentNumber != want[f.ID] {
			t.Errorf("%s DocumentNumber = %q, want %q", f.ID, f.DocumentNumber, want[f.ID])
		}
	}
	if len(res.MetadataErrors) != 1 || res.MetadataErrors[0].FileID != "d" {
		t.Errorf("MetadataErrors = %v, want one for d", res.MetadataErrors)
	}
}

func TestDocumentNumberFromJSONFields(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"large whole number", `{"DocumentNumber": 1234567}`, "1234567"},
		{"small whole number", `{"DocumentNumber": 42}`, "42"},
		{"fraction", `{"DocumentNumber": 12.5}`, "12.5"},
		{"text", `{"DocumentNumber": "DOC-0001"}`, "DOC-0001"},
		{"null", `{"DocumentNumber": null}`, "N/A"},
		{"boolean", `{"DocumentNumber": true}`, "true"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var fields map[string]any
			if err := json.Unmarshal([]byte(tt.body), &fields); err != nil {
				t.Fatal(err)
			}
			fake := drivetest.New()
			fake.AddFolder("sub", drive.NewFile("a", "a.txt", 1, ""))
			fake.Fields["a"] = fields

			res, err := newLister(fake).List(context.Background(), "sub")
			if err != nil {
				t.Fatalf("List() error = %v", err)
			}
			if got := res.Files[0].DocumentNumber; got != tt.want {
				t.Errorf("DocumentNumber = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCustomDocumentNumberField(t *testing.T) {
	fake := drivetest.New()
	fake.AddFolder("sub", drive.NewFile("a", "a.txt", 1, ""))
	fake.Fields["a"] = map[string]any{"DocNo": "X-1", "DocumentNumber": "ignored"}

	l := New(fake, cache.New(), Options{DriveID: "d", DocumentNumberField: "DocNo", TTL: time.Minute}, nil)
	res, _ := l.List(context.Background(), "sub")
	if res.Files[0].DocumentNumber != "X-1" {
		t.Errorf("DocumentNumber = %q", res.Files[0].DocumentNumber)
	}
}

func TestFormatSize(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{0, "0 B"},
		{1023, "1023 B"},
		{1024, "1.0 KB"},
		{512000, "500.0 KB"},
		{1024*1024 - 1, "1024.0 KB"},
		{1024 * 1024, "1.0 MB"},
		{5 * 1024 * 1024 * 1024, "5120.0 MB"},
	}
	for _, tt := range tests {
		if got := FormatSize(tt.in); got != tt.want {
			t.Errorf("FormatSize(%d) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
