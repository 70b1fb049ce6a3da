package drive

import "testing"

func TestItemVariants(t *testing.T) {
	tests := []struct {
		name        string
		item        Item
		wantFolder  bool
		wantFile    bool
		wantFetchOK bool
	}{
		{"folder", NewFolder("d1", "Archive", 3), true, false, false},
		{"file with url", NewFile("f1", "report.pdf", 512000, "https://example.invalid/dl"), false, true, true},
		{"file without url", NewFile("f2", "locked.docx", 10, ""), false, true, false},
		{"zero value", Item{}, false, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.item.IsFolder(); got != tt.wantFolder {
				t.Errorf("IsFolder() = %v, want %v", got, tt.wantFolder)
			}
			if got := tt.item.IsFile(); got != tt.wantFile {
				t.Errorf("IsFile() = %v, want %v", got, tt.wantFile)
			}
			if got := tt.item.HasDownloadURL(); got != tt.wantFetchOK {
				t.Errorf("HasDownloadURL() = %v, want %v", got, tt.wantFetchOK)
			}
		})
	}
}

func TestKindString(t *testing.T) {
	if KindFolder.String() != "folder" || KindFile.String() != "file" {
		t.Errorf("unexpected kind names %q %q", KindFolder, KindFile)
	}
	if got := Kind(0).String(); got != "Kind(0)" {
		t.Errorf("Kind(0).String() = %q", got)
	}
}
