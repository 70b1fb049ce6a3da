package validation

import "testing"

func TestValidateFilename(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		valid    bool
	}{
		{"simple", "report.pdf", true},
		{"spaces", "Q3 report.pdf", true},
		{"double dots inside", "data..v2.csv", true},
		{"hidden", ".hidden", true},
		{"unicode", "Übersicht.xlsx", true},
		{"empty", "", false},
		{"dot", ".", false},
		{"dotdot", "..", false},
		{"unix traversal", "../etc/passwd", false},
		{"windows separator", `..\boot.ini`, false},
		{"nested", "a/b.txt", false},
		{"null byte", "a\x00b", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateFilename(tt.filename)
			if (err == nil) != tt.valid {
				t.Errorf("ValidateFilename(%q) error = %v, valid = %v", tt.filename, err, tt.valid)
			}
		})
	}
}
