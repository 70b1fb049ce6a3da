package cli

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rescale/drive-explorer/internal/config"
	"github.com/rescale/drive-explorer/internal/drive"
	"github.com/rescale/drive-explorer/internal/drive/drivetest"
	"github.com/rescale/drive-explorer/internal/explorer"
	"github.com/rescale/drive-explorer/internal/logging"
)

const reportURL = "https://dl.example.invalid/report"

func newFakeDrive() *drivetest.Fake {
	fake := drivetest.New()
	fake.AddFolder("root",
		drive.NewFile("f-report", "report.pdf", 512000, reportURL),
		drive.NewFile("f-locked", "locked.docx", 10, ""),
		drive.NewFolder("d-archive", "Archive", 1),
		drive.NewFolder("d-hidden", "MEX-Internal", 0),
	)
	fake.AddFolder("d-archive", drive.NewFile("f-old", "old.txt", 3, "https://dl.example.invalid/old"))
	fake.Fields["f-report"] = map[string]any{"DocumentNumber": "DOC-1"}
	fake.Content[reportURL] = []byte("%PDF-1.7")
	fake.Content["https://dl.example.invalid/old"] = []byte("old")
	return fake
}

// setupCLI points the CLI at a temporary secrets file, supplies credentials
// through the environment and swaps the Graph client for svc.
func setupCLI(t *testing.T, svc drive.Service, sessionErr error) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "secrets.toml")
	t.Setenv(config.KeyTenantID, "tenant")
	t.Setenv(config.KeyApplicationID, "app")
	t.Setenv(config.KeyClientSecret, "supersecret1234")
	t.Setenv(config.KeyDriveID, "drive-1")

	orig := serviceFactory
	serviceFactory = func(cfg *config.Config, log *logging.Logger) (explorer.ServiceFactory, error) {
		return func(ctx context.Context) (drive.Service, error) {
			if sessionErr != nil {
				return nil, sessionErr
			}
			return svc, nil
		}, nil
	}
	logger = logging.NewNopLogger()
	t.Cleanup(func() {
		serviceFactory = orig
		logger = nil
	})
	return path
}

func run(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	root := NewRootCmd()
	AddCommands(root)
	var stdout, stderr bytes.Buffer
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(args)
	err := root.Execute()
	return stdout.String(), stderr.String(), err
}

func TestLs(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		want    []string
		notWant []string
		wantErr string
	}{
		{
			name:    "root",
			args:    []string{"ls"},
			want:    []string{"Root", "Archive/", "report.pdf", "500.0 KB", "DOC-1", "locked.docx", "N/A"},
			notWant: []string{"MEX-Internal"},
		},
		{
			name: "subfolder case-insensitive",
			args: []string{"ls", "archive"},
			want: []string{"Root / Archive", "old.txt", "3 B"},
		},
		{
			name:    "missing folder",
			args:    []string{"ls", "Nope"},
			wantErr: `folder "Nope" not found`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := setupCLI(t, newFakeDrive(), nil)
			out, _, err := run(t, "", append(tt.args, "--config", path)...)
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("error = %v, want %q", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("ls error = %v", err)
			}
			for _, w := range tt.want {
				if !strings.Contains(out, w) {
					t.Errorf("output missing %q:\n%s", w, out)
				}
			}
			for _, w := range tt.notWant {
				if strings.Contains(out, w) {
					t.Errorf("output should not contain %q:\n%s", w, out)
				}
			}
		})
	}
}

func TestLsEmptyFolder(t *testing.T) {
	fake := newFakeDrive()
	fake.AddFolder("d-archive")
	path := setupCLI(t, fake, nil)
	out, _, err := run(t, "", "ls", "Archive", "--config", path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "This folder is empty.") {
		t.Errorf("output = %q", out)
	}
}

func TestGetToDirectory(t *testing.T) {
	path := setupCLI(t, newFakeDrive(), nil)
	dir := t.TempDir()

	_, stderr, err := run(t, "", "get", "report.pdf", "-o", dir, "--config", path)
	if err != nil {
		t.Fatalf("get error = %v", err)
	}
	got, err := os.ReadFile(filepath.Join(dir, "report.pdf"))
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "%PDF-1.7" {
		t.Errorf("content = %q", got)
	}
	if !strings.Contains(stderr, "Saved") {
		t.Errorf("stderr = %q", stderr)
	}
}

func TestGetToStdout(t *testing.T) {
	path := setupCLI(t, newFakeDrive(), nil)
	out, _, err := run(t, "", "get", "Archive/old.txt", "-o", "-", "--config", path)
	if err != nil {
		t.Fatalf("get error = %v", err)
	}
	if out != "old" {
		t.Errorf("stdout = %q, want %q", out, "old")
	}
}

func TestGetFailures(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{"missing download url", []string{"get", "locked.docx", "-o", "-"}, "URL not found."},
		{"unknown file", []string{"get", "ghost.txt", "-o", "-"}, `file "ghost.txt" not found`},
		{"unknown folder", []string{"get", "Nope/a.txt", "-o", "-"}, `folder "Nope" not found`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := setupCLI(t, newFakeDrive(), nil)
			_, _, err := run(t, "", append(tt.args, "--config", path)...)
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %v, want %q", err, tt.wantErr)
			}
		})
	}
}

func TestGetContentFetchError(t *testing.T) {
	fake := newFakeDrive()
	fake.ContentErr[reportURL] = errors.New("connection reset")
	path := setupCLI(t, fake, nil)
	_, _, err := run(t, "", "get", "report.pdf", "-o", "-", "--config", path)
	if err == nil || !strings.Contains(err.Error(), "download failed") {
		t.Errorf("error = %v", err)
	}
}

func TestConfigShowMasksSecret(t *testing.T) {
	path := setupCLI(t, newFakeDrive(), nil)
	out, _, err := run(t, "", "config", "show", "--config", path)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(out, "supersecret") {
		t.Error("client secret printed in clear")
	}
	for _, w := range []string{"***********1234", "drive-1", "MEX-", "does not exist"} {
		if !strings.Contains(out, w) {
			t.Errorf("output missing %q", w)
		}
	}
}

func TestConfigInit(t *testing.T) {
	path := setupCLI(t, newFakeDrive(), nil)
	input := strings.Join([]string{
		"my-tenant",
		"my-app",
		"my-secret",
		"my-drive",
		"MEX-, ADMIN-",
		"",
		"120",
		"",
	}, "\n") + "\n"

	if _, _, err := run(t, input, "config", "init", "--config", path); err != nil {
		t.Fatalf("init error = %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0600 {
		t.Errorf("mode = %v, want 0600", info.Mode().Perm())
	}

	for _, key := range []string{config.KeyTenantID, config.KeyApplicationID, config.KeyClientSecret, config.KeyDriveID} {
		t.Setenv(key, "")
	}
	cfg, err := config.Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.TenantID != "my-tenant" || cfg.ClientSecret != "my-secret" || cfg.DriveID != "my-drive" {
		t.Errorf("saved config = %+v", cfg)
	}
	if len(cfg.HiddenPrefixes) != 2 || cfg.HiddenPrefixes[1] != "ADMIN-" {
		t.Errorf("HiddenPrefixes = %v", cfg.HiddenPrefixes)
	}
	if cfg.CacheTTLSeconds != 120 {
		t.Errorf("CacheTTLSeconds = %d", cfg.CacheTTLSeconds)
	}

	out, _, err := run(t, "", "config", "init", "--config", path)
	if err != nil || !strings.Contains(out, "already exists") {
		t.Errorf("second init: out = %q, err = %v", out, err)
	}
}

func TestConfigTest(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		path := setupCLI(t, newFakeDrive(), nil)
		out, _, err := run(t, "", "config", "test", "--config", path)
		if err != nil {
			t.Fatalf("error = %v", err)
		}
		if !strings.Contains(out, "1 folders, 2 files") {
			t.Errorf("output = %q", out)
		}
	})

	t.Run("authentication failure", func(t *testing.T) {
		path := setupCLI(t, nil, errors.New("invalid_client"))
		out, _, err := run(t, "", "config", "test", "--config", path)
		if err == nil {
			t.Fatal("expected error")
		}
		if !strings.Contains(out, "Authentication FAILED") {
			t.Errorf("output = %q", out)
		}
	})
}

func TestMissingCredentials(t *testing.T) {
	path := setupCLI(t, newFakeDrive(), nil)
	t.Setenv(config.KeyClientSecret, "")
	_, _, err := run(t, "", "ls", "--config", path)
	if !config.IsConfigurationError(err) {
		t.Errorf("error = %v, want configuration error", err)
	}
}

func TestDriveIDFlag(t *testing.T) {
	path := setupCLI(t, newFakeDrive(), nil)
	t.Setenv(config.KeyDriveID, "")
	if _, _, err := run(t, "", "ls", "--drive-id", "drive-2", "--config", path); err != nil {
		t.Errorf("--drive-id should satisfy DRIVE_ID: %v", err)
	}
}

func TestSplitPath(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"", nil},
		{"/", nil},
		{"a/b", []string{"a", "b"}},
		{"/a//b/ ", []string{"a", "b"}},
	}
	for _, tt := range tests {
		got := splitPath(tt.in)
		if strings.Join(got, "|") != strings.Join(tt.want, "|") || len(got) != len(tt.want) {
			t.Errorf("splitPath(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
