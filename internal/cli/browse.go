package cli

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/rescale/drive-explorer/internal/download"
	"github.com/rescale/drive-explorer/internal/drive"
	"github.com/rescale/drive-explorer/internal/explorer"
	"github.com/rescale/drive-explorer/internal/listing"
	"github.com/rescale/drive-explorer/internal/progress"
	"github.com/rescale/drive-explorer/internal/validation"
)

func newLsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ls [folder/path]",
		Short: "List a folder",
		Long: `List a folder of the configured drive.

The path is a slash-separated list of folder names starting at the root.
Folder names are matched exactly first, then case-insensitively.

Examples:
  drive-explorer ls
  drive-explorer ls "Projects/2024"`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			ctx := GetContext()
			s, err := newTerminalSession(ctx, cfg, GetLogger())
			if err != nil {
				return err
			}

			path := ""
			if len(args) == 1 {
				path = args[0]
			}
			if err := openPath(ctx, s, splitPath(path)); err != nil {
				return err
			}
			res, listErr := s.ListCurrentFolder(ctx)
			printListing(cmd.OutOrStdout(), s, res)
			if listErr != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "Warning: %s\n", userMessage(listErr))
			}
			return nil
		},
	}
	return cmd
}

func newGetCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "get <folder/path/file>",
		Short: "Download a file",
		Long: `Download one file of the configured drive.

The file is saved under its drive name in the current directory unless
--output is given. Use --output - to write to stdout.

Examples:
  drive-explorer get "Projects/2024/report.pdf"
  drive-explorer get "report.pdf" -o /tmp/report.pdf`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			ctx := GetContext()
			s, err := newTerminalSession(ctx, cfg, GetLogger())
			if err != nil {
				return err
			}

			parts := splitPath(args[0])
			if len(parts) == 0 {
				return fmt.Errorf("a file path is required")
			}
			if err := openPath(ctx, s, parts[:len(parts)-1]); err != nil {
				return err
			}
			content, filename, err := fetchFile(ctx, s, parts[len(parts)-1])
			if err != nil {
				return err
			}
			return writeDownload(cmd, content, filename, output)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Destination file or directory (- for stdout)")
	return cmd
}

func splitPath(p string) []string {
	var parts []string
	for _, part := range strings.Split(p, "/") {
		if part = strings.TrimSpace(part); part != "" {
			parts = append(parts, part)
		}
	}
	return parts
}

// openPath descends from the root through the named folders.
func openPath(ctx context.Context, s *explorer.Session, names []string) error {
	s.GoHome()
	for _, name := range names {
		res, err := s.ListCurrentFolder(ctx)
		if err != nil && len(res.Folders) == 0 {
			return fmt.Errorf("%s: %s", currentPath(s), userMessage(err))
		}
		folder, ok := folderByName(res.Folders, name)
		if !ok {
			return fmt.Errorf("folder %q not found in %s", name, currentPath(s))
		}
		if err := s.OpenFolder(folder.ID, folder.Name); err != nil {
			return err
		}
	}
	return nil
}

// fetchFile runs the download flow for the named file in the current folder.
func fetchFile(ctx context.Context, s *explorer.Session, name string) ([]byte, string, error) {
	res, err := s.ListCurrentFolder(ctx)
	if err != nil && len(res.Files) == 0 {
		return nil, "", fmt.Errorf("%s: %s", currentPath(s), userMessage(err))
	}
	file, ok := fileByName(res.Files, name)
	if !ok {
		return nil, "", fmt.Errorf("file %q not found in %s", name, currentPath(s))
	}

	if err := s.RequestDownload(file.ID); err != nil {
		return nil, "", err
	}
	snap, err := s.ResolveDownload(ctx)
	if err != nil {
		return nil, "", err
	}
	if snap.State == download.Failed {
		return nil, "", fmt.Errorf("%s: %s", file.Name, snap.Failure.UserMessage())
	}
	return s.SaveDownload()
}

func writeDownload(cmd *cobra.Command, content []byte, filename, output string) error {
	if output == "-" {
		_, err := cmd.OutOrStdout().Write(content)
		return err
	}

	if err := validation.ValidateFilename(filename); err != nil {
		return fmt.Errorf("refusing to save: %w", err)
	}
	dest := filename
	if output != "" {
		dest = output
		if info, err := os.Stat(output); err == nil && info.IsDir() {
			dest = filepath.Join(output, filename)
		}
	}

	f, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", dest, err)
	}
	defer f.Close()

	log := GetLogger()
	var reporter progress.Reporter = progress.NewNoOpProgress()
	if term.IsTerminal(int(os.Stderr.Fd())) {
		bar := progress.NewCLIProgress(os.Stderr)
		reporter = bar
		prev := log.Output()
		log.SetOutput(bar.LogWriter())
		defer log.SetOutput(prev)
	}
	log.Debug().Str("dest", dest).Int("bytes", len(content)).Msg("Writing download")
	if _, err := progress.Copy(f, bytes.NewReader(content), int64(len(content)), filename, reporter); err != nil {
		return fmt.Errorf("failed to write %s: %w", dest, err)
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "Saved %s (%s)\n", dest, listing.FormatSize(int64(len(content))))
	return nil
}

func printListing(w io.Writer, s *explorer.Session, res listing.Result) {
	fmt.Fprintf(w, "%s\n\n", currentPath(s))
	if res.Empty() {
		fmt.Fprintln(w, "This folder is empty.")
		return
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "TYPE\tNAME\tSIZE\tDOCUMENT NUMBER")
	for _, f := range res.Folders {
		fmt.Fprintf(tw, "folder\t%s/\t%d items\t\n", f.Name, f.ChildCount)
	}
	for _, f := range res.Files {
		fmt.Fprintf(tw, "file\t%s\t%s\t%s\n", f.Name, f.SizeText(), f.DocumentNumber)
	}
	tw.Flush()
}

func currentPath(s *explorer.Session) string {
	var names []string
	for _, e := range s.Breadcrumbs() {
		names = append(names, e.Name)
	}
	return strings.Join(names, " / ")
}

func folderByName(folders []drive.Item, name string) (drive.Item, bool) {
	for _, f := range folders {
		if f.Name == name {
			return f, true
		}
	}
	for _, f := range folders {
		if strings.EqualFold(f.Name, name) {
			return f, true
		}
	}
	return drive.Item{}, false
}

func fileByName(files []listing.File, name string) (listing.File, bool) {
	for _, f := range files {
		if f.Name == name {
			return f, true
		}
	}
	for _, f := range files {
		if strings.EqualFold(f.Name, name) {
			return f, true
		}
	}
	return listing.File{}, false
}

type userMessager interface {
	UserMessage() string
}

func userMessage(err error) string {
	var um userMessager
	if errors.As(err, &um) {
		return um.UserMessage()
	}
	return err.Error()
}
