package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/rescale/drive-explorer/internal/auth"
	"github.com/rescale/drive-explorer/internal/config"
)

// connectionTestTimeout bounds 'config test'.
const connectionTestTimeout = 30 * time.Second

// newConfigCmd creates the 'config' command group.
func newConfigCmd() *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the secrets file",
		Long: `Configuration management commands for drive-explorer.

Commands:
  init  - Interactive secrets file setup
  show  - Display current configuration
  test  - Authenticate and list the drive root
  path  - Show secrets file path`,
	}

	configCmd.AddCommand(newConfigInitCmd())
	configCmd.AddCommand(newConfigShowCmd())
	configCmd.AddCommand(newConfigTestCmd())
	configCmd.AddCommand(newConfigPathCmd())

	return configCmd
}

// newConfigInitCmd creates the 'config init' command.
func newConfigInitCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create the secrets file interactively",
		Long: `Interactive setup of the secrets file.

The file is written with owner-only permissions. Use --force to overwrite an
existing file.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := configPath()
			out := cmd.OutOrStdout()

			if !force {
				if _, err := os.Stat(path); err == nil {
					fmt.Fprintf(out, "Secrets file already exists at: %s\n", path)
					fmt.Fprintln(out, "Use --force to overwrite or run 'config show' to view it.")
					return nil
				}
			}

			fmt.Fprintln(out, "Drive Explorer Setup")
			fmt.Fprintln(out, "====================")
			fmt.Fprintln(out)

			in := cmd.InOrStdin()
			reader := bufio.NewReader(in)
			cfg := config.NewConfig()

			cfg.TenantID = promptRequired(reader, out, "Tenant ID")
			cfg.ApplicationID = promptRequired(reader, out, "Application (client) ID")
			secret, err := readSecret(reader, in, out, "Client secret (required): ")
			if err != nil {
				return fmt.Errorf("failed to read client secret: %w", err)
			}
			cfg.ClientSecret = secret
			cfg.DriveID = promptRequired(reader, out, "Drive ID")

			fmt.Fprintln(out)
			fmt.Fprintln(out, "Listing Settings (press Enter for defaults)")
			fmt.Fprintln(out, "-------------------------------------------")
			hidden := promptLine(reader, out, "Hidden root folder prefixes (comma-separated)", strings.Join(cfg.HiddenPrefixes, ","))
			cfg.HiddenPrefixes = splitPrefixes(hidden)
			cfg.DocumentNumberField = promptLine(reader, out, "Document number column", cfg.DocumentNumberField)
			ttl := promptLine(reader, out, "Cache lifetime in seconds", strconv.Itoa(cfg.CacheTTLSeconds))
			if v, err := strconv.Atoi(ttl); err == nil && v > 0 {
				cfg.CacheTTLSeconds = v
			}

			fmt.Fprintln(out)
			fmt.Fprintln(out, "Proxy Settings")
			fmt.Fprintln(out, "--------------")
			cfg.ProxyMode = promptLine(reader, out, "Proxy mode (no-proxy, system, basic, ntlm)", cfg.ProxyMode)
			if mode := strings.ToLower(cfg.ProxyMode); mode == "basic" || mode == "ntlm" {
				cfg.ProxyHost = promptLine(reader, out, "Proxy host", "")
				if v, err := strconv.Atoi(promptLine(reader, out, "Proxy port", "8080")); err == nil {
					cfg.ProxyPort = v
				}
				cfg.ProxyUser = promptLine(reader, out, "Proxy user (password is asked at startup)", "")
			}

			if err := cfg.Validate(path); err != nil {
				return err
			}
			if err := config.Save(cfg, path); err != nil {
				return err
			}

			GetLogger().Info().Str("path", path).Msg("Secrets file written")
			fmt.Fprintln(out)
			fmt.Fprintf(out, "Saved to %s\n", path)
			fmt.Fprintln(out, "Run 'drive-explorer config test' to check the credentials.")
			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Overwrite an existing secrets file")
	return cmd
}

// newConfigShowCmd creates the 'config show' command.
func newConfigShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Display current configuration",
		Long: `Display the merged configuration.

Priority: flags > environment > secrets file > defaults
The client secret is masked.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := configPath()
			cfg, err := config.Load(path)
			if err != nil {
				return err
			}
			cfg.MergeWithFlags(driveID, "")

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "Current Configuration")
			fmt.Fprintln(out, "=====================")
			fmt.Fprintln(out)

			fmt.Fprintln(out, "Credentials:")
			fmt.Fprintf(out, "  Tenant ID:      %s\n", orNotSet(cfg.TenantID))
			fmt.Fprintf(out, "  Application ID: %s\n", orNotSet(cfg.ApplicationID))
			fmt.Fprintf(out, "  Client Secret:  %s\n", cfg.MaskedSecret())
			fmt.Fprintf(out, "  Drive ID:       %s\n", orNotSet(cfg.DriveID))
			fmt.Fprintln(out)

			fmt.Fprintln(out, "Listing:")
			fmt.Fprintf(out, "  Hidden Prefixes:       %s\n", orNotSet(strings.Join(cfg.HiddenPrefixes, ", ")))
			fmt.Fprintf(out, "  Document Number Field: %s\n", cfg.DocumentNumberField)
			fmt.Fprintf(out, "  Cache TTL:             %s\n", cfg.CacheTTL())
			fmt.Fprintln(out)

			fmt.Fprintln(out, "Endpoints:")
			fmt.Fprintf(out, "  Graph:     %s\n", cfg.GraphBaseURL)
			fmt.Fprintf(out, "  Authority: %s\n", cfg.AuthorityHost)
			fmt.Fprintf(out, "  Listen:    %s\n", cfg.ListenAddr)
			fmt.Fprintln(out)

			fmt.Fprintln(out, "Proxy Settings:")
			fmt.Fprintf(out, "  Proxy Mode: %s\n", cfg.ProxyMode)
			if cfg.ProxyHost != "" {
				fmt.Fprintf(out, "  Proxy Host: %s\n", cfg.ProxyHost)
				fmt.Fprintf(out, "  Proxy Port: %d\n", cfg.ProxyPort)
			}
			fmt.Fprintln(out)

			fmt.Fprintf(out, "Secrets file: %s\n", path)
			if _, err := os.Stat(path); os.IsNotExist(err) {
				fmt.Fprintln(out, "  (file does not exist - using environment and defaults)")
			}
			return nil
		},
	}
}

// newConfigTestCmd creates the 'config test' command.
func newConfigTestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "test",
		Short: "Authenticate and list the drive root",
		Long: `Check the configured credentials by acquiring a token and listing the
root of the configured drive.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			log := GetLogger()
			out := cmd.OutOrStdout()

			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			fmt.Fprintln(out, "Testing Connection")
			fmt.Fprintln(out, "==================")
			fmt.Fprintf(out, "Drive: %s\n\n", cfg.DriveID)

			ctx, cancel := context.WithTimeout(GetContext(), connectionTestTimeout)
			defer cancel()

			s, err := newTerminalSession(ctx, cfg, log)
			if err != nil {
				log.Error().Err(err).Msg("Connection test failed")
				fmt.Fprintln(out, "✗ Authentication FAILED")
				if auth.IsAuthenticationError(err) {
					fmt.Fprintln(out, "  Check TENANT_ID, APPLICATION_ID and CLIENT_SECRET.")
				}
				fmt.Fprintf(out, "  Error: %v\n", err)
				return fmt.Errorf("connection test failed")
			}
			fmt.Fprintln(out, "✓ Authentication SUCCESSFUL")

			res, err := s.ListCurrentFolder(ctx)
			if err != nil {
				log.Error().Err(err).Msg("Root listing failed")
				fmt.Fprintln(out, "✗ Drive listing FAILED")
				fmt.Fprintf(out, "  Error: %v\n", err)
				return fmt.Errorf("connection test failed")
			}

			fmt.Fprintln(out, "✓ Drive listing SUCCESSFUL")
			fmt.Fprintf(out, "  Root: %d folders, %d files\n", len(res.Folders), len(res.Files))
			return nil
		},
	}
}

// newConfigPathCmd creates the 'config path' command.
func newConfigPathCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Show secrets file path",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			path := configPath()
			if cfgFile == "" {
				fmt.Fprintln(out, "Default secrets file path:")
			} else {
				fmt.Fprintln(out, "Secrets file path (from --config flag):")
			}
			fmt.Fprintf(out, "  %s\n\n", path)

			if info, err := os.Stat(path); err == nil {
				fmt.Fprintln(out, "Status: ✓ File exists")
				fmt.Fprintf(out, "Modified: %s\n", info.ModTime().Format("2006-01-02 15:04:05"))
			} else {
				fmt.Fprintln(out, "Status: File does not exist")
				fmt.Fprintln(out)
				fmt.Fprintln(out, "Create it with: drive-explorer config init")
			}
			return nil
		},
	}
}

func orNotSet(v string) string {
	if v == "" {
		return "<not set>"
	}
	return v
}

func splitPrefixes(v string) []string {
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
