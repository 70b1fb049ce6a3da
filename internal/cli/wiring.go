package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/google/uuid"

	"github.com/rescale/drive-explorer/internal/auth"
	"github.com/rescale/drive-explorer/internal/config"
	"github.com/rescale/drive-explorer/internal/drive"
	"github.com/rescale/drive-explorer/internal/explorer"
	"github.com/rescale/drive-explorer/internal/graph"
	internalhttp "github.com/rescale/drive-explorer/internal/http"
	"github.com/rescale/drive-explorer/internal/logging"
	"github.com/rescale/drive-explorer/internal/ratelimit"
)

// serviceFactory builds the drive service factory for a loaded configuration.
// Tests replace it with an in-memory drive.
var serviceFactory = graphServiceFactory

func configPath() string {
	if cfgFile != "" {
		return cfgFile
	}
	return config.DefaultConfigPath()
}

func defaultConfigPathHint() string {
	return config.DefaultConfigPath()
}

// loadConfig reads the secrets file and environment, applies flags and
// validates. Configuration errors are printed with setup guidance.
func loadConfig() (*config.Config, error) {
	path := configPath()
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	cfg.MergeWithFlags(driveID, "")
	if err := cfg.Validate(path); err != nil {
		if cfgErr, ok := err.(*config.ConfigurationError); ok {
			fmt.Fprintf(os.Stderr, "%v\n\n%s\n", cfgErr, cfgErr.Guidance())
		}
		return nil, err
	}
	if internalhttp.NeedsProxyPassword(cfg) {
		pw, err := promptSecret(fmt.Sprintf("Proxy password for %s: ", cfg.ProxyUser))
		if err != nil {
			return nil, fmt.Errorf("failed to read proxy password: %w", err)
		}
		cfg.ProxyPassword = pw
	}
	return cfg, nil
}

// graphServiceFactory authenticates once per session and returns a Graph client
// that renews its token through the returned token source.
func graphServiceFactory(cfg *config.Config, log *logging.Logger) (explorer.ServiceFactory, error) {
	httpClient, err := internalhttp.NewClient(cfg, log.Named("http"))
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP client: %w", err)
	}
	provider := auth.NewClientCredentialsProvider(cfg.AuthorityHost, httpClient, log.Named("auth"))
	creds := auth.Credentials{
		TenantID:     cfg.TenantID,
		ClientID:     cfg.ApplicationID,
		ClientSecret: cfg.ClientSecret,
	}

	// Graph throttles per app registration, so every session shares one bucket.
	limiter := ratelimit.NewGraphRateLimiter()

	return func(ctx context.Context) (drive.Service, error) {
		tok, err := provider.Authenticate(ctx, creds)
		if err != nil {
			return nil, err
		}
		return graph.NewClient(cfg.GraphBaseURL, httpClient, tok.Source, limiter, log.Named("graph"))
	}, nil
}

func explorerOptions(cfg *config.Config) explorer.Options {
	return explorer.Options{
		DriveID:             cfg.DriveID,
		HiddenPrefixes:      cfg.HiddenPrefixes,
		DocumentNumberField: cfg.DocumentNumberField,
		TTL:                 cfg.CacheTTL(),
	}
}

// newTerminalSession starts a single explorer session for ls and get.
func newTerminalSession(ctx context.Context, cfg *config.Config, log *logging.Logger) (*explorer.Session, error) {
	factory, err := serviceFactory(cfg, log)
	if err != nil {
		return nil, err
	}
	svc, err := factory(ctx)
	if err != nil {
		return nil, err
	}
	return explorer.NewSession(uuid.NewString(), svc, explorerOptions(cfg), log.Named("session")), nil
}
