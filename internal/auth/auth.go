// Package auth obtains app-only access tokens for Microsoft Graph using the
// OAuth2 client credentials grant.
package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/rescale/drive-explorer/internal/constants"
	"github.com/rescale/drive-explorer/internal/logging"
	"github.com/rescale/drive-explorer/internal/metrics"
)

// ErrCredentialsMissing is returned before any network call when a credential is empty.
var ErrCredentialsMissing = errors.New("credentials missing")

// Credentials identify the application registration.
type Credentials struct {
	TenantID     string
	ClientID     string
	ClientSecret string
}

// Missing lists the names of empty fields.
func (c Credentials) Missing() []string {
	var out []string
	if strings.TrimSpace(c.TenantID) == "" {
		out = append(out, "TENANT_ID")
	}
	if strings.TrimSpace(c.ClientID) == "" {
		out = append(out, "APPLICATION_ID")
	}
	if strings.TrimSpace(c.ClientSecret) == "" {
		out = append(out, "CLIENT_SECRET")
	}
	return out
}

// AuthenticationError means the identity platform rejected the credentials.
// The session cannot continue until the configuration is fixed.
type AuthenticationError struct {
	StatusCode  int
	Code        string // e.g. "invalid_client"
	Description string
	Err         error
}

func (e *AuthenticationError) Error() string {
	var b strings.Builder
	b.WriteString("authentication failed")
	if e.Code != "" {
		b.WriteString(": ")
		b.WriteString(e.Code)
	}
	if e.Description != "" {
		b.WriteString(": ")
		b.WriteString(firstLine(e.Description))
	} else if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *AuthenticationError) Unwrap() error { return e.Err }

// IsAuthenticationError reports whether err is an *AuthenticationError.
func IsAuthenticationError(err error) bool {
	var ae *AuthenticationError
	return errors.As(err, &ae)
}

// Token is an access token plus a source that renews it when it expires.
type Token struct {
	AccessToken string
	Expiry      time.Time
	Source      oauth2.TokenSource
}

// Provider authenticates application credentials.
type Provider interface {
	Authenticate(ctx context.Context, creds Credentials) (*Token, error)
}

// ClientCredentialsProvider implements Provider against the Microsoft identity platform.
type ClientCredentialsProvider struct {
	// AuthorityHost defaults to https://login.microsoftonline.com.
	AuthorityHost string
	// Scopes default to the Graph .default scope.
	Scopes []string
	// HTTPClient carries proxy settings for token requests. Nil uses http.DefaultClient.
	HTTPClient *http.Client

	Log *logging.Logger
}

// NewClientCredentialsProvider creates a provider for the given authority.
func NewClientCredentialsProvider(authorityHost string, client *http.Client, log *logging.Logger) *ClientCredentialsProvider {
	return &ClientCredentialsProvider{AuthorityHost: authorityHost, HTTPClient: client, Log: log}
}

// TokenURL returns the v2.0 token endpoint for a tenant.
func (p *ClientCredentialsProvider) TokenURL(tenantID string) string {
	host := p.AuthorityHost
	if host == "" {
		host = constants.DefaultAuthorityHost
	}
	return fmt.Sprintf("%s/%s/oauth2/v2.0/token", strings.TrimSuffix(host, "/"), tenantID)
}

// Authenticate fetches a token. Empty credentials fail with ErrCredentialsMissing
// without contacting the network; a rejection by the identity platform returns
// *AuthenticationError; transport failures are returned wrapped.
func (p *ClientCredentialsProvider) Authenticate(ctx context.Context, creds Credentials) (*Token, error) {
	if missing := creds.Missing(); len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrCredentialsMissing, strings.Join(missing, ", "))
	}

	scopes := p.Scopes
	if len(scopes) == 0 {
		scopes = []string{constants.GraphDefaultScope}
	}
	cc := &clientcredentials.Config{
		ClientID:     creds.ClientID,
		ClientSecret: creds.ClientSecret,
		TokenURL:     p.TokenURL(creds.TenantID),
		Scopes:       scopes,
		AuthStyle:    oauth2.AuthStyleInParams,
	}

	// The source outlives this request, so it must not inherit its cancellation.
	srcCtx := context.WithoutCancel(ctx)
	if p.HTTPClient != nil {
		srcCtx = context.WithValue(srcCtx, oauth2.HTTPClient, p.HTTPClient)
	}
	source := cc.TokenSource(srcCtx)

	tok, err := p.fetch(ctx, cc)
	if err != nil {
		metrics.RecordAuthAttempt(false)
		return nil, err
	}
	metrics.RecordAuthAttempt(true)
	p.log().Debug().Time("expiry", tok.Expiry).Msg("Acquired access token")

	return &Token{
		AccessToken: tok.AccessToken,
		Expiry:      tok.Expiry,
		Source:      oauth2.ReuseTokenSource(tok, source),
	}, nil
}

func (p *ClientCredentialsProvider) fetch(ctx context.Context, cc *clientcredentials.Config) (*oauth2.Token, error) {
	if p.HTTPClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, p.HTTPClient)
	}
	tok, err := cc.Token(ctx)
	if err == nil {
		return tok, nil
	}

	var rErr *oauth2.RetrieveError
	if errors.As(err, &rErr) {
		ae := &AuthenticationError{
			Code:        rErr.ErrorCode,
			Description: rErr.ErrorDescription,
			Err:         err,
		}
		if rErr.Response != nil {
			ae.StatusCode = rErr.Response.StatusCode
		}
		if ae.Code == "" {
			// Older endpoints return the error document without the fields oauth2 parses.
			var body struct {
				Error            string `json:"error"`
				ErrorDescription string `json:"error_description"`
			}
			if json.Unmarshal(rErr.Body, &body) == nil {
				ae.Code, ae.Description = body.Error, body.ErrorDescription
			}
		}
		p.log().Warn().Str("code", ae.Code).Int("status", ae.StatusCode).Msg("Token request rejected")
		return nil, ae
	}
	return nil, fmt.Errorf("token request: %w", err)
}

func (p *ClientCredentialsProvider) log() *logging.Logger {
	if p.Log == nil {
		return logging.NewNopLogger()
	}
	return p.Log
}

func firstLine(s string) string {
	if i := strings.IndexAny(s, "\r\n"); i >= 0 {
		return s[:i]
	}
	return s
}

var _ Provider = (*ClientCredentialsProvider)(nil)
