package http

import (
	"crypto/tls"
	nethttp "net/http"
	"os"

	"github.com/hashicorp/go-retryablehttp"
	"golang.org/x/net/http2"

	"github.com/rescale/drive-explorer/internal/config"
	"github.com/rescale/drive-explorer/internal/constants"
	"github.com/rescale/drive-explorer/internal/logging"
)

// retryLogger adapts retryablehttp's LeveledLogger onto zerolog.
type retryLogger struct {
	log *logging.Logger
}

func (l *retryLogger) Error(msg string, keysAndValues ...interface{}) {
	l.log.Error().Fields(keysAndValues).Msg(msg)
}

func (l *retryLogger) Info(msg string, keysAndValues ...interface{}) {
	// Only log errors and warnings, not every request
}

func (l *retryLogger) Debug(msg string, keysAndValues ...interface{}) {
	l.log.Debug().Fields(keysAndValues).Msg(msg)
}

func (l *retryLogger) Warn(msg string, keysAndValues ...interface{}) {
	l.log.Warn().Fields(keysAndValues).Msg(msg)
}

// NewClient creates the HTTP client used for Graph API calls, token requests and
// pre-authenticated downloads.
//
// Key features:
//   - Proxy support (uses ConfigureHTTPClient as base)
//   - HTTP/2 with runtime toggle (DISABLE_HTTP2 env var); disabled behind proxies
//   - retryablehttp wrapper with RetryMax from config (default 0: one attempt per call)
//   - Non-2xx responses are passed through unchanged so callers can map status codes
//
// The client never adds credentials itself; authenticated callers set headers per request.
func NewClient(cfg *config.Config, log *logging.Logger) (*nethttp.Client, error) {
	if log == nil {
		log = logger
	}

	baseClient, err := ConfigureHTTPClient(cfg)
	if err != nil {
		return nil, err
	}

	// NTLM mode wraps the transport; leave it as configured
	if tr, ok := baseClient.Transport.(*nethttp.Transport); ok {
		tr.ForceAttemptHTTP2 = true
		_ = http2.ConfigureTransport(tr)

		proxyActive := cfg.ProxyMode != "" && cfg.ProxyMode != "no-proxy"
		if os.Getenv("DISABLE_HTTP2") == "true" || (proxyActive && os.Getenv("FORCE_HTTP2") != "true") {
			tr.ForceAttemptHTTP2 = false
			tr.TLSNextProto = make(map[string]func(string, *tls.Conn) nethttp.RoundTripper)
		}
		baseClient.Transport = tr
	}

	retryClient := retryablehttp.NewClient()
	retryClient.HTTPClient = baseClient
	retryClient.RetryMax = cfg.HTTPRetryMax
	retryClient.RetryWaitMin = constants.RetryWaitMin
	retryClient.RetryWaitMax = constants.RetryWaitMax
	retryClient.ErrorHandler = retryablehttp.PassthroughErrorHandler
	retryClient.Logger = &retryLogger{log: log}

	return retryClient.StandardClient(), nil
}
