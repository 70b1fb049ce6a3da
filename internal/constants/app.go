package constants

import (
	"time"
)

// Cache settings
const (
	// DefaultCacheTTL - how long listing, metadata and content results stay valid (10 minutes)
	// Matches the lifetime of a Graph pre-authenticated download URL closely enough that
	// a cached URL is usually still usable when the user clicks Download.
	DefaultCacheTTL = 600 * time.Second

	// CacheCleanupInterval - how often expired entries are purged from memory
	// Expired entries are already treated as absent on lookup; this only frees memory.
	CacheCleanupInterval = 5 * time.Minute
)

// Cache namespaces
const (
	NamespaceListing  = "listing"
	NamespaceContent  = "content"
	NamespaceMetadata = "metadata"
)

// Drive hierarchy
const (
	// RootFolderID is the reserved Graph alias for the drive root
	RootFolderID = "root"

	// RootFolderName is the breadcrumb label shown for the root
	RootFolderName = "Root"

	// DefaultDocumentNumberField is the custom column surfaced next to each file
	DefaultDocumentNumberField = "DocumentNumber"

	// MetadataPlaceholder is shown when a file has no document number (or it could not be fetched)
	MetadataPlaceholder = "N/A"
)

// DefaultHiddenPrefixes lists folder-name prefixes kept out of the root view.
// Matching is case-insensitive and applies to the root folder only.
var DefaultHiddenPrefixes = []string{"MEX-"}

// Microsoft identity platform / Graph endpoints
const (
	DefaultGraphBaseURL  = "https://graph.microsoft.com/v1.0"
	DefaultAuthorityHost = "https://login.microsoftonline.com"
	GraphDefaultScope    = "https://graph.microsoft.com/.default"
)

// Web server
const (
	// DefaultListenAddr - local address for the browser UI (Streamlit's default port)
	DefaultListenAddr = "127.0.0.1:8501"

	// SessionCookieName - cookie carrying the opaque session id
	SessionCookieName = "drive_explorer_session"

	// SessionIdleTimeout - sessions untouched for this long are dropped
	SessionIdleTimeout = 30 * time.Minute

	// ServerShutdownTimeout - grace period for in-flight requests on shutdown
	ServerShutdownTimeout = 10 * time.Second
)

// Retry configuration
const (
	// DefaultHTTPRetryMax - extra attempts per HTTP call (0 = single attempt)
	// Failures surface to the user, who retries by acting again.
	DefaultHTTPRetryMax = 0

	// RetryWaitMin / RetryWaitMax bound the backoff when retries are enabled
	RetryWaitMin = 1 * time.Second
	RetryWaitMax = 30 * time.Second
)

// HTTP Client Timeouts
const (
	// HTTPIdleConnTimeout - how long to keep idle connections open (90 seconds)
	HTTPIdleConnTimeout = 90 * time.Second

	// HTTPTLSHandshakeTimeout - timeout for TLS handshake (30 seconds)
	HTTPTLSHandshakeTimeout = 30 * time.Second

	// HTTPExpectContinueTimeout - timeout for 100-continue response (1 second)
	HTTPExpectContinueTimeout = 1 * time.Second

	// HTTPDialTimeout - timeout for establishing connection (30 seconds)
	HTTPDialTimeout = 30 * time.Second

	// HTTPDialKeepAlive - keep-alive period for dialer (30 seconds)
	HTTPDialKeepAlive = 30 * time.Second

	// HTTPClientTimeout - overall limit for a single API call or file fetch (5 minutes)
	HTTPClientTimeout = 300 * time.Second

	// ProxyWarmupTimeout - limit for the optional proxy warmup request
	ProxyWarmupTimeout = 15 * time.Second
)

// Graph request pacing
const (
	// GraphRatePerSec - steady request rate toward Graph per session (per-app limits are far higher;
	// this keeps one busy browser tab from tripping 429s on a shared app registration)
	GraphRatePerSec = 8.0

	// GraphBurstCapacity - requests allowed back to back before pacing kicks in
	// A root listing with one metadata fetch per file usually fits inside the burst.
	GraphBurstCapacity = 60.0

	// RateLimitWarnThreshold - waits longer than this are logged
	RateLimitWarnThreshold = 2 * time.Second
)

// ListPageSize - children requested per Graph page ($top); Graph caps this at 999
const ListPageSize = 200
