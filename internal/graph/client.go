// Package graph implements drive.Service against the Microsoft Graph v1.0 API.
package graph

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	nethttp "net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"github.com/rescale/drive-explorer/internal/constants"
	"github.com/rescale/drive-explorer/internal/drive"
	internalhttp "github.com/rescale/drive-explorer/internal/http"
	"github.com/rescale/drive-explorer/internal/logging"
	"github.com/rescale/drive-explorer/internal/ratelimit"
)

// ErrForeignNextLink is returned when a continuation link points away from the
// Graph endpoint; the bearer token is never sent to another host.
var ErrForeignNextLink = errors.New("continuation link points to a different host")

// Client is a Graph drive client. Safe for concurrent use.
type Client struct {
	baseURL    *url.URL
	httpClient *nethttp.Client
	tokens     oauth2.TokenSource
	limiter    *ratelimit.RateLimiter
	log        *logging.Logger
}

// NewClient creates a client. httpClient is shared by API calls and content
// downloads; only API calls carry the bearer token from tokens. limiter paces
// Graph calls and should be shared by every client of one app registration;
// nil gives the client a limiter of its own.
func NewClient(baseURL string, httpClient *nethttp.Client, tokens oauth2.TokenSource, limiter *ratelimit.RateLimiter, log *logging.Logger) (*Client, error) {
	if baseURL == "" {
		baseURL = constants.DefaultGraphBaseURL
	}
	u, err := url.Parse(strings.TrimSuffix(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid graph base URL: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid graph base URL %q", baseURL)
	}
	if httpClient == nil {
		httpClient = nethttp.DefaultClient
	}
	if log == nil {
		log = logging.NewNopLogger()
	}
	if limiter == nil {
		limiter = ratelimit.NewGraphRateLimiter()
	}
	return &Client{
		baseURL:    u,
		httpClient: httpClient,
		tokens:     tokens,
		limiter:    limiter,
		log:        log,
	}, nil
}

// ListChildren returns one page of a folder's children. Pass the previous page's
// Continuation (an @odata.nextLink) to continue.
func (c *Client) ListChildren(ctx context.Context, driveID, folderID, continuation string) (drive.Page, error) {
	var target string
	if continuation != "" {
		next, err := url.Parse(continuation)
		if err != nil {
			return drive.Page{}, fmt.Errorf("invalid continuation link: %w", err)
		}
		if next.Scheme != c.baseURL.Scheme || next.Host != c.baseURL.Host {
			return drive.Page{}, fmt.Errorf("%w: %s", ErrForeignNextLink, next.Host)
		}
		target = next.String()
	} else {
		q := url.Values{}
		q.Set("$top", fmt.Sprintf("%d", constants.ListPageSize))
		target = c.itemURL(driveID, folderID, "children") + "?" + q.Encode()
	}

	var resp listChildrenResponse
	if err := c.getJSON(ctx, target, &resp); err != nil {
		return drive.Page{}, fmt.Errorf("list children of %s: %w", folderID, err)
	}

	page := drive.Page{Continuation: resp.NextLink, Items: make([]drive.Item, 0, len(resp.Value))}
	for _, d := range resp.Value {
		item, ok := toItem(d)
		if !ok {
			c.log.Debug().Str("item_id", d.ID).Str("name", d.Name).Msg("Skipping item that is neither file nor folder")
			continue
		}
		page.Items = append(page.Items, item)
	}
	return page, nil
}

// GetFields returns the custom column values of a drive item's list item.
func (c *Client) GetFields(ctx context.Context, driveID, itemID string) (map[string]any, error) {
	var fields map[string]any
	if err := c.getJSON(ctx, c.itemURL(driveID, itemID, "listItem/fields"), &fields); err != nil {
		return nil, fmt.Errorf("get fields of %s: %w", itemID, err)
	}
	return stripAnnotations(fields), nil
}

// FetchContent downloads from a pre-authenticated URL. No Authorization header
// is attached and the request is not paced.
func (c *Client) FetchContent(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := nethttp.NewRequestWithContext(ctx, nethttp.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Warn().Str("error_type", internalhttp.ClassifyError(err).String()).Err(err).Msg("Download request failed")
		return nil, fmt.Errorf("download request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != nethttp.StatusOK {
		return nil, decodeError(resp)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read download body: %w", err)
	}
	return body, nil
}

func (c *Client) itemURL(driveID, itemID, suffix string) string {
	return fmt.Sprintf("%s/drives/%s/items/%s/%s",
		c.baseURL.String(), url.PathEscape(driveID), url.PathEscape(itemID), suffix)
}

func (c *Client) getJSON(ctx context.Context, target string, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter cancelled: %w", err)
	}

	req, err := nethttp.NewRequestWithContext(ctx, nethttp.MethodGet, target, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if c.tokens != nil {
		tok, err := c.tokens.Token()
		if err != nil {
			return fmt.Errorf("failed to get access token: %w", err)
		}
		tok.SetAuthHeader(req)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Warn().Str("error_type", internalhttp.ClassifyError(err).String()).Err(err).Msg("Graph request failed")
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	c.log.Debug().Str("url", req.URL.Path).Int("status", resp.StatusCode).Dur("took", time.Since(start)).Msg("Graph request")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		err := decodeError(resp)
		c.log.Warn().
			Str("error_type", internalhttp.ClassifyStatus(resp.StatusCode).String()).
			Int("status", resp.StatusCode).
			Err(err).
			Msg("Graph request rejected")
		return err
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// decodeError turns a non-2xx response into a *StatusError, using the Graph
// error document when one is present.
func decodeError(resp *nethttp.Response) error {
	se := &StatusError{StatusCode: resp.StatusCode}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	var er errorResponse
	if json.Unmarshal(body, &er) == nil {
		se.Code, se.Message = er.Error.Code, er.Error.Message
	}
	if se.Code == "" {
		se.Code = strings.TrimSpace(strings.TrimPrefix(resp.Status, fmt.Sprintf("%d", resp.StatusCode)))
	}
	return se
}

var _ drive.Service = (*Client)(nil)
