// Package steam looks up localized game names from the Steam store's
// appdetails endpoint.
package steam

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/raphi011/shelf/internal/resolve"
)

const (
	// DefaultBaseURL is the public Steam store.
	DefaultBaseURL = "https://store.steampowered.com"

	// DefaultLanguage asks the store for Simplified Chinese names.
	DefaultLanguage = "schinese"

	// DefaultTimeout bounds a single request.
	DefaultTimeout = 10 * time.Second

	// DefaultUserAgent is sent with every request.
	DefaultUserAgent = "shelf/1.0"

	// maxBodySize caps how much of a response is read.
	maxBodySize = 4 << 20
)

// Error describes a failed lookup. It matches resolve.ErrNetwork or
// resolve.ErrMalformedResponse via errors.Is.
type Error struct {
	AppID   string
	Message string
	Kind    error
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("steam lookup %s: %s: %v", e.AppID, e.Message, e.Cause)
	}
	return fmt.Sprintf("steam lookup %s: %s", e.AppID, e.Message)
}

func (e *Error) Unwrap() []error {
	errs := make([]error, 0, 2)
	if e.Kind != nil {
		errs = append(errs, e.Kind)
	}
	if e.Cause != nil {
		errs = append(errs, e.Cause)
	}
	return errs
}

// Client queries appdetails. The zero value uses the defaults.
type Client struct {
	BaseURL    string
	Language   string
	UserAgent  string
	HTTPClient *http.Client
}

// New returns a client for baseURL and language; empty values use the defaults.
func New(baseURL, language string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		BaseURL:    baseURL,
		Language:   language,
		HTTPClient: &http.Client{Timeout: timeout},
	}
}

type appDetails struct {
	Success bool `json:"success"`
	Data    *struct {
		Name string `json:"name"`
	} `json:"data"`
}

// Lookup implements resolve.Backend.
func (c *Client) Lookup(ctx context.Context, appID string) (string, bool, error) {
	appID = strings.TrimSpace(appID)
	if _, err := strconv.ParseUint(appID, 10, 32); err != nil {
		// Not an app id Steam could know about
		return "", false, nil
	}

	reqURL := c.endpoint(appID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return "", false, &Error{AppID: appID, Message: "failed to create request", Kind: resolve.ErrNetwork, Cause: err}
	}
	req.Header.Set("User-Agent", c.userAgent())
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return "", false, &Error{AppID: appID, Message: "HTTP request failed", Kind: resolve.ErrNetwork, Cause: err}
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return "", false, nil
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return "", false, &Error{AppID: appID, Message: fmt.Sprintf("HTTP status %d", resp.StatusCode), Kind: resolve.ErrNetwork}
	case resp.StatusCode != http.StatusOK:
		return "", false, &Error{AppID: appID, Message: fmt.Sprintf("unexpected HTTP status %d", resp.StatusCode), Kind: resolve.ErrMalformedResponse}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return "", false, &Error{AppID: appID, Message: "failed to read response body", Kind: resolve.ErrNetwork, Cause: err}
	}

	return parseAppDetails(appID, body)
}

// parseAppDetails extracts the name from {"<id>": {"success": …, "data": {"name": …}}}.
func parseAppDetails(appID string, body []byte) (string, bool, error) {
	var payload map[string]*appDetails
	if err := json.Unmarshal(body, &payload); err != nil {
		return "", false, &Error{AppID: appID, Message: "invalid JSON", Kind: resolve.ErrMalformedResponse, Cause: err}
	}

	entry := payload[appID]
	if entry == nil || !entry.Success || entry.Data == nil {
		return "", false, nil
	}
	name := strings.TrimSpace(entry.Data.Name)
	if name == "" {
		return "", false, nil
	}
	return name, true, nil
}

func (c *Client) endpoint(appID string) string {
	base := c.BaseURL
	if base == "" {
		base = DefaultBaseURL
	}
	lang := c.Language
	if lang == "" {
		lang = DefaultLanguage
	}

	q := url.Values{}
	q.Set("appids", appID)
	q.Set("l", lang)
	return strings.TrimRight(base, "/") + "/api/appdetails?" + q.Encode()
}

func (c *Client) httpClient() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return &http.Client{Timeout: DefaultTimeout}
}

func (c *Client) userAgent() string {
	if c.UserAgent != "" {
		return c.UserAgent
	}
	return DefaultUserAgent
}
