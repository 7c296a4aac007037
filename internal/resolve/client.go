// Package resolve turns citation labels into URLs: the landing page of the
// label's DOI when the handle server knows it, a web search otherwise.
package resolve

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const (
	// BaseURL is the DOI handle server.
	BaseURL = "https://doi.org"

	// SearchURL is the fallback search engine.
	SearchURL = "https://google.com/"

	// DefaultTimeout is the default HTTP request timeout.
	DefaultTimeout = 10 * time.Second

	// DefaultRateLimit is in requests per second.
	DefaultRateLimit = 5.0

	// Handle protocol response codes.
	responseSuccess        = 1
	responseHandleNotFound = 100
)

// doiPattern matches a whole DOI: 10.XXXX/... where XXXX is 4+ digits.
var doiPattern = regexp.MustCompile(`^10\.\d{4,9}/[^\s<>"{}|\\^~\[\]` + "`" + `]+$`)

// Source tells where a resolved URL came from.
type Source string

const (
	SourceDOI    Source = "doi"
	SourceSearch Source = "search"
)

// Resolution is the URL chosen for a label.
type Resolution struct {
	Label  string `json:"label"`
	DOI    string `json:"doi,omitempty"`
	URL    string `json:"url"`
	Source Source `json:"source"`
	// Error explains why a labelled DOI fell back to a search.
	Error string `json:"error,omitempty"`
}

// Client is a rate-limited client for the DOI handle API.
type Client struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	baseURL    string
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithBaseURL sets a custom base URL (for testing).
func WithBaseURL(u string) ClientOption {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(u, "/")
	}
}

// WithRateLimit sets the number of requests per second.
func WithRateLimit(perSecond float64) ClientOption {
	return func(c *Client) {
		c.limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
	}
}

// WithTimeout sets the HTTP request timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

// NewClient creates a new DOI resolver client.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: DefaultTimeout},
		limiter:    rate.NewLimiter(rate.Limit(DefaultRateLimit), 1),
		baseURL:    BaseURL,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// handleResponse is the body of GET /api/handles/{doi}.
type handleResponse struct {
	ResponseCode int    `json:"responseCode"`
	Handle       string `json:"handle"`
	Values       []struct {
		Index int    `json:"index"`
		Type  string `json:"type"`
		Data  struct {
			Format string          `json:"format"`
			Value  json.RawMessage `json:"value"`
		} `json:"data"`
	} `json:"values"`
}

// LookupDOI returns the landing page URL registered for doi.
func (c *Client) LookupDOI(ctx context.Context, doi string) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limiter: %w", err)
	}

	segments := strings.Split(doi, "/")
	for i, seg := range segments {
		segments[i] = url.PathEscape(seg)
	}
	endpoint := c.baseURL + "/api/handles/" + strings.Join(segments, "/")
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("resolving %s: %w", doi, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return "", fmt.Errorf("%w: status %d", ErrRateLimited, resp.StatusCode)
	}

	var body handleResponse
	decodeErr := json.NewDecoder(resp.Body).Decode(&body)
	if resp.StatusCode >= 400 {
		return "", &APIError{StatusCode: resp.StatusCode, ResponseCode: body.ResponseCode, DOI: doi}
	}
	if decodeErr != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidResponse, decodeErr)
	}
	if body.ResponseCode == responseHandleNotFound {
		return "", fmt.Errorf("%w: %s", ErrNotFound, doi)
	}
	if body.ResponseCode != responseSuccess {
		return "", &APIError{StatusCode: resp.StatusCode, ResponseCode: body.ResponseCode, DOI: doi}
	}

	for _, v := range body.Values {
		if v.Type != "URL" {
			continue
		}
		var target string
		if err := json.Unmarshal(v.Data.Value, &target); err != nil || target == "" {
			return "", fmt.Errorf("%w: URL value of %s is not a string", ErrInvalidResponse, doi)
		}
		return target, nil
	}
	return "", fmt.Errorf("%w: no URL value for %s", ErrInvalidResponse, doi)
}

// Resolve picks a URL for label. Labels with a DOI are looked up; any
// failure, and labels without a DOI, fall back to a search URL. Only a
// cancelled context is returned as an error.
func (c *Client) Resolve(ctx context.Context, label string) (Resolution, error) {
	res := Resolution{Label: label, URL: SearchLink(label), Source: SourceSearch}

	doi, ok := DOIFromLabel(label)
	if !ok {
		return res, nil
	}
	res.DOI = doi

	target, err := c.LookupDOI(ctx, doi)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return res, ctxErr
		}
		res.Error = err.Error()
		return res, nil
	}
	res.URL = target
	res.Source = SourceDOI
	return res, nil
}

// DOIFromLabel extracts the DOI from the last field of a label, which has
// the form "DOI 10.xxxx/yyyy". Malformed DOIs are ignored.
func DOIFromLabel(label string) (string, bool) {
	fields := strings.Split(label, ", ")
	last := fields[len(fields)-1]
	doi, ok := strings.CutPrefix(last, "DOI ")
	doi = strings.TrimSpace(doi)
	if !ok || !doiPattern.MatchString(doi) {
		return "", false
	}
	return doi, true
}

// SearchLink returns a web search URL for label.
func SearchLink(label string) string {
	return SearchURL + "#" + url.Values{"q": {label}}.Encode()
}
