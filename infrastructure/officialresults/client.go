// Package officialresults fetches authoritative match results from The Blue
// Alliance v3 API and projects them into the scouting field-path namespace.
//
// Requests flow through a middleware chain that adds the cross-cutting
// concerns a rate-limited third-party feed needs:
//
//	client, err := officialresults.NewClient(officialresults.ClientConfig{
//	    APIKey:   os.Getenv("TBA_AUTH_KEY"),
//	    Mappings: rules.OfficialResult,
//	    Middleware: []officialresults.Middleware{
//	        officialresults.MetricsMiddleware(collector),
//	        officialresults.TracingMiddleware("tba"),
//	        officialresults.RetryMiddleware(3, 500*time.Millisecond, 5*time.Second),
//	        officialresults.CircuitBreakerMiddleware(5, 30*time.Second),
//	        officialresults.RateLimitMiddleware(2, 1),
//	        officialresults.TimeoutMiddleware(10*time.Second),
//	    },
//	})
//	gt, err := client.GetOfficialResult(ctx, "2025miket_qm12")
package officialresults

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/ahrav/go-scoutrate/infrastructure/strategies"
	"github.com/ahrav/go-scoutrate/internal/domain"
	"github.com/ahrav/go-scoutrate/internal/ports"
)

// SourceName identifies ground truth produced by this package.
const SourceName = "tba"

// DefaultBaseURL is the public Blue Alliance v3 endpoint.
const DefaultBaseURL = "https://www.thebluealliance.com/api/v3"

// Fetcher retrieves one raw API document. It is the unit the middleware chain
// wraps, so rate limiting, retries and tracing apply per HTTP request.
type Fetcher interface {
	// Fetch returns the body of the document at path, relative to the API
	// base URL. It returns an error wrapping domain.ErrNotFound for missing
	// documents and a *domain.ExternalSourceError for other failures.
	Fetch(ctx context.Context, path string) ([]byte, error)

	// Name identifies the upstream service in metrics and traces.
	Name() string
}

// Middleware wraps a Fetcher to add cross-cutting functionality.
type Middleware func(Fetcher) Fetcher

// ClientConfig holds all configuration options for creating a Client.
type ClientConfig struct {
	// APIKey is sent as the X-TBA-Auth-Key header.
	APIKey string

	// BaseURL overrides DefaultBaseURL.
	BaseURL string

	// HTTPClient overrides the default HTTP client.
	HTTPClient *http.Client

	// Mappings project score breakdown keys onto field paths. Rules without
	// an OfficialPath are ignored.
	Mappings []strategies.FieldRule

	// Middleware is applied in the order specified; the first entry is the
	// outermost.
	Middleware []Middleware

	// Fetcher replaces the HTTP fetcher. Used by tests.
	Fetcher Fetcher

	// Now stamps FetchedAt. Defaults to time.Now.
	Now func() time.Time
}

var _ ports.OfficialResultSource = (*Client)(nil)

// Client implements ports.OfficialResultSource on top of a Fetcher chain.
type Client struct {
	fetcher  Fetcher
	mappings []strategies.FieldRule
	now      func() time.Time
}

// NewClient creates a Client. It assembles the middleware chain around the
// HTTP fetcher (or the configured Fetcher).
func NewClient(config ClientConfig) (*Client, error) {
	fetcher := config.Fetcher
	if fetcher == nil {
		if config.APIKey == "" {
			return nil, ErrEmptyAPIKey
		}
		baseURL := config.BaseURL
		if baseURL == "" {
			baseURL = DefaultBaseURL
		}
		fetcher = NewHTTPFetcher(baseURL, config.APIKey, config.HTTPClient)
	}

	// Apply middleware in reverse order so the first middleware is the outermost.
	for i := len(config.Middleware) - 1; i >= 0; i-- {
		fetcher = config.Middleware[i](fetcher)
	}

	mappings := make([]strategies.FieldRule, 0, len(config.Mappings))
	for _, m := range config.Mappings {
		if m.OfficialPath != "" {
			mappings = append(mappings, m)
		}
	}

	now := config.Now
	if now == nil {
		now = time.Now
	}

	return &Client{fetcher: fetcher, mappings: mappings, now: now}, nil
}

// GetOfficialResult fetches the match and projects its score breakdown into
// per-team field values. Unplayed matches, which have no score breakdown
// yet, are reported as not found.
func (c *Client) GetOfficialResult(ctx context.Context, matchKey string) (*domain.GroundTruth, error) {
	if err := domain.ValidateMatchKey(matchKey); err != nil {
		return nil, err
	}

	body, err := c.fetcher.Fetch(ctx, "/match/"+matchKey)
	if err != nil {
		return nil, err
	}

	var m tbaMatch
	if err := json.Unmarshal(body, &m); err != nil {
		return nil, domain.NewExternalSourceError(SourceName, "decode match", http.StatusOK,
			errors.Join(ports.ErrInvalidResponse, err))
	}
	if m.Key != "" && m.Key != matchKey {
		return nil, domain.NewExternalSourceError(SourceName, "decode match", http.StatusOK,
			fmt.Errorf("%w: requested %s, got %s", ports.ErrInvalidResponse, matchKey, m.Key))
	}
	if len(m.ScoreBreakdown) == 0 {
		return nil, fmt.Errorf("%w: match %s has no published result", domain.ErrNotFound, matchKey)
	}

	gt := project(matchKey, m, c.mappings)
	gt.FetchedAt = c.now()
	return gt, nil
}
