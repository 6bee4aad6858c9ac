package officialresults

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// maxBodyBytes bounds the size of a response body.
const maxBodyBytes = 4 << 20

// httpFetcher performs authenticated GET requests against the API.
type httpFetcher struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	classifier ErrorClassifier
}

// NewHTTPFetcher creates the innermost Fetcher of a client chain.
// A nil httpClient uses a client with a 30 second timeout.
func NewHTTPFetcher(baseURL, apiKey string, httpClient *http.Client) Fetcher {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &httpFetcher{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: httpClient,
		classifier: ErrorClassifier{Source: SourceName},
	}
}

func (f *httpFetcher) Name() string { return SourceName }

func (f *httpFetcher) Fetch(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("X-TBA-Auth-Key", f.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, f.classifier.ClassifyTransportError("GET "+path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, f.classifier.ClassifyTransportError("GET "+path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, f.classifier.ClassifyHTTPError("GET "+path, resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return body, nil
}
