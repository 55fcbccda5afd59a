package names

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"
)

// StaticLookup serves name variants from an in-memory table, typically
// loaded from a JSON file shipped with the deployment.
type StaticLookup struct {
	variants map[string][]string
}

// NewStaticLookup wraps a given-name variant table. Keys are matched
// case-insensitively.
func NewStaticLookup(variants map[string][]string) *StaticLookup {
	table := make(map[string][]string, len(variants))
	for name, vs := range variants {
		table[strings.ToLower(name)] = vs
	}
	return &StaticLookup{variants: table}
}

// LoadStaticLookup reads a JSON object of given name -> variant names.
func LoadStaticLookup(path string) (*StaticLookup, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read variants file: %w", err)
	}

	var variants map[string][]string
	if err := json.Unmarshal(data, &variants); err != nil {
		return nil, fmt.Errorf("parse variants file: %w", err)
	}
	return NewStaticLookup(variants), nil
}

func (l *StaticLookup) Variants(_ context.Context, given string) ([]string, error) {
	return l.variants[strings.ToLower(given)], nil
}

// HTTPLookup queries a name-variant service over HTTP. The service is
// expected to answer GET {base}/{name} with {"names": [...]}.
type HTTPLookup struct {
	httpClient *http.Client
	baseURL    string
}

// NewHTTPLookup creates an HTTPLookup with the given request timeout.
func NewHTTPLookup(baseURL string, timeout time.Duration) *HTTPLookup {
	return &HTTPLookup{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(baseURL, "/"),
	}
}

type variantsResponse struct {
	Names []string `json:"names"`
}

func (l *HTTPLookup) Variants(ctx context.Context, given string) ([]string, error) {
	reqURL := fmt.Sprintf("%s/%s", l.baseURL, url.PathEscape(strings.ToLower(given)))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := l.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		// no data for this name is not an error
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	var vr variantsResponse
	if err := json.NewDecoder(resp.Body).Decode(&vr); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return vr.Names, nil
}
