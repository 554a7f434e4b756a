// Package fetch performs the single GET each chart needs and decodes the
// response into a core.LabeledSeries.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"cruscotto/internal/core"
)

// FetchError reports a failed fetch. Err is the network, status or parse
// cause.
type FetchError struct {
	Endpoint string
	Err      error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.Endpoint, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// StatusError is the cause carried by a FetchError when the server answered
// with a non-2xx status.
type StatusError struct {
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d %s", e.StatusCode, http.StatusText(e.StatusCode))
}

// Doer is the subset of *http.Client the fetcher uses.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Fetcher issues GET requests against a base URL. It never retries and
// keeps nothing between calls.
type Fetcher struct {
	baseURL *url.URL
	client  Doer
}

// New returns a Fetcher resolving endpoint paths against baseURL. A nil
// client means http.DefaultClient.
func New(baseURL string, client Doer) (*Fetcher, error) {
	u, err := url.Parse(strings.TrimSpace(baseURL))
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("base url %q: scheme must be http or https", baseURL)
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &Fetcher{baseURL: u, client: client}, nil
}

// Fetch performs one GET of endpoint and decodes the JSON object body.
// Every failure is returned as a *FetchError.
func (f *Fetcher) Fetch(ctx context.Context, endpoint string) (core.LabeledSeries, error) {
	ref, err := url.Parse(endpoint)
	if err != nil {
		return core.LabeledSeries{}, &FetchError{Endpoint: endpoint, Err: err}
	}
	target := f.baseURL.ResolveReference(ref).String()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return core.LabeledSeries{}, &FetchError{Endpoint: endpoint, Err: err}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		return core.LabeledSeries{}, &FetchError{Endpoint: endpoint, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return core.LabeledSeries{}, &FetchError{Endpoint: endpoint, Err: &StatusError{StatusCode: resp.StatusCode}}
	}

	series, err := core.DecodeLabeledSeries(resp.Body)
	if err != nil {
		return core.LabeledSeries{}, &FetchError{Endpoint: endpoint, Err: fmt.Errorf("decode body: %w", err)}
	}
	return series, nil
}
