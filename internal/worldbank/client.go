// Package worldbank implements the remote observation source against the
// World Bank v2 REST API. One request is issued per (indicator, country)
// pair; a failed country is logged and skipped so the rest of the batch
// still succeeds.
package worldbank

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"esgcli/internal/pipeline"
	"esgcli/pkg/contracts/domain"
)

// DefaultBaseURL is the public World Bank API endpoint.
const DefaultBaseURL = "https://api.worldbank.org/v2"

// Indicator codes used by the default analysis.
const (
	IndicatorCO2PerCapita = "EN.GHG.CO2.PC.CE.AR5" // CO2 emissions, metric tons per capita
	IndicatorGDPPerCapita = "NY.GDP.PCAP.CD"       // GDP per capita, current US$
	IndicatorGDP          = "NY.GDP.MKTP.CD"       // GDP, current US$
)

const (
	defaultTimeout     = 10 * time.Second
	defaultConcurrency = 5
	defaultRateLimit   = rate.Limit(10)
	defaultRateBurst   = 5
	perPage            = 100
)

// Client fetches indicator series country by country. The API has no
// full-fidelity multi-country batch query, and the per-country request is
// also the failure isolation boundary: one unreachable country must not
// take down the batch.
type Client struct {
	baseURL     string
	httpClient  *http.Client
	limiter     *rate.Limiter
	logger      *slog.Logger
	timeout     time.Duration
	concurrency int
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL points the client at a different endpoint, typically a test
// server.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) { c.baseURL = baseURL }
}

// WithHTTPClient substitutes the underlying HTTP client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) { c.httpClient = httpClient }
}

// WithTimeout bounds each per-country request.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.timeout = timeout
		}
	}
}

// WithConcurrency caps the number of in-flight per-country requests.
func WithConcurrency(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.concurrency = n
		}
	}
}

// WithRateLimit throttles outbound requests to rps with the given burst.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *Client) {
		if rps > 0 && burst > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
		}
	}
}

// WithLogger sets the client logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewClient creates a World Bank API client with sensible defaults.
func NewClient(opts ...Option) *Client {
	c := &Client{
		baseURL:     DefaultBaseURL,
		httpClient:  &http.Client{},
		limiter:     rate.NewLimiter(defaultRateLimit, defaultRateBurst),
		logger:      slog.Default(),
		timeout:     defaultTimeout,
		concurrency: defaultConcurrency,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Kind identifies this source strategy.
func (c *Client) Kind() string { return "worldbank" }

// apiObservation mirrors one element of the API's observation array.
type apiObservation struct {
	Indicator struct {
		ID string `json:"id"`
	} `json:"indicator"`
	Country struct {
		Value string `json:"value"`
	} `json:"country"`
	CountryCode string   `json:"countryiso3code"`
	Date        string   `json:"date"`
	Value       *float64 `json:"value"`
}

// Fetch retrieves one indicator for every country in the list. Countries
// are fetched with bounded parallelism; a timeout or non-2xx response for
// one country is logged as a warning and that country is skipped. Results
// keep the caller's country order. If every country fails, the result is
// an empty slice and a nil error; only context cancellation aborts the
// whole call.
func (c *Client) Fetch(ctx context.Context, indicatorID string, countries []string, years pipeline.YearRange) ([]domain.RawObservation, error) {
	perCountry := make([][]domain.RawObservation, len(countries))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.concurrency)
	for i, country := range countries {
		i, country := i, country
		g.Go(func() error {
			observations, err := c.fetchCountry(gctx, indicatorID, country, years)
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				c.logger.WarnContext(gctx, "country fetch failed, skipping",
					slog.String("indicator", indicatorID),
					slog.String("country", country),
					slog.String("error", err.Error()))
				fetchRequests.WithLabelValues(indicatorID, "error").Inc()
				return nil
			}
			fetchRequests.WithLabelValues(indicatorID, "ok").Inc()
			observationsFetched.WithLabelValues(indicatorID).Add(float64(len(observations)))
			perCountry[i] = observations
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var all []domain.RawObservation
	for _, observations := range perCountry {
		all = append(all, observations...)
	}
	c.logger.InfoContext(ctx, "indicator fetch finished",
		slog.String("indicator", indicatorID),
		slog.Int("countries", len(countries)),
		slog.Int("observations", len(all)))
	return all, nil
}

// fetchCountry performs one rate-limited, timeout-bounded request.
func (c *Client) fetchCountry(ctx context.Context, indicatorID, country string, years pipeline.YearRange) ([]domain.RawObservation, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	endpoint := fmt.Sprintf("%s/country/%s/indicator/%s", c.baseURL, url.PathEscape(country), url.PathEscape(indicatorID))
	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	q := req.URL.Query()
	q.Set("format", "json")
	q.Set("date", years.String())
	q.Set("per_page", fmt.Sprint(perPage))
	req.URL.RawQuery = q.Encode()

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	return decodeEnvelope(resp.Body, indicatorID)
}

// decodeEnvelope unpacks the API's two-element response: metadata first,
// then the observation array. A missing second element is a fetch failure;
// an explicit null second element means the country has no data and yields
// zero observations.
func decodeEnvelope(r io.Reader, indicatorID string) ([]domain.RawObservation, error) {
	var envelope []json.RawMessage
	if err := json.NewDecoder(r).Decode(&envelope); err != nil {
		return nil, fmt.Errorf("decode envelope: %w", err)
	}
	if len(envelope) < 2 {
		return nil, fmt.Errorf("envelope has %d elements, want 2", len(envelope))
	}

	var items []apiObservation
	if err := json.Unmarshal(envelope[1], &items); err != nil {
		return nil, fmt.Errorf("decode observations: %w", err)
	}

	observations := make([]domain.RawObservation, 0, len(items))
	for _, item := range items {
		observations = append(observations, domain.RawObservation{
			CountryName: item.Country.Value,
			CountryCode: item.CountryCode,
			Date:        item.Date,
			Value:       item.Value,
			IndicatorID: indicatorID,
		})
	}
	return observations, nil
}
