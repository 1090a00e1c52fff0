package clients

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"go.uber.org/zap"

	"spinroute/backend/services/station-refresh/internal/models"
)

// ErrUpstreamStatus is returned for any non-2xx answer from the aggregator.
var ErrUpstreamStatus = errors.New("upstream returned non-success status")

const (
	defaultTimeout  = 8 * time.Second
	maxErrorBodyLen = 512
)

// HTTPDoer defines http.Client interface subset.
type HTTPDoer interface {
	Do(*http.Request) (*http.Response, error)
}

// CityBikesClient reads network station lists from the aggregator REST API.
type CityBikesClient struct {
	baseURL string
	client  HTTPDoer
	logger  *zap.Logger
}

// NewCityBikesClient returns a client with a bounded per-request timeout.
func NewCityBikesClient(baseURL string, timeout time.Duration, logger *zap.Logger) *CityBikesClient {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return NewCityBikesClientWithDoer(baseURL, &http.Client{Timeout: timeout}, logger)
}

// NewCityBikesClientWithDoer allows injecting the transport.
func NewCityBikesClientWithDoer(baseURL string, doer HTTPDoer, logger *zap.Logger) *CityBikesClient {
	return &CityBikesClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  doer,
		logger:  logger,
	}
}

// FetchNetwork issues GET /v2/networks/{id} and decodes the payload.
func (c *CityBikesClient) FetchNetwork(ctx context.Context, sourceID string) (*models.UpstreamNetwork, error) {
	endpoint := fmt.Sprintf("%s/v2/networks/%s", c.baseURL, url.PathEscape(sourceID))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch network %s: %w", sourceID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyLen))
		return nil, fmt.Errorf("%w: %d %s", ErrUpstreamStatus, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var payload models.UpstreamResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode network %s: %w", sourceID, err)
	}
	return &payload.Network, nil
}

// FetchStations returns the network's stations, or ok=false when nothing usable
// came back. Failures are logged and never returned so one unreachable network
// cannot abort a batch.
func (c *CityBikesClient) FetchStations(ctx context.Context, sourceID string) ([]models.UpstreamStation, bool) {
	network, err := c.FetchNetwork(ctx, sourceID)
	if err != nil {
		c.logger.Warn("upstream fetch failed", zap.String("source_id", sourceID), zap.Error(err))
		return nil, false
	}
	return network.Stations, true
}
