// Package forecast talks to the remote forecasting backend.
package forecast

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/wattcast/wattcast/pkg/common"
	"github.com/wattcast/wattcast/pkg/log"
	"github.com/wattcast/wattcast/pkg/types"
)

var (
	// ErrNetwork is returned when the backend could not be reached, answered
	// with a non-success status or sent a body that is not JSON.
	ErrNetwork = errors.New("forecast backend request failed")

	// ErrMalformedResponse is returned alongside an empty forecast when the
	// backend sent JSON in none of the accepted shapes.
	ErrMalformedResponse = errors.New("forecast backend response has unknown shape")

	// ErrInvalidHorizon is returned for a horizon outside Horizons.
	ErrInvalidHorizon = errors.New("invalid forecast horizon")
)

// Horizons lists the multi-step horizons the backend accepts. Horizon 0
// requests the single-step endpoint.
var Horizons = []int{1, 6, 12, 24}

const maxResponseBytes = 1 << 20

// ValidHorizon reports whether h can be requested.
func ValidHorizon(h int) bool {
	return h == 0 || slices.Contains(Horizons, h)
}

// Client sends readings to the forecasting backend.
type Client struct {
	baseURL string
	client  *http.Client
}

// NewClient returns a client for the backend rooted at baseURL. A nil
// httpClient gets common.HTTPClient with the given timeout.
func NewClient(baseURL string, httpClient *http.Client, timeout time.Duration) *Client {
	if httpClient == nil {
		httpClient = common.HTTPClient(timeout)
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  httpClient,
	}
}

// Validate ensures the configuration is valid.
func (c *Client) Validate() error {
	if c.baseURL == "" {
		return fmt.Errorf("forecast-url is required")
	}
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return fmt.Errorf("failed to parse forecast url (%s): %w", c.baseURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("forecast url must be http or https: %s", c.baseURL)
	}
	return nil
}

func (c *Client) endpoint(horizon int) (string, error) {
	if !ValidHorizon(horizon) {
		return "", fmt.Errorf("%w: %d", ErrInvalidHorizon, horizon)
	}
	if horizon == 0 {
		return c.baseURL + "/predict", nil
	}
	return c.baseURL + "/predict/" + strconv.Itoa(horizon), nil
}

type predictRequest struct {
	Values types.Series `json:"values"`
}

// Predict posts the readings to the backend and returns the normalized
// forecast. On ErrMalformedResponse the returned forecast is empty and safe to
// use.
func (c *Client) Predict(ctx context.Context, series types.Series, horizon int) (types.Forecast, error) {
	endpoint, err := c.endpoint(horizon)
	if err != nil {
		return types.Forecast{}, err
	}
	body, err := json.Marshal(predictRequest{Values: series})
	if err != nil {
		return types.Forecast{}, fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return types.Forecast{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	log.Ctx(ctx).DebugContext(ctx, "requesting forecast", slog.String("url", endpoint), slog.Int("horizon", horizon))
	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		return types.Forecast{}, fmt.Errorf("%w: %w", ErrNetwork, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// drain a little so the connection can be reused
		_, _ = io.CopyN(io.Discard, resp.Body, 512)
		return types.Forecast{}, fmt.Errorf("%w: backend returned status: %d", ErrNetwork, resp.StatusCode)
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return types.Forecast{}, fmt.Errorf("%w: failed to read response: %w", ErrNetwork, err)
	}

	f, err := Decode(raw)
	if err != nil {
		return f, err
	}
	log.Ctx(ctx).DebugContext(
		ctx,
		"got forecast",
		slog.Int("count", len(f.Values)),
		slog.Bool("hint", f.Hint != nil),
		slog.Duration("took", time.Since(start)),
	)
	return f, nil
}
