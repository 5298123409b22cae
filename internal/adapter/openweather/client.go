// Package openweather implements the weather source against the OpenWeather
// current-weather API. The engine falls back to local simulation when this
// adapter errors, so failures here are reported, never papered over.
package openweather

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/civicfix/report-service/internal/domain"
	"github.com/civicfix/report-service/internal/observability"
)

// Client implements domain.WeatherSource using OpenWeather.
type Client struct {
	apiKey     string
	httpClient *http.Client
	baseURL    string
	logger     *slog.Logger
	metrics    *observability.Metrics
}

// NewClient creates an OpenWeather client.
func NewClient(apiKey string, timeout time.Duration, logger *slog.Logger, metrics *observability.Metrics) *Client {
	return &Client{
		apiKey: apiKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL: "https://api.openweathermap.org",
		logger:  logger,
		metrics: metrics,
	}
}

// Current fetches the current weather at a coordinate in metric units.
func (c *Client) Current(ctx context.Context, lat, lng float64) (domain.Weather, error) {
	params := url.Values{
		"lat":   {fmt.Sprintf("%f", lat)},
		"lon":   {fmt.Sprintf("%f", lng)},
		"appid": {c.apiKey},
		"units": {"metric"},
	}
	fullURL := c.baseURL + "/data/2.5/weather?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return domain.Weather{}, fmt.Errorf("create request: %w", err)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	c.metrics.WeatherDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		c.metrics.WeatherRequests.WithLabelValues("error").Inc()
		return domain.Weather{}, fmt.Errorf("weather request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		c.metrics.WeatherRequests.WithLabelValues("error").Inc()
		return domain.Weather{}, fmt.Errorf("openweather API error: status %d: %s", resp.StatusCode, body)
	}

	var owResp response
	if err := json.NewDecoder(resp.Body).Decode(&owResp); err != nil {
		c.metrics.WeatherRequests.WithLabelValues("error").Inc()
		return domain.Weather{}, fmt.Errorf("decode response: %w", err)
	}

	weather := domain.Weather{
		Temperature: int(owResp.Main.Temp),
		Humidity:    owResp.Main.Humidity,
	}
	if len(owResp.Weather) > 0 {
		cond := owResp.Weather[0]
		weather.Description = cond.Description
		weather.IsRaining = strings.Contains(strings.ToLower(cond.Main), "rain")
	}

	c.metrics.WeatherRequests.WithLabelValues("success").Inc()
	return weather, nil
}

// OpenWeather API response types.

type response struct {
	Weather []condition `json:"weather"`
	Main    readings    `json:"main"`
}

type condition struct {
	Main        string `json:"main"`
	Description string `json:"description"`
}

type readings struct {
	Temp     float64 `json:"temp"`
	Humidity int     `json:"humidity"`
}
