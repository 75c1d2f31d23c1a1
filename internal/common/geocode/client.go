// Package geocode resolves postal addresses to geographic coordinates via an
// external lookup service.
package geocode

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

	"github.com/redis/go-redis/v9"

	"rentdesk/internal/common/config"
	"rentdesk/internal/common/logger"
)

// Point is a resolved longitude/latitude. The zero value (0,0) is the
// "unknown location" sentinel, not a valid coordinate.
type Point struct {
	Longitude float64 `json:"longitude"`
	Latitude  float64 `json:"latitude"`
}

// IsUnknown reports whether the point is the unknown-location sentinel.
func (p Point) IsUnknown() bool {
	return p.Longitude == 0 && p.Latitude == 0
}

// Address is the structured lookup input.
type Address struct {
	Street     string
	City       string
	Country    string
	PostalCode string
}

type searchResult struct {
	Lat string `json:"lat"`
	Lon string `json:"lon"`
}

// Client calls a Nominatim-style search endpoint. Responses are cached in
// Redis when a cache client is supplied.
type Client struct {
	baseURL    string
	httpClient *http.Client
	cache      *redis.Client
	cacheTTL   time.Duration
	logger     logger.Logger
}

// New creates a geocoding client. cache may be nil to disable caching.
func New(cfg config.GeocodingConfig, cache *redis.Client, log logger.Logger) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
		httpClient: &http.Client{
			Timeout: config.GetDuration(cfg.Timeout),
		},
		cache:    cache,
		cacheTTL: time.Duration(cfg.CacheTTL) * time.Second,
		logger:   log.WithFields(map[string]interface{}{"component": "geocode"}),
	}
}

// Resolve looks up the address. A response without usable coordinates yields
// the (0,0) sentinel rather than an error; transport failures are errors.
func (c *Client) Resolve(ctx context.Context, addr Address) (Point, error) {
	cacheKey := c.cacheKey(addr)

	if c.cache != nil {
		if cached, err := c.cache.Get(ctx, cacheKey).Result(); err == nil {
			if point, ok := parseCached(cached); ok {
				return point, nil
			}
		}
	}

	point, err := c.lookup(ctx, addr)
	if err != nil {
		return Point{}, err
	}

	if c.cache != nil {
		if err := c.cache.Set(ctx, cacheKey, formatCached(point), c.cacheTTL).Err(); err != nil {
			c.logger.Warn("geocode cache write failed", map[string]interface{}{
				"key":   cacheKey,
				"error": err.Error(),
			})
		}
	}

	return point, nil
}

func (c *Client) lookup(ctx context.Context, addr Address) (Point, error) {
	params := url.Values{}
	params.Set("street", addr.Street)
	params.Set("city", addr.City)
	params.Set("country", addr.Country)
	params.Set("postalcode", addr.PostalCode)
	params.Set("format", "json")
	params.Set("limit", "1")

	endpoint := fmt.Sprintf("%s/search?%s", c.baseURL, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return Point{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", "rentdesk (listing geocoder)")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Point{}, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Point{}, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return Point{}, fmt.Errorf("geocoding request failed (status %d): %s", resp.StatusCode, string(body))
	}

	var results []searchResult
	if err := json.Unmarshal(body, &results); err != nil {
		return Point{}, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	if len(results) == 0 {
		c.logger.Warn("no geocoding result, storing unknown location", map[string]interface{}{
			"city":    addr.City,
			"country": addr.Country,
		})
		return Point{}, nil
	}

	lon, lonErr := strconv.ParseFloat(results[0].Lon, 64)
	lat, latErr := strconv.ParseFloat(results[0].Lat, 64)
	if lonErr != nil || latErr != nil {
		c.logger.Warn("geocoding result missing coordinates, storing unknown location", map[string]interface{}{
			"lat": results[0].Lat,
			"lon": results[0].Lon,
		})
		return Point{}, nil
	}

	return Point{Longitude: lon, Latitude: lat}, nil
}

func (c *Client) cacheKey(addr Address) string {
	return fmt.Sprintf("geocode:%s|%s|%s|%s",
		strings.ToLower(addr.Street),
		strings.ToLower(addr.City),
		strings.ToLower(addr.Country),
		strings.ToLower(addr.PostalCode),
	)
}

func formatCached(p Point) string {
	return strconv.FormatFloat(p.Longitude, 'f', -1, 64) + "," + strconv.FormatFloat(p.Latitude, 'f', -1, 64)
}

func parseCached(v string) (Point, bool) {
	parts := strings.SplitN(v, ",", 2)
	if len(parts) != 2 {
		return Point{}, false
	}
	lon, lonErr := strconv.ParseFloat(parts[0], 64)
	lat, latErr := strconv.ParseFloat(parts[1], 64)
	if lonErr != nil || latErr != nil {
		return Point{}, false
	}
	return Point{Longitude: lon, Latitude: lat}, true
}
