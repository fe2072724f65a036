// Package weather fetches current conditions from OpenWeatherMap and caches
// them in Redis.
package weather

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const DefaultCacheTTL = 10 * time.Minute

var (
	ErrNotConfigured = errors.New("weather: api key not configured")
	ErrBadCoords     = errors.New("weather: coordinates out of range")
	ErrUpstream      = errors.New("weather: upstream error")
)

type Conditions struct {
	Location    string  `json:"location"`
	Summary     string  `json:"summary"`
	Description string  `json:"description"`
	TempC       float64 `json:"tempC"`
	FeelsLikeC  float64 `json:"feelsLikeC"`
	Humidity    int     `json:"humidity"`
	WindSpeed   float64 `json:"windSpeed"`
	Cached      bool    `json:"cached"`
}

type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	cache      *redis.Client
	ttl        time.Duration
}

// NewClient builds a client; cache may be nil.
func NewClient(baseURL, apiKey string, cache *redis.Client) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 5 * time.Second},
		cache:      cache,
		ttl:        DefaultCacheTTL,
	}
}

func NewRedis(ctx context.Context, rawURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("redis: parse URL: %w", err)
	}
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis: ping: %w", err)
	}
	return client, nil
}

// cacheKey rounds to two decimals (about 1 km) so nearby requests share an entry.
func cacheKey(lat, lon float64) string {
	round := func(v float64) float64 { return math.Round(v*100) / 100 }
	return fmt.Sprintf("weather:%.2f:%.2f", round(lat), round(lon))
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func (c *Client) Current(ctx context.Context, lat, lon float64) (*Conditions, error) {
	if !finite(lat) || !finite(lon) || lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return nil, ErrBadCoords
	}
	if c.apiKey == "" {
		return nil, ErrNotConfigured
	}

	key := cacheKey(lat, lon)
	if c.cache != nil {
		if raw, err := c.cache.Get(ctx, key).Bytes(); err == nil {
			var cond Conditions
			if json.Unmarshal(raw, &cond) == nil {
				cond.Cached = true
				return &cond, nil
			}
		}
	}

	cond, err := c.fetch(ctx, lat, lon)
	if err != nil {
		return nil, err
	}

	if c.cache != nil {
		if raw, err := json.Marshal(cond); err == nil {
			_ = c.cache.Set(ctx, key, raw, c.ttl).Err()
		}
	}
	return cond, nil
}

func (c *Client) fetch(ctx context.Context, lat, lon float64) (*Conditions, error) {
	q := url.Values{}
	q.Set("lat", strconv.FormatFloat(lat, 'f', 4, 64))
	q.Set("lon", strconv.FormatFloat(lon, 'f', 4, 64))
	q.Set("appid", c.apiKey)
	q.Set("units", "metric")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/weather?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("%w: status %d: %s", ErrUpstream, resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var r struct {
		Name    string `json:"name"`
		Weather []struct {
			Main        string `json:"main"`
			Description string `json:"description"`
		} `json:"weather"`
		Main struct {
			Temp      float64 `json:"temp"`
			FeelsLike float64 `json:"feels_like"`
			Humidity  int     `json:"humidity"`
		} `json:"main"`
		Wind struct {
			Speed float64 `json:"speed"`
		} `json:"wind"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&r); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	cond := &Conditions{
		Location:   r.Name,
		TempC:      r.Main.Temp,
		FeelsLikeC: r.Main.FeelsLike,
		Humidity:   r.Main.Humidity,
		WindSpeed:  r.Wind.Speed,
	}
	if len(r.Weather) > 0 {
		cond.Summary = r.Weather[0].Main
		cond.Description = r.Weather[0].Description
	}
	return cond, nil
}
