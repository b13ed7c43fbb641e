package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sony/gobreaker"
)

type owmResponse struct {
	Main struct {
		Temp float64 `json:"temp"`
	} `json:"main"`
	Weather []struct {
		Main        string `json:"main"`
		Description string `json:"description"`
		Icon        string `json:"icon"`
	} `json:"weather"`
}

// OpenWeatherClient queries the OpenWeatherMap current weather endpoint.
type OpenWeatherClient struct {
	apiKey  string
	baseURL string
	http    *http.Client
	cb      *gobreaker.CircuitBreaker
}

func NewOpenWeatherClient(apiKey, baseURL string, timeout time.Duration) *OpenWeatherClient {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &OpenWeatherClient{
		apiKey:  apiKey,
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
		cb: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:    "openweathermap",
			Timeout: 60 * time.Second,
			ReadyToTrip: func(c gobreaker.Counts) bool {
				return c.ConsecutiveFailures >= 3
			},
		}),
	}
}

func (c *OpenWeatherClient) Current(ctx context.Context, city, countryCode string) (*Report, error) {
	if c.apiKey == "" {
		return nil, fmt.Errorf("%w: missing api key", ErrUnavailable)
	}

	res, err := c.cb.Execute(func() (interface{}, error) {
		return c.fetch(ctx, city, countryCode)
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return res.(*Report), nil
}

func (c *OpenWeatherClient) fetch(ctx context.Context, city, countryCode string) (*Report, error) {
	q := url.Values{}
	q.Set("q", city+","+countryCode)
	q.Set("appid", c.apiKey)
	q.Set("units", "metric")
	q.Set("lang", "es")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return nil, fmt.Errorf("owm status %d: %s", resp.StatusCode, string(b))
	}

	var out owmResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, err
	}
	if len(out.Weather) == 0 {
		return nil, fmt.Errorf("unexpected weather response: no conditions")
	}

	w := out.Weather[0]
	return &Report{
		Temp:          int(math.Round(out.Main.Temp)),
		Description:   capitalize(w.Description),
		Icon:          w.Icon,
		MainCondition: w.Main,
	}, nil
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	r := []rune(s)
	return strings.ToUpper(string(r[0])) + string(r[1:])
}
