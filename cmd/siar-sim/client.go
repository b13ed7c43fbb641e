package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// deviceConfig mirrors the /api/configuracion payload.
type deviceConfig struct {
	UmbralMin           *int       `json:"umbral_min"`
	UmbralMax           *int       `json:"umbral_max"`
	ScheduledModeActive bool       `json:"modo_programado_activo"`
	Schedules           []schedule `json:"horarios"`
}

type schedule struct {
	Time     string `json:"hora"`
	Days     []int  `json:"dias"`
	Duration int    `json:"duracion"`
}

// deviceClient speaks the device-facing API with a single key.
type deviceClient struct {
	base string
	key  string
	http *http.Client
}

func newDeviceClient(base, key string) *deviceClient {
	return &deviceClient{base: base, key: key, http: &http.Client{Timeout: 10 * time.Second}}
}

func (c *deviceClient) post(ctx context.Context, path string, body map[string]interface{}) error {
	body["device_key"] = c.key
	jsonData, _ := json.Marshal(body)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+path, bytes.NewBuffer(jsonData))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("server not reachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("%s returned %d: %s", path, resp.StatusCode, string(b))
	}
	return nil
}

func (c *deviceClient) SendReading(ctx context.Context, humidity float64) error {
	return c.post(ctx, "/api/lectura", map[string]interface{}{"humedad": humidity})
}

func (c *deviceClient) ReportStatus(ctx context.Context, status string) error {
	return c.post(ctx, "/api/device/status", map[string]interface{}{"status": status})
}

// LogIrrigation reports a finished watering; humidity is set for sensor runs.
func (c *deviceClient) LogIrrigation(ctx context.Context, seconds float64, humidity *float64) error {
	body := map[string]interface{}{"duracion_seg": seconds}
	if humidity != nil {
		body["humedad_actual"] = *humidity
	}
	return c.post(ctx, "/api/log_riego", body)
}

func (c *deviceClient) FetchConfig(ctx context.Context) (*deviceConfig, error) {
	u := c.base + "/api/configuracion?device_key=" + url.QueryEscape(c.key)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("server not reachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("configuracion returned %d: %s", resp.StatusCode, string(b))
	}
	var cfg deviceConfig
	if err := json.NewDecoder(resp.Body).Decode(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
