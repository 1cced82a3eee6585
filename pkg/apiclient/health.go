package apiclient

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"
)

// Health is the envelope of the health endpoints.
type Health struct {
	Status    string          `json:"status"`
	Timestamp time.Time       `json:"timestamp"`
	Data      json.RawMessage `json:"data,omitempty"`
	Error     string          `json:"error,omitempty"`
}

// Liveness is the payload of the liveness probe.
type Liveness struct {
	Service   string `json:"service"`
	StartedAt string `json:"started_at"`
	Uptime    string `json:"uptime"`
	UptimeSec int64  `json:"uptime_sec"`
}

// Readiness is the payload of the readiness probe.
type Readiness struct {
	State           string   `json:"state"`
	Started         []string `json:"started"`
	RestartRequired bool     `json:"restart_required"`
	Backend         string   `json:"backend"`
	StoreLatency    string   `json:"store_latency,omitempty"`
}

// Health checks server liveness.
func (c *Client) Health() (*Health, error) {
	return getResource[Health](c, "/health")
}

// Liveness checks server liveness and decodes its payload.
func (c *Client) Liveness() (*Liveness, error) {
	h, err := c.Health()
	if err != nil {
		return nil, err
	}
	live := &Liveness{}
	if len(h.Data) > 0 {
		if err := json.Unmarshal(h.Data, live); err != nil {
			return nil, err
		}
	}
	return live, nil
}

// Ready returns the readiness report. A 503 still carries the report, so it
// is decoded and returned with ready set to false.
func (c *Client) Ready() (report *Readiness, ready bool, err error) {
	var h Health
	err = c.get("/health/ready", &h)

	var apiErr *APIError
	switch {
	case err == nil:
		ready = true
	case errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusServiceUnavailable:
		if jsonErr := json.Unmarshal([]byte(apiErr.Message), &h); jsonErr != nil {
			return nil, false, err
		}
	default:
		return nil, false, err
	}

	report = &Readiness{}
	if len(h.Data) > 0 {
		if err := json.Unmarshal(h.Data, report); err != nil {
			return nil, false, err
		}
	}
	return report, ready, nil
}
