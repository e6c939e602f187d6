// Package watch implements the skyclock watcher client. It polls the sky
// over the public API and can adjust the season through the admin API.
package watch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/dustin/go-humanize"
)

// Status mirrors GET /api/v1/status.
type Status struct {
	Name        string  `json:"name"`
	WorldID     string  `json:"world_id"`
	Tick        int64   `json:"tick"`
	SimTime     string  `json:"sim_time"`
	Season      string  `json:"season"`
	SubSeason   string  `json:"sub_season"`
	Calendar    string  `json:"calendar"`
	CycleTick   int64   `json:"cycle_tick"`
	Daytime     int64   `json:"daytime"`
	Phase       string  `json:"phase"`
	NextSunrise int64   `json:"next_sunrise"`
	Speed       float64 `json:"speed"`
	Running     bool    `json:"running"`
}

// Sky mirrors GET /api/v1/sky.
type Sky struct {
	WorldTime   int64   `json:"world_time"`
	CycleTick   int64   `json:"cycle_tick"`
	Daytime     int64   `json:"daytime"`
	Angle       float32 `json:"angle"`
	Phase       string  `json:"phase"`
	Skylight    int     `json:"skylight_subtracted"`
	IsDay       bool    `json:"is_day"`
	MoonPhase   int     `json:"moon_phase"`
	NextSunrise int64   `json:"next_sunrise"`
}

// Snapshot holds the data collected during one observation.
type Snapshot struct {
	Status Status `json:"status"`
	Sky    Sky    `json:"sky"`
}

// UntilSunrise returns the ticks left before the next sunrise.
func (s *Snapshot) UntilSunrise() int64 {
	return s.Sky.NextSunrise - s.Sky.WorldTime
}

// Summary is a one-line description of the snapshot.
func (s *Snapshot) Summary() string {
	return fmt.Sprintf("%s, %s: %s, %s ticks of daylight, sunrise in %s ticks",
		s.Status.SimTime, s.Status.Calendar, s.Sky.Phase,
		humanize.Comma(s.Sky.Daytime), humanize.Comma(s.UntilSunrise()))
}

// Observer fetches the sky from the API.
type Observer struct {
	BaseURL    string
	HTTPClient *http.Client
}

// NewObserver creates an Observer targeting the given API base URL.
func NewObserver(baseURL string) *Observer {
	return &Observer{
		BaseURL: baseURL,
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Observe fetches the status and sky endpoints.
func (o *Observer) Observe(ctx context.Context) (*Snapshot, error) {
	snap := &Snapshot{}

	if err := o.fetchJSON(ctx, "/api/v1/status", &snap.Status); err != nil {
		return nil, fmt.Errorf("fetch status: %w", err)
	}
	if err := o.fetchJSON(ctx, "/api/v1/sky", &snap.Sky); err != nil {
		return nil, fmt.Errorf("fetch sky: %w", err)
	}
	return snap, nil
}

// fetchJSON GETs a path and decodes the JSON response into target.
func (o *Observer) fetchJSON(ctx context.Context, path string, target any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, o.BaseURL+path, nil)
	if err != nil {
		return err
	}
	resp, err := o.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(body))
	}
	return json.Unmarshal(body, target)
}

// WaitForAPI polls the status endpoint with exponential backoff until it
// responds, ctx is done, or timeout elapses.
func (o *Observer) WaitForAPI(ctx context.Context, timeout time.Duration) error {
	backoff := 100 * time.Millisecond
	maxBackoff := 30 * time.Second
	deadline := time.Now().Add(timeout)

	for {
		var status Status
		err := o.fetchJSON(ctx, "/api/v1/status", &status)
		if err == nil {
			slog.Info("skyclock API is ready", "world", status.Name)
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("API did not become ready within %v: %w", timeout, err)
		}
		slog.Debug("skyclock not ready, retrying", "backoff", backoff, "error", err)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
		if backoff > maxBackoff {
			backoff = maxBackoff
		}
	}
}
