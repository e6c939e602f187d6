package watch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// SeasonInfo is the response from /api/v1/season.
type SeasonInfo struct {
	Calendar       string `json:"calendar"`
	Season         string `json:"season"`
	SubSeason      string `json:"sub_season"`
	DayOfSubSeason int64  `json:"day_of_sub_season"`
	CycleTick      int64  `json:"cycle_tick"`
	CycleDuration  int64  `json:"cycle_duration"`
	Daytime        int64  `json:"daytime"`
}

// Actor changes the world through the admin API.
type Actor struct {
	BaseURL    string
	AdminKey   string
	HTTPClient *http.Client
}

// NewActor creates an Actor targeting the given API base URL with admin auth.
func NewActor(baseURL, adminKey string) *Actor {
	return &Actor{
		BaseURL:  baseURL,
		AdminKey: adminKey,
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// SetSubSeason moves the world to the start of the named sub-season. The
// name is resolved by the server.
func (a *Actor) SetSubSeason(ctx context.Context, name string) (*SeasonInfo, error) {
	var info SeasonInfo
	if err := a.post(ctx, "/api/v1/season", map[string]string{"sub_season": name}, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// SetSpeed changes the engine speed multiplier.
func (a *Actor) SetSpeed(ctx context.Context, speed float64) (float64, error) {
	var resp struct {
		Speed float64 `json:"speed"`
	}
	if err := a.post(ctx, "/api/v1/speed", map[string]float64{"speed": speed}, &resp); err != nil {
		return 0, err
	}
	return resp.Speed, nil
}

func (a *Actor) post(ctx context.Context, path string, payload, target any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.BaseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+a.AdminKey)

	resp, err := a.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("POST %s: %w", path, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("POST %s failed (%d): %s", path, resp.StatusCode, bytes.TrimSpace(respBody))
	}
	if err := json.Unmarshal(respBody, target); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
