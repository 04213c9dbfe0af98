// Package client is the Go SDK for the cybx protect score API.
//
// It wraps the four score endpoints and engagement event recording in a
// small JSON-over-HTTP client:
//
//	c := client.New("http://localhost:8080")
//	score, err := c.GetScore(ctx, deviceID)
//	fmt.Println(score.TotalScore, score.Status)
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// ScoreBreakdown itemises the components of a computed total.
type ScoreBreakdown struct {
	SecurityScore      int `json:"security_score"`
	SecurityDeductions int `json:"security_deductions"`
	EngagementPoints   int `json:"engagement_points"`
	InsurancePoints    int `json:"insurance_points"`
}

// ScoreResult is the response of the score and preview endpoints.
type ScoreResult struct {
	DeviceID         string         `json:"device_id"`
	TotalScore       int            `json:"total_score"`
	Status           string         `json:"status"`
	ColorCode        string         `json:"color_code"`
	Message          string         `json:"message"`
	Breakdown        ScoreBreakdown `json:"breakdown"`
	LastCalculatedAt time.Time      `json:"last_calculated_at"`
}

// PreviewRequest is the payload for PreviewScore.
type PreviewRequest struct {
	ThreatIDs          []string `json:"threat_ids"`
	IgnoreOtherThreats *bool    `json:"ignore_other_threats,omitempty"`
}

// TrendPoint is one day of the weekly progress series.
type TrendPoint struct {
	Date       string `json:"date"`
	TotalScore int    `json:"total_score"`
}

// WeeklyProgress is the response of the weekly-progress endpoint.
type WeeklyProgress struct {
	Period string `json:"period"`
	Trend  struct {
		Points         []TrendPoint `json:"points"`
		ChangeAbsolute int          `json:"change_absolute"`
		ChangePercent  float64      `json:"change_percent"`
	} `json:"trend"`
	ProtectionProgress struct {
		CurrentStreakDays       int    `json:"current_streak_days"`
		PhishingBlockedThisWeek int    `json:"phishing_blocked_this_week"`
		Suggestion              string `json:"suggestion"`
	} `json:"protection_progress"`
}

// SummaryBlock is one half of the protection summary.
type SummaryBlock struct {
	LinksScanned  int `json:"links_scanned"`
	SpamBlocked   int `json:"spam_blocked"`
	AppIssues     int `json:"app_issues"`
	NetworkIssues int `json:"network_issues"`
	DeviceIssues  int `json:"device_issues"`
	OtherIssues   int `json:"other_issues"`
}

// ProtectionSummary is the response of the protection-summary endpoint.
type ProtectionSummary struct {
	Scope            string       `json:"scope"`
	ActiveWindowDays int          `json:"active_window_days"`
	Active           SummaryBlock `json:"active"`
	Lifetime         SummaryBlock `json:"lifetime"`
}

// RecordEventRequest is the payload for RecordEngagementEvent.
type RecordEventRequest struct {
	EventType  string         `json:"event_type"`
	Points     *int           `json:"points,omitempty"`
	OccurredAt *time.Time     `json:"occurred_at,omitempty"`
	Meta       map[string]any `json:"meta,omitempty"`
}

// APIError is returned when the server responds with a non-2xx status.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("protect API error %d: %s", e.StatusCode, e.Message)
}

// Client is the protect SDK entry point.
type Client struct {
	base       string
	httpClient *http.Client
}

// Option is a functional option for configuring a Client.
type Option func(*Client)

// WithHTTPClient sets a custom http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// New creates a Client for the protect API at base, e.g. "http://localhost:8080".
func New(base string, opts ...Option) *Client {
	c := &Client{
		base:       base,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// GetScore recomputes and persists the device's score.
func (c *Client) GetScore(ctx context.Context, deviceID string) (*ScoreResult, error) {
	var out ScoreResult
	err := c.do(ctx, http.MethodGet, "/v1/devices/"+deviceID+"/score", nil, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// PreviewScore computes a what-if score over the given threat subset without
// persisting anything server-side.
func (c *Client) PreviewScore(ctx context.Context, deviceID string, req PreviewRequest) (*ScoreResult, error) {
	var out ScoreResult
	err := c.do(ctx, http.MethodPost, "/v1/devices/"+deviceID+"/score/preview", req, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// WeeklyProgress fetches the 7-day trend for the device.
func (c *Client) WeeklyProgress(ctx context.Context, deviceID string) (*WeeklyProgress, error) {
	var out WeeklyProgress
	err := c.do(ctx, http.MethodGet, "/v1/devices/"+deviceID+"/score/weekly-progress", nil, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// ProtectionSummary fetches the 30-day and lifetime metric aggregates.
func (c *Client) ProtectionSummary(ctx context.Context, deviceID string) (*ProtectionSummary, error) {
	var out ProtectionSummary
	err := c.do(ctx, http.MethodGet, "/v1/devices/"+deviceID+"/protection-summary", nil, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// RecordEngagementEvent appends an engagement event for the device.
func (c *Client) RecordEngagementEvent(ctx context.Context, deviceID string, req RecordEventRequest) error {
	return c.do(ctx, http.MethodPost, "/v1/devices/"+deviceID+"/engagement-events", req, nil)
}

// do performs one JSON request/response round trip.
func (c *Client) do(ctx context.Context, method, path string, reqBody, respBody any) error {
	var body io.Reader
	if reqBody != nil {
		b, err := json.Marshal(reqBody)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if reqBody != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var apiErr struct {
			Error string `json:"error"`
		}
		data, _ := io.ReadAll(resp.Body)
		if json.Unmarshal(data, &apiErr) != nil || apiErr.Error == "" {
			apiErr.Error = string(data)
		}
		return &APIError{StatusCode: resp.StatusCode, Message: apiErr.Error}
	}

	if respBody == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(respBody); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
