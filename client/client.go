package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/brojonat/walletpulse/service/activity"
)

// Summary is a wallet activity summary as returned by the server.
type Summary struct {
	Wallet      string          `json:"wallet"`
	WindowHours float64         `json:"window_hours"`
	Considered  int             `json:"considered"`
	Total       int             `json:"total"`
	Shown       int             `json:"shown"`
	Events      activity.Events `json:"events"`
	Text        string          `json:"text"`
}

// Schedule is a recurring summary schedule for one wallet.
type Schedule struct {
	Address     string        `json:"address"`
	Interval    time.Duration `json:"-"`
	WindowHours *float64      `json:"window_hours,omitempty"`
}

// ToolDescriptor describes the wallet monitor tool.
type ToolDescriptor struct {
	ID           string         `json:"id"`
	Description  string         `json:"description"`
	InputSchema  map[string]any `json:"inputSchema"`
	OutputSchema map[string]any `json:"outputSchema"`
}

// Client is the HTTP client for the walletpulse summary service.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a new summary service client.
func NewClient(baseURL string, httpClient *http.Client, logger *slog.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 60 * time.Second}
	}
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	return &Client{
		baseURL:    baseURL,
		httpClient: httpClient,
		logger:     logger,
	}
}

func (c *Client) summaryURL(address string, hours *float64, format string) string {
	q := url.Values{}
	if hours != nil {
		q.Set("hours", strconv.FormatFloat(*hours, 'f', -1, 64))
	}
	if format != "" {
		q.Set("format", format)
	}
	u := fmt.Sprintf("%s/api/v1/wallets/%s/summary", c.baseURL, url.PathEscape(address))
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	return u
}

// Summary fetches the structured summary for a wallet. A nil hours uses the
// server's default window.
func (c *Client) Summary(ctx context.Context, address string, hours *float64) (*Summary, error) {
	resp, err := c.do(ctx, "GET", c.summaryURL(address, hours, ""), nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, c.parseErrorResponse(resp)
	}

	var summary Summary
	if err := json.NewDecoder(resp.Body).Decode(&summary); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	c.logger.Debug("summary fetched", "address", address, "total", summary.Total)
	return &summary, nil
}

// Text fetches only the rendered summary text for a wallet.
func (c *Client) Text(ctx context.Context, address string, hours *float64) (string, error) {
	resp, err := c.do(ctx, "GET", c.summaryURL(address, hours, "text"), nil)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", c.parseErrorResponse(resp)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}
	return string(body), nil
}

// UpsertSchedule creates or replaces the summary schedule for a wallet.
// A zero interval uses the server's default.
func (c *Client) UpsertSchedule(ctx context.Context, address string, interval time.Duration, windowHours *float64) (*Schedule, error) {
	reqBody := map[string]interface{}{
		"address": address,
	}
	if interval > 0 {
		reqBody["interval"] = interval.String()
	}
	if windowHours != nil {
		reqBody["window_hours"] = *windowHours
	}

	resp, err := c.doJSON(ctx, "POST", c.baseURL+"/api/v1/schedules", reqBody)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		return nil, c.parseErrorResponse(resp)
	}

	var apiSchedule struct {
		Address     string   `json:"address"`
		Interval    string   `json:"interval"`
		WindowHours *float64 `json:"window_hours"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&apiSchedule); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	d, err := time.ParseDuration(apiSchedule.Interval)
	if err != nil {
		return nil, fmt.Errorf("invalid interval in response: %w", err)
	}

	c.logger.Debug("schedule upserted", "address", address, "interval", d)
	return &Schedule{Address: apiSchedule.Address, Interval: d, WindowHours: apiSchedule.WindowHours}, nil
}

// DeleteSchedule removes the summary schedule for a wallet.
func (c *Client) DeleteSchedule(ctx context.Context, address string) error {
	u := fmt.Sprintf("%s/api/v1/schedules/%s", c.baseURL, url.PathEscape(address))
	resp, err := c.do(ctx, "DELETE", u, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNoContent {
		return c.parseErrorResponse(resp)
	}

	c.logger.Debug("schedule deleted", "address", address)
	return nil
}

// Tool fetches the wallet monitor tool description.
func (c *Client) Tool(ctx context.Context) (*ToolDescriptor, error) {
	resp, err := c.do(ctx, "GET", c.baseURL+"/api/v1/tools/wallet-monitor", nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, c.parseErrorResponse(resp)
	}

	var desc ToolDescriptor
	if err := json.NewDecoder(resp.Body).Decode(&desc); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return &desc, nil
}

// InvokeTool runs the wallet monitor tool and returns its summary text.
func (c *Client) InvokeTool(ctx context.Context, wallet string, timeframeHours *float64) (string, error) {
	reqBody := map[string]interface{}{"wallet": wallet}
	if timeframeHours != nil {
		reqBody["timeframeHours"] = *timeframeHours
	}

	resp, err := c.doJSON(ctx, "POST", c.baseURL+"/api/v1/tools/wallet-monitor", reqBody)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", c.parseErrorResponse(resp)
	}

	var out struct {
		Summary string `json:"summary"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}
	return out.Summary, nil
}

// Health checks that the server is up.
func (c *Client) Health(ctx context.Context) error {
	resp, err := c.do(ctx, "GET", c.baseURL+"/health", nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return c.parseErrorResponse(resp)
	}
	return nil
}

func (c *Client) doJSON(ctx context.Context, method, u string, payload interface{}) (*http.Response, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}
	return c.do(ctx, method, u, bytes.NewReader(body))
}

func (c *Client) do(ctx context.Context, method, u string, body io.Reader) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	return resp, nil
}

// parseErrorResponse attempts to parse an error response from the server.
func (c *Client) parseErrorResponse(resp *http.Response) error {
	var errResp struct {
		Error string `json:"error"`
	}

	body, _ := io.ReadAll(resp.Body)
	if err := json.Unmarshal(body, &errResp); err != nil || errResp.Error == "" {
		return &StatusError{StatusCode: resp.StatusCode, Message: string(body)}
	}

	return &StatusError{StatusCode: resp.StatusCode, Message: errResp.Error}
}

// StatusError is a non-success response from the server.
type StatusError struct {
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("request failed with status %d: %s", e.StatusCode, e.Message)
}
