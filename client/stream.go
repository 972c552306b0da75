package client

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/brojonat/walletpulse/service/activity"
)

// SummaryEvent is a published summary delivered over the stream.
type SummaryEvent struct {
	ID          string          `json:"id"`
	Wallet      string          `json:"wallet"`
	WindowHours float64         `json:"window_hours"`
	Source      string          `json:"source"`
	Total       int             `json:"total"`
	Shown       int             `json:"shown"`
	Events      activity.Events `json:"events"`
	Text        string          `json:"text"`
	PublishedAt time.Time       `json:"published_at"`
}

// Watch streams published summaries until ctx is done or handle returns an
// error. An empty address watches every wallet.
func (c *Client) Watch(ctx context.Context, address string, handle func(*SummaryEvent) error) error {
	u := c.baseURL + "/api/v1/stream/summaries"
	if address != "" {
		u += "/" + url.PathEscape(address)
	}

	req, err := http.NewRequestWithContext(ctx, "GET", u, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "text/event-stream")

	// the default client timeout would cut the stream
	streamClient := *c.httpClient
	streamClient.Timeout = 0

	resp, err := streamClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return c.parseErrorResponse(resp)
	}

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 64*1024), 1<<20)

	var eventType string
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case line == "":
			eventType = ""
		case strings.HasPrefix(line, ":"):
			// keepalive
		case strings.HasPrefix(line, "event: "):
			eventType = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			if eventType != "summary" {
				continue
			}
			var event SummaryEvent
			if err := json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &event); err != nil {
				c.logger.Warn("failed to decode summary event", "error", err)
				continue
			}
			if err := handle(&event); err != nil {
				return err
			}
		}
	}

	if ctx.Err() != nil {
		return ctx.Err()
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("stream read failed: %w", err)
	}
	return nil
}
