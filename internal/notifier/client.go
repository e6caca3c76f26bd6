// Package notifier предоставляет клиент канала публичных уведомлений.
package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Client инкапсулирует HTTP-взаимодействие с каналом уведомлений.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

type statusUpdate struct {
	Status string `json:"status"`
}

// NewClient создаёт HTTP-клиент канала уведомлений по указанному адресу.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

// Post публикует сообщение в канале уведомлений.
// Доставка не гарантируется: ошибка не повторяется на этой стороне.
func (c *Client) Post(ctx context.Context, message string) error {
	if c == nil || c.baseURL == "" {
		return fmt.Errorf("notifier client not configured")
	}

	base := c.baseURL
	if !strings.HasPrefix(base, "http://") && !strings.HasPrefix(base, "https://") {
		base = "https://" + base
	}

	body, err := json.Marshal(statusUpdate{Status: message})
	if err != nil {
		return fmt.Errorf("encode status: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, base+"/statuses/update", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	return nil
}
