package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

const wecomWebhookBase = "https://qyapi.weixin.qq.com/cgi-bin/webhook/send"

// WeComClient sends messages to an enterprise WeChat group robot.
type WeComClient struct {
	WebhookURL string
	HTTPClient *http.Client
}

// NewWeComClient builds a client from a full webhook URL or, failing that,
// from a robot key. Returns nil when neither is configured; callers treat a
// nil client as "channel disabled".
func NewWeComClient(webhookURL, robotKey string) *WeComClient {
	url := webhookURL
	if url == "" && robotKey != "" {
		url = fmt.Sprintf("%s?key=%s", wecomWebhookBase, robotKey)
	}
	if url == "" {
		return nil
	}
	return &WeComClient{
		WebhookURL: url,
		HTTPClient: &http.Client{Timeout: 5 * time.Second},
	}
}

type wecomResponse struct {
	ErrCode int    `json:"errcode"`
	ErrMsg  string `json:"errmsg"`
}

func (c *WeComClient) send(ctx context.Context, payload interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.WebhookURL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	res, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		return fmt.Errorf("wecom webhook returned %d", res.StatusCode)
	}
	var out wecomResponse
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return fmt.Errorf("invalid wecom response: %w", err)
	}
	if out.ErrCode != 0 {
		return fmt.Errorf("wecom webhook error %d: %s", out.ErrCode, out.ErrMsg)
	}
	return nil
}

// SendText posts a plain text message to the group.
func (c *WeComClient) SendText(ctx context.Context, content string) error {
	return c.send(ctx, map[string]interface{}{
		"msgtype": "text",
		"text":    map[string]string{"content": content},
	})
}

// SendMarkdown posts a markdown message to the group.
func (c *WeComClient) SendMarkdown(ctx context.Context, content string) error {
	return c.send(ctx, map[string]interface{}{
		"msgtype":  "markdown",
		"markdown": map[string]string{"content": content},
	})
}
