package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

const feishuBaseURL = "https://open.feishu.cn/open-apis"

// FeishuClient sends messages to a Feishu group via a bot webhook and can
// upload images using the tenant credential.
type FeishuClient struct {
	BaseURL      string
	WebhookToken string
	AppID        string
	AppSecret    string
	HTTPClient   *http.Client

	mu          sync.Mutex
	tenantToken string
}

// NewFeishuClient builds a client from a webhook token (or a full webhook
// URL). Returns nil when no token is configured.
func NewFeishuClient(webhookToken, appID, appSecret string) *FeishuClient {
	if webhookToken == "" {
		return nil
	}
	return &FeishuClient{
		BaseURL:      feishuBaseURL,
		WebhookToken: webhookToken,
		AppID:        appID,
		AppSecret:    appSecret,
		HTTPClient:   &http.Client{Timeout: 20 * time.Second},
	}
}

func (c *FeishuClient) webhookURL() string {
	if strings.HasPrefix(c.WebhookToken, "http") {
		return c.WebhookToken
	}
	return fmt.Sprintf("%s/bot/v2/hook/%s", c.BaseURL, c.WebhookToken)
}

func (c *FeishuClient) postWebhook(ctx context.Context, payload interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.webhookURL(), bytes.NewReader(body))
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
		b, _ := io.ReadAll(res.Body)
		return fmt.Errorf("feishu webhook returned %d: %s", res.StatusCode, string(b))
	}
	return nil
}

// SendText posts a text message, optionally @-mentioning users.
func (c *FeishuClient) SendText(ctx context.Context, content string, atUserIDs ...string) error {
	text := content
	for _, uid := range atUserIDs {
		text += fmt.Sprintf(" <at user_id=%q></at>", uid)
	}
	return c.postWebhook(ctx, map[string]interface{}{
		"msg_type": "text",
		"content":  map[string]string{"text": text},
	})
}

// PostElement is one element of a post-card paragraph: text, link, @user or
// image.
type PostElement struct {
	Tag      string `json:"tag"`
	Text     string `json:"text,omitempty"`
	Href     string `json:"href,omitempty"`
	UserID   string `json:"user_id,omitempty"`
	ImageKey string `json:"image_key,omitempty"`
}

func TextElement(text string) PostElement {
	return PostElement{Tag: "text", Text: text}
}

func LinkElement(text, href string) PostElement {
	return PostElement{Tag: "a", Text: text, Href: href}
}

func AtElement(userID string) PostElement {
	return PostElement{Tag: "at", UserID: userID}
}

// SendPost sends a rich post card with mixed paragraph elements.
func (c *FeishuClient) SendPost(ctx context.Context, title string, paragraphs [][]PostElement) error {
	return c.postWebhook(ctx, map[string]interface{}{
		"msg_type": "post",
		"content": map[string]interface{}{
			"post": map[string]interface{}{
				"zh_cn": map[string]interface{}{
					"title":   title,
					"content": paragraphs,
				},
			},
		},
	})
}

// SendRichPost sends a post card built from plain text lines.
func (c *FeishuClient) SendRichPost(ctx context.Context, title string, lines []string) error {
	paragraphs := make([][]PostElement, 0, len(lines))
	for _, line := range lines {
		paragraphs = append(paragraphs, []PostElement{TextElement(line)})
	}
	return c.SendPost(ctx, title, paragraphs)
}

// SendImage sends a previously uploaded image by its image_key.
func (c *FeishuClient) SendImage(ctx context.Context, imageKey string) error {
	return c.postWebhook(ctx, map[string]interface{}{
		"msg_type": "image",
		"content":  map[string]string{"image_key": imageKey},
	})
}

type tenantTokenResponse struct {
	Code              int    `json:"code"`
	Msg               string `json:"msg"`
	TenantAccessToken string `json:"tenant_access_token"`
}

// GetTenantAccessToken fetches (and caches) the tenant credential used by
// the upload API.
func (c *FeishuClient) GetTenantAccessToken(ctx context.Context, force bool) (string, error) {
	c.mu.Lock()
	cached := c.tenantToken
	c.mu.Unlock()
	if cached != "" && !force {
		return cached, nil
	}

	body, _ := json.Marshal(map[string]string{"app_id": c.AppID, "app_secret": c.AppSecret})
	url := fmt.Sprintf("%s/auth/v3/tenant_access_token/internal", c.BaseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	res, err := c.HTTPClient.Do(req)
	if err != nil {
		return "", err
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		return "", fmt.Errorf("tenant token endpoint returned %d", res.StatusCode)
	}
	var out tenantTokenResponse
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("invalid tenant token response: %w", err)
	}
	if out.TenantAccessToken == "" {
		return "", fmt.Errorf("no tenant_access_token: %s", out.Msg)
	}
	c.mu.Lock()
	c.tenantToken = out.TenantAccessToken
	c.mu.Unlock()
	return out.TenantAccessToken, nil
}

type uploadImageResponse struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
	Data struct {
		ImageKey string `json:"image_key"`
	} `json:"data"`
}

// UploadImage uploads an image for message use and returns its image_key.
func (c *FeishuClient) UploadImage(ctx context.Context, imagePath string) (string, error) {
	token, err := c.GetTenantAccessToken(ctx, false)
	if err != nil {
		return "", err
	}

	f, err := os.Open(imagePath)
	if err != nil {
		return "", err
	}
	defer f.Close()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	if err := w.WriteField("image_type", "message"); err != nil {
		return "", err
	}
	part, err := w.CreateFormFile("image", filepath.Base(imagePath))
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(part, f); err != nil {
		return "", err
	}
	if err := w.Close(); err != nil {
		return "", err
	}

	url := fmt.Sprintf("%s/im/v1/images", c.BaseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &buf)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", w.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	res, err := c.HTTPClient.Do(req)
	if err != nil {
		return "", err
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		return "", fmt.Errorf("image upload returned %d", res.StatusCode)
	}
	var out uploadImageResponse
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("invalid upload response: %w", err)
	}
	if out.Data.ImageKey == "" {
		return "", fmt.Errorf("no image_key returned: %s", out.Msg)
	}
	return out.Data.ImageKey, nil
}
