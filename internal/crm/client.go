package crm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/dorian5656/nhsa-crm-sync/internal/model"
)

// directPostSuccessCode is the errCode the ERP ingest endpoint returns on a
// successfully accepted object.
const directPostSuccessCode = "s106240000"

// Client talks to the Fxiaoke open API and, when configured, to the fixed
// direct-post ingest endpoint.
type Client struct {
	APIBase       string
	AppID         string
	AppSecret     string
	PermanentCode string

	DirectPostURL string
	DirectHeaders map[string]string
	DataCenterID  string
	TenantID      string
	PushToken     string

	HTTPClient *http.Client
}

type Option func(*Client)

func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) { cl.HTTPClient = c }
}

func NewClient(apiBase, appID, appSecret, permanentCode string, opts ...Option) *Client {
	c := &Client{
		APIBase:       apiBase,
		AppID:         appID,
		AppSecret:     appSecret,
		PermanentCode: permanentCode,
		HTTPClient:    &http.Client{Timeout: 15 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// DirectEnabled reports whether the static-token direct-post channel is
// configured. When it is, GetAccessToken is never called.
func (c *Client) DirectEnabled() bool {
	return c.DirectPostURL != ""
}

func (c *Client) postJSON(ctx context.Context, url string, body interface{}, headers map[string]string) (int, []byte, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return 0, nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	res, err := c.HTTPClient.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer res.Body.Close()
	b, _ := io.ReadAll(res.Body)
	return res.StatusCode, b, nil
}

type tokenResponse struct {
	ErrorCode       int    `json:"errorCode"`
	ErrorMessage    string `json:"errorMessage"`
	CorpAccessToken string `json:"corpAccessToken"`
}

// GetAccessToken exchanges the app credentials for a corp access token.
func (c *Client) GetAccessToken(ctx context.Context) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	url := fmt.Sprintf("%s/corpAccessToken/get/V2", c.APIBase)
	body := map[string]string{
		"appId":         c.AppID,
		"appSecret":     c.AppSecret,
		"permanentCode": c.PermanentCode,
	}
	status, b, err := c.postJSON(ctx, url, body, nil)
	if err != nil {
		return "", err
	}
	if status != http.StatusOK {
		return "", fmt.Errorf("token endpoint returned %d: %s", status, truncate(b, 200))
	}
	var res tokenResponse
	if err := json.Unmarshal(b, &res); err != nil {
		return "", fmt.Errorf("invalid token response: %w", err)
	}
	if res.ErrorCode != 0 {
		return "", fmt.Errorf("token exchange failed: %s", res.ErrorMessage)
	}
	if res.CorpAccessToken == "" {
		return "", errors.New("token exchange returned no corpAccessToken")
	}
	return res.CorpAccessToken, nil
}

type createResponse struct {
	ErrorCode    int    `json:"errorCode"`
	ErrorMessage string `json:"errorMessage"`
}

// CreateObject pushes one record through the standard object-create API.
func (c *Client) CreateObject(ctx context.Context, token string, rec model.ConsumableRecord) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	url := fmt.Sprintf("%s/crm/v2/object/create", c.APIBase)
	name := rec.SingleProductName
	if name == "" {
		name = "unnamed"
	}
	body := map[string]interface{}{
		"corpAccessToken": token,
		"corpId":          c.AppID,
		"data": map[string]interface{}{
			"object_data": map[string]interface{}{
				"data": map[string]interface{}{
					"name":    name,
					"code":    rec.ConsumableCode,
					"content": rec.Specification,
				},
			},
			"api_name": "MedicalConsumable",
		},
	}
	status, b, err := c.postJSON(ctx, url, body, nil)
	if err != nil {
		return err
	}
	var res createResponse
	if err := json.Unmarshal(b, &res); err != nil {
		return fmt.Errorf("invalid create response (HTTP %d): %s", status, truncate(b, 200))
	}
	if res.ErrorCode != 0 {
		return fmt.Errorf("object create failed: %s", res.ErrorMessage)
	}
	return nil
}

type directResponse struct {
	ErrCode  string `json:"errCode"`
	ErrMsg   string `json:"errMsg"`
	TraceMsg string `json:"traceMsg"`
}

// DirectPost pushes one record through the fixed ingest URL. Returns the
// trace message the endpoint attached, when any. A body that is not JSON is
// accepted as success only on an HTTP 2xx status.
func (c *Client) DirectPost(ctx context.Context, rec model.ConsumableRecord) (string, error) {
	body := directBody{
		ObjAPIName:     "MedicalInsuranceCodeFile",
		MasterFieldVal: FieldValFromRecord(rec),
	}
	headers := map[string]string{
		"dataCenterId":  c.DataCenterID,
		"tenantId":      c.TenantID,
		"objectApiName": "MedicalInsuranceCodeFile",
		"id":            rec.UniqueID(),
		"version":       "v1",
		"directSync":    "false",
		"token":         c.PushToken,
	}
	for k, v := range c.DirectHeaders {
		headers[k] = v
	}
	status, b, err := c.postJSON(ctx, c.DirectPostURL, body, headers)
	if err != nil {
		return "", err
	}
	var res directResponse
	if err := json.Unmarshal(b, &res); err != nil {
		if status >= 200 && status < 300 {
			return "", nil
		}
		return "", fmt.Errorf("HTTP %d: %s", status, truncate(b, 200))
	}
	if res.ErrCode != directPostSuccessCode {
		msg := res.ErrMsg
		if msg == "" {
			msg = fmt.Sprintf("HTTP %d", status)
		}
		return "", fmt.Errorf("%s (errCode %s)", msg, res.ErrCode)
	}
	return res.TraceMsg, nil
}

func truncate(b []byte, n int) string {
	if len(b) > n {
		return string(b[:n])
	}
	return string(b)
}
