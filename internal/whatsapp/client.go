// Package whatsapp wraps the WhatsApp Business Platform (Graph API)
// endpoints used by the relay.
package whatsapp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"time"

	"github.com/catalyst-engine/whatsapp-relay/internal/apperr"
	"github.com/catalyst-engine/whatsapp-relay/internal/config"
)

const graphAPIURL = "https://graph.facebook.com"

const (
	requestTimeout = 20 * time.Second
	uploadTimeout  = 30 * time.Second
)

type Client struct {
	baseURL       string
	phoneNumberID string
	accessToken   string
	client        *http.Client
}

// NewClient resolves credentials (sandbox pair first, then production) and
// fails with a configuration error when neither pair is usable.
func NewClient(cfg config.WhatsAppConfig) (*Client, error) {
	phoneNumberID, accessToken := cfg.Credentials()
	if accessToken == "" {
		return nil, apperr.Configuration("WHATSAPP_ACCESS_TOKEN is not configured")
	}
	if phoneNumberID == "" {
		return nil, apperr.Configuration("WHATSAPP_PHONE_NUMBER_ID is not configured")
	}

	return &Client{
		baseURL:       fmt.Sprintf("%s/%s", graphAPIURL, cfg.APIVersion),
		phoneNumberID: phoneNumberID,
		accessToken:   accessToken,
		client: &http.Client{
			Timeout: uploadTimeout,
		},
	}, nil
}

// SendMessage posts the message to the phone number's /messages endpoint and
// returns the decoded provider response.
func (c *Client) SendMessage(ctx context.Context, msg Message) (map[string]any, error) {
	body, err := json.Marshal(msg.GraphPayload())
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	endpoint := fmt.Sprintf("%s/%s/messages", c.baseURL, c.phoneNumberID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	return c.do(req, "whatsapp send failed")
}

// UploadMedia uploads a file to the media endpoint and returns the provider
// response containing the media id.
func (c *Client) UploadMedia(ctx context.Context, fileName, contentType string, data []byte) (map[string]any, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	fw, err := mw.CreateFormFile("file", fileName)
	if err != nil {
		return nil, err
	}
	if _, err := fw.Write(data); err != nil {
		return nil, err
	}
	if err := mw.WriteField("type", contentType); err != nil {
		return nil, err
	}
	if err := mw.WriteField("messaging_product", "whatsapp"); err != nil {
		return nil, err
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, uploadTimeout)
	defer cancel()

	endpoint := fmt.Sprintf("%s/%s/media", c.baseURL, c.phoneNumberID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	return c.do(req, "whatsapp media upload failed")
}

// TemplateStatus fetches status, category and quality score for a message
// template.
func (c *Client) TemplateStatus(ctx context.Context, templateID string) (map[string]any, error) {
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	endpoint := fmt.Sprintf("%s/%s?%s", c.baseURL, url.PathEscape(templateID),
		url.Values{"fields": {"status,category,quality_score"}}.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	return c.do(req, "whatsapp template status failed")
}

func (c *Client) do(req *http.Request, errMsg string) (map[string]any, error) {
	req.Header.Set("Authorization", "Bearer "+c.accessToken)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)

	if resp.StatusCode >= 400 {
		return nil, apperr.Upstream(errMsg, resp.StatusCode, string(body))
	}

	var out map[string]any
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("failed to decode json: %w body=%q", err, string(body))
	}
	return out, nil
}
