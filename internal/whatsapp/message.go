package whatsapp

import (
	"github.com/catalyst-engine/whatsapp-relay/internal/apperr"
)

var messageTypes = map[string]bool{
	"text":     true,
	"image":    true,
	"audio":    true,
	"document": true,
	"sticker":  true,
	"video":    true,
}

// Message is the send request accepted by the API.
type Message struct {
	To          string `json:"to"`
	Type        string `json:"type"`
	Text        string `json:"text,omitempty"`
	MediaID     string `json:"media_id,omitempty"`
	MediaLink   string `json:"media_link,omitempty"`
	Caption     string `json:"caption,omitempty"`
	Fingerprint string `json:"fingerprint,omitempty"`
}

// Validate enforces the field-presence rules before any provider call is
// made.
func (m Message) Validate() error {
	if m.To == "" {
		return apperr.Validation("to is required")
	}
	if !messageTypes[m.Type] {
		return apperr.Validationf("unsupported message type %q", m.Type)
	}
	if m.Type == "text" {
		if m.Text == "" {
			return apperr.Validation("text messages require the text field to be populated")
		}
		return nil
	}
	if m.MediaID == "" && m.MediaLink == "" {
		return apperr.Validation("media messages require either media_id or media_link")
	}
	if m.MediaID != "" && m.MediaLink != "" {
		return apperr.Validation("provide only one of media_id or media_link")
	}
	return nil
}

// GraphPayload converts the request into the structure the Graph API
// expects.
func (m Message) GraphPayload() map[string]any {
	payload := map[string]any{
		"messaging_product": "whatsapp",
		"recipient_type":    "individual",
		"to":                m.To,
		"type":              m.Type,
	}

	if m.Type == "text" {
		payload["text"] = map[string]any{
			"preview_url": false,
			"body":        m.Text,
		}
		return payload
	}

	media := map[string]any{}
	if m.MediaID != "" {
		media["id"] = m.MediaID
	}
	if m.MediaLink != "" {
		media["link"] = m.MediaLink
	}
	if m.Caption != "" {
		media["caption"] = m.Caption
	}
	payload[m.Type] = media
	return payload
}
