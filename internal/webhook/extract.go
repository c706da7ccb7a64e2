// Package webhook parses and authenticates WhatsApp webhook deliveries.
package webhook

import (
	"github.com/catalyst-engine/whatsapp-relay/internal/apperr"
	"github.com/catalyst-engine/whatsapp-relay/internal/store"
)

// Extract pulls status events and inbound messages out of a decoded webhook
// payload. The provider delivers statuses either at the top level or nested
// under entry[].changes[].value; inbound messages only appear nested. The
// input is not mutated.
func Extract(payload map[string]any) ([]store.StatusEvent, []store.InboundMessage, error) {
	var statuses []store.StatusEvent
	var inbound []store.InboundMessage

	if raw, ok := payload["statuses"]; ok {
		evs, err := statusList(raw)
		if err != nil {
			return nil, nil, err
		}
		statuses = append(statuses, evs...)
	}

	if raw, ok := payload["entry"]; ok {
		entries, ok := raw.([]any)
		if !ok {
			return nil, nil, apperr.Validation("webhook payload field entry is not a list")
		}
		for _, e := range entries {
			entry, ok := e.(map[string]any)
			if !ok {
				return nil, nil, apperr.Validation("webhook entry is not an object")
			}
			changes, ok := entry["changes"].([]any)
			if !ok {
				continue
			}
			for _, c := range changes {
				change, ok := c.(map[string]any)
				if !ok {
					return nil, nil, apperr.Validation("webhook change is not an object")
				}
				value, ok := change["value"].(map[string]any)
				if !ok {
					continue
				}

				if raw, ok := value["statuses"]; ok {
					evs, err := statusList(raw)
					if err != nil {
						return nil, nil, err
					}
					statuses = append(statuses, evs...)
				}

				msgs, err := inboundList(value)
				if err != nil {
					return nil, nil, err
				}
				inbound = append(inbound, msgs...)
			}
		}
	}

	if len(statuses) == 0 && len(inbound) == 0 {
		return nil, nil, apperr.Validation("no status events or messages found in payload")
	}
	return statuses, inbound, nil
}

func statusList(raw any) ([]store.StatusEvent, error) {
	items, ok := raw.([]any)
	if !ok {
		return nil, apperr.Validation("webhook statuses field is not a list")
	}
	out := make([]store.StatusEvent, 0, len(items))
	for _, item := range items {
		ev, ok := item.(map[string]any)
		if !ok {
			return nil, apperr.Validation("webhook status event is not an object")
		}
		out = append(out, ev)
	}
	return out, nil
}

func inboundList(value map[string]any) ([]store.InboundMessage, error) {
	raw, ok := value["messages"]
	if !ok {
		return nil, nil
	}
	items, ok := raw.([]any)
	if !ok {
		return nil, apperr.Validation("webhook messages field is not a list")
	}

	// The change-level contacts list carries the sender's display name for
	// every message in the same change.
	name := contactName(value["contacts"])

	out := make([]store.InboundMessage, 0, len(items))
	for _, item := range items {
		msg, ok := item.(map[string]any)
		if !ok {
			return nil, apperr.Validation("webhook message is not an object")
		}
		out = append(out, mapInbound(msg, name))
	}
	return out, nil
}

func mapInbound(msg map[string]any, name string) store.InboundMessage {
	out := store.InboundMessage{
		Name:  name,
		Media: map[string]any{},
	}
	out.ID, _ = msg["id"].(string)
	out.From, _ = msg["from"].(string)
	out.Type, _ = msg["type"].(string)
	out.Timestamp, _ = msg["timestamp"].(string)

	if out.Type == "text" {
		if text, ok := msg["text"].(map[string]any); ok {
			out.Text, _ = text["body"].(string)
		}
		return out
	}
	if media, ok := msg[out.Type].(map[string]any); ok {
		out.Media = media
	}
	return out
}

func contactName(raw any) string {
	contacts, ok := raw.([]any)
	if !ok || len(contacts) == 0 {
		return ""
	}
	contact, ok := contacts[0].(map[string]any)
	if !ok {
		return ""
	}
	profile, ok := contact["profile"].(map[string]any)
	if !ok {
		return ""
	}
	name, _ := profile["name"].(string)
	return name
}
