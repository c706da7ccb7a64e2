// Package service orchestrates the outbound send path: duplicate
// suppression, the provider call, and seeding the initial status.
package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/catalyst-engine/whatsapp-relay/internal/dedup"
	"github.com/catalyst-engine/whatsapp-relay/internal/store"
	"github.com/catalyst-engine/whatsapp-relay/internal/whatsapp"
)

// ErrDuplicate is returned when the same logical message was already sent
// to the recipient inside the dedup window.
var ErrDuplicate = errors.New("duplicate message suppressed")

type SendClient interface {
	SendMessage(ctx context.Context, msg whatsapp.Message) (map[string]any, error)
}

type Sender struct {
	client SendClient
	guard  dedup.Guard
	store  *store.StatusStore
	logger *zap.Logger
}

func NewSender(client SendClient, guard dedup.Guard, st *store.StatusStore, logger *zap.Logger) *Sender {
	return &Sender{client: client, guard: guard, store: st, logger: logger}
}

// Send validates the request, runs the idempotency check, calls the
// provider, and on success seeds a "sent" status for the returned message
// id so the status query works before the first webhook arrives.
func (s *Sender) Send(ctx context.Context, msg whatsapp.Message) (map[string]any, error) {
	if err := msg.Validate(); err != nil {
		return nil, err
	}

	fp := msg.Fingerprint
	if fp == "" {
		fp = contentFingerprint(msg)
	}

	allowed, err := s.guard.Check(ctx, msg.To, fp)
	if err != nil {
		// A broken guard (e.g. Redis down) must not block sends.
		s.logger.Warn("idempotency check unavailable, allowing send", zap.Error(err))
		allowed = true
	}
	if !allowed {
		return nil, ErrDuplicate
	}

	resp, err := s.client.SendMessage(ctx, msg)
	if err != nil {
		return nil, err
	}

	if id := responseMessageID(resp); id != "" {
		if _, err := s.store.Upsert(store.StatusEvent{
			"id":           id,
			"status":       "sent",
			"recipient_id": msg.To,
		}); err != nil {
			s.logger.Warn("failed to seed sent status", zap.String("message_id", id), zap.Error(err))
		}
	}

	return resp, nil
}

// contentFingerprint derives a dedup key from the message content, so
// identical retries are suppressed even when the caller supplies no
// fingerprint of its own.
func contentFingerprint(msg whatsapp.Message) string {
	sum := sha256.Sum256([]byte(strings.Join([]string{
		msg.Type, msg.Text, msg.MediaID, msg.MediaLink, msg.Caption,
	}, "\x00")))
	return hex.EncodeToString(sum[:])
}

func responseMessageID(resp map[string]any) string {
	msgs, ok := resp["messages"].([]any)
	if !ok || len(msgs) == 0 {
		return ""
	}
	first, ok := msgs[0].(map[string]any)
	if !ok {
		return ""
	}
	id, _ := first["id"].(string)
	return id
}
