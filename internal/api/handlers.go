package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/catalyst-engine/whatsapp-relay/internal/apperr"
	"github.com/catalyst-engine/whatsapp-relay/internal/config"
	"github.com/catalyst-engine/whatsapp-relay/internal/dedup"
	"github.com/catalyst-engine/whatsapp-relay/internal/service"
	"github.com/catalyst-engine/whatsapp-relay/internal/store"
	"github.com/catalyst-engine/whatsapp-relay/internal/webhook"
	"github.com/catalyst-engine/whatsapp-relay/internal/whatsapp"
)

const maxUploadBytes = 32 << 20

// Provider is the Graph API surface the handlers depend on.
type Provider interface {
	service.SendClient
	UploadMedia(ctx context.Context, fileName, contentType string, data []byte) (map[string]any, error)
	TemplateStatus(ctx context.Context, templateID string) (map[string]any, error)
}

// ProviderFactory builds the provider client on first use, so a missing
// credential surfaces as a configuration error on the call that needs it
// instead of preventing startup. Webhook ingestion works without any
// provider credentials.
type ProviderFactory func() (Provider, error)

type Handler struct {
	cfg       config.WhatsAppConfig
	store     *store.StatusStore
	guard     dedup.Guard
	newClient ProviderFactory
	logger    *zap.Logger
}

func NewHandler(cfg config.WhatsAppConfig, st *store.StatusStore, guard dedup.Guard, newClient ProviderFactory, logger *zap.Logger) *Handler {
	return &Handler{
		cfg:       cfg,
		store:     st,
		guard:     guard,
		newClient: newClient,
		logger:    logger,
	}
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "service": "whatsapp-relay"})
}

// VerifyWebhook answers the subscription handshake. Meta sends
// hub.mode/hub.verify_token/hub.challenge and expects the challenge echoed
// back as an integer.
func (h *Handler) VerifyWebhook(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	mode := q.Get("hub.mode")
	token := q.Get("hub.verify_token")

	if mode != "subscribe" || token != h.cfg.VerifyToken {
		h.writeError(w, apperr.Authentication("invalid verification token"))
		return
	}

	challenge, _ := strconv.Atoi(q.Get("hub.challenge"))
	writeJSON(w, http.StatusOK, challenge)
}

// ReceiveWebhook ingests a webhook delivery: verify the signature over the
// raw body, extract events, apply them to the store in order, and report
// how many were received.
func (h *Handler) ReceiveWebhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		h.writeError(w, apperr.Validation("failed to read request body"))
		return
	}

	sig := r.Header.Get(webhook.SignatureHeader)
	if err := webhook.VerifySignature(body, sig, []byte(h.cfg.AppSecret)); err != nil {
		h.writeError(w, err)
		return
	}

	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err != nil {
		h.writeError(w, apperr.Validation("request body is not valid JSON"))
		return
	}

	statuses, inbound, err := webhook.Extract(payload)
	if err != nil {
		h.writeError(w, err)
		return
	}

	for _, ev := range statuses {
		if _, err := h.store.Upsert(ev); err != nil {
			h.writeError(w, err)
			return
		}
	}
	for _, msg := range inbound {
		h.store.AddInbound(msg)
	}

	writeJSON(w, http.StatusOK, map[string]any{"received": len(statuses) + len(inbound)})
}

// SendMessage forwards a send request to the provider.
func (h *Handler) SendMessage(w http.ResponseWriter, r *http.Request) {
	var msg whatsapp.Message
	if err := json.NewDecoder(r.Body).Decode(&msg); err != nil {
		h.writeError(w, apperr.Validation("request body is not valid JSON"))
		return
	}

	client, err := h.newClient()
	if err != nil {
		h.writeError(w, err)
		return
	}

	sender := service.NewSender(client, h.guard, h.store, h.logger)
	resp, err := sender.Send(r.Context(), msg)
	if err != nil {
		if errors.Is(err, service.ErrDuplicate) {
			h.logger.Warn("duplicate send suppressed", zap.String("to", msg.To))
			writeJSON(w, http.StatusTooManyRequests, map[string]any{"error": err.Error()})
			return
		}
		h.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// MessageStatus returns the latest status and full event history for a sent
// message.
func (h *Handler) MessageStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	st, ok := h.store.Get(id)
	if !ok {
		h.writeError(w, apperr.NotFound("message not found in status store"))
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message_id": st.MessageID,
		"latest":     st.Latest(),
		"history":    st.Events,
	})
}

func (h *Handler) ListStatuses(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"items": h.store.All()})
}

func (h *Handler) ListInbound(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"items": h.store.InboundMessages()})
}

// UploadMedia proxies a multipart upload to the Graph media endpoint and
// returns the provider response containing the media id.
func (h *Handler) UploadMedia(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		h.writeError(w, apperr.Validation("request body is not valid multipart form data"))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		h.writeError(w, apperr.Validation("file field is required"))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		h.writeError(w, apperr.Validation("failed to read uploaded file"))
		return
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = r.FormValue("media_type")
	}
	if contentType == "" {
		h.writeError(w, apperr.Validation("media_type field is required when the file part has no content type"))
		return
	}

	fileName := header.Filename
	if fileName == "" {
		fileName = "upload.bin"
	}

	client, err := h.newClient()
	if err != nil {
		h.writeError(w, err)
		return
	}

	resp, err := client.UploadMedia(r.Context(), fileName, contentType, data)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// TemplateStatus proxies a template status lookup to the Graph API.
func (h *Handler) TemplateStatus(w http.ResponseWriter, r *http.Request) {
	client, err := h.newClient()
	if err != nil {
		h.writeError(w, err)
		return
	}

	resp, err := client.TemplateStatus(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	status := apperr.HTTPStatus(err)
	if status >= 500 {
		h.logger.Error("request failed", zap.Int("status", status), zap.Error(err))
	} else {
		h.logger.Warn("request rejected", zap.Int("status", status), zap.Error(err))
	}
	writeJSON(w, status, map[string]any{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
