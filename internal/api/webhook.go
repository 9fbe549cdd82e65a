package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"backoffice/internal/models"
)

// whatsappPayload is the subset of the Cloud API notification the log needs.
type whatsappPayload struct {
	Object string `json:"object"`
	Entry  []struct {
		Changes []struct {
			Value struct {
				Messages []struct {
					From      string `json:"from"`
					Timestamp string `json:"timestamp"`
					Type      string `json:"type"`
					Text      struct {
						Body string `json:"body"`
					} `json:"text"`
				} `json:"messages"`
			} `json:"value"`
		} `json:"changes"`
	} `json:"entry"`
}

func (s *HTTPServer) handleWebhookVerify(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if s.verifyToken == "" || q.Get("hub.mode") != "subscribe" || q.Get("hub.verify_token") != s.verifyToken {
		w.WriteHeader(http.StatusForbidden)
		return
	}
	s.log.Info().Msg("webhook verified")
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(q.Get("hub.challenge")))
}

// handleWebhookMessage logs the first inbound text message. The sender always gets 200
// so the platform does not redeliver.
func (s *HTTPServer) handleWebhookMessage(w http.ResponseWriter, r *http.Request) {
	defer w.WriteHeader(http.StatusOK)

	var body whatsappPayload
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&body); err != nil {
		s.log.Warn().Err(err).Msg("webhook: decode payload")
		return
	}
	msg, ok := firstTextMessage(&body)
	if !ok {
		return
	}
	if err := s.store.AppendChatMessage(r.Context(), msg); err != nil {
		s.log.Error().Err(err).Str("phone", msg.Phone).Msg("webhook: store message")
	}
}

func firstTextMessage(body *whatsappPayload) (*models.ChatMessage, bool) {
	if body.Object == "" || len(body.Entry) == 0 || len(body.Entry[0].Changes) == 0 {
		return nil, false
	}
	msgs := body.Entry[0].Changes[0].Value.Messages
	if len(msgs) == 0 || msgs[0].Text.Body == "" {
		return nil, false
	}

	m := msgs[0]
	ts := time.Now()
	if secs, err := strconv.ParseInt(m.Timestamp, 10, 64); err == nil {
		ts = time.Unix(secs, 0)
	}
	return &models.ChatMessage{
		Phone:     models.NormalizePhone(m.From),
		Sender:    models.SenderClient,
		Message:   m.Text.Body,
		Timestamp: ts,
	}, true
}
