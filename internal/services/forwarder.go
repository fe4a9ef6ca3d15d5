package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/emyflow/emyflow-backend/internal/models"
	"github.com/emyflow/emyflow-backend/internal/storage"
)

// ForwardService delivers a flushed, coalesced message to the tenant's
// configured webhook URL (the agent orchestration layer)
type ForwardService struct {
	client *http.Client
	store  storage.Store
}

// NewForwardService creates the forwarder
func NewForwardService(store storage.Store) *ForwardService {
	return &ForwardService{
		client: &http.Client{Timeout: 30 * time.Second},
		store:  store,
	}
}

// DeliverCombined is the debounce buffer's flush target. The tenant is
// resolved fresh at flush time; if resolution or configuration fails the
// flush is dropped and logged, never retried.
func (f *ForwardService) DeliverCombined(key string, payload *models.WebhookPayload, raw []byte, combined string) {
	log.Printf("Processing buffered message for %s: %s", key, combined)

	tenant, err := f.store.GetTenantByDeviceID(payload.Device.ID)
	if err != nil {
		log.Printf("[Webhook] No tenant for device %s, dropping buffered message: %v", payload.Device.ID, err)
		return
	}
	if tenant.WebhookURL == "" {
		log.Printf("[Webhook] No webhook URL configured for client %s (Device: %s). Skipping.", tenant.Slug, payload.Device.ID)
		return
	}

	if err := f.post(tenant.WebhookURL, forwardBody(payload, raw, combined)); err != nil {
		log.Printf("Error sending to client webhook: %v", err)
	}
}

// forwardBody builds the event forwarded downstream: the raw provider body of
// the last message with only data.body replaced, so provider fields the local
// types do not model pass through untouched. A raw body that fails to parse
// falls back to re-serializing the typed payload.
func forwardBody(payload *models.WebhookPayload, raw []byte, combined string) []byte {
	var generic map[string]interface{}
	if err := json.Unmarshal(raw, &generic); err == nil {
		if data, ok := generic["data"].(map[string]interface{}); ok {
			data["body"] = combined
			if body, err := json.Marshal(generic); err == nil {
				return body
			}
		}
	}

	forwarded := *payload
	data := *payload.Data
	data.Body = combined
	forwarded.Data = &data
	body, err := json.Marshal(&forwarded)
	if err != nil {
		return nil
	}
	return body
}

func (f *ForwardService) post(webhookURL string, body []byte) error {
	resp, err := f.client.Post(webhookURL, "application/json", bytes.NewReader(body))
	if err != nil {
		return models.NewUpstreamError("client-webhook", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return models.NewUpstreamError("client-webhook", fmt.Errorf("status %d", resp.StatusCode))
	}
	return nil
}
