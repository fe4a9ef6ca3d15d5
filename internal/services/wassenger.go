package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"time"

	"github.com/emyflow/emyflow-backend/internal/models"
	"github.com/emyflow/emyflow-backend/internal/utils"
)

// MessagingAPI is the messaging provider surface the pipeline needs: plain
// and deferred sends, chat labels, contact metadata
type MessagingAPI interface {
	SendMessage(tenant *models.Tenant, phone, body string) error
	SendScheduledMessage(tenant *models.Tenant, phone, body string, deliverAt time.Time) error
	AddChatLabels(tenant *models.Tenant, phone string, labels []string) error
	UpdateContactMetadata(tenant *models.Tenant, phone string, metadata map[string]string) error
}

// WassengerService talks to the Wassenger REST API using the tenant's device
// credentials
type WassengerService struct {
	client  *http.Client
	baseURL string
}

// NewWassengerService creates a Wassenger client
func NewWassengerService() *WassengerService {
	return &WassengerService{
		client:  &http.Client{Timeout: 15 * time.Second},
		baseURL: "https://api.wassenger.com/v1",
	}
}

// SendMessage sends a WhatsApp message to phone via the tenant's device
func (w *WassengerService) SendMessage(tenant *models.Tenant, phone, body string) error {
	payload := map[string]interface{}{
		"phone":   phone,
		"message": body,
	}
	return w.do(tenant, http.MethodPost, "/messages", payload)
}

// SendScheduledMessage queues a message on the provider side for delivery at
// deliverAt
func (w *WassengerService) SendScheduledMessage(tenant *models.Tenant, phone, body string, deliverAt time.Time) error {
	payload := map[string]interface{}{
		"phone":     phone,
		"message":   body,
		"deliverAt": deliverAt.UTC().Format(time.RFC3339),
	}
	return w.do(tenant, http.MethodPost, "/messages", payload)
}

// AddChatLabels upserts labels on the conversation with phone
func (w *WassengerService) AddChatLabels(tenant *models.Tenant, phone string, labels []string) error {
	path := fmt.Sprintf("/chat/%s/chats/%s/labels?upsert=true",
		url.PathEscape(tenant.Wassenger.DeviceID), url.PathEscape(utils.ChatWID(phone)))
	return w.do(tenant, http.MethodPatch, path, labels)
}

// UpdateContactMetadata patches provider-stored contact metadata key/value
// pairs. The provider expects an array of {key, value} objects.
func (w *WassengerService) UpdateContactMetadata(tenant *models.Tenant, phone string, metadata map[string]string) error {
	entries := make([]models.MetadataEntry, 0, len(metadata))
	for k, v := range metadata {
		entries = append(entries, models.MetadataEntry{Key: k, Value: v})
	}
	payload := map[string]interface{}{
		"metadata": entries,
	}
	path := fmt.Sprintf("/chat/%s/contacts/%s",
		url.PathEscape(tenant.Wassenger.DeviceID), url.PathEscape(utils.ChatWID(phone)))
	return w.do(tenant, http.MethodPatch, path, payload)
}

func (w *WassengerService) do(tenant *models.Tenant, method, path string, body interface{}) error {
	if tenant.Wassenger.APIKey == "" {
		return fmt.Errorf("%w: wassenger api key for tenant %s", models.ErrNotConfigured, tenant.Slug)
	}

	data, err := json.Marshal(body)
	if err != nil {
		return err
	}

	req, err := http.NewRequest(method, w.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Token", tenant.Wassenger.APIKey)

	resp, err := w.client.Do(req)
	if err != nil {
		return models.NewUpstreamError("wassenger", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		log.Printf("❌ Wassenger %s %s failed: %d %s", method, path, resp.StatusCode, respBody)
		return models.NewUpstreamError("wassenger", fmt.Errorf("status %d", resp.StatusCode))
	}
	return nil
}
