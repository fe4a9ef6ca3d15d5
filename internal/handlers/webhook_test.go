package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/emyflow/emyflow-backend/internal/models"
	"github.com/emyflow/emyflow-backend/internal/services"
	"github.com/emyflow/emyflow-backend/internal/storage"
)

type noopMarketing struct{}

func (noopMarketing) SendEvent(*models.Tenant, string, models.ConversionUserData, models.ConversionOptions) error {
	return nil
}
func (noopMarketing) TrackLead(*models.Tenant, string) error     { return nil }
func (noopMarketing) TrackSchedule(*models.Tenant, string) error { return nil }

type noopMessaging struct{}

func (noopMessaging) SendMessage(*models.Tenant, string, string) error { return nil }
func (noopMessaging) SendScheduledMessage(*models.Tenant, string, string, time.Time) error {
	return nil
}
func (noopMessaging) AddChatLabels(*models.Tenant, string, []string) error { return nil }
func (noopMessaging) UpdateContactMetadata(*models.Tenant, string, map[string]string) error {
	return nil
}

func newTestApp(t *testing.T) (*fiber.App, *services.DebounceBuffer, *services.HandoffGuard) {
	t.Helper()

	store := storage.NewMemoryStore()
	if _, err := store.CreateTenant(&models.Tenant{
		Slug:     "clinica-demo",
		Timezone: "America/Mexico_City",
		Wassenger: models.WassengerConfig{
			DeviceID: "device-1",
			APIKey:   "key",
		},
	}); err != nil {
		t.Fatal(err)
	}

	analytics := services.NewAnalyticsService(store)
	handoff := services.NewHandoffGuard()
	leads := services.NewLeadDeduplicator(noopMarketing{}, noopMessaging{}, analytics)
	buffer := services.NewDebounceBuffer(time.Hour, func(string, *models.WebhookPayload, []byte, string) {})

	app := fiber.New()
	h := NewWebhookHandler(store, buffer, handoff, leads, analytics)
	app.Post("/webhook/wassenger", h.HandleWebhook)
	return app, buffer, handoff
}

func postWebhook(t *testing.T, app *fiber.App, payload models.WebhookPayload) string {
	t.Helper()
	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatal(err)
	}
	req := httptest.NewRequest("POST", "/webhook/wassenger", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != 200 {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	out, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	return string(out)
}

func inbound(body string) models.WebhookPayload {
	return models.WebhookPayload{
		Event:  models.EventMessageIn,
		Device: models.DeviceInfo{ID: "device-1"},
		Data: &models.MessageData{
			From:       "5215512345678@c.us",
			FromNumber: "5215512345678",
			Body:       body,
			Flow:       "inbound",
		},
	}
}

func TestHandleWebhook(t *testing.T) {
	t.Run("inbound message is buffered", func(t *testing.T) {
		app, buffer, _ := newTestApp(t)

		got := postWebhook(t, app, inbound("hola"))
		if got != "Buffered" {
			t.Fatalf("response = %q", got)
		}
		if !buffer.Pending("device-1:5215512345678") {
			t.Error("message not buffered under the device-scoped key")
		}
	})

	t.Run("outbound operator message pauses the conversation", func(t *testing.T) {
		app, _, handoff := newTestApp(t)

		postWebhook(t, app, models.WebhookPayload{
			Event:  models.EventMessageOut,
			Device: models.DeviceInfo{ID: "device-1"},
			Data: &models.MessageData{
				To:    "5215512345678@c.us",
				Body:  "le atiendo en un momento",
				Flow:  "outbound",
				Agent: "agent-42",
			},
		})

		if !handoff.Suppressed("device-1:5215512345678@c.us") {
			t.Fatal("handoff not recorded")
		}

		got := postWebhook(t, app, inbound("sigo aquí"))
		if got != "Suppressed by Human Handoff" {
			t.Fatalf("response = %q", got)
		}
	})

	t.Run("outbound api message is ignored", func(t *testing.T) {
		app, _, handoff := newTestApp(t)

		postWebhook(t, app, models.WebhookPayload{
			Event:  models.EventMessageOut,
			Device: models.DeviceInfo{ID: "device-1"},
			Data: &models.MessageData{
				To:   "5215512345678@c.us",
				Body: "respuesta automática",
				Flow: "outbound",
			},
		})

		if handoff.Suppressed("device-1:5215512345678@c.us") {
			t.Fatal("API message must not trigger a handoff")
		}
	})

	t.Run("humano label suppresses permanently", func(t *testing.T) {
		app, buffer, _ := newTestApp(t)

		p := inbound("hola")
		p.Data.Chat = &models.ChatInfo{Labels: []string{services.HandoffLabel}}
		got := postWebhook(t, app, p)
		if got != "Suppressed by \"humano\" label" {
			t.Fatalf("response = %q", got)
		}
		if buffer.Pending("device-1:5215512345678") {
			t.Error("suppressed message must not be buffered")
		}
	})

	t.Run("status event is acknowledged and ignored", func(t *testing.T) {
		app, buffer, _ := newTestApp(t)

		got := postWebhook(t, app, models.WebhookPayload{
			Event:  "status:update",
			Device: models.DeviceInfo{ID: "device-1"},
		})
		if got != "OK" {
			t.Fatalf("response = %q", got)
		}
		if buffer.Pending("device-1:5215512345678") {
			t.Error("nothing should be buffered")
		}
	})

	t.Run("unknown device still buffers", func(t *testing.T) {
		app, buffer, _ := newTestApp(t)

		p := inbound("hola")
		p.Device.ID = "device-unknown"
		got := postWebhook(t, app, p)
		if got != "Buffered" {
			t.Fatalf("response = %q", got)
		}
		if !buffer.Pending("device-unknown:5215512345678") {
			t.Error("message not buffered")
		}
	})

	t.Run("malformed body is acknowledged", func(t *testing.T) {
		app, _, _ := newTestApp(t)

		req := httptest.NewRequest("POST", "/webhook/wassenger", bytes.NewReader([]byte("{not json")))
		req.Header.Set("Content-Type", "application/json")
		resp, err := app.Test(req)
		if err != nil {
			t.Fatal(err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != 200 {
			t.Fatalf("status = %d", resp.StatusCode)
		}
	})
}
