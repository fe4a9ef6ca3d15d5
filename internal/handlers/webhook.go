package handlers

import (
	"log"
	"math"

	"github.com/gofiber/fiber/v2"

	"github.com/emyflow/emyflow-backend/internal/models"
	"github.com/emyflow/emyflow-backend/internal/services"
	"github.com/emyflow/emyflow-backend/internal/storage"
)

// WebhookHandler is the inbound event router: it classifies each provider
// event and composes the handoff guard, lead deduplicator and debounce
// buffer per message
type WebhookHandler struct {
	store     storage.Store
	buffer    *services.DebounceBuffer
	handoff   *services.HandoffGuard
	leads     *services.LeadDeduplicator
	analytics services.AnalyticsRecorder
}

// NewWebhookHandler creates the router
func NewWebhookHandler(store storage.Store, buffer *services.DebounceBuffer, handoff *services.HandoffGuard, leads *services.LeadDeduplicator, analytics services.AnalyticsRecorder) *WebhookHandler {
	return &WebhookHandler{
		store:     store,
		buffer:    buffer,
		handoff:   handoff,
		leads:     leads,
		analytics: analytics,
	}
}

// conversationKey scopes per-conversation state by device so two tenants
// with colliding phone numbers can never share state
func conversationKey(deviceID, id string) string {
	return deviceID + ":" + id
}

// HandleWebhook processes one provider event. Malformed or irrelevant events
// are acknowledged with 200 and no action.
func (h *WebhookHandler) HandleWebhook(c *fiber.Ctx) error {
	var payload models.WebhookPayload
	if err := c.BodyParser(&payload); err != nil {
		log.Printf("Error parsing webhook: %v", err)
		return c.SendString("OK")
	}

	switch payload.Kind() {
	case models.EventOutbound:
		return h.handleOutbound(c, &payload)
	case models.EventInbound:
		return h.handleInbound(c, &payload)
	default:
		log.Printf("Webhook received but missing data: event=%s device=%s", payload.Event, payload.Device.ID)
		return c.SendString("OK")
	}
}

// handleOutbound detects human intervention: operator messages carry an
// agent id, API messages do not
func (h *WebhookHandler) handleOutbound(c *fiber.Ctx, payload *models.WebhookPayload) error {
	if payload.Data == nil || payload.Data.Agent == "" || payload.Data.To == "" {
		// API-originated message, ignored
		return c.SendString("OK")
	}

	target := payload.Data.To
	h.handoff.RecordHuman(conversationKey(payload.Device.ID, target))
	log.Printf("[Handoff] Human agent detected for %s. AI paused for 30m.", target)

	// Analytics is best-effort; an unknown device skips it
	if tenant, err := h.store.GetTenantByDeviceID(payload.Device.ID); err == nil {
		h.analytics.Record(tenant.Slug, models.EventTypeHandoff, target)
	}

	return c.SendString("OK")
}

func (h *WebhookHandler) handleInbound(c *fiber.Ctx, payload *models.WebhookPayload) error {
	userJID := payload.Data.From
	phone := payload.Data.FromNumber

	// Permanent suppression: the handoff label set by the crm_handoff_human
	// tool wins over everything, including an expired handoff timer
	if payload.HasLabel(services.HandoffLabel) {
		log.Printf("[Handoff] AI permanently suppressed for %s: %q label detected in chat.", userJID, services.HandoffLabel)
		return c.SendString("Suppressed by \"humano\" label")
	}

	// Temporary suppression after a human operator message
	handoffKey := conversationKey(payload.Device.ID, userJID)
	if h.handoff.Suppressed(handoffKey) {
		minutes := int(math.Ceil(h.handoff.Remaining(handoffKey).Minutes()))
		log.Printf("[Handoff] AI suppressed for %s. Time remaining: %dm", userJID, minutes)
		return c.SendString("Suppressed by Human Handoff")
	}

	// Tenant resolution is needed for analytics and lead tracking; the
	// buffer itself only needs it at flush time
	tenant, err := h.store.GetTenantByDeviceID(payload.Device.ID)
	if err == nil {
		h.analytics.Record(tenant.Slug, models.EventTypeMessage, phone)
		if payload.IsFirstMessage() {
			h.analytics.Record(tenant.Slug, models.EventTypeNewConversation, phone)
		}
		h.leads.MaybeTrackLead(tenant, payload)
	}

	h.buffer.Append(conversationKey(payload.Device.ID, phone), payload, c.Body())
	return c.SendString("Buffered")
}
