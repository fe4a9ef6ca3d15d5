package services

import (
	"log"
	"sync"
	"time"

	"github.com/emyflow/emyflow-backend/internal/cache"
	"github.com/emyflow/emyflow-backend/internal/models"
)

const (
	// LeadMetadataKey is the provider-stored contact flag that marks the
	// lead conversion as already sent (durable, cross-process dedup)
	LeadMetadataKey = "capi_lead_enviado"

	// LeadGuardTTL covers the window until the provider has propagated the
	// metadata write
	LeadGuardTTL = 5 * time.Minute
)

// LeadDeduplicator forwards the "first qualifying reply" conversion event at
// most once per conversation within the guard window. The guard is claimed
// synchronously before any network call so concurrent webhook deliveries
// cannot both reach the provider.
type LeadDeduplicator struct {
	guard     *cache.TTLCache
	marketing MarketingAPI
	messaging MessagingAPI
	analytics AnalyticsRecorder
	nowFunc   func() time.Time
	wg        sync.WaitGroup
}

// NewLeadDeduplicator wires the dedup guard to its downstream collaborators
func NewLeadDeduplicator(marketing MarketingAPI, messaging MessagingAPI, analytics AnalyticsRecorder) *LeadDeduplicator {
	return &LeadDeduplicator{
		guard:     cache.New(LeadGuardTTL),
		marketing: marketing,
		messaging: messaging,
		analytics: analytics,
		nowFunc:   time.Now,
	}
}

// MaybeTrackLead forwards the conversion event if the inbound payload
// qualifies and no attempt is already in flight. The downstream call runs
// asynchronously; on failure the guard is released so the next inbound
// message retries.
func (d *LeadDeduplicator) MaybeTrackLead(tenant *models.Tenant, payload *models.WebhookPayload) {
	if payload.Data == nil || payload.Data.Flow != "inbound" || !payload.IsFollowUpMessage() {
		return
	}

	phone := payload.Data.FromNumber
	if payload.MetadataValue(LeadMetadataKey) == "true" {
		log.Printf("[Webhook] Lead event skipped for %s: '%s' metadata already true.", phone, LeadMetadataKey)
		return
	}

	key := tenant.Slug + ":" + phone
	if !d.guard.Claim(key, d.nowFunc()) {
		log.Printf("[Webhook] Lead event skipped for %s: already in deduplication cache.", phone)
		return
	}

	log.Printf("[Webhook] Detected potential Lead for client %s (Device: %s)", tenant.Slug, tenant.Wassenger.DeviceID)

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()

		if err := d.marketing.TrackLead(tenant, phone); err != nil {
			// Release the guard so a later message can retry
			d.guard.Remove(key)
			log.Printf("[Webhook] Failed to track automated Lead: %v", err)
			return
		}

		d.analytics.Record(tenant.Slug, models.EventTypeLead, phone)

		if err := d.messaging.UpdateContactMetadata(tenant, phone, map[string]string{LeadMetadataKey: "true"}); err != nil {
			log.Printf("[Webhook] Failed to update lead metadata: %v", err)
		}
	}()
}

// Wait blocks until all in-flight lead deliveries finished. Used on shutdown
// and by tests.
func (d *LeadDeduplicator) Wait() {
	d.wg.Wait()
}

// Guard exposes the backing cache for the periodic sweep job
func (d *LeadDeduplicator) Guard() *cache.TTLCache {
	return d.guard
}
