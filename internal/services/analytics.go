package services

import (
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/emyflow/emyflow-backend/internal/models"
	"github.com/emyflow/emyflow-backend/internal/storage"
)

// AnalyticsRecorder records per-tenant funnel events. Recording is
// best-effort: the webhook path never fails because analytics did.
type AnalyticsRecorder interface {
	Record(slug, eventType, userID string)
}

// AnalyticsService persists funnel events through the tenant store
type AnalyticsService struct {
	store storage.Store
}

// NewAnalyticsService creates an analytics recorder backed by store
func NewAnalyticsService(store storage.Store) *AnalyticsService {
	return &AnalyticsService{store: store}
}

func (s *AnalyticsService) Record(slug, eventType, userID string) {
	event := &models.AnalyticsEvent{
		ID:         uuid.NewString(),
		TenantSlug: slug,
		Type:       eventType,
		UserID:     userID,
		CreatedAt:  time.Now(),
	}
	if err := s.store.RecordAnalyticsEvent(event); err != nil {
		log.Printf("[Analytics] Failed to record %s event for %s: %v", eventType, slug, err)
	}
}
