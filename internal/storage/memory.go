package storage

import (
	"sync"
	"time"

	"github.com/emyflow/emyflow-backend/internal/models"
)

// MemoryStore holds all tenant data in memory, for development and tests
type MemoryStore struct {
	tenants  map[string]*models.Tenant // by slug
	byDevice map[string]string         // device id -> slug
	events   []*models.AnalyticsEvent

	tenantMu sync.RWMutex
	eventMu  sync.RWMutex

	tenantCounter uint
}

// NewMemoryStore creates a new in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		tenants:  make(map[string]*models.Tenant),
		byDevice: make(map[string]string),
	}
}

func (m *MemoryStore) CreateTenant(tenant *models.Tenant) (*models.Tenant, error) {
	m.tenantMu.Lock()
	defer m.tenantMu.Unlock()

	m.tenantCounter++
	tenant.ID = m.tenantCounter
	tenant.CreatedAt = time.Now()
	tenant.UpdatedAt = time.Now()

	m.tenants[tenant.Slug] = tenant
	if tenant.Wassenger.DeviceID != "" {
		m.byDevice[tenant.Wassenger.DeviceID] = tenant.Slug
	}
	return tenant, nil
}

func (m *MemoryStore) GetTenantBySlug(slug string) (*models.Tenant, error) {
	m.tenantMu.RLock()
	defer m.tenantMu.RUnlock()

	tenant, exists := m.tenants[slug]
	if !exists {
		return nil, models.ErrTenantNotFound
	}
	return tenant, nil
}

func (m *MemoryStore) GetTenantByDeviceID(deviceID string) (*models.Tenant, error) {
	m.tenantMu.RLock()
	defer m.tenantMu.RUnlock()

	slug, exists := m.byDevice[deviceID]
	if !exists {
		return nil, models.ErrTenantNotFound
	}
	tenant, exists := m.tenants[slug]
	if !exists {
		return nil, models.ErrTenantNotFound
	}
	return tenant, nil
}

func (m *MemoryStore) GetAllTenants() ([]*models.Tenant, error) {
	m.tenantMu.RLock()
	defer m.tenantMu.RUnlock()

	tenants := make([]*models.Tenant, 0, len(m.tenants))
	for _, t := range m.tenants {
		tenants = append(tenants, t)
	}
	return tenants, nil
}

func (m *MemoryStore) UpdateTenant(tenant *models.Tenant) error {
	m.tenantMu.Lock()
	defer m.tenantMu.Unlock()

	existing, exists := m.tenants[tenant.Slug]
	if !exists {
		return models.ErrTenantNotFound
	}

	// Re-index if the device changed
	if existing.Wassenger.DeviceID != tenant.Wassenger.DeviceID {
		delete(m.byDevice, existing.Wassenger.DeviceID)
		if tenant.Wassenger.DeviceID != "" {
			m.byDevice[tenant.Wassenger.DeviceID] = tenant.Slug
		}
	}

	tenant.ID = existing.ID
	tenant.CreatedAt = existing.CreatedAt
	tenant.UpdatedAt = time.Now()
	m.tenants[tenant.Slug] = tenant
	return nil
}

func (m *MemoryStore) DeleteTenant(slug string) error {
	m.tenantMu.Lock()
	defer m.tenantMu.Unlock()

	tenant, exists := m.tenants[slug]
	if !exists {
		return models.ErrTenantNotFound
	}
	delete(m.byDevice, tenant.Wassenger.DeviceID)
	delete(m.tenants, slug)
	return nil
}

func (m *MemoryStore) RecordAnalyticsEvent(event *models.AnalyticsEvent) error {
	m.eventMu.Lock()
	defer m.eventMu.Unlock()

	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}
	m.events = append(m.events, event)
	return nil
}

func (m *MemoryStore) GetAnalyticsSummary(slug string) (map[string]int64, error) {
	m.eventMu.RLock()
	defer m.eventMu.RUnlock()

	summary := make(map[string]int64)
	for _, e := range m.events {
		if e.TenantSlug == slug {
			summary[e.Type]++
		}
	}
	return summary, nil
}
