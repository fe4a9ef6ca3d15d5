package storage

import (
	"github.com/emyflow/emyflow-backend/internal/models"
)

var storeInstance Store

// SetStore sets the global store instance (call from main.go)
func SetStore(s Store) {
	storeInstance = s
}

// GetStore returns the global store instance
func GetStore() Store {
	return storeInstance
}

// Store defines the interface for tenant configuration and analytics storage
type Store interface {
	// Tenant operations
	CreateTenant(tenant *models.Tenant) (*models.Tenant, error)
	GetTenantBySlug(slug string) (*models.Tenant, error)
	GetTenantByDeviceID(deviceID string) (*models.Tenant, error)
	GetAllTenants() ([]*models.Tenant, error)
	UpdateTenant(tenant *models.Tenant) error
	DeleteTenant(slug string) error

	// Analytics operations
	RecordAnalyticsEvent(event *models.AnalyticsEvent) error
	GetAnalyticsSummary(slug string) (map[string]int64, error)
}
