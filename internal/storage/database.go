package storage

import (
	"errors"

	"gorm.io/gorm"

	"github.com/emyflow/emyflow-backend/internal/models"
)

// DatabaseStore persists tenants and analytics events in PostgreSQL via GORM
type DatabaseStore struct {
	db *gorm.DB
}

// NewDatabaseStore creates a database-backed store
func NewDatabaseStore(db *gorm.DB) *DatabaseStore {
	return &DatabaseStore{db: db}
}

func (d *DatabaseStore) CreateTenant(tenant *models.Tenant) (*models.Tenant, error) {
	if err := d.db.Create(tenant).Error; err != nil {
		return nil, err
	}
	return tenant, nil
}

func (d *DatabaseStore) GetTenantBySlug(slug string) (*models.Tenant, error) {
	var tenant models.Tenant
	err := d.db.Where("slug = ?", slug).First(&tenant).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, models.ErrTenantNotFound
	}
	if err != nil {
		return nil, err
	}
	return &tenant, nil
}

func (d *DatabaseStore) GetTenantByDeviceID(deviceID string) (*models.Tenant, error) {
	// The device id lives inside the wassenger JSON column
	var tenant models.Tenant
	err := d.db.Where("wassenger ->> 'device_id' = ?", deviceID).First(&tenant).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, models.ErrTenantNotFound
	}
	if err != nil {
		return nil, err
	}
	return &tenant, nil
}

func (d *DatabaseStore) GetAllTenants() ([]*models.Tenant, error) {
	var tenants []*models.Tenant
	if err := d.db.Order("slug").Find(&tenants).Error; err != nil {
		return nil, err
	}
	return tenants, nil
}

func (d *DatabaseStore) UpdateTenant(tenant *models.Tenant) error {
	existing, err := d.GetTenantBySlug(tenant.Slug)
	if err != nil {
		return err
	}
	tenant.ID = existing.ID
	tenant.CreatedAt = existing.CreatedAt
	return d.db.Save(tenant).Error
}

func (d *DatabaseStore) DeleteTenant(slug string) error {
	res := d.db.Where("slug = ?", slug).Delete(&models.Tenant{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return models.ErrTenantNotFound
	}
	return nil
}

func (d *DatabaseStore) RecordAnalyticsEvent(event *models.AnalyticsEvent) error {
	return d.db.Create(event).Error
}

func (d *DatabaseStore) GetAnalyticsSummary(slug string) (map[string]int64, error) {
	type row struct {
		Type  string
		Count int64
	}
	var rows []row
	err := d.db.Model(&models.AnalyticsEvent{}).
		Select("type, count(*) as count").
		Where("tenant_slug = ?", slug).
		Group("type").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	summary := make(map[string]int64, len(rows))
	for _, r := range rows {
		summary[r.Type] = r.Count
	}
	return summary, nil
}
