package models

import "time"

// Tenant represents one customer account (a clinic) with its own WhatsApp
// device, calendars and ad-platform credentials
type Tenant struct {
	ID   uint   `json:"id" gorm:"primaryKey"`
	Slug string `json:"slug" gorm:"size:64;uniqueIndex"`
	Name string `json:"name"`

	// IANA timezone, e.g. "America/Mexico_City"
	Timezone string `json:"timezone"`

	// Availability strategy
	Strategy string `json:"availability_strategy"` // "GLOBAL" or "PER_LOCATION"

	// Where buffered inbound messages are forwarded (agent orchestration)
	WebhookURL string `json:"webhook_url"`

	Wassenger WassengerConfig      `json:"wassenger" gorm:"serializer:json"`
	Google    GoogleConfig         `json:"google" gorm:"serializer:json"`
	Meta      MetaConfig           `json:"meta" gorm:"serializer:json"`
	Locations map[string]*Location `json:"locations" gorm:"serializer:json"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// WassengerConfig holds the messaging provider credentials for a tenant
type WassengerConfig struct {
	DeviceID string `json:"device_id"`
	APIKey   string `json:"api_key"`
}

// GoogleConfig holds the calendar set and credentials for a tenant or location
type GoogleConfig struct {
	// Service account key JSON (client_email, private_key, token_uri)
	ServiceAccountKey string `json:"service_account_key"`

	AvailabilityCalendars []string `json:"availability_calendars"`
	BookingCalendarID     string   `json:"booking_calendar_id"`
}

// MetaConfig holds the ad-conversion (CAPI) credentials for a tenant
type MetaConfig struct {
	PixelID     string `json:"pixel_id"`
	AccessToken string `json:"access_token"`
}

// Location (sede) is a sub-scope of a tenant with its own calendar subset
type Location struct {
	Name   string       `json:"name"`
	Google GoogleConfig `json:"google"`
}

// Strategy constants
const (
	StrategyGlobal      = "GLOBAL"
	StrategyPerLocation = "PER_LOCATION"
)

// AvailabilityStrategy returns the tenant strategy, defaulting to PER_LOCATION
func (t *Tenant) AvailabilityStrategy() string {
	if t.Strategy == StrategyGlobal {
		return StrategyGlobal
	}
	return StrategyPerLocation
}

// GetLocation looks up a location (sede) by name
func (t *Tenant) GetLocation(name string) (*Location, bool) {
	if t.Locations == nil {
		return nil, false
	}
	loc, ok := t.Locations[name]
	return loc, ok
}
