package models

import "time"

// AnalyticsEvent is one funnel event recorded for a tenant
type AnalyticsEvent struct {
	ID         string    `json:"id" gorm:"primaryKey;size:36"`
	TenantSlug string    `json:"tenant_slug" gorm:"size:64;index"`
	Type       string    `json:"type" gorm:"size:32;index"`
	UserID     string    `json:"user_id" gorm:"size:64"` // conversation key (phone/JID)
	CreatedAt  time.Time `json:"created_at"`
}

// Analytics event types
const (
	EventTypeMessage         = "MESSAGE"
	EventTypeNewConversation = "NEW_CONVERSATION"
	EventTypeLead            = "LEAD"
	EventTypeHandoff         = "HANDOFF"
	EventTypeSchedule        = "SCHEDULE"
)

// ConversionUserData is the unhashed user data of an ad-conversion event.
// Hashing happens in the marketing service right before dispatch.
type ConversionUserData struct {
	Phone           string `json:"phone,omitempty"`
	Email           string `json:"email,omitempty"`
	FBP             string `json:"fbp,omitempty"`
	FBC             string `json:"fbc,omitempty"`
	ClientUserAgent string `json:"client_user_agent,omitempty"`
	ClientIPAddress string `json:"client_ip_address,omitempty"`
}

// ConversionOptions carries the optional envelope fields of a conversion
// event. Zero values fall back to the dispatch defaults (fresh uuid event id,
// "website" action source, no source URL).
type ConversionOptions struct {
	EventID        string `json:"event_id,omitempty"`
	EventSourceURL string `json:"event_source_url,omitempty"`
	ActionSource   string `json:"action_source,omitempty"`
}

// Conversion event names accepted by the ad platform
const (
	ConversionLead     = "Lead"
	ConversionPurchase = "Purchase"
	ConversionSchedule = "Schedule"
)
