package models

// Wassenger webhook event names we act on. Everything else is acknowledged
// and ignored.
const (
	EventMessageIn  = "message:in:new"
	EventMessageOut = "message:out:new"
)

// EventKind is the validated variant of an inbound webhook payload
type EventKind int

const (
	EventUnknown EventKind = iota
	EventInbound
	EventOutbound
)

// WebhookPayload represents an incoming Wassenger webhook event
type WebhookPayload struct {
	Event  string       `json:"event"`
	Device DeviceInfo   `json:"device"`
	Data   *MessageData `json:"data"`
}

// DeviceInfo identifies the WhatsApp device (and therefore the tenant)
type DeviceInfo struct {
	ID string `json:"id"`
}

// MessageData is the message body of a webhook event
type MessageData struct {
	From       string       `json:"from"`       // JID (number@c.us)
	FromNumber string       `json:"fromNumber"` // bare phone number
	To         string       `json:"to"`         // JID on outbound messages
	Body       string       `json:"body"`
	Flow       string       `json:"flow"`  // "inbound" / "outbound"
	Agent      string       `json:"agent"` // set when a human operator sent the message
	Meta       *MessageMeta `json:"meta"`
	Chat       *ChatInfo    `json:"chat"`
}

// MessageMeta carries provider-side message flags
type MessageMeta struct {
	IsFirstMessage *bool `json:"isFirstMessage"`
}

// ChatInfo carries the conversation labels and contact metadata as stored by
// the messaging provider
type ChatInfo struct {
	Contact *ContactInfo `json:"contact"`
	Labels  []string     `json:"labels"`
}

// ContactInfo holds provider-side contact metadata
type ContactInfo struct {
	Metadata []MetadataEntry `json:"metadata"`
}

// MetadataEntry is a provider-side key/value pair on a contact
type MetadataEntry struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Kind classifies the payload. Inbound requires fromNumber and body so that
// status updates and media-only events fall through to EventUnknown.
func (p *WebhookPayload) Kind() EventKind {
	switch p.Event {
	case EventMessageOut:
		return EventOutbound
	case EventMessageIn:
		if p.Data != nil && p.Data.FromNumber != "" && p.Data.Body != "" {
			return EventInbound
		}
	}
	return EventUnknown
}

// HasLabel reports whether the conversation carries the given chat label
func (p *WebhookPayload) HasLabel(label string) bool {
	if p.Data == nil || p.Data.Chat == nil {
		return false
	}
	for _, l := range p.Data.Chat.Labels {
		if l == label {
			return true
		}
	}
	return false
}

// MetadataValue returns the provider-stored contact metadata value for key,
// or "" when absent
func (p *WebhookPayload) MetadataValue(key string) string {
	if p.Data == nil || p.Data.Chat == nil || p.Data.Chat.Contact == nil {
		return ""
	}
	for _, m := range p.Data.Chat.Contact.Metadata {
		if m.Key == key {
			return m.Value
		}
	}
	return ""
}

// IsFirstMessage reports whether the provider flagged this as the first
// message of the conversation. Missing meta counts as false.
func (p *WebhookPayload) IsFirstMessage() bool {
	if p.Data == nil || p.Data.Meta == nil || p.Data.Meta.IsFirstMessage == nil {
		return false
	}
	return *p.Data.Meta.IsFirstMessage
}

// IsFollowUpMessage reports whether the provider explicitly flagged this as
// NOT the first message. A missing flag is not a follow-up: lead tracking
// requires the explicit false.
func (p *WebhookPayload) IsFollowUpMessage() bool {
	if p.Data == nil || p.Data.Meta == nil || p.Data.Meta.IsFirstMessage == nil {
		return false
	}
	return !*p.Data.Meta.IsFirstMessage
}
