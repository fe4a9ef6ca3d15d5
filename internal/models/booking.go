package models

import "time"

// PatientData holds the contact fields an appointment is created for
type PatientData struct {
	Name   string `json:"nombre"`
	Phone  string `json:"telefono"`
	Email  string `json:"email,omitempty"`
	Reason string `json:"motivo,omitempty"`
}

// BookingRequest is a single appointment-creation attempt. Built per call,
// discarded after use.
type BookingRequest struct {
	Tenant      *Tenant
	Location    string // sede name, optional
	Patient     PatientData
	Start       time.Time
	End         time.Time
	Description string
}

// CalendarEvent mirrors the calendar provider's event resource
type CalendarEvent struct {
	ID          string    `json:"id,omitempty"`
	Summary     string    `json:"summary,omitempty"`
	Description string    `json:"description,omitempty"`
	Start       EventTime `json:"start"`
	End         EventTime `json:"end"`
}

// EventTime is the provider's dateTime wrapper. All-day events carry Date
// instead of DateTime and are ignored by availability checks.
type EventTime struct {
	DateTime string `json:"dateTime,omitempty"`
	Date     string `json:"date,omitempty"`
	TimeZone string `json:"timeZone,omitempty"`
}

// StartTime parses the event start instant; ok is false for all-day events
// or unparseable values
func (e *CalendarEvent) StartTime() (time.Time, bool) {
	return parseEventTime(e.Start.DateTime)
}

// EndTime parses the event end instant
func (e *CalendarEvent) EndTime() (time.Time, bool) {
	return parseEventTime(e.End.DateTime)
}

func parseEventTime(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// BusySlot is one occupied interval in an availability overview
type BusySlot struct {
	CalendarID string
	Start      time.Time
	End        time.Time
	Summary    string
}

// ConflictDetails describes the first event blocking a requested slot
type ConflictDetails struct {
	Start   string `json:"start"`
	End     string `json:"end"`
	Summary string `json:"summary"`
}

// AvailabilityResult is the structured answer of an availability check
type AvailabilityResult struct {
	Available  bool             `json:"available"`
	Status     string           `json:"status"`
	DayContext string           `json:"day_context"`
	Conflict   *ConflictDetails `json:"conflict"`
}

// BookingResult is the structured answer of an appointment creation
type BookingResult struct {
	Success bool   `json:"success"`
	EventID string `json:"eventId,omitempty"`
	Error   string `json:"error,omitempty"`
}
