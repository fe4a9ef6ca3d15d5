package services

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/emyflow/emyflow-backend/internal/models"
)

// fakeCalendar serves canned events per calendar id and records inserts
type fakeCalendar struct {
	mu      sync.Mutex
	events  map[string][]models.CalendarEvent
	errs    map[string]error
	inserts []insertedEvent
	listed  []string
}

type insertedEvent struct {
	calendarID string
	event      *models.CalendarEvent
}

func newFakeCalendar() *fakeCalendar {
	return &fakeCalendar{
		events: make(map[string][]models.CalendarEvent),
		errs:   make(map[string]error),
	}
}

func (f *fakeCalendar) ListEvents(_ context.Context, _ *models.Tenant, calendarID string, _, _ time.Time) ([]models.CalendarEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listed = append(f.listed, calendarID)
	if err := f.errs[calendarID]; err != nil {
		return nil, err
	}
	return f.events[calendarID], nil
}

func (f *fakeCalendar) InsertEvent(_ context.Context, _ *models.Tenant, calendarID string, event *models.CalendarEvent) (*models.CalendarEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.inserts = append(f.inserts, insertedEvent{calendarID: calendarID, event: event})
	created := *event
	created.ID = "evt-123"
	return &created, nil
}

func (f *fakeCalendar) insertCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.inserts)
}

// fakeMessaging records every provider call
type fakeMessaging struct {
	mu        sync.Mutex
	sent      []string
	scheduled []scheduledMsg
	labels    map[string][]string
	metadata  map[string]map[string]string
}

type scheduledMsg struct {
	phone     string
	body      string
	deliverAt time.Time
}

func newFakeMessaging() *fakeMessaging {
	return &fakeMessaging{
		labels:   make(map[string][]string),
		metadata: make(map[string]map[string]string),
	}
}

func (f *fakeMessaging) SendMessage(_ *models.Tenant, phone, body string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, phone+": "+body)
	return nil
}

func (f *fakeMessaging) SendScheduledMessage(_ *models.Tenant, phone, body string, deliverAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.scheduled = append(f.scheduled, scheduledMsg{phone: phone, body: body, deliverAt: deliverAt})
	return nil
}

func (f *fakeMessaging) AddChatLabels(_ *models.Tenant, phone string, labels []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.labels[phone] = append(f.labels[phone], labels...)
	return nil
}

func (f *fakeMessaging) UpdateContactMetadata(_ *models.Tenant, phone string, metadata map[string]string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.metadata[phone] == nil {
		f.metadata[phone] = make(map[string]string)
	}
	for k, v := range metadata {
		f.metadata[phone][k] = v
	}
	return nil
}

func (f *fakeMessaging) scheduledCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.scheduled)
}

// fakeMarketing counts conversion calls and can be told to fail
type fakeMarketing struct {
	mu        sync.Mutex
	leadErr   error
	leads     []string
	schedules []string
	events    []string
}

func (f *fakeMarketing) SendEvent(_ *models.Tenant, eventName string, _ models.ConversionUserData, _ models.ConversionOptions) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, eventName)
	return nil
}

func (f *fakeMarketing) TrackLead(_ *models.Tenant, phone string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.leadErr != nil {
		return f.leadErr
	}
	f.leads = append(f.leads, phone)
	return nil
}

func (f *fakeMarketing) TrackSchedule(_ *models.Tenant, phone string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.schedules = append(f.schedules, phone)
	return nil
}

func (f *fakeMarketing) leadCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.leads)
}

func (f *fakeMarketing) scheduleCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.schedules)
}

// fakeAnalytics records funnel events
type fakeAnalytics struct {
	mu     sync.Mutex
	events []string
}

func (f *fakeAnalytics) Record(slug, eventType, userID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, slug+"/"+eventType+"/"+userID)
}

func (f *fakeAnalytics) count(eventType string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, e := range f.events {
		parts := strings.Split(e, "/")
		if len(parts) == 3 && parts[1] == eventType {
			n++
		}
	}
	return n
}

func testTenant() *models.Tenant {
	return &models.Tenant{
		Slug:     "clinica-demo",
		Name:     "Clínica Demo",
		Timezone: "America/Mexico_City",
		Wassenger: models.WassengerConfig{
			DeviceID: "device-1",
			APIKey:   "key",
		},
		Google: models.GoogleConfig{
			AvailabilityCalendars: []string{"cal-a", "cal-b"},
			BookingCalendarID:     "cal-booking",
		},
		Meta: models.MetaConfig{PixelID: "px", AccessToken: "tok"},
	}
}
