package services

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/emyflow/emyflow-backend/internal/models"
)

// Reminder offsets before the appointment start
var reminderOffsets = []struct {
	before time.Duration
	text   string
}{
	{24 * time.Hour, "Hola %s, te recordamos tu cita de mañana a las %s%s. ¡Te esperamos!"},
	{2 * time.Hour, "Hola %s, tu cita es hoy a las %s%s. ¡Nos vemos pronto!"},
}

// BookingService re-validates availability at commit time and writes the
// appointment, then schedules best-effort side effects (reminders, ad
// conversion, analytics)
type BookingService struct {
	calendar  CalendarAPI
	messaging MessagingAPI
	marketing MarketingAPI
	analytics AnalyticsRecorder
	nowFunc   func() time.Time
	wg        sync.WaitGroup
}

// NewBookingService wires the orchestrator
func NewBookingService(calendar CalendarAPI, messaging MessagingAPI, marketing MarketingAPI, analytics AnalyticsRecorder) *BookingService {
	return &BookingService{
		calendar:  calendar,
		messaging: messaging,
		marketing: marketing,
		analytics: analytics,
		nowFunc:   time.Now,
	}
}

// resolveBookingTarget picks the calendar the event is written to and the
// set re-checked for conflicts. An explicit location always overrides the
// tenant-level booking calendar; GLOBAL strategy still checks the shared
// tenant-level availability set.
func resolveBookingTarget(tenant *models.Tenant, location string) (bookingCal string, checkCals []string, loc *models.Location, err error) {
	bookingCal = tenant.Google.BookingCalendarID
	checkCals = tenant.Google.AvailabilityCalendars

	if location != "" {
		l, ok := tenant.GetLocation(location)
		if !ok {
			return "", nil, nil, fmt.Errorf("%w: sede '%s' for client %s", models.ErrLocationNotFound, location, tenant.Slug)
		}
		loc = l
		bookingCal = l.Google.BookingCalendarID
		if tenant.AvailabilityStrategy() == models.StrategyPerLocation {
			checkCals = l.Google.AvailabilityCalendars
		}
	}

	if tenant.AvailabilityStrategy() == models.StrategyGlobal {
		checkCals = tenant.Google.AvailabilityCalendars
	}
	return bookingCal, checkCals, loc, nil
}

// CreateAppointment re-checks the exact requested slot and commits the
// calendar write. A detected conflict aborts with a structured result;
// nothing is partially booked.
func (s *BookingService) CreateAppointment(ctx context.Context, req *models.BookingRequest) (*models.BookingResult, error) {
	tenant := req.Tenant

	bookingCal, checkCals, loc, err := resolveBookingTarget(tenant, req.Location)
	if err != nil {
		return nil, err
	}
	if bookingCal == "" {
		return nil, fmt.Errorf("%w: booking calendar for client %s", models.ErrNotConfigured, tenant.Slug)
	}

	// Commit-time validation against the literal requested window, not the
	// widened day-overview window. Per-calendar failures are absorbed so one
	// broken calendar cannot block every booking.
	for _, calID := range checkCals {
		events, err := s.calendar.ListEvents(ctx, tenant, calID, req.Start, req.End)
		if err != nil {
			log.Printf("[Calendar] Error checking %s during booking: %v", calID, err)
			continue
		}
		if len(conflicting(events, req.Start, req.End)) > 0 {
			return &models.BookingResult{
				Success: false,
				Error:   "Slot no longer available (Conflict detected)",
			}, nil
		}
	}

	event := &models.CalendarEvent{
		Summary:     "Evaluación Dental: " + req.Patient.Name,
		Description: req.Description,
		Start:       models.EventTime{DateTime: req.Start.Format(time.RFC3339)},
		End:         models.EventTime{DateTime: req.End.Format(time.RFC3339)},
	}

	created, err := s.calendar.InsertEvent(ctx, tenant, bookingCal, event)
	if err != nil {
		return nil, err
	}

	// Side effects are best-effort: the appointment stays booked even when
	// reminders or the conversion event fail
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.scheduleReminders(tenant, loc, req)
		if err := s.marketing.TrackSchedule(tenant, req.Patient.Phone); err != nil {
			log.Printf("[Booking] Failed to track Schedule event for %s: %v", tenant.Slug, err)
		}
		s.analytics.Record(tenant.Slug, models.EventTypeSchedule, req.Patient.Phone)
	}()

	return &models.BookingResult{Success: true, EventID: created.ID}, nil
}

func (s *BookingService) scheduleReminders(tenant *models.Tenant, loc *models.Location, req *models.BookingRequest) {
	tz, err := time.LoadLocation(tenant.Timezone)
	if err != nil {
		log.Printf("[Booking] Invalid timezone for %s, skipping reminders: %v", tenant.Slug, err)
		return
	}

	place := ""
	if loc != nil && loc.Name != "" {
		place = " en " + loc.Name
	}
	timeOfDay := req.Start.In(tz).Format("15:04")

	now := s.nowFunc()
	for _, r := range reminderOffsets {
		sendAt := req.Start.Add(-r.before)
		if !sendAt.After(now) {
			continue // appointment is closer than the reminder offset
		}
		body := fmt.Sprintf(r.text, req.Patient.Name, timeOfDay, place)
		if err := s.messaging.SendScheduledMessage(tenant, req.Patient.Phone, body, sendAt); err != nil {
			log.Printf("[Booking] Failed to schedule reminder for %s: %v", req.Patient.Phone, err)
		}
	}
}

// Wait blocks until in-flight side effects finished. Used on shutdown and by
// tests.
func (s *BookingService) Wait() {
	s.wg.Wait()
}

func conflicting(events []models.CalendarEvent, reqStart, reqEnd time.Time) []models.CalendarEvent {
	var out []models.CalendarEvent
	for _, e := range events {
		start, ok := e.StartTime()
		if !ok {
			continue
		}
		end, ok := e.EndTime()
		if !ok {
			continue
		}
		if reqStart.Before(end) && reqEnd.After(start) {
			out = append(out, e)
		}
	}
	return out
}
