package services

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"github.com/emyflow/emyflow-backend/internal/models"
)

// AvailabilityQuery describes one availability question: either a specific
// slot (StartTime+EndTime) or a day overview (QueryDate), optionally scoped
// to a location
type AvailabilityQuery struct {
	Tenant    *models.Tenant
	Location  string // sede name, optional
	StartTime string // optional, slot check
	EndTime   string // optional, slot check
	QueryDate string // optional, day overview
}

// AvailabilityService aggregates busy intervals across a tenant's calendar
// set, respecting the tenant strategy and timezone
type AvailabilityService struct {
	calendar CalendarAPI
	nowFunc  func() time.Time
}

// NewAvailabilityService creates the resolver
func NewAvailabilityService(calendar CalendarAPI) *AvailabilityService {
	return &AvailabilityService{
		calendar: calendar,
		nowFunc:  time.Now,
	}
}

// resolveAvailabilityCalendars picks the calendar id set to query. GLOBAL
// always uses the tenant-level set; PER_LOCATION uses the named location's
// set, falling back to the tenant-level set when no location is given.
func resolveAvailabilityCalendars(tenant *models.Tenant, location string) ([]string, error) {
	if tenant.AvailabilityStrategy() == models.StrategyGlobal {
		return tenant.Google.AvailabilityCalendars, nil
	}
	if location != "" {
		loc, ok := tenant.GetLocation(location)
		if !ok {
			return nil, fmt.Errorf("%w: sede '%s' for client %s", models.ErrLocationNotFound, location, tenant.Slug)
		}
		return loc.Google.AvailabilityCalendars, nil
	}
	return tenant.Google.AvailabilityCalendars, nil
}

// CheckAvailability answers the query with a busy-slot day overview and,
// when a slot was requested, an overlap verdict
func (s *AvailabilityService) CheckAvailability(ctx context.Context, q AvailabilityQuery) (*models.AvailabilityResult, error) {
	tenant := q.Tenant

	calendars, err := resolveAvailabilityCalendars(tenant, q.Location)
	if err != nil {
		return nil, err
	}

	tz, err := time.LoadLocation(tenant.Timezone)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid timezone %q for client %s", models.ErrNotConfigured, tenant.Timezone, tenant.Slug)
	}

	var targetDate time.Time
	switch {
	case q.StartTime != "":
		targetDate, err = ParseDateTime(q.StartTime, tz)
	case q.QueryDate != "":
		targetDate, err = ParseDateTime(q.QueryDate, tz)
	default:
		targetDate = s.nowFunc().In(tz)
	}
	if err != nil {
		return nil, err
	}

	// Widen the upstream query window by two days on each side so the full
	// local day is captured regardless of timezone offset. The day filter
	// below narrows back down.
	local := targetDate.In(tz)
	dayStart := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, tz)
	searchStart := dayStart.AddDate(0, 0, -2)
	searchEnd := dayStart.AddDate(0, 0, 3).Add(-time.Millisecond)

	busy := s.collectBusySlots(ctx, tenant, calendars, searchStart, searchEnd)

	// The requested local day. When the caller passed a literal YYYY-MM-DD
	// we filter for exactly that string; reformatting an already-shifted
	// instant is what causes off-by-one days at timezone boundaries.
	var targetDay string
	if q.QueryDate != "" && IsISODate(q.QueryDate) {
		targetDay = q.QueryDate
	} else {
		targetDay = local.Format("2006-01-02")
	}

	var dayEvents []models.BusySlot
	for _, slot := range busy {
		if slot.Start.In(tz).Format("2006-01-02") == targetDay {
			dayEvents = append(dayEvents, slot)
		}
	}
	sort.Slice(dayEvents, func(i, j int) bool {
		return dayEvents[i].Start.Before(dayEvents[j].Start)
	})

	dayContext := renderDayContext(dayEvents, tz)

	result := &models.AvailabilityResult{
		Available:  true,
		Status:     "Slot available",
		DayContext: dayContext,
	}

	if q.StartTime != "" && q.EndTime != "" {
		reqStart, err := ParseDateTime(q.StartTime, tz)
		if err != nil {
			return nil, err
		}
		reqEnd, err := ParseDateTime(q.EndTime, tz)
		if err != nil {
			return nil, err
		}

		if conflict := findConflict(dayEvents, reqStart, reqEnd); conflict != nil {
			result.Available = false
			result.Status = "Slot busy"
			result.Conflict = conflict
		}
	}

	return result, nil
}

// collectBusySlots queries each calendar independently. A failing calendar
// contributes zero events instead of aborting the whole lookup.
func (s *AvailabilityService) collectBusySlots(ctx context.Context, tenant *models.Tenant, calendars []string, timeMin, timeMax time.Time) []models.BusySlot {
	var busy []models.BusySlot
	for _, calID := range calendars {
		events, err := s.calendar.ListEvents(ctx, tenant, calID, timeMin, timeMax)
		if err != nil {
			log.Printf("[Calendar] Error fetching events from %s: %v", calID, err)
			continue
		}
		for _, e := range events {
			start, ok := e.StartTime()
			if !ok {
				continue // all-day events carry no dateTime
			}
			end, ok := e.EndTime()
			if !ok {
				continue
			}
			busy = append(busy, models.BusySlot{
				CalendarID: calID,
				Start:      start,
				End:        end,
				Summary:    e.Summary,
			})
		}
	}
	return busy
}

// findConflict applies the half-open overlap rule: a requested slot
// conflicts iff requestedStart < eventEnd and requestedEnd > eventStart
func findConflict(events []models.BusySlot, reqStart, reqEnd time.Time) *models.ConflictDetails {
	for _, e := range events {
		if reqStart.Before(e.End) && reqEnd.After(e.Start) {
			return &models.ConflictDetails{
				Start:   e.Start.Format(time.RFC3339),
				End:     e.End.Format(time.RFC3339),
				Summary: e.Summary,
			}
		}
	}
	return nil
}

func renderDayContext(events []models.BusySlot, tz *time.Location) string {
	if len(events) == 0 {
		return "Todo el día está libre."
	}
	lines := make([]string, 0, len(events))
	for _, e := range events {
		lines = append(lines, fmt.Sprintf("%s - %s (Ocupado)",
			e.Start.In(tz).Format("15:04"), e.End.In(tz).Format("15:04")))
	}
	return "Agenda del día:\n" + strings.Join(lines, "\n")
}
