package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/emyflow/emyflow-backend/internal/models"
)

// CalendarAPI is the calendar provider surface: list events in a window,
// insert an event
type CalendarAPI interface {
	ListEvents(ctx context.Context, tenant *models.Tenant, calendarID string, timeMin, timeMax time.Time) ([]models.CalendarEvent, error)
	InsertEvent(ctx context.Context, tenant *models.Tenant, calendarID string, event *models.CalendarEvent) (*models.CalendarEvent, error)
}

// GoogleCalendarService implements CalendarAPI against the Google Calendar v3
// REST API with per-tenant service-account auth
type GoogleCalendarService struct {
	client  *http.Client
	auth    *GoogleAuthService
	baseURL string
}

// NewGoogleCalendarService creates the calendar client
func NewGoogleCalendarService(auth *GoogleAuthService) *GoogleCalendarService {
	return &GoogleCalendarService{
		client:  &http.Client{Timeout: 20 * time.Second},
		auth:    auth,
		baseURL: "https://www.googleapis.com/calendar/v3",
	}
}

func (g *GoogleCalendarService) ListEvents(ctx context.Context, tenant *models.Tenant, calendarID string, timeMin, timeMax time.Time) ([]models.CalendarEvent, error) {
	token, err := g.auth.Token(ctx, tenant)
	if err != nil {
		return nil, err
	}

	q := url.Values{}
	q.Set("timeMin", timeMin.UTC().Format(time.RFC3339))
	q.Set("timeMax", timeMax.UTC().Format(time.RFC3339))
	q.Set("singleEvents", "true")
	q.Set("orderBy", "startTime")

	endpoint := fmt.Sprintf("%s/calendars/%s/events?%s", g.baseURL, url.PathEscape(calendarID), q.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, models.NewUpstreamError("google-calendar", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, models.NewUpstreamError("google-calendar", fmt.Errorf("list events status %d", resp.StatusCode))
	}

	var listResp struct {
		Items []models.CalendarEvent `json:"items"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&listResp); err != nil {
		return nil, models.NewUpstreamError("google-calendar", err)
	}
	return listResp.Items, nil
}

func (g *GoogleCalendarService) InsertEvent(ctx context.Context, tenant *models.Tenant, calendarID string, event *models.CalendarEvent) (*models.CalendarEvent, error) {
	token, err := g.auth.Token(ctx, tenant)
	if err != nil {
		return nil, err
	}

	body, err := json.Marshal(event)
	if err != nil {
		return nil, err
	}

	endpoint := fmt.Sprintf("%s/calendars/%s/events", g.baseURL, url.PathEscape(calendarID))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, models.NewUpstreamError("google-calendar", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, models.NewUpstreamError("google-calendar", fmt.Errorf("insert event status %d", resp.StatusCode))
	}

	var created models.CalendarEvent
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		return nil, models.NewUpstreamError("google-calendar", err)
	}
	return &created, nil
}
