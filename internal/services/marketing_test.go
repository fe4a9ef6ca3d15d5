package services

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/emyflow/emyflow-backend/internal/models"
)

func TestBuildUserData(t *testing.T) {
	t.Run("email is lowercased and trimmed before hashing", func(t *testing.T) {
		a := buildUserData(models.ConversionUserData{Email: "  Ana@Example.COM "})
		b := buildUserData(models.ConversionUserData{Email: "ana@example.com"})
		if a["em"] == "" || a["em"] != b["em"] {
			t.Errorf("em hashes differ: %q vs %q", a["em"], b["em"])
		}
	})

	t.Run("phone is stripped to digits before hashing", func(t *testing.T) {
		a := buildUserData(models.ConversionUserData{Phone: "+52 1 55 1234-5678"})
		b := buildUserData(models.ConversionUserData{Phone: "5215512345678"})
		if a["ph"] == "" || a["ph"] != b["ph"] {
			t.Errorf("ph hashes differ: %q vs %q", a["ph"], b["ph"])
		}
	})

	t.Run("browser identifiers pass through unhashed", func(t *testing.T) {
		got := buildUserData(models.ConversionUserData{
			FBP:             "fb.1.1234.5678",
			FBC:             "fb.1.1234.abcd",
			ClientUserAgent: "Mozilla/5.0",
			ClientIPAddress: "203.0.113.7",
		})
		if got["fbp"] != "fb.1.1234.5678" || got["fbc"] != "fb.1.1234.abcd" {
			t.Errorf("browser ids were altered: %v", got)
		}
		if got["client_user_agent"] != "Mozilla/5.0" || got["client_ip_address"] != "203.0.113.7" {
			t.Errorf("client fields were altered: %v", got)
		}
	})

	t.Run("empty fields are omitted", func(t *testing.T) {
		got := buildUserData(models.ConversionUserData{Phone: "555"})
		if _, ok := got["em"]; ok {
			t.Error("empty email produced a hash")
		}
		if len(got) != 1 {
			t.Errorf("user data = %v", got)
		}
	})
}

func TestSendEventRequiresPixel(t *testing.T) {
	svc := NewMetaCAPIService()
	tenant := testTenant()
	tenant.Meta.PixelID = ""

	err := svc.SendEvent(tenant, models.ConversionLead, models.ConversionUserData{Phone: "555"}, models.ConversionOptions{})
	if err == nil {
		t.Fatal("expected configuration error")
	}
}

func captureCAPIPayload(t *testing.T) (*MetaCAPIService, *capiPayload) {
	t.Helper()
	captured := &capiPayload{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(body, captured); err != nil {
			t.Errorf("payload is not valid JSON: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)

	svc := NewMetaCAPIService()
	svc.baseURL = srv.URL
	return svc, captured
}

func TestSendEventEnvelope(t *testing.T) {
	t.Run("defaults: fresh event id and website action source", func(t *testing.T) {
		svc, got := captureCAPIPayload(t)

		err := svc.SendEvent(testTenant(), models.ConversionLead,
			models.ConversionUserData{Phone: "555"}, models.ConversionOptions{})
		if err != nil {
			t.Fatal(err)
		}
		if len(got.Data) != 1 {
			t.Fatalf("events = %d", len(got.Data))
		}
		if got.Data[0].EventID == "" {
			t.Error("event id was not generated")
		}
		if got.Data[0].ActionSource != "website" {
			t.Errorf("action source = %q", got.Data[0].ActionSource)
		}
		if got.Data[0].EventSourceURL != "" {
			t.Errorf("unexpected source url %q", got.Data[0].EventSourceURL)
		}
	})

	t.Run("caller-provided envelope fields are passed through", func(t *testing.T) {
		svc, got := captureCAPIPayload(t)

		err := svc.SendEvent(testTenant(), models.ConversionSchedule,
			models.ConversionUserData{Phone: "555"},
			models.ConversionOptions{
				EventID:        "booking-42",
				EventSourceURL: "https://clinica.example/agenda",
				ActionSource:   "chat",
			})
		if err != nil {
			t.Fatal(err)
		}
		ev := got.Data[0]
		if ev.EventID != "booking-42" || ev.ActionSource != "chat" {
			t.Errorf("envelope = %+v", ev)
		}
		if ev.EventSourceURL != "https://clinica.example/agenda" {
			t.Errorf("source url = %q", ev.EventSourceURL)
		}
	})
}
