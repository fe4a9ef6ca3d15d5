package services

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/emyflow/emyflow-backend/internal/models"
	"github.com/emyflow/emyflow-backend/internal/utils"
)

// MarketingAPI is the ad-conversion provider surface
type MarketingAPI interface {
	SendEvent(tenant *models.Tenant, eventName string, userData models.ConversionUserData, opts models.ConversionOptions) error
	TrackLead(tenant *models.Tenant, phone string) error
	TrackSchedule(tenant *models.Tenant, phone string) error
}

// MetaCAPIService sends hashed conversion events to the Meta Conversions API
type MetaCAPIService struct {
	client  *http.Client
	baseURL string
	nowFunc func() time.Time
}

// NewMetaCAPIService creates the conversions client
func NewMetaCAPIService() *MetaCAPIService {
	return &MetaCAPIService{
		client:  &http.Client{Timeout: 15 * time.Second},
		baseURL: "https://graph.facebook.com/v18.0",
		nowFunc: time.Now,
	}
}

type capiEvent struct {
	EventName      string            `json:"event_name"`
	EventTime      int64             `json:"event_time"`
	EventID        string            `json:"event_id,omitempty"`
	EventSourceURL string            `json:"event_source_url,omitempty"`
	UserData       map[string]string `json:"user_data"`
	ActionSource   string            `json:"action_source"`
}

type capiPayload struct {
	Data        []capiEvent `json:"data"`
	AccessToken string      `json:"access_token"`
}

// hashData returns the lowercase hex SHA-256 the conversions API expects
func hashData(data string) string {
	sum := sha256.Sum256([]byte(data))
	return hex.EncodeToString(sum[:])
}

// buildUserData normalizes and hashes the identifying fields; browser
// identifiers pass through unhashed
func buildUserData(userData models.ConversionUserData) map[string]string {
	hashed := make(map[string]string)
	if userData.Email != "" {
		hashed["em"] = hashData(strings.TrimSpace(strings.ToLower(userData.Email)))
	}
	if userData.Phone != "" {
		hashed["ph"] = hashData(utils.DigitsOnly(userData.Phone))
	}
	if userData.FBP != "" {
		hashed["fbp"] = userData.FBP
	}
	if userData.FBC != "" {
		hashed["fbc"] = userData.FBC
	}
	if userData.ClientUserAgent != "" {
		hashed["client_user_agent"] = userData.ClientUserAgent
	}
	if userData.ClientIPAddress != "" {
		hashed["client_ip_address"] = userData.ClientIPAddress
	}
	return hashed
}

func (s *MetaCAPIService) SendEvent(tenant *models.Tenant, eventName string, userData models.ConversionUserData, opts models.ConversionOptions) error {
	if tenant.Meta.PixelID == "" || tenant.Meta.AccessToken == "" {
		return fmt.Errorf("%w: meta pixel for tenant %s", models.ErrNotConfigured, tenant.Slug)
	}

	eventID := opts.EventID
	if eventID == "" {
		eventID = uuid.NewString()
	}
	actionSource := opts.ActionSource
	if actionSource == "" {
		actionSource = "website"
	}

	payload := capiPayload{
		Data: []capiEvent{{
			EventName:      eventName,
			EventTime:      s.nowFunc().Unix(),
			EventID:        eventID,
			EventSourceURL: opts.EventSourceURL,
			UserData:       buildUserData(userData),
			ActionSource:   actionSource,
		}},
		AccessToken: tenant.Meta.AccessToken,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	endpoint := fmt.Sprintf("%s/%s/events", s.baseURL, tenant.Meta.PixelID)
	resp, err := s.client.Post(endpoint, "application/json", bytes.NewReader(body))
	if err != nil {
		return models.NewUpstreamError("meta-capi", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return models.NewUpstreamError("meta-capi", fmt.Errorf("status %d", resp.StatusCode))
	}
	return nil
}

func (s *MetaCAPIService) TrackLead(tenant *models.Tenant, phone string) error {
	return s.SendEvent(tenant, models.ConversionLead, models.ConversionUserData{Phone: phone}, models.ConversionOptions{})
}

func (s *MetaCAPIService) TrackSchedule(tenant *models.Tenant, phone string) error {
	return s.SendEvent(tenant, models.ConversionSchedule, models.ConversionUserData{Phone: phone}, models.ConversionOptions{})
}
