// Package mcpserver exposes the booking, availability, conversion and
// handoff operations as MCP tools for the external agent orchestration
// layer.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/emyflow/emyflow-backend/internal/models"
	"github.com/emyflow/emyflow-backend/internal/services"
	"github.com/emyflow/emyflow-backend/internal/storage"
)

// Server wires the four tools to the underlying services
type Server struct {
	mcp          *server.MCPServer
	store        storage.Store
	availability *services.AvailabilityService
	booking      *services.BookingService
	marketing    services.MarketingAPI
	crm          *services.CRMService
}

// New builds the MCP server and registers the tool set
func New(store storage.Store, availability *services.AvailabilityService, booking *services.BookingService, marketing services.MarketingAPI, crm *services.CRMService) *Server {
	s := &Server{
		mcp:          server.NewMCPServer("EmyFlowMCP", "1.0.0", server.WithToolCapabilities(false)),
		store:        store,
		availability: availability,
		booking:      booking,
		marketing:    marketing,
		crm:          crm,
	}
	s.registerTools()
	return s
}

func (s *Server) registerTools() {
	s.mcp.AddTool(mcp.NewTool("calendar_check_availability",
		mcp.WithDescription("Check appointment availability in the clinic's calendars"),
		mcp.WithString("client_id", mcp.Required(), mcp.Description("Tenant slug")),
		mcp.WithString("start_time", mcp.Description("Slot start (DD.MM.YYYY HH:mm, YYYY-MM-DD or RFC3339)")),
		mcp.WithString("end_time", mcp.Description("Slot end")),
		mcp.WithString("query_date", mcp.Description("Day to list busy slots for (YYYY-MM-DD)")),
		mcp.WithString("sede", mcp.Description("Location name, when the tenant has multiple")),
	), s.handleCheckAvailability)

	s.mcp.AddTool(mcp.NewTool("calendar_create_appointment",
		mcp.WithDescription("Create an appointment in the clinic's booking calendar"),
		mcp.WithString("client_id", mcp.Required()),
		mcp.WithObject("patient_data", mcp.Required(),
			mcp.Description("Patient details: nombre, telefono, optionally email and motivo")),
		mcp.WithString("start_time", mcp.Required()),
		mcp.WithString("end_time", mcp.Required()),
		mcp.WithString("description", mcp.Description("Free-text appointment description")),
		mcp.WithString("sede", mcp.Description("Location name")),
	), s.handleCreateAppointment)

	s.mcp.AddTool(mcp.NewTool("capi_send_event",
		mcp.WithDescription("Send a conversion event to the ad platform"),
		mcp.WithString("client_id", mcp.Required()),
		mcp.WithString("event_name", mcp.Required(), mcp.Enum(models.ConversionLead, models.ConversionPurchase, models.ConversionSchedule)),
		mcp.WithObject("user_data", mcp.Required(),
			mcp.Description("Unhashed user data: phone, email, fbp, fbc, client_user_agent, client_ip_address")),
		mcp.WithString("event_source_url", mcp.Description("Page URL the event originated from")),
		mcp.WithString("event_id", mcp.Description("Deduplication id; generated when omitted")),
		mcp.WithString("action_source", mcp.Description("Event action source, defaults to website")),
	), s.handleSendConversionEvent)

	s.mcp.AddTool(mcp.NewTool("crm_handoff_human",
		mcp.WithDescription("Permanently hand the conversation to a human agent"),
		mcp.WithString("client_id", mcp.Required()),
		mcp.WithString("phone_number", mcp.Required()),
	), s.handleHandoffHuman)
}

// ServeSSE serves the tool surface over SSE until the listener fails
func (s *Server) ServeSSE(addr, publicBaseURL string) error {
	var opts []server.SSEOption
	if publicBaseURL != "" {
		opts = append(opts, server.WithBaseURL(publicBaseURL))
	}
	sse := server.NewSSEServer(s.mcp, opts...)
	log.Printf("[MCP] SSE server listening on %s", addr)
	return sse.Start(addr)
}

func (s *Server) tenant(slug string) (*models.Tenant, error) {
	tenant, err := s.store.GetTenantBySlug(slug)
	if err != nil {
		return nil, fmt.Errorf("client %s not found", slug)
	}
	return tenant, nil
}

func (s *Server) handleCheckAvailability(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	clientID, err := req.RequireString("client_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	tenant, err := s.tenant(clientID)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result, err := s.availability.CheckAvailability(ctx, services.AvailabilityQuery{
		Tenant:    tenant,
		Location:  req.GetString("sede", ""),
		StartTime: req.GetString("start_time", ""),
		EndTime:   req.GetString("end_time", ""),
		QueryDate: req.GetString("query_date", ""),
	})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to check availability: %v", err)), nil
	}
	return jsonResult(result)
}

func (s *Server) handleCreateAppointment(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	clientID, err := req.RequireString("client_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	tenant, err := s.tenant(clientID)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	startStr, err := req.RequireString("start_time")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	endStr, err := req.RequireString("end_time")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	patient, err := parsePatientData(req.GetArguments()["patient_data"])
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	tz, err := time.LoadLocation(tenant.Timezone)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid tenant timezone: %v", err)), nil
	}
	start, err := services.ParseDateTime(startStr, tz)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	end, err := services.ParseDateTime(endStr, tz)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result, err := s.booking.CreateAppointment(ctx, &models.BookingRequest{
		Tenant:      tenant,
		Location:    req.GetString("sede", ""),
		Patient:     patient,
		Start:       start,
		End:         end,
		Description: req.GetString("description", ""),
	})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to create appointment: %v", err)), nil
	}
	return jsonResult(result)
}

func (s *Server) handleSendConversionEvent(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	clientID, err := req.RequireString("client_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	tenant, err := s.tenant(clientID)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	eventName, err := req.RequireString("event_name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	userData := parseUserData(req.GetArguments()["user_data"])
	opts := models.ConversionOptions{
		EventSourceURL: req.GetString("event_source_url", ""),
		EventID:        req.GetString("event_id", ""),
		ActionSource:   req.GetString("action_source", ""),
	}
	if err := s.marketing.SendEvent(tenant, eventName, userData, opts); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to send CAPI event: %v", err)), nil
	}
	return jsonResult(map[string]interface{}{"success": true, "event_name": eventName})
}

func (s *Server) handleHandoffHuman(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	clientID, err := req.RequireString("client_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	tenant, err := s.tenant(clientID)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	phone, err := req.RequireString("phone_number")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if err := s.crm.HandoffHuman(tenant, phone); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to handoff to human: %v", err)), nil
	}
	return jsonResult(map[string]interface{}{"success": true, "phone_number": phone})
}

func parsePatientData(raw interface{}) (models.PatientData, error) {
	m, ok := raw.(map[string]interface{})
	if !ok {
		return models.PatientData{}, fmt.Errorf("patient_data must be an object")
	}
	pd := models.PatientData{
		Name:   stringField(m, "nombre"),
		Phone:  stringField(m, "telefono"),
		Email:  stringField(m, "email"),
		Reason: stringField(m, "motivo"),
	}
	if pd.Name == "" || pd.Phone == "" {
		return models.PatientData{}, fmt.Errorf("patient_data requires nombre and telefono")
	}
	return pd, nil
}

func parseUserData(raw interface{}) models.ConversionUserData {
	m, ok := raw.(map[string]interface{})
	if !ok {
		return models.ConversionUserData{}
	}
	return models.ConversionUserData{
		Phone:           stringField(m, "phone"),
		Email:           stringField(m, "email"),
		FBP:             stringField(m, "fbp"),
		FBC:             stringField(m, "fbc"),
		ClientUserAgent: stringField(m, "client_user_agent"),
		ClientIPAddress: stringField(m, "client_ip_address"),
	}
}

func stringField(m map[string]interface{}, key string) string {
	if v, ok := m[key].(string); ok {
		return v
	}
	return ""
}

func jsonResult(v interface{}) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}
