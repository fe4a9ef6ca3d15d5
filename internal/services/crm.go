package services

import (
	"log"

	"github.com/emyflow/emyflow-backend/internal/models"
)

// CRMService wraps the conversation-level provider operations the tools
// expose
type CRMService struct {
	messaging MessagingAPI
}

// NewCRMService creates the CRM wrapper
func NewCRMService(messaging MessagingAPI) *CRMService {
	return &CRMService{messaging: messaging}
}

// HandoffHuman permanently hands the conversation to a human operator by
// tagging the chat with the handoff label. Automation stays suppressed until
// the label is manually removed on the provider side.
func (s *CRMService) HandoffHuman(tenant *models.Tenant, phone string) error {
	if err := s.messaging.AddChatLabels(tenant, phone, []string{HandoffLabel}); err != nil {
		return err
	}
	log.Printf("[Handoff] Conversation %s handed to human for client %s", phone, tenant.Slug)
	return nil
}
