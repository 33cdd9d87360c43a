package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/anonto42/usf-event/backend/internal/models"
	"github.com/anonto42/usf-event/backend/internal/repositories"
)

type MessageService struct {
	messages repositories.MessageRepository
	profiles repositories.ProfileRepository
}

func NewMessageService(messages repositories.MessageRepository, profiles repositories.ProfileRepository) *MessageService {
	return &MessageService{messages: messages, profiles: profiles}
}

// Send stores a note from the viewer to toID.
func (s *MessageService) Send(ctx context.Context, viewer Viewer, toID uint, body string) (bool, error) {
	if !viewer.HasProfile() {
		return false, nil
	}
	body = strings.TrimSpace(body)
	if body == "" {
		return false, NewValidationError("body", "this field is required")
	}
	to, err := s.profiles.GetProfileByID(ctx, toID)
	if err != nil {
		return false, fmt.Errorf("profile %d: %w", toID, err)
	}
	msg := &models.Message{FromProfileID: viewer.Profile.ID, ToProfileID: to.ID, Body: body}
	if err := s.messages.CreateMessage(ctx, msg); err != nil {
		return false, fmt.Errorf("create message: %w", err)
	}
	return true, nil
}
