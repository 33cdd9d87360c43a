package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/anonto42/usf-event/backend/internal/models"
	"github.com/anonto42/usf-event/backend/internal/repositories"
	"github.com/anonto42/usf-event/backend/pkg/storage"
	"go.uber.org/zap"
)

// EventDetail is an event with its comments, oldest first.
type EventDetail struct {
	Event    *models.Event    `json:"event"`
	Comments []models.Comment `json:"comments"`
}

// EventService covers the content store: events, comments and likes.
type EventService struct {
	events   repositories.EventRepository
	comments repositories.CommentRepository
	likes    repositories.LikeRepository
	media    storage.Store
	log      *zap.Logger
}

func NewEventService(
	events repositories.EventRepository,
	comments repositories.CommentRepository,
	likes repositories.LikeRepository,
	media storage.Store,
	log *zap.Logger,
) *EventService {
	return &EventService{
		events:   events,
		comments: comments,
		likes:    likes,
		media:    media,
		log:      log,
	}
}

func (s *EventService) List(ctx context.Context) ([]models.Event, error) {
	return s.events.ListEvents(ctx)
}

// Archives lists events newest first.
func (s *EventService) Archives(ctx context.Context) ([]models.Event, error) {
	return s.events.ListEventsNewestFirst(ctx)
}

func (s *EventService) ByTag(ctx context.Context, tag string) ([]models.Event, error) {
	return s.events.GetEventsByTag(ctx, tag)
}

func (s *EventService) Detail(ctx context.Context, eventID string) (*EventDetail, error) {
	event, err := s.events.GetEventByID(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("event %s: %w", eventID, err)
	}
	comments, err := s.comments.GetCommentsByEventID(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("comments of event %s: %w", eventID, err)
	}
	return &EventDetail{Event: event, Comments: comments}, nil
}

// Post stores a new event. It returns nil without storing anything when the
// viewer is anonymous.
func (s *EventService) Post(ctx context.Context, viewer Viewer, req models.CreateEventRequest, image *storage.Upload) (*models.Event, error) {
	if !viewer.Authenticated {
		return nil, nil
	}
	event := &models.Event{
		Title: strings.TrimSpace(req.Title),
		Body:  req.Body,
		Refer: strings.TrimSpace(req.Refer),
		Tags:  models.SplitTags(req.Tags),
	}
	if event.Tags == nil {
		event.Tags = []string{}
	}
	if image != nil {
		key, err := s.media.Put(ctx, "events", image)
		if err != nil {
			return nil, fmt.Errorf("store event image: %w", err)
		}
		event.ImageKeys = []string{key}
	}
	if err := s.events.CreateEvent(ctx, event); err != nil {
		return nil, fmt.Errorf("create event: %w", err)
	}
	s.log.Info("event posted", zap.String("event_id", event.ID.Hex()), zap.Strings("tags", event.Tags))
	return event, nil
}

// Comment appends a comment. Anonymous viewers and blank content are no-ops.
func (s *EventService) Comment(ctx context.Context, viewer Viewer, eventID, content string) (bool, error) {
	if !viewer.HasProfile() || strings.TrimSpace(content) == "" {
		return false, nil
	}
	if _, err := s.events.GetEventByID(ctx, eventID); err != nil {
		return false, fmt.Errorf("event %s: %w", eventID, err)
	}
	comment := &models.Comment{
		EventID:   eventID,
		ProfileID: viewer.Profile.ID,
		Content:   content,
	}
	if err := s.comments.CreateComment(ctx, comment); err != nil {
		return false, fmt.Errorf("create comment: %w", err)
	}
	return true, nil
}

// Like saves an event for the viewer. Saving it twice is a no-op.
func (s *EventService) Like(ctx context.Context, viewer Viewer, eventID string) (bool, error) {
	if !viewer.HasProfile() {
		return false, nil
	}
	event, err := s.events.GetEventByID(ctx, eventID)
	if err != nil {
		return false, fmt.Errorf("event %s: %w", eventID, err)
	}
	id := event.ID.Hex()
	liked, err := s.likes.HasProfileLikedEvent(ctx, viewer.Profile.ID, id)
	if err != nil {
		return false, fmt.Errorf("look up like: %w", err)
	}
	if liked {
		return false, nil
	}
	if err := s.likes.CreateLike(ctx, &models.Like{ProfileID: viewer.Profile.ID, EventID: id}); err != nil {
		return false, fmt.Errorf("create like: %w", err)
	}
	return true, nil
}
