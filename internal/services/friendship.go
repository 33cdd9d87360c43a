package services

import (
	"context"
	"fmt"

	"github.com/anonto42/usf-event/backend/internal/models"
	"github.com/anonto42/usf-event/backend/internal/repositories"
	"github.com/anonto42/usf-event/backend/pkg/metrics"
	"go.uber.org/zap"
)

// FriendshipService establishes one-directional friendship edges.
type FriendshipService struct {
	friendships   repositories.FriendshipRepository
	profiles      repositories.ProfileRepository
	notifications repositories.NotificationRepository
	log           *zap.Logger
	metrics       *metrics.Collector
}

func NewFriendshipService(
	friendships repositories.FriendshipRepository,
	profiles repositories.ProfileRepository,
	notifications repositories.NotificationRepository,
	log *zap.Logger,
	collector *metrics.Collector,
) *FriendshipService {
	return &FriendshipService{
		friendships:   friendships,
		profiles:      profiles,
		notifications: notifications,
		log:           log,
		metrics:       collector,
	}
}

// AddFriend creates the edge viewer -> target unless it already exists and
// notifies the target when it does. It reports whether an edge was created.
// Anonymous viewers and self-friending are no-ops.
func (s *FriendshipService) AddFriend(ctx context.Context, viewer Viewer, targetID uint) (bool, error) {
	if !viewer.HasProfile() {
		return false, nil
	}
	from := viewer.Profile

	to, err := s.profiles.GetProfileByID(ctx, targetID)
	if err != nil {
		return false, fmt.Errorf("profile %d: %w", targetID, err)
	}
	if to.ID == from.ID {
		return false, nil
	}

	existing, err := s.friendships.CountFriendships(ctx, from.ID, to.ID)
	if err != nil {
		return false, fmt.Errorf("look up friendship: %w", err)
	}
	if existing > 0 {
		return false, nil
	}

	if err := s.friendships.CreateFriendship(ctx, &models.Friendship{FromProfileID: from.ID, ToProfileID: to.ID}); err != nil {
		return false, fmt.Errorf("create friendship: %w", err)
	}
	s.metrics.FriendshipCreated()

	// The edge is already stored, so a lost notification is logged, not returned.
	notification := &models.Notification{
		Kind:               models.NotificationFollowed,
		RecipientProfileID: to.ID,
		ActorProfileID:     from.ID,
	}
	if err := s.notifications.CreateNotification(ctx, notification); err != nil {
		s.log.Error("followed notification not stored",
			zap.Uint("from", from.ID), zap.Uint("to", to.ID), zap.Error(err))
		return true, nil
	}
	s.metrics.NotificationSent(models.NotificationFollowed)
	return true, nil
}
