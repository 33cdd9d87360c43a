package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/anonto42/usf-event/backend/internal/models"
	"github.com/anonto42/usf-event/backend/internal/repositories"
	"go.uber.org/zap"
)

// SocialView is the part of a profile page built from its friend list.
type SocialView struct {
	OwnLikes      []models.Like       `json:"own_likes"`
	Friends       []models.Friendship `json:"friends"`
	FriendsEvents []models.Event      `json:"friends_events"`
}

// HomeFeed is the private home page of the viewer.
type HomeFeed struct {
	Authenticated   bool            `json:"authenticated"`
	Profile         *models.Profile `json:"profile,omitempty"`
	Preferences     string          `json:"preferences"`
	PreferredEvents []models.Event  `json:"preferred_events"`
	SocialView
	MessagesSent     []models.Message `json:"messages_sent"`
	MessagesReceived []models.Message `json:"messages_received"`
}

// PublicProfile is another profile as seen by an authenticated viewer.
type PublicProfile struct {
	Target *models.Profile `json:"target,omitempty"`
	SocialView
}

// FeedService aggregates read-only page data. Nothing here mutates a store.
type FeedService struct {
	profiles    repositories.ProfileRepository
	events      repositories.EventRepository
	likes       repositories.LikeRepository
	friendships repositories.FriendshipRepository
	messages    repositories.MessageRepository
	log         *zap.Logger
}

func NewFeedService(
	profiles repositories.ProfileRepository,
	events repositories.EventRepository,
	likes repositories.LikeRepository,
	friendships repositories.FriendshipRepository,
	messages repositories.MessageRepository,
	log *zap.Logger,
) *FeedService {
	return &FeedService{
		profiles:    profiles,
		events:      events,
		likes:       likes,
		friendships: friendships,
		messages:    messages,
		log:         log,
	}
}

func emptySocialView() SocialView {
	return SocialView{
		OwnLikes:      []models.Like{},
		Friends:       []models.Friendship{},
		FriendsEvents: []models.Event{},
	}
}

// ComputeFeed builds the viewer's home feed. Anonymous viewers and
// identities without a profile get an empty feed.
func (s *FeedService) ComputeFeed(ctx context.Context, viewer Viewer) (*HomeFeed, error) {
	feed := &HomeFeed{
		Authenticated:    viewer.Authenticated,
		PreferredEvents:  []models.Event{},
		SocialView:       emptySocialView(),
		MessagesSent:     []models.Message{},
		MessagesReceived: []models.Message{},
	}
	if !viewer.HasProfile() {
		return feed, nil
	}
	profile := viewer.Profile
	feed.Profile = profile
	feed.Preferences = profile.Preferences

	preferred, err := s.PreferredEvents(ctx, profile)
	if err != nil {
		return nil, err
	}
	feed.PreferredEvents = preferred

	if feed.MessagesSent, err = s.messages.GetMessagesFrom(ctx, profile.ID); err != nil {
		return nil, fmt.Errorf("messages sent: %w", err)
	}
	if feed.MessagesReceived, err = s.messages.GetMessagesTo(ctx, profile.ID); err != nil {
		return nil, fmt.Errorf("messages received: %w", err)
	}

	social, err := s.Social(ctx, profile)
	if err != nil {
		return nil, err
	}
	feed.SocialView = *social
	return feed, nil
}

// ComposePublicProfile builds the public page of targetID for an
// authenticated viewer. Anonymous viewers get an empty page.
func (s *FeedService) ComposePublicProfile(ctx context.Context, viewer Viewer, targetID uint) (*PublicProfile, error) {
	if !viewer.Authenticated {
		return &PublicProfile{SocialView: emptySocialView()}, nil
	}
	target, err := s.profiles.GetProfileByID(ctx, targetID)
	if err != nil {
		return nil, fmt.Errorf("profile %d: %w", targetID, err)
	}
	social, err := s.Social(ctx, target)
	if err != nil {
		return nil, err
	}
	return &PublicProfile{Target: target, SocialView: *social}, nil
}

// PreferredEvents runs one tag query per preference and concatenates the
// results in preference order. An event matching two preferences appears
// twice.
func (s *FeedService) PreferredEvents(ctx context.Context, profile *models.Profile) ([]models.Event, error) {
	events := []models.Event{}
	for _, tag := range profile.PreferenceTags() {
		tagged, err := s.events.GetEventsByTag(ctx, tag)
		if err != nil {
			return nil, fmt.Errorf("events tagged %q: %w", tag, err)
		}
		events = append(events, tagged...)
	}
	return events, nil
}

// Social collects the subject's likes, outgoing friendships and the events
// its friends saved. Only the first stored like of each friend counts, and
// each event is kept once, at the first friend (in friendship order) that
// saved it.
func (s *FeedService) Social(ctx context.Context, subject *models.Profile) (*SocialView, error) {
	ownLikes, err := s.likes.GetLikesByProfile(ctx, subject.ID)
	if err != nil {
		return nil, fmt.Errorf("likes of profile %d: %w", subject.ID, err)
	}
	friends, err := s.friendships.GetFriendshipsFrom(ctx, subject.ID)
	if err != nil {
		return nil, fmt.Errorf("friends of profile %d: %w", subject.ID, err)
	}

	friendsEvents := []models.Event{}
	seen := make(map[string]struct{})
	for _, friend := range friends {
		likes, err := s.likes.GetLikesByProfile(ctx, friend.ToProfileID)
		if err != nil {
			return nil, fmt.Errorf("likes of friend %d: %w", friend.ToProfileID, err)
		}
		if len(likes) == 0 {
			continue
		}
		// First stored like, not the most recent.
		first := likes[0]
		if _, dup := seen[first.EventID]; dup {
			continue
		}
		event, err := s.events.GetEventByID(ctx, first.EventID)
		if errors.Is(err, repositories.ErrNotFound) {
			s.log.Warn("like references a missing event",
				zap.Uint("like_id", first.ID), zap.String("event_id", first.EventID))
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("event %s: %w", first.EventID, err)
		}
		seen[first.EventID] = struct{}{}
		friendsEvents = append(friendsEvents, *event)
	}

	return &SocialView{
		OwnLikes:      ownLikes,
		Friends:       friends,
		FriendsEvents: friendsEvents,
	}, nil
}
