// Package testutil holds in-memory repository fakes shared by service and
// handler tests. Each fake keeps rows in insertion order, which is the order
// the Postgres and Mongo repositories return them in.
package testutil

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/anonto42/usf-event/backend/internal/models"
	"github.com/anonto42/usf-event/backend/internal/repositories"
	"github.com/anonto42/usf-event/backend/pkg/storage"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ErrDuplicate mimics a unique index violation.
var ErrDuplicate = errors.New("duplicate key value violates unique constraint")

type Users struct {
	mu     sync.Mutex
	nextID uint
	rows   []models.User
	// DeleteErr, when set, is returned by DeleteUser.
	DeleteErr error
}

func NewUsers() *Users { return &Users{} }

func (r *Users) CreateUser(ctx context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.rows {
		if u.Username == user.Username || u.Email == user.Email {
			return ErrDuplicate
		}
	}
	r.nextID++
	user.ID = r.nextID
	user.CreatedAt = time.Now()
	r.rows = append(r.rows, *user)
	return nil
}

func (r *Users) find(match func(models.User) bool) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.rows {
		if match(u) {
			found := u
			return &found, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (r *Users) GetUserByID(ctx context.Context, id uint) (*models.User, error) {
	return r.find(func(u models.User) bool { return u.ID == id })
}

func (r *Users) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.find(func(u models.User) bool { return u.Email == email })
}

func (r *Users) GetUserByFirebaseUID(ctx context.Context, uid string) (*models.User, error) {
	return r.find(func(u models.User) bool { return u.FirebaseUID != nil && *u.FirebaseUID == uid })
}

func (r *Users) UsernameExists(ctx context.Context, username string) (bool, error) {
	_, err := r.find(func(u models.User) bool { return u.Username == username })
	return err == nil, nil
}

func (r *Users) UpdateUser(ctx context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.rows {
		if r.rows[i].ID == user.ID {
			r.rows[i] = *user
			return nil
		}
	}
	return repositories.ErrNotFound
}

func (r *Users) DeleteUser(ctx context.Context, id uint) error {
	if r.DeleteErr != nil {
		return r.DeleteErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.rows {
		if r.rows[i].ID == id {
			r.rows = append(r.rows[:i], r.rows[i+1:]...)
			return nil
		}
	}
	return repositories.ErrNotFound
}

// Seed stores a user with a pre-set username and returns it.
func (r *Users) Seed(username, email, passwordHash string) *models.User {
	u := &models.User{Username: username, Email: email, Password: passwordHash, IsActive: true}
	if err := r.CreateUser(context.Background(), u); err != nil {
		panic(err)
	}
	return u
}

func (r *Users) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.rows)
}

type Profiles struct {
	mu     sync.Mutex
	nextID uint
	rows   []models.Profile
	// CreateErr, when set, is returned by CreateProfile.
	CreateErr error
}

func NewProfiles() *Profiles { return &Profiles{} }

func (r *Profiles) CreateProfile(ctx context.Context, profile *models.Profile) error {
	if r.CreateErr != nil {
		return r.CreateErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.rows {
		if p.UserID == profile.UserID {
			return ErrDuplicate
		}
	}
	r.nextID++
	profile.ID = r.nextID
	profile.CreatedAt = time.Now()
	r.rows = append(r.rows, *profile)
	return nil
}

func (r *Profiles) GetProfileByID(ctx context.Context, id uint) (*models.Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.rows {
		if p.ID == id {
			found := p
			return &found, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (r *Profiles) GetProfileByUserID(ctx context.Context, userID uint) (*models.Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.rows {
		if p.UserID == userID {
			found := p
			return &found, nil
		}
	}
	return nil, repositories.ErrNotFound
}

// Seed stores a profile for userID with the given preferences.
func (r *Profiles) Seed(userID uint, preferences string) *models.Profile {
	p := &models.Profile{UserID: userID, Preferences: preferences}
	if err := r.CreateProfile(context.Background(), p); err != nil {
		panic(err)
	}
	return p
}

func (r *Profiles) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.rows)
}

type Friendships struct {
	mu     sync.Mutex
	nextID uint
	rows   []models.Friendship
}

func NewFriendships() *Friendships { return &Friendships{} }

func (r *Friendships) CreateFriendship(ctx context.Context, f *models.Friendship) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	f.ID = r.nextID
	f.CreatedAt = time.Now()
	r.rows = append(r.rows, *f)
	return nil
}

func (r *Friendships) CountFriendships(ctx context.Context, from, to uint) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, f := range r.rows {
		if f.FromProfileID == from && f.ToProfileID == to {
			n++
		}
	}
	return n, nil
}

func (r *Friendships) GetFriendshipsFrom(ctx context.Context, from uint) ([]models.Friendship, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []models.Friendship{}
	for _, f := range r.rows {
		if f.FromProfileID == from {
			out = append(out, f)
		}
	}
	return out, nil
}

func (r *Friendships) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.rows)
}

type Likes struct {
	mu     sync.Mutex
	nextID uint
	rows   []models.Like
}

func NewLikes() *Likes { return &Likes{} }

func (r *Likes) CreateLike(ctx context.Context, like *models.Like) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	like.ID = r.nextID
	like.CreatedAt = time.Now()
	r.rows = append(r.rows, *like)
	return nil
}

func (r *Likes) HasProfileLikedEvent(ctx context.Context, profileID uint, eventID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, l := range r.rows {
		if l.ProfileID == profileID && l.EventID == eventID {
			return true, nil
		}
	}
	return false, nil
}

func (r *Likes) GetLikesByProfile(ctx context.Context, profileID uint) ([]models.Like, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []models.Like{}
	for _, l := range r.rows {
		if l.ProfileID == profileID {
			out = append(out, l)
		}
	}
	return out, nil
}

// Seed stores a like of event by profile.
func (r *Likes) Seed(profileID uint, event *models.Event) {
	_ = r.CreateLike(context.Background(), &models.Like{ProfileID: profileID, EventID: event.ID.Hex()})
}

func (r *Likes) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.rows)
}

type Events struct {
	mu   sync.Mutex
	rows []models.Event
	// TagQueries records every tag passed to GetEventsByTag.
	TagQueries []string
}

func NewEvents() *Events { return &Events{} }

func (r *Events) CreateEvent(ctx context.Context, event *models.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	event.ID = primitive.NewObjectID()
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}
	r.rows = append(r.rows, *event)
	return nil
}

func (r *Events) GetEventByID(ctx context.Context, id string) (*models.Event, error) {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, repositories.ErrNotFound
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.rows {
		if e.ID == objID {
			found := e
			return &found, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (r *Events) ListEvents(ctx context.Context) ([]models.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]models.Event{}, r.rows...), nil
}

func (r *Events) ListEventsNewestFirst(ctx context.Context) ([]models.Event, error) {
	events, _ := r.ListEvents(ctx)
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].CreatedAt.After(events[j].CreatedAt)
	})
	return events, nil
}

func (r *Events) GetEventsByTag(ctx context.Context, tag string) ([]models.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.TagQueries = append(r.TagQueries, tag)
	out := []models.Event{}
	for _, e := range r.rows {
		for _, t := range e.Tags {
			if t == tag {
				out = append(out, e)
				break
			}
		}
	}
	return out, nil
}

// Seed stores an event with the given title and tags.
func (r *Events) Seed(title string, tags ...string) *models.Event {
	e := &models.Event{Title: title, Body: title, Tags: tags}
	_ = r.CreateEvent(context.Background(), e)
	return e
}

type Comments struct {
	mu     sync.Mutex
	nextID uint
	rows   []models.Comment
}

func NewComments() *Comments { return &Comments{} }

func (r *Comments) CreateComment(ctx context.Context, c *models.Comment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	c.ID = r.nextID
	c.CreatedAt = time.Now()
	r.rows = append(r.rows, *c)
	return nil
}

func (r *Comments) GetCommentsByEventID(ctx context.Context, eventID string) ([]models.Comment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []models.Comment{}
	for _, c := range r.rows {
		if c.EventID == eventID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (r *Comments) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.rows)
}

type Messages struct {
	mu     sync.Mutex
	nextID uint
	rows   []models.Message
}

func NewMessages() *Messages { return &Messages{} }

func (r *Messages) CreateMessage(ctx context.Context, m *models.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	m.ID = r.nextID
	m.CreatedAt = time.Now()
	r.rows = append(r.rows, *m)
	return nil
}

func (r *Messages) filter(match func(models.Message) bool) []models.Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []models.Message{}
	for _, m := range r.rows {
		if match(m) {
			out = append(out, m)
		}
	}
	return out
}

func (r *Messages) GetMessagesFrom(ctx context.Context, profileID uint) ([]models.Message, error) {
	return r.filter(func(m models.Message) bool { return m.FromProfileID == profileID }), nil
}

func (r *Messages) GetMessagesTo(ctx context.Context, profileID uint) ([]models.Message, error) {
	return r.filter(func(m models.Message) bool { return m.ToProfileID == profileID }), nil
}

type Notifications struct {
	mu     sync.Mutex
	nextID uint
	rows   []models.Notification
	// CreateErr, when set, is returned by CreateNotification.
	CreateErr error
}

func NewNotifications() *Notifications { return &Notifications{} }

func (r *Notifications) CreateNotification(ctx context.Context, n *models.Notification) error {
	if r.CreateErr != nil {
		return r.CreateErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	n.ID = r.nextID
	n.CreatedAt = time.Now()
	r.rows = append(r.rows, *n)
	return nil
}

func (r *Notifications) GetByRecipientID(ctx context.Context, recipientID uint, page, limit int) ([]models.Notification, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var mine []models.Notification
	for i := len(r.rows) - 1; i >= 0; i-- {
		if r.rows[i].RecipientProfileID == recipientID {
			mine = append(mine, r.rows[i])
		}
	}
	total := int64(len(mine))
	start := (page - 1) * limit
	if start >= len(mine) {
		return []models.Notification{}, total, nil
	}
	end := start + limit
	if end > len(mine) {
		end = len(mine)
	}
	return mine[start:end], total, nil
}

func (r *Notifications) GetUnreadCount(ctx context.Context, recipientID uint) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, row := range r.rows {
		if row.RecipientProfileID == recipientID && !row.IsRead {
			n++
		}
	}
	return n, nil
}

func (r *Notifications) MarkAllAsRead(ctx context.Context, recipientID uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.rows {
		if r.rows[i].RecipientProfileID == recipientID {
			r.rows[i].IsRead = true
		}
	}
	return nil
}

// All returns a copy of every stored notification.
func (r *Notifications) All() []models.Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]models.Notification{}, r.rows...)
}

// Media records uploads without storing them anywhere.
type Media struct {
	mu        sync.Mutex
	Keys      []string
	Deleted   []string
	Err       error
	DeleteErr error
}

func (m *Media) Put(ctx context.Context, prefix string, upload *storage.Upload) (string, error) {
	if m.Err != nil {
		return "", m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	key := fmt.Sprintf("%s/%d-%s", prefix, len(m.Keys), upload.Filename)
	m.Keys = append(m.Keys, key)
	return key, nil
}

func (m *Media) Delete(ctx context.Context, key string) error {
	if m.DeleteErr != nil {
		return m.DeleteErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Deleted = append(m.Deleted, key)
	return nil
}

// Store bundles one fake per repository.
type Store struct {
	Users         *Users
	Profiles      *Profiles
	Friendships   *Friendships
	Likes         *Likes
	Events        *Events
	Comments      *Comments
	Messages      *Messages
	Notifications *Notifications
	Media         *Media
}

func NewStore() *Store {
	return &Store{
		Users:         NewUsers(),
		Profiles:      NewProfiles(),
		Friendships:   NewFriendships(),
		Likes:         NewLikes(),
		Events:        NewEvents(),
		Comments:      NewComments(),
		Messages:      NewMessages(),
		Notifications: NewNotifications(),
		Media:         &Media{},
	}
}

// SeedMember stores an identity with a profile and returns both.
func (s *Store) SeedMember(username, preferences string) (*models.User, *models.Profile) {
	u := s.Users.Seed(username, username+"@usf.edu", "")
	return u, s.Profiles.Seed(u.ID, preferences)
}
