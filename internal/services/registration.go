package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/anonto42/usf-event/backend/internal/models"
	"github.com/anonto42/usf-event/backend/internal/repositories"
	"github.com/anonto42/usf-event/backend/pkg/metrics"
	"github.com/anonto42/usf-event/backend/pkg/storage"
	"github.com/anonto42/usf-event/backend/validators"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// FirstGraduationYear is the earliest graduation year offered.
const FirstGraduationYear = 1970

const (
	maxHandleAttempts = 3
	emailTakenMessage = "an account with this email already exists"
	// bcrypt's input limit, in bytes rather than characters.
	maxPasswordBytes = 72
)

// Registration is a validated registration form.
type Registration struct {
	FirstName string
	LastName  string
	Email     string
	Password  string
	Profile   models.ProfileFields
	Avatar    *storage.Upload
}

// RegistrationService creates an identity and its profile as one logical
// unit. There is no transaction: a failed profile is compensated by deleting
// the identity. Two concurrent registrations deriving the same handle can
// race between the probe and the insert; the unique index on username
// rejects the loser, which probes again.
type RegistrationService struct {
	users    repositories.UserRepository
	profiles repositories.ProfileRepository
	media    storage.Store
	validate *validator.Validate
	log      *zap.Logger
	metrics  *metrics.Collector
	now      func() time.Time
}

func NewRegistrationService(
	users repositories.UserRepository,
	profiles repositories.ProfileRepository,
	media storage.Store,
	log *zap.Logger,
	collector *metrics.Collector,
) *RegistrationService {
	return &RegistrationService{
		users:    users,
		profiles: profiles,
		media:    media,
		validate: validators.New(),
		log:      log,
		metrics:  collector,
		now:      time.Now,
	}
}

// GraduationYears lists the selectable graduation years.
func (s *RegistrationService) GraduationYears() []int {
	last := s.now().Year() + 3
	years := make([]int, 0, last-FirstGraduationYear+1)
	for y := FirstGraduationYear; y <= last; y++ {
		years = append(years, y)
	}
	return years
}

// BaseHandle is first_last, lower-cased.
func BaseHandle(firstName, lastName string) string {
	return strings.ToLower(strings.TrimSpace(firstName)) + "_" + strings.ToLower(strings.TrimSpace(lastName))
}

// ResolveHandle probes base_0, base_1, ... and returns the first unused one.
func (s *RegistrationService) ResolveHandle(ctx context.Context, firstName, lastName string) (string, error) {
	base := BaseHandle(firstName, lastName)
	for i := 0; ; i++ {
		candidate := base + "_" + strconv.Itoa(i)
		taken, err := s.users.UsernameExists(ctx, candidate)
		if err != nil {
			return "", fmt.Errorf("check username %s: %w", candidate, err)
		}
		if !taken {
			return candidate, nil
		}
	}
}

// Register runs the registration workflow and returns the new identity.
// Starting the session is left to the caller.
func (s *RegistrationService) Register(ctx context.Context, reg Registration) (*models.User, error) {
	email := strings.ToLower(strings.TrimSpace(reg.Email))
	if _, err := s.users.GetUserByEmail(ctx, email); err == nil {
		return nil, NewValidationError("email", emailTakenMessage)
	} else if !errors.Is(err, repositories.ErrNotFound) {
		return nil, fmt.Errorf("look up email: %w", err)
	}

	if len(reg.Password) > maxPasswordBytes {
		return nil, NewValidationError("password", fmt.Sprintf("must be at most %d bytes", maxPasswordBytes))
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(reg.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user, err := s.createIdentity(ctx, reg, email, string(hash))
	if err != nil {
		return nil, err
	}

	if _, err := s.createProfile(ctx, user, reg); err != nil {
		s.rollback(ctx, user, err)
		s.metrics.RegistrationRolledBack()
		return nil, fmt.Errorf("%w: %w", ErrRegistrationIncomplete, err)
	}

	s.metrics.RegistrationCompleted()
	s.log.Info("registered identity", zap.Uint("user_id", user.ID), zap.String("username", user.Username))
	return user, nil
}

// createIdentity stores the identity under a fresh handle. When a concurrent
// registration takes the probed handle first, the unique index rejects the
// insert and the probe runs again.
func (s *RegistrationService) createIdentity(ctx context.Context, reg Registration, email, hash string) (*models.User, error) {
	for attempt := 1; ; attempt++ {
		handle, err := s.ResolveHandle(ctx, reg.FirstName, reg.LastName)
		if err != nil {
			return nil, err
		}
		user := &models.User{
			Username: handle,
			Email:    email,
			Password: hash,
			IsActive: true,
		}
		err = s.users.CreateUser(ctx, user)
		if err == nil {
			return user, nil
		}
		if _, lookupErr := s.users.GetUserByEmail(ctx, email); lookupErr == nil {
			return nil, NewValidationError("email", emailTakenMessage)
		}
		if attempt < maxHandleAttempts {
			if taken, lookupErr := s.users.UsernameExists(ctx, handle); lookupErr == nil && taken {
				s.log.Info("handle taken concurrently, probing again", zap.String("username", handle))
				continue
			}
		}
		return nil, fmt.Errorf("create identity: %w", err)
	}
}

func (s *RegistrationService) createProfile(ctx context.Context, user *models.User, reg Registration) (*models.Profile, error) {
	fields := reg.Profile
	if err := s.validate.Struct(fields); err != nil {
		return nil, &ValidationError{Fields: validators.FieldErrors(err)}
	}
	if last := s.now().Year() + 3; fields.GraduationYear > last {
		return nil, NewValidationError("grad_year", fmt.Sprintf("must be at most %d", last))
	}

	profile := &models.Profile{
		UserID:          user.ID,
		Preferences:     models.JoinTags(fields.Preferences),
		GraduationYear:  fields.GraduationYear,
		AffiliationType: fields.AffiliationType,
		AffiliationMsg:  fields.AffiliationMsg,
		Bio:             fields.Bio,
	}

	if reg.Avatar != nil {
		key, err := s.media.Put(ctx, "avatars", reg.Avatar)
		if err != nil {
			return nil, fmt.Errorf("store avatar: %w", err)
		}
		profile.AvatarKey = key
	}

	if err := s.profiles.CreateProfile(ctx, profile); err != nil {
		if profile.AvatarKey != "" {
			s.discardAvatar(ctx, user, profile.AvatarKey)
		}
		return nil, fmt.Errorf("create profile: %w", err)
	}
	return profile, nil
}

// discardAvatar removes an avatar whose profile was never stored.
func (s *RegistrationService) discardAvatar(ctx context.Context, user *models.User, key string) {
	if err := s.media.Delete(context.WithoutCancel(ctx), key); err != nil {
		s.log.Warn("avatar left orphaned in media store",
			zap.Uint("user_id", user.ID), zap.String("avatar_key", key), zap.Error(err))
	}
}

// rollback deletes the identity created by a failed registration. It runs
// even if the request context has been cancelled.
func (s *RegistrationService) rollback(ctx context.Context, user *models.User, cause error) {
	ctx = context.WithoutCancel(ctx)
	if err := s.users.DeleteUser(ctx, user.ID); err != nil {
		s.log.Error("rollback of identity failed, identity left without profile",
			zap.Uint("user_id", user.ID), zap.NamedError("cause", cause), zap.Error(err))
		return
	}
	s.log.Warn("registration rolled back",
		zap.Uint("user_id", user.ID), zap.String("username", user.Username), zap.NamedError("cause", cause))
}
