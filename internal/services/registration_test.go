package services_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/anonto42/usf-event/backend/internal/models"
	"github.com/anonto42/usf-event/backend/internal/services"
	"github.com/anonto42/usf-event/backend/internal/testutil"
	"github.com/anonto42/usf-event/backend/pkg/metrics"
	"github.com/anonto42/usf-event/backend/pkg/storage"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"golang.org/x/crypto/bcrypt"
)

func newRegistration(store *testutil.Store, collector *metrics.Collector) *services.RegistrationService {
	return services.NewRegistrationService(store.Users, store.Profiles, store.Media, zap.NewNop(), collector)
}

func aliceSmith() services.Registration {
	return services.Registration{
		FirstName: "Alice",
		LastName:  "Smith",
		Email:     "Alice@usf.edu",
		Password:  "correct horse",
		Profile: models.ProfileFields{
			GraduationYear: 2024,
			Preferences:    []string{"music", "sports"},
		},
	}
}

func TestRegisterCreatesIdentityAndProfile(t *testing.T) {
	store := testutil.NewStore()
	collector := metrics.NewCollector("test")
	svc := newRegistration(store, collector)

	user, err := svc.Register(context.Background(), aliceSmith())
	require.NoError(t, err)

	assert.Equal(t, "alice_smith_0", user.Username)
	assert.Equal(t, "alice@usf.edu", user.Email)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.Password), []byte("correct horse")))

	profile, err := store.Profiles.GetProfileByUserID(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, "music,sports", profile.Preferences)
	assert.Equal(t, 2024, profile.GraduationYear)
	assert.Equal(t, 1.0, promtest.ToFloat64(collector.Registrations.WithLabelValues("completed")))
}

func TestRegisterResolvesHandleCollision(t *testing.T) {
	store := testutil.NewStore()
	store.Users.Seed("alice_smith_0", "a0@usf.edu", "")
	store.Users.Seed("alice_smith_1", "a1@usf.edu", "")
	svc := newRegistration(store, nil)

	user, err := svc.Register(context.Background(), aliceSmith())
	require.NoError(t, err)
	assert.Equal(t, "alice_smith_2", user.Username)
}

func TestRegisterTwiceWithSameNameGetsDistinctHandles(t *testing.T) {
	store := testutil.NewStore()
	svc := newRegistration(store, nil)

	first, err := svc.Register(context.Background(), aliceSmith())
	require.NoError(t, err)

	second := aliceSmith()
	second.Email = "other.alice@usf.edu"
	user, err := svc.Register(context.Background(), second)
	require.NoError(t, err)

	assert.Equal(t, "alice_smith_0", first.Username)
	assert.Equal(t, "alice_smith_1", user.Username)
}

// racingUsers lets a rival registration take the first free handle
// between the availability check and the insert.
type racingUsers struct {
	*testutil.Users
	raced bool
}

func (r *racingUsers) UsernameExists(ctx context.Context, username string) (bool, error) {
	taken, err := r.Users.UsernameExists(ctx, username)
	if !taken && !r.raced {
		r.raced = true
		r.Users.Seed(username, "rival@usf.edu", "")
	}
	return taken, err
}

func TestRegisterRetriesAfterConcurrentHandleClaim(t *testing.T) {
	store := testutil.NewStore()
	users := &racingUsers{Users: store.Users}
	svc := services.NewRegistrationService(users, store.Profiles, store.Media, zap.NewNop(), nil)

	user, err := svc.Register(context.Background(), aliceSmith())
	require.NoError(t, err)
	assert.Equal(t, "alice_smith_1", user.Username)
	assert.Equal(t, 2, store.Users.Len())
}

// emailRacingUsers stores a rival identity with the same email between the
// email check and the insert.
type emailRacingUsers struct {
	*testutil.Users
	raced bool
}

func (r *emailRacingUsers) UsernameExists(ctx context.Context, username string) (bool, error) {
	if !r.raced {
		r.raced = true
		r.Users.Seed("rival_0", "alice@usf.edu", "")
	}
	return r.Users.UsernameExists(ctx, username)
}

func TestRegisterReportsConcurrentDuplicateEmailAsValidation(t *testing.T) {
	store := testutil.NewStore()
	users := &emailRacingUsers{Users: store.Users}
	svc := services.NewRegistrationService(users, store.Profiles, store.Media, zap.NewNop(), nil)

	user, err := svc.Register(context.Background(), aliceSmith())
	assert.Nil(t, user)

	var verr *services.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "email")
	assert.NotErrorIs(t, err, services.ErrRegistrationIncomplete)
	assert.Equal(t, 1, store.Users.Len())
}

func TestRegisterRejectsPasswordOverBcryptByteLimit(t *testing.T) {
	store := testutil.NewStore()
	svc := newRegistration(store, nil)
	reg := aliceSmith()
	// 40 characters, 80 bytes.
	reg.Password = strings.Repeat("é", 40)

	_, err := svc.Register(context.Background(), reg)
	var verr *services.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "password")
	assert.Equal(t, 0, store.Users.Len())

	reg.Password = strings.Repeat("é", 36)
	_, err = svc.Register(context.Background(), reg)
	require.NoError(t, err)
}

func TestRegisterRollsBackWhenProfileFails(t *testing.T) {
	store := testutil.NewStore()
	store.Profiles.CreateErr = errors.New("connection reset")
	collector := metrics.NewCollector("test")
	svc := newRegistration(store, collector)

	user, err := svc.Register(context.Background(), aliceSmith())
	require.Error(t, err)
	assert.Nil(t, user)
	assert.ErrorIs(t, err, services.ErrRegistrationIncomplete)
	assert.Equal(t, 0, store.Users.Len(), "identity must not outlive a failed profile")
	assert.Equal(t, 0, store.Profiles.Len())
	assert.Equal(t, 1.0, promtest.ToFloat64(collector.Registrations.WithLabelValues("rolled_back")))

	// The handle is free again.
	store.Profiles.CreateErr = nil
	user, err = svc.Register(context.Background(), aliceSmith())
	require.NoError(t, err)
	assert.Equal(t, "alice_smith_0", user.Username)
}

func TestRegisterRollsBackOnInvalidProfileFields(t *testing.T) {
	tests := []struct {
		name  string
		edit  func(*services.Registration)
		field string
	}{
		{"bio too long", func(r *services.Registration) { r.Profile.Bio = strings.Repeat("x", 1001) }, "bio"},
		{"graduation year too early", func(r *services.Registration) { r.Profile.GraduationYear = 1969 }, "grad_year"},
		{"graduation year too late", func(r *services.Registration) { r.Profile.GraduationYear = time.Now().Year() + 4 }, "grad_year"},
		{"comma in preference", func(r *services.Registration) { r.Profile.Preferences = []string{"a,b"} }, "preferences[0]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := testutil.NewStore()
			svc := newRegistration(store, nil)
			reg := aliceSmith()
			tt.edit(&reg)

			_, err := svc.Register(context.Background(), reg)
			require.Error(t, err)

			var verr *services.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Contains(t, verr.Fields, tt.field)
			assert.ErrorIs(t, err, services.ErrRegistrationIncomplete)
			assert.Equal(t, 0, store.Users.Len())
		})
	}
}

func TestRegisterRejectsDuplicateEmail(t *testing.T) {
	store := testutil.NewStore()
	store.Users.Seed("someone_0", "alice@usf.edu", "")
	svc := newRegistration(store, nil)

	_, err := svc.Register(context.Background(), aliceSmith())
	var verr *services.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "email")
	assert.NotErrorIs(t, err, services.ErrRegistrationIncomplete)
	assert.Equal(t, 1, store.Users.Len())
}

func TestRegisterStoresAvatar(t *testing.T) {
	store := testutil.NewStore()
	svc := newRegistration(store, nil)
	reg := aliceSmith()
	reg.Avatar = &storage.Upload{Filename: "me.png", Body: strings.NewReader("png")}

	user, err := svc.Register(context.Background(), reg)
	require.NoError(t, err)

	require.Len(t, store.Media.Keys, 1)
	assert.True(t, strings.HasPrefix(store.Media.Keys[0], "avatars/"))
	profile, err := store.Profiles.GetProfileByUserID(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, store.Media.Keys[0], profile.AvatarKey)
}

func TestRegisterWithAvatarAndNoMediaStoreRollsBack(t *testing.T) {
	store := testutil.NewStore()
	svc := services.NewRegistrationService(store.Users, store.Profiles, storage.Disabled{}, zap.NewNop(), nil)
	reg := aliceSmith()
	reg.Avatar = &storage.Upload{Filename: "me.png", Body: strings.NewReader("png")}

	_, err := svc.Register(context.Background(), reg)
	assert.ErrorIs(t, err, services.ErrMediaDisabled)
	assert.ErrorIs(t, err, services.ErrRegistrationIncomplete)
	assert.Equal(t, 0, store.Users.Len())
}

func TestRegisterDeletesAvatarWhenProfileFails(t *testing.T) {
	store := testutil.NewStore()
	store.Profiles.CreateErr = errors.New("connection reset")
	svc := newRegistration(store, nil)
	reg := aliceSmith()
	reg.Avatar = &storage.Upload{Filename: "me.png", Body: strings.NewReader("png")}

	_, err := svc.Register(context.Background(), reg)
	assert.ErrorIs(t, err, services.ErrRegistrationIncomplete)
	require.Len(t, store.Media.Keys, 1)
	assert.Equal(t, store.Media.Keys, store.Media.Deleted)
	assert.Equal(t, 0, store.Users.Len())
}

func TestRegisterLogsAvatarThatCannotBeDeleted(t *testing.T) {
	store := testutil.NewStore()
	store.Profiles.CreateErr = errors.New("connection reset")
	store.Media.DeleteErr = errors.New("access denied")
	core, logs := observer.New(zapcore.WarnLevel)
	svc := services.NewRegistrationService(store.Users, store.Profiles, store.Media, zap.New(core), nil)
	reg := aliceSmith()
	reg.Avatar = &storage.Upload{Filename: "me.png", Body: strings.NewReader("png")}

	_, err := svc.Register(context.Background(), reg)
	assert.ErrorIs(t, err, services.ErrRegistrationIncomplete)

	orphaned := logs.FilterMessageSnippet("avatar left orphaned").All()
	require.Len(t, orphaned, 1)
	assert.Equal(t, store.Media.Keys[0], orphaned[0].ContextMap()["avatar_key"])
}

func TestRegisterLogsFailedRollback(t *testing.T) {
	store := testutil.NewStore()
	store.Profiles.CreateErr = errors.New("connection reset")
	store.Users.DeleteErr = errors.New("connection reset")
	core, logs := observer.New(zapcore.WarnLevel)
	svc := services.NewRegistrationService(store.Users, store.Profiles, store.Media, zap.New(core), nil)

	_, err := svc.Register(context.Background(), aliceSmith())
	assert.ErrorIs(t, err, services.ErrRegistrationIncomplete)
	assert.Equal(t, 1, logs.FilterMessageSnippet("rollback of identity failed").Len())
}

func TestRegisterRollbackSurvivesCancelledContext(t *testing.T) {
	store := testutil.NewStore()
	store.Profiles.CreateErr = context.Canceled
	svc := newRegistration(store, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := svc.Register(ctx, aliceSmith())
	assert.ErrorIs(t, err, services.ErrRegistrationIncomplete)
	assert.Equal(t, 0, store.Users.Len())
}

func TestBaseHandle(t *testing.T) {
	assert.Equal(t, "alice_smith", services.BaseHandle("Alice", "Smith"))
	assert.Equal(t, "mary ann_o'neil", services.BaseHandle(" Mary Ann ", "O'Neil"))
}

func TestGraduationYears(t *testing.T) {
	years := newRegistration(testutil.NewStore(), nil).GraduationYears()
	require.NotEmpty(t, years)
	assert.Equal(t, services.FirstGraduationYear, years[0])
	assert.Equal(t, time.Now().Year()+3, years[len(years)-1])
}
