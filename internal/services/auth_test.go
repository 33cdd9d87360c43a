package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/anonto42/usf-event/backend/internal/repositories"
	"github.com/anonto42/usf-event/backend/internal/services"
	"github.com/anonto42/usf-event/backend/internal/testutil"
	"github.com/anonto42/usf-event/backend/pkg/firebase"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const testSecret = "test-secret"

func seedWithPassword(t *testing.T, users *testutil.Users, email, password string) uint {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return users.Seed("alice_smith_0", email, string(hash)).ID
}

func TestLoginIssuesParseableToken(t *testing.T) {
	users := testutil.NewUsers()
	id := seedWithPassword(t, users, "alice@usf.edu", "correct horse")
	svc := services.NewAuthService(users, testSecret, time.Hour)

	token, err := svc.Login(context.Background(), " Alice@USF.edu ", "correct horse")
	require.NoError(t, err)

	claims, err := svc.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, id, claims.UserID)
	assert.Equal(t, "alice@usf.edu", claims.Email)
	assert.WithinDuration(t, time.Now().Add(time.Hour), claims.ExpiresAt.Time, time.Minute)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	users := testutil.NewUsers()
	seedWithPassword(t, users, "alice@usf.edu", "correct horse")
	svc := services.NewAuthService(users, testSecret, time.Hour)

	_, err := svc.Login(context.Background(), "alice@usf.edu", "wrong")
	assert.ErrorIs(t, err, services.ErrInvalidCredentials)

	_, err = svc.Login(context.Background(), "nobody@usf.edu", "correct horse")
	assert.ErrorIs(t, err, services.ErrInvalidCredentials)
}

func TestLoginRejectsInactiveIdentity(t *testing.T) {
	users := testutil.NewUsers()
	id := seedWithPassword(t, users, "alice@usf.edu", "correct horse")
	user, err := users.GetUserByID(context.Background(), id)
	require.NoError(t, err)
	user.IsActive = false
	require.NoError(t, users.UpdateUser(context.Background(), user))

	_, err = services.NewAuthService(users, testSecret, time.Hour).Login(context.Background(), "alice@usf.edu", "correct horse")
	assert.ErrorIs(t, err, services.ErrInvalidCredentials)
}

func TestParseTokenRejectsForeignSecret(t *testing.T) {
	users := testutil.NewUsers()
	user := users.Seed("alice_smith_0", "alice@usf.edu", "")

	token, err := services.NewAuthService(users, "other-secret", time.Hour).IssueToken(user)
	require.NoError(t, err)

	_, err = services.NewAuthService(users, testSecret, time.Hour).ParseToken(token)
	assert.Error(t, err)
}

func TestParseTokenRejectsExpiredToken(t *testing.T) {
	users := testutil.NewUsers()
	user := users.Seed("alice_smith_0", "alice@usf.edu", "")
	svc := services.NewAuthService(users, testSecret, -time.Minute)

	token, err := svc.IssueToken(user)
	require.NoError(t, err)
	_, err = svc.ParseToken(token)
	assert.Error(t, err)
}

func TestLoginWithFirebaseLinksExistingAccount(t *testing.T) {
	users := testutil.NewUsers()
	user := users.Seed("alice_smith_0", "alice@usf.edu", "")
	svc := services.NewAuthService(users, testSecret, time.Hour)
	identity := &firebase.TokenIdentity{UID: "fb-123", Email: "Alice@usf.edu", EmailVerified: true}

	token, err := svc.LoginWithFirebase(context.Background(), identity)
	require.NoError(t, err)
	claims, err := svc.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)

	linked, err := users.GetUserByFirebaseUID(context.Background(), "fb-123")
	require.NoError(t, err)
	assert.Equal(t, user.ID, linked.ID)

	// The UID alone is enough the second time.
	_, err = svc.LoginWithFirebase(context.Background(), &firebase.TokenIdentity{UID: "fb-123", Email: "changed@usf.edu"})
	assert.NoError(t, err)
}

func TestLoginWithFirebaseRefusesUnverifiedEmail(t *testing.T) {
	users := testutil.NewUsers()
	user := users.Seed("alice_smith_0", "alice@usf.edu", "")
	svc := services.NewAuthService(users, testSecret, time.Hour)

	_, err := svc.LoginWithFirebase(context.Background(), &firebase.TokenIdentity{UID: "fb-attacker", Email: "alice@usf.edu"})
	assert.ErrorIs(t, err, services.ErrInvalidCredentials)

	_, err = users.GetUserByFirebaseUID(context.Background(), "fb-attacker")
	assert.ErrorIs(t, err, repositories.ErrNotFound)
	stored, err := users.GetUserByID(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Nil(t, stored.FirebaseUID)
}

func TestLoginWithFirebaseNeverCreatesAccounts(t *testing.T) {
	users := testutil.NewUsers()
	svc := services.NewAuthService(users, testSecret, time.Hour)

	_, err := svc.LoginWithFirebase(context.Background(), &firebase.TokenIdentity{UID: "fb-1", Email: "new@usf.edu", EmailVerified: true})
	assert.ErrorIs(t, err, services.ErrInvalidCredentials)
	assert.Zero(t, users.Len())
}
