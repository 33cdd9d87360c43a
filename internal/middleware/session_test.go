package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/anonto42/usf-event/backend/internal/services"
	"github.com/anonto42/usf-event/backend/internal/testutil"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func serveViewer(t *testing.T, store *testutil.Store, auth *services.AuthService, req *http.Request) services.Viewer {
	t.Helper()
	e := echo.New()
	e.Use(Session("session", auth, store.Users, store.Profiles, zap.NewNop()))

	var viewer services.Viewer
	e.GET("/", func(c echo.Context) error {
		viewer = ViewerFrom(c)
		return c.NoContent(http.StatusOK)
	})
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	return viewer
}

func TestSessionResolvesViewer(t *testing.T) {
	store := testutil.NewStore()
	auth := services.NewAuthService(store.Users, "secret", time.Hour)
	user, profile := store.SeedMember("alice_smith_0", "")
	token, err := auth.IssueToken(user)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "session", Value: token})
	viewer := serveViewer(t, store, auth, req)

	assert.True(t, viewer.Authenticated)
	assert.True(t, viewer.HasProfile())
	assert.Equal(t, profile.ID, viewer.Profile.ID)
}

func TestSessionWithoutProfile(t *testing.T) {
	store := testutil.NewStore()
	auth := services.NewAuthService(store.Users, "secret", time.Hour)
	user := store.Users.Seed("admin_0", "admin@usf.edu", "")
	token, err := auth.IssueToken(user)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	viewer := serveViewer(t, store, auth, req)

	assert.True(t, viewer.Authenticated)
	assert.False(t, viewer.HasProfile())
}

func TestSessionFallsBackToAnonymous(t *testing.T) {
	store := testutil.NewStore()
	auth := services.NewAuthService(store.Users, "secret", time.Hour)
	user, _ := store.SeedMember("alice_smith_0", "")
	token, err := auth.IssueToken(user)
	require.NoError(t, err)
	require.NoError(t, store.Users.DeleteUser(t.Context(), user.ID))

	tests := []struct {
		name  string
		setup func(*http.Request)
	}{
		{"no credentials", func(*http.Request) {}},
		{"garbage cookie", func(r *http.Request) { r.AddCookie(&http.Cookie{Name: "session", Value: "x"}) }},
		{"malformed header", func(r *http.Request) { r.Header.Set(echo.HeaderAuthorization, "Token abc") }},
		{"deleted identity", func(r *http.Request) { r.AddCookie(&http.Cookie{Name: "session", Value: token}) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			tt.setup(req)
			assert.False(t, serveViewer(t, store, auth, req).Authenticated)
		})
	}
}
