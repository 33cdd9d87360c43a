package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/anonto42/usf-event/backend/internal/middleware"
	"github.com/anonto42/usf-event/backend/internal/models"
	"github.com/anonto42/usf-event/backend/internal/services"
	"github.com/anonto42/usf-event/backend/pkg/firebase"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// TokenVerifier verifies Firebase ID tokens.
type TokenVerifier interface {
	Verify(ctx context.Context, idToken string) (*firebase.TokenIdentity, error)
}

// SessionCookie describes the cookie carrying the session token.
type SessionCookie struct {
	Name   string
	Secure bool
}

// AccountHandler serves the /accounts pages.
type AccountHandler struct {
	registration  *services.RegistrationService
	auth          *services.AuthService
	feed          *services.FeedService
	friendships   *services.FriendshipService
	messages      *services.MessageService
	notifications *services.NotificationService
	verifier      TokenVerifier
	cookie        SessionCookie
	log           *zap.Logger
}

// NewAccountHandler creates a new AccountHandler. verifier may be nil, in
// which case Firebase login is not offered.
func NewAccountHandler(
	registration *services.RegistrationService,
	auth *services.AuthService,
	feed *services.FeedService,
	friendships *services.FriendshipService,
	messages *services.MessageService,
	notifications *services.NotificationService,
	verifier TokenVerifier,
	cookie SessionCookie,
	log *zap.Logger,
) *AccountHandler {
	return &AccountHandler{
		registration:  registration,
		auth:          auth,
		feed:          feed,
		friendships:   friendships,
		messages:      messages,
		notifications: notifications,
		verifier:      verifier,
		cookie:        cookie,
		log:           log,
	}
}

// RegisterAccountRoutes registers the account routes on g.
func (h *AccountHandler) RegisterAccountRoutes(g *echo.Group) {
	g.GET("/", h.Home)
	g.GET("/register", h.RegisterForm)
	g.POST("/register", h.Register)
	g.GET("/login", h.LoginForm)
	g.POST("/login", h.Login)
	g.GET("/logout", h.Logout)
	g.POST("/logout", h.Logout)
	g.GET("/add_friend/:target_id", h.AddFriend)
	g.POST("/add_friend/:target_id", h.AddFriend)
	g.GET("/profile/:target_id", h.PublicProfile)
	g.POST("/message/:target_id", h.SendMessage)
	g.GET("/notifications", h.Notifications)
	g.POST("/notifications/read", h.MarkNotificationsRead)
	if h.verifier != nil {
		g.POST("/firebase-login", h.FirebaseLogin)
	}
}

// Home returns the caller's home feed.
func (h *AccountHandler) Home(c echo.Context) error {
	feed, err := h.feed.ComputeFeed(c.Request().Context(), middleware.ViewerFrom(c))
	if err != nil {
		return serviceError(err)
	}
	return c.JSON(http.StatusOK, feed)
}

func (h *AccountHandler) registerPage() FormPage {
	return FormPage{Form: map[string]string{}, GradYears: h.registration.GraduationYears()}
}

// RegisterForm returns the registration form metadata.
func (h *AccountHandler) RegisterForm(c echo.Context) error {
	if middleware.ViewerFrom(c).Authenticated {
		return redirectHome(c)
	}
	return c.JSON(http.StatusOK, h.registerPage())
}

type registerForm struct {
	models.RegisterRequest
	models.ProfileFields
}

// Register runs the registration workflow and starts a session for the new
// identity.
func (h *AccountHandler) Register(c echo.Context) error {
	if middleware.ViewerFrom(c).Authenticated {
		return redirectHome(c)
	}

	page := h.registerPage()
	var form registerForm
	if err := c.Bind(&form); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	page.Form = formValues(c)
	if err := c.Validate(&form.RegisterRequest); err != nil {
		return formError(c, page, err)
	}

	avatar, closer, err := formUpload(c, "avatar")
	if err != nil {
		return err
	}
	defer closer.Close()

	ctx := c.Request().Context()
	user, err := h.registration.Register(ctx, services.Registration{
		FirstName: form.FirstName,
		LastName:  form.LastName,
		Email:     form.Email,
		Password:  form.Password,
		Profile:   form.ProfileFields,
		Avatar:    avatar,
	})
	if err != nil {
		var verr *services.ValidationError
		if errors.As(err, &verr) || errors.Is(err, services.ErrMediaDisabled) {
			return formError(c, page, err)
		}
		if errors.Is(err, services.ErrRegistrationIncomplete) {
			h.log.Error("registration failed", zap.Error(err))
			page.Errors = map[string]string{"_": services.ErrRegistrationIncomplete.Error()}
			return c.JSON(http.StatusUnprocessableEntity, page)
		}
		return serviceError(err)
	}

	token, err := h.auth.IssueToken(user)
	if err != nil {
		return err
	}
	h.setSession(c, token)
	return redirectHome(c)
}

// LoginForm shows the login form to anonymous callers.
func (h *AccountHandler) LoginForm(c echo.Context) error {
	if middleware.ViewerFrom(c).Authenticated {
		return redirectHome(c)
	}
	return c.JSON(http.StatusOK, FormPage{Form: map[string]string{}})
}

// Login checks email and password and starts a session.
func (h *AccountHandler) Login(c echo.Context) error {
	if middleware.ViewerFrom(c).Authenticated {
		return redirectHome(c)
	}

	var req models.LoginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	page := FormPage{Form: map[string]string{"email": req.Email}}
	if err := c.Validate(&req); err != nil {
		return formError(c, page, err)
	}

	token, err := h.auth.Login(c.Request().Context(), req.Email, req.Password)
	if errors.Is(err, services.ErrInvalidCredentials) {
		page.Errors = map[string]string{"_": err.Error()}
		return c.JSON(http.StatusUnauthorized, page)
	}
	if err != nil {
		return serviceError(err)
	}
	h.setSession(c, token)
	return redirectHome(c)
}

// FirebaseLogin exchanges a Firebase ID token for a session on an existing
// account.
func (h *AccountHandler) FirebaseLogin(c echo.Context) error {
	var req models.FirebaseLoginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "idToken is required")
	}

	ctx := c.Request().Context()
	identity, err := h.verifier.Verify(ctx, req.IDToken)
	if err != nil {
		h.log.Warn("firebase token rejected", zap.Error(err))
		return echo.NewHTTPError(http.StatusUnauthorized, "Invalid Firebase ID token")
	}
	token, err := h.auth.LoginWithFirebase(ctx, identity)
	if err != nil {
		return serviceError(err)
	}
	h.setSession(c, token)
	return c.JSON(http.StatusOK, echo.Map{"token": token})
}

// Logout clears the session cookie.
func (h *AccountHandler) Logout(c echo.Context) error {
	c.SetCookie(&http.Cookie{
		Name:     h.cookie.Name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: http.SameSiteLaxMode,
	})
	return redirectHome(c)
}

// AddFriend befriends the target profile and returns home.
func (h *AccountHandler) AddFriend(c echo.Context) error {
	viewer := middleware.ViewerFrom(c)
	if !viewer.Authenticated {
		return redirectHome(c)
	}
	targetID, err := parseID(c, "target_id")
	if err != nil {
		return err
	}
	if _, err := h.friendships.AddFriend(c.Request().Context(), viewer, targetID); err != nil {
		return serviceError(err)
	}
	return redirectHome(c)
}

// PublicProfile returns another profile's page.
func (h *AccountHandler) PublicProfile(c echo.Context) error {
	viewer := middleware.ViewerFrom(c)
	var targetID uint
	if viewer.Authenticated {
		id, err := parseID(c, "target_id")
		if err != nil {
			return err
		}
		targetID = id
	}
	page, err := h.feed.ComposePublicProfile(c.Request().Context(), viewer, targetID)
	if err != nil {
		return serviceError(err)
	}
	return c.JSON(http.StatusOK, page)
}

// SendMessage delivers a direct message to the target profile.
func (h *AccountHandler) SendMessage(c echo.Context) error {
	viewer := middleware.ViewerFrom(c)
	if !viewer.Authenticated {
		return redirect(c, loginPath)
	}
	targetID, err := parseID(c, "target_id")
	if err != nil {
		return err
	}
	var req models.SendMessageRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	page := FormPage{Form: map[string]string{"body": req.Body}}
	if err := c.Validate(&req); err != nil {
		return formError(c, page, err)
	}
	if _, err := h.messages.Send(c.Request().Context(), viewer, targetID, req.Body); err != nil {
		return formError(c, page, err)
	}
	return redirectHome(c)
}

// Notifications returns a page of the caller's notifications.
func (h *AccountHandler) Notifications(c echo.Context) error {
	page, _ := strconv.Atoi(c.QueryParam("page"))
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	result, err := h.notifications.List(c.Request().Context(), middleware.ViewerFrom(c), page, limit)
	if err != nil {
		return serviceError(err)
	}
	return c.JSON(http.StatusOK, result)
}

// MarkNotificationsRead marks every notification of the caller as read.
func (h *AccountHandler) MarkNotificationsRead(c echo.Context) error {
	if err := h.notifications.MarkAllRead(c.Request().Context(), middleware.ViewerFrom(c)); err != nil {
		return serviceError(err)
	}
	return redirect(c, "/accounts/notifications")
}

func (h *AccountHandler) setSession(c echo.Context, token string) {
	ttl := h.auth.TTL()
	c.SetCookie(&http.Cookie{
		Name:     h.cookie.Name,
		Value:    token,
		Path:     "/",
		MaxAge:   int(ttl.Seconds()),
		Expires:  time.Now().Add(ttl),
		HttpOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}
