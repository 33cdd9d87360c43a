package handlers

import (
	"net/http"
	"strings"

	"github.com/anonto42/usf-event/backend/internal/middleware"
	"github.com/anonto42/usf-event/backend/internal/models"
	"github.com/anonto42/usf-event/backend/internal/services"
	"github.com/labstack/echo/v4"
)

// EventHandler serves the /events pages.
type EventHandler struct {
	events *services.EventService
}

func NewEventHandler(events *services.EventService) *EventHandler {
	return &EventHandler{events: events}
}

// RegisterEventRoutes registers the event routes on g. Static segments are
// registered before /:id so they win.
func (h *EventHandler) RegisterEventRoutes(g *echo.Group) {
	g.GET("/", h.List)
	g.GET("/archives", h.Archives)
	g.GET("/tag/:tag", h.Tag)
	g.GET("/post", h.PostForm)
	g.POST("/post", h.Post)
	g.GET("/:id", h.Detail)
	g.POST("/:id/comment", h.Comment)
	g.POST("/:id/like", h.Like)
}

type eventList struct {
	Tag    string         `json:"tag,omitempty"`
	Events []models.Event `json:"events"`
}

// List returns every event in posting order.
func (h *EventHandler) List(c echo.Context) error {
	events, err := h.events.List(c.Request().Context())
	if err != nil {
		return serviceError(err)
	}
	return c.JSON(http.StatusOK, eventList{Events: events})
}

// Archives returns every event, newest first.
func (h *EventHandler) Archives(c echo.Context) error {
	events, err := h.events.Archives(c.Request().Context())
	if err != nil {
		return serviceError(err)
	}
	return c.JSON(http.StatusOK, eventList{Events: events})
}

// Tag returns the events carrying the tag.
func (h *EventHandler) Tag(c echo.Context) error {
	tag := c.Param("tag")
	events, err := h.events.ByTag(c.Request().Context(), tag)
	if err != nil {
		return serviceError(err)
	}
	return c.JSON(http.StatusOK, eventList{Tag: tag, Events: events})
}

// Detail returns an event with its comments.
func (h *EventHandler) Detail(c echo.Context) error {
	detail, err := h.events.Detail(c.Request().Context(), c.Param("id"))
	if err != nil {
		return serviceError(err)
	}
	return c.JSON(http.StatusOK, detail)
}

// Comment adds a comment to the event and returns home.
func (h *EventHandler) Comment(c echo.Context) error {
	viewer := middleware.ViewerFrom(c)
	if !viewer.Authenticated {
		return redirectHome(c)
	}
	var req models.CreateCommentRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if strings.TrimSpace(req.Content) == "" {
		return redirectHome(c)
	}
	if err := c.Validate(&req); err != nil {
		return formError(c, FormPage{Form: map[string]string{"content": req.Content}}, err)
	}
	if _, err := h.events.Comment(c.Request().Context(), viewer, c.Param("id"), req.Content); err != nil {
		return serviceError(err)
	}
	return redirectHome(c)
}

// Like saves the event for the caller and returns home.
func (h *EventHandler) Like(c echo.Context) error {
	viewer := middleware.ViewerFrom(c)
	if !viewer.Authenticated {
		return redirectHome(c)
	}
	if _, err := h.events.Like(c.Request().Context(), viewer, c.Param("id")); err != nil {
		return serviceError(err)
	}
	return redirectHome(c)
}

// PostForm shows the event form to authenticated callers.
func (h *EventHandler) PostForm(c echo.Context) error {
	if !middleware.ViewerFrom(c).Authenticated {
		return redirect(c, loginPath)
	}
	return c.JSON(http.StatusOK, FormPage{Form: map[string]string{}})
}

// Post stores a new event and redirects to the home feed.
func (h *EventHandler) Post(c echo.Context) error {
	viewer := middleware.ViewerFrom(c)
	if !viewer.Authenticated {
		return redirect(c, loginPath)
	}

	var req models.CreateEventRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	page := FormPage{Form: formValues(c)}
	if err := c.Validate(&req); err != nil {
		return formError(c, page, err)
	}

	image, closer, err := formUpload(c, "picture")
	if err != nil {
		return err
	}
	defer closer.Close()

	if _, err := h.events.Post(c.Request().Context(), viewer, req, image); err != nil {
		return formError(c, page, err)
	}
	return redirectHome(c)
}
