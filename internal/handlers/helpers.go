package handlers

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/anonto42/usf-event/backend/internal/services"
	"github.com/anonto42/usf-event/backend/pkg/storage"
	"github.com/anonto42/usf-event/backend/validators"
	"github.com/labstack/echo/v4"
)

const (
	homePath  = "/accounts/"
	loginPath = "/accounts/login"
)

// FormPage is the body returned when a form has to be shown again.
type FormPage struct {
	Form   map[string]string `json:"form"`
	Errors map[string]string `json:"errors,omitempty"`
	// GradYears is only set on the registration form.
	GradYears []int `json:"grad_years,omitempty"`
}

func redirect(c echo.Context, path string) error {
	return c.Redirect(http.StatusSeeOther, path)
}

func redirectHome(c echo.Context) error {
	return redirect(c, homePath)
}

// parseID reads a numeric path parameter. Malformed ids are reported as not
// found, the same as ids that do not exist.
func parseID(c echo.Context, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, echo.NewHTTPError(http.StatusNotFound, "not found")
	}
	return uint(id), nil
}

// formValues echoes submitted fields back, never the password.
func formValues(c echo.Context) map[string]string {
	values := map[string]string{}
	params, err := c.FormParams()
	if err != nil {
		return values
	}
	for name := range params {
		if name == "password" {
			continue
		}
		values[name] = params.Get(name)
	}
	return values
}

// formUpload opens an optional file field. A request without the field, or
// without a multipart body, yields a nil upload.
func formUpload(c echo.Context, field string) (*storage.Upload, io.Closer, error) {
	fh, err := c.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
			return nil, io.NopCloser(nil), nil
		}
		return nil, nil, echo.NewHTTPError(http.StatusBadRequest, "invalid upload")
	}
	f, err := fh.Open()
	if err != nil {
		return nil, nil, echo.NewHTTPError(http.StatusBadRequest, "invalid upload")
	}
	return &storage.Upload{
		Filename:    fh.Filename,
		ContentType: fh.Header.Get(echo.HeaderContentType),
		Size:        fh.Size,
		Body:        f,
	}, f, nil
}

// formError renders err as a 422 form page when it is a validation problem
// and falls back to serviceError otherwise.
func formError(c echo.Context, page FormPage, err error) error {
	var verr *services.ValidationError
	switch {
	case errors.As(err, &verr):
		page.Errors = verr.Fields
	case errors.Is(err, services.ErrMediaDisabled):
		page.Errors = map[string]string{"_": err.Error()}
	default:
		if fields := validators.FieldErrors(err); len(fields) > 0 && fields["_"] == "" {
			page.Errors = fields
			break
		}
		return serviceError(err)
	}
	return c.JSON(http.StatusUnprocessableEntity, page)
}

// serviceError maps service sentinels onto HTTP errors.
func serviceError(err error) error {
	switch {
	case errors.Is(err, services.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "not found")
	case errors.Is(err, services.ErrInvalidCredentials):
		return echo.NewHTTPError(http.StatusUnauthorized, err.Error())
	default:
		return err
	}
}
