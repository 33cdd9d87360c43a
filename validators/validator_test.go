package validators

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type signupForm struct {
	Email    string `form:"email" validate:"required,email"`
	Password string `form:"password" validate:"required,min=8"`
	Nickname string `json:"nick" validate:"max=3"`
}

func TestFieldErrorsUsesFormNames(t *testing.T) {
	err := NewValidator().Validate(&signupForm{Email: "nope", Password: "short", Nickname: "toolong"})
	require.Error(t, err)

	fields := FieldErrors(err)
	assert.Equal(t, "enter a valid email address", fields["email"])
	assert.Equal(t, "must be at least 8", fields["password"])
	assert.Equal(t, "must be at most 3", fields["nick"])
}

func TestFieldErrorsValid(t *testing.T) {
	err := NewValidator().Validate(&signupForm{Email: "a@b.co", Password: "longenough"})
	assert.NoError(t, err)
	assert.Empty(t, FieldErrors(err))
}

func TestFieldErrorsForeignError(t *testing.T) {
	fields := FieldErrors(errors.New("boom"))
	assert.Equal(t, map[string]string{"_": "boom"}, fields)
}
