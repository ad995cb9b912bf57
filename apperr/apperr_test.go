package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFieldErrors(t *testing.T) {
	fields := FieldErrors{}
	assert.NoError(t, fields.Err())

	fields.Add("fat", "This field is required.")
	fields.Add("calories", "A valid number is required.")
	err := fields.Err()

	e := As(err)
	if assert.NotNil(t, e) {
		assert.Equal(t, KindValidation, e.Kind)
		assert.Equal(t, http.StatusBadRequest, e.HTTPStatus())
		assert.Equal(t, "invalid input: calories, fat", e.Error())
	}
}

func TestSentinelMatchesThroughWrapping(t *testing.T) {
	sentinel := NotFound("nothing here")
	wrapped := fmt.Errorf("purge: %w", NotFound("nothing here"))

	assert.True(t, errors.Is(wrapped, sentinel))
	assert.False(t, errors.Is(wrapped, NotFound("other")))
	assert.True(t, IsKind(wrapped, KindNotFound))
}

func TestInternalKeepsCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := Internal("store failure", cause)

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, http.StatusInternalServerError, err.HTTPStatus())
	assert.Nil(t, As(cause))
}
