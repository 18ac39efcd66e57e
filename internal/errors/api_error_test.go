package errors

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidationEnvelope(t *testing.T) {
	apiErr := Validation("title", "title is required")
	require.Equal(t, http.StatusBadRequest, apiErr.StatusCode())

	body, err := json.Marshal(apiErr.Envelope())
	require.NoError(t, err)
	assert.JSONEq(t, `{"error":{"code":"validation_error","message":"title is required","details":{"field":"title"}}}`, string(body))
}

func TestEnvelopeOmitsEmptyDetails(t *testing.T) {
	body, err := json.Marshal(NotFound("task_not_found", "task not found").Envelope())
	require.NoError(t, err)
	assert.JSONEq(t, `{"error":{"code":"task_not_found","message":"task not found"}}`, string(body))
}

func TestNilErrorRendersAsInternal(t *testing.T) {
	var apiErr *APIError
	assert.Equal(t, http.StatusInternalServerError, apiErr.StatusCode())

	body, err := json.Marshal(apiErr.Envelope())
	require.NoError(t, err)
	assert.JSONEq(t, `{"error":{"code":"internal_error","message":"internal server error"}}`, string(body))
}

func TestWithDetailsCopies(t *testing.T) {
	base := New(http.StatusConflict, "version_conflict", "stale")
	withState := base.WithDetails(map[string]int{"version": 3})

	assert.Nil(t, base.Details)
	assert.Equal(t, map[string]int{"version": 3}, withState.Details)
	assert.Equal(t, "stale", withState.Error())
}

func TestDefaultMessages(t *testing.T) {
	assert.Equal(t, "unauthorized", Unauthorized("").Message)
	assert.Equal(t, "token expired", Unauthorized("token expired").Message)
	assert.Equal(t, "internal server error", Internal("").Message)
}
