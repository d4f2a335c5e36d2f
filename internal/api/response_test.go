package api

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clinicware/clinic-appointment-service/internal/clinic"
	redisclient "github.com/clinicware/clinic-appointment-service/internal/redis"
)

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) Envelope {
	t.Helper()
	var env Envelope
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&env))
	return env
}

func TestWriteErrorStatusMapping(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{clinic.ErrValidation, http.StatusBadRequest},
		{fmt.Errorf("%w: age must be positive", clinic.ErrValidation), http.StatusBadRequest},
		{clinic.ErrForbidden, http.StatusForbidden},
		{clinic.ErrPaymentRequired, http.StatusPaymentRequired},
		{clinic.ErrSlotTaken, http.StatusConflict},
		{clinic.ErrSlotBusy, http.StatusConflict},
		{redisclient.ErrLockNotAcquired, http.StatusConflict},
		{clinic.ErrInvalidTransition, http.StatusConflict},
		{clinic.ErrAlreadyPaid, http.StatusConflict},
		{clinic.ErrNotDeletable, http.StatusConflict},
		{clinic.ErrReportExists, http.StatusConflict},
		{clinic.ErrBillExists, http.StatusConflict},
		{clinic.ErrAppointmentNotFound, http.StatusNotFound},
		{clinic.ErrReportNotFound, http.StatusNotFound},
		{clinic.ErrBillNotFound, http.StatusNotFound},
		{errors.New("pg connection reset"), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.err.Error(), func(t *testing.T) {
			rec := httptest.NewRecorder()
			writeError(rec, tc.err)

			assert.Equal(t, tc.status, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

			env := decodeEnvelope(t, rec)
			assert.False(t, env.Success)
			assert.NotEmpty(t, env.Message)
		})
	}
}

// Internal error details never reach the client.
func TestWriteErrorHidesInternals(t *testing.T) {
	rec := httptest.NewRecorder()
	writeError(rec, errors.New(`dial tcp 10.0.0.5:5432: connect: connection refused`))

	env := decodeEnvelope(t, rec)
	assert.NotContains(t, env.Message, "10.0.0.5")
	assert.Equal(t, "something went wrong, please try again", env.Message)
}

func TestWriteSuccess(t *testing.T) {
	rec := httptest.NewRecorder()
	writeSuccess(rec, http.StatusCreated, "appointment requested", map[string]string{"id": "abc"})

	assert.Equal(t, http.StatusCreated, rec.Code)

	env := decodeEnvelope(t, rec)
	assert.True(t, env.Success)
	assert.Equal(t, "appointment requested", env.Message)

	data, ok := env.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "abc", data["id"])
}
