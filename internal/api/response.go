package api

import (
	"errors"
	"net/http"

	json "github.com/goccy/go-json"

	"github.com/clinicware/clinic-appointment-service/internal/clinic"
	redisclient "github.com/clinicware/clinic-appointment-service/internal/redis"
)

// Envelope is the uniform response shape every endpoint returns.
type Envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeSuccess(w http.ResponseWriter, status int, message string, data any) {
	writeJSON(w, status, Envelope{Success: true, Message: message, Data: data})
}

func writeFailure(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, Envelope{Success: false, Message: message})
}

// writeError maps domain errors onto HTTP statuses while keeping the
// envelope shape. Unknown errors collapse to a generic message so
// internals never leak.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, clinic.ErrValidation):
		writeFailure(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, clinic.ErrForbidden):
		writeFailure(w, http.StatusForbidden, clinic.ErrForbidden.Error())
	case errors.Is(err, clinic.ErrPaymentRequired):
		writeFailure(w, http.StatusPaymentRequired, clinic.ErrPaymentRequired.Error())
	case errors.Is(err, clinic.ErrSlotTaken):
		writeFailure(w, http.StatusConflict, "this time slot is already booked, please choose another time")
	case errors.Is(err, clinic.ErrSlotBusy), errors.Is(err, redisclient.ErrLockNotAcquired):
		writeFailure(w, http.StatusConflict, "slot is currently being booked, please retry shortly")
	case errors.Is(err, clinic.ErrInvalidTransition),
		errors.Is(err, clinic.ErrAlreadyPaid),
		errors.Is(err, clinic.ErrNotDeletable),
		errors.Is(err, clinic.ErrReportExists),
		errors.Is(err, clinic.ErrBillExists):
		writeFailure(w, http.StatusConflict, err.Error())
	case errors.Is(err, clinic.ErrAppointmentNotFound),
		errors.Is(err, clinic.ErrReportNotFound),
		errors.Is(err, clinic.ErrBillNotFound):
		writeFailure(w, http.StatusNotFound, err.Error())
	default:
		writeFailure(w, http.StatusInternalServerError, "something went wrong, please try again")
	}
}
