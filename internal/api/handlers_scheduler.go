package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/clinicware/clinic-appointment-service/internal/clinic"
)

func (h *Handlers) ListPendingAppointments(w http.ResponseWriter, r *http.Request) {
	appts, err := h.svc.ListWorklist(r.Context(), identity(r), []clinic.Status{clinic.StatusPending})
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, "", toAppointmentResponses(appts))
}

func (h *Handlers) DecideAppointment(w http.ResponseWriter, r *http.Request) {
	id, err := appointmentID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var req DecideRequest
	if err := h.decode(r, &req); err != nil {
		writeError(w, err)
		return
	}

	appt, err := h.svc.Decide(r.Context(), identity(r), id, clinic.Action(req.Action))
	if err != nil {
		writeError(w, err)
		return
	}

	message := "appointment approved successfully"
	if appt.Status == clinic.StatusRejected {
		message = "appointment rejected successfully"
	}
	writeSuccess(w, http.StatusOK, message, toAppointmentResponse(appt))
}

func (h *Handlers) ListPatientAppointments(w http.ResponseWriter, r *http.Request) {
	statuses, err := statusFilter(r)
	if err != nil {
		writeError(w, err)
		return
	}

	subject := chi.URLParam(r, "subject")
	appts, err := h.svc.ListPatientAppointments(r.Context(), identity(r), subject, statuses)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, "", toAppointmentResponses(appts))
}

func (h *Handlers) ListReportCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.svc.ListReportCategories(r.Context(), identity(r))
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, "", categories)
}

func (h *Handlers) ListReportsByCategory(w http.ResponseWriter, r *http.Request) {
	category := r.URL.Query().Get("category")
	if category == "" {
		writeFailure(w, http.StatusBadRequest, "category is required")
		return
	}

	reports, err := h.svc.ListReportsByCategory(r.Context(), identity(r), category)
	if err != nil {
		writeError(w, err)
		return
	}

	out := make([]ReportResponse, len(reports))
	for i := range reports {
		out[i] = toReportResponse(&reports[i])
	}
	writeSuccess(w, http.StatusOK, "", out)
}
