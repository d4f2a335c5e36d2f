package api

import (
	"net/http"

	"github.com/clinicware/clinic-appointment-service/internal/clinic"
)

func (h *Handlers) RequestAppointment(w http.ResponseWriter, r *http.Request) {
	var req RequestAppointmentRequest
	if err := h.decode(r, &req); err != nil {
		writeError(w, err)
		return
	}

	appt, err := h.svc.RequestAppointment(r.Context(), identity(r), clinic.AppointmentDraft{
		PatientName: req.PatientName,
		Age:         req.Age,
		Address:     req.Address,
		Slot:        req.Slot,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusCreated, "appointment request submitted successfully", toAppointmentResponse(appt))
}

func (h *Handlers) ListOwnAppointments(w http.ResponseWriter, r *http.Request) {
	statuses, err := statusFilter(r)
	if err != nil {
		writeError(w, err)
		return
	}

	appts, err := h.svc.ListOwnAppointments(r.Context(), identity(r), statuses)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, "", toAppointmentResponses(appts))
}

func (h *Handlers) GetAppointment(w http.ResponseWriter, r *http.Request) {
	id, err := appointmentID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	appt, err := h.svc.GetAppointment(r.Context(), identity(r), id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, "", toAppointmentResponse(appt))
}

func (h *Handlers) DeleteAppointment(w http.ResponseWriter, r *http.Request) {
	id, err := appointmentID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	if err := h.svc.DeleteAppointment(r.Context(), identity(r), id); err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, "appointment deleted successfully", nil)
}

func (h *Handlers) GetBill(w http.ResponseWriter, r *http.Request) {
	id, err := appointmentID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	bill, err := h.svc.GetBill(r.Context(), identity(r), id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, "", toBillResponse(bill))
}

func (h *Handlers) PayBill(w http.ResponseWriter, r *http.Request) {
	id, err := appointmentID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	bill, err := h.svc.PayBill(r.Context(), identity(r), id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, "payment successful", toBillResponse(bill))
}

func (h *Handlers) GetReport(w http.ResponseWriter, r *http.Request) {
	id, err := appointmentID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	rep, err := h.svc.GetReport(r.Context(), identity(r), id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, "", toReportResponse(rep))
}
