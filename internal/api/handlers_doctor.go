package api

import (
	"net/http"

	"github.com/clinicware/clinic-appointment-service/internal/clinic"
)

func (h *Handlers) ListApprovedAppointments(w http.ResponseWriter, r *http.Request) {
	appts, err := h.svc.ListWorklist(r.Context(), identity(r), []clinic.Status{clinic.StatusApproved})
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, "", toAppointmentResponses(appts))
}

func (h *Handlers) CreateReport(w http.ResponseWriter, r *http.Request) {
	id, err := appointmentID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var req CreateReportRequest
	if err := h.decode(r, &req); err != nil {
		writeError(w, err)
		return
	}

	items := make([]clinic.PrescribedItem, len(req.Items))
	for i, item := range req.Items {
		items[i] = clinic.PrescribedItem{Name: item.Name, Dosage: item.Dosage, Timing: item.Timing}
	}

	rep, err := h.svc.CreateReport(r.Context(), identity(r), id, clinic.ClinicalInput{
		Diagnosis:   req.Diagnosis,
		Symptoms:    req.Symptoms,
		Items:       items,
		DoctorNotes: req.DoctorNotes,
		Fee:         req.Fee,
		Category:    req.Category,
		ReportDate:  req.ReportDate,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusCreated, "report created successfully", toReportResponse(rep))
}

func (h *Handlers) CancelAppointment(w http.ResponseWriter, r *http.Request) {
	id, err := appointmentID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	appt, err := h.svc.CancelAppointment(r.Context(), identity(r), id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, "appointment cancelled successfully", toAppointmentResponse(appt))
}
