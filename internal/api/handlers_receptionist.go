package api

import (
	"net/http"

	"github.com/clinicware/clinic-appointment-service/internal/clinic"
)

func (h *Handlers) ListBillingWorklist(w http.ResponseWriter, r *http.Request) {
	statuses, err := statusFilter(r)
	if err != nil {
		writeError(w, err)
		return
	}
	if statuses == nil {
		statuses = []clinic.Status{clinic.StatusReported}
	}

	appts, err := h.svc.ListWorklist(r.Context(), identity(r), statuses)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, "", toAppointmentResponses(appts))
}

func (h *Handlers) GetBillingSheet(w http.ResponseWriter, r *http.Request) {
	id, err := appointmentID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	sheet, err := h.svc.GetBillingSheet(r.Context(), identity(r), id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, "", BillingSheetResponse{Fee: sheet.Fee, Items: sheet.Items})
}

func (h *Handlers) CreateBill(w http.ResponseWriter, r *http.Request) {
	id, err := appointmentID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var req CreateBillRequest
	if err := h.decode(r, &req); err != nil {
		writeError(w, err)
		return
	}

	prices := make([]clinic.PricedItem, len(req.Prices))
	for i, p := range req.Prices {
		prices[i] = clinic.PricedItem{Name: p.Name, Price: p.Price}
	}

	bill, err := h.svc.CreateBill(r.Context(), identity(r), id, prices)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusCreated, "bill created successfully", toBillResponse(bill))
}

func (h *Handlers) SendPaymentReminder(w http.ResponseWriter, r *http.Request) {
	id, err := appointmentID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	if err := h.svc.SendPaymentReminder(r.Context(), identity(r), id, h.publisher); err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, "payment reminder sent", nil)
}
