package api

import (
	"time"

	"github.com/google/uuid"

	"github.com/clinicware/clinic-appointment-service/internal/clinic"
)

type RequestAppointmentRequest struct {
	PatientName string    `json:"patient_name" validate:"required"`
	Age         int       `json:"age" validate:"required,gt=0"`
	Address     string    `json:"address" validate:"required"`
	Slot        time.Time `json:"slot" validate:"required"`
}

type DecideRequest struct {
	Action string `json:"action" validate:"required,oneof=approve reject"`
}

type ReportItem struct {
	Name   string `json:"name" validate:"required"`
	Dosage string `json:"dosage"`
	Timing string `json:"timing"`
}

type CreateReportRequest struct {
	Diagnosis   string       `json:"diagnosis" validate:"required"`
	Symptoms    string       `json:"symptoms"`
	Items       []ReportItem `json:"items" validate:"dive"`
	DoctorNotes string       `json:"doctor_notes"`
	Fee         int64        `json:"fee" validate:"required,gt=0"`
	Category    string       `json:"category" validate:"required"`
	ReportDate  time.Time    `json:"report_date" validate:"required"`
}

type PriceEntry struct {
	Name  string `json:"name" validate:"required"`
	Price int64  `json:"price" validate:"gte=0"`
}

type CreateBillRequest struct {
	Prices []PriceEntry `json:"prices" validate:"dive"`
}

type AppointmentResponse struct {
	ID          uuid.UUID `json:"id"`
	PatientName string    `json:"patient_name"`
	Age         int       `json:"age"`
	Address     string    `json:"address"`
	Slot        time.Time `json:"slot"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func toAppointmentResponse(a *clinic.Appointment) AppointmentResponse {
	return AppointmentResponse{
		ID:          a.ID,
		PatientName: a.PatientName,
		Age:         a.Age,
		Address:     a.Address,
		Slot:        a.Slot,
		Status:      string(a.Status),
		CreatedAt:   a.CreatedAt,
		UpdatedAt:   a.UpdatedAt,
	}
}

func toAppointmentResponses(appts []clinic.Appointment) []AppointmentResponse {
	out := make([]AppointmentResponse, len(appts))
	for i := range appts {
		out[i] = toAppointmentResponse(&appts[i])
	}
	return out
}

type ReportResponse struct {
	ID          uuid.UUID               `json:"id"`
	PatientName string                  `json:"patient_name"`
	Age         int                     `json:"age"`
	Diagnosis   string                  `json:"diagnosis"`
	Symptoms    string                  `json:"symptoms,omitempty"`
	Items       []clinic.PrescribedItem `json:"items"`
	DoctorNotes string                  `json:"doctor_notes,omitempty"`
	Fee         int64                   `json:"fee"`
	Category    string                  `json:"category"`
	ReportDate  time.Time               `json:"report_date"`
	DoctorName  string                  `json:"doctor_name"`
}

func toReportResponse(r *clinic.Report) ReportResponse {
	return ReportResponse{
		ID:          r.ID,
		PatientName: r.PatientName,
		Age:         r.Age,
		Diagnosis:   r.Diagnosis,
		Symptoms:    r.Symptoms,
		Items:       r.Items,
		DoctorNotes: r.DoctorNotes,
		Fee:         r.Fee,
		Category:    r.Category,
		ReportDate:  r.ReportDate,
		DoctorName:  r.DoctorName,
	}
}

type BillResponse struct {
	ID              uuid.UUID         `json:"id"`
	PatientName     string            `json:"patient_name"`
	Address         string            `json:"address"`
	ConsultationFee int64             `json:"consultation_fee"`
	Items           []clinic.BillItem `json:"items"`
	MedicinesTotal  int64             `json:"medicines_total"`
	TotalAmount     int64             `json:"total_amount"`
	Status          string            `json:"status"`
}

func toBillResponse(b *clinic.Bill) BillResponse {
	return BillResponse{
		ID:              b.ID,
		PatientName:     b.PatientName,
		Address:         b.Address,
		ConsultationFee: b.ConsultationFee,
		Items:           b.Items,
		MedicinesTotal:  b.MedicinesTotal,
		TotalAmount:     b.TotalAmount,
		Status:          string(b.Status),
	}
}

type BillingSheetResponse struct {
	Fee   int64                   `json:"fee"`
	Items []clinic.PrescribedItem `json:"items"`
}
