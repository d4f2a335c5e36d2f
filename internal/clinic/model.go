package clinic

import (
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusPending  Status = "Pending"
	StatusApproved Status = "Approved"
	StatusRejected Status = "Rejected"
	StatusReported Status = "Reported"
	StatusBilled   Status = "Billed"
	StatusPaid     Status = "Paid"
)

type BillStatus string

const (
	BillUnpaid BillStatus = "Unpaid"
	BillPaid   BillStatus = "Paid"
)

// Appointment is the root aggregate. Slot is the scheduling key and is
// unique across appointments; the unique index on it is the authoritative
// guard against double booking.
type Appointment struct {
	ID             uuid.UUID
	PatientName    string
	Age            int
	Address        string
	Slot           time.Time
	PatientSubject string
	Status         Status
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// PrescribedItem is one line of a report's prescription.
type PrescribedItem struct {
	Name   string `json:"name"`
	Dosage string `json:"dosage"`
	Timing string `json:"timing"`
}

// Report is written once per appointment while it is Approved and is
// immutable afterwards. Patient name and age are snapshotted from the
// appointment at creation time.
type Report struct {
	ID            uuid.UUID
	AppointmentID uuid.UUID
	PatientName   string
	Age           int
	Diagnosis     string
	Symptoms      string
	Items         []PrescribedItem
	DoctorNotes   string
	Fee           int64
	Category      string
	ReportDate    time.Time
	DoctorName    string
	CreatedAt     time.Time
}

// BillItem is a priced prescription line on a bill.
type BillItem struct {
	Name  string `json:"name"`
	Price int64  `json:"price"`
}

// Bill is derived from a report plus the receptionist's price list. It is
// mutated exactly once, when the patient settles it.
type Bill struct {
	ID              uuid.UUID
	AppointmentID   uuid.UUID
	PatientName     string
	Address         string
	ConsultationFee int64
	Items           []BillItem
	MedicinesTotal  int64
	TotalAmount     int64
	Status          BillStatus
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// PricedItem is one entry of the price list a receptionist submits when
// creating a bill.
type PricedItem struct {
	Name  string
	Price int64
}

// EventLog is an append-only audit row written for every accepted
// lifecycle transition and every reconciliation repair.
type EventLog struct {
	ID            int64
	EventType     string
	AppointmentID *uuid.UUID
	Payload       []byte
	CreatedAt     time.Time
}
