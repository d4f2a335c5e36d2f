package clinic

import "errors"

var (
	ErrAppointmentNotFound = errors.New("appointment not found")
	ErrReportNotFound      = errors.New("report not found")
	ErrBillNotFound        = errors.New("bill not found")

	// ErrSlotTaken covers both the optimistic pre-check and the unique
	// index rejecting a concurrent insert; callers cannot tell which
	// writer lost the race, only that the slot is gone.
	ErrSlotTaken = errors.New("this time slot is already booked")

	// ErrSlotBusy means the per-slot lock was held by another request.
	ErrSlotBusy = errors.New("slot is currently being booked, please retry")

	ErrForbidden         = errors.New("access denied")
	ErrInvalidTransition = errors.New("appointment state does not allow this action")
	ErrAlreadyPaid       = errors.New("bill is already paid")
	ErrPaymentRequired   = errors.New("please pay the bill to view the report")
	ErrNotDeletable      = errors.New("appointments with clinical or billing records cannot be deleted")

	// Duplicate-child guards; retrying a half-applied create hits these
	// instead of writing a second report or bill.
	ErrReportExists = errors.New("a report already exists for this appointment")
	ErrBillExists   = errors.New("a bill already exists for this appointment")

	ErrValidation = errors.New("invalid input")
)
