package clinic

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Repository contains all DB interactions needed by the services.
type Repository interface {
	// Appointments
	CreateAppointment(ctx context.Context, appt *Appointment) error
	GetAppointmentByID(ctx context.Context, id uuid.UUID) (*Appointment, error)
	GetAppointmentBySlot(ctx context.Context, slot time.Time) (*Appointment, error)
	ListAppointmentsBySubject(ctx context.Context, subject string, statuses []Status) ([]Appointment, error)
	ListAppointmentsByStatus(ctx context.Context, statuses []Status) ([]Appointment, error)
	// UpdateAppointmentStatus is a compare-and-set: it only applies when
	// the persisted status still equals from.
	UpdateAppointmentStatus(ctx context.Context, id uuid.UUID, from, to Status) (*Appointment, error)
	DeleteAppointment(ctx context.Context, id uuid.UUID) error

	// Reports
	CreateReport(ctx context.Context, rep *Report) error
	GetReportByAppointment(ctx context.Context, appointmentID uuid.UUID) (*Report, error)
	ListReportCategories(ctx context.Context) ([]string, error)
	ListReportsByCategory(ctx context.Context, category string) ([]Report, error)

	// Bills
	CreateBill(ctx context.Context, bill *Bill) error
	GetBillByAppointment(ctx context.Context, appointmentID uuid.UUID) (*Bill, error)
	// SettleBill flips Unpaid to Paid; it fails if the bill is missing or
	// already settled.
	SettleBill(ctx context.Context, appointmentID uuid.UUID) (*Bill, error)

	// Reconciliation: appointments whose child write landed but whose
	// lifecycle transition did not.
	FindApprovedWithReport(ctx context.Context) ([]Appointment, error)
	FindReportedWithBill(ctx context.Context) ([]Appointment, error)
	FindBilledWithSettledBill(ctx context.Context) ([]Appointment, error)

	// Audit
	InsertEvent(ctx context.Context, ev EventLog) error
}
