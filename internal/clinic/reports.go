package clinic

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/clinicware/clinic-appointment-service/internal/auth"
)

// ClinicalInput is what a doctor submits when writing a report.
type ClinicalInput struct {
	Diagnosis   string
	Symptoms    string
	Items       []PrescribedItem
	DoctorNotes string
	Fee         int64
	Category    string
	ReportDate  time.Time
}

func (in ClinicalInput) validate() error {
	switch {
	case in.Diagnosis == "":
		return fmt.Errorf("%w: diagnosis is required", ErrValidation)
	case in.Fee <= 0:
		return fmt.Errorf("%w: consultation fee must be positive", ErrValidation)
	case in.Category == "":
		return fmt.Errorf("%w: report category is required", ErrValidation)
	case in.ReportDate.IsZero():
		return fmt.Errorf("%w: report date is required", ErrValidation)
	}
	for _, item := range in.Items {
		if item.Name == "" {
			return fmt.Errorf("%w: prescribed item name is required", ErrValidation)
		}
	}
	return nil
}

// CreateReport writes the clinical report for an Approved appointment and
// advances it to Reported. The report insert and the transition are two
// separate writes; if the second one is lost, retrying the operation (or
// the reconcile worker) completes it without duplicating the report.
func (s *Service) CreateReport(ctx context.Context, ident auth.Identity, appointmentID uuid.UUID, input ClinicalInput) (*Report, error) {
	appt, err := s.repo.GetAppointmentByID(ctx, appointmentID)
	if err != nil {
		return nil, err
	}

	if _, err := planTransition(appt.Status, ActionReport, ident.Role); err != nil {
		return nil, err
	}
	if err := s.requireMember(ctx, ident, auth.RoleDoctor); err != nil {
		return nil, err
	}
	if err := input.validate(); err != nil {
		return nil, err
	}

	member, err := s.staff.GetMember(ctx, auth.RoleDoctor, ident.Subject)
	if err != nil {
		return nil, fmt.Errorf("resolve doctor: %w", err)
	}

	rep := &Report{
		ID:            uuid.New(),
		AppointmentID: appt.ID,
		PatientName:   appt.PatientName,
		Age:           appt.Age,
		Diagnosis:     input.Diagnosis,
		Symptoms:      input.Symptoms,
		Items:         input.Items,
		DoctorNotes:   input.DoctorNotes,
		Fee:           input.Fee,
		Category:      input.Category,
		ReportDate:    input.ReportDate,
		DoctorName:    member.Name,
	}

	if err := s.repo.CreateReport(ctx, rep); err != nil {
		if errors.Is(err, ErrReportExists) {
			return s.redriveReport(ctx, appt, ident)
		}
		return nil, err
	}

	s.logEvent(ctx, appt.ID, EventReportCreated, map[string]any{
		"report_id": rep.ID.String(),
		"category":  rep.Category,
		"doctor":    ident.Subject,
	})

	if _, err := s.advance(ctx, appt, ActionReport, ident); err != nil {
		// Report persisted but the appointment never advanced. Surface
		// the failure; a retry or the reconcile worker finishes the job.
		s.logger.Error("report persisted but transition failed",
			zap.String("appointment_id", appt.ID.String()),
			zap.Error(err),
		)
		return nil, fmt.Errorf("report saved but appointment not advanced, retry the operation: %w", err)
	}

	return rep, nil
}

// redriveReport handles the retry of a half-applied CreateReport: the
// report row exists, the appointment is still Approved.
func (s *Service) redriveReport(ctx context.Context, appt *Appointment, ident auth.Identity) (*Report, error) {
	existing, err := s.repo.GetReportByAppointment(ctx, appt.ID)
	if err != nil {
		return nil, err
	}

	if _, err := s.advance(ctx, appt, ActionReport, ident); err != nil {
		return nil, err
	}

	return existing, nil
}

// GetReport enforces the payment gate: patients see their own report only
// once the appointment is Paid, while doctor and scheduler reads are not
// payment-gated since staff originate the data.
func (s *Service) GetReport(ctx context.Context, ident auth.Identity, appointmentID uuid.UUID) (*Report, error) {
	appt, err := s.repo.GetAppointmentByID(ctx, appointmentID)
	if err != nil {
		return nil, err
	}

	switch ident.Role {
	case auth.RolePatient:
		if appt.PatientSubject != ident.Subject {
			return nil, ErrForbidden
		}
		if appt.Status != StatusPaid {
			return nil, ErrPaymentRequired
		}
	case auth.RoleDoctor, auth.RoleScheduler:
		if err := s.requireMember(ctx, ident, ident.Role); err != nil {
			return nil, err
		}
	default:
		return nil, ErrForbidden
	}

	return s.repo.GetReportByAppointment(ctx, appointmentID)
}

// BillingSheet is the receptionist's view of a report: consultation fee
// and prescription lines only, no diagnosis or notes.
type BillingSheet struct {
	Fee   int64
	Items []PrescribedItem
}

// GetBillingSheet returns the data a receptionist needs to price a bill.
// Only available while the appointment is Reported.
func (s *Service) GetBillingSheet(ctx context.Context, ident auth.Identity, appointmentID uuid.UUID) (*BillingSheet, error) {
	if err := s.requireMember(ctx, ident, auth.RoleReceptionist); err != nil {
		return nil, err
	}

	appt, err := s.repo.GetAppointmentByID(ctx, appointmentID)
	if err != nil {
		return nil, err
	}
	if appt.Status != StatusReported {
		return nil, ErrInvalidTransition
	}

	rep, err := s.repo.GetReportByAppointment(ctx, appointmentID)
	if err != nil {
		return nil, err
	}

	return &BillingSheet{Fee: rep.Fee, Items: rep.Items}, nil
}

// ListReportCategories and ListReportsByCategory are scheduler-side read
// projections over the report archive.

func (s *Service) ListReportCategories(ctx context.Context, ident auth.Identity) ([]string, error) {
	if err := s.requireMember(ctx, ident, auth.RoleScheduler); err != nil {
		return nil, err
	}
	return s.repo.ListReportCategories(ctx)
}

func (s *Service) ListReportsByCategory(ctx context.Context, ident auth.Identity, category string) ([]Report, error) {
	if err := s.requireMember(ctx, ident, auth.RoleScheduler); err != nil {
		return nil, err
	}
	return s.repo.ListReportsByCategory(ctx, category)
}
