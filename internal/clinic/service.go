package clinic

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/clinicware/clinic-appointment-service/internal/auth"
	redisclient "github.com/clinicware/clinic-appointment-service/internal/redis"
	"github.com/clinicware/clinic-appointment-service/internal/staff"
)

const (
	EventAppointmentRequested = "APPOINTMENT_REQUESTED"
	EventAppointmentApproved  = "APPOINTMENT_APPROVED"
	EventAppointmentRejected  = "APPOINTMENT_REJECTED"
	EventAppointmentCancelled = "APPOINTMENT_CANCELLED"
	EventAppointmentReported  = "APPOINTMENT_REPORTED"
	EventAppointmentBilled    = "APPOINTMENT_BILLED"
	EventAppointmentPaid      = "APPOINTMENT_PAID"
	EventAppointmentDeleted   = "APPOINTMENT_DELETED"
	EventReportCreated        = "REPORT_CREATED"
	EventBillCreated          = "BILL_CREATED"
	EventBillSettled          = "BILL_SETTLED"
	EventLifecycleReconciled  = "LIFECYCLE_RECONCILED"
)

var transitionEvents = map[Action]string{
	ActionApprove: EventAppointmentApproved,
	ActionReject:  EventAppointmentRejected,
	ActionCancel:  EventAppointmentCancelled,
	ActionReport:  EventAppointmentReported,
	ActionBill:    EventAppointmentBilled,
	ActionPay:     EventAppointmentPaid,
}

type Service struct {
	repo   Repository
	locker redisclient.Locker
	staff  staff.Directory
	logger *zap.Logger
}

func NewService(repo Repository, locker redisclient.Locker, directory staff.Directory, logger *zap.Logger) *Service {
	return &Service{
		repo:   repo,
		locker: locker,
		staff:  directory,
		logger: logger,
	}
}

// AppointmentDraft is a patient's booking request.
type AppointmentDraft struct {
	PatientName string
	Age         int
	Address     string
	Slot        time.Time
}

func (d AppointmentDraft) validate() error {
	switch {
	case d.PatientName == "":
		return fmt.Errorf("%w: patient name is required", ErrValidation)
	case d.Age <= 0:
		return fmt.Errorf("%w: age must be positive", ErrValidation)
	case d.Address == "":
		return fmt.Errorf("%w: address is required", ErrValidation)
	case d.Slot.IsZero():
		return fmt.Errorf("%w: slot is required", ErrValidation)
	}
	return nil
}

// RequestAppointment books a slot for a patient. The per-slot lock keeps
// concurrent requests for the same slot from both passing the optimistic
// check; the unique index on the slot column is the guard that actually
// decides the race.
func (s *Service) RequestAppointment(ctx context.Context, ident auth.Identity, draft AppointmentDraft) (*Appointment, error) {
	if ident.Role != auth.RolePatient {
		return nil, ErrForbidden
	}
	if err := draft.validate(); err != nil {
		return nil, err
	}

	appt := &Appointment{
		ID:             uuid.New(),
		PatientName:    draft.PatientName,
		Age:            draft.Age,
		Address:        draft.Address,
		Slot:           draft.Slot,
		PatientSubject: ident.Subject,
		Status:         StatusPending,
	}

	err := s.locker.WithSlotLock(ctx, draft.Slot, func(lockCtx context.Context) error {
		existing, err := s.repo.GetAppointmentBySlot(lockCtx, draft.Slot)
		if err != nil && !errors.Is(err, ErrAppointmentNotFound) {
			return fmt.Errorf("check slot: %w", err)
		}
		if existing != nil {
			return ErrSlotTaken
		}

		if err := s.repo.CreateAppointment(lockCtx, appt); err != nil {
			return err
		}

		s.logEvent(lockCtx, appt.ID, EventAppointmentRequested, map[string]any{
			"slot":            appt.Slot,
			"patient_subject": appt.PatientSubject,
		})
		return nil
	})
	if err != nil {
		if errors.Is(err, redisclient.ErrLockNotAcquired) {
			return nil, ErrSlotBusy
		}
		return nil, err
	}

	return appt, nil
}

// GetAppointment returns an appointment to its owner or to staff.
func (s *Service) GetAppointment(ctx context.Context, ident auth.Identity, id uuid.UUID) (*Appointment, error) {
	appt, err := s.repo.GetAppointmentByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if ident.Role == auth.RolePatient {
		if appt.PatientSubject != ident.Subject {
			return nil, ErrForbidden
		}
		return appt, nil
	}
	if err := s.requireStaff(ctx, ident); err != nil {
		return nil, err
	}
	return appt, nil
}

// ListOwnAppointments lists the caller's appointments, optionally
// filtered by status.
func (s *Service) ListOwnAppointments(ctx context.Context, ident auth.Identity, statuses []Status) ([]Appointment, error) {
	if ident.Role != auth.RolePatient {
		return nil, ErrForbidden
	}
	return s.repo.ListAppointmentsBySubject(ctx, ident.Subject, statuses)
}

// ListWorklist lists appointments in the given states for staff queues
// (scheduler: Pending, doctor: Approved, receptionist: Reported/Billed/Paid).
func (s *Service) ListWorklist(ctx context.Context, ident auth.Identity, statuses []Status) ([]Appointment, error) {
	if err := s.requireStaff(ctx, ident); err != nil {
		return nil, err
	}
	return s.repo.ListAppointmentsByStatus(ctx, statuses)
}

// ListPatientAppointments is the scheduler's per-patient oversight view.
func (s *Service) ListPatientAppointments(ctx context.Context, ident auth.Identity, subject string, statuses []Status) ([]Appointment, error) {
	if err := s.requireMember(ctx, ident, auth.RoleScheduler); err != nil {
		return nil, err
	}
	return s.repo.ListAppointmentsBySubject(ctx, subject, statuses)
}

// Decide applies the scheduler's approve or reject decision.
func (s *Service) Decide(ctx context.Context, ident auth.Identity, id uuid.UUID, action Action) (*Appointment, error) {
	if action != ActionApprove && action != ActionReject {
		return nil, fmt.Errorf("%w: action must be approve or reject", ErrValidation)
	}

	appt, err := s.repo.GetAppointmentByID(ctx, id)
	if err != nil {
		return nil, err
	}

	return s.advance(ctx, appt, action, ident)
}

// CancelAppointment is the doctor's no-show path: Approved to Rejected.
func (s *Service) CancelAppointment(ctx context.Context, ident auth.Identity, id uuid.UUID) (*Appointment, error) {
	appt, err := s.repo.GetAppointmentByID(ctx, id)
	if err != nil {
		return nil, err
	}

	return s.advance(ctx, appt, ActionCancel, ident)
}

// DeleteAppointment hard-deletes a patient's own appointment while it is
// still in a pre-clinical state.
func (s *Service) DeleteAppointment(ctx context.Context, ident auth.Identity, id uuid.UUID) error {
	if ident.Role != auth.RolePatient {
		return ErrForbidden
	}

	appt, err := s.repo.GetAppointmentByID(ctx, id)
	if err != nil {
		return err
	}
	if appt.PatientSubject != ident.Subject {
		return ErrForbidden
	}
	if !deletableStatuses[appt.Status] {
		return ErrNotDeletable
	}

	if err := s.repo.DeleteAppointment(ctx, id); err != nil {
		return err
	}

	s.logEvent(ctx, id, EventAppointmentDeleted, map[string]any{
		"slot":   appt.Slot,
		"status": appt.Status,
	})
	return nil
}

// advance is the lifecycle controller: it resolves the action against the
// transition table, authorizes the caller, and applies the transition with
// a compare-and-set on the persisted state.
func (s *Service) advance(ctx context.Context, appt *Appointment, action Action, ident auth.Identity) (*Appointment, error) {
	rule, err := planTransition(appt.Status, action, ident.Role)
	if err != nil {
		return nil, err
	}

	if rule.OwnerOnly {
		if appt.PatientSubject != ident.Subject {
			return nil, ErrForbidden
		}
	} else if err := s.requireMember(ctx, ident, rule.Role); err != nil {
		return nil, err
	}

	updated, err := s.repo.UpdateAppointmentStatus(ctx, appt.ID, appt.Status, rule.To)
	if err != nil {
		if errors.Is(err, ErrAppointmentNotFound) {
			// The CAS missed: either the row is gone or another writer
			// advanced it first.
			if _, getErr := s.repo.GetAppointmentByID(ctx, appt.ID); getErr != nil {
				return nil, getErr
			}
			return nil, ErrInvalidTransition
		}
		return nil, fmt.Errorf("apply transition %s: %w", action, err)
	}

	s.logEvent(ctx, updated.ID, transitionEvents[action], map[string]any{
		"from":    appt.Status,
		"to":      updated.Status,
		"subject": ident.Subject,
		"role":    ident.Role,
	})

	return updated, nil
}

// requireMember verifies the asserted staff role against the directory.
func (s *Service) requireMember(ctx context.Context, ident auth.Identity, role auth.Role) error {
	if ident.Role != role {
		return ErrForbidden
	}
	ok, err := s.staff.IsMember(ctx, role, ident.Subject)
	if err != nil {
		return fmt.Errorf("staff lookup: %w", err)
	}
	if !ok {
		return ErrForbidden
	}
	return nil
}

func (s *Service) requireStaff(ctx context.Context, ident auth.Identity) error {
	if !ident.Role.IsStaff() {
		return ErrForbidden
	}
	return s.requireMember(ctx, ident, ident.Role)
}

func (s *Service) logEvent(ctx context.Context, appointmentID uuid.UUID, eventType string, payload map[string]any) {
	data, err := json.Marshal(payload)
	if err != nil {
		s.logger.Error("marshal event payload", zap.String("event", eventType), zap.Error(err))
		data = nil
	}

	apptID := appointmentID

	ev := EventLog{
		EventType:     eventType,
		AppointmentID: &apptID,
		Payload:       data,
		CreatedAt:     time.Now(),
	}

	if err := s.repo.InsertEvent(ctx, ev); err != nil {
		s.logger.Error("insert event log",
			zap.String("event", eventType),
			zap.String("appointment_id", appointmentID.String()),
			zap.Error(err),
		)
	}
}
