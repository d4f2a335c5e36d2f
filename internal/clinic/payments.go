package clinic

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/clinicware/clinic-appointment-service/internal/auth"
	"github.com/clinicware/clinic-appointment-service/internal/notify"
)

// PayBill settles the bill for an appointment and advances it to Paid.
// The settle is a compare-and-set on the bill status, so a second call
// fails with AlreadyPaid instead of double-processing.
func (s *Service) PayBill(ctx context.Context, ident auth.Identity, appointmentID uuid.UUID) (*Bill, error) {
	if ident.Role != auth.RolePatient {
		return nil, ErrForbidden
	}

	appt, err := s.repo.GetAppointmentByID(ctx, appointmentID)
	if err != nil {
		return nil, err
	}
	if appt.PatientSubject != ident.Subject {
		return nil, ErrForbidden
	}

	bill, err := s.repo.SettleBill(ctx, appointmentID)
	if err != nil {
		if errors.Is(err, ErrAlreadyPaid) && appt.Status == StatusBilled {
			// An earlier attempt settled the bill but never advanced the
			// appointment; finish that before reporting the duplicate.
			if _, advErr := s.advance(ctx, appt, ActionPay, ident); advErr != nil {
				s.logger.Error("paid bill re-drive failed",
					zap.String("appointment_id", appointmentID.String()),
					zap.Error(advErr),
				)
			}
		}
		return nil, err
	}

	s.logEvent(ctx, appt.ID, EventBillSettled, map[string]any{
		"bill_id":      bill.ID.String(),
		"total_amount": bill.TotalAmount,
	})

	if _, err := s.advance(ctx, appt, ActionPay, ident); err != nil {
		s.logger.Error("bill settled but transition failed",
			zap.String("appointment_id", appt.ID.String()),
			zap.Error(err),
		)
		return nil, fmt.Errorf("payment recorded but appointment not advanced, retry the operation: %w", err)
	}

	return bill, nil
}

// reminderStatuses are the states a payment reminder makes sense in.
var reminderStatuses = map[Status]bool{
	StatusReported: true,
	StatusBilled:   true,
}

// SendPaymentReminder publishes a fire-and-forget reminder for the
// notification relay to deliver.
func (s *Service) SendPaymentReminder(ctx context.Context, ident auth.Identity, appointmentID uuid.UUID, publisher notify.Publisher) error {
	if err := s.requireMember(ctx, ident, auth.RoleReceptionist); err != nil {
		return err
	}

	appt, err := s.repo.GetAppointmentByID(ctx, appointmentID)
	if err != nil {
		return err
	}
	if !reminderStatuses[appt.Status] {
		return ErrInvalidTransition
	}

	reminder := notify.PaymentReminder{
		AppointmentID:  appt.ID.String(),
		PatientSubject: appt.PatientSubject,
		PatientName:    appt.PatientName,
		SentAt:         time.Now(),
	}
	if bill, err := s.repo.GetBillByAppointment(ctx, appointmentID); err == nil {
		reminder.TotalAmount = bill.TotalAmount
	}

	return publisher.PublishPaymentReminder(ctx, reminder)
}
