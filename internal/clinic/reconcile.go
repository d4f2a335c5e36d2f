package clinic

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// Reconcile repairs half-applied two-write operations: a child row
// (report, bill, or settled bill) landed but the appointment's lifecycle
// transition did not. Each repair is the same compare-and-set the original
// operation would have issued, so racing with a live retry is harmless.
// Intended to be called periodically by the reconcile worker.
func (s *Service) Reconcile(ctx context.Context) error {
	passes := []struct {
		name string
		find func(context.Context) ([]Appointment, error)
		from Status
		to   Status
	}{
		{"approved-with-report", s.repo.FindApprovedWithReport, StatusApproved, StatusReported},
		{"reported-with-bill", s.repo.FindReportedWithBill, StatusReported, StatusBilled},
		{"billed-with-settled-bill", s.repo.FindBilledWithSettledBill, StatusBilled, StatusPaid},
	}

	for _, pass := range passes {
		stuck, err := pass.find(ctx)
		if err != nil {
			return fmt.Errorf("reconcile %s: %w", pass.name, err)
		}

		for _, appt := range stuck {
			if _, err := s.repo.UpdateAppointmentStatus(ctx, appt.ID, pass.from, pass.to); err != nil {
				s.logger.Warn("reconcile transition failed",
					zap.String("pass", pass.name),
					zap.String("appointment_id", appt.ID.String()),
					zap.Error(err),
				)
				continue
			}

			s.logger.Info("reconciled stuck appointment",
				zap.String("pass", pass.name),
				zap.String("appointment_id", appt.ID.String()),
				zap.String("from", string(pass.from)),
				zap.String("to", string(pass.to)),
			)
			s.logEvent(ctx, appt.ID, EventLifecycleReconciled, map[string]any{
				"pass": pass.name,
				"from": pass.from,
				"to":   pass.to,
			})
		}
	}

	return nil
}
