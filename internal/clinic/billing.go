package clinic

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/clinicware/clinic-appointment-service/internal/auth"
)

// PriceItems derives bill lines from a report's prescription and a price
// list. Matching is exact and case-sensitive; an unmatched item is billed
// at zero so a receptionist can price incrementally, and repeated item
// names are priced per occurrence, not merged.
func PriceItems(prescribed []PrescribedItem, prices []PricedItem) ([]BillItem, int64) {
	priceByName := make(map[string]int64, len(prices))
	for _, p := range prices {
		if _, ok := priceByName[p.Name]; !ok {
			priceByName[p.Name] = p.Price
		}
	}

	items := make([]BillItem, 0, len(prescribed))
	var total int64
	for _, item := range prescribed {
		price := priceByName[item.Name]
		items = append(items, BillItem{Name: item.Name, Price: price})
		total += price
	}

	return items, total
}

// CreateBill derives a bill from the appointment's report and the
// receptionist's price list, then advances the appointment to Billed.
// Same two-write shape as CreateReport, with the same retry behaviour.
func (s *Service) CreateBill(ctx context.Context, ident auth.Identity, appointmentID uuid.UUID, prices []PricedItem) (*Bill, error) {
	appt, err := s.repo.GetAppointmentByID(ctx, appointmentID)
	if err != nil {
		return nil, err
	}

	if _, err := planTransition(appt.Status, ActionBill, ident.Role); err != nil {
		return nil, err
	}
	if err := s.requireMember(ctx, ident, auth.RoleReceptionist); err != nil {
		return nil, err
	}

	rep, err := s.repo.GetReportByAppointment(ctx, appointmentID)
	if err != nil {
		return nil, err
	}

	items, medicinesTotal := PriceItems(rep.Items, prices)

	bill := &Bill{
		ID:              uuid.New(),
		AppointmentID:   appt.ID,
		PatientName:     appt.PatientName,
		Address:         appt.Address,
		ConsultationFee: rep.Fee,
		Items:           items,
		MedicinesTotal:  medicinesTotal,
		TotalAmount:     rep.Fee + medicinesTotal,
		Status:          BillUnpaid,
	}

	if err := s.repo.CreateBill(ctx, bill); err != nil {
		if errors.Is(err, ErrBillExists) {
			return s.redriveBill(ctx, appt, ident)
		}
		return nil, err
	}

	s.logEvent(ctx, appt.ID, EventBillCreated, map[string]any{
		"bill_id":      bill.ID.String(),
		"total_amount": bill.TotalAmount,
		"receptionist": ident.Subject,
	})

	if _, err := s.advance(ctx, appt, ActionBill, ident); err != nil {
		s.logger.Error("bill persisted but transition failed",
			zap.String("appointment_id", appt.ID.String()),
			zap.Error(err),
		)
		return nil, fmt.Errorf("bill saved but appointment not advanced, retry the operation: %w", err)
	}

	return bill, nil
}

// redriveBill completes a half-applied CreateBill: the bill row exists,
// the appointment is still Reported.
func (s *Service) redriveBill(ctx context.Context, appt *Appointment, ident auth.Identity) (*Bill, error) {
	existing, err := s.repo.GetBillByAppointment(ctx, appt.ID)
	if err != nil {
		return nil, err
	}

	if _, err := s.advance(ctx, appt, ActionBill, ident); err != nil {
		return nil, err
	}

	return existing, nil
}

// GetBill returns a bill to the owning patient or to the receptionist.
func (s *Service) GetBill(ctx context.Context, ident auth.Identity, appointmentID uuid.UUID) (*Bill, error) {
	appt, err := s.repo.GetAppointmentByID(ctx, appointmentID)
	if err != nil {
		return nil, err
	}

	switch ident.Role {
	case auth.RolePatient:
		if appt.PatientSubject != ident.Subject {
			return nil, ErrForbidden
		}
	case auth.RoleReceptionist:
		if err := s.requireMember(ctx, ident, auth.RoleReceptionist); err != nil {
			return nil, err
		}
	default:
		return nil, ErrForbidden
	}

	return s.repo.GetBillByAppointment(ctx, appointmentID)
}
