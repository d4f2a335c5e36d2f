package clinic

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const uniqueViolation = "23505"

type PgRepository struct {
	pool *pgxpool.Pool
}

func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

// Helpers

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var a Appointment

	err := row.Scan(
		&a.ID,
		&a.PatientName,
		&a.Age,
		&a.Address,
		&a.Slot,
		&a.PatientSubject,
		&a.Status,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAppointmentNotFound
		}
		return nil, err
	}

	return &a, nil
}

func scanReport(row pgx.Row) (*Report, error) {
	var r Report
	var items []byte

	err := row.Scan(
		&r.ID,
		&r.AppointmentID,
		&r.PatientName,
		&r.Age,
		&r.Diagnosis,
		&r.Symptoms,
		&items,
		&r.DoctorNotes,
		&r.Fee,
		&r.Category,
		&r.ReportDate,
		&r.DoctorName,
		&r.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrReportNotFound
		}
		return nil, err
	}

	if len(items) > 0 {
		if err := json.Unmarshal(items, &r.Items); err != nil {
			return nil, fmt.Errorf("decode report items: %w", err)
		}
	}

	return &r, nil
}

func scanBill(row pgx.Row) (*Bill, error) {
	var b Bill
	var items []byte

	err := row.Scan(
		&b.ID,
		&b.AppointmentID,
		&b.PatientName,
		&b.Address,
		&b.ConsultationFee,
		&items,
		&b.MedicinesTotal,
		&b.TotalAmount,
		&b.Status,
		&b.CreatedAt,
		&b.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrBillNotFound
		}
		return nil, err
	}

	if len(items) > 0 {
		if err := json.Unmarshal(items, &b.Items); err != nil {
			return nil, fmt.Errorf("decode bill items: %w", err)
		}
	}

	return &b, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

const appointmentColumns = `id, patient_name, age, address, slot, patient_subject, status, created_at, updated_at`

// Appointments

func (r *PgRepository) CreateAppointment(ctx context.Context, appt *Appointment) error {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO appointments (id, patient_name, age, address, slot, patient_subject, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, now(), now())
		RETURNING `+appointmentColumns+`
	`, appt.ID, appt.PatientName, appt.Age, appt.Address, appt.Slot, appt.PatientSubject, appt.Status)

	created, err := scanAppointment(row)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrSlotTaken
		}
		return err
	}

	*appt = *created
	return nil
}

func (r *PgRepository) GetAppointmentByID(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE id = $1
	`, id)
	return scanAppointment(row)
}

func (r *PgRepository) GetAppointmentBySlot(ctx context.Context, slot time.Time) (*Appointment, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE slot = $1
	`, slot)
	return scanAppointment(row)
}

func (r *PgRepository) ListAppointmentsBySubject(ctx context.Context, subject string, statuses []Status) ([]Appointment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE patient_subject = $1
		  AND ($2::text[] IS NULL OR status = ANY($2))
		ORDER BY slot
	`, subject, statusArray(statuses))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectAppointments(rows)
}

func (r *PgRepository) ListAppointmentsByStatus(ctx context.Context, statuses []Status) ([]Appointment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE status = ANY($1)
		ORDER BY slot
	`, statusArray(statuses))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectAppointments(rows)
}

func (r *PgRepository) UpdateAppointmentStatus(ctx context.Context, id uuid.UUID, from, to Status) (*Appointment, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE appointments
		SET status = $2,
		    updated_at = now()
		WHERE id = $1
		  AND status = $3
		RETURNING `+appointmentColumns+`
	`, id, to, from)

	return scanAppointment(row)
}

func (r *PgRepository) DeleteAppointment(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `
		DELETE FROM appointments
		WHERE id = $1
	`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrAppointmentNotFound
	}
	return nil
}

func statusArray(statuses []Status) []string {
	if len(statuses) == 0 {
		return nil
	}
	out := make([]string, len(statuses))
	for i, s := range statuses {
		out[i] = string(s)
	}
	return out
}

func collectAppointments(rows pgx.Rows) ([]Appointment, error) {
	var result []Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *a)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

// Reports

const reportColumns = `id, appointment_id, patient_name, age, diagnosis, symptoms, items, doctor_notes, fee, category, report_date, doctor_name, created_at`

func (r *PgRepository) CreateReport(ctx context.Context, rep *Report) error {
	items, err := json.Marshal(rep.Items)
	if err != nil {
		return fmt.Errorf("encode report items: %w", err)
	}

	row := r.pool.QueryRow(ctx, `
		INSERT INTO reports (id, appointment_id, patient_name, age, diagnosis, symptoms, items, doctor_notes, fee, category, report_date, doctor_name, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, now())
		RETURNING `+reportColumns+`
	`, rep.ID, rep.AppointmentID, rep.PatientName, rep.Age, rep.Diagnosis, rep.Symptoms,
		items, rep.DoctorNotes, rep.Fee, rep.Category, rep.ReportDate, rep.DoctorName)

	created, err := scanReport(row)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrReportExists
		}
		return err
	}

	*rep = *created
	return nil
}

func (r *PgRepository) GetReportByAppointment(ctx context.Context, appointmentID uuid.UUID) (*Report, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+reportColumns+`
		FROM reports
		WHERE appointment_id = $1
	`, appointmentID)
	return scanReport(row)
}

func (r *PgRepository) ListReportCategories(ctx context.Context) ([]string, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT DISTINCT category
		FROM reports
		ORDER BY category
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []string
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, err
		}
		result = append(result, c)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

func (r *PgRepository) ListReportsByCategory(ctx context.Context, category string) ([]Report, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+reportColumns+`
		FROM reports
		WHERE category = $1
		ORDER BY report_date DESC
	`, category)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Report
	for rows.Next() {
		rep, err := scanReport(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *rep)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

// Bills

const billColumns = `id, appointment_id, patient_name, address, consultation_fee, items, medicines_total, total_amount, status, created_at, updated_at`

func (r *PgRepository) CreateBill(ctx context.Context, bill *Bill) error {
	items, err := json.Marshal(bill.Items)
	if err != nil {
		return fmt.Errorf("encode bill items: %w", err)
	}

	row := r.pool.QueryRow(ctx, `
		INSERT INTO bills (id, appointment_id, patient_name, address, consultation_fee, items, medicines_total, total_amount, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, now(), now())
		RETURNING `+billColumns+`
	`, bill.ID, bill.AppointmentID, bill.PatientName, bill.Address, bill.ConsultationFee,
		items, bill.MedicinesTotal, bill.TotalAmount, bill.Status)

	created, err := scanBill(row)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrBillExists
		}
		return err
	}

	*bill = *created
	return nil
}

func (r *PgRepository) GetBillByAppointment(ctx context.Context, appointmentID uuid.UUID) (*Bill, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+billColumns+`
		FROM bills
		WHERE appointment_id = $1
	`, appointmentID)
	return scanBill(row)
}

func (r *PgRepository) SettleBill(ctx context.Context, appointmentID uuid.UUID) (*Bill, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE bills
		SET status = 'Paid',
		    updated_at = now()
		WHERE appointment_id = $1
		  AND status = 'Unpaid'
		RETURNING `+billColumns+`
	`, appointmentID)

	bill, err := scanBill(row)
	if err != nil {
		if errors.Is(err, ErrBillNotFound) {
			// Distinguish a missing bill from one settled earlier.
			if _, getErr := r.GetBillByAppointment(ctx, appointmentID); getErr == nil {
				return nil, ErrAlreadyPaid
			}
			return nil, ErrBillNotFound
		}
		return nil, err
	}

	return bill, nil
}

// Reconciliation queries: child row exists but the parent appointment
// never advanced.

func (r *PgRepository) FindApprovedWithReport(ctx context.Context) ([]Appointment, error) {
	return r.findStuck(ctx, `
		SELECT `+prefixed(appointmentColumns, "a.")+`
		FROM appointments a
		JOIN reports rep ON rep.appointment_id = a.id
		WHERE a.status = 'Approved'
	`)
}

func (r *PgRepository) FindReportedWithBill(ctx context.Context) ([]Appointment, error) {
	return r.findStuck(ctx, `
		SELECT `+prefixed(appointmentColumns, "a.")+`
		FROM appointments a
		JOIN bills b ON b.appointment_id = a.id
		WHERE a.status = 'Reported'
	`)
}

func (r *PgRepository) FindBilledWithSettledBill(ctx context.Context) ([]Appointment, error) {
	return r.findStuck(ctx, `
		SELECT `+prefixed(appointmentColumns, "a.")+`
		FROM appointments a
		JOIN bills b ON b.appointment_id = a.id
		WHERE a.status = 'Billed'
		  AND b.status = 'Paid'
	`)
}

func (r *PgRepository) findStuck(ctx context.Context, query string) ([]Appointment, error) {
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectAppointments(rows)
}

func prefixed(columns, prefix string) string {
	cols := strings.Split(columns, ", ")
	for i, c := range cols {
		cols[i] = prefix + c
	}
	return strings.Join(cols, ", ")
}

// Audit

func (r *PgRepository) InsertEvent(ctx context.Context, ev EventLog) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO event_logs (event_type, appointment_id, payload, created_at)
		VALUES ($1, $2, $3, COALESCE($4, now()))
	`, ev.EventType, ev.AppointmentID, ev.Payload, nullableTime(ev.CreatedAt))
	if err != nil {
		return fmt.Errorf("insert event log: %w", err)
	}

	return nil
}

func nullableTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
