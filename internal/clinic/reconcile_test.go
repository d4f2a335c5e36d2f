package clinic

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReconcileRepairsStuckStates(t *testing.T) {
	svc, repo := newTestService()
	ctx := context.Background()

	// Approved appointment whose report landed without the transition.
	withReport := seedAppointment(t, repo, patientIdent.Subject, StatusApproved)
	require.NoError(t, repo.CreateReport(ctx, &Report{
		ID:            uuid.New(),
		AppointmentID: withReport.ID,
		PatientName:   withReport.PatientName,
		Age:           withReport.Age,
		Diagnosis:     "Migraine",
		Fee:           500,
		Category:      "Neurology",
		ReportDate:    time.Now(),
		DoctorName:    "Dr. Meredith Grey",
	}))

	// Reported appointment whose bill landed without the transition.
	withBill := seedAppointment(t, repo, patientIdent.Subject, StatusReported)
	require.NoError(t, repo.CreateBill(ctx, &Bill{
		ID:            uuid.New(),
		AppointmentID: withBill.ID,
		PatientName:   withBill.PatientName,
		Address:       withBill.Address,
		TotalAmount:   500,
		Status:        BillUnpaid,
	}))

	// Billed appointment whose bill was settled without the transition.
	withPayment := seedAppointment(t, repo, patientIdent.Subject, StatusBilled)
	require.NoError(t, repo.CreateBill(ctx, &Bill{
		ID:            uuid.New(),
		AppointmentID: withPayment.ID,
		PatientName:   withPayment.PatientName,
		Address:       withPayment.Address,
		TotalAmount:   500,
		Status:        BillUnpaid,
	}))
	_, err := repo.SettleBill(ctx, withPayment.ID)
	require.NoError(t, err)

	// Healthy appointments stay where they are.
	healthy := seedAppointment(t, repo, patientIdent.Subject, StatusApproved)

	require.NoError(t, svc.Reconcile(ctx))

	expect := map[uuid.UUID]Status{
		withReport.ID:  StatusReported,
		withBill.ID:    StatusBilled,
		withPayment.ID: StatusPaid,
		healthy.ID:     StatusApproved,
	}
	for id, want := range expect {
		appt, err := repo.GetAppointmentByID(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, want, appt.Status, "%s", id)
	}
}

func TestReconcileIsIdempotent(t *testing.T) {
	svc, repo := newTestService()
	ctx := context.Background()

	appt := seedAppointment(t, repo, patientIdent.Subject, StatusApproved)
	require.NoError(t, repo.CreateReport(ctx, &Report{
		ID:            uuid.New(),
		AppointmentID: appt.ID,
		PatientName:   appt.PatientName,
		Age:           appt.Age,
		Diagnosis:     "Migraine",
		Fee:           500,
		Category:      "Neurology",
		ReportDate:    time.Now(),
		DoctorName:    "Dr. Meredith Grey",
	}))

	require.NoError(t, svc.Reconcile(ctx))
	require.NoError(t, svc.Reconcile(ctx))

	current, err := repo.GetAppointmentByID(ctx, appt.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusReported, current.Status)
}

func TestReconcileNoopOnEmptyStore(t *testing.T) {
	svc, _ := newTestService()
	assert.NoError(t, svc.Reconcile(context.Background()))
}
