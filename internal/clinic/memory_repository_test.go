package clinic

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/clinicware/clinic-appointment-service/internal/auth"
	"github.com/clinicware/clinic-appointment-service/internal/notify"
	"github.com/clinicware/clinic-appointment-service/internal/staff"
)

// memRepo implements Repository in memory with the same semantics the
// Postgres schema enforces: slot uniqueness, one report/bill per
// appointment, compare-and-set status updates.
type memRepo struct {
	mu      sync.Mutex
	appts   map[uuid.UUID]*Appointment
	slots   map[int64]uuid.UUID
	reports map[uuid.UUID]*Report
	bills   map[uuid.UUID]*Bill
	events  []EventLog
}

func newMemRepo() *memRepo {
	return &memRepo{
		appts:   make(map[uuid.UUID]*Appointment),
		slots:   make(map[int64]uuid.UUID),
		reports: make(map[uuid.UUID]*Report),
		bills:   make(map[uuid.UUID]*Bill),
	}
}

func (m *memRepo) CreateAppointment(_ context.Context, appt *Appointment) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := appt.Slot.UTC().Unix()
	if _, taken := m.slots[key]; taken {
		return ErrSlotTaken
	}

	stored := *appt
	stored.CreatedAt = time.Now()
	stored.UpdatedAt = stored.CreatedAt
	m.appts[appt.ID] = &stored
	m.slots[key] = appt.ID

	*appt = stored
	return nil
}

func (m *memRepo) GetAppointmentByID(_ context.Context, id uuid.UUID) (*Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	appt, ok := m.appts[id]
	if !ok {
		return nil, ErrAppointmentNotFound
	}
	out := *appt
	return &out, nil
}

func (m *memRepo) GetAppointmentBySlot(_ context.Context, slot time.Time) (*Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id, ok := m.slots[slot.UTC().Unix()]
	if !ok {
		return nil, ErrAppointmentNotFound
	}
	out := *m.appts[id]
	return &out, nil
}

func (m *memRepo) ListAppointmentsBySubject(_ context.Context, subject string, statuses []Status) ([]Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []Appointment
	for _, appt := range m.appts {
		if appt.PatientSubject != subject {
			continue
		}
		if len(statuses) > 0 && !containsStatus(statuses, appt.Status) {
			continue
		}
		out = append(out, *appt)
	}
	return out, nil
}

func (m *memRepo) ListAppointmentsByStatus(_ context.Context, statuses []Status) ([]Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []Appointment
	for _, appt := range m.appts {
		if containsStatus(statuses, appt.Status) {
			out = append(out, *appt)
		}
	}
	return out, nil
}

func (m *memRepo) UpdateAppointmentStatus(_ context.Context, id uuid.UUID, from, to Status) (*Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	appt, ok := m.appts[id]
	if !ok || appt.Status != from {
		return nil, ErrAppointmentNotFound
	}

	appt.Status = to
	appt.UpdatedAt = time.Now()
	out := *appt
	return &out, nil
}

func (m *memRepo) DeleteAppointment(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	appt, ok := m.appts[id]
	if !ok {
		return ErrAppointmentNotFound
	}
	delete(m.slots, appt.Slot.UTC().Unix())
	delete(m.appts, id)
	return nil
}

func (m *memRepo) CreateReport(_ context.Context, rep *Report) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.reports[rep.AppointmentID]; exists {
		return ErrReportExists
	}

	stored := *rep
	stored.CreatedAt = time.Now()
	m.reports[rep.AppointmentID] = &stored

	*rep = stored
	return nil
}

func (m *memRepo) GetReportByAppointment(_ context.Context, appointmentID uuid.UUID) (*Report, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	rep, ok := m.reports[appointmentID]
	if !ok {
		return nil, ErrReportNotFound
	}
	out := *rep
	return &out, nil
}

func (m *memRepo) ListReportCategories(_ context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	seen := make(map[string]bool)
	var out []string
	for _, rep := range m.reports {
		if !seen[rep.Category] {
			seen[rep.Category] = true
			out = append(out, rep.Category)
		}
	}
	return out, nil
}

func (m *memRepo) ListReportsByCategory(_ context.Context, category string) ([]Report, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []Report
	for _, rep := range m.reports {
		if rep.Category == category {
			out = append(out, *rep)
		}
	}
	return out, nil
}

func (m *memRepo) CreateBill(_ context.Context, bill *Bill) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.bills[bill.AppointmentID]; exists {
		return ErrBillExists
	}

	stored := *bill
	stored.CreatedAt = time.Now()
	stored.UpdatedAt = stored.CreatedAt
	m.bills[bill.AppointmentID] = &stored

	*bill = stored
	return nil
}

func (m *memRepo) GetBillByAppointment(_ context.Context, appointmentID uuid.UUID) (*Bill, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	bill, ok := m.bills[appointmentID]
	if !ok {
		return nil, ErrBillNotFound
	}
	out := *bill
	return &out, nil
}

func (m *memRepo) SettleBill(_ context.Context, appointmentID uuid.UUID) (*Bill, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	bill, ok := m.bills[appointmentID]
	if !ok {
		return nil, ErrBillNotFound
	}
	if bill.Status != BillUnpaid {
		return nil, ErrAlreadyPaid
	}

	bill.Status = BillPaid
	bill.UpdatedAt = time.Now()
	out := *bill
	return &out, nil
}

func (m *memRepo) FindApprovedWithReport(_ context.Context) ([]Appointment, error) {
	return m.findStuck(StatusApproved, func(id uuid.UUID) bool {
		_, ok := m.reports[id]
		return ok
	}), nil
}

func (m *memRepo) FindReportedWithBill(_ context.Context) ([]Appointment, error) {
	return m.findStuck(StatusReported, func(id uuid.UUID) bool {
		_, ok := m.bills[id]
		return ok
	}), nil
}

func (m *memRepo) FindBilledWithSettledBill(_ context.Context) ([]Appointment, error) {
	return m.findStuck(StatusBilled, func(id uuid.UUID) bool {
		bill, ok := m.bills[id]
		return ok && bill.Status == BillPaid
	}), nil
}

func (m *memRepo) findStuck(status Status, hasChild func(uuid.UUID) bool) []Appointment {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []Appointment
	for _, appt := range m.appts {
		if appt.Status == status && hasChild(appt.ID) {
			out = append(out, *appt)
		}
	}
	return out
}

func (m *memRepo) InsertEvent(_ context.Context, ev EventLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.events = append(m.events, ev)
	return nil
}

func containsStatus(statuses []Status, s Status) bool {
	for _, candidate := range statuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// noopLocker lets the repository's own uniqueness guard decide races,
// mirroring the unique-index-is-authoritative model.
type noopLocker struct{}

func (noopLocker) WithSlotLock(ctx context.Context, _ time.Time, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// fakeDirectory is a fixed staff roster.
type fakeDirectory struct {
	members map[auth.Role]map[string]staff.Member
}

func newFakeDirectory() *fakeDirectory {
	d := &fakeDirectory{members: make(map[auth.Role]map[string]staff.Member)}
	d.add(auth.RoleDoctor, "drgrey", "Dr. Meredith Grey")
	d.add(auth.RoleReceptionist, "frontdesk", "April Kepner")
	d.add(auth.RoleScheduler, "rostering", "Miranda Bailey")
	return d
}

func (d *fakeDirectory) add(role auth.Role, subject, name string) {
	if d.members[role] == nil {
		d.members[role] = make(map[string]staff.Member)
	}
	d.members[role][subject] = staff.Member{Subject: subject, Role: role, Name: name}
}

func (d *fakeDirectory) IsMember(_ context.Context, role auth.Role, subject string) (bool, error) {
	_, ok := d.members[role][subject]
	return ok, nil
}

func (d *fakeDirectory) GetMember(_ context.Context, role auth.Role, subject string) (*staff.Member, error) {
	m, ok := d.members[role][subject]
	if !ok {
		return nil, staff.ErrMemberNotFound
	}
	return &m, nil
}

func (d *fakeDirectory) ListByRole(_ context.Context, role auth.Role) ([]staff.Member, error) {
	var out []staff.Member
	for _, m := range d.members[role] {
		out = append(out, m)
	}
	return out, nil
}

// fakePublisher records reminders instead of publishing them.
type fakePublisher struct {
	mu        sync.Mutex
	reminders []notify.PaymentReminder
}

func (p *fakePublisher) PublishPaymentReminder(_ context.Context, reminder notify.PaymentReminder) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.reminders = append(p.reminders, reminder)
	return nil
}

// Shared test identities.
var (
	patientIdent      = auth.Identity{Subject: "amy@example.com", Role: auth.RolePatient}
	otherPatientIdent = auth.Identity{Subject: "bob@example.com", Role: auth.RolePatient}
	doctorIdent       = auth.Identity{Subject: "drgrey", Role: auth.RoleDoctor}
	receptionistIdent = auth.Identity{Subject: "frontdesk", Role: auth.RoleReceptionist}
	schedulerIdent    = auth.Identity{Subject: "rostering", Role: auth.RoleScheduler}
)

func newTestService() (*Service, *memRepo) {
	repo := newMemRepo()
	svc := NewService(repo, noopLocker{}, newFakeDirectory(), zap.NewNop())
	return svc, repo
}
