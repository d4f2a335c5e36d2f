package clinic

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clinicware/clinic-appointment-service/internal/auth"
)

var allStatuses = []Status{
	StatusPending, StatusApproved, StatusRejected,
	StatusReported, StatusBilled, StatusPaid,
}

var allActions = []Action{
	ActionApprove, ActionReject, ActionReport,
	ActionCancel, ActionBill, ActionPay,
}

var allRoles = []auth.Role{
	auth.RolePatient, auth.RoleDoctor, auth.RoleReceptionist, auth.RoleScheduler,
}

func TestPlanTransitionAllowedEdges(t *testing.T) {
	cases := []struct {
		from   Status
		action Action
		role   auth.Role
		to     Status
	}{
		{StatusPending, ActionApprove, auth.RoleScheduler, StatusApproved},
		{StatusPending, ActionReject, auth.RoleScheduler, StatusRejected},
		{StatusApproved, ActionReport, auth.RoleDoctor, StatusReported},
		{StatusApproved, ActionCancel, auth.RoleDoctor, StatusRejected},
		{StatusReported, ActionBill, auth.RoleReceptionist, StatusBilled},
		{StatusBilled, ActionPay, auth.RolePatient, StatusPaid},
	}

	for _, tc := range cases {
		rule, err := planTransition(tc.from, tc.action, tc.role)
		require.NoError(t, err, "%s + %s", tc.from, tc.action)
		assert.Equal(t, tc.to, rule.To)
	}
}

// Every (status, action) pair outside the table must fail as an invalid
// transition for every role, including the role that could perform the
// action from the right state.
func TestPlanTransitionRejectsOffTableEdges(t *testing.T) {
	for _, from := range allStatuses {
		for _, action := range allActions {
			if _, ok := transitionTable[from][action]; ok {
				continue
			}
			for _, role := range allRoles {
				_, err := planTransition(from, action, role)
				assert.ErrorIs(t, err, ErrInvalidTransition,
					"%s + %s as %s", from, action, role)
			}
		}
	}
}

// The state check wins over the role check: a doctor reporting on a
// Pending appointment gets an invalid transition, not a forbidden.
func TestPlanTransitionStateCheckedBeforeRole(t *testing.T) {
	_, err := planTransition(StatusPending, ActionReport, auth.RoleDoctor)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	_, err = planTransition(StatusPaid, ActionPay, auth.RolePatient)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestPlanTransitionRoleMismatch(t *testing.T) {
	for _, from := range allStatuses {
		for action, rule := range transitionTable[from] {
			for _, role := range allRoles {
				if role == rule.Role {
					continue
				}
				_, err := planTransition(from, action, role)
				assert.ErrorIs(t, err, ErrForbidden,
					"%s + %s as %s", from, action, role)
			}
		}
	}
}

func TestTerminalStates(t *testing.T) {
	assert.True(t, Terminal(StatusRejected))
	assert.True(t, Terminal(StatusPaid))

	for _, s := range []Status{StatusPending, StatusApproved, StatusReported, StatusBilled} {
		assert.False(t, Terminal(s), "%s", s)
	}
}

func TestParseStatus(t *testing.T) {
	for _, s := range allStatuses {
		parsed, ok := ParseStatus(string(s))
		require.True(t, ok)
		assert.Equal(t, s, parsed)
	}

	_, ok := ParseStatus("pending")
	assert.False(t, ok, "status parsing is case-sensitive")
	_, ok = ParseStatus("Archived")
	assert.False(t, ok)
}
