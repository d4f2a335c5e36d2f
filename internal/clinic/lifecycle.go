package clinic

import (
	"github.com/clinicware/clinic-appointment-service/internal/auth"
)

// Action is a lifecycle intent. Callers only ever submit actions; source
// and target states are resolved against the persisted record, never
// trusted from the request.
type Action string

const (
	ActionApprove Action = "approve"
	ActionReject  Action = "reject"
	ActionReport  Action = "report"
	ActionCancel  Action = "cancel"
	ActionBill    Action = "bill"
	ActionPay     Action = "pay"
)

type transition struct {
	To        Status
	Role      auth.Role
	OwnerOnly bool
}

// transitionTable is the whole state machine. Every mutating operation
// goes through planTransition + a compare-and-set update keyed on the
// source state, so there is exactly one enforcement point.
var transitionTable = map[Status]map[Action]transition{
	StatusPending: {
		ActionApprove: {To: StatusApproved, Role: auth.RoleScheduler},
		ActionReject:  {To: StatusRejected, Role: auth.RoleScheduler},
	},
	StatusApproved: {
		ActionReport: {To: StatusReported, Role: auth.RoleDoctor},
		ActionCancel: {To: StatusRejected, Role: auth.RoleDoctor},
	},
	StatusReported: {
		ActionBill: {To: StatusBilled, Role: auth.RoleReceptionist},
	},
	StatusBilled: {
		ActionPay: {To: StatusPaid, Role: auth.RolePatient, OwnerOnly: true},
	},
}

// planTransition resolves (from, action) against the table. The state
// check runs before the role check: an action that is impossible from the
// current state is an invalid transition no matter who asks.
func planTransition(from Status, action Action, role auth.Role) (transition, error) {
	rule, ok := transitionTable[from][action]
	if !ok {
		return transition{}, ErrInvalidTransition
	}
	if rule.Role != role {
		return transition{}, ErrForbidden
	}
	return rule, nil
}

// Terminal reports whether a status has no outgoing transitions.
func Terminal(s Status) bool {
	return len(transitionTable[s]) == 0
}

func ParseStatus(s string) (Status, bool) {
	switch Status(s) {
	case StatusPending, StatusApproved, StatusRejected, StatusReported, StatusBilled, StatusPaid:
		return Status(s), true
	}
	return "", false
}

// deletableStatuses are the states in which the owning patient may hard
// delete an appointment. Once a report exists the record is part of the
// clinical and financial trail and stays.
var deletableStatuses = map[Status]bool{
	StatusPending:  true,
	StatusApproved: true,
	StatusRejected: true,
}
