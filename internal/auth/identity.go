package auth

import (
	"context"
	"errors"
)

type Role string

const (
	RolePatient      Role = "patient"
	RoleDoctor       Role = "doctor"
	RoleReceptionist Role = "receptionist"
	RoleScheduler    Role = "scheduler"
)

var ErrUnknownRole = errors.New("unknown role")

// StaffRoles are the roles resolved through the staff directory rather
// than by appointment ownership.
var StaffRoles = []Role{RoleDoctor, RoleReceptionist, RoleScheduler}

func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RolePatient, RoleDoctor, RoleReceptionist, RoleScheduler:
		return Role(s), nil
	}
	return "", ErrUnknownRole
}

func (r Role) IsStaff() bool {
	return r == RoleDoctor || r == RoleReceptionist || r == RoleScheduler
}

// Identity is the verified {subject, role} pair attached to every request.
// Subject is an email for patients and a staff username otherwise.
type Identity struct {
	Subject string
	Role    Role
}

type contextKey string

const identityKey contextKey = "identity"

func WithIdentity(ctx context.Context, ident Identity) context.Context {
	return context.WithValue(ctx, identityKey, ident)
}

func IdentityFromContext(ctx context.Context) (Identity, bool) {
	ident, ok := ctx.Value(identityKey).(Identity)
	return ident, ok
}
