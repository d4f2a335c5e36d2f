package staff

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clinicware/clinic-appointment-service/internal/auth"
)

var ErrMemberNotFound = errors.New("staff member not found")

// Member is one row of the staff directory.
type Member struct {
	Subject string
	Role    auth.Role
	Name    string
}

// Directory answers whether a subject holds a staff role. Transitions
// gated on a staff role check membership here instead of comparing
// against a fixed identity.
type Directory interface {
	IsMember(ctx context.Context, role auth.Role, subject string) (bool, error)
	GetMember(ctx context.Context, role auth.Role, subject string) (*Member, error)
	ListByRole(ctx context.Context, role auth.Role) ([]Member, error)
}

type PgDirectory struct {
	pool *pgxpool.Pool
}

func NewPgDirectory(pool *pgxpool.Pool) *PgDirectory {
	return &PgDirectory{pool: pool}
}

func (d *PgDirectory) IsMember(ctx context.Context, role auth.Role, subject string) (bool, error) {
	var exists bool
	err := d.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM staff_members
			WHERE role = $1 AND subject = $2
		)
	`, string(role), subject).Scan(&exists)
	if err != nil {
		return false, err
	}
	return exists, nil
}

func (d *PgDirectory) GetMember(ctx context.Context, role auth.Role, subject string) (*Member, error) {
	var m Member
	var role_ string
	err := d.pool.QueryRow(ctx, `
		SELECT subject, role, name
		FROM staff_members
		WHERE role = $1 AND subject = $2
	`, string(role), subject).Scan(&m.Subject, &role_, &m.Name)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrMemberNotFound
		}
		return nil, err
	}
	m.Role = auth.Role(role_)
	return &m, nil
}

func (d *PgDirectory) ListByRole(ctx context.Context, role auth.Role) ([]Member, error) {
	rows, err := d.pool.Query(ctx, `
		SELECT subject, role, name
		FROM staff_members
		WHERE role = $1
		ORDER BY name
	`, string(role))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Member
	for rows.Next() {
		var m Member
		var role_ string
		if err := rows.Scan(&m.Subject, &role_, &m.Name); err != nil {
			return nil, err
		}
		m.Role = auth.Role(role_)
		result = append(result, m)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}
