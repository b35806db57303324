package capacity

import (
	"context"
	"database/sql"
	"errors"

	pkgerrors "github.com/pkg/errors"
)

// PostgresGate keeps the admitted count in a single-row table and claims
// slots with a conditional UPDATE, the same idiom the invite ledger uses for
// its single-use transition.
type PostgresGate struct {
	db  *sql.DB
	max int
}

func NewPostgresGate(db *sql.DB, maxMembers int) *PostgresGate {
	return &PostgresGate{db: db, max: maxMembers}
}

func (g *PostgresGate) TryReserveSlot(ctx context.Context) (bool, int, error) {
	const claim = `
		UPDATE community.capacity_gate
		SET admitted = admitted + 1
		WHERE id = 1 AND admitted < $1
		RETURNING admitted;
	`

	var admitted int
	err := g.db.QueryRowContext(ctx, claim, g.max).Scan(&admitted)
	if err == nil {
		return true, admitted, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return false, 0, pkgerrors.Wrap(err, "reserve slot")
	}

	// No row updated means the ceiling is reached; report the count that
	// refused us.
	const read = `SELECT admitted FROM community.capacity_gate WHERE id = 1;`
	if err := g.db.QueryRowContext(ctx, read).Scan(&admitted); err != nil {
		return false, 0, pkgerrors.Wrap(err, "read admitted count")
	}
	return false, admitted, nil
}

func (g *PostgresGate) ReleaseSlot(ctx context.Context) error {
	const query = `
		UPDATE community.capacity_gate
		SET admitted = admitted - 1
		WHERE id = 1 AND admitted > 0;
	`

	if _, err := g.db.ExecContext(ctx, query); err != nil {
		return pkgerrors.Wrap(err, "release slot")
	}
	return nil
}

func (g *PostgresGate) CurrentCount(ctx context.Context) (int, error) {
	const query = `SELECT COUNT(*) FROM community.members WHERE is_active;`

	var count int
	if err := g.db.QueryRowContext(ctx, query).Scan(&count); err != nil {
		return 0, pkgerrors.Wrap(err, "count active members")
	}
	return count, nil
}

// Sync resets the counter to the active-member count so the gate can never
// drift from the members table across restarts.
func (g *PostgresGate) Sync(ctx context.Context) error {
	const query = `
		UPDATE community.capacity_gate
		SET admitted = (SELECT COUNT(*) FROM community.members WHERE is_active)
		WHERE id = 1;
	`

	if _, err := g.db.ExecContext(ctx, query); err != nil {
		return pkgerrors.Wrap(err, "sync capacity gate")
	}
	return nil
}
