package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"
	pkgerrors "github.com/pkg/errors"

	"github.com/onefourfourk/community-api/internal/models"
)

// InviteRepository is the ledger of invite codes. It exclusively owns the
// unused -> used transition; callers never mutate invite fields directly.
type InviteRepository interface {
	// Mint inserts a brand-new unused invite. Returns ErrDuplicateCode if
	// the code already exists.
	Mint(ctx context.Context, invite models.Invite) (models.Invite, error)
	// GetByCode returns the invite or ErrNotFound.
	GetByCode(ctx context.Context, code string) (models.Invite, error)
	// Consume atomically transitions one unused invite to used, stamping
	// the consumption time and consumer. Exactly one caller per code ever
	// succeeds; losers get ErrInviteUsed.
	Consume(ctx context.Context, code, memberID string) (models.Invite, error)
	CountUnused(ctx context.Context) (int, error)
	CountTotal(ctx context.Context) (int, error)
}

type inviteRepository struct {
	db *sql.DB
}

func NewInviteRepository(db *sql.DB) InviteRepository {
	return &inviteRepository{db: db}
}

func (r *inviteRepository) Mint(ctx context.Context, invite models.Invite) (models.Invite, error) {
	const query = `
		INSERT INTO community.invites (code, generated_by)
		VALUES ($1, $2)
		RETURNING code, generated_by, created_at, used_at, used_by;
	`

	err := r.db.QueryRowContext(ctx, query, invite.Code, invite.GeneratedBy).Scan(
		&invite.Code,
		&invite.GeneratedBy,
		&invite.CreatedAt,
		&invite.UsedAt,
		&invite.UsedBy,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return models.Invite{}, ErrDuplicateCode
		}
		return models.Invite{}, pkgerrors.Wrap(err, "mint invite")
	}

	return invite, nil
}

func (r *inviteRepository) GetByCode(ctx context.Context, code string) (models.Invite, error) {
	const query = `
		SELECT code, generated_by, created_at, used_at, used_by
		FROM community.invites
		WHERE code = $1;
	`

	var invite models.Invite
	err := r.db.QueryRowContext(ctx, query, code).Scan(
		&invite.Code,
		&invite.GeneratedBy,
		&invite.CreatedAt,
		&invite.UsedAt,
		&invite.UsedBy,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Invite{}, ErrNotFound
		}
		return models.Invite{}, pkgerrors.Wrap(err, "get invite by code")
	}

	return invite, nil
}

func (r *inviteRepository) Consume(ctx context.Context, code, memberID string) (models.Invite, error) {
	// The used_at IS NULL guard makes the transition a single conditional
	// update; two concurrent consumers of the same code yield exactly one
	// updated row.
	const query = `
		UPDATE community.invites
		SET used_at = now(), used_by = $2
		WHERE code = $1 AND used_at IS NULL
		RETURNING code, generated_by, created_at, used_at, used_by;
	`

	var invite models.Invite
	err := r.db.QueryRowContext(ctx, query, code, memberID).Scan(
		&invite.Code,
		&invite.GeneratedBy,
		&invite.CreatedAt,
		&invite.UsedAt,
		&invite.UsedBy,
	)
	if err == nil {
		return invite, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return models.Invite{}, pkgerrors.Wrap(err, "consume invite")
	}

	// No row transitioned: distinguish an unknown code from a lost race.
	if _, lookupErr := r.GetByCode(ctx, code); lookupErr != nil {
		return models.Invite{}, lookupErr
	}
	return models.Invite{}, ErrInviteUsed
}

func (r *inviteRepository) CountUnused(ctx context.Context) (int, error) {
	const query = `SELECT COUNT(*) FROM community.invites WHERE used_at IS NULL;`

	var count int
	if err := r.db.QueryRowContext(ctx, query).Scan(&count); err != nil {
		return 0, pkgerrors.Wrap(err, "count unused invites")
	}
	return count, nil
}

func (r *inviteRepository) CountTotal(ctx context.Context) (int, error) {
	const query = `SELECT COUNT(*) FROM community.invites;`

	var count int
	if err := r.db.QueryRowContext(ctx, query).Scan(&count); err != nil {
		return 0, pkgerrors.Wrap(err, "count invites")
	}
	return count, nil
}
