package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/lib/pq"
	pkgerrors "github.com/pkg/errors"

	"github.com/onefourfourk/community-api/internal/models"
)

// MemberRepository persists community members. The email uniqueness
// constraint lives in the database, not here.
type MemberRepository interface {
	// Create inserts a new member. Returns ErrDuplicateEmail if the email
	// address is already registered.
	Create(ctx context.Context, member models.Member) (models.Member, error)
	// GetByEmail returns the member or ErrNotFound.
	GetByEmail(ctx context.Context, email string) (models.Member, error)
	// SetGeneratedInvites records the codes minted for a member.
	SetGeneratedInvites(ctx context.Context, memberID string, codes []string) error
	// CountActive returns the number of active members.
	CountActive(ctx context.Context) (int, error)
}

type memberRepository struct {
	db *sql.DB
}

func NewMemberRepository(db *sql.DB) MemberRepository {
	return &memberRepository{db: db}
}

func (r *memberRepository) Create(ctx context.Context, member models.Member) (models.Member, error) {
	const query = `
		INSERT INTO community.members (id, name, email, invited_by, is_active)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, name, email, joined_at, invited_by, generated_invites, is_active;
	`

	if member.ID == "" {
		member.ID = uuid.NewString()
	}

	var codes pq.StringArray
	err := r.db.QueryRowContext(ctx, query,
		member.ID,
		member.Name,
		member.Email,
		member.InvitedBy,
		member.IsActive,
	).Scan(
		&member.ID,
		&member.Name,
		&member.Email,
		&member.JoinedAt,
		&member.InvitedBy,
		&codes,
		&member.IsActive,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return models.Member{}, ErrDuplicateEmail
		}
		return models.Member{}, pkgerrors.Wrap(err, "create member")
	}

	member.GeneratedInvites = codes
	return member, nil
}

func (r *memberRepository) GetByEmail(ctx context.Context, email string) (models.Member, error) {
	const query = `
		SELECT id, name, email, joined_at, invited_by, generated_invites, is_active
		FROM community.members
		WHERE email = $1;
	`

	var (
		member models.Member
		codes  pq.StringArray
	)
	err := r.db.QueryRowContext(ctx, query, email).Scan(
		&member.ID,
		&member.Name,
		&member.Email,
		&member.JoinedAt,
		&member.InvitedBy,
		&codes,
		&member.IsActive,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Member{}, ErrNotFound
		}
		return models.Member{}, pkgerrors.Wrap(err, "get member by email")
	}

	member.GeneratedInvites = codes
	return member, nil
}

func (r *memberRepository) SetGeneratedInvites(ctx context.Context, memberID string, codes []string) error {
	const query = `
		UPDATE community.members
		SET generated_invites = $2
		WHERE id = $1;
	`

	result, err := r.db.ExecContext(ctx, query, memberID, pq.Array(codes))
	if err != nil {
		return pkgerrors.Wrap(err, "set generated invites")
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return pkgerrors.Wrap(err, "set generated invites: rows affected")
	}
	if affected == 0 {
		return ErrNotFound
	}

	return nil
}

func (r *memberRepository) CountActive(ctx context.Context) (int, error) {
	const query = `SELECT COUNT(*) FROM community.members WHERE is_active;`

	var count int
	if err := r.db.QueryRowContext(ctx, query).Scan(&count); err != nil {
		return 0, pkgerrors.Wrap(err, "count active members")
	}
	return count, nil
}
