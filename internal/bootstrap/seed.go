// Package bootstrap seeds an empty community with its founder and the first
// two invite codes, so the invitation tree has a root to grow from.
package bootstrap

import (
	"context"

	pkgerrors "github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/onefourfourk/community-api/internal/invitecode"
	"github.com/onefourfourk/community-api/internal/models"
	"github.com/onefourfourk/community-api/internal/repository"
)

// FounderCode marks the founder's invited_by field. It never exists in the
// ledger; the founder is the only member admitted without consuming a code.
const FounderCode = "FOUNDER-CODE"

type Seeder struct {
	members   repository.MemberRepository
	invites   repository.InviteRepository
	generator *invitecode.Generator
	logger    zerolog.Logger
}

func NewSeeder(
	members repository.MemberRepository,
	invites repository.InviteRepository,
	generator *invitecode.Generator,
	logger zerolog.Logger,
) *Seeder {
	return &Seeder{
		members:   members,
		invites:   invites,
		generator: generator,
		logger:    logger.With().Str("component", "bootstrap").Logger(),
	}
}

// Run creates the founder and two initial invites when no members exist yet.
// Re-running against a populated store is a no-op.
func (s *Seeder) Run(ctx context.Context, founderName, founderEmail string) error {
	existing, err := s.members.CountActive(ctx)
	if err != nil {
		return pkgerrors.Wrap(err, "count members")
	}
	if existing > 0 {
		s.logger.Info().Int("members", existing).Msg("community already initialized")
		return nil
	}

	founder, err := s.members.Create(ctx, models.Member{
		Name:      founderName,
		Email:     founderEmail,
		InvitedBy: FounderCode,
		IsActive:  true,
	})
	if err != nil {
		return pkgerrors.Wrap(err, "create founder")
	}

	codes := make([]string, 0, 2)
	for len(codes) < 2 {
		code, err := s.generator.GenerateUnique(ctx)
		if err != nil {
			return pkgerrors.Wrap(err, "generate initial invite")
		}
		if _, err := s.invites.Mint(ctx, models.Invite{Code: code, GeneratedBy: founder.ID}); err != nil {
			return pkgerrors.Wrap(err, "mint initial invite")
		}
		codes = append(codes, code)
	}

	if err := s.members.SetGeneratedInvites(ctx, founder.ID, codes); err != nil {
		return pkgerrors.Wrap(err, "record founder invites")
	}

	s.logger.Info().
		Str("founder_email", founder.Email).
		Strs("invite_codes", codes).
		Msg("community initialized")
	return nil
}
