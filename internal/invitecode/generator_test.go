package invitecode

import (
	"context"
	"fmt"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/onefourfourk/community-api/internal/models"
	"github.com/onefourfourk/community-api/internal/repository"
)

var codePattern = regexp.MustCompile(`^CODE-[A-Z]+-(0[1-9]|[1-4][0-9]|50)$`)

func TestRandomFormat(t *testing.T) {
	for range 200 {
		code := Random()
		assert.Regexp(t, codePattern, code)
	}
}

func TestGenerateUniqueSkipsExistingCodes(t *testing.T) {
	ctx := context.Background()
	ledger := repository.NewMemoryInviteRepository()
	gen := NewGenerator(ledger)

	code, err := gen.GenerateUnique(ctx)
	require.NoError(t, err)

	_, err = ledger.Mint(ctx, models.Invite{Code: code, GeneratedBy: "founder"})
	require.NoError(t, err)

	for range 50 {
		next, err := gen.GenerateUnique(ctx)
		require.NoError(t, err)
		assert.NotEqual(t, code, next, "generator returned a code already in the ledger")
		_, err = ledger.GetByCode(ctx, next)
		assert.ErrorIs(t, err, repository.ErrNotFound)
	}
}

func TestGenerateUniqueExhaustedKeyspace(t *testing.T) {
	ctx := context.Background()
	ledger := repository.NewMemoryInviteRepository()
	gen := NewGenerator(ledger)

	// Fill the entire 1,300-string keyspace.
	for _, prefix := range codePrefixes {
		for suffix := 1; suffix <= suffixCount; suffix++ {
			code := fmt.Sprintf("CODE-%s-%02d", prefix, suffix)
			_, err := ledger.Mint(ctx, models.Invite{Code: code, GeneratedBy: "founder"})
			require.NoError(t, err)
		}
	}

	_, err := gen.GenerateUnique(ctx)
	assert.ErrorIs(t, err, ErrKeyspaceExhausted)
}

func TestGenerateBatchMintedSeparately(t *testing.T) {
	ctx := context.Background()
	ledger := repository.NewMemoryInviteRepository()
	gen := NewGenerator(ledger)

	codes, err := gen.GenerateBatch(ctx, 2)
	require.NoError(t, err)
	require.Len(t, codes, 2)
	for _, code := range codes {
		assert.Regexp(t, codePattern, code)
	}
}
