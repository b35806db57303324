// Package invitecode produces human-readable invite codes of the form
// CODE-<PREFIX>-<SUFFIX>, a NATO phonetic prefix plus a two-digit suffix.
//
// The keyspace holds 26*50 = 1,300 distinct strings. Against a 144,000
// member target (two codes minted per member) that is far too small, so
// collisions are expected and resolved by bounded retry rather than treated
// as improbable. Widening the format would change every issued code, so the
// undersized keyspace is kept as-is and the generator fails loudly when it
// runs dry.
package invitecode

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"

	"github.com/onefourfourk/community-api/internal/models"
	"github.com/onefourfourk/community-api/internal/repository"
)

// ErrKeyspaceExhausted is returned when no unused code could be found within
// the attempt bound. Surfaced to clients as a generic internal failure.
var ErrKeyspaceExhausted = errors.New("unable to generate unique invite code after maximum attempts")

// maxAttempts bounds the sample-and-check loop so near-exhaustion degrades
// into a fast failure instead of unbounded latency.
const maxAttempts = 100

var codePrefixes = []string{
	"ALPHA", "BRAVO", "CHARLIE", "DELTA", "ECHO", "FOXTROT", "GOLF",
	"HOTEL", "INDIA", "JULIET", "KILO", "LIMA", "MIKE", "NOVEMBER",
	"OSCAR", "PAPA", "QUEBEC", "ROMEO", "SIERRA", "TANGO", "UNIFORM",
	"VICTOR", "WHISKEY", "XRAY", "YANKEE", "ZULU",
}

const suffixCount = 50

// Ledger is the slice of the invite store the generator needs to verify
// candidate uniqueness. The code primary key remains the final backstop.
type Ledger interface {
	GetByCode(ctx context.Context, code string) (models.Invite, error)
}

type Generator struct {
	ledger Ledger
}

func NewGenerator(ledger Ledger) *Generator {
	return &Generator{ledger: ledger}
}

// Random returns one candidate code without any uniqueness guarantee.
func Random() string {
	prefix := codePrefixes[rand.IntN(len(codePrefixes))]
	suffix := rand.IntN(suffixCount) + 1
	return fmt.Sprintf("CODE-%s-%02d", prefix, suffix)
}

// GenerateUnique samples candidates until one is absent from the ledger,
// giving up with ErrKeyspaceExhausted after maxAttempts.
func (g *Generator) GenerateUnique(ctx context.Context) (string, error) {
	for attempt := 0; attempt < maxAttempts; attempt++ {
		code := Random()
		_, err := g.ledger.GetByCode(ctx, code)
		if errors.Is(err, repository.ErrNotFound) {
			return code, nil
		}
		if err != nil {
			return "", err
		}
	}
	return "", ErrKeyspaceExhausted
}

// GenerateBatch returns count unique codes. Registration mints two per new
// member.
func (g *Generator) GenerateBatch(ctx context.Context, count int) ([]string, error) {
	codes := make([]string, 0, count)
	for range count {
		code, err := g.GenerateUnique(ctx)
		if err != nil {
			return nil, err
		}
		codes = append(codes, code)
	}
	return codes, nil
}
