package repository

import (
	"context"
	"sync"
	"time"

	"github.com/onefourfourk/community-api/internal/models"
)

// MemoryInviteRepository is a mutex-guarded in-memory ledger. It backs the
// "memory" storage driver for local development and gives the concurrency
// tests a real implementation of the single-use transition to race against.
type MemoryInviteRepository struct {
	mu      sync.RWMutex
	invites map[string]models.Invite
}

func NewMemoryInviteRepository() *MemoryInviteRepository {
	return &MemoryInviteRepository{invites: make(map[string]models.Invite)}
}

func (r *MemoryInviteRepository) Mint(_ context.Context, invite models.Invite) (models.Invite, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.invites[invite.Code]; exists {
		return models.Invite{}, ErrDuplicateCode
	}

	if invite.CreatedAt.IsZero() {
		invite.CreatedAt = time.Now().UTC()
	}
	invite.UsedAt = nil
	invite.UsedBy = nil
	r.invites[invite.Code] = invite
	return invite, nil
}

func (r *MemoryInviteRepository) GetByCode(_ context.Context, code string) (models.Invite, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	invite, ok := r.invites[code]
	if !ok {
		return models.Invite{}, ErrNotFound
	}
	return invite, nil
}

func (r *MemoryInviteRepository) Consume(_ context.Context, code, memberID string) (models.Invite, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	invite, ok := r.invites[code]
	if !ok {
		return models.Invite{}, ErrNotFound
	}
	if invite.IsUsed() {
		return models.Invite{}, ErrInviteUsed
	}

	now := time.Now().UTC()
	invite.UsedAt = &now
	invite.UsedBy = &memberID
	r.invites[code] = invite
	return invite, nil
}

func (r *MemoryInviteRepository) CountUnused(_ context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	count := 0
	for _, invite := range r.invites {
		if !invite.IsUsed() {
			count++
		}
	}
	return count, nil
}

func (r *MemoryInviteRepository) CountTotal(_ context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.invites), nil
}
