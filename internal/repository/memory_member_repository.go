package repository

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/onefourfourk/community-api/internal/models"
)

// MemoryMemberRepository is the in-memory counterpart of the postgres member
// store. Email uniqueness is enforced under the same lock that inserts, so
// concurrent duplicate registrations still yield exactly one member.
type MemoryMemberRepository struct {
	mu      sync.RWMutex
	members map[string]models.Member
	byEmail map[string]string
}

func NewMemoryMemberRepository() *MemoryMemberRepository {
	return &MemoryMemberRepository{
		members: make(map[string]models.Member),
		byEmail: make(map[string]string),
	}
}

func (r *MemoryMemberRepository) Create(_ context.Context, member models.Member) (models.Member, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	email := strings.ToLower(member.Email)
	if _, exists := r.byEmail[email]; exists {
		return models.Member{}, ErrDuplicateEmail
	}

	if member.ID == "" {
		member.ID = uuid.NewString()
	}
	if member.JoinedAt.IsZero() {
		member.JoinedAt = time.Now().UTC()
	}
	if member.GeneratedInvites == nil {
		member.GeneratedInvites = []string{}
	}

	r.members[member.ID] = member
	r.byEmail[email] = member.ID
	return member, nil
}

func (r *MemoryMemberRepository) GetByEmail(_ context.Context, email string) (models.Member, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byEmail[strings.ToLower(email)]
	if !ok {
		return models.Member{}, ErrNotFound
	}
	return r.members[id], nil
}

func (r *MemoryMemberRepository) SetGeneratedInvites(_ context.Context, memberID string, codes []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	member, ok := r.members[memberID]
	if !ok {
		return ErrNotFound
	}

	member.GeneratedInvites = append([]string(nil), codes...)
	r.members[memberID] = member
	return nil
}

func (r *MemoryMemberRepository) CountActive(_ context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	count := 0
	for _, member := range r.members {
		if member.IsActive {
			count++
		}
	}
	return count, nil
}
