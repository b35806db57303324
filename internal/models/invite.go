package models

import "time"

// Invite is a single-use invitation. The code string itself is the primary
// key, so global uniqueness is enforced at the storage layer.
type Invite struct {
	Code        string     `json:"code"`
	GeneratedBy string     `json:"generated_by"`
	CreatedAt   time.Time  `json:"created_at"`
	UsedAt      *time.Time `json:"used_at,omitempty"`
	UsedBy      *string    `json:"used_by,omitempty"`
}

// IsUsed indicates whether the invite has already been consumed.
func (i Invite) IsUsed() bool {
	return i.UsedAt != nil
}
