package models

import "time"

// Member is an admitted community member. InvitedBy records the invite code
// that admitted them; GeneratedInvites lists the codes minted on their behalf
// when they joined.
type Member struct {
	ID               string    `json:"id"`
	Name             string    `json:"name"`
	Email            string    `json:"email"`
	JoinedAt         time.Time `json:"joined_at"`
	InvitedBy        string    `json:"invited_by"`
	GeneratedInvites []string  `json:"generated_invites"`
	IsActive         bool      `json:"is_active"`
}
