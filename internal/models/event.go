package models

import "time"

type EventType string

const (
	EventNewMember   EventType = "new-member"
	EventStatsUpdate EventType = "stats-update"
)

// Event is the envelope broadcast to connected community observers.
type Event struct {
	Type    EventType   `json:"type"`
	Payload interface{} `json:"payload"`
}

// MemberJoinedPayload announces a freshly admitted member.
type MemberJoinedPayload struct {
	Message   string        `json:"message"`
	Member    MemberSummary `json:"member"`
	Timestamp time.Time     `json:"timestamp"`
}

// MemberSummary is the observer-facing slice of a member record.
type MemberSummary struct {
	Name     string    `json:"name"`
	Email    string    `json:"email"`
	JoinedAt time.Time `json:"joined_at"`
}
