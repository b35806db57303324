package models

import "math"

// CommunityStats is the aggregated community progress snapshot. It is a pure
// projection over the member and invite counts and is never persisted.
type CommunityStats struct {
	TotalMembers       int `json:"total_members"`
	AvailableInvites   int `json:"available_invites"`
	MaxMembers         int `json:"max_members"`
	ProgressPercentage int `json:"progress_percentage"`
	RemainingSlots     int `json:"remaining_slots"`
}

// NewCommunityStats derives the snapshot from the current counts.
func NewCommunityStats(totalMembers, availableInvites, maxMembers int) CommunityStats {
	progress := 0
	if maxMembers > 0 {
		progress = int(math.Round(float64(totalMembers) / float64(maxMembers) * 100))
	}
	return CommunityStats{
		TotalMembers:       totalMembers,
		AvailableInvites:   availableInvites,
		MaxMembers:         maxMembers,
		ProgressPercentage: progress,
		RemainingSlots:     maxMembers - totalMembers,
	}
}
