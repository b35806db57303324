// Package events fans community state changes out to connected observers.
// Delivery is best-effort and fire-and-forget: a broadcast never blocks or
// fails the registration that triggered it, and observers joining later do
// not receive history.
package events

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/onefourfourk/community-api/internal/models"
)

// Notifier delivers one event over a single channel (websocket, log, ...).
type Notifier interface {
	Notify(ctx context.Context, event models.Event) error
}

// Announcer fans each event out to all registered notifiers. Delivery errors
// are logged and swallowed; publishing is not part of the registration
// contract.
type Announcer struct {
	notifiers []Notifier
	logger    zerolog.Logger
}

func NewAnnouncer(logger zerolog.Logger, notifiers ...Notifier) *Announcer {
	active := make([]Notifier, 0, len(notifiers))
	for _, notifier := range notifiers {
		if notifier != nil {
			active = append(active, notifier)
		}
	}
	return &Announcer{
		notifiers: active,
		logger:    logger.With().Str("component", "announcer").Logger(),
	}
}

// MemberJoined announces a freshly admitted member to the community.
func (a *Announcer) MemberJoined(ctx context.Context, member models.MemberSummary) {
	a.publish(ctx, models.Event{
		Type: models.EventNewMember,
		Payload: models.MemberJoinedPayload{
			Message:   fmt.Sprintf("Welcome %s to the 144K community!", member.Name),
			Member:    member,
			Timestamp: time.Now().UTC(),
		},
	})
}

// StatsChanged broadcasts a refreshed community snapshot.
func (a *Announcer) StatsChanged(ctx context.Context, stats models.CommunityStats) {
	a.publish(ctx, models.Event{
		Type:    models.EventStatsUpdate,
		Payload: stats,
	})
}

func (a *Announcer) publish(ctx context.Context, event models.Event) {
	for _, notifier := range a.notifiers {
		if err := notifier.Notify(ctx, event); err != nil {
			a.logger.Warn().
				Err(err).
				Str("event_type", string(event.Type)).
				Msg("failed to deliver event")
		}
	}
}
