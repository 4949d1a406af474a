package domain

import "time"

const (
	GigEventCreated   = "gig.created"
	GigEventSelected  = "gig.selected"
	GigEventCompleted = "gig.completed"
	GigEventCancelled = "gig.cancelled"
)

// GigEvent is published on every lifecycle transition and fanned out to
// realtime subscribers.
type GigEvent struct {
	Type      string    `json:"type"`
	Gig       Gig       `json:"gig"`
	Timestamp time.Time `json:"timestamp"`
}
