// Package notification defines the event contract between services and
// whatever delivery transport is wired in (the websocket hub in
// production, a no-op or recorder in tests).
package notification

import "time"

// Event kinds pushed to clients.
const (
	EventWalletUpdated      = "walletUpdated"
	EventSubmissionCreated  = "submissionCreated"
	EventSubmissionReviewed = "submissionReviewed"
	EventTaskReviewed       = "taskReviewed"
	EventWithdrawalDone     = "withdrawalProcessed"
	EventLeaderboardUpdated = "leaderboardUpdated"
)

// Event is a single user-facing notification.
type Event struct {
	Type      string                 `json:"type"`
	Message   string                 `json:"message"`
	Data      map[string]interface{} `json:"data,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

// Notifier pushes events to connected clients. Implementations must not
// block; delivery is best-effort.
type Notifier interface {
	NotifyUser(userID uint, event Event)
	Broadcast(event Event)
}

// Noop drops all events.
type Noop struct{}

func (Noop) NotifyUser(userID uint, event Event) {}
func (Noop) Broadcast(event Event)               {}

// NewEvent stamps an event with the current time.
func NewEvent(eventType, message string, data map[string]interface{}) Event {
	return Event{
		Type:      eventType,
		Message:   message,
		Data:      data,
		Timestamp: time.Now(),
	}
}
