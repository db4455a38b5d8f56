package services

// Realtime event types.
const (
	EventEntryCreated = "entry_created"
	EventBadgeEarned  = "badge_earned"
)

// Notifier pushes change events to a user's live connections.
type Notifier interface {
	Notify(userID uint, eventType string, payload interface{})
}

// NopNotifier drops every event.
type NopNotifier struct{}

func (NopNotifier) Notify(uint, string, interface{}) {}
