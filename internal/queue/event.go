// Package queue defines message payloads exchanged over the message broker
// and the consumer that records them.
package queue

// EventPushQueue carries on-page notices as they are switched on.
const EventPushQueue = "event.push"

// EventPushMessage is published when an editor saves an active push notice
// for an event. It carries enough for a notifier to act without reading the
// database.
type EventPushMessage struct {
	EventID     uint64 `json:"event_id"`
	Slug        string `json:"slug"`
	Title       string `json:"title"`
	City        string `json:"city"`
	StartsAt    string `json:"starts_at"` // local date and time with the city's offset, RFC 3339
	Content     string `json:"content"`
	PublishedAt string `json:"published_at"`
}
