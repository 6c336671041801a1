package model

import "time"

// EventStatus is the editorial state of an event. It is independent of
// archival: an ACTIVE event moves between the upcoming and archived listings
// purely by the passage of time and never changes status on its own.
type EventStatus string

const (
	StatusDraft  EventStatus = "DRAFT"  // initial, never public
	StatusActive EventStatus = "ACTIVE" // listed, bucketed by archival time
	StatusStop   EventStatus = "STOP"   // paused by an editor, hidden
	StatusCancel EventStatus = "CANCEL" // cancelled, hidden
)

// Valid reports whether s is one of the known statuses.
func (s EventStatus) Valid() bool {
	switch s {
	case StatusDraft, StatusActive, StatusStop, StatusCancel:
		return true
	}
	return false
}

// Label returns the name shown to editors.
func (s EventStatus) Label() string {
	switch s {
	case StatusDraft:
		return "Draft"
	case StatusActive:
		return "Active"
	case StatusStop:
		return "Stopped"
	case StatusCancel:
		return "Cancelled"
	}
	return string(s)
}

// TicketSystem selects which ticketing backend sells an event.
type TicketSystem string

const (
	TicketDirect       TicketSystem = "DIRECT"
	TicketTicketsCloud TicketSystem = "TICKETSCLOUD"
	TicketRadario      TicketSystem = "RADARIO"
)

// Valid reports whether t is a known ticket system.
func (t TicketSystem) Valid() bool {
	switch t {
	case TicketDirect, TicketTicketsCloud, TicketRadario:
		return true
	}
	return false
}

// ArchiveDelays lists the allowed archive_delay values in hours.
var ArchiveDelays = []int{0, 1, 2, 3, 6, 12, 24, 36}

// DefaultArchiveDelay is applied when an editor does not pick one.
const DefaultArchiveDelay = 3

// ValidArchiveDelay reports whether h is one of ArchiveDelays.
func ValidArchiveDelay(h int) bool {
	for _, v := range ArchiveDelays {
		if v == h {
			return true
		}
	}
	return false
}

// Event is a single scheduled happening. City is loaded together with the
// event because the archival instant depends on the city's timezone.
type Event struct {
	ID                  uint64          `json:"id"`                              // events.id
	Title               string          `json:"title"`                           // events.title
	Poster              string          `json:"poster"`                          // events.poster (card image path)
	Cover               string          `json:"cover"`                           // events.cover (page image path)
	City                City            `json:"city"`                            // events.city_id joined
	Date                Date            `json:"date"`                            // events.date, local to City
	Time                TimeOfDay       `json:"time"`                            // events.time, local to City
	Venue               string          `json:"venue"`                           // events.venue
	Address             string          `json:"address"`                         // events.address
	EventType           *EventType      `json:"event_type,omitempty"`            // events.event_type_id (nullable)
	AgeRestriction      *AgeRestriction `json:"age_restriction,omitempty"`       // events.age_restriction_id (nullable)
	Description         *string         `json:"description,omitempty"`           // events.description
	TicketSystem        TicketSystem    `json:"ticket_system"`                   // events.ticket_system
	TicketLink          *string         `json:"ticket_link,omitempty"`           // events.ticket_link
	TicketsCloudEventID *string         `json:"ticketscloud_event_id,omitempty"` // events.ticketscloud_event_id
	TicketsCloudToken   *string         `json:"ticketscloud_token,omitempty"`    // events.ticketscloud_token
	RadarioKey          *string         `json:"radario_key,omitempty"`           // events.radario_key
	VKLink              *string         `json:"vk_link,omitempty"`               // events.vk_link
	ArchiveDelay        int             `json:"archive_delay"`                   // events.archive_delay (hours)
	Slug                string          `json:"slug"`                            // events.slug (unique, immutable)
	Status              EventStatus     `json:"status"`                          // events.status
	CreatedAt           time.Time       `json:"created_at"`                      // events.created_at
	UpdatedAt           time.Time       `json:"updated_at"`                      // events.updated_at
}

func (e *Event) IsVisible() bool   { return e.Status == StatusActive }
func (e *Event) IsCancelled() bool { return e.Status == StatusCancel }
func (e *Event) IsStopped() bool   { return e.Status == StatusStop }

// HasTicketsCloudWidget reports whether the TicketsCloud widget can be
// rendered for this event.
func (e *Event) HasTicketsCloudWidget() bool {
	return e.TicketSystem == TicketTicketsCloud && nonEmpty(e.TicketsCloudEventID) && nonEmpty(e.TicketsCloudToken)
}

// HasRadarioWidget reports whether the Radario widget can be rendered.
func (e *Event) HasRadarioWidget() bool {
	return e.TicketSystem == TicketRadario && nonEmpty(e.RadarioKey)
}

// StartIn returns the local start of the event in loc. time.Date resolves
// DST gaps and overlaps for that date.
func (e *Event) StartIn(loc *time.Location) time.Time {
	return time.Date(e.Date.Year, e.Date.Month, e.Date.Day, e.Time.Hour, e.Time.Minute, e.Time.Second, 0, loc)
}

func nonEmpty(p *string) bool { return p != nil && *p != "" }

// EventType classifies events (concert, stand-up, ...).
type EventType struct {
	ID   uint64 `json:"id"`
	Name string `json:"name"`
}

// AgeRestriction is an age restriction label such as "18+".
type AgeRestriction struct {
	ID   uint64 `json:"id"`
	Name string `json:"name"`
}

// EventPush is an on-page notice shown on an event page. Owned by the event
// and removed with it.
type EventPush struct {
	EventID   uint64    `json:"event_id"`
	Content   string    `json:"content"` // may contain HTML
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// EventAdvertising carries the disclosure data required for sponsored
// content. Owned by the event and removed with it.
type EventAdvertising struct {
	EventID        uint64    `json:"event_id"`
	IsActive       bool      `json:"is_active"`
	Token          string    `json:"token"` // ERID
	AdvertiserName string    `json:"advertiser_name"`
	AdvertiserINN  string    `json:"advertiser_inn"`
	AdvertiserOGRN *string   `json:"advertiser_ogrn,omitempty"`
	AdditionalInfo string    `json:"additional_info"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}
