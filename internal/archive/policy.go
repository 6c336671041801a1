// Package archive decides when an event is over. It is the only place that
// computes past-ness; listings and handlers ask a Policy instead of comparing
// dates themselves.
package archive

import (
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/elemevent/site/internal/model"
)

// ZoneResolver maps an IANA zone name to a location.
type ZoneResolver interface {
	Resolve(name string) (*time.Location, error)
}

// Fallback is applied when an event's archival instant cannot be computed.
type Fallback int

const (
	// FailOpen keeps the event visible: it is never considered past.
	FailOpen Fallback = iota
	// FailClosed archives the event immediately.
	FailClosed
)

func (f Fallback) String() string {
	if f == FailClosed {
		return "closed"
	}
	return "open"
}

// ParseFallback reads ARCHIVE_TZ_FALLBACK. An empty value means FailOpen.
func ParseFallback(s string) (Fallback, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "open", "fail-open":
		return FailOpen, nil
	case "closed", "fail-closed":
		return FailClosed, nil
	}
	return FailOpen, fmt.Errorf("unknown archive fallback %q", s)
}

// ArchivalInstant returns the absolute instant after which ev counts as past:
// its local date and time in the city's zone plus ArchiveDelay hours. The
// zone offset in effect on that date is used.
func ArchivalInstant(ev *model.Event, r ZoneResolver) (time.Time, error) {
	loc, err := r.Resolve(ev.City.Timezone)
	if err != nil {
		return time.Time{}, fmt.Errorf("event %q: %w", ev.Slug, err)
	}
	return ev.StartIn(loc).Add(time.Duration(ev.ArchiveDelay) * time.Hour), nil
}

// Policy evaluates past-ness with an explicit fallback for events whose
// timezone cannot be resolved.
type Policy struct {
	resolver ZoneResolver
	fallback Fallback
	log      zerolog.Logger
}

// NewPolicy builds a policy. Every fallback decision is logged at warn level.
func NewPolicy(r ZoneResolver, fallback Fallback, log zerolog.Logger) *Policy {
	return &Policy{resolver: r, fallback: fallback, log: log}
}

// Fallback returns the configured fallback.
func (p *Policy) Fallback() Fallback { return p.fallback }

// IsPast reports whether the archival instant of ev is strictly before now.
func (p *Policy) IsPast(ev *model.Event, now time.Time) bool {
	at, err := ArchivalInstant(ev, p.resolver)
	if err != nil {
		p.log.Warn().
			Err(err).
			Str("slug", ev.Slug).
			Str("city", ev.City.Name).
			Str("timezone", ev.City.Timezone).
			Str("fallback", p.fallback.String()).
			Msg("archival instant unavailable")
		return p.fallback == FailClosed
	}
	return at.Before(now)
}
