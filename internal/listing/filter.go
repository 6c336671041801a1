// Package listing partitions events into upcoming and archived buckets and
// decides which tours are shown. The functions in this file are pure: they
// take rows already ordered by the store and the current instant.
package listing

import (
	"iter"
	"slices"
	"time"

	"github.com/elemevent/site/internal/model"
)

// Navigation caps.
const (
	MenuEventsLimit    = 12
	MenuToursLimit     = 6
	RelatedEventsLimit = 3
	EventsPerPage      = 12
	ToursPerPage       = 9
)

// Archiver answers whether an event is over. *archive.Policy implements it.
type Archiver interface {
	IsPast(ev *model.Event, now time.Time) bool
}

// Upcoming yields the ACTIVE events of seq that are not past, in source
// order. The store supplies them ordered by (date, time) ascending.
func Upcoming(seq iter.Seq[*model.Event], a Archiver, now time.Time) iter.Seq[*model.Event] {
	return func(yield func(*model.Event) bool) {
		for ev := range seq {
			if !ev.IsVisible() || a.IsPast(ev, now) {
				continue
			}
			if !yield(ev) {
				return
			}
		}
	}
}

// Archived yields the ACTIVE events of seq that are past, in source order.
// The store supplies them ordered by (date, time) descending.
func Archived(seq iter.Seq[*model.Event], a Archiver, now time.Time) iter.Seq[*model.Event] {
	return func(yield func(*model.Event) bool) {
		for ev := range seq {
			if !ev.IsVisible() || !a.IsPast(ev, now) {
				continue
			}
			if !yield(ev) {
				return
			}
		}
	}
}

// Take collects at most n values from seq and stops pulling after that.
// n <= 0 collects everything.
func Take[T any](seq iter.Seq[T], n int) []T {
	out := []T{}
	if n <= 0 {
		return append(out, slices.Collect(seq)...)
	}
	for v := range seq {
		out = append(out, v)
		if len(out) >= n {
			break
		}
	}
	return out
}

// HasUpcoming reports whether any event is ACTIVE and not past. It stops at
// the first match.
func HasUpcoming(events []*model.Event, a Archiver, now time.Time) bool {
	for range Upcoming(slices.Values(events), a, now) {
		return true
	}
	return false
}

// TourVisible reports whether a tour may appear in public listings: it is
// active and at least one of its events is ACTIVE and not past.
func TourVisible(t *model.Tour, events []*model.Event, a Archiver, now time.Time) bool {
	return t.IsActive && HasUpcoming(events, a, now)
}

// TourState summarises the ACTIVE events of a tour.
type TourState string

const (
	TourUpcoming TourState = "upcoming"
	TourPast     TourState = "past"
	TourEmpty    TourState = "empty"
)

// TourEvents is the split of a tour's events for its detail page.
type TourEvents struct {
	Upcoming        []*model.Event
	Past            []*model.Event
	State           TourState
	HasTicketsCloud bool // some upcoming event renders the TicketsCloud widget
	HasRadario      bool // some upcoming event renders the Radario widget
}

// SplitTourEvents partitions the ACTIVE events of a tour, given in
// (date, time) ascending order.
func SplitTourEvents(events []*model.Event, a Archiver, now time.Time) TourEvents {
	out := TourEvents{Upcoming: []*model.Event{}, Past: []*model.Event{}}
	for _, ev := range events {
		if !ev.IsVisible() {
			continue
		}
		if a.IsPast(ev, now) {
			out.Past = append(out.Past, ev)
			continue
		}
		out.Upcoming = append(out.Upcoming, ev)
		if ev.HasTicketsCloudWidget() {
			out.HasTicketsCloud = true
		} else if ev.HasRadarioWidget() {
			out.HasRadario = true
		}
	}
	switch {
	case len(out.Upcoming) > 0:
		out.State = TourUpcoming
	case len(out.Past) > 0:
		out.State = TourPast
	default:
		out.State = TourEmpty
	}
	return out
}

// Section names where the back-office shows a record on the public site.
type Section string

const (
	SectionHidden  Section = "hidden"
	SectionArchive Section = "archive"
	SectionListing Section = "listing"
)

// EventSection reports where ev currently appears.
func EventSection(ev *model.Event, a Archiver, now time.Time) Section {
	if !ev.IsVisible() {
		return SectionHidden
	}
	if a.IsPast(ev, now) {
		return SectionArchive
	}
	return SectionListing
}

// TourSection reports where a tour currently appears. Tours have no archive.
func TourSection(t *model.Tour, events []*model.Event, a Archiver, now time.Time) Section {
	if TourVisible(t, events, a, now) {
		return SectionListing
	}
	return SectionHidden
}
