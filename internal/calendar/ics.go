// Package calendar renders events as iCalendar documents.
package calendar

import (
	"fmt"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"

	"github.com/elemevent/site/internal/model"
)

const productID = "-//elemevent//site//EN"

// ZoneResolver maps a city's zone name to a location.
type ZoneResolver interface {
	Resolve(name string) (*time.Location, error)
}

// EventICS returns a single-event calendar. DTSTART is written in UTC; the
// city's zone goes into X-WR-TIMEZONE as a display hint. When the zone does
// not resolve, the local wall time is written as UTC. baseURL is the public
// site root used for the event link.
func EventICS(ev *model.Event, zones ZoneResolver, baseURL string, now time.Time) string {
	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId(productID)

	loc, err := zones.Resolve(ev.City.Timezone)
	if err != nil {
		loc = time.UTC
	} else {
		cal.SetXWRTimezone(loc.String())
	}

	ve := cal.AddEvent(fmt.Sprintf("%s@elemevent", ev.Slug))
	ve.SetDtStampTime(now.UTC())
	ve.SetSummary(ev.Title)
	ve.SetLocation(location(ev))
	ve.SetStartAt(ev.StartIn(loc))

	if ev.Description != nil && *ev.Description != "" {
		ve.SetDescription(*ev.Description)
	}
	if baseURL != "" {
		ve.SetURL(strings.TrimRight(baseURL, "/") + "/events/" + ev.Slug)
	}
	if ev.IsCancelled() {
		ve.SetProperty(ical.ComponentPropertyStatus, "CANCELLED")
	}
	return cal.Serialize()
}

func location(ev *model.Event) string {
	parts := make([]string, 0, 3)
	for _, p := range []string{ev.Venue, ev.Address, ev.City.Name} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}

// FileName is the attachment name for an event's calendar file.
func FileName(ev *model.Event) string {
	return ev.Slug + ".ics"
}
