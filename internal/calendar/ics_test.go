package calendar

import (
	"strings"
	"testing"
	"time"

	"github.com/elemevent/site/internal/model"
	"github.com/elemevent/site/internal/timezone"
)

func TestEventICS(t *testing.T) {
	t.Parallel()
	desc := "Big show"
	ev := &model.Event{
		Title:       "Rock Night",
		Slug:        "rock-night-1a2b3c4d",
		City:        model.City{Name: "Moscow", Timezone: "Europe/Moscow"},
		Date:        model.Date{Year: 2026, Month: time.October, Day: 19},
		Time:        model.TimeOfDay{Hour: 23},
		Venue:       "Club",
		Address:     "Tverskaya 1",
		Description: &desc,
		Status:      model.StatusActive,
	}
	zones := timezone.NewResolver()
	out := EventICS(ev, zones, "https://example.org/", time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC))

	for _, want := range []string{
		"BEGIN:VCALENDAR",
		"BEGIN:VEVENT",
		"X-WR-TIMEZONE:Europe/Moscow",
		"DTSTART:20261019T200000Z",
		"SUMMARY:Rock Night",
		"rock-night-1a2b3c4d@elemevent",
		"https://example.org/events/rock-night-1a2b3c4d",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("ics missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "TZID=") {
		t.Errorf("ics must not reference a zone without VTIMEZONE:\n%s", out)
	}
	if strings.Contains(out, "CANCELLED") {
		t.Error("active event must not be marked cancelled")
	}

	ev.Status = model.StatusCancel
	if out := EventICS(ev, zones, "", time.Now()); !strings.Contains(out, "STATUS:CANCELLED") {
		t.Errorf("cancelled event missing status:\n%s", out)
	}
}

func TestEventICSUnknownZone(t *testing.T) {
	t.Parallel()
	ev := &model.Event{
		Title:  "Lost",
		Slug:   "lost-1a2b3c4d",
		City:   model.City{Name: "Nowhere", Timezone: "Mars/Olympus"},
		Date:   model.Date{Year: 2026, Month: time.October, Day: 19},
		Time:   model.TimeOfDay{Hour: 23, Minute: 30},
		Status: model.StatusActive,
	}
	out := EventICS(ev, timezone.NewResolver(), "", time.Now())
	if !strings.Contains(out, "DTSTART:20261019T233000Z") {
		t.Errorf("want wall time as UTC:\n%s", out)
	}
	if strings.Contains(out, "Mars/Olympus") {
		t.Errorf("unresolved zone leaked into ics:\n%s", out)
	}
}

func TestLocationSkipsEmpty(t *testing.T) {
	t.Parallel()
	ev := &model.Event{Venue: "Hall", City: model.City{Name: "Kazan"}}
	if got := location(ev); got != "Hall, Kazan" {
		t.Fatalf("location = %q", got)
	}
}
