package archive

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/elemevent/site/internal/model"
	"github.com/elemevent/site/internal/timezone"
)

func moscow(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("Europe/Moscow")
	if err != nil {
		t.Fatalf("load zone: %v", err)
	}
	return loc
}

func event(zone string, date model.Date, tod model.TimeOfDay, delay int) *model.Event {
	return &model.Event{
		Slug:         "concert-1a2b3c4d",
		City:         model.City{Name: "Moscow", Timezone: zone},
		Date:         date,
		Time:         tod,
		ArchiveDelay: delay,
		Status:       model.StatusActive,
	}
}

func TestIsPastLateEveningWithDelay(t *testing.T) {
	t.Parallel()
	loc := moscow(t)
	p := NewPolicy(timezone.NewResolver(), FailOpen, zerolog.Nop())
	ev := event("Europe/Moscow", model.Date{Year: 2026, Month: time.October, Day: 19}, model.TimeOfDay{Hour: 23}, 3)

	if p.IsPast(ev, time.Date(2026, 10, 19, 23, 30, 0, 0, loc)) {
		t.Fatal("23:30 same day: event must not be past")
	}
	if !p.IsPast(ev, time.Date(2026, 10, 20, 2, 1, 0, 0, loc)) {
		t.Fatal("02:01 next day: event must be past")
	}
	if p.IsPast(ev, time.Date(2026, 10, 20, 2, 0, 0, 0, loc)) {
		t.Fatal("exactly at the archival instant the event is not yet past")
	}
}

func TestIsPastZeroDelayBoundary(t *testing.T) {
	t.Parallel()
	loc := moscow(t)
	p := NewPolicy(timezone.NewResolver(), FailOpen, zerolog.Nop())
	ev := event("Europe/Moscow", model.Date{Year: 2026, Month: time.March, Day: 1}, model.TimeOfDay{Hour: 19, Minute: 0, Second: 0}, 0)
	start := time.Date(2026, 3, 1, 19, 0, 0, 0, loc)

	tests := []struct {
		name string
		now  time.Time
		want bool
	}{
		{"one second before", start.Add(-time.Second), false},
		{"at start", start, false},
		{"one second after", start.Add(time.Second), true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := p.IsPast(ev, tc.now); got != tc.want {
				t.Fatalf("IsPast = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestIsPastUsesZoneOffset(t *testing.T) {
	t.Parallel()
	p := NewPolicy(timezone.NewResolver(), FailOpen, zerolog.Nop())
	// 20:00 in Vladivostok is 10:00 UTC.
	ev := event("Asia/Vladivostok", model.Date{Year: 2026, Month: time.June, Day: 10}, model.TimeOfDay{Hour: 20}, 0)
	if !p.IsPast(ev, time.Date(2026, 6, 10, 10, 0, 1, 0, time.UTC)) {
		t.Fatal("event should be past one second after 10:00 UTC")
	}
	if p.IsPast(ev, time.Date(2026, 6, 10, 9, 59, 59, 0, time.UTC)) {
		t.Fatal("event should not be past before 10:00 UTC")
	}
}

func TestIsPastInvalidZone(t *testing.T) {
	t.Parallel()
	ev := event("Europe/Moskva", model.Date{Year: 2001, Month: time.January, Day: 1}, model.TimeOfDay{Hour: 12}, 0)
	far := time.Date(2100, 1, 1, 0, 0, 0, 0, time.UTC)

	var buf bytes.Buffer
	open := NewPolicy(timezone.NewResolver(), FailOpen, zerolog.New(&buf))
	if open.IsPast(ev, far) {
		t.Fatal("fail-open must never report past")
	}
	if !strings.Contains(buf.String(), "Europe/Moskva") {
		t.Fatalf("fallback not logged: %q", buf.String())
	}

	closed := NewPolicy(timezone.NewResolver(), FailClosed, zerolog.Nop())
	if closed.Fallback() != FailClosed || open.Fallback() != FailOpen {
		t.Fatalf("fallbacks = %v / %v", open.Fallback(), closed.Fallback())
	}
	if !closed.IsPast(ev, time.Date(1990, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatal("fail-closed must always report past")
	}
}

func TestIsPastDeterministic(t *testing.T) {
	t.Parallel()
	p := NewPolicy(timezone.NewResolver(), FailOpen, zerolog.Nop())
	ev := event("Europe/Berlin", model.Date{Year: 2026, Month: time.October, Day: 25}, model.TimeOfDay{Hour: 2, Minute: 30}, 1)
	now := time.Date(2026, 10, 25, 2, 0, 0, 0, time.UTC)
	first := p.IsPast(ev, now)
	for i := 0; i < 10; i++ {
		if p.IsPast(ev, now) != first {
			t.Fatal("IsPast is not deterministic")
		}
	}
}

func TestArchivalInstantError(t *testing.T) {
	t.Parallel()
	ev := event("", model.Date{Year: 2026, Month: time.January, Day: 1}, model.TimeOfDay{}, 0)
	if _, err := ArchivalInstant(ev, timezone.NewResolver()); err == nil {
		t.Fatal("expected error for empty zone")
	}
}

func TestArchivalInstantAcrossDST(t *testing.T) {
	t.Parallel()
	zones := timezone.NewResolver()
	tests := []struct {
		name  string
		date  model.Date
		tod   model.TimeOfDay
		delay int
		want  time.Time
	}{
		// 02:30 happens twice; the standard offset (+01:00) wins.
		{"overlap", model.Date{Year: 2026, Month: time.October, Day: 25}, model.TimeOfDay{Hour: 2, Minute: 30}, 0,
			time.Date(2026, 10, 25, 1, 30, 0, 0, time.UTC)},
		// 02:30 does not exist; it is read with the pre-transition offset.
		{"gap", model.Date{Year: 2026, Month: time.March, Day: 29}, model.TimeOfDay{Hour: 2, Minute: 30}, 0,
			time.Date(2026, 3, 29, 1, 30, 0, 0, time.UTC)},
		{"delay spans the change", model.Date{Year: 2026, Month: time.October, Day: 24}, model.TimeOfDay{Hour: 23}, 6,
			time.Date(2026, 10, 25, 3, 0, 0, 0, time.UTC)},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ArchivalInstant(event("Europe/Berlin", tc.date, tc.tod, tc.delay), zones)
			if err != nil {
				t.Fatal(err)
			}
			if !got.Equal(tc.want) {
				t.Fatalf("instant = %v, want %v", got.UTC(), tc.want)
			}
		})
	}
}

func TestParseFallback(t *testing.T) {
	t.Parallel()
	tests := []struct {
		in      string
		want    Fallback
		wantErr bool
	}{
		{"", FailOpen, false},
		{"open", FailOpen, false},
		{" Closed ", FailClosed, false},
		{"fail-closed", FailClosed, false},
		{"maybe", FailOpen, true},
	}
	for _, tc := range tests {
		got, err := ParseFallback(tc.in)
		if (err != nil) != tc.wantErr {
			t.Errorf("ParseFallback(%q) err = %v", tc.in, err)
		}
		if got != tc.want {
			t.Errorf("ParseFallback(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}
