package model

import (
	"encoding/json"
	"testing"
	"time"
)

func TestTimeOfDayScan(t *testing.T) {
	tests := []struct {
		name string
		src  any
		want TimeOfDay
	}{
		{"bytes", []byte("23:00:00"), TimeOfDay{23, 0, 0}},
		{"fraction", []byte("07:05:09.000000"), TimeOfDay{7, 5, 9}},
		{"short", "19:30", TimeOfDay{19, 30, 0}},
		{"time", time.Date(0, 1, 1, 12, 1, 2, 0, time.UTC), TimeOfDay{12, 1, 2}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var got TimeOfDay
			if err := got.Scan(tc.src); err != nil {
				t.Fatalf("Scan: %v", err)
			}
			if got != tc.want {
				t.Fatalf("got %v, want %v", got, tc.want)
			}
		})
	}

	var bad TimeOfDay
	if err := bad.Scan(42); err == nil {
		t.Fatal("expected error for int source")
	}
}

func TestDateScanAndJSON(t *testing.T) {
	var d Date
	if err := d.Scan(time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC)); err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if d.String() != "2026-10-19" {
		t.Fatalf("got %s", d)
	}
	b, err := json.Marshal(d)
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != `"2026-10-19"` {
		t.Fatalf("json = %s", b)
	}
	var back Date
	if err := json.Unmarshal([]byte(`"2026-01-02"`), &back); err != nil {
		t.Fatal(err)
	}
	if back != (Date{2026, time.January, 2}) {
		t.Fatalf("unmarshal = %v", back)
	}
	if err := json.Unmarshal([]byte(`"02.01.2026"`), &back); err == nil {
		t.Fatal("expected error for wrong layout")
	}
}

func TestEventStatus(t *testing.T) {
	for _, s := range []EventStatus{StatusDraft, StatusActive, StatusStop, StatusCancel} {
		if !s.Valid() {
			t.Errorf("%s should be valid", s)
		}
	}
	if EventStatus("ARCHIVED").Valid() {
		t.Error("unknown status must be invalid")
	}
	ev := Event{Status: StatusActive}
	if !ev.IsVisible() || ev.IsCancelled() || ev.IsStopped() {
		t.Error("active event flags wrong")
	}
	ev.Status = StatusCancel
	if ev.IsVisible() || !ev.IsCancelled() {
		t.Error("cancelled event flags wrong")
	}
}

func TestWidgetFlags(t *testing.T) {
	id, token, key, empty := "1", "tok", "rk", ""
	tests := []struct {
		name          string
		ev            Event
		cloud, radaro bool
	}{
		{"cloud full", Event{TicketSystem: TicketTicketsCloud, TicketsCloudEventID: &id, TicketsCloudToken: &token}, true, false},
		{"cloud no token", Event{TicketSystem: TicketTicketsCloud, TicketsCloudEventID: &id, TicketsCloudToken: &empty}, false, false},
		{"radario", Event{TicketSystem: TicketRadario, RadarioKey: &key}, false, true},
		{"radario fields on direct", Event{TicketSystem: TicketDirect, RadarioKey: &key}, false, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.ev.HasTicketsCloudWidget(); got != tc.cloud {
				t.Errorf("cloud = %v", got)
			}
			if got := tc.ev.HasRadarioWidget(); got != tc.radaro {
				t.Errorf("radario = %v", got)
			}
		})
	}
}

func TestSiteInfoLines(t *testing.T) {
	s := SiteInfo{CompanyDetails: "LLC Project\r\n\n  INN 123  \n"}
	got := s.CompanyDetailsLines()
	if len(got) != 2 || got[0] != "LLC Project" || got[1] != "INN 123" {
		t.Fatalf("lines = %q", got)
	}
	if l := s.PrivacyPolicyLines(); len(l) != 0 {
		t.Fatalf("empty text gave %q", l)
	}
}

func TestValidArchiveDelay(t *testing.T) {
	if !ValidArchiveDelay(0) || !ValidArchiveDelay(36) || ValidArchiveDelay(5) {
		t.Fatal("archive delay validation wrong")
	}
}
