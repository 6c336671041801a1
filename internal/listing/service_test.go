package listing

import (
	"context"
	"errors"
	"slices"
	"testing"
	"time"

	"github.com/elemevent/site/internal/clock"
	"github.com/elemevent/site/internal/model"
)

type fakeEvents struct {
	rows    []*model.Event
	filters []EventFilter
	err     error
}

func (f *fakeEvents) ListActive(_ context.Context, flt EventFilter, desc bool) ([]*model.Event, error) {
	f.filters = append(f.filters, flt)
	if f.err != nil {
		return nil, f.err
	}
	out := []*model.Event{}
	for _, e := range f.rows {
		if e.Status != model.StatusActive {
			continue
		}
		if flt.CityID != 0 && e.City.ID != flt.CityID {
			continue
		}
		out = append(out, e)
	}
	if desc {
		slices.Reverse(out)
	}
	return out, nil
}

type fakeTours struct {
	tours  []*model.Tour
	events map[uint64][]*model.Event
}

func (f *fakeTours) ListActive(context.Context) ([]*model.Tour, error) {
	out := []*model.Tour{}
	for _, t := range f.tours {
		if t.IsActive {
			out = append(out, t)
		}
	}
	return out, nil
}

func (f *fakeTours) ActiveEventsByTour(_ context.Context, ids []uint64) (map[uint64][]*model.Event, error) {
	out := map[uint64][]*model.Event{}
	for _, id := range ids {
		for _, e := range f.events[id] {
			if e.Status == model.StatusActive {
				out[id] = append(out[id], e)
			}
		}
	}
	return out, nil
}

type fakeRefs struct {
	cities map[uint64]bool
	types  map[uint64]bool
	err    error
}

func (f fakeRefs) CityExists(_ context.Context, id uint64) (bool, error) {
	return f.cities[id], f.err
}
func (f fakeRefs) EventTypeExists(_ context.Context, id uint64) (bool, error) {
	return f.types[id], f.err
}
func (f fakeRefs) AgeRestrictionExists(context.Context, uint64) (bool, error) { return false, f.err }

type fakeQuestions struct{}

func (fakeQuestions) List(context.Context) ([]model.Question, error) {
	return []model.Question{{ID: 1, Title: "When?"}}, nil
}

func newService(events *fakeEvents, tours *fakeTours, refs fakeRefs) *Service {
	return NewService(events, tours, refs, fakeQuestions{}, policy(), clock.NewFixed(now))
}

func TestServiceUpcomingAndPast(t *testing.T) {
	t.Parallel()
	events := &fakeEvents{rows: []*model.Event{
		ev(1, model.StatusActive, -48*time.Hour),
		ev(2, model.StatusActive, -time.Hour),
		ev(3, model.StatusDraft, time.Hour),
		ev(4, model.StatusActive, time.Hour),
		ev(5, model.StatusActive, 2*time.Hour),
	}}
	s := newService(events, &fakeTours{}, fakeRefs{})

	up, err := s.UpcomingEvents(context.Background(), EventFilter{}, 1)
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(ids(up), []uint64{4}) {
		t.Fatalf("upcoming capped = %v", ids(up))
	}

	past, err := s.PastEvents(context.Background(), EventFilter{})
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(ids(past), []uint64{2, 1}) {
		t.Fatalf("past = %v, want most recent first", ids(past))
	}
}

func TestServiceStoreError(t *testing.T) {
	t.Parallel()
	boom := errors.New("boom")
	s := newService(&fakeEvents{err: boom}, &fakeTours{}, fakeRefs{})
	if _, err := s.UpcomingEvents(context.Background(), EventFilter{}, 0); !errors.Is(err, boom) {
		t.Fatalf("err = %v", err)
	}
}

func TestServiceRelatedEvents(t *testing.T) {
	t.Parallel()
	other := ev(9, model.StatusActive, 3*time.Hour)
	other.City = model.City{ID: 2, Timezone: "UTC"}
	current := ev(1, model.StatusActive, time.Hour)
	events := &fakeEvents{rows: []*model.Event{
		current,
		ev(2, model.StatusActive, 2*time.Hour),
		other,
		ev(3, model.StatusActive, 4*time.Hour),
		ev(4, model.StatusActive, 5*time.Hour),
		ev(5, model.StatusActive, 6*time.Hour),
	}}
	s := newService(events, &fakeTours{}, fakeRefs{})
	got, err := s.RelatedEvents(context.Background(), current, RelatedEventsLimit)
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(ids(got), []uint64{2, 3, 4}) {
		t.Fatalf("related = %v", ids(got))
	}
}

func TestServiceVisibleTours(t *testing.T) {
	t.Parallel()
	tours := &fakeTours{
		tours: []*model.Tour{
			{ID: 1, IsActive: true},
			{ID: 2, IsActive: true},
			{ID: 3, IsActive: false},
			{ID: 4, IsActive: true},
			{ID: 5, IsActive: true},
		},
		events: map[uint64][]*model.Event{
			1: {ev(1, model.StatusActive, time.Hour)},
			2: {ev(2, model.StatusCancel, time.Hour), ev(3, model.StatusActive, -time.Hour)},
			3: {ev(4, model.StatusActive, time.Hour)},
			4: {ev(5, model.StatusActive, -time.Hour), ev(6, model.StatusActive, time.Hour)},
		},
	}
	s := newService(&fakeEvents{}, tours, fakeRefs{})

	got, err := s.VisibleTours(context.Background(), 0, 0)
	if err != nil {
		t.Fatal(err)
	}
	var gotIDs []uint64
	for _, tr := range got {
		gotIDs = append(gotIDs, tr.ID)
	}
	if !slices.Equal(gotIDs, []uint64{1, 4}) {
		t.Fatalf("visible tours = %v", gotIDs)
	}

	got, err = s.VisibleTours(context.Background(), MenuToursLimit, 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].ID != 4 {
		t.Fatalf("excluding tour 1 gave %v", got)
	}

	split, err := s.TourEvents(context.Background(), tours.tours[3])
	if err != nil {
		t.Fatal(err)
	}
	if split.State != TourUpcoming || len(split.Past) != 1 || len(split.Upcoming) != 1 {
		t.Fatalf("split = %+v", split)
	}
}

func TestServiceMenu(t *testing.T) {
	t.Parallel()
	var rows []*model.Event
	for i := range 20 {
		rows = append(rows, ev(uint64(i+1), model.StatusActive, time.Duration(i+1)*time.Hour))
	}
	s := newService(&fakeEvents{rows: rows}, &fakeTours{}, fakeRefs{})
	m, err := s.Menu(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(m.Events) != MenuEventsLimit {
		t.Fatalf("menu events = %d", len(m.Events))
	}
	if len(m.Tours) != 0 || len(m.Questions) != 1 {
		t.Fatalf("menu = %+v", m)
	}
}

func TestResolveFilterDropsBadValues(t *testing.T) {
	t.Parallel()
	refs := fakeRefs{cities: map[uint64]bool{3: true}, types: map[uint64]bool{7: true}}
	s := newService(&fakeEvents{}, &fakeTours{}, refs)

	tests := []struct {
		name string
		q    FilterQuery
		want EventFilter
	}{
		{"empty", FilterQuery{}, EventFilter{}},
		{"valid", FilterQuery{City: "3", EventType: "7"}, EventFilter{CityID: 3, EventTypeID: 7}},
		{"non numeric", FilterQuery{City: "moscow", EventType: "x"}, EventFilter{}},
		{"nonexistent", FilterQuery{City: "4", EventType: "7"}, EventFilter{EventTypeID: 7}},
		{"negative", FilterQuery{City: "-3"}, EventFilter{}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := s.ResolveFilter(context.Background(), tc.q)
			if err != nil {
				t.Fatal(err)
			}
			if got != tc.want {
				t.Fatalf("filter = %+v, want %+v", got, tc.want)
			}
		})
	}

	failing := newService(&fakeEvents{}, &fakeTours{}, fakeRefs{err: errors.New("db down")})
	if _, err := failing.ResolveFilter(context.Background(), FilterQuery{City: "3"}); err == nil {
		t.Fatal("store error must be returned")
	}
}
