package listing

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/elemevent/site/internal/clock"
	"github.com/elemevent/site/internal/model"
)

// EventFilter narrows listings by equality on reference ids. Zero means the
// filter is not applied.
type EventFilter struct {
	CityID           uint64
	EventTypeID      uint64
	AgeRestrictionID uint64
}

// EventStore returns ACTIVE events with their city loaded, ordered by
// (date, time) ascending, or descending when desc is set.
type EventStore interface {
	ListActive(ctx context.Context, f EventFilter, desc bool) ([]*model.Event, error)
}

// TourStore returns active tours newest first, and the ACTIVE events of a
// set of tours keyed by tour id, each list ordered by (date, time) ascending.
type TourStore interface {
	ListActive(ctx context.Context) ([]*model.Tour, error)
	ActiveEventsByTour(ctx context.Context, tourIDs []uint64) (map[uint64][]*model.Event, error)
}

// ReferenceStore checks that filter ids point at existing rows.
type ReferenceStore interface {
	CityExists(ctx context.Context, id uint64) (bool, error)
	EventTypeExists(ctx context.Context, id uint64) (bool, error)
	AgeRestrictionExists(ctx context.Context, id uint64) (bool, error)
}

// QuestionStore lists FAQ entries by position.
type QuestionStore interface {
	List(ctx context.Context) ([]model.Question, error)
}

// Service reads rows from the stores and runs them through the filters in
// this package. Every read re-evaluates past-ness against the clock.
type Service struct {
	events    EventStore
	tours     TourStore
	refs      ReferenceStore
	questions QuestionStore
	archiver  Archiver
	clock     clock.Clock
}

func NewService(events EventStore, tours TourStore, refs ReferenceStore, questions QuestionStore, a Archiver, c clock.Clock) *Service {
	return &Service{events: events, tours: tours, refs: refs, questions: questions, archiver: a, clock: c}
}

// Now is the instant the service evaluates against.
func (s *Service) Now() time.Time { return s.clock.Now() }

// IsPast delegates to the archival policy.
func (s *Service) IsPast(ev *model.Event) bool { return s.archiver.IsPast(ev, s.clock.Now()) }

// Section reports where ev appears on the public site.
func (s *Service) Section(ev *model.Event) Section {
	return EventSection(ev, s.archiver, s.clock.Now())
}

// TourSection reports where t appears given its ACTIVE events.
func (s *Service) TourSection(t *model.Tour, events []*model.Event) Section {
	return TourSection(t, events, s.archiver, s.clock.Now())
}

// UpcomingEvents returns ACTIVE, not-past events ascending; limit <= 0 is
// uncapped.
func (s *Service) UpcomingEvents(ctx context.Context, f EventFilter, limit int) ([]*model.Event, error) {
	rows, err := s.events.ListActive(ctx, f, false)
	if err != nil {
		return nil, fmt.Errorf("list upcoming events: %w", err)
	}
	return Take(Upcoming(slices.Values(rows), s.archiver, s.clock.Now()), limit), nil
}

// PastEvents returns ACTIVE, past events, most recent first.
func (s *Service) PastEvents(ctx context.Context, f EventFilter) ([]*model.Event, error) {
	rows, err := s.events.ListActive(ctx, f, true)
	if err != nil {
		return nil, fmt.Errorf("list past events: %w", err)
	}
	return Take(Archived(slices.Values(rows), s.archiver, s.clock.Now()), 0), nil
}

// RelatedEvents returns upcoming events in the same city as ev, ev excluded.
func (s *Service) RelatedEvents(ctx context.Context, ev *model.Event, limit int) ([]*model.Event, error) {
	rows, err := s.events.ListActive(ctx, EventFilter{CityID: ev.City.ID}, false)
	if err != nil {
		return nil, fmt.Errorf("list related events: %w", err)
	}
	others := func(yield func(*model.Event) bool) {
		for _, r := range rows {
			if r.ID == ev.ID {
				continue
			}
			if !yield(r) {
				return
			}
		}
	}
	return Take(Upcoming(others, s.archiver, s.clock.Now()), limit), nil
}

// VisibleTours returns listing-eligible tours newest first. excludeID skips
// one tour (the one being viewed); limit <= 0 is uncapped.
func (s *Service) VisibleTours(ctx context.Context, limit int, excludeID uint64) ([]*model.Tour, error) {
	tours, err := s.tours.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("list tours: %w", err)
	}
	ids := make([]uint64, 0, len(tours))
	for _, t := range tours {
		ids = append(ids, t.ID)
	}
	byTour, err := s.tours.ActiveEventsByTour(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("list tour events: %w", err)
	}
	now := s.clock.Now()
	visible := func(yield func(*model.Tour) bool) {
		for _, t := range tours {
			if t.ID == excludeID || !TourVisible(t, byTour[t.ID], s.archiver, now) {
				continue
			}
			if !yield(t) {
				return
			}
		}
	}
	return Take(visible, limit), nil
}

// TourEvents splits the ACTIVE events of tour into upcoming and past.
func (s *Service) TourEvents(ctx context.Context, tour *model.Tour) (TourEvents, error) {
	byTour, err := s.tours.ActiveEventsByTour(ctx, []uint64{tour.ID})
	if err != nil {
		return TourEvents{}, fmt.Errorf("list tour events: %w", err)
	}
	return SplitTourEvents(byTour[tour.ID], s.archiver, s.clock.Now()), nil
}

// Menu is the navigation block attached to every public page.
type Menu struct {
	Events    []*model.Event   `json:"upcoming_events"`
	Tours     []*model.Tour    `json:"tours"`
	Questions []model.Question `json:"questions"`
}

// Menu builds the navigation block: upcoming events and visible tours,
// capped, plus all FAQ questions.
func (s *Service) Menu(ctx context.Context) (Menu, error) {
	events, err := s.UpcomingEvents(ctx, EventFilter{}, MenuEventsLimit)
	if err != nil {
		return Menu{}, err
	}
	tours, err := s.VisibleTours(ctx, MenuToursLimit, 0)
	if err != nil {
		return Menu{}, err
	}
	questions, err := s.questions.List(ctx)
	if err != nil {
		return Menu{}, fmt.Errorf("list questions: %w", err)
	}
	return Menu{Events: events, Tours: tours, Questions: questions}, nil
}

// FilterQuery carries raw query parameter values.
type FilterQuery struct {
	City           string
	EventType      string
	AgeRestriction string
}

// ResolveFilter turns query values into an EventFilter. A value that is
// empty, not a positive integer, or that names no existing row is dropped
// without error. Only store failures are returned.
func (s *Service) ResolveFilter(ctx context.Context, q FilterQuery) (EventFilter, error) {
	var f EventFilter
	var err error
	if f.CityID, err = s.resolveRef(ctx, q.City, s.refs.CityExists); err != nil {
		return EventFilter{}, fmt.Errorf("resolve city filter: %w", err)
	}
	if f.EventTypeID, err = s.resolveRef(ctx, q.EventType, s.refs.EventTypeExists); err != nil {
		return EventFilter{}, fmt.Errorf("resolve type filter: %w", err)
	}
	if f.AgeRestrictionID, err = s.resolveRef(ctx, q.AgeRestriction, s.refs.AgeRestrictionExists); err != nil {
		return EventFilter{}, fmt.Errorf("resolve age filter: %w", err)
	}
	return f, nil
}

func (s *Service) resolveRef(ctx context.Context, raw string, exists func(context.Context, uint64) (bool, error)) (uint64, error) {
	id, err := strconv.ParseUint(strings.TrimSpace(raw), 10, 64)
	if err != nil || id == 0 {
		return 0, nil
	}
	ok, err := exists(ctx, id)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, nil
	}
	return id, nil
}
