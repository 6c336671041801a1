package handler

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/elemevent/site/internal/model"
	"github.com/elemevent/site/internal/repository"
	"github.com/elemevent/site/internal/timezone"
)

type publicEvents struct {
	rows []*model.Event
	push map[uint64]*model.EventPush
	ads  map[uint64]*model.EventAdvertising
}

func (f publicEvents) GetPublicBySlug(_ context.Context, slug string) (*model.Event, error) {
	for _, e := range f.rows {
		if e.Slug == slug && e.Status != model.StatusDraft {
			return e, nil
		}
	}
	return nil, repository.ErrEventNotFound
}

func (f publicEvents) GetPush(_ context.Context, id uint64) (*model.EventPush, error) {
	return f.push[id], nil
}

func (f publicEvents) GetAdvertising(_ context.Context, id uint64) (*model.EventAdvertising, error) {
	return f.ads[id], nil
}

type publicTours []*model.Tour

func (f publicTours) GetActiveBySlug(_ context.Context, slug string) (*model.Tour, error) {
	for _, t := range f {
		if t.Slug == slug && t.IsActive {
			return t, nil
		}
	}
	return nil, repository.ErrTourNotFound
}

type filterOptions struct{}

func (filterOptions) ListCities(context.Context) ([]model.City, error) {
	return []model.City{moscow}, nil
}

func (filterOptions) ListEventTypes(context.Context) ([]model.EventType, error) {
	return []model.EventType{{ID: 1, Name: "Concert"}}, nil
}

type siteStore struct{ info *model.SiteInfo }

func (s siteStore) Get(context.Context) (*model.SiteInfo, error) { return s.info, nil }

type bannerList []model.Banner

func (b bannerList) ListActive(context.Context) ([]model.Banner, error) { return b, nil }

func publicFixture() (*PublicHandler, []*model.Event) {
	events := []*model.Event{
		event(1, "past-show", model.StatusActive, "2025-06-14"),
		event(5, "today-show", model.StatusActive, "2025-06-15"),
		event(2, "next-show", model.StatusActive, "2025-06-20"),
		event(3, "draft-show", model.StatusDraft, "2025-06-21"),
		event(4, "stopped-show", model.StatusStop, "2025-06-22"),
	}
	tours := listingTours{
		tours: []*model.Tour{
			{ID: 10, Slug: "spring", IsActive: true},
			{ID: 11, Slug: "finished", IsActive: true},
			{ID: 12, Slug: "hidden", IsActive: false},
		},
		events: map[uint64][]*model.Event{
			10: {events[0], events[2]},
			11: {events[0]},
			12: {events[2]},
		},
	}
	h := &PublicHandler{
		Listing:   newListing(events, tours),
		EventRepo: publicEvents{rows: events},
		TourRepo:  publicTours(tours.tours),
		Filters:   filterOptions{},
		Banners:   bannerList{{ID: 1, Cover: "banners/a.jpg", IsActive: true}},
		Questions: questions{{ID: 1, Title: "Q", Content: "A"}},
		SiteRepo:  siteStore{info: &model.SiteInfo{CompanyName: "Project", CompanyDetails: "line one\r\n\r\n  line two  "}},
		Zones:     timezone.NewResolver(),
		BaseURL:   "https://example.org",
		Log:       zerolog.Nop(),
	}
	return h, events
}

type slugItem struct {
	Slug string `json:"slug"`
}

func slugs(items []slugItem) string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, it.Slug)
	}
	return strings.Join(out, ",")
}

func TestPublicEventsListsUpcomingOnly(t *testing.T) {
	h, _ := publicFixture()
	rec := call(t, h.Events, http.MethodGet, "/v1/events?city=1&type=999&page=abc", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("code = %d: %s", rec.Code, rec.Body)
	}
	resp := decode[struct {
		Page struct {
			Items  []slugItem `json:"items"`
			Total  int        `json:"total"`
			Number int        `json:"page"`
		} `json:"page"`
		Filter map[string]uint64 `json:"filter"`
		Menu   struct {
			Events []slugItem `json:"upcoming_events"`
			Tours  []slugItem `json:"tours"`
		} `json:"menu"`
	}](t, rec)
	// today-show starts at 19:00 Moscow and is still upcoming at 15:00.
	if got := slugs(resp.Page.Items); got != "today-show,next-show" {
		t.Fatalf("items = %s", got)
	}
	if resp.Page.Number != 1 || resp.Page.Total != 2 {
		t.Fatalf("page = %+v", resp.Page)
	}
	if resp.Filter["city"] != 1 || resp.Filter["type"] != 0 {
		t.Fatalf("filter = %v", resp.Filter)
	}
	if got := slugs(resp.Menu.Tours); got != "spring" {
		t.Fatalf("menu tours = %s", got)
	}
}

func TestPublicArchive(t *testing.T) {
	h, _ := publicFixture()
	rec := call(t, h.Archive, http.MethodGet, "/v1/archive", "")
	resp := decode[struct {
		Events []slugItem `json:"events"`
	}](t, rec)
	if got := slugs(resp.Events); got != "past-show" {
		t.Fatalf("archive = %s", got)
	}
}

func TestPublicEventDetail(t *testing.T) {
	h, events := publicFixture()
	h.EventRepo = publicEvents{
		rows: events,
		push: map[uint64]*model.EventPush{1: {EventID: 1, Content: "sold out", IsActive: false}},
		ads:  map[uint64]*model.EventAdvertising{1: {EventID: 1, IsActive: true, Token: "erid"}},
	}

	rec := call(t, h.Event, http.MethodGet, "/", "", "slug", "past-show")
	if rec.Code != http.StatusOK {
		t.Fatalf("code = %d: %s", rec.Code, rec.Body)
	}
	resp := decode[struct {
		IsArchive   bool           `json:"is_archive"`
		Related     []slugItem     `json:"related_events"`
		Push        map[string]any `json:"push"`
		Advertising map[string]any `json:"advertising"`
	}](t, rec)
	if !resp.IsArchive {
		t.Fatal("past event not flagged as archive")
	}
	if resp.Push != nil {
		t.Fatalf("inactive push exposed: %v", resp.Push)
	}
	if resp.Advertising == nil || resp.Advertising["token"] != "erid" {
		t.Fatalf("advertising = %v", resp.Advertising)
	}
	if got := slugs(resp.Related); got != "today-show,next-show" {
		t.Fatalf("related = %s", got)
	}
}

func TestPublicEventStatusFlags(t *testing.T) {
	h, _ := publicFixture()
	if rec := call(t, h.Event, http.MethodGet, "/", "", "slug", "draft-show"); rec.Code != http.StatusNotFound {
		t.Fatalf("draft: code = %d", rec.Code)
	}
	rec := call(t, h.Event, http.MethodGet, "/", "", "slug", "stopped-show")
	resp := decode[map[string]any](t, rec)
	if resp["is_stopped"] != true || resp["is_archive"] != false {
		t.Fatalf("stopped: %v", resp)
	}
}

func TestPublicCalendar(t *testing.T) {
	h, _ := publicFixture()
	rec := call(t, h.Calendar, http.MethodGet, "/", "", "slug", "next-show")
	if rec.Code != http.StatusOK {
		t.Fatalf("code = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/calendar") {
		t.Fatalf("content type = %q", ct)
	}
	if cd := rec.Header().Get("Content-Disposition"); !strings.HasPrefix(cd, "attachment;") {
		t.Fatalf("disposition = %q", cd)
	}
	body := rec.Body.String()
	for _, want := range []string{"BEGIN:VCALENDAR", "DTSTART:20250620T160000Z", "X-WR-TIMEZONE:Europe/Moscow", "https://example.org/events/next-show"} {
		if !strings.Contains(body, want) {
			t.Errorf("calendar missing %q:\n%s", want, body)
		}
	}
}

func TestPublicTours(t *testing.T) {
	h, _ := publicFixture()
	rec := call(t, h.Tours, http.MethodGet, "/v1/tours", "")
	resp := decode[struct {
		Page struct {
			Items []slugItem `json:"items"`
		} `json:"page"`
	}](t, rec)
	if got := slugs(resp.Page.Items); got != "spring" {
		t.Fatalf("tours = %s", got)
	}
}

func TestPublicTourDetail(t *testing.T) {
	h, _ := publicFixture()
	rec := call(t, h.Tour, http.MethodGet, "/", "", "slug", "finished")
	if rec.Code != http.StatusOK {
		t.Fatalf("code = %d: %s", rec.Code, rec.Body)
	}
	resp := decode[struct {
		State    string     `json:"state"`
		Upcoming []slugItem `json:"upcoming_events"`
		Past     []slugItem `json:"past_events"`
		Others   []slugItem `json:"other_tours"`
	}](t, rec)
	if resp.State != "past" || len(resp.Upcoming) != 0 || slugs(resp.Past) != "past-show" {
		t.Fatalf("resp = %+v", resp)
	}
	if slugs(resp.Others) != "spring" {
		t.Fatalf("others = %s", slugs(resp.Others))
	}

	if rec := call(t, h.Tour, http.MethodGet, "/", "", "slug", "hidden"); rec.Code != http.StatusNotFound {
		t.Fatalf("inactive tour: code = %d", rec.Code)
	}
}

func TestPublicSiteLines(t *testing.T) {
	h, _ := publicFixture()
	rec := call(t, h.Site, http.MethodGet, "/v1/site", "")
	resp := decode[struct {
		CompanyName string   `json:"company_name"`
		Lines       []string `json:"company_details_lines"`
	}](t, rec)
	if resp.CompanyName != "Project" || strings.Join(resp.Lines, "|") != "line one|line two" {
		t.Fatalf("resp = %+v", resp)
	}
}

func TestPublicHome(t *testing.T) {
	h, _ := publicFixture()
	rec := call(t, h.Home, http.MethodGet, "/v1/home", "")
	resp := decode[struct {
		Banners   []map[string]any `json:"banners"`
		Events    []slugItem       `json:"events"`
		Questions []map[string]any `json:"questions"`
	}](t, rec)
	if len(resp.Banners) != 1 || slugs(resp.Events) != "today-show,next-show" || len(resp.Questions) != 1 {
		t.Fatalf("resp = %+v", resp)
	}
}
