package handler

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/elemevent/site/internal/listing"
	"github.com/elemevent/site/internal/media"
	"github.com/elemevent/site/internal/model"
	"github.com/elemevent/site/internal/queue"
	"github.com/elemevent/site/internal/repository"
	"github.com/elemevent/site/internal/timezone"
)

// adminEvents implements the event methods the tests reach; the embedded
// interface panics on anything else.
type adminEvents struct {
	EventAdminStore
	rows      map[uint64]*model.Event
	created   *model.Event
	deleteErr error
	statusIDs []uint64
	status    model.EventStatus
	push      *model.EventPush
	image     string
}

func (f *adminEvents) GetByID(_ context.Context, id uint64) (*model.Event, error) {
	if ev, ok := f.rows[id]; ok {
		return ev, nil
	}
	return nil, repository.ErrEventNotFound
}

func (f *adminEvents) Create(_ context.Context, ev *model.Event) error {
	ev.ID = 100
	ev.City = moscow
	f.created = ev
	f.rows[ev.ID] = ev
	return nil
}

func (f *adminEvents) Delete(_ context.Context, id uint64) ([]string, error) {
	if f.deleteErr != nil {
		return nil, f.deleteErr
	}
	ev, ok := f.rows[id]
	if !ok {
		return nil, repository.ErrEventNotFound
	}
	delete(f.rows, id)
	return []string{ev.Poster, ev.Cover}, nil
}

func (f *adminEvents) SetStatus(_ context.Context, ids []uint64, st model.EventStatus) (int64, error) {
	f.statusIDs, f.status = ids, st
	return int64(len(ids)), nil
}

func (f *adminEvents) SetImage(_ context.Context, id uint64, field repository.ImageField, path string) (string, error) {
	ev, ok := f.rows[id]
	if !ok {
		return "", repository.ErrEventNotFound
	}
	old := ev.Poster
	ev.Poster = path
	f.image = path
	return old, nil
}

func (f *adminEvents) UpsertPush(_ context.Context, p *model.EventPush) error {
	f.push = p
	return nil
}

func (f *adminEvents) GetPush(context.Context, uint64) (*model.EventPush, error) {
	return f.push, nil
}

type publisher struct{ sent []queue.EventPushMessage }

func (p *publisher) PublishEventPush(_ context.Context, m queue.EventPushMessage) error {
	p.sent = append(p.sent, m)
	return nil
}

type adminCities struct {
	CityAdminStore
	created *model.City
}

func (f *adminCities) Create(_ context.Context, c *model.City) error {
	c.ID = 7
	f.created = c
	return nil
}

type adminQuestions struct {
	QuestionAdminStore
	moveErr error
	up      bool
}

func (f *adminQuestions) Move(_ context.Context, _ uint64, up bool) error {
	f.up = up
	return f.moveErr
}

type adminTours struct {
	TourAdminStore
	rows   []repository.TourSummary
	events map[uint64][]*model.Event
	linked []uint64
}

func (f *adminTours) List(context.Context) ([]repository.TourSummary, error) { return f.rows, nil }

func (f *adminTours) ActiveEventsByTour(_ context.Context, ids []uint64) (map[uint64][]*model.Event, error) {
	return listingTours{events: f.events}.ActiveEventsByTour(context.Background(), ids)
}

func (f *adminTours) LinkEvents(_ context.Context, _ uint64, ids []uint64) error {
	f.linked = ids
	return nil
}

func adminFixture(t *testing.T) (*AdminHandler, *adminEvents, *media.LocalStore) {
	t.Helper()
	store := media.NewLocalStore(t.TempDir(), zerolog.Nop())
	events := &adminEvents{rows: map[uint64]*model.Event{
		1: event(1, "past-show", model.StatusActive, "2025-06-14"),
		2: event(2, "next-show", model.StatusActive, "2025-06-20"),
	}}
	return &AdminHandler{
		Events:  events,
		Listing: newListing(nil, listingTours{}),
		Media:   store,
		Zones:   timezone.NewResolver(),
		Log:     zerolog.Nop(),
	}, events, store
}

func TestCreateEventDefaults(t *testing.T) {
	h, events, _ := adminFixture(t)
	rec := call(t, h.CreateEvent, http.MethodPost, "/", `{"title":" Big Show ","city_id":1,"date":"2025-07-01","time":"20:30"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("code = %d: %s", rec.Code, rec.Body)
	}
	ev := events.created
	if ev.Title != "Big Show" || ev.Status != model.StatusDraft || ev.TicketSystem != model.TicketDirect || ev.ArchiveDelay != 3 {
		t.Fatalf("event = %+v", ev)
	}
	resp := decode[map[string]any](t, rec)
	if resp["section"] != string(listing.SectionHidden) || resp["status_label"] != "Draft" {
		t.Fatalf("resp = %v", resp)
	}
}

func TestCreateEventValidation(t *testing.T) {
	h, _, _ := adminFixture(t)
	for name, body := range map[string]string{
		"no title":      `{"city_id":1,"date":"2025-07-01","time":"20:30"}`,
		"no city":       `{"title":"x","date":"2025-07-01","time":"20:30"}`,
		"bad date":      `{"title":"x","city_id":1,"date":"01.07.2025","time":"20:30"}`,
		"bad delay":     `{"title":"x","city_id":1,"date":"2025-07-01","time":"20:30","archive_delay":5}`,
		"bad status":    `{"title":"x","city_id":1,"date":"2025-07-01","time":"20:30","status":"GONE"}`,
		"bad ticketing": `{"title":"x","city_id":1,"date":"2025-07-01","time":"20:30","ticket_system":"KASSIR"}`,
	} {
		if rec := call(t, h.CreateEvent, http.MethodPost, "/", body); rec.Code != http.StatusBadRequest {
			t.Errorf("%s: code = %d", name, rec.Code)
		}
	}
}

func TestDeleteEvent(t *testing.T) {
	h, events, store := adminFixture(t)
	poster, err := store.Save(media.DirEventCards, "a.jpg", strings.NewReader("img"))
	if err != nil {
		t.Fatal(err)
	}
	events.rows[2].Poster = poster

	if rec := call(t, h.DeleteEvent, http.MethodDelete, "/", "", "id", "2"); rec.Code != http.StatusNoContent {
		t.Fatalf("code = %d", rec.Code)
	}
	if _, err := os.Stat(filepath.Join(store.Root(), poster)); !os.IsNotExist(err) {
		t.Fatalf("poster not released: %v", err)
	}

	events.deleteErr = repository.ErrInUse
	rec := call(t, h.DeleteEvent, http.MethodDelete, "/", "", "id", "1")
	if rec.Code != http.StatusConflict || !strings.Contains(rec.Body.String(), "tour") {
		t.Fatalf("linked: code = %d body = %s", rec.Code, rec.Body)
	}
}

func TestEventAction(t *testing.T) {
	h, events, _ := adminFixture(t)
	rec := call(t, h.EventAction, http.MethodPost, "/", `{"action":"cancel","ids":[1,2]}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("code = %d", rec.Code)
	}
	if events.status != model.StatusCancel || len(events.statusIDs) != 2 {
		t.Fatalf("status = %s ids = %v", events.status, events.statusIDs)
	}
	if rec := call(t, h.EventAction, http.MethodPost, "/", `{"action":"archive","ids":[1]}`); rec.Code != http.StatusBadRequest {
		t.Fatalf("unknown action: code = %d", rec.Code)
	}
}

func multipartFile(t *testing.T, name string, data []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", name)
	if err != nil {
		t.Fatal(err)
	}
	part.Write(data)
	w.Close()
	req := httptest.NewRequest(http.MethodPost, "/", &buf)
	req.Header.Set(echo.HeaderContentType, w.FormDataContentType())
	return req
}

func TestUploadEventPosterReplacesFile(t *testing.T) {
	h, events, store := adminFixture(t)
	old, err := store.Save(media.DirEventCards, "old.png", strings.NewReader("old"))
	if err != nil {
		t.Fatal(err)
	}
	events.rows[1].Poster = old

	rec := callReq(t, h.UploadEventPoster, multipartFile(t, "new.JPG", []byte("new")), "id", "1")
	if rec.Code != http.StatusOK {
		t.Fatalf("code = %d: %s", rec.Code, rec.Body)
	}
	if !strings.HasPrefix(events.image, media.DirEventCards+"/") || !strings.HasSuffix(events.image, ".jpg") {
		t.Fatalf("new path = %q", events.image)
	}
	if _, err := os.Stat(filepath.Join(store.Root(), events.image)); err != nil {
		t.Fatalf("new file missing: %v", err)
	}
	if _, err := os.Stat(filepath.Join(store.Root(), old)); !os.IsNotExist(err) {
		t.Fatalf("old file kept: %v", err)
	}
}

func TestUploadMissingEventAbortsFile(t *testing.T) {
	h, _, store := adminFixture(t)
	rec := callReq(t, h.UploadEventPoster, multipartFile(t, "x.jpg", []byte("x")), "id", "99")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("code = %d", rec.Code)
	}
	entries, _ := os.ReadDir(filepath.Join(store.Root(), filepath.FromSlash(media.DirEventCards)))
	if len(entries) != 0 {
		t.Fatalf("orphaned upload: %d files", len(entries))
	}

	rec = callReq(t, h.UploadEventPoster, multipartFile(t, "x.exe", []byte("x")), "id", "1")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("non image: code = %d", rec.Code)
	}
}

func TestPutPushPublishes(t *testing.T) {
	h, events, _ := adminFixture(t)
	pub := &publisher{}
	h.Pushes = pub

	rec := call(t, h.PutPush, http.MethodPut, "/", `{"content":" <b>Moved</b> "}`, "id", "2")
	if rec.Code != http.StatusOK {
		t.Fatalf("code = %d: %s", rec.Code, rec.Body)
	}
	if events.push == nil || !events.push.IsActive || events.push.Content != "<b>Moved</b>" {
		t.Fatalf("push = %+v", events.push)
	}
	if len(pub.sent) != 1 {
		t.Fatalf("sent = %d", len(pub.sent))
	}
	m := pub.sent[0]
	if m.Slug != "next-show" || m.StartsAt != "2025-06-20T19:00:00+03:00" {
		t.Fatalf("message = %+v", m)
	}

	rec = call(t, h.PutPush, http.MethodPut, "/", `{"content":"off","is_active":false}`, "id", "2")
	if rec.Code != http.StatusOK || len(pub.sent) != 1 {
		t.Fatalf("inactive push published: code = %d sent = %d", rec.Code, len(pub.sent))
	}
	if rec := call(t, h.PutPush, http.MethodPut, "/", `{"content":"  "}`, "id", "2"); rec.Code != http.StatusBadRequest {
		t.Fatalf("empty content: code = %d", rec.Code)
	}
}

func TestCreateCityTimezone(t *testing.T) {
	h, _, _ := adminFixture(t)
	cities := &adminCities{}
	h.Cities = cities

	rec := call(t, h.CreateCity, http.MethodPost, "/", `{"name":"Kazan"}`)
	if rec.Code != http.StatusCreated || cities.created.Timezone != timezone.DefaultZone {
		t.Fatalf("code = %d city = %+v", rec.Code, cities.created)
	}
	rec = call(t, h.CreateCity, http.MethodPost, "/", `{"name":"Nowhere","timezone":"Mars/Olympus"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("bad zone: code = %d", rec.Code)
	}
}

func TestMoveQuestion(t *testing.T) {
	h, _, _ := adminFixture(t)
	qs := &adminQuestions{}
	h.Questions = qs

	if rec := call(t, h.MoveQuestion, http.MethodPost, "/", "", "id", "3", "dir", "up"); rec.Code != http.StatusNoContent || !qs.up {
		t.Fatalf("code = %d up = %v", rec.Code, qs.up)
	}
	qs.moveErr = repository.ErrConflict
	if rec := call(t, h.MoveQuestion, http.MethodPost, "/", "", "id", "3", "dir", "down"); rec.Code != http.StatusConflict {
		t.Fatalf("edge: code = %d", rec.Code)
	}
	if rec := call(t, h.MoveQuestion, http.MethodPost, "/", "", "id", "3", "dir", "left"); rec.Code != http.StatusBadRequest {
		t.Fatalf("bad direction: code = %d", rec.Code)
	}
}

func TestListToursSection(t *testing.T) {
	h, events, _ := adminFixture(t)
	now := time.Now()
	tours := &adminTours{
		rows: []repository.TourSummary{
			{Tour: &model.Tour{ID: 1, IsActive: true, CreatedAt: now}, EventsCount: 2},
			{Tour: &model.Tour{ID: 2, IsActive: true, CreatedAt: now}, EventsCount: 1},
			{Tour: &model.Tour{ID: 3, IsActive: false, CreatedAt: now}, EventsCount: 1},
		},
		events: map[uint64][]*model.Event{
			1: {events.rows[1], events.rows[2]},
			2: {events.rows[1]},
			3: {events.rows[2]},
		},
	}
	h.Tours = tours

	rec := call(t, h.ListTours, http.MethodGet, "/", "")
	resp := decode[struct {
		Items []struct {
			ID      uint64 `json:"id"`
			Count   int    `json:"events_count"`
			Section string `json:"section"`
		} `json:"items"`
	}](t, rec)
	want := []string{"listing", "hidden", "hidden"}
	if len(resp.Items) != len(want) {
		t.Fatalf("items = %+v", resp.Items)
	}
	for i, it := range resp.Items {
		if it.Section != want[i] {
			t.Errorf("tour %d: section = %s, want %s", it.ID, it.Section, want[i])
		}
	}
	if resp.Items[0].Count != 2 {
		t.Errorf("count = %d", resp.Items[0].Count)
	}

	if rec := call(t, h.LinkTourEvents, http.MethodPost, "/", `{"event_ids":[1,2]}`, "id", "1"); rec.Code != http.StatusNoContent || len(tours.linked) != 2 {
		t.Fatalf("link: code = %d linked = %v", rec.Code, tours.linked)
	}
}
