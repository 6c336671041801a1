package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/elemevent/site/internal/listing"
	"github.com/elemevent/site/internal/media"
	"github.com/elemevent/site/internal/model"
	"github.com/elemevent/site/internal/repository"
	queue_publisher "github.com/elemevent/site/internal/service"
)

type eventReq struct {
	Title               string  `json:"title"`
	Slug                string  `json:"slug"` // honoured on create only
	CityID              uint64  `json:"city_id"`
	Date                string  `json:"date"`
	Time                string  `json:"time"`
	Venue               string  `json:"venue"`
	Address             string  `json:"address"`
	EventTypeID         uint64  `json:"event_type_id"`
	AgeRestrictionID    uint64  `json:"age_restriction_id"`
	Description         *string `json:"description"`
	TicketSystem        string  `json:"ticket_system"`
	TicketLink          *string `json:"ticket_link"`
	TicketsCloudEventID *string `json:"ticketscloud_event_id"`
	TicketsCloudToken   *string `json:"ticketscloud_token"`
	RadarioKey          *string `json:"radario_key"`
	VKLink              *string `json:"vk_link"`
	ArchiveDelay        *int    `json:"archive_delay"`
	Status              string  `json:"status"`
}

// toEvent validates the request and builds the event it describes.
func (r eventReq) toEvent() (*model.Event, error) {
	title := strings.TrimSpace(r.Title)
	if title == "" {
		return nil, errors.New("title is required")
	}
	if r.CityID == 0 {
		return nil, errors.New("city_id is required")
	}
	date, err := model.ParseDate(r.Date)
	if err != nil {
		return nil, err
	}
	tod, err := model.ParseTimeOfDay(r.Time)
	if err != nil {
		return nil, err
	}
	ev := &model.Event{
		Title:               title,
		City:                model.City{ID: r.CityID},
		Date:                date,
		Time:                tod,
		Venue:               strings.TrimSpace(r.Venue),
		Address:             strings.TrimSpace(r.Address),
		Description:         optString(r.Description),
		TicketSystem:        model.TicketDirect,
		TicketLink:          optString(r.TicketLink),
		TicketsCloudEventID: optString(r.TicketsCloudEventID),
		TicketsCloudToken:   optString(r.TicketsCloudToken),
		RadarioKey:          optString(r.RadarioKey),
		VKLink:              optString(r.VKLink),
		ArchiveDelay:        model.DefaultArchiveDelay,
		Status:              model.StatusDraft,
	}
	if r.EventTypeID != 0 {
		ev.EventType = &model.EventType{ID: r.EventTypeID}
	}
	if r.AgeRestrictionID != 0 {
		ev.AgeRestriction = &model.AgeRestriction{ID: r.AgeRestrictionID}
	}
	if ts := model.TicketSystem(strings.ToUpper(strings.TrimSpace(r.TicketSystem))); ts != "" {
		if !ts.Valid() {
			return nil, errors.New("invalid ticket_system")
		}
		ev.TicketSystem = ts
	}
	if r.ArchiveDelay != nil {
		if !model.ValidArchiveDelay(*r.ArchiveDelay) {
			return nil, errors.New("invalid archive_delay")
		}
		ev.ArchiveDelay = *r.ArchiveDelay
	}
	if st := model.EventStatus(strings.ToUpper(strings.TrimSpace(r.Status))); st != "" {
		if !st.Valid() {
			return nil, errors.New("invalid status")
		}
		ev.Status = st
	}
	return ev, nil
}

type adminEvent struct {
	*model.Event
	Section     listing.Section `json:"section"`
	StatusLabel string          `json:"status_label"`
}

func (h *AdminHandler) adminEvent(ev *model.Event) adminEvent {
	return adminEvent{Event: ev, Section: h.Listing.Section(ev), StatusLabel: ev.Status.Label()}
}

// ListEvents handles GET /v1/admin/events?status=&city=&q=.
func (h *AdminHandler) ListEvents(c echo.Context) error {
	q := repository.AdminQuery{Search: c.QueryParam("q")}
	if st := model.EventStatus(strings.ToUpper(c.QueryParam("status"))); st.Valid() {
		q.Status = st
	}
	if id, err := strconv.ParseUint(c.QueryParam("city"), 10, 64); err == nil {
		q.CityID = id
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	events, err := h.Events.List(ctx, q)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	out := make([]adminEvent, 0, len(events))
	for _, ev := range events {
		out = append(out, h.adminEvent(ev))
	}
	return c.JSON(http.StatusOK, echo.Map{"items": out})
}

type eventDetail struct {
	adminEvent
	TourIDs     []uint64                `json:"tour_ids"`
	Push        *model.EventPush        `json:"push"`
	Advertising *model.EventAdvertising `json:"advertising"`
}

// GetEvent handles GET /v1/admin/events/:id.
func (h *AdminHandler) GetEvent(c echo.Context) error {
	id, ok := parseID(c)
	if !ok {
		return badRequest(c, "invalid id")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	ev, err := h.Events.GetByID(ctx, id)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	tours, err := h.Events.TourIDs(ctx, id)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	push, err := h.Events.GetPush(ctx, id)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	ad, err := h.Events.GetAdvertising(ctx, id)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, eventDetail{adminEvent: h.adminEvent(ev), TourIDs: tours, Push: push, Advertising: ad})
}

// CreateEvent handles POST /v1/admin/events. The slug is generated from the
// title unless one is given.
func (h *AdminHandler) CreateEvent(c echo.Context) error {
	var req eventReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	ev, err := req.toEvent()
	if err != nil {
		return badRequest(c, err.Error())
	}
	ev.Slug = strings.TrimSpace(req.Slug)

	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Events.Create(ctx, ev); err != nil {
		return writeError(c, h.Log, err)
	}
	created, err := h.Events.GetByID(ctx, ev.ID)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusCreated, h.adminEvent(created))
}

// UpdateEvent handles PUT /v1/admin/events/:id. The slug and images are
// kept; a slug in the body is ignored.
func (h *AdminHandler) UpdateEvent(c echo.Context) error {
	id, ok := parseID(c)
	if !ok {
		return badRequest(c, "invalid id")
	}
	var req eventReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	ev, err := req.toEvent()
	if err != nil {
		return badRequest(c, err.Error())
	}
	ev.ID = id

	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Events.Update(ctx, ev); err != nil {
		return writeError(c, h.Log, err)
	}
	updated, err := h.Events.GetByID(ctx, id)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, h.adminEvent(updated))
}

// DeleteEvent handles DELETE /v1/admin/events/:id. Events linked to a tour
// answer 409.
func (h *AdminHandler) DeleteEvent(c echo.Context) error {
	id, ok := parseID(c)
	if !ok {
		return badRequest(c, "invalid id")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	paths, err := h.Events.Delete(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrInUse) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "event is part of a tour"})
		}
		return writeError(c, h.Log, err)
	}
	h.releaseFiles(paths...)
	return c.NoContent(http.StatusNoContent)
}

var statusActions = map[string]model.EventStatus{
	"activate": model.StatusActive,
	"draft":    model.StatusDraft,
	"stop":     model.StatusStop,
	"cancel":   model.StatusCancel,
}

// EventAction handles POST /v1/admin/events/actions with
// {"action": "activate|draft|stop|cancel", "ids": [...]}.
func (h *AdminHandler) EventAction(c echo.Context) error {
	req, err := bindIDs(c)
	if err != nil {
		return badRequest(c, err.Error())
	}
	status, ok := statusActions[req.Action]
	if !ok {
		return badRequest(c, "unknown action")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	n, err := h.Events.SetStatus(ctx, req.IDs, status)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"updated": n, "status": status})
}

// DuplicateEvent handles POST /v1/admin/events/:id/duplicate.
func (h *AdminHandler) DuplicateEvent(c echo.Context) error {
	id, ok := parseID(c)
	if !ok {
		return badRequest(c, "invalid id")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	ch := media.Begin(h.Media, h.Log)
	dup, err := h.Events.Duplicate(ctx, id, ch, media.DirEventCards, media.DirEventCovers)
	if err != nil {
		ch.Abort()
		return writeError(c, h.Log, err)
	}
	ch.Commit()
	return c.JSON(http.StatusCreated, h.adminEvent(dup))
}

// UploadEventPoster handles POST /v1/admin/events/:id/poster.
func (h *AdminHandler) UploadEventPoster(c echo.Context) error {
	return h.uploadEventImage(c, repository.FieldPoster, media.DirEventCards)
}

// UploadEventCover handles POST /v1/admin/events/:id/cover.
func (h *AdminHandler) UploadEventCover(c echo.Context) error {
	return h.uploadEventImage(c, repository.FieldCover, media.DirEventCovers)
}

func (h *AdminHandler) uploadEventImage(c echo.Context, field repository.ImageField, dir string) error {
	id, ok := parseID(c)
	if !ok {
		return badRequest(c, "invalid id")
	}
	return h.uploadImage(c, dir, func(ctx context.Context, path string) (string, error) {
		return h.Events.SetImage(ctx, id, field, path)
	})
}

type pushReq struct {
	Content  string `json:"content"`
	IsActive *bool  `json:"is_active"`
}

// PutPush handles PUT /v1/admin/events/:id/push. Saving an active notice
// publishes an event.push message; a publish failure is logged and does not
// fail the request.
func (h *AdminHandler) PutPush(c echo.Context) error {
	id, ok := parseID(c)
	if !ok {
		return badRequest(c, "invalid id")
	}
	var req pushReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	content := strings.TrimSpace(req.Content)
	if content == "" {
		return badRequest(c, "content is required")
	}
	p := &model.EventPush{EventID: id, Content: content, IsActive: req.IsActive == nil || *req.IsActive}

	ctx, cancel := reqCtx(c)
	defer cancel()

	ev, err := h.Events.GetByID(ctx, id)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	if err := h.Events.UpsertPush(ctx, p); err != nil {
		return writeError(c, h.Log, err)
	}
	if p.IsActive && h.Pushes != nil {
		loc, _ := h.Zones.Resolve(ev.City.Timezone)
		msg := queue_publisher.PushMessage(ev, p.Content, loc)
		if err := h.Pushes.PublishEventPush(context.WithoutCancel(ctx), msg); err != nil {
			h.Log.Warn().Err(err).Uint64("event_id", id).Msg("publish event push")
		}
	}
	saved, err := h.Events.GetPush(ctx, id)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, saved)
}

// DeletePush handles DELETE /v1/admin/events/:id/push.
func (h *AdminHandler) DeletePush(c echo.Context) error {
	id, ok := parseID(c)
	if !ok {
		return badRequest(c, "invalid id")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	if err := h.Events.DeletePush(ctx, id); err != nil {
		return writeError(c, h.Log, err)
	}
	return c.NoContent(http.StatusNoContent)
}

type advertisingReq struct {
	IsActive       bool    `json:"is_active"`
	Token          string  `json:"token"`
	AdvertiserName string  `json:"advertiser_name"`
	AdvertiserINN  string  `json:"advertiser_inn"`
	AdvertiserOGRN *string `json:"advertiser_ogrn"`
	AdditionalInfo string  `json:"additional_info"`
}

// PutAdvertising handles PUT /v1/admin/events/:id/advertising. An active
// disclosure needs the token, advertiser name and INN.
func (h *AdminHandler) PutAdvertising(c echo.Context) error {
	id, ok := parseID(c)
	if !ok {
		return badRequest(c, "invalid id")
	}
	var req advertisingReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	a := &model.EventAdvertising{
		EventID:        id,
		IsActive:       req.IsActive,
		Token:          strings.TrimSpace(req.Token),
		AdvertiserName: strings.TrimSpace(req.AdvertiserName),
		AdvertiserINN:  strings.TrimSpace(req.AdvertiserINN),
		AdvertiserOGRN: optString(req.AdvertiserOGRN),
		AdditionalInfo: strings.TrimSpace(req.AdditionalInfo),
	}
	if a.IsActive && (a.Token == "" || a.AdvertiserName == "" || a.AdvertiserINN == "") {
		return badRequest(c, "token, advertiser_name and advertiser_inn are required")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Events.UpsertAdvertising(ctx, a); err != nil {
		return writeError(c, h.Log, err)
	}
	saved, err := h.Events.GetAdvertising(ctx, id)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, saved)
}

// DeleteAdvertising handles DELETE /v1/admin/events/:id/advertising.
func (h *AdminHandler) DeleteAdvertising(c echo.Context) error {
	id, ok := parseID(c)
	if !ok {
		return badRequest(c, "invalid id")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	if err := h.Events.DeleteAdvertising(ctx, id); err != nil {
		return writeError(c, h.Log, err)
	}
	return c.NoContent(http.StatusNoContent)
}
