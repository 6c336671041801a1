package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/elemevent/site/internal/listing"
	"github.com/elemevent/site/internal/media"
	"github.com/elemevent/site/internal/model"
	"github.com/elemevent/site/internal/repository"
)

type tourReq struct {
	Title    string `json:"title"`
	Slug     string `json:"slug"`
	IsActive *bool  `json:"is_active"`
}

type adminTour struct {
	repository.TourSummary
	Section listing.Section `json:"section"`
}

// ListTours handles GET /v1/admin/tours. Each row carries the section the
// tour currently appears in, computed from its ACTIVE events.
func (h *AdminHandler) ListTours(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	tours, err := h.Tours.List(ctx)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	ids := make([]uint64, 0, len(tours))
	for _, t := range tours {
		ids = append(ids, t.ID)
	}
	byTour, err := h.Tours.ActiveEventsByTour(ctx, ids)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	out := make([]adminTour, 0, len(tours))
	for _, t := range tours {
		out = append(out, adminTour{TourSummary: t, Section: h.Listing.TourSection(t.Tour, byTour[t.ID])})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": out})
}

// GetTour handles GET /v1/admin/tours/:id and includes every linked event.
func (h *AdminHandler) GetTour(c echo.Context) error {
	id, ok := parseID(c)
	if !ok {
		return badRequest(c, "invalid id")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	t, err := h.Tours.GetByID(ctx, id)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	events, err := h.Tours.Events(ctx, id)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	var active []*model.Event
	items := make([]adminEvent, 0, len(events))
	for _, ev := range events {
		if ev.IsVisible() {
			active = append(active, ev)
		}
		items = append(items, h.adminEvent(ev))
	}
	return c.JSON(http.StatusOK, echo.Map{
		"tour":    t,
		"section": h.Listing.TourSection(t, active),
		"events":  items,
	})
}

func (r tourReq) apply(t *model.Tour) bool {
	t.Title = strings.TrimSpace(r.Title)
	if r.IsActive != nil {
		t.IsActive = *r.IsActive
	}
	return t.Title != ""
}

// CreateTour handles POST /v1/admin/tours.
func (h *AdminHandler) CreateTour(c echo.Context) error {
	var req tourReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	t := &model.Tour{IsActive: true, Slug: strings.TrimSpace(req.Slug)}
	if !req.apply(t) {
		return badRequest(c, "title is required")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Tours.Create(ctx, t); err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusCreated, t)
}

// UpdateTour handles PUT /v1/admin/tours/:id. The slug never changes.
func (h *AdminHandler) UpdateTour(c echo.Context) error {
	id, ok := parseID(c)
	if !ok {
		return badRequest(c, "invalid id")
	}
	var req tourReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	t, err := h.Tours.GetByID(ctx, id)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	if !req.apply(t) {
		return badRequest(c, "title is required")
	}
	if err := h.Tours.Update(ctx, t); err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, t)
}

// DeleteTour handles DELETE /v1/admin/tours/:id. Linked events stay.
func (h *AdminHandler) DeleteTour(c echo.Context) error {
	id, ok := parseID(c)
	if !ok {
		return badRequest(c, "invalid id")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	paths, err := h.Tours.Delete(ctx, id)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	h.releaseFiles(paths...)
	return c.NoContent(http.StatusNoContent)
}

type linkReq struct {
	EventIDs []uint64 `json:"event_ids"`
}

// LinkTourEvents handles POST /v1/admin/tours/:id/events. Links that
// already exist are left alone.
func (h *AdminHandler) LinkTourEvents(c echo.Context) error {
	return h.changeLinks(c, h.Tours.LinkEvents)
}

// UnlinkTourEvents handles DELETE /v1/admin/tours/:id/events.
func (h *AdminHandler) UnlinkTourEvents(c echo.Context) error {
	return h.changeLinks(c, h.Tours.UnlinkEvents)
}

func (h *AdminHandler) changeLinks(c echo.Context, apply func(context.Context, uint64, []uint64) error) error {
	id, ok := parseID(c)
	if !ok {
		return badRequest(c, "invalid id")
	}
	var req linkReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	if len(req.EventIDs) == 0 {
		return badRequest(c, "event_ids required")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := apply(ctx, id, req.EventIDs); err != nil {
		return writeError(c, h.Log, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// TourAction handles POST /v1/admin/tours/actions with
// {"action": "activate|deactivate", "ids": [...]}.
func (h *AdminHandler) TourAction(c echo.Context) error {
	return h.activeAction(c, h.Tours.SetActive)
}

func (h *AdminHandler) activeAction(c echo.Context, set func(context.Context, []uint64, bool) (int64, error)) error {
	req, err := bindIDs(c)
	if err != nil {
		return badRequest(c, err.Error())
	}
	var active bool
	switch req.Action {
	case "activate":
		active = true
	case "deactivate":
	default:
		return badRequest(c, "unknown action")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	n, err := set(ctx, req.IDs, active)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"updated": n, "is_active": active})
}

// DuplicateTour handles POST /v1/admin/tours/:id/duplicate. The copy is
// inactive and keeps the event links.
func (h *AdminHandler) DuplicateTour(c echo.Context) error {
	id, ok := parseID(c)
	if !ok {
		return badRequest(c, "invalid id")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	ch := media.Begin(h.Media, h.Log)
	dup, err := h.Tours.Duplicate(ctx, id, ch, media.DirTourCards, media.DirTourCovers)
	if err != nil {
		ch.Abort()
		return writeError(c, h.Log, err)
	}
	ch.Commit()
	return c.JSON(http.StatusCreated, dup)
}

// UploadTourPoster handles POST /v1/admin/tours/:id/poster.
func (h *AdminHandler) UploadTourPoster(c echo.Context) error {
	return h.uploadTourImage(c, repository.FieldPoster, media.DirTourCards)
}

// UploadTourCover handles POST /v1/admin/tours/:id/cover.
func (h *AdminHandler) UploadTourCover(c echo.Context) error {
	return h.uploadTourImage(c, repository.FieldCover, media.DirTourCovers)
}

func (h *AdminHandler) uploadTourImage(c echo.Context, field repository.ImageField, dir string) error {
	id, ok := parseID(c)
	if !ok {
		return badRequest(c, "invalid id")
	}
	return h.uploadImage(c, dir, func(ctx context.Context, path string) (string, error) {
		return h.Tours.SetImage(ctx, id, field, path)
	})
}
