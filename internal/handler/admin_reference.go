package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/elemevent/site/internal/model"
	"github.com/elemevent/site/internal/repository"
	"github.com/elemevent/site/internal/timezone"
)

type cityReq struct {
	Name     string `json:"name"`
	Timezone string `json:"timezone"`
}

// toCity validates the name and the zone. A blank zone becomes the default.
func (h *AdminHandler) toCity(req cityReq) (*model.City, string) {
	c := &model.City{Name: strings.TrimSpace(req.Name), Timezone: strings.TrimSpace(req.Timezone)}
	if c.Name == "" {
		return nil, "name is required"
	}
	if c.Timezone == "" {
		c.Timezone = timezone.DefaultZone
	}
	if err := h.Zones.Validate(c.Timezone); err != nil {
		return nil, "unknown timezone"
	}
	return c, ""
}

// ListCities handles GET /v1/admin/cities. Rows report how many events use
// each city.
func (h *AdminHandler) ListCities(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	cities, err := h.Cities.ListWithUsage(ctx)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": cities})
}

// CreateCity handles POST /v1/admin/cities.
func (h *AdminHandler) CreateCity(c echo.Context) error {
	var req cityReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	city, msg := h.toCity(req)
	if city == nil {
		return badRequest(c, msg)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Cities.Create(ctx, city); err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusCreated, city)
}

// UpdateCity handles PUT /v1/admin/cities/:id. Changing the zone moves the
// archival instant of every event held there.
func (h *AdminHandler) UpdateCity(c echo.Context) error {
	id, ok := parseID(c)
	if !ok {
		return badRequest(c, "invalid id")
	}
	var req cityReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	city, msg := h.toCity(req)
	if city == nil {
		return badRequest(c, msg)
	}
	city.ID = id

	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Cities.Update(ctx, city); err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, city)
}

// DeleteCity handles DELETE /v1/admin/cities/:id. Cities with events answer
// 409.
func (h *AdminHandler) DeleteCity(c echo.Context) error {
	id, ok := parseID(c)
	if !ok {
		return badRequest(c, "invalid id")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Cities.Delete(ctx, id); err != nil {
		return writeError(c, h.Log, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// LabelAdminStore manages a name-only lookup table.
type LabelAdminStore interface {
	List(ctx context.Context) ([]repository.Label, error)
	GetByID(ctx context.Context, id uint64) (*repository.Label, error)
	Create(ctx context.Context, name string) (uint64, error)
	Rename(ctx context.Context, id uint64, name string) error
	Delete(ctx context.Context, id uint64) error
}

// LabelHandler serves event types and age restrictions, one instance each.
type LabelHandler struct {
	Store LabelAdminStore
	Log   zerolog.Logger
}

type labelReq struct {
	Name string `json:"name"`
}

func bindLabel(c echo.Context) (string, bool) {
	var req labelReq
	if err := c.Bind(&req); err != nil {
		return "", false
	}
	name := strings.TrimSpace(req.Name)
	return name, name != ""
}

func (h *LabelHandler) List(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	items, err := h.Store.List(ctx)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

func (h *LabelHandler) Create(c echo.Context) error {
	name, ok := bindLabel(c)
	if !ok {
		return badRequest(c, "name is required")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	id, err := h.Store.Create(ctx, name)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusCreated, repository.Label{ID: id, Name: name})
}

func (h *LabelHandler) Update(c echo.Context) error {
	id, ok := parseID(c)
	if !ok {
		return badRequest(c, "invalid id")
	}
	name, ok := bindLabel(c)
	if !ok {
		return badRequest(c, "name is required")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Store.Rename(ctx, id, name); err != nil {
		return writeError(c, h.Log, err)
	}
	l, err := h.Store.GetByID(ctx, id)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, l)
}

// Delete answers 409 while events still reference the row.
func (h *LabelHandler) Delete(c echo.Context) error {
	id, ok := parseID(c)
	if !ok {
		return badRequest(c, "invalid id")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Store.Delete(ctx, id); err != nil {
		return writeError(c, h.Log, err)
	}
	return c.NoContent(http.StatusNoContent)
}
