package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/elemevent/site/internal/media"
	"github.com/elemevent/site/internal/model"
)

type bannerReq struct {
	Link     string `json:"link"`
	Position *int   `json:"position"`
	IsActive *bool  `json:"is_active"`
}

func (r bannerReq) apply(b *model.Banner) {
	b.Link = strings.TrimSpace(r.Link)
	if r.Position != nil && *r.Position >= 0 {
		b.Position = *r.Position
	}
	if r.IsActive != nil {
		b.IsActive = *r.IsActive
	}
}

// ListBanners handles GET /v1/admin/banners.
func (h *AdminHandler) ListBanners(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	banners, err := h.Banners.List(ctx)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": banners})
}

// CreateBanner handles POST /v1/admin/banners. Without a position the
// banner goes after the last one.
func (h *AdminHandler) CreateBanner(c echo.Context) error {
	var req bannerReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	b := &model.Banner{IsActive: true}
	req.apply(b)

	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Banners.Create(ctx, b); err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusCreated, b)
}

// UpdateBanner handles PUT /v1/admin/banners/:id.
func (h *AdminHandler) UpdateBanner(c echo.Context) error {
	id, ok := parseID(c)
	if !ok {
		return badRequest(c, "invalid id")
	}
	var req bannerReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	b, err := h.Banners.GetByID(ctx, id)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	req.apply(b)
	if err := h.Banners.Update(ctx, b); err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, b)
}

// DeleteBanner handles DELETE /v1/admin/banners/:id.
func (h *AdminHandler) DeleteBanner(c echo.Context) error {
	id, ok := parseID(c)
	if !ok {
		return badRequest(c, "invalid id")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	cover, err := h.Banners.Delete(ctx, id)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	h.releaseFiles(cover)
	return c.NoContent(http.StatusNoContent)
}

// BannerAction handles POST /v1/admin/banners/actions.
func (h *AdminHandler) BannerAction(c echo.Context) error {
	return h.activeAction(c, h.Banners.SetActive)
}

// DuplicateBanner handles POST /v1/admin/banners/:id/duplicate.
func (h *AdminHandler) DuplicateBanner(c echo.Context) error {
	id, ok := parseID(c)
	if !ok {
		return badRequest(c, "invalid id")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	ch := media.Begin(h.Media, h.Log)
	dup, err := h.Banners.Duplicate(ctx, id, ch, media.DirBanners)
	if err != nil {
		ch.Abort()
		return writeError(c, h.Log, err)
	}
	ch.Commit()
	return c.JSON(http.StatusCreated, dup)
}

// UploadBannerCover handles POST /v1/admin/banners/:id/cover.
func (h *AdminHandler) UploadBannerCover(c echo.Context) error {
	id, ok := parseID(c)
	if !ok {
		return badRequest(c, "invalid id")
	}
	return h.uploadImage(c, media.DirBanners, func(ctx context.Context, path string) (string, error) {
		return h.Banners.SetCover(ctx, id, path)
	})
}
