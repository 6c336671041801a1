package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/elemevent/site/internal/model"
)

var errTitleContent = errors.New("title and content are required")

type questionReq struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

func (r questionReq) apply(q *model.Question) error {
	q.Title = strings.TrimSpace(r.Title)
	q.Content = strings.TrimSpace(r.Content)
	if q.Title == "" || q.Content == "" {
		return errTitleContent
	}
	return nil
}

// ListQuestions handles GET /v1/admin/questions.
func (h *AdminHandler) ListQuestions(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	qs, err := h.Questions.List(ctx)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": qs})
}

// CreateQuestion handles POST /v1/admin/questions. New questions go last.
func (h *AdminHandler) CreateQuestion(c echo.Context) error {
	var req questionReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	q := &model.Question{}
	if err := req.apply(q); err != nil {
		return badRequest(c, err.Error())
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Questions.Create(ctx, q); err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusCreated, q)
}

// UpdateQuestion handles PUT /v1/admin/questions/:id.
func (h *AdminHandler) UpdateQuestion(c echo.Context) error {
	id, ok := parseID(c)
	if !ok {
		return badRequest(c, "invalid id")
	}
	var req questionReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	q, err := h.Questions.GetByID(ctx, id)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	if err := req.apply(q); err != nil {
		return badRequest(c, err.Error())
	}
	if err := h.Questions.Update(ctx, q); err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, q)
}

// DeleteQuestion handles DELETE /v1/admin/questions/:id.
func (h *AdminHandler) DeleteQuestion(c echo.Context) error {
	id, ok := parseID(c)
	if !ok {
		return badRequest(c, "invalid id")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Questions.Delete(ctx, id); err != nil {
		return writeError(c, h.Log, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// MoveQuestion handles POST /v1/admin/questions/:id/move/:dir with dir
// "up" or "down". Moving past either end answers 409.
func (h *AdminHandler) MoveQuestion(c echo.Context) error {
	id, ok := parseID(c)
	if !ok {
		return badRequest(c, "invalid id")
	}
	var up bool
	switch c.Param("dir") {
	case "up":
		up = true
	case "down":
	default:
		return badRequest(c, "direction must be up or down")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Questions.Move(ctx, id, up); err != nil {
		return writeError(c, h.Log, err)
	}
	return c.NoContent(http.StatusNoContent)
}
