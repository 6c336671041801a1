// Package handler exposes the HTTP handlers of the public site API and the
// admin back-office. Handlers depend on small store interfaces satisfied by
// the repository package.
package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/elemevent/site/internal/repository"
)

// requestTimeout bounds the database work of one request.
const requestTimeout = 5 * time.Second

func reqCtx(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), requestTimeout)
}

// parseID reads the :id path parameter.
func parseID(c echo.Context) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	return id, err == nil && id != 0
}

func badRequest(c echo.Context, msg string) error {
	return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
}

var notFoundErrs = []error{
	repository.ErrEventNotFound,
	repository.ErrTourNotFound,
	repository.ErrBannerNotFound,
	repository.ErrQuestionNotFound,
	repository.ErrCityNotFound,
	repository.ErrEventTypeNotFound,
	repository.ErrAgeRestrictionNotFound,
	repository.ErrUserNotFound,
}

// writeError maps repository sentinels to status codes. Anything else is
// logged and reported as 500 without details.
func writeError(c echo.Context, log zerolog.Logger, err error) error {
	for _, nf := range notFoundErrs {
		if errors.Is(err, nf) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": nf.Error()})
		}
	}
	switch {
	case errors.Is(err, repository.ErrInUse):
		return c.JSON(http.StatusConflict, echo.Map{"error": "record is in use"})
	case errors.Is(err, repository.ErrConflict):
		return c.JSON(http.StatusConflict, echo.Map{"error": "conflict"})
	case errors.Is(err, repository.ErrDuplicate):
		return c.JSON(http.StatusConflict, echo.Map{"error": "duplicate record"})
	case errors.Is(err, repository.ErrInvalidReference):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "referenced record does not exist"})
	case errors.Is(err, context.DeadlineExceeded):
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "timeout"})
	}
	log.Error().Err(err).Str("method", c.Request().Method).Str("path", c.Path()).Msg("request failed")
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
}

// idsReq is the body of bulk actions.
type idsReq struct {
	Action string   `json:"action"`
	IDs    []uint64 `json:"ids"`
}

func bindIDs(c echo.Context) (idsReq, error) {
	var req idsReq
	if err := c.Bind(&req); err != nil {
		return req, errors.New("invalid body")
	}
	req.Action = strings.ToLower(strings.TrimSpace(req.Action))
	ids := req.IDs[:0]
	for _, id := range req.IDs {
		if id != 0 {
			ids = append(ids, id)
		}
	}
	req.IDs = ids
	if len(req.IDs) == 0 {
		return req, errors.New("ids required")
	}
	return req, nil
}

// optString trims s and turns an empty result into nil.
func optString(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
