package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
)

// Health is the liveness probe: it answers "ok" without touching
// dependencies.
func Health(c echo.Context) error {
	return c.String(http.StatusOK, "ok")
}

// Pinger is satisfied by *sql.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// HealthHandler checks the database and, when configured, Redis.
type HealthHandler struct {
	DB    Pinger
	Redis *redis.Client
}

type healthResp struct {
	Status   string            `json:"status"`
	Database string            `json:"database"`
	Cache    string            `json:"cache"`
	Details  map[string]string `json:"details,omitempty"`
}

// Check handles GET /health. It returns 503 when a configured dependency
// fails. Without a Redis client the cache is reported as disabled.
func (h *HealthHandler) Check(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 3*time.Second)
	defer cancel()

	resp := healthResp{Status: "ok", Database: "ok", Cache: "ok", Details: map[string]string{}}
	if err := h.DB.PingContext(ctx); err != nil {
		resp.Status, resp.Database = "error", "error"
		resp.Details["database"] = err.Error()
	}
	if h.Redis == nil {
		resp.Cache = "disabled"
	} else if err := probeRedis(ctx, h.Redis); err != nil {
		resp.Status, resp.Cache = "error", "error"
		resp.Details["cache"] = err.Error()
	}
	if len(resp.Details) == 0 {
		resp.Details = nil
	}
	if resp.Status != "ok" {
		return c.JSON(http.StatusServiceUnavailable, resp)
	}
	return c.JSON(http.StatusOK, resp)
}

// probeRedis writes and reads back a short-lived key.
func probeRedis(ctx context.Context, rdb *redis.Client) error {
	const key = "health:probe"
	want := time.Now().UTC().Format(time.RFC3339Nano)
	if err := rdb.Set(ctx, key, want, 10*time.Second).Err(); err != nil {
		return err
	}
	got, err := rdb.Get(ctx, key).Result()
	if err != nil {
		return err
	}
	if got != want {
		return errMismatch
	}
	return nil
}

var errMismatch = errors.New("cache returned a different value")
