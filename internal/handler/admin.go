package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/elemevent/site/internal/listing"
	"github.com/elemevent/site/internal/media"
	"github.com/elemevent/site/internal/model"
	"github.com/elemevent/site/internal/queue"
	"github.com/elemevent/site/internal/repository"
)

// EventAdminStore is the back-office view of events and the rows they own.
type EventAdminStore interface {
	List(ctx context.Context, q repository.AdminQuery) ([]*model.Event, error)
	GetByID(ctx context.Context, id uint64) (*model.Event, error)
	Create(ctx context.Context, ev *model.Event) error
	Update(ctx context.Context, ev *model.Event) error
	Delete(ctx context.Context, id uint64) ([]string, error)
	SetStatus(ctx context.Context, ids []uint64, status model.EventStatus) (int64, error)
	SetImage(ctx context.Context, id uint64, field repository.ImageField, path string) (string, error)
	Duplicate(ctx context.Context, id uint64, copier repository.ImageCopier, posterDir, coverDir string) (*model.Event, error)
	GetPush(ctx context.Context, eventID uint64) (*model.EventPush, error)
	UpsertPush(ctx context.Context, p *model.EventPush) error
	DeletePush(ctx context.Context, eventID uint64) error
	GetAdvertising(ctx context.Context, eventID uint64) (*model.EventAdvertising, error)
	UpsertAdvertising(ctx context.Context, a *model.EventAdvertising) error
	DeleteAdvertising(ctx context.Context, eventID uint64) error
	TourIDs(ctx context.Context, eventID uint64) ([]uint64, error)
}

// TourAdminStore is the back-office view of tours and their event links.
type TourAdminStore interface {
	List(ctx context.Context) ([]repository.TourSummary, error)
	ActiveEventsByTour(ctx context.Context, ids []uint64) (map[uint64][]*model.Event, error)
	Events(ctx context.Context, tourID uint64) ([]*model.Event, error)
	GetByID(ctx context.Context, id uint64) (*model.Tour, error)
	Create(ctx context.Context, t *model.Tour) error
	Update(ctx context.Context, t *model.Tour) error
	SetImage(ctx context.Context, id uint64, field repository.ImageField, path string) (string, error)
	Delete(ctx context.Context, id uint64) ([]string, error)
	SetActive(ctx context.Context, ids []uint64, active bool) (int64, error)
	LinkEvents(ctx context.Context, tourID uint64, eventIDs []uint64) error
	UnlinkEvents(ctx context.Context, tourID uint64, eventIDs []uint64) error
	Duplicate(ctx context.Context, id uint64, copier repository.ImageCopier, posterDir, coverDir string) (*model.Tour, error)
}

type BannerAdminStore interface {
	List(ctx context.Context) ([]model.Banner, error)
	GetByID(ctx context.Context, id uint64) (*model.Banner, error)
	Create(ctx context.Context, b *model.Banner) error
	Update(ctx context.Context, b *model.Banner) error
	SetCover(ctx context.Context, id uint64, path string) (string, error)
	Delete(ctx context.Context, id uint64) (string, error)
	SetActive(ctx context.Context, ids []uint64, active bool) (int64, error)
	Duplicate(ctx context.Context, id uint64, copier repository.ImageCopier, dir string) (*model.Banner, error)
}

type QuestionAdminStore interface {
	List(ctx context.Context) ([]model.Question, error)
	GetByID(ctx context.Context, id uint64) (*model.Question, error)
	Create(ctx context.Context, q *model.Question) error
	Update(ctx context.Context, q *model.Question) error
	Delete(ctx context.Context, id uint64) error
	Move(ctx context.Context, id uint64, up bool) error
}

type CityAdminStore interface {
	ListWithUsage(ctx context.Context) ([]repository.CityUsage, error)
	GetByID(ctx context.Context, id uint64) (*model.City, error)
	Create(ctx context.Context, c *model.City) error
	Update(ctx context.Context, c *model.City) error
	Delete(ctx context.Context, id uint64) error
}

type SiteInfoStore interface {
	Get(ctx context.Context) (*model.SiteInfo, error)
	Update(ctx context.Context, s *model.SiteInfo) error
}

// Zones validates and resolves city timezones.
type Zones interface {
	Validate(name string) error
	Resolve(name string) (*time.Location, error)
}

// PushPublisher announces active push notices.
type PushPublisher interface {
	PublishEventPush(ctx context.Context, m queue.EventPushMessage) error
}

// AdminHandler bundles the stores the back-office manipulates. Pushes may be
// nil when the queue is disabled.
type AdminHandler struct {
	Events    EventAdminStore
	Tours     TourAdminStore
	Banners   BannerAdminStore
	Questions QuestionAdminStore
	Cities    CityAdminStore
	SiteInfo  SiteInfoStore
	Listing   *listing.Service
	Media     media.Store
	Zones     Zones
	Pushes    PushPublisher
	Log       zerolog.Logger
}

// uploadImage stores the multipart "file" field under dir and hands the
// new path to set. The replaced file is removed only after set succeeded;
// when set fails the new file is removed instead.
func (h *AdminHandler) uploadImage(c echo.Context, dir string, set func(ctx context.Context, path string) (string, error)) error {
	fh, err := c.FormFile("file")
	if err != nil {
		return badRequest(c, "file required")
	}
	if !media.IsImage(fh.Filename) {
		return badRequest(c, "unsupported image type")
	}
	src, err := fh.Open()
	if err != nil {
		return badRequest(c, "cannot read upload")
	}
	defer src.Close()

	ctx, cancel := reqCtx(c)
	defer cancel()

	ch := media.Begin(h.Media, h.Log)
	path, err := ch.Save(dir, fh.Filename, src)
	if err != nil {
		if errors.Is(err, media.ErrNotImage) {
			return badRequest(c, "unsupported image type")
		}
		return writeError(c, h.Log, err)
	}
	old, err := set(ctx, path)
	if err != nil {
		ch.Abort()
		return writeError(c, h.Log, err)
	}
	ch.Release(old)
	ch.Commit()
	return c.JSON(http.StatusOK, echo.Map{"path": path})
}

// releaseFiles removes files of a record that was just deleted.
func (h *AdminHandler) releaseFiles(paths ...string) {
	ch := media.Begin(h.Media, h.Log)
	ch.Release(paths...)
	ch.Commit()
}
