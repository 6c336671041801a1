package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/elemevent/site/internal/calendar"
	"github.com/elemevent/site/internal/listing"
	"github.com/elemevent/site/internal/model"
)

// PublicEventStore loads single events for the public site.
type PublicEventStore interface {
	GetPublicBySlug(ctx context.Context, slug string) (*model.Event, error)
	GetPush(ctx context.Context, eventID uint64) (*model.EventPush, error)
	GetAdvertising(ctx context.Context, eventID uint64) (*model.EventAdvertising, error)
}

// PublicTourStore loads single tours for the public site.
type PublicTourStore interface {
	GetActiveBySlug(ctx context.Context, slug string) (*model.Tour, error)
}

// FilterOptions lists the values offered by the event filters.
type FilterOptions interface {
	ListCities(ctx context.Context) ([]model.City, error)
	ListEventTypes(ctx context.Context) ([]model.EventType, error)
}

type BannerLister interface {
	ListActive(ctx context.Context) ([]model.Banner, error)
}

type SiteInfoReader interface {
	Get(ctx context.Context) (*model.SiteInfo, error)
}

// PublicHandler serves the read-only site API. Every page response carries
// the navigation menu.
type PublicHandler struct {
	Listing   *listing.Service
	EventRepo PublicEventStore
	TourRepo  PublicTourStore
	Filters   FilterOptions
	Banners   BannerLister
	Questions listing.QuestionStore
	SiteRepo  SiteInfoReader
	Zones     calendar.ZoneResolver
	BaseURL   string
	Log       zerolog.Logger
}

type homeResp struct {
	Banners   []model.Banner   `json:"banners"`
	Events    []*model.Event   `json:"events"`
	Tours     []*model.Tour    `json:"tours"`
	Questions []model.Question `json:"questions"`
	Menu      listing.Menu     `json:"menu"`
}

// Home handles GET /v1/home.
func (h *PublicHandler) Home(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	banners, err := h.Banners.ListActive(ctx)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	events, err := h.Listing.UpcomingEvents(ctx, listing.EventFilter{}, 0)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	tours, err := h.Listing.VisibleTours(ctx, listing.MenuToursLimit, 0)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	menu, err := h.Listing.Menu(ctx)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, homeResp{
		Banners:   banners,
		Events:    events,
		Tours:     tours,
		Questions: menu.Questions,
		Menu:      menu,
	})
}

type filterResp struct {
	City           uint64 `json:"city,omitempty"`
	EventType      uint64 `json:"type,omitempty"`
	AgeRestriction uint64 `json:"age,omitempty"`
}

type eventListResp struct {
	Page       listing.Page[*model.Event] `json:"page"`
	Filter     filterResp                 `json:"filter"`
	Cities     []model.City               `json:"cities"`
	EventTypes []model.EventType          `json:"event_types"`
	Menu       listing.Menu               `json:"menu"`
}

func (h *PublicHandler) filter(ctx context.Context, c echo.Context) (listing.EventFilter, error) {
	return h.Listing.ResolveFilter(ctx, listing.FilterQuery{
		City:           c.QueryParam("city"),
		EventType:      c.QueryParam("type"),
		AgeRestriction: c.QueryParam("age"),
	})
}

func (h *PublicHandler) filterOptions(ctx context.Context) ([]model.City, []model.EventType, error) {
	cities, err := h.Filters.ListCities(ctx)
	if err != nil {
		return nil, nil, err
	}
	types, err := h.Filters.ListEventTypes(ctx)
	if err != nil {
		return nil, nil, err
	}
	return cities, types, nil
}

// Events handles GET /v1/events: upcoming events, optionally filtered by
// city, type and age restriction, 12 per page.
func (h *PublicHandler) Events(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	f, err := h.filter(ctx, c)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	events, err := h.Listing.UpcomingEvents(ctx, f, 0)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	cities, types, err := h.filterOptions(ctx)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	menu, err := h.Listing.Menu(ctx)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, eventListResp{
		Page:       listing.Paginate(events, listing.ParsePage(c.QueryParam("page")), listing.EventsPerPage),
		Filter:     filterResp{City: f.CityID, EventType: f.EventTypeID, AgeRestriction: f.AgeRestrictionID},
		Cities:     cities,
		EventTypes: types,
		Menu:       menu,
	})
}

type archiveResp struct {
	Events     []*model.Event    `json:"events"`
	Filter     filterResp        `json:"filter"`
	Cities     []model.City      `json:"cities"`
	EventTypes []model.EventType `json:"event_types"`
	Menu       listing.Menu      `json:"menu"`
}

// Archive handles GET /v1/archive: past events, most recent first.
func (h *PublicHandler) Archive(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	f, err := h.filter(ctx, c)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	events, err := h.Listing.PastEvents(ctx, f)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	cities, types, err := h.filterOptions(ctx)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	menu, err := h.Listing.Menu(ctx)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, archiveResp{
		Events:     events,
		Filter:     filterResp{City: f.CityID, EventType: f.EventTypeID, AgeRestriction: f.AgeRestrictionID},
		Cities:     cities,
		EventTypes: types,
		Menu:       menu,
	})
}

type eventDetailResp struct {
	Event       *model.Event            `json:"event"`
	IsArchive   bool                    `json:"is_archive"`
	IsStopped   bool                    `json:"is_stopped"`
	IsCancelled bool                    `json:"is_cancelled"`
	Related     []*model.Event          `json:"related_events"`
	Push        *model.EventPush        `json:"push,omitempty"`
	Advertising *model.EventAdvertising `json:"advertising,omitempty"`
	Menu        listing.Menu            `json:"menu"`
}

// Event handles GET /v1/events/:slug. Drafts are not found; stopped and
// cancelled events are shown with their flag set.
func (h *PublicHandler) Event(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	ev, err := h.EventRepo.GetPublicBySlug(ctx, c.Param("slug"))
	if err != nil {
		return writeError(c, h.Log, err)
	}
	related, err := h.Listing.RelatedEvents(ctx, ev, listing.RelatedEventsLimit)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	push, err := h.EventRepo.GetPush(ctx, ev.ID)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	if push != nil && !push.IsActive {
		push = nil
	}
	ad, err := h.EventRepo.GetAdvertising(ctx, ev.ID)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	if ad != nil && !ad.IsActive {
		ad = nil
	}
	menu, err := h.Listing.Menu(ctx)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, eventDetailResp{
		Event:       ev,
		IsArchive:   ev.IsVisible() && h.Listing.IsPast(ev),
		IsStopped:   ev.IsStopped(),
		IsCancelled: ev.IsCancelled(),
		Related:     related,
		Push:        push,
		Advertising: ad,
		Menu:        menu,
	})
}

// Calendar handles GET /v1/events/:slug/calendar.ics.
func (h *PublicHandler) Calendar(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	ev, err := h.EventRepo.GetPublicBySlug(ctx, c.Param("slug"))
	if err != nil {
		return writeError(c, h.Log, err)
	}
	body := calendar.EventICS(ev, h.Zones, h.BaseURL, h.Listing.Now())
	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="`+calendar.FileName(ev)+`"`)
	return c.Blob(http.StatusOK, "text/calendar; charset=utf-8", []byte(body))
}

type tourListResp struct {
	Page listing.Page[*model.Tour] `json:"page"`
	Menu listing.Menu              `json:"menu"`
}

// Tours handles GET /v1/tours: visible tours, 9 per page.
func (h *PublicHandler) Tours(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	tours, err := h.Listing.VisibleTours(ctx, 0, 0)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	menu, err := h.Listing.Menu(ctx)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, tourListResp{
		Page: listing.Paginate(tours, listing.ParsePage(c.QueryParam("page")), listing.ToursPerPage),
		Menu: menu,
	})
}

type tourDetailResp struct {
	Tour            *model.Tour       `json:"tour"`
	Upcoming        []*model.Event    `json:"upcoming_events"`
	Past            []*model.Event    `json:"past_events"`
	State           listing.TourState `json:"state"`
	HasTicketsCloud bool              `json:"has_ticketscloud"`
	HasRadario      bool              `json:"has_radario"`
	OtherTours      []*model.Tour     `json:"other_tours"`
	Menu            listing.Menu      `json:"menu"`
}

// Tour handles GET /v1/tours/:slug. Inactive tours are not found.
func (h *PublicHandler) Tour(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	t, err := h.TourRepo.GetActiveBySlug(ctx, c.Param("slug"))
	if err != nil {
		return writeError(c, h.Log, err)
	}
	split, err := h.Listing.TourEvents(ctx, t)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	others, err := h.Listing.VisibleTours(ctx, listing.MenuToursLimit, t.ID)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	menu, err := h.Listing.Menu(ctx)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, tourDetailResp{
		Tour:            t,
		Upcoming:        split.Upcoming,
		Past:            split.Past,
		State:           split.State,
		HasTicketsCloud: split.HasTicketsCloud,
		HasRadario:      split.HasRadario,
		OtherTours:      others,
		Menu:            menu,
	})
}

// FAQ handles GET /v1/faq.
func (h *PublicHandler) FAQ(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	questions, err := h.Questions.List(ctx)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"questions": questions})
}

type siteResp struct {
	*model.SiteInfo
	CompanyDetailsLines []string `json:"company_details_lines"`
	PrivacyPolicyLines  []string `json:"privacy_policy_lines"`
	TermsOfServiceLines []string `json:"terms_of_service_lines"`
}

// Site handles GET /v1/site. The singleton is created on first access.
func (h *PublicHandler) Site(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	s, err := h.SiteRepo.Get(ctx)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, siteResp{
		SiteInfo:            s,
		CompanyDetailsLines: s.CompanyDetailsLines(),
		PrivacyPolicyLines:  s.PrivacyPolicyLines(),
		TermsOfServiceLines: s.TermsOfServiceLines(),
	})
}
