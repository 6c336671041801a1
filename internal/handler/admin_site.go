package handler

import (
	"net/http"
	"net/mail"
	"strings"

	"github.com/labstack/echo/v4"
)

type siteReq struct {
	CompanyName    string `json:"company_name"`
	Email          string `json:"email"`
	VKLink         string `json:"vk_link"`
	TelegramLink   string `json:"telegram_link"`
	CompanyDetails string `json:"company_details"`
	PrivacyPolicy  string `json:"privacy_policy"`
	TermsOfService string `json:"terms_of_service"`
}

// GetSiteInfo handles GET /v1/admin/site. The row is created with defaults
// on first access.
func (h *AdminHandler) GetSiteInfo(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	s, err := h.SiteInfo.Get(ctx)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, s)
}

// UpdateSiteInfo handles PUT /v1/admin/site.
func (h *AdminHandler) UpdateSiteInfo(c echo.Context) error {
	var req siteReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	name := strings.TrimSpace(req.CompanyName)
	email := strings.TrimSpace(req.Email)
	if name == "" || email == "" {
		return badRequest(c, "company_name and email are required")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return badRequest(c, "invalid email")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	s, err := h.SiteInfo.Get(ctx)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	s.CompanyName = name
	s.Email = email
	s.VKLink = strings.TrimSpace(req.VKLink)
	s.TelegramLink = strings.TrimSpace(req.TelegramLink)
	s.CompanyDetails = req.CompanyDetails
	s.PrivacyPolicy = req.PrivacyPolicy
	s.TermsOfService = req.TermsOfService
	if err := h.SiteInfo.Update(ctx, s); err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, s)
}
