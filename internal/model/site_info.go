package model

import (
	"strings"
	"time"
)

// Defaults used when the site_info row is first created.
const (
	DefaultCompanyName  = "Project"
	DefaultCompanyEmail = "info@project.ru"
)

// SiteInfo is the singleton row with company-wide contact and legal texts.
// CompanyDetails, PrivacyPolicy and TermsOfService are multi-line texts; the
// public site renders them line by line.
type SiteInfo struct {
	ID             uint64    `json:"id"`
	CompanyName    string    `json:"company_name"`
	Email          string    `json:"email"`
	VKLink         string    `json:"vk_link"`
	TelegramLink   string    `json:"telegram_link"`
	CompanyDetails string    `json:"company_details"`
	PrivacyPolicy  string    `json:"privacy_policy"`
	TermsOfService string    `json:"terms_of_service"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func (s *SiteInfo) CompanyDetailsLines() []string { return splitLines(s.CompanyDetails) }
func (s *SiteInfo) PrivacyPolicyLines() []string  { return splitLines(s.PrivacyPolicy) }
func (s *SiteInfo) TermsOfServiceLines() []string { return splitLines(s.TermsOfService) }

// splitLines returns the trimmed non-empty lines of text.
func splitLines(text string) []string {
	out := []string{}
	for _, line := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			out = append(out, line)
		}
	}
	return out
}
