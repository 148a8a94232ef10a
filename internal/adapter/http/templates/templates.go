// Package templates renders the site's pages as templ components.
//
// The *_templ.go files are generated from the .templ sources; run
// `templ generate` after editing them.
package templates

//go:generate templ generate

import (
	"strconv"
	"strings"
	"time"

	"github.com/civicyouth/portal/internal/domain"
	"github.com/civicyouth/portal/internal/service"
)

// SiteName is shown in the header and page titles.
const SiteName = "Civic Youth Council"

type LoginData struct {
	Email string
	Error string
}

// SectionGroup is one block of the admin dashboard.
type SectionGroup struct {
	Section domain.Section
	Entries []*domain.Entry
}

type DashboardData struct {
	Email  string
	Groups []SectionGroup
	Notice string
	Error  string
}

// EntryFormData backs both the create and the edit form. ID is empty when
// creating.
type EntryFormData struct {
	ID      string
	Section domain.Section
	Input   service.EntryInput
	Error   string
}

func (d EntryFormData) heading() string {
	verb := "New"
	if d.ID != "" {
		verb = "Edit"
	}
	return verb + " " + strings.ToLower(d.Section.Label()) + " entry"
}

func (d EntryFormData) action() string {
	if d.ID != "" {
		return "/admin/entries/" + d.ID
	}
	return "/admin/" + string(d.Section)
}

func pageTitle(title string) string {
	if title == "" {
		return SiteName
	}
	return title + " · " + SiteName
}

func sectionPath(s domain.Section) string {
	return "/" + string(s)
}

func entryPath(e *domain.Entry) string {
	return "/" + string(e.Section) + "/" + e.Slug
}

func editPath(e *domain.Entry) string {
	return "/admin/entries/" + e.ID + "/edit"
}

func deletePath(e *domain.Entry) string {
	return "/admin/entries/" + e.ID + "/delete"
}

func newEntryPath(s domain.Section) string {
	return "/admin/" + string(s) + "/new"
}

func formatDate(t time.Time) string {
	return t.Format("2 Jan 2006")
}

func formatStamp(t time.Time) string {
	return t.Format("2006-01-02 15:04")
}

// cardMeta is the muted line above an entry card.
func cardMeta(e *domain.Entry, withSection bool) string {
	if withSection {
		return e.Section.Label() + " · " + formatDate(e.CreatedAt)
	}
	return formatDate(e.CreatedAt)
}

func entryStatus(e *domain.Entry) string {
	if e.Published {
		return "published"
	}
	return "draft"
}

func emptySection(s domain.Section) string {
	return "No " + strings.ToLower(s.Label()) + " yet."
}

func maxLen(n int) string {
	return strconv.Itoa(n)
}
