package http

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/civicyouth/portal/internal/adapter/http/templates"
	"github.com/civicyouth/portal/internal/domain"
	"github.com/civicyouth/portal/internal/infrastructure/logger"
	"github.com/civicyouth/portal/internal/service"
)

// HomeEntries is how many entries the home page shows.
const HomeEntries = 6

type ContentService interface {
	Create(ctx context.Context, section domain.Section, in service.EntryInput) (*domain.Entry, error)
	Update(ctx context.Context, id string, in service.EntryInput) (*domain.Entry, error)
	Delete(ctx context.Context, id string) error
	Get(ctx context.Context, id string) (*domain.Entry, error)
	GetPublished(ctx context.Context, section domain.Section, slug string) (*domain.Entry, error)
	ListSection(ctx context.Context, section domain.Section, publishedOnly bool) ([]*domain.Entry, error)
	Latest(ctx context.Context, limit int) ([]*domain.Entry, error)
}

type Handlers struct {
	contentSvc ContentService
}

func NewHandlers(contentSvc ContentService) *Handlers {
	return &Handlers{contentSvc: contentSvc}
}

func (h *Handlers) Home() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		entries, err := h.contentSvc.Latest(r.Context(), HomeEntries)
		if err != nil {
			logger.Error.Printf("home list error: %v", err)
			entries = nil
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_ = templates.Home(entries).Render(r.Context(), w)
	}
}

func (h *Handlers) SectionPage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		section, err := domain.ParseSection(r.PathValue("section"))
		if err != nil {
			renderNotFound(w, r)
			return
		}

		entries, err := h.contentSvc.ListSection(r.Context(), section, true)
		if err != nil {
			logger.Error.Printf("list section %s: %v", section, err)
			renderError(w, r, http.StatusInternalServerError, "Could not load this page.")
			return
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_ = templates.Section(section, entries).Render(r.Context(), w)
	}
}

func (h *Handlers) EntryPage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		section, err := domain.ParseSection(r.PathValue("section"))
		if err != nil {
			renderNotFound(w, r)
			return
		}

		entry, err := h.contentSvc.GetPublished(r.Context(), section, r.PathValue("slug"))
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				renderNotFound(w, r)
				return
			}
			logger.Error.Printf("load entry %s/%s: %v", section, logger.SanitizeForLog(r.PathValue("slug")), err)
			renderError(w, r, http.StatusInternalServerError, "Could not load this page.")
			return
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_ = templates.Entry(entry).Render(r.Context(), w)
	}
}

var dashboardNotices = map[string]string{
	"password": "Password updated.",
	"saved":    "Entry saved.",
	"deleted":  "Entry deleted.",
}

var dashboardErrors = map[string]string{
	"wrong-password": "Current password is incorrect.",
	"weak-password":  "New password must be at least 8 characters with an uppercase letter, a lowercase letter, a number, and a special character.",
}

func (h *Handlers) Dashboard() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data := templates.DashboardData{
			Notice: dashboardNotices[r.URL.Query().Get("notice")],
			Error:  dashboardErrors[r.URL.Query().Get("error")],
		}
		if user := UserFromContext(r.Context()); user != nil {
			data.Email = user.Email
		}

		for _, section := range domain.Sections {
			entries, err := h.contentSvc.ListSection(r.Context(), section, false)
			if err != nil {
				logger.Error.Printf("dashboard list %s: %v", section, err)
				entries = nil
			}
			data.Groups = append(data.Groups, templates.SectionGroup{Section: section, Entries: entries})
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_ = templates.Dashboard(data).Render(r.Context(), w)
	}
}

func (h *Handlers) NewEntryPage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		section, err := domain.ParseSection(r.PathValue("section"))
		if err != nil {
			renderNotFound(w, r)
			return
		}
		renderEntryForm(w, r, http.StatusOK, templates.EntryFormData{Section: section})
	}
}

func (h *Handlers) CreateEntry() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		section, err := domain.ParseSection(r.PathValue("section"))
		if err != nil {
			renderNotFound(w, r)
			return
		}

		in := entryInputFromForm(r)
		if _, err := h.contentSvc.Create(r.Context(), section, in); err != nil {
			h.entryFormError(w, r, templates.EntryFormData{Section: section, Input: in}, err)
			return
		}

		http.Redirect(w, r, "/admin?notice=saved", http.StatusSeeOther)
	}
}

func (h *Handlers) EditEntryPage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		entry, err := h.contentSvc.Get(r.Context(), r.PathValue("id"))
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				renderNotFound(w, r)
				return
			}
			logger.Error.Printf("load entry %s: %v", logger.SanitizeForLog(r.PathValue("id")), err)
			renderError(w, r, http.StatusInternalServerError, "Could not load the entry.")
			return
		}

		renderEntryForm(w, r, http.StatusOK, templates.EntryFormData{
			ID:      entry.ID,
			Section: entry.Section,
			Input: service.EntryInput{
				Title:     entry.Title,
				Slug:      entry.Slug,
				Summary:   entry.Summary,
				Body:      entry.Body,
				Published: entry.Published,
			},
		})
	}
}

func (h *Handlers) UpdateEntry() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		in := entryInputFromForm(r)

		entry, err := h.contentSvc.Update(r.Context(), id, in)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				renderNotFound(w, r)
				return
			}
			data := templates.EntryFormData{ID: id, Input: in}
			if existing, getErr := h.contentSvc.Get(r.Context(), id); getErr == nil {
				data.Section = existing.Section
			}
			h.entryFormError(w, r, data, err)
			return
		}

		logger.Debug.Printf("entry %s now at /%s/%s", entry.ID, entry.Section, entry.Slug)
		http.Redirect(w, r, "/admin?notice=saved", http.StatusSeeOther)
	}
}

func (h *Handlers) DeleteEntry() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := h.contentSvc.Delete(r.Context(), r.PathValue("id")); err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				renderNotFound(w, r)
				return
			}
			logger.Error.Printf("delete entry %s: %v", logger.SanitizeForLog(r.PathValue("id")), err)
			renderError(w, r, http.StatusInternalServerError, "Could not delete the entry.")
			return
		}

		http.Redirect(w, r, "/admin?notice=deleted", http.StatusSeeOther)
	}
}

// entryFormError re-renders the form for validation failures and falls back
// to an error page for anything else.
func (h *Handlers) entryFormError(w http.ResponseWriter, r *http.Request, data templates.EntryFormData, err error) {
	switch {
	case errors.Is(err, domain.ErrSlugTaken):
		data.Error = "That slug is already used in this section."
	case errors.Is(err, domain.ErrInvalidEntry):
		data.Error = validationMessage(err)
	default:
		logger.Error.Printf("save entry: %v", err)
		renderError(w, r, http.StatusInternalServerError, "Could not save the entry.")
		return
	}
	renderEntryForm(w, r, http.StatusUnprocessableEntity, data)
}

func validationMessage(err error) string {
	msg := strings.TrimPrefix(err.Error(), domain.ErrInvalidEntry.Error()+": ")
	if msg == "" {
		return "The entry is not valid."
	}
	return strings.ToUpper(msg[:1]) + msg[1:] + "."
}

func entryInputFromForm(r *http.Request) service.EntryInput {
	return service.EntryInput{
		Title:     r.FormValue("title"),
		Slug:      r.FormValue("slug"),
		Summary:   r.FormValue("summary"),
		Body:      r.FormValue("body"),
		Published: r.FormValue("published") != "",
	}
}

func renderEntryForm(w http.ResponseWriter, r *http.Request, status int, data templates.EntryFormData) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_ = templates.EntryForm(data).Render(r.Context(), w)
}

func renderNotFound(w http.ResponseWriter, r *http.Request) {
	renderError(w, r, http.StatusNotFound, "The page you are looking for does not exist.")
}

func renderError(w http.ResponseWriter, r *http.Request, status int, message string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_ = templates.ErrorPage(status, message).Render(r.Context(), w)
}
