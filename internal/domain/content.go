package domain

import (
	"fmt"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/google/uuid"
	"golang.org/x/text/unicode/norm"
)

type Section string

const (
	SectionNews      Section = "news"
	SectionCourses   Section = "courses"
	SectionEvents    Section = "events"
	SectionGalleries Section = "galleries"
	SectionStaff     Section = "staff"
	SectionPartners  Section = "partners"
)

// Sections lists every public section in navigation order.
var Sections = []Section{
	SectionNews,
	SectionCourses,
	SectionEvents,
	SectionGalleries,
	SectionStaff,
	SectionPartners,
}

var sectionLabels = map[Section]string{
	SectionNews:      "News",
	SectionCourses:   "Courses",
	SectionEvents:    "Events",
	SectionGalleries: "Galleries",
	SectionStaff:     "Staff",
	SectionPartners:  "Partners",
}

func ParseSection(s string) (Section, error) {
	section := Section(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := sectionLabels[section]; !ok {
		return "", fmt.Errorf("%w: %q", ErrInvalidSection, s)
	}
	return section, nil
}

func (s Section) Label() string {
	if label, ok := sectionLabels[s]; ok {
		return label
	}
	return string(s)
}

const (
	MaxTitleLength   = 200
	MaxSummaryLength = 500
	MaxSlugLength    = 80
)

type Entry struct {
	ID        string
	Section   Section
	Slug      string
	Title     string
	Summary   string
	Body      string
	Published bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

func NewEntry(section Section, title, slug, summary, body string, published bool) *Entry {
	now := time.Now().UTC()
	e := &Entry{
		ID:        uuid.NewString(),
		Section:   section,
		Title:     strings.TrimSpace(title),
		Summary:   strings.TrimSpace(summary),
		Body:      body,
		Published: published,
		CreatedAt: now,
		UpdatedAt: now,
	}
	e.SetSlug(slug)
	return e
}

// SetSlug normalises slug, falling back to the title when it is blank.
func (e *Entry) SetSlug(slug string) {
	if strings.TrimSpace(slug) == "" {
		slug = e.Title
	}
	e.Slug = Slugify(slug)
}

func (e *Entry) Validate() error {
	if _, err := ParseSection(string(e.Section)); err != nil {
		return err
	}
	titleLen := utf8.RuneCountInString(e.Title)
	if titleLen == 0 {
		return fmt.Errorf("%w: title is required", ErrInvalidEntry)
	}
	if titleLen > MaxTitleLength {
		return fmt.Errorf("%w: title must be at most %d characters", ErrInvalidEntry, MaxTitleLength)
	}
	if utf8.RuneCountInString(e.Summary) > MaxSummaryLength {
		return fmt.Errorf("%w: summary must be at most %d characters", ErrInvalidEntry, MaxSummaryLength)
	}
	if e.Slug == "" {
		return fmt.Errorf("%w: slug must contain letters or digits", ErrInvalidEntry)
	}
	return nil
}

// Slugify lowercases s, strips accents and joins the remaining runs of
// letters and digits with single hyphens.
func Slugify(s string) string {
	var sb strings.Builder
	sb.Grow(len(s))

	pendingHyphen := false
	for _, r := range norm.NFD.String(s) {
		if unicode.Is(unicode.Mn, r) {
			continue
		}
		r = unicode.ToLower(r)
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			if pendingHyphen && sb.Len() > 0 {
				// a hyphen must be followed by at least one character
				if sb.Len()+2 > MaxSlugLength {
					break
				}
				sb.WriteByte('-')
			}
			pendingHyphen = false
			sb.WriteRune(r)
			if sb.Len() >= MaxSlugLength {
				break
			}
			continue
		}
		pendingHyphen = true
	}
	return strings.TrimSuffix(sb.String(), "-")
}
