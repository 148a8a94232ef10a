package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/civicyouth/portal/internal/domain"
	"github.com/civicyouth/portal/internal/infrastructure/logger"
	"github.com/civicyouth/portal/internal/port"
)

// EntryInput carries the editable fields of an entry as submitted by the
// admin form.
type EntryInput struct {
	Title     string
	Slug      string
	Summary   string
	Body      string
	Published bool
}

type ContentService struct {
	store port.ContentStore
	now   func() time.Time
}

func NewContentService(store port.ContentStore) *ContentService {
	return &ContentService{
		store: store,
		now:   time.Now,
	}
}

func (s *ContentService) Create(ctx context.Context, section domain.Section, in EntryInput) (*domain.Entry, error) {
	entry := domain.NewEntry(section, in.Title, in.Slug, in.Summary, in.Body, in.Published)
	now := s.now().UTC()
	entry.CreatedAt = now
	entry.UpdatedAt = now

	if err := entry.Validate(); err != nil {
		return nil, err
	}

	if err := s.store.SaveEntry(ctx, entry); err != nil {
		if !errors.Is(err, domain.ErrSlugTaken) {
			logger.Error.Printf("failed to save entry %s/%s: %v", section, entry.Slug, err)
		}
		return nil, fmt.Errorf("save entry: %w", err)
	}

	logger.Info.Printf("entry created: id=%s, section=%s, slug=%s, published=%t", entry.ID, section, entry.Slug, entry.Published)
	return entry, nil
}

func (s *ContentService) Update(ctx context.Context, id string, in EntryInput) (*domain.Entry, error) {
	entry, err := s.store.GetEntry(ctx, id)
	if err != nil {
		return nil, err
	}

	entry.Title = strings.TrimSpace(in.Title)
	entry.Summary = strings.TrimSpace(in.Summary)
	entry.Body = in.Body
	entry.Published = in.Published
	entry.SetSlug(in.Slug)
	entry.UpdatedAt = s.now().UTC()

	if err := entry.Validate(); err != nil {
		return nil, err
	}

	if err := s.store.UpdateEntry(ctx, entry); err != nil {
		return nil, fmt.Errorf("update entry: %w", err)
	}

	logger.Info.Printf("entry updated: id=%s, slug=%s, published=%t", entry.ID, entry.Slug, entry.Published)
	return entry, nil
}

func (s *ContentService) Delete(ctx context.Context, id string) error {
	if err := s.store.DeleteEntry(ctx, id); err != nil {
		return err
	}
	logger.Info.Printf("entry deleted: id=%s", id)
	return nil
}

func (s *ContentService) Get(ctx context.Context, id string) (*domain.Entry, error) {
	return s.store.GetEntry(ctx, id)
}

// GetPublished returns the entry at section/slug. Drafts are reported as
// domain.ErrNotFound.
func (s *ContentService) GetPublished(ctx context.Context, section domain.Section, slug string) (*domain.Entry, error) {
	entry, err := s.store.GetEntryBySlug(ctx, section, slug)
	if err != nil {
		return nil, err
	}
	if !entry.Published {
		return nil, domain.ErrNotFound
	}
	return entry, nil
}

func (s *ContentService) ListSection(ctx context.Context, section domain.Section, publishedOnly bool) ([]*domain.Entry, error) {
	return s.store.ListEntries(ctx, section, publishedOnly)
}

func (s *ContentService) Latest(ctx context.Context, limit int) ([]*domain.Entry, error) {
	if limit <= 0 {
		return nil, nil
	}
	return s.store.ListLatestPublished(ctx, limit)
}
