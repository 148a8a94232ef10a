package port

import (
	"context"

	"github.com/civicyouth/portal/internal/domain"
)

type ContentStore interface {
	SaveEntry(ctx context.Context, e *domain.Entry) error
	UpdateEntry(ctx context.Context, e *domain.Entry) error
	DeleteEntry(ctx context.Context, id string) error
	GetEntry(ctx context.Context, id string) (*domain.Entry, error)
	GetEntryBySlug(ctx context.Context, section domain.Section, slug string) (*domain.Entry, error)
	ListEntries(ctx context.Context, section domain.Section, publishedOnly bool) ([]*domain.Entry, error)
	ListLatestPublished(ctx context.Context, limit int) ([]*domain.Entry, error)
}
