package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/civicyouth/portal/internal/domain"
	"github.com/civicyouth/portal/internal/port"
)

const entryColumns = `id, section, slug, title, summary, body, published, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func (s *Store) SaveEntry(ctx context.Context, e *domain.Entry) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO entries (`+entryColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, string(e.Section), e.Slug, e.Title, e.Summary, e.Body, e.Published, e.CreatedAt, e.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrSlugTaken
		}
		return fmt.Errorf("insert entry: %w", err)
	}
	return nil
}

func (s *Store) UpdateEntry(ctx context.Context, e *domain.Entry) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE entries SET slug = ?, title = ?, summary = ?, body = ?, published = ?, updated_at = ? WHERE id = ?`,
		e.Slug, e.Title, e.Summary, e.Body, e.Published, e.UpdatedAt, e.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrSlugTaken
		}
		return fmt.Errorf("update entry: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (s *Store) DeleteEntry(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM entries WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete entry: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (s *Store) GetEntry(ctx context.Context, id string) (*domain.Entry, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+entryColumns+` FROM entries WHERE id = ?`, id)
	return scanEntry(row)
}

func (s *Store) GetEntryBySlug(ctx context.Context, section domain.Section, slug string) (*domain.Entry, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+entryColumns+` FROM entries WHERE section = ? AND slug = ?`, string(section), slug)
	return scanEntry(row)
}

func (s *Store) ListEntries(ctx context.Context, section domain.Section, publishedOnly bool) ([]*domain.Entry, error) {
	query := `SELECT ` + entryColumns + ` FROM entries WHERE section = ?`
	if publishedOnly {
		query += ` AND published = 1`
	}
	query += ` ORDER BY created_at DESC, id`

	rows, err := s.db.QueryContext(ctx, query, string(section))
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	return collectEntries(rows)
}

func (s *Store) ListLatestPublished(ctx context.Context, limit int) ([]*domain.Entry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+entryColumns+` FROM entries WHERE published = 1 ORDER BY created_at DESC, id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list latest entries: %w", err)
	}
	return collectEntries(rows)
}

func collectEntries(rows *sql.Rows) ([]*domain.Entry, error) {
	defer rows.Close() //nolint:errcheck

	var result []*domain.Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, e)
	}
	return result, rows.Err()
}

func scanEntry(row rowScanner) (*domain.Entry, error) {
	var (
		e       domain.Entry
		section string
	)
	err := row.Scan(&e.ID, &section, &e.Slug, &e.Title, &e.Summary, &e.Body, &e.Published, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	e.Section = domain.Section(section)
	return &e, nil
}

var _ port.ContentStore = (*Store)(nil)
