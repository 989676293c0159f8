package layout

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore persists drafts in the page_drafts table.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore returns a draft store backed by the given pool.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Get implements Store.
func (s *PostgresStore) Get(ctx context.Context, pageID string) (Draft, error) {
	const q = `
		SELECT page_id, website_id, sections, updated_at
		FROM page_drafts
		WHERE page_id = $1`

	var (
		draft    Draft
		sections []byte
	)

	err := s.pool.QueryRow(ctx, q, pageID).Scan(&draft.PageID, &draft.WebsiteID, &sections, &draft.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Draft{}, ErrNotFound
		}
		return Draft{}, fmt.Errorf("query page draft: %w", err)
	}

	if err := json.Unmarshal(sections, &draft.Sections); err != nil {
		return Draft{}, fmt.Errorf("decode page draft sections: %w", err)
	}

	return draft, nil
}

// Save implements Store. The upsert keeps saves idempotent and
// latest-wins, matching the autosave contract.
func (s *PostgresStore) Save(ctx context.Context, draft Draft) error {
	sections, err := json.Marshal(draft.Sections)
	if err != nil {
		return fmt.Errorf("encode page draft sections: %w", err)
	}

	if draft.UpdatedAt.IsZero() {
		draft.UpdatedAt = time.Now().UTC()
	}

	const q = `
		INSERT INTO page_drafts (page_id, website_id, sections, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (page_id) DO UPDATE
		SET website_id = EXCLUDED.website_id,
		    sections   = EXCLUDED.sections,
		    updated_at = EXCLUDED.updated_at`

	if _, err := s.pool.Exec(ctx, q, draft.PageID, draft.WebsiteID, sections, draft.UpdatedAt); err != nil {
		return fmt.Errorf("save page draft: %w", err)
	}

	return nil
}
