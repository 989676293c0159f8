package version

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"layoutsync/internal/app/db"
	"layoutsync/internal/app/layout"
)

// createRetries bounds the retry loop on the (page_id, version) unique
// constraint when two commits race on the same page.
const createRetries = 3

// PostgresStore is the commit log backed by the commits table.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore returns a commit store backed by the given pool.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Create implements Store. The version is computed inside the insert so
// the unique index on (page_id, version) is the arbiter under
// concurrency; a losing writer retries with a fresh max.
func (s *PostgresStore) Create(ctx context.Context, c Commit) (Commit, error) {
	snapshot, err := json.Marshal(c.Snapshot)
	if err != nil {
		return Commit{}, fmt.Errorf("encode commit snapshot: %w", err)
	}

	const q = `
		INSERT INTO commits (id, website_id, page_id, version, message, author_id, author_name, snapshot, created_at)
		VALUES ($1, $2, $3,
			(SELECT COALESCE(MAX(version), 0) + 1 FROM commits WHERE page_id = $3),
			$4, $5, $6, $7, $8)
		RETURNING version`

	var lastErr error
	for attempt := 0; attempt < createRetries; attempt++ {
		err := s.pool.QueryRow(ctx, q,
			c.ID, c.WebsiteID, c.PageID, c.Message, c.AuthorID, c.AuthorName, snapshot, c.CreatedAt,
		).Scan(&c.Version)

		if err == nil {
			return c, nil
		}

		if !db.IsUniqueViolation(err) {
			return Commit{}, fmt.Errorf("insert commit: %w", err)
		}
		lastErr = err
	}

	return Commit{}, fmt.Errorf("insert commit: version contention not resolved: %w", lastErr)
}

// ListByPage implements Store.
func (s *PostgresStore) ListByPage(ctx context.Context, pageID string) ([]Commit, error) {
	const q = `
		SELECT id, website_id, page_id, version, message, author_id, author_name, snapshot, created_at
		FROM commits
		WHERE page_id = $1
		ORDER BY version DESC`

	rows, err := s.pool.Query(ctx, q, pageID)
	if err != nil {
		return nil, fmt.Errorf("query commits: %w", err)
	}
	defer rows.Close()

	var commits []Commit
	for rows.Next() {
		c, err := scanCommit(rows)
		if err != nil {
			return nil, err
		}
		commits = append(commits, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate commits: %w", err)
	}

	return commits, nil
}

// Get implements Store.
func (s *PostgresStore) Get(ctx context.Context, pageID, commitID string) (Commit, error) {
	const q = `
		SELECT id, website_id, page_id, version, message, author_id, author_name, snapshot, created_at
		FROM commits
		WHERE page_id = $1 AND id = $2`

	row := s.pool.QueryRow(ctx, q, pageID, commitID)
	c, err := scanCommit(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Commit{}, ErrNotFound
		}
		return Commit{}, err
	}

	return c, nil
}

// scanCommit reads one commit row, decoding the snapshot JSON.
func scanCommit(row pgx.Row) (Commit, error) {
	var (
		c        Commit
		snapshot []byte
	)

	err := row.Scan(&c.ID, &c.WebsiteID, &c.PageID, &c.Version, &c.Message, &c.AuthorID, &c.AuthorName, &snapshot, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Commit{}, err
		}
		return Commit{}, fmt.Errorf("scan commit: %w", err)
	}

	var sections []layout.Section
	if err := json.Unmarshal(snapshot, &sections); err != nil {
		return Commit{}, fmt.Errorf("decode commit snapshot: %w", err)
	}
	c.Snapshot = sections

	return c, nil
}
