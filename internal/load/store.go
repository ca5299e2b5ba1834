package load

import (
	"context"
	"fmt"
	"time"

	"github.com/forumlift/forumlift/internal/dbpool"
	"github.com/forumlift/forumlift/internal/models"
)

const defaultQueryTimeout = 30 * time.Second

// PGStore implements Store against the target Postgres schema.
type PGStore struct {
	Pool *dbpool.Pool
}

// NewPGStore creates a PGStore.
func NewPGStore(pool *dbpool.Pool) *PGStore {
	return &PGStore{Pool: pool}
}

func withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, defaultQueryTimeout)
}

// InsertProfile upserts a profile row keyed by the identity record's ID, so
// re-running the loader after a partial failure is safe.
func (s *PGStore) InsertProfile(ctx context.Context, u models.User) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	_, err := s.Pool.Exec(ctx,
		`INSERT INTO profiles (id, email, username, display_name, avatar_url, bio, role, created_at)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		 ON CONFLICT (id) DO UPDATE
		 SET username = EXCLUDED.username, display_name = EXCLUDED.display_name,
		     avatar_url = EXCLUDED.avatar_url, bio = EXCLUDED.bio, role = EXCLUDED.role`,
		u.ID, u.Email, u.Username, u.DisplayName, u.AvatarURL, u.Bio, u.Role, u.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert profile %s: %w", u.Email, err)
	}
	return nil
}

// InsertCategory inserts one category row.
func (s *PGStore) InsertCategory(ctx context.Context, c models.Category) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	_, err := s.Pool.Exec(ctx,
		`INSERT INTO categories (id, name, description, slug, sort_order, parent_id, created_at)
		 VALUES ($1,$2,$3,$4,$5,$6,$7)
		 ON CONFLICT (id) DO NOTHING`,
		c.ID, c.Name, c.Description, c.Slug, c.SortOrder, c.ParentID, c.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert category %s: %w", c.Slug, err)
	}
	return nil
}

// InsertThreadBatch inserts threads in one transaction; any row failure
// rolls back and fails the whole batch.
func (s *PGStore) InsertThreadBatch(ctx context.Context, threads []models.Thread) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	tx, err := s.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin thread batch: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // best-effort rollback after commit.

	for i := range threads {
		t := &threads[i]
		_, err := tx.Exec(ctx,
			`INSERT INTO threads (id, category_id, author_id, title, slug,
			    is_pinned, is_locked, created_at, updated_at, last_post_at)
			 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
			 ON CONFLICT (id) DO NOTHING`,
			t.ID, t.CategoryID, t.AuthorID, t.Title, t.Slug,
			t.IsPinned, t.IsLocked, t.CreatedAt, t.UpdatedAt, t.LastPostAt,
		)
		if err != nil {
			return fmt.Errorf("insert thread %s: %w", t.Slug, err)
		}
	}

	return tx.Commit(ctx)
}

// InsertPostBatch inserts posts in one transaction; any row failure rolls
// back and fails the whole batch.
func (s *PGStore) InsertPostBatch(ctx context.Context, posts []models.Post) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	tx, err := s.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin post batch: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // best-effort rollback after commit.

	for i := range posts {
		p := &posts[i]
		_, err := tx.Exec(ctx,
			`INSERT INTO posts (id, thread_id, author_id, content, content_html,
			    is_edited, created_at, updated_at)
			 VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
			 ON CONFLICT (id) DO NOTHING`,
			p.ID, p.ThreadID, p.AuthorID, p.Content, p.ContentHTML,
			p.IsEdited, p.CreatedAt, p.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("insert post %s: %w", p.ID, err)
		}
	}

	return tx.Commit(ctx)
}

// ProfileIDs returns the set of profile IDs present in the target store.
func (s *PGStore) ProfileIDs(ctx context.Context) (map[string]bool, error) {
	return s.idSet(ctx, "SELECT id FROM profiles")
}

// CategoryIDs returns the set of category IDs present in the target store.
func (s *PGStore) CategoryIDs(ctx context.Context) (map[string]bool, error) {
	return s.idSet(ctx, "SELECT id FROM categories")
}

// ThreadIDs returns the set of thread IDs present in the target store.
func (s *PGStore) ThreadIDs(ctx context.Context) (map[string]bool, error) {
	return s.idSet(ctx, "SELECT id FROM threads")
}

func (s *PGStore) idSet(ctx context.Context, query string) (map[string]bool, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	rows, err := s.Pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("read back IDs: %w", err)
	}
	defer rows.Close()

	ids := map[string]bool{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan ID: %w", err)
		}
		ids[id] = true
	}
	return ids, rows.Err()
}

// SetImportMode toggles replica-mode trigger suppression for the session
// pool. Managed targets often deny this; callers treat failure as advisory.
func (s *PGStore) SetImportMode(ctx context.Context, on bool) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	role := "origin"
	if on {
		role = "replica"
	}
	if _, err := s.Pool.Exec(ctx, "SET session_replication_role = "+role); err != nil {
		return fmt.Errorf("set session_replication_role: %w", err)
	}
	return nil
}
