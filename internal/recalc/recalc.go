// Package recalc rebuilds the aggregate counters the bulk import leaves
// stale: per-thread post counts and last-activity stamps, per-category
// roll-ups (children into their top-level parents), and per-user ownership
// counts. It prefers a handful of bulk UPDATE statements and falls back to
// reading every row and updating one at a time when the target rejects the
// bulk path, with identical results either way.
package recalc

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/forumlift/forumlift/internal/dbpool"
)

const queryTimeout = 5 * time.Minute

// Report summarizes how many rows each recalculation pass touched.
type Report struct {
	Threads    int64
	Categories int64
	Users      int64
}

type Recalculator struct {
	Pool *dbpool.Pool
	Log  *logrus.Logger
}

func New(pool *dbpool.Pool, log *logrus.Logger) *Recalculator {
	return &Recalculator{Pool: pool, Log: log}
}

// Run recalculates all aggregates. The bulk path runs first; any error
// there is logged and the per-row fallback takes over from scratch, so a
// half-applied bulk pass cannot leave mixed state.
func (r *Recalculator) Run(ctx context.Context) (*Report, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	report, err := r.bulk(ctx)
	if err == nil {
		r.log(report, "bulk")
		return report, nil
	}

	r.Log.WithError(err).Warn("bulk recalculation unavailable, updating rows one at a time")

	report, err = r.perRow(ctx)
	if err != nil {
		return nil, fmt.Errorf("per-row recalculation: %w", err)
	}
	r.log(report, "per-row")

	return report, nil
}

func (r *Recalculator) log(report *Report, path string) {
	r.Log.WithFields(logrus.Fields{
		"threads":    report.Threads,
		"categories": report.Categories,
		"users":      report.Users,
		"path":       path,
	}).Info("aggregates recalculated")
}

var bulkStatements = []struct {
	target string
	sql    string
}{
	{"threads", `
		UPDATE threads t SET
			post_count = (SELECT COUNT(*) FROM posts p WHERE p.thread_id = t.id),
			last_post_at = GREATEST(t.created_at,
				(SELECT MAX(p.created_at) FROM posts p WHERE p.thread_id = t.id))`},
	{"categories", `
		UPDATE categories c SET
			thread_count = (SELECT COUNT(*) FROM threads t WHERE t.category_id = c.id),
			post_count = COALESCE((SELECT SUM(t.post_count) FROM threads t WHERE t.category_id = c.id), 0),
			last_post_at = (SELECT MAX(t.last_post_at) FROM threads t WHERE t.category_id = c.id)`},
	{"categories", `
		UPDATE categories parent SET
			thread_count = parent.thread_count
				+ COALESCE((SELECT SUM(c.thread_count) FROM categories c WHERE c.parent_id = parent.id), 0),
			post_count = parent.post_count
				+ COALESCE((SELECT SUM(c.post_count) FROM categories c WHERE c.parent_id = parent.id), 0),
			last_post_at = GREATEST(parent.last_post_at,
				(SELECT MAX(c.last_post_at) FROM categories c WHERE c.parent_id = parent.id))
		WHERE parent.parent_id IS NULL`},
	{"users", `
		UPDATE profiles u SET
			thread_count = (SELECT COUNT(*) FROM threads t WHERE t.author_id = u.id),
			post_count = (SELECT COUNT(*) FROM posts p WHERE p.author_id = u.id)`},
}

// bulk recomputes everything in four statements. The second categories
// statement folds child totals into top-level parents and must run after
// the direct pass.
func (r *Recalculator) bulk(ctx context.Context) (*Report, error) {
	report := &Report{}

	for _, stmt := range bulkStatements {
		tag, err := r.Pool.Exec(ctx, stmt.sql)
		if err != nil {
			return nil, fmt.Errorf("bulk update of %s: %w", stmt.target, err)
		}
		switch stmt.target {
		case "threads":
			report.Threads += tag.RowsAffected()
		case "categories":
			// Counted once: the parent pass revisits rows the
			// direct pass already touched.
			if report.Categories == 0 {
				report.Categories = tag.RowsAffected()
			}
		case "users":
			report.Users += tag.RowsAffected()
		}
	}

	return report, nil
}

// perRow reads the full thread/post/category graph, computes every
// aggregate in memory, and writes them back one row at a time.
func (r *Recalculator) perRow(ctx context.Context) (*Report, error) {
	threads, err := r.readThreads(ctx)
	if err != nil {
		return nil, err
	}
	posts, err := r.readPosts(ctx)
	if err != nil {
		return nil, err
	}
	categories, err := r.readCategories(ctx)
	if err != nil {
		return nil, err
	}

	report := &Report{}

	perThread := threadAggregates(threads, posts)
	for _, t := range threads {
		agg := perThread[t.ID]
		if _, err := r.Pool.Exec(ctx,
			`UPDATE threads SET post_count = $1, last_post_at = $2 WHERE id = $3`,
			agg.PostCount, agg.LastPostAt, t.ID); err != nil {
			return nil, fmt.Errorf("updating thread %s: %w", t.ID, err)
		}
		report.Threads++
	}

	perCategory := categoryAggregates(categories, threads, perThread)
	for _, c := range categories {
		agg := perCategory[c.ID]
		var lastPostAt *time.Time
		if !agg.LastPostAt.IsZero() {
			lastPostAt = &agg.LastPostAt
		}
		if _, err := r.Pool.Exec(ctx,
			`UPDATE categories SET thread_count = $1, post_count = $2, last_post_at = $3 WHERE id = $4`,
			agg.ThreadCount, agg.PostCount, lastPostAt, c.ID); err != nil {
			return nil, fmt.Errorf("updating category %s: %w", c.ID, err)
		}
		report.Categories++
	}

	perUser := userAggregates(threads, posts)
	rows, err := r.Pool.Query(ctx, `SELECT id FROM profiles`)
	if err != nil {
		return nil, fmt.Errorf("reading profiles: %w", err)
	}
	defer rows.Close()

	var userIDs []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning profile: %w", err)
		}
		userIDs = append(userIDs, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading profiles: %w", err)
	}

	for _, id := range userIDs {
		agg := perUser[id]
		if _, err := r.Pool.Exec(ctx,
			`UPDATE profiles SET thread_count = $1, post_count = $2 WHERE id = $3`,
			agg.ThreadCount, agg.PostCount, id); err != nil {
			return nil, fmt.Errorf("updating profile %s: %w", id, err)
		}
		report.Users++
	}

	return report, nil
}

func (r *Recalculator) readThreads(ctx context.Context) ([]threadRow, error) {
	rows, err := r.Pool.Query(ctx, `SELECT id, category_id, author_id, created_at FROM threads`)
	if err != nil {
		return nil, fmt.Errorf("reading threads: %w", err)
	}
	defer rows.Close()

	var threads []threadRow
	for rows.Next() {
		var t threadRow
		if err := rows.Scan(&t.ID, &t.CategoryID, &t.AuthorID, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning thread: %w", err)
		}
		threads = append(threads, t)
	}

	return threads, rows.Err()
}

func (r *Recalculator) readPosts(ctx context.Context) ([]postRow, error) {
	rows, err := r.Pool.Query(ctx, `SELECT thread_id, author_id, created_at FROM posts`)
	if err != nil {
		return nil, fmt.Errorf("reading posts: %w", err)
	}
	defer rows.Close()

	var posts []postRow
	for rows.Next() {
		var p postRow
		if err := rows.Scan(&p.ThreadID, &p.AuthorID, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning post: %w", err)
		}
		posts = append(posts, p)
	}

	return posts, rows.Err()
}

func (r *Recalculator) readCategories(ctx context.Context) ([]categoryRow, error) {
	rows, err := r.Pool.Query(ctx, `SELECT id, parent_id FROM categories`)
	if err != nil {
		return nil, fmt.Errorf("reading categories: %w", err)
	}
	defer rows.Close()

	var categories []categoryRow
	for rows.Next() {
		var c categoryRow
		if err := rows.Scan(&c.ID, &c.ParentID); err != nil {
			return nil, fmt.Errorf("scanning category: %w", err)
		}
		categories = append(categories, c)
	}

	return categories, rows.Err()
}
