// Package cleanup resets the target store for a clean re-run. Deletion
// follows strict reverse-dependency order so no foreign key is ever left
// dangling mid-reset: posts, threads, child categories, top-level
// categories, profiles, then the identity accounts and finally the on-disk
// mapping store and snapshots. Removing the mapping store means the next
// transform run generates all-new identifiers.
package cleanup

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/forumlift/forumlift/internal/config"
	"github.com/forumlift/forumlift/internal/dbpool"
	"github.com/forumlift/forumlift/internal/models"
	"github.com/forumlift/forumlift/internal/snapshot"
)

const queryTimeout = 5 * time.Minute

var snapshotNames = []string{
	models.SnapshotLegacyUsers,
	models.SnapshotLegacyCategories,
	models.SnapshotLegacyDiscussions,
	models.SnapshotLegacyComments,
	models.SnapshotUsers,
	models.SnapshotCategories,
	models.SnapshotThreads,
	models.SnapshotPosts,
}

// IdentityAdmin is the slice of the identity provider's admin API the
// cleanup needs.
type IdentityAdmin interface {
	DeleteUser(ctx context.Context, id string) error
}

// Report counts what one cleanup run removed.
type Report struct {
	Posts      int64
	Threads    int64
	Categories int64
	Profiles   int64
	Identities int64
	Files      int
}

type Cleanup struct {
	Pool  *dbpool.Pool
	Ident IdentityAdmin
	Cfg   *config.Config
	Log   *logrus.Logger
}

func New(pool *dbpool.Pool, ident IdentityAdmin, cfg *config.Config, log *logrus.Logger) *Cleanup {
	return &Cleanup{Pool: pool, Ident: ident, Cfg: cfg, Log: log}
}

// Run deletes everything the pipeline wrote. Row deletion failures abort
// the run so the remaining state is inspectable; identity deletions are
// best-effort and logged per account.
func (c *Cleanup) Run(ctx context.Context) (*Report, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	report := &Report{}

	if c.Cfg.DryRun {
		return c.dryRun(ctx)
	}

	// Identity IDs have to be collected before the profile rows go.
	profileIDs, err := c.collectProfileIDs(ctx)
	if err != nil {
		return nil, err
	}

	deletions := []struct {
		sql   string
		count *int64
	}{
		{`DELETE FROM posts`, &report.Posts},
		{`DELETE FROM threads`, &report.Threads},
		{`DELETE FROM categories WHERE parent_id IS NOT NULL`, &report.Categories},
		{`DELETE FROM categories`, &report.Categories},
		{`DELETE FROM profiles`, &report.Profiles},
	}
	for _, d := range deletions {
		tag, err := c.Pool.Exec(ctx, d.sql)
		if err != nil {
			return nil, fmt.Errorf("cleanup delete %q: %w", d.sql, err)
		}
		*d.count += tag.RowsAffected()
	}

	for _, id := range profileIDs {
		if err := c.Ident.DeleteUser(ctx, id); err != nil {
			c.Log.WithError(err).WithField("user_id", id).Warn("identity deletion failed, continuing")
			continue
		}
		report.Identities++
	}

	report.Files = c.removeArtifacts()

	c.Log.WithFields(logrus.Fields{
		"posts":      report.Posts,
		"threads":    report.Threads,
		"categories": report.Categories,
		"profiles":   report.Profiles,
		"identities": report.Identities,
		"files":      report.Files,
	}).Info("cleanup complete")

	return report, nil
}

// dryRun reports what a real run would remove without touching anything.
func (c *Cleanup) dryRun(ctx context.Context) (*Report, error) {
	report := &Report{}

	counts := []struct {
		table string
		count *int64
	}{
		{"posts", &report.Posts},
		{"threads", &report.Threads},
		{"categories", &report.Categories},
		{"profiles", &report.Profiles},
	}
	for _, q := range counts {
		if err := c.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM `+q.table).Scan(q.count); err != nil {
			return nil, fmt.Errorf("counting %s: %w", q.table, err)
		}
	}
	report.Identities = report.Profiles

	if _, err := os.Stat(c.Cfg.MappingPath()); err == nil {
		report.Files++
	}
	for _, name := range snapshotNames {
		if snapshot.Exists(c.Cfg.WorkDir, name) {
			report.Files++
		}
	}

	c.Log.WithFields(logrus.Fields{
		"posts":      report.Posts,
		"threads":    report.Threads,
		"categories": report.Categories,
		"profiles":   report.Profiles,
		"files":      report.Files,
	}).Info("dry run, nothing removed")

	return report, nil
}

func (c *Cleanup) collectProfileIDs(ctx context.Context) ([]string, error) {
	rows, err := c.Pool.Query(ctx, `SELECT id FROM profiles`)
	if err != nil {
		return nil, fmt.Errorf("collecting profile IDs: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning profile ID: %w", err)
		}
		ids = append(ids, id)
	}

	return ids, rows.Err()
}

// removeArtifacts deletes the mapping store and every snapshot file,
// returning how many were actually present.
func (c *Cleanup) removeArtifacts() int {
	removed := 0

	if err := os.Remove(c.Cfg.MappingPath()); err == nil {
		removed++
	} else if !os.IsNotExist(err) {
		c.Log.WithError(err).Warn("failed to remove ID mapping store")
	}

	for _, name := range snapshotNames {
		if !snapshot.Exists(c.Cfg.WorkDir, name) {
			continue
		}
		if err := snapshot.Remove(c.Cfg.WorkDir, name); err != nil {
			c.Log.WithError(err).WithField("snapshot", name).Warn("failed to remove snapshot")
			continue
		}
		removed++
	}

	return removed
}
