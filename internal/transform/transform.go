// Package transform rewrites extracted legacy records into target-shaped
// records: usernames are repaired and de-duplicated, the category tree is
// flattened to two levels with the archive container elided, and
// discussion/comment pairs become threads and posts. All re-keying goes
// through the persistent ID mapping store so repeated runs are
// deterministic.
package transform

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/forumlift/forumlift/internal/config"
	"github.com/forumlift/forumlift/internal/idmap"
	"github.com/forumlift/forumlift/internal/models"
	"github.com/forumlift/forumlift/internal/snapshot"
)

// Report summarizes one transformer run.
type Report struct {
	Users      models.StageReport `json:"users"`
	Categories models.StageReport `json:"categories"`
	Threads    models.StageReport `json:"threads"`
	Posts      models.StageReport `json:"posts"`
}

// Transformer converts legacy snapshots into target-shaped snapshots.
type Transformer struct {
	Maps *idmap.Mappings
	Cfg  *config.Config
	Log  *logrus.Logger

	categorySlugs map[string]bool
	threadSlugs   map[string]bool
	usernames     map[string]bool
}

// New creates a Transformer around an explicit mapping store.
func New(maps *idmap.Mappings, cfg *config.Config, log *logrus.Logger) *Transformer {
	return &Transformer{
		Maps:          maps,
		Cfg:           cfg,
		Log:           log,
		categorySlugs: map[string]bool{},
		threadSlugs:   map[string]bool{},
		usernames:     map[string]bool{},
	}
}

// Run reads the extractor's snapshots, transforms each entity kind, writes
// the transformed snapshots, and saves the mapping store.
func (t *Transformer) Run() (*Report, error) {
	r := &Report{}

	var legacyUsers []models.LegacyUser
	if err := snapshot.Read(t.Cfg.WorkDir, models.SnapshotLegacyUsers, &legacyUsers); err != nil {
		return r, err
	}
	var legacyCategories []models.LegacyCategory
	if err := snapshot.Read(t.Cfg.WorkDir, models.SnapshotLegacyCategories, &legacyCategories); err != nil {
		return r, err
	}
	var legacyDiscussions []models.LegacyDiscussion
	if err := snapshot.Read(t.Cfg.WorkDir, models.SnapshotLegacyDiscussions, &legacyDiscussions); err != nil {
		return r, err
	}
	var legacyComments []models.LegacyComment
	if err := snapshot.Read(t.Cfg.WorkDir, models.SnapshotLegacyComments, &legacyComments); err != nil {
		return r, err
	}

	users := t.Users(legacyUsers)
	r.Users = models.StageReport{Created: len(users)}
	if err := snapshot.Write(t.Cfg.WorkDir, models.SnapshotUsers, users); err != nil {
		return r, err
	}
	r.Users.Log(t.Log, "transform users")

	categories, catReport := t.Categories(legacyCategories)
	r.Categories = *catReport
	if err := snapshot.Write(t.Cfg.WorkDir, models.SnapshotCategories, categories); err != nil {
		return r, err
	}
	r.Categories.Log(t.Log, "transform categories")

	threads, posts, threadReport, postReport := t.Threads(legacyDiscussions, legacyComments)
	r.Threads = *threadReport
	r.Posts = *postReport
	if err := snapshot.Write(t.Cfg.WorkDir, models.SnapshotThreads, threads); err != nil {
		return r, err
	}
	if err := snapshot.Write(t.Cfg.WorkDir, models.SnapshotPosts, posts); err != nil {
		return r, err
	}
	r.Threads.Log(t.Log, "transform threads")
	r.Posts.Log(t.Log, "transform posts")

	if err := t.Maps.Save(t.Cfg.MappingPath()); err != nil {
		return r, fmt.Errorf("save mapping store: %w", err)
	}

	return r, nil
}
