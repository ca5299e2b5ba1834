// Package verify reconciles the target store against the legacy snapshots
// after a load. Every check lands at one of three levels: pass, warn for
// expected drift (intentional filtering makes exact count parity unusual),
// and fail for anything that indicates broken referential integrity or a
// sanitizer regression.
package verify

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/forumlift/forumlift/internal/config"
	"github.com/forumlift/forumlift/internal/dbpool"
	"github.com/forumlift/forumlift/internal/models"
	"github.com/forumlift/forumlift/internal/snapshot"
)

const queryTimeout = 2 * time.Minute

// Check levels, ordered by severity.
const (
	LevelPass = "pass"
	LevelWarn = "warn"
	LevelFail = "fail"
)

type Check struct {
	Name   string
	Level  string
	Detail string
}

// Report is the full set of check results for one verification run.
type Report struct {
	Checks []Check
}

func (r *Report) add(name, level, detail string) {
	r.Checks = append(r.Checks, Check{Name: name, Level: level, Detail: detail})
}

// Failed reports whether any check landed at fail level.
func (r *Report) Failed() bool {
	for _, c := range r.Checks {
		if c.Level == LevelFail {
			return true
		}
	}
	return false
}

// Print writes the categorized report.
func (r *Report) Print(w io.Writer) {
	counts := map[string]int{}

	fmt.Fprintln(w, "\nVerification report")
	fmt.Fprintln(w, "===================")
	for _, c := range r.Checks {
		counts[c.Level]++
		fmt.Fprintf(w, "  [%s] %-28s %s\n", strings.ToUpper(c.Level), c.Name, c.Detail)
	}
	fmt.Fprintf(w, "\n  %d passed, %d warnings, %d failed\n",
		counts[LevelPass], counts[LevelWarn], counts[LevelFail])
}

type Verifier struct {
	Pool *dbpool.Pool
	Cfg  *config.Config
	Log  *logrus.Logger
}

func New(pool *dbpool.Pool, cfg *config.Config, log *logrus.Logger) *Verifier {
	return &Verifier{Pool: pool, Cfg: cfg, Log: log}
}

// Run executes every check. Individual findings never abort the run; only
// an unreachable target store does.
func (v *Verifier) Run(ctx context.Context) (*Report, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	report := &Report{}

	if err := v.checkCounts(ctx, report); err != nil {
		return nil, err
	}
	if err := v.checkIntegrity(ctx, report); err != nil {
		return nil, err
	}
	if err := v.checkSampledContent(ctx, report); err != nil {
		return nil, err
	}

	for _, c := range report.Checks {
		entry := v.Log.WithFields(logrus.Fields{"check": c.Name, "detail": c.Detail})
		switch c.Level {
		case LevelFail:
			entry.Error("verification check failed")
		case LevelWarn:
			entry.Warn("verification check warned")
		default:
			entry.Debug("verification check passed")
		}
	}

	return report, nil
}

// checkCounts compares row counts per entity kind against the legacy
// snapshots. Mismatches warn rather than fail: user filtering, archive
// elision and per-record skips all legitimately shrink the target.
func (v *Verifier) checkCounts(ctx context.Context, report *Report) error {
	var (
		users       []models.LegacyUser
		categories  []models.LegacyCategory
		discussions []models.LegacyDiscussion
		comments    []models.LegacyComment
	)
	if err := snapshot.Read(v.Cfg.WorkDir, models.SnapshotLegacyUsers, &users); err != nil {
		return fmt.Errorf("reading legacy users snapshot: %w", err)
	}
	if err := snapshot.Read(v.Cfg.WorkDir, models.SnapshotLegacyCategories, &categories); err != nil {
		return fmt.Errorf("reading legacy categories snapshot: %w", err)
	}
	if err := snapshot.Read(v.Cfg.WorkDir, models.SnapshotLegacyDiscussions, &discussions); err != nil {
		return fmt.Errorf("reading legacy discussions snapshot: %w", err)
	}
	if err := snapshot.Read(v.Cfg.WorkDir, models.SnapshotLegacyComments, &comments); err != nil {
		return fmt.Errorf("reading legacy comments snapshot: %w", err)
	}

	parities := []struct {
		name     string
		table    string
		expected int
	}{
		{"user count parity", "profiles", len(users)},
		{"category count parity", "categories", len(categories)},
		{"thread count parity", "threads", len(discussions)},
		// Every discussion synthesizes a first post on top of its
		// comments.
		{"post count parity", "posts", len(comments) + len(discussions)},
	}

	for _, p := range parities {
		var got int
		if err := v.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM `+p.table).Scan(&got); err != nil {
			return fmt.Errorf("counting %s: %w", p.table, err)
		}
		report.add(p.name, countParityLevel(p.expected, got),
			fmt.Sprintf("legacy %d, target %d", p.expected, got))
	}

	return nil
}

func countParityLevel(expected, got int) string {
	if expected == got {
		return LevelPass
	}
	return LevelWarn
}

var integrityChecks = []struct {
	name   string
	detail string
	sql    string
}{
	{"threads without posts", "threads with zero posts", `
		SELECT COUNT(*) FROM threads t
		WHERE NOT EXISTS (SELECT 1 FROM posts p WHERE p.thread_id = t.id)`},
	{"orphaned posts", "posts with no matching thread", `
		SELECT COUNT(*) FROM posts p
		WHERE p.thread_id IS NULL
		   OR NOT EXISTS (SELECT 1 FROM threads t WHERE t.id = p.thread_id)`},
	{"category nesting depth", "categories nested below a child category", `
		SELECT COUNT(*) FROM categories c
		JOIN categories parent ON c.parent_id = parent.id
		WHERE parent.parent_id IS NOT NULL`},
}

func (v *Verifier) checkIntegrity(ctx context.Context, report *Report) error {
	for _, c := range integrityChecks {
		var violations int
		if err := v.Pool.QueryRow(ctx, c.sql).Scan(&violations); err != nil {
			return fmt.Errorf("running %s check: %w", c.name, err)
		}
		if violations > 0 {
			report.add(c.name, LevelFail, fmt.Sprintf("%d %s", violations, c.detail))
			continue
		}
		report.add(c.name, LevelPass, "none found")
	}

	return nil
}

// checkSampledContent pulls a random sample of rendered post bodies. Empty
// HTML suggests a conversion gap and warns; a surviving script tag means
// the sanitizer let something through and fails hard.
func (v *Verifier) checkSampledContent(ctx context.Context, report *Report) error {
	rows, err := v.Pool.Query(ctx,
		`SELECT content_html FROM posts ORDER BY random() LIMIT $1`, v.Cfg.VerifySample)
	if err != nil {
		return fmt.Errorf("sampling posts: %w", err)
	}
	defer rows.Close()

	var bodies []string
	for rows.Next() {
		var html string
		if err := rows.Scan(&html); err != nil {
			return fmt.Errorf("scanning sampled post: %w", err)
		}
		bodies = append(bodies, html)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("sampling posts: %w", err)
	}

	empty, scripted := auditSampledHTML(bodies)

	if empty > 0 {
		report.add("sampled posts rendered", LevelWarn,
			fmt.Sprintf("%d of %d sampled posts have empty HTML", empty, len(bodies)))
	} else {
		report.add("sampled posts rendered", LevelPass,
			fmt.Sprintf("%d posts sampled", len(bodies)))
	}

	if scripted > 0 {
		report.add("sampled posts sanitized", LevelFail,
			fmt.Sprintf("%d of %d sampled posts contain a script tag", scripted, len(bodies)))
	} else {
		report.add("sampled posts sanitized", LevelPass, "no script tags found")
	}

	return nil
}

// auditSampledHTML counts blank bodies and bodies where a script tag
// survived sanitization.
func auditSampledHTML(bodies []string) (empty, scripted int) {
	for _, html := range bodies {
		if strings.TrimSpace(html) == "" {
			empty++
		}
		if strings.Contains(strings.ToLower(html), "<script") {
			scripted++
		}
	}
	return empty, scripted
}
