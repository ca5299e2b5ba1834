// Package extract reads the legacy forum's relational export and writes one
// snapshot per entity kind to the working directory. Any connection or query
// error aborts the stage; a partial snapshot set is never treated as valid.
package extract

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/forumlift/forumlift/internal/config"
	"github.com/forumlift/forumlift/internal/models"
	"github.com/forumlift/forumlift/internal/snapshot"
)

// Report summarizes one extractor run.
type Report struct {
	Users       int `json:"users"`
	Categories  int `json:"categories"`
	Discussions int `json:"discussions"`
	Comments    int `json:"comments"`
}

// Extractor runs the four fixed read queries against the legacy store.
type Extractor struct {
	DB  *sql.DB
	Cfg *config.Config
	Log *logrus.Logger
}

// Open connects to the legacy MySQL store and verifies the connection.
func Open(ctx context.Context, cfg *config.Config) (*sql.DB, error) {
	db, err := sql.Open("mysql", cfg.LegacyDSN())
	if err != nil {
		return nil, fmt.Errorf("open legacy store: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping legacy store: %w", err)
	}

	return db, nil
}

// Run extracts all four entity kinds, writing a snapshot per kind.
func (e *Extractor) Run(ctx context.Context) (*Report, error) {
	r := &Report{}

	users, err := e.readUsers(ctx)
	if err != nil {
		return r, fmt.Errorf("extract users: %w", err)
	}
	r.Users = len(users)
	if err := snapshot.Write(e.Cfg.WorkDir, models.SnapshotLegacyUsers, users); err != nil {
		return r, err
	}
	e.Log.WithField("count", r.Users).Info("extracted users")

	categories, err := e.readCategories(ctx)
	if err != nil {
		return r, fmt.Errorf("extract categories: %w", err)
	}
	r.Categories = len(categories)
	if err := snapshot.Write(e.Cfg.WorkDir, models.SnapshotLegacyCategories, categories); err != nil {
		return r, err
	}
	e.Log.WithField("count", r.Categories).Info("extracted categories")

	discussions, err := e.readDiscussions(ctx)
	if err != nil {
		return r, fmt.Errorf("extract discussions: %w", err)
	}
	r.Discussions = len(discussions)
	if err := snapshot.Write(e.Cfg.WorkDir, models.SnapshotLegacyDiscussions, discussions); err != nil {
		return r, err
	}
	e.Log.WithField("count", r.Discussions).Info("extracted discussions")

	comments, err := e.readComments(ctx)
	if err != nil {
		return r, fmt.Errorf("extract comments: %w", err)
	}
	r.Comments = len(comments)
	if err := snapshot.Write(e.Cfg.WorkDir, models.SnapshotLegacyComments, comments); err != nil {
		return r, err
	}
	e.Log.WithField("count", r.Comments).Info("extracted comments")

	return r, nil
}

// readUsers extracts users who authored at least one discussion or comment;
// dormant and spam accounts never migrate.
func (e *Extractor) readUsers(ctx context.Context) ([]models.LegacyUser, error) {
	rows, err := e.DB.QueryContext(ctx,
		`SELECT u.id, u.username, u.email, u.avatar_url, u.bio, u.is_admin, u.created_at
		 FROM users u
		 WHERE EXISTS (SELECT 1 FROM discussions d WHERE d.author_id = u.id)
		    OR EXISTS (SELECT 1 FROM comments c WHERE c.author_id = u.id)
		 ORDER BY u.id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []models.LegacyUser
	for rows.Next() {
		var u models.LegacyUser
		var avatar, bio sql.NullString
		var isAdmin int
		if err := rows.Scan(&u.ID, &u.Username, &u.Email, &avatar, &bio, &isAdmin, &u.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		u.AvatarURL = nullStr(avatar)
		u.Bio = nullStr(bio)
		u.IsAdmin = isAdmin != 0
		users = append(users, u)
	}
	return users, rows.Err()
}

func (e *Extractor) readCategories(ctx context.Context) ([]models.LegacyCategory, error) {
	rows, err := e.DB.QueryContext(ctx,
		`SELECT id, parent_id, name, description, slug, sort_order, depth, created_at
		 FROM categories
		 ORDER BY depth, sort_order, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var categories []models.LegacyCategory
	for rows.Next() {
		var c models.LegacyCategory
		var parent sql.NullInt64
		var desc sql.NullString
		if err := rows.Scan(&c.ID, &parent, &c.Name, &desc, &c.Slug, &c.SortOrder, &c.Depth, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		if parent.Valid {
			c.ParentID = &parent.Int64
		}
		c.Description = nullStr(desc)
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

func (e *Extractor) readDiscussions(ctx context.Context) ([]models.LegacyDiscussion, error) {
	rows, err := e.DB.QueryContext(ctx,
		`SELECT id, category_id, author_id, title, body, format,
		        is_pinned, is_locked, created_at, last_comment_at
		 FROM discussions
		 ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var discussions []models.LegacyDiscussion
	for rows.Next() {
		var d models.LegacyDiscussion
		var pinned, locked int
		var lastComment sql.NullTime
		if err := rows.Scan(&d.ID, &d.CategoryID, &d.AuthorID, &d.Title, &d.Body, &d.Format,
			&pinned, &locked, &d.CreatedAt, &lastComment); err != nil {
			return nil, fmt.Errorf("scan discussion: %w", err)
		}
		d.IsPinned = pinned != 0
		d.IsLocked = locked != 0
		if lastComment.Valid {
			t := lastComment.Time
			d.LastCommentAt = &t
		}
		discussions = append(discussions, d)
	}
	return discussions, rows.Err()
}

func (e *Extractor) readComments(ctx context.Context) ([]models.LegacyComment, error) {
	rows, err := e.DB.QueryContext(ctx,
		`SELECT id, discussion_id, author_id, body, format, created_at, updated_at
		 FROM comments
		 ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var comments []models.LegacyComment
	for rows.Next() {
		var c models.LegacyComment
		var updated sql.NullTime
		if err := rows.Scan(&c.ID, &c.DiscussionID, &c.AuthorID, &c.Body, &c.Format, &c.CreatedAt, &updated); err != nil {
			return nil, fmt.Errorf("scan comment: %w", err)
		}
		if updated.Valid {
			t := updated.Time
			c.UpdatedAt = &t
		}
		comments = append(comments, c)
	}
	return comments, rows.Err()
}

func nullStr(s sql.NullString) *string {
	if !s.Valid || s.String == "" {
		return nil
	}
	return &s.String
}
