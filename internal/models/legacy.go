// Package models defines the legacy and target entity types moved by the
// migration pipeline, plus the snapshot and report plumbing shared by its
// stages.
package models

import "time"

// Snapshot file names written to the working directory. Each stage reads the
// previous stage's files and writes its own; together they form the
// pipeline's resumability contract.
const (
	SnapshotLegacyUsers       = "legacy_users.json"
	SnapshotLegacyCategories  = "legacy_categories.json"
	SnapshotLegacyDiscussions = "legacy_discussions.json"
	SnapshotLegacyComments    = "legacy_comments.json"

	SnapshotUsers      = "transformed_users.json"
	SnapshotCategories = "transformed_categories.json"
	SnapshotThreads    = "transformed_threads.json"
	SnapshotPosts      = "transformed_posts.json"
)

// LegacyUser is a source forum account. Only users who authored at least one
// discussion or comment are extracted.
type LegacyUser struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	AvatarURL *string   `json:"avatar_url,omitempty"`
	Bio       *string   `json:"bio,omitempty"`
	IsAdmin   bool      `json:"is_admin"`
	CreatedAt time.Time `json:"created_at"`
}

// LegacyCategory is a node in the source forum's arbitrary-depth category
// tree. ParentID is nil for roots.
type LegacyCategory struct {
	ID          int64     `json:"id"`
	ParentID    *int64    `json:"parent_id,omitempty"`
	Name        string    `json:"name"`
	Description *string   `json:"description,omitempty"`
	Slug        string    `json:"slug"`
	SortOrder   int       `json:"sort_order"`
	Depth       int       `json:"depth"`
	CreatedAt   time.Time `json:"created_at"`
}

// LegacyDiscussion is a source thread's originating post plus metadata. The
// source model has no comment row for the opening post; its body lives here.
type LegacyDiscussion struct {
	ID            int64      `json:"id"`
	CategoryID    int64      `json:"category_id"`
	AuthorID      int64      `json:"author_id"`
	Title         string     `json:"title"`
	Body          string     `json:"body"`
	Format        string     `json:"format"`
	IsPinned      bool       `json:"is_pinned"`
	IsLocked      bool       `json:"is_locked"`
	CreatedAt     time.Time  `json:"created_at"`
	LastCommentAt *time.Time `json:"last_comment_at,omitempty"`
}

// LegacyComment is a reply within a source discussion.
type LegacyComment struct {
	ID           int64      `json:"id"`
	DiscussionID int64      `json:"discussion_id"`
	AuthorID     int64      `json:"author_id"`
	Body         string     `json:"body"`
	Format       string     `json:"format"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    *time.Time `json:"updated_at,omitempty"`
}
