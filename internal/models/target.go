package models

import "time"

// Roles assigned to migrated users.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User is a migrated forum account as written to the target store. ID is the
// identifier generated at transform time; the Loader may remap it to the
// identity provider's authoritative ID when the email already exists there.
type User struct {
	ID          string    `json:"id"`
	LegacyID    int64     `json:"legacy_id"`
	Email       string    `json:"email"`
	Username    string    `json:"username"`
	DisplayName *string   `json:"display_name,omitempty"`
	AvatarURL   *string   `json:"avatar_url,omitempty"`
	Bio         *string   `json:"bio,omitempty"`
	Role        string    `json:"role"`
	CreatedAt   time.Time `json:"created_at"`
}

// Category is a migrated category. ParentID, when set, always refers to a
// top-level category: the transform flattens the source tree to two levels.
type Category struct {
	ID          string    `json:"id"`
	LegacyID    int64     `json:"legacy_id"`
	Name        string    `json:"name"`
	Description *string   `json:"description,omitempty"`
	Slug        string    `json:"slug"`
	SortOrder   int       `json:"sort_order"`
	ParentID    *string   `json:"parent_id,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// Thread is a migrated discussion. Every thread carries at least one post;
// the first is synthesized from the source discussion body.
type Thread struct {
	ID         string    `json:"id"`
	LegacyID   int64     `json:"legacy_id"`
	CategoryID string    `json:"category_id"`
	AuthorID   string    `json:"author_id"`
	Title      string    `json:"title"`
	Slug       string    `json:"slug"`
	IsPinned   bool      `json:"is_pinned"`
	IsLocked   bool      `json:"is_locked"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
	LastPostAt time.Time `json:"last_post_at"`
}

// Post is a migrated comment (or synthesized first post). Content holds the
// normalized markdown, ContentHTML the sanitized render.
type Post struct {
	ID          string    `json:"id"`
	LegacyID    int64     `json:"legacy_id"`
	ThreadID    string    `json:"thread_id"`
	AuthorID    string    `json:"author_id"`
	Content     string    `json:"content"`
	ContentHTML string    `json:"content_html"`
	IsEdited    bool      `json:"is_edited"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
