package transform_test

import (
	"io"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/sirupsen/logrus"

	"github.com/forumlift/forumlift/internal/config"
	"github.com/forumlift/forumlift/internal/idmap"
	"github.com/forumlift/forumlift/internal/models"
	"github.com/forumlift/forumlift/internal/transform"
)

func newTransformer(t *testing.T) *transform.Transformer {
	t.Helper()

	log := logrus.New()
	log.SetOutput(io.Discard)

	cfg := &config.Config{
		WorkDir:     t.TempDir(),
		ArchiveName: "Stories of Old",
		BatchSize:   50,
	}
	return transform.New(idmap.New(), cfg, log)
}

func ptr[T any](v T) *T { return &v }

var epoch = time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)

func TestUsers_CollisionAndDisplayName(t *testing.T) {
	tr := newTransformer(t)

	users := tr.Users([]models.LegacyUser{
		{ID: 1, Username: "Alice", Email: "a1@x.org", CreatedAt: epoch},
		{ID: 2, Username: "alice", Email: "a2@x.org", CreatedAt: epoch},
		{ID: 3, Username: "ALICE", Email: "a3@x.org", CreatedAt: epoch},
	})

	if len(users) != 3 {
		t.Fatalf("expected 3 users, got %d", len(users))
	}

	seen := map[string]bool{}
	for _, u := range users {
		lower := strings.ToLower(u.Username)
		if seen[lower] {
			t.Errorf("case-insensitive username collision survived: %s", u.Username)
		}
		seen[lower] = true
	}

	// First user keeps their name unchanged, so no display name.
	if users[0].DisplayName != nil {
		t.Errorf("unexpected display name %q for unchanged username", *users[0].DisplayName)
	}

	// Later collisions keep the original legacy username as display name.
	if users[1].DisplayName == nil || *users[1].DisplayName != "alice" {
		t.Errorf("expected display name alice, got %v", users[1].DisplayName)
	}
}

func TestUsers_SanitizeAndLimits(t *testing.T) {
	tr := newTransformer(t)

	users := tr.Users([]models.LegacyUser{
		{ID: 1, Username: "böse läufer!", Email: "a@x.org", CreatedAt: epoch},
		{ID: 2, Username: "@@", Email: "b@x.org", CreatedAt: epoch},
		{ID: 3, Username: "x", Email: "c@x.org", CreatedAt: epoch},
		{ID: 4, Username: strings.Repeat("n", 40), Email: "d@x.org", CreatedAt: epoch},
		{ID: 5, Username: "admin", Email: "e@x.org", IsAdmin: true, CreatedAt: epoch},
		{ID: 6, Username: "longbio", Email: "f@x.org", Bio: ptr(strings.Repeat("b", 600)), CreatedAt: epoch},
	})

	for _, u := range users {
		if len(u.Username) < config.UsernameMinLen || len(u.Username) > config.UsernameMaxLen {
			t.Errorf("username %q outside length limits", u.Username)
		}
		if strings.ContainsAny(u.Username, " !@ö") {
			t.Errorf("username %q contains disallowed characters", u.Username)
		}
	}

	if users[4].Role != models.RoleAdmin {
		t.Errorf("admin flag not mapped, got role %s", users[4].Role)
	}
	if users[0].Role != models.RoleUser {
		t.Errorf("expected role user, got %s", users[0].Role)
	}

	if users[5].Bio == nil || len(*users[5].Bio) != config.BioMaxLen {
		t.Errorf("bio not truncated to %d", config.BioMaxLen)
	}
}

func TestCategories_ArchiveScenario(t *testing.T) {
	// Root(1) -> Archive(2, "Stories of Old") -> Sub(3) -> Leaf(4).
	tr := newTransformer(t)

	legacy := []models.LegacyCategory{
		{ID: 1, Name: "Root", Slug: "root", Depth: 0, CreatedAt: epoch},
		{ID: 2, ParentID: ptr(int64(1)), Name: "Stories of Old", Slug: "stories", Depth: 1, CreatedAt: epoch},
		{ID: 3, ParentID: ptr(int64(2)), Name: "Sub", Slug: "sub", Depth: 2, CreatedAt: epoch},
		{ID: 4, ParentID: ptr(int64(3)), Name: "Leaf", Slug: "leaf", Depth: 3, CreatedAt: epoch},
	}

	out, report := tr.Categories(legacy)

	if report.Skipped != 1 {
		t.Errorf("expected 1 skipped (archive), got %d", report.Skipped)
	}
	if len(out) != 3 {
		t.Fatalf("expected 3 categories, got %d", len(out))
	}

	byLegacy := map[int64]models.Category{}
	for _, c := range out {
		byLegacy[c.LegacyID] = c
	}

	if _, found := byLegacy[2]; found {
		t.Error("archive node migrated")
	}

	sub := byLegacy[3]
	if sub.ParentID != nil {
		t.Errorf("Sub must become top-level, has parent %v", *sub.ParentID)
	}

	leaf := byLegacy[4]
	if leaf.ParentID == nil || *leaf.ParentID != sub.ID {
		t.Errorf("Leaf must become a child of Sub")
	}
}

func TestCategories_DepthFlatteningWithNamePrefix(t *testing.T) {
	tr := newTransformer(t)

	legacy := []models.LegacyCategory{
		{ID: 1, Name: "Games", Slug: "games", Depth: 0, CreatedAt: epoch},
		{ID: 2, ParentID: ptr(int64(1)), Name: "RPG", Slug: "rpg", Depth: 1, CreatedAt: epoch},
		{ID: 3, ParentID: ptr(int64(2)), Name: "Tabletop", Slug: "tabletop", Depth: 2, CreatedAt: epoch},
		{ID: 4, ParentID: ptr(int64(3)), Name: "Homebrew", Slug: "homebrew", Depth: 3, CreatedAt: epoch},
	}

	out, _ := tr.Categories(legacy)

	byLegacy := map[int64]models.Category{}
	for _, c := range out {
		byLegacy[c.LegacyID] = c
	}

	games := byLegacy[1]
	if games.ParentID != nil {
		t.Error("root category must have no parent")
	}

	// Depth invariant: every parent is itself parentless.
	for _, c := range out {
		if c.ParentID == nil {
			continue
		}
		for _, p := range out {
			if p.ID == *c.ParentID && p.ParentID != nil {
				t.Errorf("category %s has a non-root parent %s", c.Name, p.Name)
			}
		}
	}

	tabletop := byLegacy[3]
	if tabletop.ParentID == nil || *tabletop.ParentID != games.ID {
		t.Error("Tabletop must attach to root Games")
	}
	if tabletop.Name != "RPG - Tabletop" {
		t.Errorf("intermediate name not prefixed: %q", tabletop.Name)
	}

	homebrew := byLegacy[4]
	if homebrew.Name != "RPG - Tabletop - Homebrew" {
		t.Errorf("intermediate names not composed: %q", homebrew.Name)
	}
	if homebrew.ParentID == nil || *homebrew.ParentID != games.ID {
		t.Error("Homebrew must attach to root Games")
	}
}

func TestCategories_SlugDeduplication(t *testing.T) {
	tr := newTransformer(t)

	legacy := []models.LegacyCategory{
		{ID: 1, Name: "News", Slug: "news", Depth: 0, CreatedAt: epoch},
		{ID: 2, Name: "News", Slug: "news", Depth: 0, CreatedAt: epoch},
	}

	out, _ := tr.Categories(legacy)
	if len(out) != 2 {
		t.Fatalf("expected 2 categories, got %d", len(out))
	}
	if out[0].Slug == out[1].Slug {
		t.Errorf("duplicate category slug %q", out[0].Slug)
	}
}

func TestThreads_MissingCommentAuthorScenario(t *testing.T) {
	tr := newTransformer(t)

	// Author 10 is mapped; author 99 has no mapping entry.
	tr.Users([]models.LegacyUser{{ID: 10, Username: "author", Email: "a@x.org", CreatedAt: epoch}})
	tr.Categories([]models.LegacyCategory{{ID: 1, Name: "General", Slug: "general", CreatedAt: epoch}})

	discussions := []models.LegacyDiscussion{
		{ID: 5, CategoryID: 1, AuthorID: 10, Title: "Hello", Body: "first!", Format: "markdown", CreatedAt: epoch},
	}
	comments := []models.LegacyComment{
		{ID: 100, DiscussionID: 5, AuthorID: 10, Body: "reply", Format: "markdown", CreatedAt: epoch.Add(time.Hour)},
		{ID: 101, DiscussionID: 5, AuthorID: 99, Body: "ghost", Format: "markdown", CreatedAt: epoch.Add(2 * time.Hour)},
	}

	threads, posts, threadReport, postReport := tr.Threads(discussions, comments)

	if len(threads) != 1 || threadReport.Created != 1 {
		t.Fatalf("expected 1 thread, got %d", len(threads))
	}
	if len(posts) != 2 {
		t.Fatalf("expected first post + surviving comment = 2 posts, got %d", len(posts))
	}
	if postReport.Skipped != 1 {
		t.Errorf("expected exactly 1 skipped post, got %d", postReport.Skipped)
	}

	for _, p := range posts {
		if p.ThreadID != threads[0].ID {
			t.Errorf("post %s not attached to thread", p.ID)
		}
	}

	// The synthesized first post is keyed separately from real comments.
	if posts[0].ID == posts[1].ID {
		t.Error("first post shares an ID with a comment post")
	}
}

func TestThreads_SkipUnresolvedDiscussion(t *testing.T) {
	tr := newTransformer(t)

	tr.Users([]models.LegacyUser{{ID: 10, Username: "author", Email: "a@x.org", CreatedAt: epoch}})
	// No categories transformed: every discussion must be skipped.

	threads, posts, threadReport, _ := tr.Threads([]models.LegacyDiscussion{
		{ID: 1, CategoryID: 1, AuthorID: 10, Title: "t", Body: "b", Format: "text", CreatedAt: epoch},
	}, nil)

	if len(threads) != 0 || len(posts) != 0 {
		t.Errorf("expected nothing migrated, got %d threads %d posts", len(threads), len(posts))
	}
	if threadReport.Skipped != 1 {
		t.Errorf("expected 1 skipped thread, got %d", threadReport.Skipped)
	}
}

func TestThreads_EditFlagAndDerivedFirstPostKey(t *testing.T) {
	tr := newTransformer(t)

	tr.Users([]models.LegacyUser{{ID: 10, Username: "author", Email: "a@x.org", CreatedAt: epoch}})
	tr.Categories([]models.LegacyCategory{{ID: 1, Name: "General", Slug: "general", CreatedAt: epoch}})

	edited := epoch.Add(time.Minute)
	// Comment ID 7 collides numerically with discussion ID 7; the derived
	// first-post key must still be distinct.
	_, posts, _, _ := tr.Threads(
		[]models.LegacyDiscussion{{ID: 7, CategoryID: 1, AuthorID: 10, Title: "t", Body: "b", Format: "text", CreatedAt: epoch}},
		[]models.LegacyComment{
			{ID: 7, DiscussionID: 7, AuthorID: 10, Body: "same id", Format: "text", CreatedAt: epoch, UpdatedAt: &edited},
			{ID: 8, DiscussionID: 7, AuthorID: 10, Body: "untouched", Format: "text", CreatedAt: epoch, UpdatedAt: &epoch},
		},
	)

	if len(posts) != 3 {
		t.Fatalf("expected 3 posts, got %d", len(posts))
	}
	if posts[0].ID == posts[1].ID {
		t.Error("derived first-post key collides with real comment key")
	}
	if posts[0].IsEdited {
		t.Error("synthesized first post must not be marked edited")
	}
	if !posts[1].IsEdited {
		t.Error("comment with updated_at != created_at must be marked edited")
	}
	if posts[2].IsEdited {
		t.Error("comment with updated_at == created_at must not be marked edited")
	}
}

func TestTruncationKeepsValidUTF8(t *testing.T) {
	tr := newTransformer(t)

	// A two-byte rune straddles each length cap; cutting by bytes alone
	// would leave a dangling lead byte the target store rejects.
	bio := strings.Repeat("b", config.BioMaxLen-1) + "éé"
	users := tr.Users([]models.LegacyUser{
		{ID: 10, Username: "writer", Email: "a@x.org", Bio: ptr(bio), CreatedAt: epoch},
	})

	if users[0].Bio == nil {
		t.Fatal("bio dropped entirely")
	}
	if !utf8.ValidString(*users[0].Bio) {
		t.Errorf("truncated bio is invalid UTF-8: %q", *users[0].Bio)
	}
	if len(*users[0].Bio) > config.BioMaxLen {
		t.Errorf("bio exceeds cap: %d bytes", len(*users[0].Bio))
	}

	tr.Categories([]models.LegacyCategory{{ID: 1, Name: "General", Slug: "general", CreatedAt: epoch}})

	title := strings.Repeat("a", config.TitleMaxLen-1) + "é"
	threads, _, _, _ := tr.Threads([]models.LegacyDiscussion{
		{ID: 1, CategoryID: 1, AuthorID: 10, Title: title, Body: "b", Format: "text", CreatedAt: epoch},
	}, nil)

	if !utf8.ValidString(threads[0].Title) {
		t.Errorf("truncated title is invalid UTF-8: %q", threads[0].Title)
	}
	if len(threads[0].Title) > config.TitleMaxLen {
		t.Errorf("title exceeds cap: %d bytes", len(threads[0].Title))
	}
}

func TestThreads_TitleTruncationAndSlugNamespace(t *testing.T) {
	tr := newTransformer(t)

	tr.Users([]models.LegacyUser{{ID: 10, Username: "author", Email: "a@x.org", CreatedAt: epoch}})
	tr.Categories([]models.LegacyCategory{{ID: 1, Name: "General", Slug: "general", CreatedAt: epoch}})

	long := strings.Repeat("title ", 60)
	threads, _, _, _ := tr.Threads([]models.LegacyDiscussion{
		{ID: 1, CategoryID: 1, AuthorID: 10, Title: long, Body: "b", Format: "text", CreatedAt: epoch},
		{ID: 2, CategoryID: 1, AuthorID: 10, Title: "General", Body: "b", Format: "text", CreatedAt: epoch},
	}, nil)

	if len(threads[0].Title) > config.TitleMaxLen {
		t.Errorf("title not truncated: %d chars", len(threads[0].Title))
	}

	// Thread slugs live in their own namespace: a thread may reuse a
	// category's slug text.
	if threads[1].Slug != "general" {
		t.Errorf("thread slug namespace bled into categories: %q", threads[1].Slug)
	}
}
