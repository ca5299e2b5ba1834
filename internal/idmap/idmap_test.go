package idmap_test

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/forumlift/forumlift/internal/idmap"
)

func TestMapID_IdempotentWithinRun(t *testing.T) {
	m := idmap.New()

	first := m.MapID(idmap.KindUsers, 42)
	second := m.MapID(idmap.KindUsers, 42)

	if first != second {
		t.Errorf("MapID not idempotent: %s vs %s", first, second)
	}

	if _, err := uuid.Parse(first); err != nil {
		t.Errorf("generated ID is not a UUID: %s", first)
	}
}

func TestMapID_KindsAreSeparateNamespaces(t *testing.T) {
	m := idmap.New()

	u := m.MapID(idmap.KindUsers, 1)
	c := m.MapID(idmap.KindCategories, 1)

	if u == c {
		t.Error("same legacy ID under different kinds must map to different IDs")
	}
}

func TestMapID_IdempotentAcrossSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "id-map.json")

	m := idmap.New()
	userID := m.MapID(idmap.KindUsers, 7)
	discID := m.MapID(idmap.KindDiscussions, 7)
	commentID := m.MapID(idmap.KindComments, -7)

	if err := m.Save(path); err != nil {
		t.Fatalf("save: %v", err)
	}

	loaded, err := idmap.Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if got := loaded.MapID(idmap.KindUsers, 7); got != userID {
		t.Errorf("user mapping changed across save/load: %s vs %s", got, userID)
	}
	if got := loaded.MapID(idmap.KindDiscussions, 7); got != discID {
		t.Errorf("discussion mapping changed across save/load: %s vs %s", got, discID)
	}
	if got := loaded.MapID(idmap.KindComments, -7); got != commentID {
		t.Errorf("derived comment mapping changed across save/load: %s vs %s", got, commentID)
	}
}

func TestLoad_MissingFileIsEmpty(t *testing.T) {
	m, err := idmap.Load(filepath.Join(t.TempDir(), "absent.json"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if m.Len(idmap.KindUsers) != 0 {
		t.Errorf("expected empty store, got %d user mappings", m.Len(idmap.KindUsers))
	}

	if _, ok := m.Lookup(idmap.KindUsers, 1); ok {
		t.Error("Lookup on empty store must miss")
	}
}

func TestGenerateUniqueSlug(t *testing.T) {
	tests := []struct {
		name      string
		candidate string
		want      string
	}{
		{name: "simple", candidate: "General Discussion", want: "general-discussion"},
		{name: "punctuation runs", candidate: "What's new?? (2024)", want: "what-s-new-2024"},
		{name: "leading trailing", candidate: "--Hello--", want: "hello"},
		{name: "empty", candidate: "", want: "item"},
		{name: "only symbols", candidate: "!!!", want: "item"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := idmap.GenerateUniqueSlug(tc.candidate, map[string]bool{})
			if got != tc.want {
				t.Errorf("GenerateUniqueSlug(%q) = %q, want %q", tc.candidate, got, tc.want)
			}
		})
	}
}

func TestGenerateUniqueSlug_PairwiseDistinct(t *testing.T) {
	titles := []string{"Hello World", "Hello World", "hello world", "", "", "!!!", "Hello, World!"}
	used := map[string]bool{}
	seen := map[string]bool{}

	for _, title := range titles {
		slug := idmap.GenerateUniqueSlug(title, used)
		if slug == "" {
			t.Errorf("empty slug for title %q", title)
		}
		if seen[slug] {
			t.Errorf("duplicate slug %q for title %q", slug, title)
		}
		seen[slug] = true
	}
}

func TestGenerateUniqueSlug_LengthCap(t *testing.T) {
	long := strings.Repeat("category name ", 20)
	slug := idmap.GenerateUniqueSlug(long, map[string]bool{})

	if len(slug) > 50 {
		t.Errorf("slug exceeds length cap: %d chars", len(slug))
	}
	if strings.HasSuffix(slug, "-") || strings.HasPrefix(slug, "-") {
		t.Errorf("slug has dangling separator: %q", slug)
	}
}

func TestGenerateUniqueSlug_CollisionSuffixStaysWithinCap(t *testing.T) {
	long := strings.Repeat("category name ", 20)
	used := map[string]bool{}
	seen := map[string]bool{}

	// Collisions on an already max-length slug must shorten the base to
	// make room for the suffix instead of growing past the cap.
	for i := 0; i < 12; i++ {
		slug := idmap.GenerateUniqueSlug(long, used)
		if len(slug) > 50 {
			t.Errorf("collided slug exceeds length cap: %q (%d chars)", slug, len(slug))
		}
		if seen[slug] {
			t.Errorf("duplicate slug %q", slug)
		}
		seen[slug] = true
	}
}
