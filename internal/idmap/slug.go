package idmap

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/forumlift/forumlift/internal/config"
)

var nonSlugRuns = regexp.MustCompile(`[^a-z0-9]+`)

// GenerateUniqueSlug normalizes candidate into a URL slug and de-duplicates
// it against used by appending an incrementing numeric suffix. The returned
// slug is recorded in used; callers keep one used set per slug namespace
// (categories and threads never share one).
func GenerateUniqueSlug(candidate string, used map[string]bool) string {
	slug := normalizeSlug(candidate)
	if slug == "" {
		slug = "item"
	}

	if !used[slug] {
		used[slug] = true
		return slug
	}

	for n := 1; ; n++ {
		suffix := fmt.Sprintf("-%d", n)
		base := slug
		if len(base)+len(suffix) > config.SlugMaxLen {
			base = strings.Trim(base[:config.SlugMaxLen-len(suffix)], "-")
		}
		next := base + suffix
		if !used[next] {
			used[next] = true
			return next
		}
	}
}

func normalizeSlug(s string) string {
	s = strings.ToLower(s)
	s = nonSlugRuns.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")
	if len(s) > config.SlugMaxLen {
		s = strings.Trim(s[:config.SlugMaxLen], "-")
	}
	return s
}
