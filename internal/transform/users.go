package transform

import (
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/forumlift/forumlift/internal/config"
	"github.com/forumlift/forumlift/internal/idmap"
	"github.com/forumlift/forumlift/internal/models"
)

var usernameDisallowed = regexp.MustCompile(`[^a-zA-Z0-9_-]+`)

// Users rewrites legacy users: usernames are stripped to the allowed
// character set, padded or truncated to the length limits, and de-duplicated
// case-insensitively within the run. The original legacy username is kept as
// display name only when it differs from the final assigned one.
func (t *Transformer) Users(legacy []models.LegacyUser) []models.User {
	users := make([]models.User, 0, len(legacy))

	for i := range legacy {
		lu := &legacy[i]

		username := t.uniqueUsername(sanitizeUsername(lu.Username))

		role := models.RoleUser
		if lu.IsAdmin {
			role = models.RoleAdmin
		}

		u := models.User{
			ID:        t.Maps.MapID(idmap.KindUsers, lu.ID),
			LegacyID:  lu.ID,
			Email:     lu.Email,
			Username:  username,
			AvatarURL: lu.AvatarURL,
			Bio:       truncateBio(lu.Bio),
			Role:      role,
			CreatedAt: lu.CreatedAt,
		}
		if lu.Username != username {
			original := lu.Username
			u.DisplayName = &original
		}
		users = append(users, u)
	}

	return users
}

// sanitizeUsername strips disallowed characters and enforces the length
// limits, padding short results so the target's minimum holds.
func sanitizeUsername(name string) string {
	name = usernameDisallowed.ReplaceAllString(name, "")
	if name == "" {
		name = "user"
	}
	if len(name) > config.UsernameMaxLen {
		name = name[:config.UsernameMaxLen]
	}
	for len(name) < config.UsernameMinLen {
		name += "0"
	}
	return name
}

// uniqueUsername resolves case-insensitive collisions against usernames
// already assigned in this run by appending an incrementing numeric suffix.
func (t *Transformer) uniqueUsername(name string) string {
	lower := strings.ToLower(name)
	if !t.usernames[lower] {
		t.usernames[lower] = true
		return name
	}

	for n := 1; ; n++ {
		suffix := strconv.Itoa(n)
		base := name
		if len(base)+len(suffix) > config.UsernameMaxLen {
			base = base[:config.UsernameMaxLen-len(suffix)]
		}
		candidate := base + suffix
		if !t.usernames[strings.ToLower(candidate)] {
			t.usernames[strings.ToLower(candidate)] = true
			return candidate
		}
	}
}

func truncateBio(bio *string) *string {
	if bio == nil || len(*bio) <= config.BioMaxLen {
		return bio
	}
	short := truncate(*bio, config.BioMaxLen)
	return &short
}

// truncate caps s at max bytes without splitting a UTF-8 sequence; the
// target store rejects invalid UTF-8 outright.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	for max > 0 && !utf8.RuneStart(s[max]) {
		max--
	}
	return s[:max]
}
