package load

import (
	"context"

	"github.com/forumlift/forumlift/internal/identity"
	"github.com/forumlift/forumlift/internal/models"
)

// Store is the subset of target-store writes and confirmation reads the
// Loader performs. The ID-set reads exist because insert phases may
// partially fail: dependents are validated against what actually landed,
// never against what was intended.
type Store interface {
	InsertProfile(ctx context.Context, u models.User) error
	InsertCategory(ctx context.Context, c models.Category) error
	InsertThreadBatch(ctx context.Context, threads []models.Thread) error
	InsertPostBatch(ctx context.Context, posts []models.Post) error

	ProfileIDs(ctx context.Context) (map[string]bool, error)
	CategoryIDs(ctx context.Context) (map[string]bool, error)
	ThreadIDs(ctx context.Context) (map[string]bool, error)

	// SetImportMode toggles the bulk-import escape hatch (trigger
	// suppression). Implementations may not support it; the Loader
	// tolerates failure here.
	SetImportMode(ctx context.Context, on bool) error
}

// IdentityAdmin is the identity-provider surface the Loader needs.
type IdentityAdmin interface {
	CreateUser(ctx context.Context, req identity.CreateUserRequest) (string, error)
	FindUserByEmail(ctx context.Context, email string) (string, error)
}
