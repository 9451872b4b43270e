package history

import (
	"context"
	"strings"
)

// NewStore creates a postgres-backed store when configured, otherwise a
// disabled store that records nothing. The relay persists nothing unless an
// operator opts in with DATABASE_URL.
func NewStore(ctx context.Context, databaseURL string) (Store, error) {
	if strings.TrimSpace(databaseURL) == "" {
		return NewDisabledStore(), nil
	}
	return NewPostgresStore(ctx, databaseURL)
}
