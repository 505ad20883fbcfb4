package issue

import (
	"context"
	"errors"
	"time"

	"github.com/go-semantic-release/release-registry/pkg/registry"
)

var ErrIssueNotFound = errors.New("issue not found")

// Store persists issue reports.
type Store interface {
	Save(ctx context.Context, issue *registry.Issue) error
	// List returns up to limit issues, newest first, skipping the first
	// offset ones, together with the total number of stored issues.
	List(ctx context.Context, offset, limit int) ([]*registry.Issue, int, error)
	Get(ctx context.Context, id string) (*registry.Issue, error)
	// Delete is a no-op for unknown ids.
	Delete(ctx context.Context, id string) error
	Find(ctx context.Context, from, to time.Time) ([]*registry.Issue, error)
}
