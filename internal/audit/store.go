package audit

import (
	"context"
	"time"

	"github.com/go-semantic-release/release-registry/pkg/registry"
)

// Store persists audit records. Append must not return before the record
// is durably stored.
type Store interface {
	Append(ctx context.Context, record *registry.AuditRecord) error
	// Find returns the records of kind that occurred in [from, to]. A nil
	// platform matches every platform type.
	Find(ctx context.Context, kind registry.AuditKind, platform *registry.PlatformType, from, to time.Time) ([]*registry.AuditRecord, error)
	CountDownloadsByVersion(ctx context.Context) ([]*registry.VersionCount, error)
}
