package storage

import (
	"context"
	"errors"
	"io"
	"time"
)

var ErrObjectNotFound = errors.New("object not found")

type ObjectInfo struct {
	Name       string
	SizeBytes  int64
	ModifiedAt time.Time
}

// Store is the set of object operations the registry needs from a backend.
// Delete must not fail for missing objects.
type Store interface {
	List(ctx context.Context) ([]ObjectInfo, error)
	Get(ctx context.Context, name string) (io.ReadCloser, error)
	Put(ctx context.Context, name string, data []byte) error
	Delete(ctx context.Context, name string) error
	SetPubliclyReadable(ctx context.Context, name string) error
	// Location returns the public location of the named object.
	Location(name string) string
}
