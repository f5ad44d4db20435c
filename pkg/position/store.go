package position

import (
	"context"
	"strings"

	"github.com/matzehuels/pipeview/pkg/errors"
)

// DefaultName is the layout name used when none is given.
const DefaultName = "graphlayout"

// Store persists position maps by layout name.
//
// Implementations must be safe for concurrent use.
type Store interface {
	// Load returns the map saved under name. A name with nothing saved
	// yields an empty map, not an error.
	Load(ctx context.Context, name string) (Map, error)

	// Save replaces the map saved under name.
	Save(ctx context.Context, name string, m Map) error

	// Delete removes the map saved under name. Deleting a missing name
	// is not an error.
	Delete(ctx context.Context, name string) error

	// Close releases the store's resources.
	Close() error
}

// Open returns the store described by dsn: a redis:// or rediss:// URL
// selects a RedisStore, a mongodb:// or mongodb+srv:// URL a MongoStore, and
// anything else is taken as the directory of a FileStore.
func Open(ctx context.Context, dsn string) (Store, error) {
	switch {
	case strings.HasPrefix(dsn, "redis://"), strings.HasPrefix(dsn, "rediss://"):
		return NewRedisStore(ctx, RedisConfig{URL: dsn})
	case strings.HasPrefix(dsn, "mongodb://"), strings.HasPrefix(dsn, "mongodb+srv://"):
		return NewMongoStore(ctx, MongoConfig{URI: dsn})
	case dsn == "":
		return nil, errors.New(errors.ErrCodeInvalidInput, "store location cannot be empty")
	default:
		return NewFileStore(dsn)
	}
}

// checkName rejects names that cannot be used as keys or file names.
func checkName(name string) error {
	return errors.ValidateLayoutName(name)
}
