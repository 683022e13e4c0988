package dbhelper

import (
	"context"
	"fmt"
	"strings"

	"github.com/postboard/apiv1/models"
)

// Store persists users and posts. Implementations enforce email uniqueness
// themselves and report duplicates as utils.ErrConflict and missing records as
// utils.ErrNotFound.
type Store interface {
	FindUserByEmail(ctx context.Context, email string) (*models.User, error)
	CreateUser(ctx context.Context, user *models.User) (*models.User, error)

	CreatePost(ctx context.Context, post *models.Post) (*models.Post, error)
	GetPost(ctx context.Context, id string) (*models.Post, error)
	UpdatePost(ctx context.Context, post *models.Post) (*models.Post, error)
	DeletePost(ctx context.Context, id string) error

	Close(ctx context.Context) error
}

// Open picks a backend from the database URL scheme: mongodb:// and
// mongodb+srv:// for the document store, mysql:// for gorm over MySQL and
// memory:// for the in-process store.
func Open(ctx context.Context, databaseURL string) (Store, error) {
	switch {
	case strings.HasPrefix(databaseURL, "mongodb://"), strings.HasPrefix(databaseURL, "mongodb+srv://"):
		return OpenMongo(ctx, databaseURL)
	case strings.HasPrefix(databaseURL, "mysql://"):
		db, err := OpenDB(strings.TrimPrefix(databaseURL, "mysql://"))
		if err != nil {
			return nil, err
		}
		if err := InitDB(db); err != nil {
			return nil, err
		}
		return NewGormStore(db), nil
	case strings.HasPrefix(databaseURL, "memory://"):
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unsupported database url scheme in %q", redact(databaseURL))
	}
}

func redact(u string) string {
	scheme, rest, ok := strings.Cut(u, "://")
	if !ok {
		return "<invalid>"
	}
	if at := strings.LastIndex(rest, "@"); at >= 0 {
		rest = "***" + rest[at:]
	}
	return scheme + "://" + rest
}
