package cacheaside

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Datastore lookups for missing rows.
var ErrNotFound = errors.New("cacheaside: not found")

// Datastore is the relational data-access contract the repository wraps.
// It is the source of truth: the cache layer calls it only on cache miss
// or to perform a mutation.
//
// Contract: lookups return ErrNotFound for missing rows; mutations are
// atomic per call; IncrementClicks returns the id of the incremented URL
// so the caller can invalidate by both natural key and surrogate id.
type Datastore interface {
	URLBySlug(ctx context.Context, slug string) (*URL, error)
	URLByID(ctx context.Context, id int64) (*URL, error)
	URLsByCategory(ctx context.Context, categoryID int64) ([]URL, error)
	TopURLsByClicks(ctx context.Context, n int) ([]URL, error)
	CreateURL(ctx context.Context, u *URL) error
	UpdateURL(ctx context.Context, u *URL) error
	DeleteURL(ctx context.Context, id int64) error
	IncrementClicks(ctx context.Context, slug string) (int64, error)

	URLCategories(ctx context.Context, urlID int64) ([]int64, error)
	SetURLCategories(ctx context.Context, urlID int64, categoryIDs []int64) error

	Categories(ctx context.Context) ([]Category, error)
	CategoryByID(ctx context.Context, id int64) (*Category, error)
	CreateCategory(ctx context.Context, c *Category) error
	UpdateCategory(ctx context.Context, c *Category) error
	DeleteCategory(ctx context.Context, id int64) error

	PostBySlug(ctx context.Context, slug string) (*Post, error)
	PostByID(ctx context.Context, id int64) (*Post, error)
	PublishedPosts(ctx context.Context) ([]Post, error)
	CreatePost(ctx context.Context, p *Post) error
	UpdatePost(ctx context.Context, p *Post) error
	DeletePost(ctx context.Context, id int64) error

	AggregateStats(ctx context.Context) (AggregateStats, error)
}
