package cacheaside

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/jonwraymond/cacheguard/store"
)

// Sentinel errors for repository construction.
var (
	ErrNilDatastore = errors.New("cacheaside: datastore must not be nil")
	ErrNilRegistry  = errors.New("cacheaside: region registry must not be nil")
)

// Cache keys within their regions.
const (
	categoriesKey     = "categories:all"
	publishedPostsKey = "posts:published"
	statsKey          = "overview"
)

func urlSlugKey(slug string) string { return "slug:" + slug }

func urlIDKey(id int64) string { return "id:" + strconv.FormatInt(id, 10) }

func categoryURLsKey(id int64) string {
	return "cat:" + strconv.FormatInt(id, 10) + ":urls"
}

func postKey(slug string) string { return "post:" + slug }

// Repository layers cache-aside reads and cascading invalidation over a
// Datastore. Reads go through a cache region first; mutations hit the
// Datastore first (source of truth), then invalidate affected entries.
// Invalidation is best-effort and not transactional with the relational
// write: a crash between the two leaves a stale entry that self-corrects
// at TTL expiry.
type Repository struct {
	ds      Datastore
	regions *store.Registry
}

// NewRepository wires a Datastore to a cache region registry.
func NewRepository(ds Datastore, regions *store.Registry) (*Repository, error) {
	if ds == nil {
		return nil, ErrNilDatastore
	}
	if regions == nil {
		return nil, ErrNilRegistry
	}
	return &Repository{ds: ds, regions: regions}, nil
}

// region resolves a handle per call so TTL reconfiguration takes effect
// immediately rather than at repository construction.
func (r *Repository) region(name string) (*store.RegionHandle, error) {
	h, err := r.regions.Region(name)
	if err != nil {
		return nil, fmt.Errorf("cacheaside: %w", err)
	}
	return h, nil
}

// readThrough reads key from region h, populating from fetch on miss.
func readThrough[T any](ctx context.Context, h *store.RegionHandle, key string, fetch func(context.Context) (T, error)) (T, error) {
	var zero T
	raw, err := h.GetOrSet(ctx, key, func(ctx context.Context) (any, error) {
		return fetch(ctx)
	})
	if err != nil {
		return zero, err
	}
	var out T
	if err := json.Unmarshal(raw, &out); err != nil {
		return zero, fmt.Errorf("cacheaside: decode cached %q: %w", key, err)
	}
	return out, nil
}

// URLBySlug resolves a short link, cache-aside through the url-lookup
// region.
func (r *Repository) URLBySlug(ctx context.Context, slug string) (*URL, error) {
	h, err := r.region(store.RegionURLLookup)
	if err != nil {
		return nil, err
	}
	return readThrough(ctx, h, urlSlugKey(slug), func(ctx context.Context) (*URL, error) {
		return r.ds.URLBySlug(ctx, slug)
	})
}

// URLByID resolves a short link by surrogate id.
func (r *Repository) URLByID(ctx context.Context, id int64) (*URL, error) {
	h, err := r.region(store.RegionURLLookup)
	if err != nil {
		return nil, err
	}
	return readThrough(ctx, h, urlIDKey(id), func(ctx context.Context) (*URL, error) {
		return r.ds.URLByID(ctx, id)
	})
}

// URLsByCategory lists a category's URLs through the medium region.
func (r *Repository) URLsByCategory(ctx context.Context, categoryID int64) ([]URL, error) {
	h, err := r.region(store.RegionMedium)
	if err != nil {
		return nil, err
	}
	return readThrough(ctx, h, categoryURLsKey(categoryID), func(ctx context.Context) ([]URL, error) {
		return r.ds.URLsByCategory(ctx, categoryID)
	})
}

// Categories lists all categories through the medium region.
func (r *Repository) Categories(ctx context.Context) ([]Category, error) {
	h, err := r.region(store.RegionMedium)
	if err != nil {
		return nil, err
	}
	return readThrough(ctx, h, categoriesKey, func(ctx context.Context) ([]Category, error) {
		return r.ds.Categories(ctx)
	})
}

// PostBySlug fetches a blog post through the medium region.
func (r *Repository) PostBySlug(ctx context.Context, slug string) (*Post, error) {
	h, err := r.region(store.RegionMedium)
	if err != nil {
		return nil, err
	}
	return readThrough(ctx, h, postKey(slug), func(ctx context.Context) (*Post, error) {
		return r.ds.PostBySlug(ctx, slug)
	})
}

// PublishedPosts lists published posts through the medium region.
func (r *Repository) PublishedPosts(ctx context.Context) ([]Post, error) {
	h, err := r.region(store.RegionMedium)
	if err != nil {
		return nil, err
	}
	return readThrough(ctx, h, publishedPostsKey, func(ctx context.Context) ([]Post, error) {
		return r.ds.PublishedPosts(ctx)
	})
}

// Stats returns the admin dashboard rollup through the admin-stats
// region.
func (r *Repository) Stats(ctx context.Context) (AggregateStats, error) {
	h, err := r.region(store.RegionAdminStats)
	if err != nil {
		return AggregateStats{}, err
	}
	return readThrough(ctx, h, statsKey, r.ds.AggregateStats)
}

// CreateURL inserts u, then invalidates its direct keys, the list caches
// of its categories, and the admin stats rollup.
func (r *Repository) CreateURL(ctx context.Context, u *URL) error {
	if err := r.ds.CreateURL(ctx, u); err != nil {
		return err
	}
	r.invalidateURLKeys(ctx, u.Slug, u.ID)
	r.invalidateCategoryLists(ctx, u.CategoryIDs...)
	r.invalidateStats(ctx)
	return nil
}

// UpdateURL updates u. The prior row is read first so a slug change
// invalidates the old natural key as well as the new one.
func (r *Repository) UpdateURL(ctx context.Context, u *URL) error {
	prior, err := r.ds.URLByID(ctx, u.ID)
	if err != nil {
		return err
	}
	if err := r.ds.UpdateURL(ctx, u); err != nil {
		return err
	}
	if prior.Slug != u.Slug {
		r.invalidateURLKeys(ctx, prior.Slug, u.ID)
	}
	r.invalidateURLKeys(ctx, u.Slug, u.ID)
	r.invalidateCategoryLists(ctx, prior.CategoryIDs...)
	r.invalidateCategoryLists(ctx, u.CategoryIDs...)
	r.invalidateStats(ctx)
	return nil
}

// DeleteURL removes the URL with id and invalidates everything that
// could still reference it.
func (r *Repository) DeleteURL(ctx context.Context, id int64) error {
	prior, err := r.ds.URLByID(ctx, id)
	if err != nil {
		return err
	}
	if err := r.ds.DeleteURL(ctx, id); err != nil {
		return err
	}
	r.invalidateURLKeys(ctx, prior.Slug, id)
	r.invalidateCategoryLists(ctx, prior.CategoryIDs...)
	r.invalidateStats(ctx)
	return nil
}

// IncrementClicks records a redirect hit. The increment bypasses the
// cache read path entirely and only invalidates the URL's entry; the
// next read lazily repopulates with the fresh count.
func (r *Repository) IncrementClicks(ctx context.Context, slug string) error {
	id, err := r.ds.IncrementClicks(ctx, slug)
	if err != nil {
		return err
	}
	r.invalidateURLKeys(ctx, slug, id)
	return nil
}

// SetURLCategories replaces the URL's category associations. Both the
// previously and newly associated categories' list caches are
// invalidated, along with the URL's own entry.
func (r *Repository) SetURLCategories(ctx context.Context, urlID int64, categoryIDs []int64) error {
	old, err := r.ds.URLCategories(ctx, urlID)
	if err != nil {
		return err
	}
	prior, err := r.ds.URLByID(ctx, urlID)
	if err != nil {
		return err
	}
	if err := r.ds.SetURLCategories(ctx, urlID, categoryIDs); err != nil {
		return err
	}
	r.invalidateURLKeys(ctx, prior.Slug, urlID)
	r.invalidateCategoryLists(ctx, old...)
	r.invalidateCategoryLists(ctx, categoryIDs...)
	r.invalidateStats(ctx)
	return nil
}

// CreateCategory inserts c and invalidates the category listings.
func (r *Repository) CreateCategory(ctx context.Context, c *Category) error {
	if err := r.ds.CreateCategory(ctx, c); err != nil {
		return err
	}
	r.invalidateCategoryLists(ctx, c.ID)
	r.invalidateStats(ctx)
	return nil
}

// UpdateCategory updates c and invalidates the category listings.
func (r *Repository) UpdateCategory(ctx context.Context, c *Category) error {
	if err := r.ds.UpdateCategory(ctx, c); err != nil {
		return err
	}
	r.invalidateCategoryLists(ctx, c.ID)
	r.invalidateStats(ctx)
	return nil
}

// DeleteCategory removes the category with id and invalidates its list
// caches.
func (r *Repository) DeleteCategory(ctx context.Context, id int64) error {
	if err := r.ds.DeleteCategory(ctx, id); err != nil {
		return err
	}
	r.invalidateCategoryLists(ctx, id)
	r.invalidateStats(ctx)
	return nil
}

// CreatePost inserts p and invalidates the post caches.
func (r *Repository) CreatePost(ctx context.Context, p *Post) error {
	if err := r.ds.CreatePost(ctx, p); err != nil {
		return err
	}
	r.invalidatePostKeys(ctx, p.Slug)
	r.invalidateStats(ctx)
	return nil
}

// UpdatePost updates p, invalidating the old slug's entry when it
// changed.
func (r *Repository) UpdatePost(ctx context.Context, p *Post) error {
	prior, err := r.ds.PostByID(ctx, p.ID)
	if err != nil {
		return err
	}
	if err := r.ds.UpdatePost(ctx, p); err != nil {
		return err
	}
	if prior.Slug != p.Slug {
		r.invalidatePostKeys(ctx, prior.Slug)
	}
	r.invalidatePostKeys(ctx, p.Slug)
	r.invalidateStats(ctx)
	return nil
}

// DeletePost removes the post with id and invalidates its caches.
func (r *Repository) DeletePost(ctx context.Context, id int64) error {
	prior, err := r.ds.PostByID(ctx, id)
	if err != nil {
		return err
	}
	if err := r.ds.DeletePost(ctx, id); err != nil {
		return err
	}
	r.invalidatePostKeys(ctx, prior.Slug)
	r.invalidateStats(ctx)
	return nil
}

// WarmCache proactively populates the top-n URLs by clicks plus the
// category listing, avoiding a cold-cache stampede after a flush. It
// returns the number of entries written.
func (r *Repository) WarmCache(ctx context.Context, n int) (int, error) {
	urls, err := r.ds.TopURLsByClicks(ctx, n)
	if err != nil {
		return 0, err
	}
	lookup, err := r.region(store.RegionURLLookup)
	if err != nil {
		return 0, err
	}

	warmed := 0
	for i := range urls {
		u := &urls[i]
		if err := lookup.Set(ctx, urlSlugKey(u.Slug), u); err == nil {
			warmed++
		}
		if err := lookup.Set(ctx, urlIDKey(u.ID), u); err == nil {
			warmed++
		}
	}

	categories, err := r.ds.Categories(ctx)
	if err != nil {
		return warmed, err
	}
	medium, err := r.region(store.RegionMedium)
	if err != nil {
		return warmed, err
	}
	if err := medium.Set(ctx, categoriesKey, categories); err == nil {
		warmed++
	}
	return warmed, nil
}

// ClearAllCaches wipes the entire backend namespace. Operator recovery,
// not routine invalidation.
func (r *Repository) ClearAllCaches(ctx context.Context) (store.ClearResult, error) {
	return r.regions.ClearAll(ctx)
}

func (r *Repository) invalidateURLKeys(ctx context.Context, slug string, id int64) {
	h, err := r.region(store.RegionURLLookup)
	if err != nil {
		return
	}
	h.Delete(ctx, urlSlugKey(slug))
	h.Delete(ctx, urlIDKey(id))
}

func (r *Repository) invalidateCategoryLists(ctx context.Context, ids ...int64) {
	h, err := r.region(store.RegionMedium)
	if err != nil {
		return
	}
	h.Delete(ctx, categoriesKey)
	for _, id := range ids {
		h.Delete(ctx, categoryURLsKey(id))
	}
}

func (r *Repository) invalidatePostKeys(ctx context.Context, slug string) {
	h, err := r.region(store.RegionMedium)
	if err != nil {
		return
	}
	h.Delete(ctx, postKey(slug))
	h.Delete(ctx, publishedPostsKey)
}

func (r *Repository) invalidateStats(ctx context.Context) {
	h, err := r.region(store.RegionAdminStats)
	if err != nil {
		return
	}
	h.Delete(ctx, statsKey)
}
