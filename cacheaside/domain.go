package cacheaside

import "time"

// URL is a shortened link. CategoryIDs carries the many-to-many
// association as loaded from the data layer.
type URL struct {
	ID          int64     `json:"id"`
	Slug        string    `json:"slug"`
	Target      string    `json:"target"`
	Title       string    `json:"title,omitempty"`
	Clicks      int64     `json:"clicks"`
	CategoryIDs []int64   `json:"category_ids,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Category groups URLs for listing pages.
type Category struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// Post is a blog entry.
type Post struct {
	ID        int64     `json:"id"`
	Slug      string    `json:"slug"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	Published bool      `json:"published"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// AggregateStats is the admin dashboard rollup.
type AggregateStats struct {
	TotalURLs       int64 `json:"total_urls"`
	TotalClicks     int64 `json:"total_clicks"`
	TotalCategories int64 `json:"total_categories"`
	TotalPosts      int64 `json:"total_posts"`
}
