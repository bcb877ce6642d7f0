package domain

import (
	"context"
	"errors"
	"time"
)

// DefaultCreatorName is attached to every post until posts are owned by real users.
const DefaultCreatorName = "Sparkz"

var (
	ErrPostNotFound = errors.New("post not found")
	ErrInvalidRange = errors.New("invalid list range")
)

// Creator identifies who wrote a post.
type Creator struct {
	Name string
}

// Post represents a feed post with an attached image.
// ImageURL is the slash-separated path the image store handed back on upload.
type Post struct {
	ID        string
	Title     string
	Content   string
	ImageURL  string
	Creator   Creator
	CreatedAt time.Time
	UpdatedAt time.Time
}

// PostRepository persists posts. Get returns ErrPostNotFound for unknown ids.
// List rejects a negative limit or offset with ErrInvalidRange.
// Create assigns ID, CreatedAt and UpdatedAt; Update refreshes UpdatedAt.
type PostRepository interface {
	Count(ctx context.Context) (int64, error)
	List(ctx context.Context, limit int, offset int) ([]*Post, error)
	Get(ctx context.Context, id string) (*Post, error)
	Create(ctx context.Context, p *Post) error
	Update(ctx context.Context, p *Post) error
	Delete(ctx context.Context, id string) error
	Ping(ctx context.Context) error
}
