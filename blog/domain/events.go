package domain

import "context"

type EventType string

const (
	EventPostCreated EventType = "post.created"
	EventPostUpdated EventType = "post.updated"
	EventPostDeleted EventType = "post.deleted"
)

// PostEvent is published after a post mutation has been committed.
type PostEvent struct {
	Type   EventType
	PostID string
}

type EventPublisher interface {
	Publish(ctx context.Context, evt PostEvent) error
}
