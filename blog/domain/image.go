package domain

import (
	"context"
	"io"
)

// ImageStore keeps the image files posts point at.
type ImageStore interface {
	// Save stores the content under a name derived from filename and
	// returns the slash-separated path to record on the post.
	Save(ctx context.Context, filename string, content io.Reader) (string, error)

	// Delete removes the image previously returned by Save.
	Delete(ctx context.Context, path string) error
}
