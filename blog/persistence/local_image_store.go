package persistence

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/dfryer1193/feedapi/blog/domain"
)

var _ domain.ImageStore = (*LocalImageStore)(nil)

// ImageURLPrefix is the path prefix of every image URL handed out by the
// image stores; the HTTP layer serves local images under it.
const ImageURLPrefix = "images"

// LocalImageStore keeps uploaded images in a directory on disk.
type LocalImageStore struct {
	dir string
	now func() time.Time
}

// NewLocalImageStore creates a LocalImageStore rooted at dir.
func NewLocalImageStore(dir string) *LocalImageStore {
	return &LocalImageStore{
		dir: dir,
		now: time.Now,
	}
}

// Dir returns the directory images are written to.
func (s *LocalImageStore) Dir() string {
	return s.dir
}

// Save writes content to <dir>/<unix-nanos>-<base name> and returns images/<file>.
func (s *LocalImageStore) Save(ctx context.Context, filename string, content io.Reader) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	name := imageObjectName(s.now(), filename)
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create image directory: %w", err)
	}

	localPath := filepath.Join(s.dir, name)
	f, err := os.OpenFile(localPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return "", fmt.Errorf("failed to create image file: %w", err)
	}

	if _, err := io.Copy(f, content); err != nil {
		f.Close()
		os.Remove(localPath)
		return "", fmt.Errorf("failed to write image file: %w", err)
	}

	if err := f.Close(); err != nil {
		os.Remove(localPath)
		return "", fmt.Errorf("failed to close image file: %w", err)
	}

	return path.Join(ImageURLPrefix, name), nil
}

// Delete removes the file behind an image URL. Only the base name is used,
// so URLs cannot reach outside the image directory. A missing file is an error.
func (s *LocalImageStore) Delete(ctx context.Context, imageURL string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	base := path.Base(strings.ReplaceAll(imageURL, `\`, "/"))
	if base == "." || base == "/" || base == ".." {
		return fmt.Errorf("invalid image path %q", imageURL)
	}

	if err := os.Remove(filepath.Join(s.dir, base)); err != nil {
		return fmt.Errorf("failed to remove image file: %w", err)
	}

	return nil
}

// imageObjectName prefixes the sanitised base name with a timestamp so
// repeated uploads of the same file do not collide.
func imageObjectName(now time.Time, filename string) string {
	base := path.Base(strings.ReplaceAll(filename, `\`, "/"))
	base = strings.Map(func(r rune) rune {
		switch {
		case r == ' ':
			return '-'
		case r < 0x20, r == '/', r == ':':
			return -1
		}
		return r
	}, base)
	if base == "" || base == "." || base == ".." {
		base = "image"
	}
	return fmt.Sprintf("%d-%s", now.UnixNano(), base)
}
