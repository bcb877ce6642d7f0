package persistence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dfryer1193/feedapi/blog/domain"
	"github.com/dfryer1193/feedapi/shared/db"
	"github.com/google/uuid"
)

var _ domain.PostRepository = (*SQLitePostRepository)(nil)

// SQLitePostRepository implements domain.PostRepository using SQL database (SQLite)
type SQLitePostRepository struct {
	db *sql.DB
}

// NewPostRepository creates a new SQLitePostRepository from a standard sql.DB
func NewPostRepository(sqlDB *sql.DB) *SQLitePostRepository {
	return &SQLitePostRepository{
		db: sqlDB,
	}
}

const postColumns = `id, title, content, image_url, creator_name, created_at, updated_at`

const countPostsQuery = `SELECT COUNT(*) FROM posts`

func (r *SQLitePostRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := db.GetExecutor(ctx, r.db).QueryRowContext(ctx, countPostsQuery).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count posts: %w", err)
	}
	return count, nil
}

const listPostsQuery = `
	SELECT ` + postColumns + `
	FROM posts
	ORDER BY rowid ASC
	LIMIT ? OFFSET ?
`

// List returns up to limit posts in insertion order, skipping offset.
func (r *SQLitePostRepository) List(ctx context.Context, limit, offset int) ([]*domain.Post, error) {
	if limit < 0 || offset < 0 {
		return nil, fmt.Errorf("%w: limit %d, offset %d", domain.ErrInvalidRange, limit, offset)
	}

	rows, err := db.GetExecutor(ctx, r.db).QueryContext(ctx, listPostsQuery, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}
	defer rows.Close()

	posts := make([]*domain.Post, 0, limit)
	for rows.Next() {
		var row postRow
		if err := row.scan(rows); err != nil {
			return nil, fmt.Errorf("failed to scan post row: %w", err)
		}
		posts = append(posts, row.toDomain())
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating post rows: %w", err)
	}

	return posts, nil
}

const getPostQuery = `
	SELECT ` + postColumns + `
	FROM posts
	WHERE id = ?
`

// Get retrieves a single post by ID
func (r *SQLitePostRepository) Get(ctx context.Context, id string) (*domain.Post, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: empty id", domain.ErrPostNotFound)
	}

	var row postRow
	err := row.scan(db.GetExecutor(ctx, r.db).QueryRowContext(ctx, getPostQuery, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", domain.ErrPostNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get post: %w", err)
	}

	return row.toDomain(), nil
}

const insertPostQuery = `
	INSERT INTO posts (` + postColumns + `)
	VALUES (?, ?, ?, ?, ?, ?, ?)
`

// Create inserts p and fills in its ID and timestamps.
func (r *SQLitePostRepository) Create(ctx context.Context, p *domain.Post) error {
	if p == nil {
		return fmt.Errorf("post cannot be nil")
	}

	now := storeNow()
	id := uuid.NewString()

	_, err := db.GetExecutor(ctx, r.db).ExecContext(ctx, insertPostQuery,
		id,
		p.Title,
		p.Content,
		p.ImageURL,
		p.Creator.Name,
		now,
		now,
	)
	if err != nil {
		return fmt.Errorf("failed to insert post: %w", err)
	}

	p.ID = id
	p.CreatedAt = now
	p.UpdatedAt = now
	return nil
}

const updatePostQuery = `
	UPDATE posts
	SET title = ?, content = ?, image_url = ?, updated_at = ?
	WHERE id = ?
`

// Update writes the mutable fields of p and reloads the stored row into it.
func (r *SQLitePostRepository) Update(ctx context.Context, p *domain.Post) error {
	if p == nil {
		return fmt.Errorf("post cannot be nil")
	}

	return db.RunInTransaction(ctx, r.db, func(txCtx context.Context) error {
		res, err := db.GetExecutor(txCtx, r.db).ExecContext(txCtx, updatePostQuery,
			p.Title,
			p.Content,
			p.ImageURL,
			storeNow(),
			p.ID,
		)
		if err != nil {
			return fmt.Errorf("failed to update post: %w", err)
		}

		if err := requireAffected(res, p.ID); err != nil {
			return err
		}

		stored, err := r.Get(txCtx, p.ID)
		if err != nil {
			return err
		}
		*p = *stored
		return nil
	})
}

const deletePostQuery = `DELETE FROM posts WHERE id = ?`

func (r *SQLitePostRepository) Delete(ctx context.Context, id string) error {
	res, err := db.GetExecutor(ctx, r.db).ExecContext(ctx, deletePostQuery, id)
	if err != nil {
		return fmt.Errorf("failed to delete post: %w", err)
	}
	return requireAffected(res, id)
}

func (r *SQLitePostRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func requireAffected(res sql.Result, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", domain.ErrPostNotFound, id)
	}
	return nil
}

// storeNow is the timestamp written by every store; millisecond precision
// matches what MongoDB keeps so all backends round-trip the same value.
func storeNow() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}

type rowScanner interface {
	Scan(dest ...any) error
}

// postRow is a private struct used to scan database rows
type postRow struct {
	ID          string    `db:"id"`
	Title       string    `db:"title"`
	Content     string    `db:"content"`
	ImageURL    string    `db:"image_url"`
	CreatorName string    `db:"creator_name"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}

func (pr *postRow) scan(s rowScanner) error {
	return s.Scan(
		&pr.ID,
		&pr.Title,
		&pr.Content,
		&pr.ImageURL,
		&pr.CreatorName,
		&pr.CreatedAt,
		&pr.UpdatedAt,
	)
}

func (pr *postRow) toDomain() *domain.Post {
	return &domain.Post{
		ID:        pr.ID,
		Title:     pr.Title,
		Content:   pr.Content,
		ImageURL:  pr.ImageURL,
		Creator:   domain.Creator{Name: pr.CreatorName},
		CreatedAt: pr.CreatedAt.UTC(),
		UpdatedAt: pr.UpdatedAt.UTC(),
	}
}
