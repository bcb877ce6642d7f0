package persistence

import (
	"context"
	"errors"
	"fmt"

	"github.com/dfryer1193/feedapi/blog/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var _ domain.PostRepository = (*PostgresPostRepository)(nil)

// PostgresPostRepository implements domain.PostRepository on a pgx pool.
type PostgresPostRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresPostRepository(pool *pgxpool.Pool) *PostgresPostRepository {
	return &PostgresPostRepository{pool: pool}
}

const pgPostColumns = `id::text, title, content, image_url, creator_name, created_at, updated_at`

func (r *PostgresPostRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM posts`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count posts: %w", err)
	}
	return count, nil
}

const pgListPostsQuery = `
	SELECT ` + pgPostColumns + `
	FROM posts
	ORDER BY created_at ASC, id ASC
	LIMIT $1 OFFSET $2
`

func (r *PostgresPostRepository) List(ctx context.Context, limit, offset int) ([]*domain.Post, error) {
	if limit < 0 || offset < 0 {
		return nil, fmt.Errorf("%w: limit %d, offset %d", domain.ErrInvalidRange, limit, offset)
	}

	rows, err := r.pool.Query(ctx, pgListPostsQuery, limit, offset)
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

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating post rows: %w", err)
	}

	return posts, nil
}

const pgGetPostQuery = `SELECT ` + pgPostColumns + ` FROM posts WHERE id = $1::uuid`

func (r *PostgresPostRepository) Get(ctx context.Context, id string) (*domain.Post, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrPostNotFound, id)
	}

	var row postRow
	err := row.scan(r.pool.QueryRow(ctx, pgGetPostQuery, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", domain.ErrPostNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get post: %w", err)
	}

	return row.toDomain(), nil
}

const pgInsertPostQuery = `
	INSERT INTO posts (id, title, content, image_url, creator_name, created_at, updated_at)
	VALUES ($1::uuid, $2, $3, $4, $5, $6, $7)
`

func (r *PostgresPostRepository) Create(ctx context.Context, p *domain.Post) error {
	if p == nil {
		return fmt.Errorf("post cannot be nil")
	}

	now := storeNow()
	id := uuid.NewString()

	_, err := r.pool.Exec(ctx, pgInsertPostQuery, id, p.Title, p.Content, p.ImageURL, p.Creator.Name, now, now)
	if err != nil {
		return fmt.Errorf("failed to insert post: %w", err)
	}

	p.ID = id
	p.CreatedAt = now
	p.UpdatedAt = now
	return nil
}

const pgUpdatePostQuery = `
	UPDATE posts
	SET title = $1, content = $2, image_url = $3, updated_at = $4
	WHERE id = $5::uuid
	RETURNING ` + pgPostColumns

func (r *PostgresPostRepository) Update(ctx context.Context, p *domain.Post) error {
	if p == nil {
		return fmt.Errorf("post cannot be nil")
	}
	if _, err := uuid.Parse(p.ID); err != nil {
		return fmt.Errorf("%w: %s", domain.ErrPostNotFound, p.ID)
	}

	var row postRow
	err := row.scan(r.pool.QueryRow(ctx, pgUpdatePostQuery, p.Title, p.Content, p.ImageURL, storeNow(), p.ID))
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%w: %s", domain.ErrPostNotFound, p.ID)
	}
	if err != nil {
		return fmt.Errorf("failed to update post: %w", err)
	}

	*p = *row.toDomain()
	return nil
}

func (r *PostgresPostRepository) Delete(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("%w: %s", domain.ErrPostNotFound, id)
	}

	tag, err := r.pool.Exec(ctx, `DELETE FROM posts WHERE id = $1::uuid`, id)
	if err != nil {
		return fmt.Errorf("failed to delete post: %w", err)
	}
	return requireDeleted(tag, id)
}

func (r *PostgresPostRepository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

func requireDeleted(tag pgconn.CommandTag, id string) error {
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", domain.ErrPostNotFound, id)
	}
	return nil
}
