package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dfryer1193/feedapi/blog/domain"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"
)

var _ domain.PostRepository = (*MongoPostRepository)(nil)

const postsCollection = "posts"

// MongoPostRepository implements domain.PostRepository on a MongoDB collection.
type MongoPostRepository struct {
	coll *mongo.Collection
}

func NewMongoPostRepository(database *mongo.Database) *MongoPostRepository {
	return &MongoPostRepository{
		coll: database.Collection(postsCollection),
	}
}

func (r *MongoPostRepository) Count(ctx context.Context) (int64, error) {
	count, err := r.coll.CountDocuments(ctx, bson.D{})
	if err != nil {
		return 0, fmt.Errorf("failed to count posts: %w", err)
	}
	return count, nil
}

// List returns up to limit posts ordered by ObjectID, which follows insertion order.
func (r *MongoPostRepository) List(ctx context.Context, limit, offset int) ([]*domain.Post, error) {
	if limit < 0 || offset < 0 {
		return nil, fmt.Errorf("%w: limit %d, offset %d", domain.ErrInvalidRange, limit, offset)
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "_id", Value: 1}}).
		SetSkip(int64(offset)).
		SetLimit(int64(limit))

	cursor, err := r.coll.Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}

	var docs []postDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode posts: %w", err)
	}

	posts := make([]*domain.Post, 0, len(docs))
	for i := range docs {
		posts = append(posts, docs[i].toDomain())
	}
	return posts, nil
}

func (r *MongoPostRepository) Get(ctx context.Context, id string) (*domain.Post, error) {
	oid, err := parseObjectID(id)
	if err != nil {
		return nil, err
	}

	var doc postDocument
	err = r.coll.FindOne(ctx, bson.D{{Key: "_id", Value: oid}}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("%w: %s", domain.ErrPostNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get post: %w", err)
	}

	return doc.toDomain(), nil
}

func (r *MongoPostRepository) Create(ctx context.Context, p *domain.Post) error {
	if p == nil {
		return fmt.Errorf("post cannot be nil")
	}

	now := storeNow()
	doc := newPostDocument(p)
	doc.ID = bson.NewObjectID()
	doc.CreatedAt = now
	doc.UpdatedAt = now

	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("failed to insert post: %w", err)
	}

	p.ID = doc.ID.Hex()
	p.CreatedAt = now
	p.UpdatedAt = now
	return nil
}

// Update sets the mutable fields and loads the stored document back into p.
func (r *MongoPostRepository) Update(ctx context.Context, p *domain.Post) error {
	if p == nil {
		return fmt.Errorf("post cannot be nil")
	}

	oid, err := parseObjectID(p.ID)
	if err != nil {
		return err
	}

	update := bson.D{{Key: "$set", Value: bson.D{
		{Key: "title", Value: p.Title},
		{Key: "content", Value: p.Content},
		{Key: "imageUrl", Value: p.ImageURL},
		{Key: "updatedAt", Value: storeNow()},
	}}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var doc postDocument
	err = r.coll.FindOneAndUpdate(ctx, bson.D{{Key: "_id", Value: oid}}, update, opts).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return fmt.Errorf("%w: %s", domain.ErrPostNotFound, p.ID)
	}
	if err != nil {
		return fmt.Errorf("failed to update post: %w", err)
	}

	*p = *doc.toDomain()
	return nil
}

func (r *MongoPostRepository) Delete(ctx context.Context, id string) error {
	oid, err := parseObjectID(id)
	if err != nil {
		return err
	}

	res, err := r.coll.DeleteOne(ctx, bson.D{{Key: "_id", Value: oid}})
	if err != nil {
		return fmt.Errorf("failed to delete post: %w", err)
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("%w: %s", domain.ErrPostNotFound, id)
	}
	return nil
}

func (r *MongoPostRepository) Ping(ctx context.Context) error {
	return r.coll.Database().Client().Ping(ctx, readpref.Primary())
}

// parseObjectID maps ids that cannot be ObjectIDs to ErrPostNotFound, since
// no stored post can carry them.
func parseObjectID(id string) (bson.ObjectID, error) {
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return bson.ObjectID{}, fmt.Errorf("%w: %s", domain.ErrPostNotFound, id)
	}
	return oid, nil
}

type creatorDocument struct {
	Name string `bson:"name"`
}

// postDocument is the BSON shape of a post in the posts collection.
type postDocument struct {
	ID        bson.ObjectID   `bson:"_id,omitempty"`
	Title     string          `bson:"title"`
	Content   string          `bson:"content"`
	ImageURL  string          `bson:"imageUrl"`
	Creator   creatorDocument `bson:"creator"`
	CreatedAt time.Time       `bson:"createdAt"`
	UpdatedAt time.Time       `bson:"updatedAt"`
}

func newPostDocument(p *domain.Post) postDocument {
	return postDocument{
		Title:    p.Title,
		Content:  p.Content,
		ImageURL: p.ImageURL,
		Creator:  creatorDocument{Name: p.Creator.Name},
	}
}

func (d *postDocument) toDomain() *domain.Post {
	return &domain.Post{
		ID:        d.ID.Hex(),
		Title:     d.Title,
		Content:   d.Content,
		ImageURL:  d.ImageURL,
		Creator:   domain.Creator{Name: d.Creator.Name},
		CreatedAt: d.CreatedAt.UTC(),
		UpdatedAt: d.UpdatedAt.UTC(),
	}
}
