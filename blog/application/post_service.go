package application

import (
	"context"
	"errors"
	"io"
	"math"
	"strings"
	"sync"

	"github.com/dfryer1193/feedapi/blog/domain"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"
)

// PostsPerPage is the fixed page size of ListPosts.
const PostsPerPage = 2

// Upload is an image file received with a create or update request.
type Upload struct {
	Filename string
	Content  io.Reader
}

// CreatePostInput is the input of CreatePost. Image is required.
type CreatePostInput struct {
	PostFields
	Image *Upload
}

// UpdatePostInput is the input of UpdatePost. A new Image takes precedence
// over ImageURL, which keeps or replaces the current image by path.
type UpdatePostInput struct {
	PostFields
	Image    *Upload
	ImageURL string
}

// PostPage is one page of ListPosts.
type PostPage struct {
	Posts      []*domain.Post
	TotalItems int64
}

// ErrorReporter receives failures of background work that can no longer
// reach the request that started it.
type ErrorReporter func(err error)

type Option func(*PostService)

func WithErrorReporter(fn ErrorReporter) Option {
	return func(s *PostService) {
		s.reportError = fn
	}
}

func WithEventPublisher(p domain.EventPublisher) Option {
	return func(s *PostService) {
		s.events = p
	}
}

type PostService struct {
	repo        domain.PostRepository
	images      domain.ImageStore
	events      domain.EventPublisher
	validate    *validator.Validate
	reportError ErrorReporter

	// Service lifecycle context for detached image deletions
	ctx    context.Context
	cancel context.CancelFunc
	wg     *sync.WaitGroup
}

func NewPostService(repo domain.PostRepository, images domain.ImageStore, opts ...Option) *PostService {
	ctx, cancel := context.WithCancel(context.Background())
	s := &PostService{
		repo:        repo,
		images:      images,
		validate:    newValidator(),
		reportError: func(error) {},
		ctx:         ctx,
		cancel:      cancel,
		wg:          &sync.WaitGroup{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Close waits for in-flight image deletions, then releases the service context.
func (s *PostService) Close() error {
	s.wg.Wait()
	s.cancel()

	return nil
}

// ListPosts returns page (1-based) of PostsPerPage posts and the total post count.
func (s *PostService) ListPosts(ctx context.Context, page int) (*PostPage, error) {
	if page < 1 {
		return nil, domain.NewValidationError("page must be a positive integer",
			domain.FieldError{Field: "page", Message: "page must be a positive integer"})
	}

	total, err := s.repo.Count(ctx)
	if err != nil {
		return nil, domain.NewStoreError("Failed to count posts", err)
	}

	// Pages whose offset does not fit in an int lie past any stored post.
	if page-1 > math.MaxInt/PostsPerPage {
		return &PostPage{Posts: []*domain.Post{}, TotalItems: total}, nil
	}

	posts, err := s.repo.List(ctx, PostsPerPage, (page-1)*PostsPerPage)
	if err != nil {
		return nil, domain.NewStoreError("Failed to fetch posts", err)
	}
	if posts == nil {
		return nil, domain.NewNotFoundError("No posts found")
	}

	return &PostPage{Posts: posts, TotalItems: total}, nil
}

func (s *PostService) GetPost(ctx context.Context, id string) (*domain.Post, error) {
	post, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, classifyRepoError(err, "Failed to fetch post")
	}
	return post, nil
}

// CreatePost validates input, stores the image and persists a post owned by
// the default creator.
func (s *PostService) CreatePost(ctx context.Context, in CreatePostInput) (*domain.Post, error) {
	fields := in.PostFields.normalize()
	if err := validateFields(s.validate, fields); err != nil {
		return nil, err
	}
	if in.Image == nil {
		return nil, domain.NewValidationError("No image provided")
	}

	imageURL, err := s.saveImage(ctx, in.Image)
	if err != nil {
		return nil, err
	}

	post := &domain.Post{
		Title:    fields.Title,
		Content:  fields.Content,
		ImageURL: imageURL,
		Creator:  domain.Creator{Name: domain.DefaultCreatorName},
	}
	if err := s.repo.Create(ctx, post); err != nil {
		s.clearImage(imageURL)
		return nil, domain.NewStoreError("Failed to create post", err)
	}

	s.publish(ctx, domain.EventPostCreated, post.ID)
	return post, nil
}

// UpdatePost replaces title, content and image of an existing post. Once
// the change is stored a replaced image is deleted in the background; if
// storing fails, a freshly uploaded image is deleted instead.
func (s *PostService) UpdatePost(ctx context.Context, id string, in UpdatePostInput) (*domain.Post, error) {
	fields := in.PostFields.normalize()
	if err := validateFields(s.validate, fields); err != nil {
		return nil, err
	}
	if in.Image == nil && in.ImageURL == "" {
		return nil, domain.NewValidationError("No file picked")
	}

	post, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, classifyRepoError(err, "Failed to fetch post")
	}

	imageURL := in.ImageURL
	if in.Image != nil {
		if imageURL, err = s.saveImage(ctx, in.Image); err != nil {
			return nil, err
		}
	}

	previousImageURL := post.ImageURL
	post.Title = fields.Title
	post.Content = fields.Content
	post.ImageURL = imageURL
	if err := s.repo.Update(ctx, post); err != nil {
		if in.Image != nil {
			s.clearImage(imageURL)
		}
		return nil, classifyRepoError(err, "Failed to update post")
	}

	if imageURL != previousImageURL {
		s.clearImage(previousImageURL)
	}

	s.publish(ctx, domain.EventPostUpdated, post.ID)
	return post, nil
}

// DeletePost removes a post and requests deletion of its image. Unknown
// ids fail before anything is touched.
func (s *PostService) DeletePost(ctx context.Context, id string) error {
	if id == "" {
		return domain.NewNotFoundError("No post found")
	}

	post, err := s.repo.Get(ctx, id)
	if err != nil {
		return classifyRepoError(err, "Failed to fetch post")
	}

	s.clearImage(post.ImageURL)

	if err := s.repo.Delete(ctx, id); err != nil {
		return classifyRepoError(err, "Failed to delete post")
	}

	s.publish(ctx, domain.EventPostDeleted, id)
	return nil
}

// Ping reports whether the post store is reachable.
func (s *PostService) Ping(ctx context.Context) error {
	return s.repo.Ping(ctx)
}

func (s *PostService) saveImage(ctx context.Context, upload *Upload) (string, error) {
	imageURL, err := s.images.Save(ctx, upload.Filename, upload.Content)
	if err != nil {
		return "", domain.NewFileIOError("Failed to store image", err)
	}
	return normalizeImagePath(imageURL), nil
}

// clearImage deletes an image without blocking the caller. Failures are
// logged and handed to the error reporter; the post change is kept.
func (s *PostService) clearImage(imageURL string) {
	if imageURL == "" {
		return
	}

	s.wg.Go(func() {
		if err := s.images.Delete(s.ctx, imageURL); err != nil {
			log.Error().Err(err).Str("imageUrl", imageURL).Msg("Failed to delete image")
			s.reportError(domain.NewFileIOError("Failed to delete image", err))
		}
	})
}

func (s *PostService) publish(ctx context.Context, typ domain.EventType, postID string) {
	if s.events == nil {
		return
	}
	if err := s.events.Publish(ctx, domain.PostEvent{Type: typ, PostID: postID}); err != nil {
		log.Warn().Err(err).Str("postID", postID).Str("event", string(typ)).Msg("Failed to publish post event")
	}
}

func classifyRepoError(err error, message string) error {
	if errors.Is(err, domain.ErrPostNotFound) {
		return domain.NewNotFoundError("Could not find the post")
	}
	return domain.NewStoreError(message, err)
}

func normalizeImagePath(p string) string {
	return strings.ReplaceAll(p, `\`, "/")
}
