package rest

import (
	"io"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/dfryer1193/feedapi/api"
	"github.com/dfryer1193/feedapi/blog/application"
	"github.com/dfryer1193/feedapi/blog/domain"
	"github.com/gabriel-vasile/mimetype"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// allowedImageTypes are the upload types accepted as post images.
var allowedImageTypes = []string{"image/png", "image/jpeg", "image/jpg"}

type PostHandler struct {
	service  *application.PostService
	renderer application.ContentRenderer
}

func NewPostHandler(service *application.PostService, renderer application.ContentRenderer) *PostHandler {
	return &PostHandler{
		service:  service,
		renderer: renderer,
	}
}

// postRequest is the form or JSON body of create and update requests.
// Image is only read on update, where it names the image to keep. Forms
// share the "image" key with the uploaded file, so it is not form-bound.
type postRequest struct {
	Title   string `form:"title" json:"title"`
	Content string `form:"content" json:"content"`
	Image   string `form:"-" json:"image"`
}

func (h *PostHandler) GetPosts(c *gin.Context) {
	page := 1
	if raw := c.Query("page"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			_ = c.Error(domain.NewValidationError("page must be a positive integer",
				domain.FieldError{Field: "page", Message: "page must be a positive integer"}))
			return
		}
		page = n
	}

	result, err := h.service.ListPosts(c.Request.Context(), page)
	if err != nil {
		_ = c.Error(err)
		return
	}

	posts := make([]api.Post, 0, len(result.Posts))
	for _, p := range result.Posts {
		posts = append(posts, h.toAPIPost(p))
	}

	c.JSON(http.StatusOK, api.ListPostsResponse{
		Message:    "Fetched posts successfully",
		Posts:      posts,
		TotalItems: result.TotalItems,
	})
}

func (h *PostHandler) GetPost(c *gin.Context) {
	post, err := h.service.GetPost(c.Request.Context(), c.Param("postId"))
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, api.PostResponse{Message: "Post fetched", Post: h.toAPIPost(post)})
}

func (h *PostHandler) CreatePost(c *gin.Context) {
	req, ok := bindPostRequest(c)
	if !ok {
		return
	}

	image, closeImage := imageUpload(c)
	defer closeImage()

	post, err := h.service.CreatePost(c.Request.Context(), application.CreatePostInput{
		PostFields: application.PostFields{Title: req.Title, Content: req.Content},
		Image:      image,
	})
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, api.PostResponse{Message: "Post created", Post: h.toAPIPost(post)})
}

func (h *PostHandler) UpdatePost(c *gin.Context) {
	req, ok := bindPostRequest(c)
	if !ok {
		return
	}

	image, closeImage := imageUpload(c)
	defer closeImage()

	imageURL := req.Image
	if image == nil && imageURL == "" {
		imageURL = c.PostForm("image")
	}

	post, err := h.service.UpdatePost(c.Request.Context(), c.Param("postId"), application.UpdatePostInput{
		PostFields: application.PostFields{Title: req.Title, Content: req.Content},
		Image:      image,
		ImageURL:   imageURL,
	})
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, api.PostResponse{Message: "Post updated", Post: h.toAPIPost(post)})
}

func (h *PostHandler) DeletePost(c *gin.Context) {
	if err := h.service.DeletePost(c.Request.Context(), c.Param("postId")); err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, api.MessageResponse{Message: "Post deleted"})
}

// Health reports whether the post store answers.
func (h *PostHandler) Health(c *gin.Context) {
	if err := h.service.Ping(c.Request.Context()); err != nil {
		log.Error().Err(err).Msg("Store health check failed")
		c.JSON(http.StatusServiceUnavailable, api.HealthResponse{Status: "Database connection is down"})
		return
	}
	c.JSON(http.StatusOK, api.HealthResponse{Status: "ok"})
}

func bindPostRequest(c *gin.Context) (postRequest, bool) {
	var req postRequest
	if err := c.ShouldBind(&req); err != nil {
		_ = c.Error(domain.NewValidationError("Validation failed, entered data is incorrect"))
		return req, false
	}
	return req, true
}

// imageUpload returns the "image" file of a multipart request. Missing
// files and files that are not PNG or JPEG count as no upload.
func imageUpload(c *gin.Context) (*application.Upload, func()) {
	noop := func() {}

	header, err := c.FormFile("image")
	if err != nil {
		return nil, noop
	}

	f, err := header.Open()
	if err != nil {
		log.Warn().Err(err).Str("filename", header.Filename).Msg("Failed to open uploaded image")
		return nil, noop
	}

	if !isAllowedImage(f) {
		f.Close()
		return nil, noop
	}

	return &application.Upload{Filename: header.Filename, Content: f}, func() { f.Close() }
}

func isAllowedImage(f multipart.File) bool {
	mtype, err := mimetype.DetectReader(f)
	if err != nil {
		return false
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return false
	}
	return mimetype.EqualsAny(mtype.String(), allowedImageTypes...)
}

func (h *PostHandler) toAPIPost(p *domain.Post) api.Post {
	out := api.Post{
		ID:        p.ID,
		Title:     p.Title,
		Content:   p.Content,
		ImageURL:  p.ImageURL,
		Creator:   api.Creator{Name: p.Creator.Name},
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}

	rendered, err := h.renderer.Render(p.Content)
	if err != nil {
		log.Warn().Err(err).Str("postID", p.ID).Msg("Failed to render post content")
		return out
	}
	out.ContentHTML = rendered.HTML
	out.Snippet = rendered.Snippet
	return out
}
