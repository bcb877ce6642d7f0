package api

import "time"

type Creator struct {
	Name string `json:"name"`
}

// Post is the JSON shape of a post. ContentHTML and Snippet are derived
// from Content for display.
type Post struct {
	ID          string    `json:"_id"`
	Title       string    `json:"title"`
	Content     string    `json:"content"`
	ContentHTML string    `json:"contentHtml"`
	Snippet     string    `json:"snippet"`
	ImageURL    string    `json:"imageUrl"`
	Creator     Creator   `json:"creator"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type ListPostsResponse struct {
	Message    string `json:"message"`
	Posts      []Post `json:"posts"`
	TotalItems int64  `json:"totalItems"`
}

type PostResponse struct {
	Message string `json:"message"`
	Post    Post   `json:"post"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type ErrorResponse struct {
	Message string       `json:"message"`
	Data    []FieldError `json:"data,omitempty"`
}

type HealthResponse struct {
	Status string `json:"status"`
}
