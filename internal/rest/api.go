package rest

import (
	"github.com/dfryer1193/feedapi/blog/persistence"
	"github.com/gin-gonic/gin"
)

// NewApi registers the post routes. When imageDir is set, stored images
// are served from it under /images.
func NewApi(router *gin.Engine, posts *PostHandler, imageDir string) {
	router.GET("/healthz", posts.Health)

	postsGroup := router.Group("/posts")
	{
		postsGroup.GET("", posts.GetPosts)
		postsGroup.GET("/:postId", posts.GetPost)
		postsGroup.POST("", posts.CreatePost)
		postsGroup.PUT("/:postId", posts.UpdatePost)
		postsGroup.DELETE("/:postId", posts.DeletePost)
	}

	if imageDir != "" {
		router.Static("/"+persistence.ImageURLPrefix, imageDir)
	}
}
