package http

import "github.com/gin-gonic/gin"

func RegisterPostRoutes(r *gin.Engine, handler *PostHandler) {
	posts := r.Group("/api/v1/posts")
	{
		posts.GET("", handler.ListPosts)
		posts.GET("/:id", handler.GetPost)
		posts.POST("", handler.CreatePost)
		posts.PUT("/:id", handler.UpdatePost)
		posts.DELETE("/:id", handler.DeletePost)
		posts.HEAD("", handler.HeadPosts)
		posts.OPTIONS("", handler.OptionsPosts)
	}

	tags := r.Group("/api/v1/tags")
	{
		tags.GET("", handler.ListTags)
		tags.GET("/:tag/posts", handler.ListPostsByTag)
	}

	r.GET("/api/v1/users/:id/posts", handler.ListUserPosts)
}
