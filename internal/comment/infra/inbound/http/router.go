package http

import "github.com/gin-gonic/gin"

func RegisterCommentRoutes(r *gin.Engine, handler *CommentHandler) {
	comments := r.Group("/api/v1/comments")
	{
		comments.GET("", handler.ListComments)
		comments.GET("/:id", handler.GetComment)
		comments.POST("", handler.CreateComment)
		comments.PUT("/:id", handler.UpdateComment)
		comments.DELETE("/:id", handler.DeleteComment)
		comments.HEAD("", handler.HeadComments)
		comments.OPTIONS("", handler.OptionsComments)
	}

	r.GET("/api/v1/users/:id/comments", handler.ListUserComments)
	r.GET("/api/v1/posts/:id/comments", handler.ListPostComments)
}
