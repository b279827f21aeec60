package http

import "github.com/gin-gonic/gin"

func RegisterUserRoutes(r *gin.Engine, handler *UserHandler) {
	users := r.Group("/api/v1/users")
	{
		users.GET("", handler.ListUsers)
		users.GET("/:id", handler.GetUser)
		users.POST("", handler.CreateUser)
		users.PUT("/:id", handler.UpdateUser)
		users.DELETE("/:id", handler.DeleteUser)
		users.HEAD("", handler.HeadUsers)
		users.OPTIONS("", handler.OptionsUsers)
	}
}
