package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/ikiraha/backend/internal/model"
	"github.com/ikiraha/backend/internal/service"
)

// NewRouter wires middleware and routes. Gated routes run behind the auth
// middleware; catalog writes additionally require the admin flag.
func NewRouter(auth *AuthHandler, catalog *CatalogHandler, health *HealthHandler, authService *service.AuthService, allowedOrigins string) *gin.Engine {
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.Use(CORSMiddleware(strings.Split(allowedOrigins, ",")))

	r.GET("/", Root)
	r.GET("/health", health.Health)
	r.GET("/openapi.json", OpenAPIDoc)

	authGroup := r.Group("/api/auth")
	{
		authGroup.POST("/register", auth.Register)
		authGroup.POST("/login", auth.Login)
		authGroup.POST("/refresh-token", auth.Refresh)
		authGroup.POST("/forgot-password", auth.ForgotPassword)
		authGroup.POST("/reset-password", auth.ResetPassword)
		authGroup.POST("/verify-email", auth.VerifyEmail)

		gated := authGroup.Group("", AuthMiddleware(authService))
		{
			gated.POST("/logout", auth.Logout)
			gated.GET("/profile", auth.Profile)
			gated.PUT("/profile", auth.UpdateProfile)
			gated.PUT("/change-password", auth.ChangePassword)
		}
	}

	public := r.Group("/api", OptionalAuthMiddleware(authService))
	{
		public.GET("/restaurants", catalog.ListRestaurants)
		public.GET("/restaurants/:id", catalog.GetRestaurant)
		public.GET("/restaurants/:id/items", catalog.ListFoodItems)
		public.GET("/items/:id", catalog.GetFoodItem)
	}

	admin := r.Group("/api", AuthMiddleware(authService), RequireAdmin())
	{
		admin.POST("/restaurants", catalog.CreateRestaurant)
		admin.PUT("/restaurants/:id", catalog.UpdateRestaurant)
		admin.DELETE("/restaurants/:id", catalog.DeleteRestaurant)
		admin.POST("/restaurants/:id/items", catalog.CreateFoodItem)
		admin.PUT("/items/:id", catalog.UpdateFoodItem)
		admin.DELETE("/items/:id", catalog.DeleteFoodItem)
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, model.Fail("Endpoint not found"))
	})

	return r
}
