package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/userhub/backend/internal/api"
	"github.com/userhub/backend/internal/middleware"
	"github.com/userhub/backend/internal/service"
)

// SetupRouter configures the application routes
func SetupRouter(
	authHandler *api.AuthHandler,
	profileHandler *api.ProfileHandler,
	accountHandler *api.AccountHandler,
	identityService service.IIdentityService,
	rateLimiter *middleware.RateLimiter,
	metricsHandler http.Handler,
) *gin.Engine {
	router := gin.Default()

	// CORS middleware
	router.Use(middleware.CORS())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(metricsHandler))

	// API v1 routes
	v1 := router.Group("/api/v1")

	// Auth routes
	authHandler.RegisterRoutes(v1)

	// Protected routes
	protected := v1.Group("")
	protected.Use(middleware.AuthMiddleware(identityService))
	{
		profile := protected.Group("/profile")
		{
			profile.GET("", profileHandler.GetProfile)
			profile.GET("/watch", profileHandler.WatchProfile)
			profile.PUT("", rateLimiter.RateLimitMiddleware(), profileHandler.UpdateProfile)
			profile.POST("/picture", rateLimiter.RateLimitMiddleware(), profileHandler.UploadPicture)
			profile.POST("/logout", profileHandler.Logout)
		}

		account := protected.Group("/account")
		{
			account.DELETE("", rateLimiter.RateLimitMiddleware(), accountHandler.DeleteAccount)
		}
	}

	return router
}
