// Package router builds the gin engine and its routes.
package router

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"blog_backend/internal/app/di"
)

// NewRouter registers every route on a new engine. CORS is enabled only
// when allowedOrigins is non-empty.
func NewRouter(c *di.Container, allowedOrigins []string) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if gin.Mode() == gin.DebugMode {
		r.Use(gin.Logger())
	}
	if c.Metrics != nil {
		r.Use(c.Metrics.Middleware())
	}
	if len(allowedOrigins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins:     allowedOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	// liveness and dependency checks
	r.GET("/healthz", c.Health.Health)
	r.HEAD("/healthz", c.Health.Health)
	r.OPTIONS("/healthz", c.Health.Health)
	if c.Metrics != nil {
		r.GET("/metrics", c.Metrics.Handler())
	}

	users := r.Group("/api/users")
	{
		users.POST("", c.Users.Create)
		users.POST("/login", c.Users.Auth)
		users.GET("/logout", c.Users.Logout)
		users.GET("", c.Users.List)
		users.GET("/:userId", c.Users.Get)
		users.PUT("/:userId", c.Users.Update)
		// deletes the signed-in user
		users.DELETE("", c.Users.DeleteViewer)
	}

	return r
}
