package mockapi

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// SetupRouter configures the Gin router for the mock dispatch API.
func SetupRouter(deps *Dependencies) *gin.Engine {
	r := gin.New()

	r.Use(gin.Recovery())
	r.Use(LoggerMiddleware(deps.Logger))
	r.Use(CORSMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"service": "fieldsync-mock-api",
		})
	})

	h := NewHandler(deps)

	v1 := r.Group("/api/v1")
	{
		v1.POST("/auth/login", h.Login)

		authed := v1.Group("")
		authed.Use(AuthMiddleware(deps.Issuer.Secret))
		{
			authed.GET("/jobs", h.ListJobs)
			authed.GET("/jobs/:job_id", h.GetJob)
			authed.PUT("/jobs/:job_id", h.UpdateJob)

			authed.GET("/technicians/:technician_id", h.GetTechnician)
			authed.PUT("/technicians/location", h.UpdateTechnicianLocation)
			authed.PUT("/technicians/status", h.UpdateTechnicianStatus)

			authed.GET("/customers/profile", h.GetCustomerProfile)
			authed.PUT("/customers/profile", h.UpdateCustomerProfile)
			authed.GET("/customers/:customer_id", h.GetCustomer)
		}
	}

	return r
}

// LoggerMiddleware logs HTTP requests with slog.
func LoggerMiddleware(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		logger.Info("HTTP Request",
			slog.Int("status", c.Writer.Status()),
			slog.String("method", c.Request.Method),
			slog.String("path", path),
			slog.String("query", query),
			slog.Duration("latency", time.Since(start)),
		)
	}
}

// CORSMiddleware handles Cross-Origin Resource Sharing for the web
// portal during local development.
func CORSMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Accept, Authorization")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
