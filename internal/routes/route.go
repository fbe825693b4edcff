package routes

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/Phoomss/ChaiCharoen-Catering/internal/container"
	"github.com/Phoomss/ChaiCharoen-Catering/internal/handlers"
	"github.com/Phoomss/ChaiCharoen-Catering/internal/middleware"
)

// SetupRoutes configures all routes with the dependency container
func SetupRoutes(container *container.Container) *gin.Engine {
	if container.Config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:3000"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
	}))

	// Add middleware
	r.Use(middleware.RequestID())
	r.Use(middleware.StructuredLogger(container.Logger))
	r.Use(middleware.ErrorHandler(container.Logger))
	r.Use(gin.Recovery())

	// Booking endpoints sit behind the limiter so a misbehaving client
	// cannot burn through date slots or flood the ledger.
	rateLimit := middleware.RateLimit(container.RedisClient, 30, time.Minute, container.Logger)

	// API version 1
	v1 := r.Group("/api/v1")
	{
		// Health check
		v1.GET("/health", func(c *gin.Context) {
			c.JSON(200, gin.H{
				"status":  "OK",
				"service": "chaicharoen-api",
			})
		})

		// public routes
		v1.POST("/signup", rateLimit, handlers.Signup(container.UserService))
		v1.POST("/login", rateLimit, handlers.Login(container.UserService))
		v1.POST("/logout", handlers.Logout())

		v1.GET("/packages", handlers.ListPackages(container.PackageService))
		v1.GET("/packages/:id", handlers.GetPackage(container.PackageService))
		v1.GET("/bookings/availability", handlers.DateAvailability(container.BookingService))
	}

	protected := v1.Group("/")
	protected.Use(middleware.AuthMiddleware(container.Config.JWTSecret))
	{
		protected.GET("/profile", handlers.Me(container.UserService))

		bookingRoutes := protected.Group("/bookings")
		{
			bookingRoutes.POST("", rateLimit, handlers.CreateBooking(container.BookingService))
			bookingRoutes.GET("", handlers.ListMyBookings(container.BookingService))
			bookingRoutes.GET("/:id", handlers.GetBooking(container.BookingService))
			bookingRoutes.POST("/:id/payments", rateLimit, handlers.RecordPayment(container.BookingService))
			bookingRoutes.POST("/:id/cancel", handlers.CancelBooking(container.BookingService))
			bookingRoutes.PATCH("/:id/menus", handlers.ReviseMenus(container.BookingService))
			bookingRoutes.POST("/slips", rateLimit, handlers.UploadSlip(container.Cloudinary))
		}
	}

	admin := v1.Group("/admin")
	admin.Use(middleware.AuthMiddleware(container.Config.JWTSecret), middleware.RequireAdmin())
	{
		admin.GET("/bookings", handlers.ListAllBookings(container.BookingService))
		admin.PATCH("/bookings/:id/status", handlers.OverrideStatus(container.BookingService))

		admin.POST("/packages", handlers.CreatePackage(container.PackageService))
		admin.PATCH("/packages/:id", handlers.UpdatePackage(container.PackageService))
		admin.DELETE("/packages/:id", handlers.DeletePackage(container.PackageService))
	}

	return r
}
