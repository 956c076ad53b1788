package app

import (
	"github.com/gin-gonic/gin"
	"github.com/newrelic/go-agent/v3/integrations/nrgin"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/redis/go-redis/v9"

	"drivepool/internal/handler"
	"drivepool/internal/middleware"
)

// RouterDeps contains all dependencies needed for the router.
type RouterDeps struct {
	TripHandler        *handler.TripHandler
	PoolHandler        *handler.PoolHandler
	LeaderboardHandler *handler.LeaderboardHandler
	UserHandler        *handler.UserHandler
	RedisClient        *redis.Client
	NewRelicApp        *newrelic.Application
}

// NewRouter creates a new Gin router with all routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	router := gin.New()

	// Global middleware.
	router.Use(gin.Recovery())
	router.Use(gin.Logger())
	router.Use(middleware.CORSMiddleware())

	// Add New Relic middleware if enabled.
	if deps.NewRelicApp != nil {
		router.Use(nrgin.Middleware(deps.NewRelicApp))
	}

	router.Use(middleware.IdempotencyMiddleware(deps.RedisClient))

	// Health check.
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// API v1 routes.
	v1 := router.Group("/v1")
	{
		// User routes.
		users := v1.Group("/users")
		{
			users.POST("/register", deps.UserHandler.Register)
			users.GET("/:id/profile", deps.UserHandler.GetProfile)
			users.GET("/:id/trips", deps.TripHandler.GetUserTrips)
		}

		// Trip routes.
		trips := v1.Group("/trips")
		{
			trips.POST("", deps.TripHandler.StartTrip)
			trips.GET("/:id", deps.TripHandler.GetTrip)
			trips.POST("/:id/points", deps.TripHandler.AppendPoints)
			trips.POST("/:id/end", deps.TripHandler.EndTrip)
			trips.POST("/:id/cancel", deps.TripHandler.CancelTrip)
			trips.POST("/:id/dispute", deps.TripHandler.DisputeTrip)
			trips.POST("/:id/resolve", deps.TripHandler.ResolveReview)
		}

		// Pool routes.
		pool := v1.Group("/pool")
		{
			pool.GET("", deps.PoolHandler.GetPool)
			pool.POST("/contributions", deps.PoolHandler.Contribute)
			pool.POST("/claims", deps.PoolHandler.RecordClaim)
			pool.POST("/safety-factor", deps.PoolHandler.SetSafetyFactor)
			pool.GET("/shares/:userId", deps.PoolHandler.GetShare)
		}

		// Leaderboard routes.
		leaderboard := v1.Group("/leaderboard")
		{
			leaderboard.GET("/:period", deps.LeaderboardHandler.Get)
			leaderboard.POST("/:period/rebuild", deps.LeaderboardHandler.Rebuild)
		}
	}

	return router
}
