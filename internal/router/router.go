package router

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"

	"bmad-board/internal/config"
	"bmad-board/internal/handlers"
)

const eventsPath = "/api/events"

// Setup builds the HTTP engine and registers every API route
func Setup(
	cfg *config.Config,
	projectHandler *handlers.ProjectHandler,
	documentHandler *handlers.DocumentHandler,
	watchHandler *handlers.WatchHandler,
	eventHandler *handlers.EventHandler,
) *gin.Engine {
	gin.SetMode(cfg.Server.Mode)

	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.Server.Mode == gin.DebugMode {
		r.Use(gin.Logger())
	}

	r.Use(cors.New(cors.Config{
		AllowOrigins:  []string{"*"},
		AllowMethods:  []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type"},
		ExposeHeaders: []string{"Content-Length"},
	}))
	r.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{eventsPath})))

	api := r.Group("/api")
	{
		projects := api.Group("/projects")
		{
			projects.GET("/scan", projectHandler.Scan)
			projects.GET("/detect", projectHandler.Detect)
			projects.GET("/candidates", projectHandler.Candidates)
			projects.POST("/parse", projectHandler.Parse)
			projects.POST("/stats", projectHandler.Stats)
		}

		documents := api.Group("/documents")
		{
			documents.GET("", documentHandler.Get)
			documents.PUT("", documentHandler.Update)
		}

		watch := api.Group("/watch")
		{
			watch.POST("", watchHandler.Start)
			watch.DELETE("", watchHandler.StopAll)
			watch.DELETE("/:id", watchHandler.Stop)
		}

		api.GET("/events", eventHandler.Stream)
		api.GET("/home", projectHandler.Home)
	}

	return r
}
