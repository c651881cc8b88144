package handler

import (
	"net/http"
	"time"

	"mapchat/internal/config"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

const MapPath = "/maps/"

func NewRouter(cfg *config.Config, sessionHandler *SessionHandler) *gin.Engine {
	router := gin.New()

	router.Use(gin.Logger())
	router.Use(gin.Recovery())

	corsConfig := cors.Config{
		AllowOrigins:     cfg.CORS.AllowedOrigins,
		AllowMethods:     cfg.CORS.AllowedMethods,
		AllowHeaders:     cfg.CORS.AllowedHeaders,
		ExposeHeaders:    cfg.CORS.ExposedHeaders,
		AllowCredentials: cfg.CORS.AllowCredentials,
		MaxAge:           time.Duration(cfg.CORS.MaxAge) * time.Second,
	}
	router.Use(cors.New(corsConfig))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "ok",
			"timestamp": time.Now().Unix(),
		})
	})

	// map documents sit outside /api so the sandbox CSP is the only policy on them
	router.GET(MapPath+":id", sessionHandler.ServeMap)

	api := router.Group("/api")
	{
		s := api.Group("/session")
		{
			s.GET("", sessionHandler.GetSession)
			s.POST("/attachments/:slot", sessionHandler.AttachFile)
			s.DELETE("/attachments/:slot", sessionHandler.ClearSlot)
			s.PUT("/search-mode", sessionHandler.SetSearchMode)
			s.POST("/messages", sessionHandler.SendMessage)
			s.POST("/reset", sessionHandler.Reset)
			s.GET("/map", sessionHandler.GetMap)
			s.GET("/events", sessionHandler.StreamEvents)
		}
	}

	return router
}
