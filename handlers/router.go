package handlers

import (
	"net/http"
	"path/filepath"
	"time"

	"qwen-chat/services"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// NewRouter wires the chat API, blob serving and the static UI.
// An empty staticDir disables the UI routes.
func NewRouter(h *ChatHandler, staticDir string) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(), cors())

	api := router.Group("/api")
	{
		api.GET("/actions", h.ListActions)
		api.GET("/status", h.Status)

		api.POST("/messages", h.SendMessage)
		api.GET("/messages", h.GetMessages)
		api.DELETE("/messages", h.ClearMessages)
		api.DELETE("/error", h.DismissError)
	}

	router.GET(services.BlobPathPrefix+":id", h.GetBlob)
	router.GET("/health", h.Health)

	if staticDir != "" {
		router.Static("/static", staticDir)
		router.GET("/", func(c *gin.Context) {
			c.File(filepath.Join(staticDir, "index.html"))
		})
	}

	return router
}

// cors enables CORS for local development
func cors() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Info().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("duration", time.Since(start)).
			Msg("request")
	}
}
