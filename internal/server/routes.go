package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// registerRoutes wires all API routes onto the router.
func registerRoutes(router *gin.Engine, deps Deps) {
	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := router.Group("/api", requireUser(deps.Auth))

	api.POST("/message", handleSendMessage(deps))

	api.POST("/documents", handleCreateDocument(deps))
	api.GET("/documents", handleListDocuments(deps))
	api.GET("/documents/:id/messages", handleTranscript(deps))
	api.GET("/documents/:id/export", handleExport(deps))

	api.POST("/feedback", handleCreateFeedback(deps))
	api.GET("/feedback", handleListFeedback(deps))
}
