package api

import (
	"github.com/gin-gonic/gin"
)

// SetupRouter wires the HTTP routes. Health is served without credentials,
// everything else sits behind the tenant auth middleware.
func SetupRouter(h *Handler, auth gin.HandlerFunc) *gin.Engine {
	router := gin.Default()

	v1 := router.Group("/api/v1")
	{
		v1.GET("/health", h.Health)

		protected := v1.Group("")
		protected.Use(auth)
		{
			protected.POST("/documents", h.UploadDocument)
			protected.GET("/documents", h.ListDocuments)
			protected.POST("/query", h.Query)
		}
	}

	return router
}
