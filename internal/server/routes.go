package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/rvdzwet/invoice-validator-sub003/internal/validationapi"
)

func registerRoutes(r *gin.Engine, handler *validationapi.Handler) {
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/v1")
	handler.RegisterRoutes(api)
}
