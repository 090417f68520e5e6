// Package server builds the HTTP engine and wires the route groups.
package server

import (
	"fmt"

	"github.com/gin-gonic/gin"

	"github.com/rvdzwet/invoice-validator-sub003/internal/shared/config"
	"github.com/rvdzwet/invoice-validator-sub003/internal/shared/server/middleware"
	"github.com/rvdzwet/invoice-validator-sub003/internal/validationapi"
)

// NewEngine builds the gin engine with middleware and routes registered.
func NewEngine(cfg config.Config, handler *validationapi.Handler) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(middleware.RequestID(), middleware.Logging(), middleware.Recovery())

	registerRoutes(engine, handler)
	return engine
}

// Addr returns a normalized listen address for the given port.
func Addr(port string) string {
	if port == "" {
		return ":8080"
	}
	if port[0] == ':' {
		return port
	}
	return fmt.Sprintf(":%s", port)
}
