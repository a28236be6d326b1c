package main

import (
	"consult-signaling/internal/auth"
	"consult-signaling/internal/config"
	"consult-signaling/internal/gateway/ws"
	"consult-signaling/internal/httpapi"
	"consult-signaling/internal/rbac"

	"github.com/gin-gonic/gin"
)

type routeDeps struct {
	cfg      config.Config
	auth     auth.Resolver
	ws       *ws.Handler
	handlers httpapi.Handlers
}

// registerRoutes wires HTTP routes to handlers.
// Keep this file free of business logic. Handlers should delegate to internal modules.
func registerRoutes(r *gin.Engine, d routeDeps) {
	h := d.handlers

	// public
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok", "node_id": d.cfg.App.NodeID})
	})

	// Signaling upgrade. Identity is optional here; anonymous connections can't act.
	r.GET("/ws", d.ws.ServeWS)

	v1 := r.Group("/v1")

	// Token issuance without credentials exists for local development only.
	if d.cfg.DevToolsEnabled() {
		v1.POST("/auth/dev-token", h.DevToken)
	}

	authed := v1.Group("")
	authed.Use(auth.RequireAccessToken(d.auth))
	{
		authed.GET("/me", h.Me)
		authed.GET("/ice-servers", h.ICEServers)
		authed.GET("/users/:id/presence", h.Presence)
	}

	// ADMIN routes
	admin := authed.Group("/admin")
	admin.Use(rbac.RequireAnyRole(rbac.RoleAdmin))
	{
		admin.GET("/calls", h.AdminActiveCalls)
		admin.GET("/connections", h.AdminConnections)
		admin.GET("/reports/calls", h.AdminCallsReport)
	}
}
