package httpapi

import (
	"errors"
	"net/http"
	"time"

	"consult-signaling/internal/auth"
	"consult-signaling/internal/calls"
	"consult-signaling/internal/config"
	"consult-signaling/internal/rbac"
	"consult-signaling/internal/reporting"
	"consult-signaling/internal/signaling"

	"github.com/gin-gonic/gin"
)

// Handlers groups HTTP handlers for dependency injection.
// Keep these thin: parse/validate input, call internal services, return JSON.
type Handlers struct {
	Auth    *auth.Manager
	Calls   *calls.Registry
	Hub     *signaling.Hub
	Reports *reporting.Service
	ICE     config.ICEConfig
}

// --- Auth ---

type devTokenRequest struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
	Name   string `json:"name"`
}

// DevToken issues an access token without credentials.
// Only routed when APP_ENV is local or dev.
func (h Handlers) DevToken(c *gin.Context) {
	if h.Auth == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "auth not configured"})
		return
	}
	var req devTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if req.UserID == "" || !rbac.IsKnownRole(req.Role) {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "user_id and a valid role required"})
		return
	}
	tok, err := h.Auth.IssueAccess(time.Now(), auth.Identity{ID: req.UserID, Role: req.Role, Name: req.Name})
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "token issuance failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"access_token": tok, "token_type": "Bearer"})
}

func (h Handlers) Me(c *gin.Context) {
	id, err := auth.FromContext(c.Request.Context())
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "identity required"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"user_id": id.ID, "role": id.Role, "name": id.Name})
}

// --- Calls ---

func (h Handlers) ICEServers(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"ice_servers": ICEServers(h.ICE)})
}

// Presence answers whether a user is currently in a call. Derived from the call table.
func (h Handlers) Presence(c *gin.Context) {
	if h.Calls == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "calls not configured"})
		return
	}
	userID := c.Param("id")
	if userID == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "user id required"})
		return
	}
	out := gin.H{"user_id": userID, "busy": h.Calls.IsUserBusy(userID)}
	if h.Hub != nil {
		out["online"] = h.Hub.Connections(userID) > 0
	}
	c.JSON(http.StatusOK, out)
}

// --- Admin ---

func (h Handlers) AdminActiveCalls(c *gin.Context) {
	if h.Calls == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "calls not configured"})
		return
	}
	active := h.Calls.Active()
	c.JSON(http.StatusOK, gin.H{"calls": active, "count": len(active)})
}

func (h Handlers) AdminConnections(c *gin.Context) {
	if h.Hub == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "hub not configured"})
		return
	}
	c.JSON(http.StatusOK, h.Hub.Stats())
}

// AdminCallsReport summarizes call outcomes between from and to (RFC 3339).
// Defaults to the last 24 hours.
func (h Handlers) AdminCallsReport(c *gin.Context) {
	if h.Reports == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "reporting not configured"})
		return
	}

	to := time.Now().UTC()
	from := to.Add(-24 * time.Hour)
	var err error
	if v := c.Query("from"); v != "" {
		if from, err = time.Parse(time.RFC3339, v); err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "from must be RFC 3339"})
			return
		}
	}
	if v := c.Query("to"); v != "" {
		if to, err = time.Parse(time.RFC3339, v); err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "to must be RFC 3339"})
			return
		}
	}

	out, err := h.Reports.CallsSummary(c.Request.Context(), reporting.CallsSummaryRequest{
		Range:  reporting.TimeRange{From: from, To: to},
		UserID: c.Query("user_id"),
	})
	if err != nil {
		if errors.Is(err, reporting.ErrInvalidRequest) {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid range"})
			return
		}
		_ = c.Error(err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "report failed"})
		return
	}
	c.JSON(http.StatusOK, out)
}
