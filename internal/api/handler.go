package api

import (
	"net/http"
	"strconv"
	"time"

	"pulse-service/internal/service"
	"pulse-service/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	cartTokenHeader = "X-Cart-Token"
	scopeHeader     = "X-Sales-Channel"
)

// Handler contains HTTP handlers
type Handler struct {
	liveState *service.LiveStateService
}

// NewHandler creates a new HTTP handler
func NewHandler(liveState *service.LiveStateService) *Handler {
	return &Handler{
		liveState: liveState,
	}
}

// SetupRoutes sets up HTTP routes
func (h *Handler) SetupRoutes(router *gin.Engine) {
	router.Use(gin.Recovery())
	router.Use(prometheusMiddleware())
	router.Use(gin.Logger())

	router.GET("/health", h.healthCheck)
	router.GET("/ready", h.readinessCheck)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/api/v1")
	{
		v1.GET("/products/:id/stock-state", h.stockState)
		v1.POST("/products/:id/viewers", h.viewerHeartbeat)
		v1.POST("/products/:id/viewers/leave", h.viewerLeave)
		v1.POST("/cart-presence/heartbeat", h.cartHeartbeat)
		v1.POST("/cart-presence/leave", h.cartLeave)
	}
}

// healthCheck handles health check requests
func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"time":   time.Now().Unix(),
	})
}

// readinessCheck handles readiness check requests
func (h *Handler) readinessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
		"time":   time.Now().Unix(),
	})
}

// viewerRequest carries the client-generated viewer token.
type viewerRequest struct {
	ClientToken string `json:"clientToken"`
}

// stockState answers a stock poll. The response carries a fingerprint ETag;
// a matching If-None-Match short-circuits to 304 so idle pollers stay cheap.
func (h *Handler) stockState(c *gin.Context) {
	state, err := h.liveState.GetStockState(
		c.Request.Context(),
		c.Param("id"),
		c.GetHeader(scopeHeader),
		c.GetHeader(cartTokenHeader),
	)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to resolve stock state",
			"details": err.Error(),
		})
		return
	}
	if state == nil {
		noStore(c)
		c.JSON(http.StatusNotFound, gin.H{"success": false})
		return
	}

	etag := `"` + service.Fingerprint(state) + `"`
	c.Header("Cache-Control", "private, no-cache, must-revalidate, max-age=0")
	c.Header("ETag", etag)

	if c.GetHeader("If-None-Match") == etag {
		c.Status(http.StatusNotModified)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    state,
	})
}

// viewerHeartbeat registers the caller as a live viewer of the product and
// returns how many other viewers are on the page.
func (h *Handler) viewerHeartbeat(c *gin.Context) {
	var req viewerRequest
	_ = c.ShouldBindJSON(&req)

	state, err := h.liveState.GetViewerState(
		c.Request.Context(),
		c.Param("id"),
		req.ClientToken,
		c.GetHeader(scopeHeader),
	)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to resolve viewer state",
			"details": err.Error(),
		})
		return
	}

	noStore(c)
	if state == nil {
		c.JSON(http.StatusNotFound, gin.H{"success": false})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    state,
	})
}

// viewerLeave drops the caller's viewer heartbeat.
func (h *Handler) viewerLeave(c *gin.Context) {
	var req viewerRequest
	_ = c.ShouldBindJSON(&req)

	if err := h.liveState.RemoveViewer(
		c.Request.Context(),
		c.Param("id"),
		req.ClientToken,
		c.GetHeader(scopeHeader),
	); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to remove viewer",
			"details": err.Error(),
		})
		return
	}

	noStore(c)
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// cartHeartbeat refreshes the caller's cart presence so its reservations
// stay live between cart mutations.
func (h *Handler) cartHeartbeat(c *gin.Context) {
	if err := h.liveState.TouchCartPresence(
		c.Request.Context(),
		c.GetHeader(cartTokenHeader),
		c.GetHeader(scopeHeader),
	); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to touch cart presence",
			"details": err.Error(),
		})
		return
	}

	noStore(c)
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// cartLeave drops the caller's cart presence, letting its reservations
// expire for everyone else.
func (h *Handler) cartLeave(c *gin.Context) {
	if err := h.liveState.ClearCartPresence(
		c.Request.Context(),
		c.GetHeader(cartTokenHeader),
		c.GetHeader(scopeHeader),
	); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to clear cart presence",
			"details": err.Error(),
		})
		return
	}

	noStore(c)
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func noStore(c *gin.Context) {
	c.Header("Cache-Control", "no-store, no-cache, must-revalidate, max-age=0")
	c.Header("Pragma", "no-cache")
}

// prometheusMiddleware collects HTTP metrics
func prometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())

		util.HTTPRequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Observe(duration)

		util.HTTPRequestsTotal.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Inc()
	}
}
