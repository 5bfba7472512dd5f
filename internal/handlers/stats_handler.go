package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/hoopthreads/storefront/internal/identity"
	"github.com/hoopthreads/storefront/internal/stats"
)

// StatsConfig groups dependencies for the stats proxy routes.
type StatsConfig struct {
	Client *stats.Client
	Budget *stats.Budget
	Log    *logrus.Logger
}

// RegisterStatsRoutes registers the sports-stats proxy endpoints.
func RegisterStatsRoutes(r *gin.Engine, cfg StatsConfig) {
	r.GET("/stats/players/:id", func(c *gin.Context) {
		payload, err := cfg.Client.PlayerSummary(c.Request.Context(), c.Param("id"))
		if err != nil {
			respondError(c, cfg.Log, err)
			return
		}
		c.Data(http.StatusOK, "application/json", payload)
	})

	r.GET("/stats/teams/:id/roster", func(c *gin.Context) {
		payload, err := cfg.Client.TeamRoster(c.Request.Context(), c.Param("id"))
		if err != nil {
			respondError(c, cfg.Log, err)
			return
		}
		c.Data(http.StatusOK, "application/json", payload)
	})

	r.GET("/stats/games", func(c *gin.Context) {
		date := c.Query("date")
		if date == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "missing_date"})
			return
		}
		payload, err := cfg.Client.GamesByDate(c.Request.Context(), date)
		if err != nil {
			respondError(c, cfg.Log, err)
			return
		}
		c.Data(http.StatusOK, "application/json", payload)
	})

	// admin-only peek at the remaining call budget, plus a manual reset
	admin := r.Group("/", identity.Middleware(), identity.RequireAdmin())
	admin.GET("/stats/budget", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"remaining": cfg.Budget.Remaining()})
	})
	admin.POST("/stats/budget/reset", func(c *gin.Context) {
		cfg.Budget.Reset()
		c.JSON(http.StatusOK, gin.H{"remaining": cfg.Budget.Remaining()})
	})
}
