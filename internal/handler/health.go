package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/sebastiangaticacl/stvaldivia/internal/infra"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Health reports dependency status. Degraded storage turns the response 503
// so a load balancer can pull the node. A tripped POS bridge breaker is
// reported but never fails the check: sales keep recording without the
// bridge and sync catches up later.
func Health(db *gorm.DB, rdb *redis.Client, syncCB *infra.CircuitBreaker) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()

		checks := gin.H{
			"db":         "up",
			"redis":      "up",
			"pos_bridge": syncCB.State().String(),
		}

		healthy := true
		if sqlDB, err := db.DB(); err != nil || sqlDB.PingContext(ctx) != nil {
			checks["db"] = "down"
			healthy = false
		}
		if rdb.Ping(ctx).Err() != nil {
			checks["redis"] = "down"
			healthy = false
		}

		status := http.StatusOK
		if !healthy {
			status = http.StatusServiceUnavailable
		}
		checks["ok"] = healthy
		c.JSON(status, checks)
	}
}
