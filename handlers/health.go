package handlers

import (
	"net/http"
	"time"

	"schedcore/database"
	"schedcore/utils"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// HealthCheck reports liveness of the store and cache dependencies.
func HealthCheck(c *gin.Context) {
	ctx := c.Request.Context()
	status := gin.H{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	}
	code := http.StatusOK

	if err := database.MongoClient.Ping(ctx, readpref.Primary()); err != nil {
		status["status"] = "degraded"
		status["mongo"] = err.Error()
		code = http.StatusServiceUnavailable
	} else {
		status["mongo"] = "up"
	}

	if cache := utils.GetCacheClient(); cache != nil {
		if err := cache.Ping(ctx).Err(); err != nil {
			status["status"] = "degraded"
			status["redis"] = err.Error()
			code = http.StatusServiceUnavailable
		} else {
			status["redis"] = "up"
		}
	}

	c.JSON(code, status)
}
