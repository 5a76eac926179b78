package router

import (
	"time"

	"reflectionsmatch/controllers"
	"reflectionsmatch/logger"

	"github.com/gin-gonic/gin"
)

// Logger logs method, path, status, latency and the caller when known.
func Logger(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		kv := []interface{}{
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"latency", time.Since(start).String(),
		}
		if user, ok := controllers.GetUserLogged(c); ok {
			kv = append(kv, "user_id", user.ID)
		}
		if c.Writer.Status() >= 500 {
			log.Warn("request", kv...)
			return
		}
		log.Info("request", kv...)
	}
}
