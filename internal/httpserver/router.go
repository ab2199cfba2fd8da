package httpserver

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"streaksvc/internal/handler"
)

type RouterOptions struct {
	JWTSecret        string
	RefreshPerMinute int
}

func NewRouter(streakHandler *handler.StreakHandler, logger *zap.Logger, db *pgxpool.Pool, rdb *redis.Client, opts RouterOptions) *gin.Engine {
	r := gin.Default()

	r.Use(RequestLogger(logger))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
	r.HEAD("/healthz", func(c *gin.Context) {
		c.Status(200)
	})

	r.GET("/readyz", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c, 1*time.Second)
		defer cancel()

		if err := db.Ping(ctx); err != nil {
			c.JSON(500, gin.H{"status": "db_not_ready", "error": err.Error()})
			return
		}

		if rdb != nil {
			if err := rdb.Ping(ctx).Err(); err != nil {
				c.JSON(500, gin.H{"status": "redis_not_ready", "error": err.Error()})
				return
			}
		}

		c.JSON(200, gin.H{"status": "ready"})
	})

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.GET("/leaderboard", streakHandler.GetLeaderboard)

	users := r.Group("/users", Auth(opts.JWTSecret))
	users.GET("/:id/streak", streakHandler.GetStreak)
	users.POST("/:id/streak/refresh", RateLimit(opts.RefreshPerMinute), streakHandler.RefreshStreak)

	return r
}
