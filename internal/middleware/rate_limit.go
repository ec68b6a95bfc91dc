package middleware

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	// EditorMaxRequests par minute et par administrateur
	EditorMaxRequests = 120
	// SearchMaxRequests par minute et par IP
	SearchMaxRequests = 30

	RateLimitWindow = 1 * time.Minute
)

// RateLimitKey choisit l'identité comptée (utilisateur, IP...)
type RateLimitKey func(c *gin.Context) string

func ByUser(c *gin.Context) string {
	if id := c.GetString("user_id"); id != "" {
		return id
	}
	return c.ClientIP()
}

func ByIP(c *gin.Context) string {
	return c.ClientIP()
}

// RateLimit compte les requêtes dans Redis sur une fenêtre fixe.
// Un compteur resté sans expiration est réarmé à la requête suivante.
// Si Redis est indisponible la requête passe.
func RateLimit(client *redis.Client, prefix string, max int64, window time.Duration, keyFn RateLimitKey, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		key := prefix + ":" + keyFn(c)

		var (
			incr *redis.IntCmd
			ttl  *redis.DurationCmd
		)
		_, err := client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
			incr = pipe.Incr(ctx, key)
			ttl = pipe.TTL(ctx, key)
			return nil
		})
		if err != nil {
			logger.Warn("⚠️ Rate limit indisponible", zap.String("key", key), zap.Error(err))
			c.Next()
			return
		}

		count := incr.Val()
		retryAfter := ttl.Val()
		if retryAfter < 0 {
			if err := client.Expire(ctx, key, window).Err(); err != nil {
				logger.Warn("⚠️ Expiration du compteur impossible", zap.String("key", key), zap.Error(err))
			}
			retryAfter = window
		}

		remaining := max - count
		if remaining < 0 {
			remaining = 0
		}
		c.Header("X-RateLimit-Limit", fmt.Sprintf("%d", max))
		c.Header("X-RateLimit-Remaining", fmt.Sprintf("%d", remaining))

		if count > max {
			seconds := int(retryAfter.Seconds())
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":       fmt.Sprintf("Trop de requêtes. Réessayez dans %d secondes", seconds),
				"retry_after": seconds,
			})
			return
		}
		c.Next()
	}
}
