package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"cedra_variant_editor/internal/handlers"
	"cedra_variant_editor/internal/middleware"
)

// Deps regroupe ce dont le routeur a besoin. Redis nil désactive le rate limiting.
type Deps struct {
	Editor      *handlers.EditorHandler
	JWTSecret   []byte
	CORSOrigins []string
	Redis       *redis.Client
	Logger      *zap.Logger
}

func NewRouter(deps Deps) *gin.Engine {
	r := gin.New()
	r.Use(middleware.Recovery(deps.Logger), middleware.RequestLogger(deps.Logger))
	r.Use(cors.New(cors.Config{
		AllowOrigins:     deps.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Disposition", "X-RateLimit-Limit", "X-RateLimit-Remaining"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	RegisterRoutes(r, deps)
	return r
}

func RegisterRoutes(r *gin.Engine, deps Deps) {
	r.GET("/health", health(deps.Redis))

	editor := r.Group("/api/admin/variant-editor")
	editor.Use(middleware.AdminRequired(deps.JWTSecret, deps.Logger)...)

	search := []gin.HandlerFunc{}
	if deps.Redis != nil {
		editor.Use(middleware.RateLimit(deps.Redis, "rate_limit:variant_editor",
			middleware.EditorMaxRequests, middleware.RateLimitWindow, middleware.ByUser, deps.Logger))
		search = append(search, middleware.RateLimit(deps.Redis, "rate_limit:sku_search",
			middleware.SearchMaxRequests, middleware.RateLimitWindow, middleware.ByIP, deps.Logger))
	}

	h := deps.Editor
	{
		editor.POST("/products/:id/sessions", h.OpenSession)

		editor.GET("/sessions/:sid", h.GetSession)
		editor.DELETE("/sessions/:sid", h.CloseSession)

		editor.POST("/sessions/:sid/dimensions", h.AddDimension)
		editor.DELETE("/sessions/:sid/dimensions/:dimId", h.RemoveDimension)
		editor.POST("/sessions/:sid/dimensions/:dimId/options", h.AddOption)
		editor.DELETE("/sessions/:sid/dimensions/:dimId/options", h.RemoveOption)

		editor.PATCH("/sessions/:sid/combinations/:cid", h.UpdateCombination)
		editor.POST("/sessions/:sid/combinations/:cid/images", h.AttachImage)

		editor.POST("/sessions/:sid/regenerate", h.Regenerate)
		editor.POST("/sessions/:sid/regenerate-skus", h.RegenerateSkus)

		editor.GET("/sessions/:sid/legacy", h.ExportLegacy)
		editor.POST("/sessions/:sid/legacy", h.ImportLegacy)
		editor.GET("/sessions/:sid/export.csv", h.ExportCSV)

		editor.POST("/sessions/:sid/save", h.Save)

		editor.POST("/sku/derive", handlers.DeriveSku)
		editor.GET("/sku/search", append(search, h.SearchSkus)...)
	}
}

func health(rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		status := gin.H{"status": "ok"}
		if rdb != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()
			if err := rdb.Ping(ctx).Err(); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "redis": err.Error()})
				return
			}
			status["redis"] = "ok"
		}
		c.JSON(http.StatusOK, status)
	}
}
