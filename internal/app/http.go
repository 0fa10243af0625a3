package app

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/onlyformurshi/zameel-admin-gateway/internal/config"
	"github.com/onlyformurshi/zameel-admin-gateway/internal/gateway"
	"github.com/onlyformurshi/zameel-admin-gateway/internal/handler"
	"github.com/onlyformurshi/zameel-admin-gateway/internal/middleware"
	"github.com/onlyformurshi/zameel-admin-gateway/internal/session"
	"github.com/onlyformurshi/zameel-admin-gateway/internal/tokenstore"
)

func setupHTTP(ctx context.Context, cfg config.Config) (*gin.Engine, func() error, error) {

	infra, err := setupInfra(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}

	// ----------------------------
	// Dependencies
	// ----------------------------

	backend := gateway.NewClient(cfg.BackendBaseURL)

	sessions := session.NewRegistry(
		newStoreFactory(cfg, infra),
		backend,
		cfg.LoginPath,
	)

	guard := middleware.NewGuard(sessions, cfg.LoginPath)

	authHandler := handler.NewAuthHandler(
		sessions,
		cfg.SessionTTL,
		cfg.LoginPath,
		cfg.DefaultPath,
	)

	proxyHandler := handler.NewProxyHandler(sessions, backend)

	// ----------------------------
	// Router
	// ----------------------------

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())

	// ----------------------------
	// Public Routes
	// ----------------------------

	authHandler.RegisterRoutes(router)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// ----------------------------
	// Protected Routes
	// ----------------------------

	auth := router.Group("/auth")
	auth.Use(middleware.GinRequireAuth(guard))
	auth.GET("/me", authHandler.Me)

	admin := router.Group("/admin")
	admin.Use(middleware.GinRequireAuth(guard))

	admin.GET("", func(c *gin.Context) {
		user, _ := middleware.UserFromContext(c.Request.Context())
		c.JSON(200, gin.H{
			"status": "ok",
			"user":   user,
		})
	})

	admin.Any("/api/*path", proxyHandler.Forward)

	// ----------------------------
	// Cleanup
	// ----------------------------

	return router, infra.Close, nil
}

// newStoreFactory scopes a token store to each visitor namespace on
// the configured backend.
func newStoreFactory(cfg config.Config, infra *Infra) session.StoreFactory {
	switch cfg.SessionBackend {
	case "postgres":
		return func(namespace string) tokenstore.Store {
			return tokenstore.NewPostgresStore(infra.DB, namespace, cfg.SessionTTL)
		}
	case "memory":
		return func(namespace string) tokenstore.Store {
			return tokenstore.NewMemoryStore(cfg.SessionTTL)
		}
	default:
		return func(namespace string) tokenstore.Store {
			return tokenstore.NewRedisStore(infra.Redis.Client, namespace, cfg.SessionTTL)
		}
	}
}
