package commands

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"restaurant-service/cache"
	"restaurant-service/controllers"
	"restaurant-service/database"
	"restaurant-service/events"
	"restaurant-service/middleware"
	"restaurant-service/models"
	aws_pkg "restaurant-service/pkg/aws"
	"restaurant-service/repository"
	"restaurant-service/routes"
	"restaurant-service/services"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var skipMigrate bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context())
	},
}

func init() {
	serveCmd.Flags().BoolVar(&skipMigrate, "skip-migrate", false, "Do not run AutoMigrate on startup")
}

func runServe(ctx context.Context) error {
	rt, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	defer rt.close()

	cfg, log := rt.cfg, rt.log
	if err := cfg.Validate(); err != nil {
		return err
	}
	if !skipMigrate {
		if err := database.Migrate(rt.db); err != nil {
			return err
		}
	}

	metricsClient := rt.metrics()

	// --- Menu cache (optional) ---
	var menuCache services.MenuListCache
	if cfg.RedisURL != "" {
		client, err := cache.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			log.Warn("Redis unavailable, menu cache disabled", zap.Error(err))
		} else {
			defer client.Close()
			menuCache = cache.NewMenuCache(client, cfg.MenuCacheTTL, metricsClient, log)
			log.Info("Menu cache enabled", zap.Duration("ttl", cfg.MenuCacheTTL))
		}
	}

	// --- Order events ---
	opts := events.Options{
		Backend:      cfg.EventsBackend,
		SNSTopicArn:  cfg.OrderSNSTopicARN,
		KafkaBrokers: cfg.KafkaBrokers,
		KafkaTopic:   cfg.KafkaTopic,
	}
	if rt.awsCfg != nil {
		opts.SNSClient = aws_pkg.NewSNSClient(*rt.awsCfg)
	}
	publisher, err := events.New(opts, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := publisher.Close(); err != nil {
			log.Warn("Event publisher close error", zap.Error(err))
		}
	}()

	// --- Dependency injection ---
	userRepo := repository.NewGormUserRepository(rt.db)
	categoryRepo := repository.NewGormCategoryRepository(rt.db)
	menuItemRepo := repository.NewGormMenuItemRepository(rt.db)
	cartRepo := repository.NewGormCartRepository(rt.db)
	orderRepo := repository.NewGormOrderRepository(rt.db)

	tokenService := services.NewTokenService(cfg.JWTSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)
	roleService := services.NewRoleService(userRepo)
	authService := services.NewAuthService(userRepo, tokenService, log)
	catalogService := services.NewCatalogService(categoryRepo, menuItemRepo, menuCache, log)
	cartService := services.NewCartService(cartRepo, menuItemRepo, metricsClient, log)
	orderService := services.NewOrderService(orderRepo, cartRepo, userRepo, publisher, metricsClient, log)
	groupService := services.NewGroupService(userRepo, log)

	// --- HTTP router ---
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	limiter := middleware.NewPerMinuteLimiter(cfg.RateLimitPerMin)
	limiterCtx, stopLimiter := context.WithCancel(context.Background())
	defer stopLimiter()
	go limiter.Run(limiterCtx)

	r := gin.New()
	r.Use(
		gin.Recovery(),
		middleware.RequestID(),
		middleware.RequestLogger(log),
		middleware.Metrics(metricsClient, serviceName),
		middleware.SecurityHeaders(),
		middleware.CORS(cfg.AllowedOrigins),
		middleware.RateLimitMiddleware(limiter),
		middleware.Timeout(30*time.Second),
	)

	auth := routes.Auth{Tokens: tokenService, Resolver: roleService, Logger: log}
	routes.RegisterAuthRoutes(r, auth, controllers.NewAuthController(authService))
	routes.RegisterCatalogRoutes(r, auth, controllers.NewCatalogController(catalogService))
	routes.RegisterCartRoutes(r, auth, controllers.NewCartController(cartService))
	routes.RegisterOrderRoutes(r, auth, controllers.NewOrderController(orderService))
	routes.RegisterGroupRoutes(r, auth,
		controllers.NewGroupController(groupService, models.GroupManager),
		controllers.NewGroupController(groupService, models.GroupDeliveryCrew),
	)

	r.GET("/health", func(c *gin.Context) {
		status, code := "OK", http.StatusOK
		if sqlDB, err := rt.db.DB(); err != nil || sqlDB.PingContext(c.Request.Context()) != nil {
			status, code = "DEGRADED", http.StatusServiceUnavailable
		}
		c.JSON(code, gin.H{"status": status, "service": serviceName})
	})

	// --- HTTP server ---
	srv := &http.Server{Addr: ":" + cfg.Port, Handler: r}
	serverErr := make(chan error, 1)
	go func() {
		log.Info("Restaurant Service started", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// --- Graceful shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case err := <-serverErr:
		return err
	}

	log.Info("Initiating graceful shutdown...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server shutdown error", zap.Error(err))
	}
	log.Info("Restaurant Service stopped gracefully")
	return nil
}
