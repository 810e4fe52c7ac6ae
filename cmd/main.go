package main

import (
	"context"
	"errors"
	"fmt"
	stdlog "log"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-chi/cors"
	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"

	"github.com/forfuturefoundation2024-hash/AIVEX/internal/cache"
	"github.com/forfuturefoundation2024-hash/AIVEX/internal/config"
	"github.com/forfuturefoundation2024-hash/AIVEX/internal/domain"
	"github.com/forfuturefoundation2024-hash/AIVEX/internal/handler"
	"github.com/forfuturefoundation2024-hash/AIVEX/internal/hub"
	"github.com/forfuturefoundation2024-hash/AIVEX/internal/notify"
	"github.com/forfuturefoundation2024-hash/AIVEX/internal/registry"
	"github.com/forfuturefoundation2024-hash/AIVEX/internal/repository"
	"github.com/forfuturefoundation2024-hash/AIVEX/internal/service"
	"github.com/forfuturefoundation2024-hash/AIVEX/pkg/database"
	"github.com/forfuturefoundation2024-hash/AIVEX/pkg/jwt"
	"github.com/forfuturefoundation2024-hash/AIVEX/pkg/log"
	"github.com/forfuturefoundation2024-hash/AIVEX/pkg/middleware"
	"github.com/forfuturefoundation2024-hash/AIVEX/pkg/pubsub"
	"github.com/forfuturefoundation2024-hash/AIVEX/pkg/storage"
)

func main() {
	app := &cli.App{
		Name:    "market-api",
		Usage:   "software marketplace API and realtime relay",
		Version: commitHash(),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Usage:   "directory holding config.yaml",
				Value:   "./config",
				EnvVars: []string{"CONFIG_DIR"},
			},
			&cli.BoolFlag{
				Name:  "migrate-only",
				Usage: "apply database migrations and exit",
			},
		},
		Action: run,
	}

	if err := app.Run(os.Args); err != nil {
		stdlog.Fatalln(err)
	}
}

func run(c *cli.Context) error {
	// Load configuration
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if cfg.Log.Version == "" {
		cfg.Log.Version = c.App.Version
	}
	log.Init(cfg.Log)
	l := log.L()

	ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx = log.WithLogger(ctx, l)

	// Connect to database using GORM
	db, err := database.New(cfg.DBConfig())
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer database.Close(db)

	if err := database.AutoMigrate(db, domain.Models()...); err != nil {
		return fmt.Errorf("auto-migrate: %w", err)
	}
	l.Info().Str("driver", cfg.Database.Driver).Msg("database migration completed")
	if c.Bool("migrate-only") {
		return nil
	}

	// Initialize repositories
	userRepo := repository.NewGormUserRepository(db)
	productRepo := repository.NewGormProductRepository(db)
	orderRepo := repository.NewGormOrderRepository(db)
	messageRepo := repository.NewGormMessageRepository(db)
	reviewRepo := repository.NewGormReviewRepository(db)

	var productCache cache.ProductCache
	if cfg.Cache.Enabled {
		rc, err := cache.NewRedisProductCache(cfg.Redis, cfg.Cache.Prefix)
		if err != nil {
			return fmt.Errorf("product cache: %w", err)
		}
		defer rc.Close()
		productCache = rc
		l.Info().Str("address", cfg.Redis.Address).Msg("product cache enabled")
	}

	store, err := storage.New(ctx, cfg.Storage)
	if err != nil {
		return fmt.Errorf("release storage: %w", err)
	}
	l.Info().Str("driver", cfg.Storage.Driver).Msg("release storage ready")

	tokens, err := jwt.NewManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL, cfg.Auth.Issuer)
	if err != nil {
		return fmt.Errorf("token manager: %w", err)
	}

	// Realtime relay
	wsHub := hub.NewHub()
	relay := service.NewRelayService(wsHub, registry.New(), messageRepo)

	g, gctx := errgroup.WithContext(ctx)

	var notifier service.ProductNotifier = notify.NewLocal(relay)
	if cfg.PubSub.Enabled() {
		bus, err := pubsub.NewPubSub(cfg.PubSub)
		if err != nil {
			return fmt.Errorf("event bus: %w", err)
		}
		defer bus.Close()
		notifier = notify.NewBus(bus)
		g.Go(func() error {
			return notify.NewRelay(bus, relay).Run(gctx)
		})
		l.Info().Str("driver", cfg.PubSub.Driver).Msg("product announcements go through the event bus")
	}

	// Initialize services
	userService := service.NewUserService(userRepo, tokens)
	productService := service.NewProductService(productRepo, reviewRepo, orderRepo, productCache, store, notifier,
		service.ProductOptions{CacheTTL: cfg.Cache.TTL})
	orderService := service.NewOrderService(orderRepo, productRepo)
	messageService := service.NewMessageService(messageRepo, 0)

	// Initialize handlers
	authMiddleware := middleware.NewAuthMiddleware(tokens)
	api := handler.NewHandler(userService, productService, orderService, messageService, authMiddleware, cfg.Server.MaxUploadSize)
	ws := handler.NewWSHandler(wsHub, relay, tokens, cfg.WebSocket, cfg.Realtime)

	gin.SetMode(gin.ReleaseMode)
	router := handler.NewRouter(l, api, ws, cfg.Server.StaticDir)

	server := &http.Server{
		Addr: fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler: cors.Handler(cors.Options{
			AllowedOrigins: cfg.CORS.AllowedOrigins,
			AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
			MaxAge:         cfg.CORS.MaxAge,
		})(router),
		ReadHeaderTimeout: 15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	g.Go(func() error {
		l.Info().Str("addr", server.Addr).Bool("require_token", cfg.Realtime.RequireToken).Msg("market api listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		l.Info().Msg("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		n := wsHub.CloseAll()
		l.Info().Int("connections", n).Msg("realtime connections closed")
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		return err
	}
	l.Info().Msg("market api stopped")
	return nil
}

func commitHash() string {
	if info, ok := debug.ReadBuildInfo(); ok {
		for _, setting := range info.Settings {
			if setting.Key == "vcs.revision" {
				return setting.Value
			}
		}
		return info.Main.Version
	}
	return "unknown"
}
