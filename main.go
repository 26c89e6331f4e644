package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/beka-birhanu/reelrite-rendezvous/api"
	healthapi "github.com/beka-birhanu/reelrite-rendezvous/api/health"
	api_i "github.com/beka-birhanu/reelrite-rendezvous/api/i"
	"github.com/beka-birhanu/reelrite-rendezvous/api/middleware"
	rendezvousapi "github.com/beka-birhanu/reelrite-rendezvous/api/rendezvous"
	"github.com/beka-birhanu/reelrite-rendezvous/config"
	logger "github.com/beka-birhanu/reelrite-rendezvous/infrastruture/log"
	"github.com/beka-birhanu/reelrite-rendezvous/infrastruture/memstore"
	"github.com/beka-birhanu/reelrite-rendezvous/infrastruture/redisstore"
	"github.com/beka-birhanu/reelrite-rendezvous/service"
	"github.com/beka-birhanu/reelrite-rendezvous/service/i"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

// Global variables for dependencies
var (
	cfg                  = config.Envs
	appLogger            *logger.Logger
	redisClient          *redis.Client
	rendezvousStore      i.RendezvousStore
	rendezvousService    *service.Rendezvous
	staleCollector       *service.StaleCollector
	rendezvousController api_i.Controller
	router               *api.Router
)

func newLogger(prefix, color string) *logger.Logger {
	l, err := logger.New(prefix, color, os.Stdout, logger.WithLevel(cfg.LogLevel))
	if err != nil {
		fmt.Fprintf(os.Stderr, "[APP] [FATAL] creating %s logger: %v\n", prefix, err)
		os.Exit(1)
	}
	return l
}

func initRedis(ctx context.Context) {
	redisClient = redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		appLogger.Error(fmt.Sprintf("Redis ping failed: %v", err))
		os.Exit(1)
	}
	appLogger.Info(fmt.Sprintf("Connected to Redis at %s", cfg.RedisAddr))
}

func initStore(ctx context.Context) {
	switch cfg.StoreBackend {
	case config.StoreMemory:
		rendezvousStore = memstore.NewStore(nil)
	case config.StoreRedis:
		initRedis(ctx)
		var err error
		rendezvousStore, err = redisstore.NewStore(redisClient, nil, &redisstore.Options{
			Prefix: cfg.RedisPrefix,
			KeyTTL: 10 * cfg.StaleThreshold,
		})
		if err != nil {
			appLogger.Error(fmt.Sprintf("Creating redis store: %v", err))
			os.Exit(1)
		}
	default:
		appLogger.Error(fmt.Sprintf("Unknown store backend %q (want %s or %s)", cfg.StoreBackend, config.StoreMemory, config.StoreRedis))
		os.Exit(1)
	}
	appLogger.Info(fmt.Sprintf("Rendezvous store initialized: %s", cfg.StoreBackend))
}

func initRendezvous() {
	var err error
	rendezvousService, err = service.NewRendezvous(rendezvousStore, newLogger("MATCHMAKING", config.ColorMagenta))
	if err != nil {
		appLogger.Error(fmt.Sprintf("Creating rendezvous service: %v", err))
		os.Exit(1)
	}
	appLogger.Info("Rendezvous service initialized")
}

func initCollector(ctx context.Context) {
	var err error
	staleCollector, err = service.NewStaleCollector(rendezvousStore, newLogger("COLLECTOR", config.ColorYellow), service.CollectorOptions{
		StaleThreshold: cfg.StaleThreshold,
		SweepPeriod:    cfg.SweepPeriod,
	})
	if err != nil {
		appLogger.Error(fmt.Sprintf("Creating stale collector: %v", err))
		os.Exit(1)
	}
	staleCollector.Start(ctx)
}

func initRendezvousController() {
	var err error
	rendezvousController, err = rendezvousapi.NewController(rendezvousService)
	if err != nil {
		appLogger.Error(fmt.Sprintf("Creating rendezvous controller: %v", err))
		os.Exit(1)
	}
	appLogger.Info("Rendezvous controller initialized")
}

func initRouter() {
	gin.SetMode(cfg.GinMode)
	httpLogger := newLogger("HTTP", config.ColorBlue)

	router = api.NewRouter(api.Config{
		Addr:        fmt.Sprintf("%s:%d", cfg.HostIP, cfg.RESTPort),
		BaseURLs:    []string{"/", "/api"},
		Controllers: []api_i.Controller{rendezvousController, healthapi.NewController()},
		Middlewares: []gin.HandlerFunc{middleware.RequestID(), middleware.AccessLog(httpLogger)},
	})
	appLogger.Info("Router initialized")
}

func run(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	appLogger = newLogger("APP", config.ColorGreen)
	defer func() { _ = appLogger.Sync() }()

	initStore(ctx)
	if redisClient != nil {
		defer redisClient.Close()
	}
	initRendezvous()
	initCollector(ctx)
	defer staleCollector.Stop()
	initRendezvousController()
	initRouter()

	appLogger.Info(fmt.Sprintf("Rendezvous server is live on %s:%d", cfg.HostIP, cfg.RESTPort))
	if err := router.Run(ctx); err != nil {
		appLogger.Error(fmt.Sprintf("Running server: %v", err))
		return err
	}
	appLogger.Info("Server stopped")
	return nil
}

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "rendezvous",
		Short:         "Pairs anonymous chat clients and tracks who is online",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          run,
	}

	flags := cmd.Flags()
	flags.IntVar(&cfg.RESTPort, "port", cfg.RESTPort, "port for the REST API (PORT)")
	flags.StringVar(&cfg.StoreBackend, "store", cfg.StoreBackend, "store backend: memory or redis (STORE_BACKEND)")
	flags.DurationVar(&cfg.StaleThreshold, "stale-threshold", cfg.StaleThreshold, "inactivity before a client is evicted (STALE_THRESHOLD)")
	flags.DurationVar(&cfg.SweepPeriod, "sweep-period", cfg.SweepPeriod, "interval between stale sweeps (SWEEP_PERIOD)")
	flags.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "debug, info, warn or error (LOG_LEVEL)")
	return cmd
}

func main() {
	if err := newRootCommand().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "[APP] [FATAL] %v\n", err)
		os.Exit(1)
	}
}
