package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	fiberSwagger "github.com/gofiber/swagger"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/groupcollage/api/docs"
	"github.com/groupcollage/api/internal/client"
	"github.com/groupcollage/api/internal/compositor"
	"github.com/groupcollage/api/internal/config"
	"github.com/groupcollage/api/internal/handler"
	"github.com/groupcollage/api/internal/imagefetch"
	"github.com/groupcollage/api/internal/logging"
	"github.com/groupcollage/api/internal/middleware"
	"github.com/groupcollage/api/internal/service"
	"github.com/groupcollage/api/internal/store"
	ws "github.com/groupcollage/api/internal/websocket"
	"github.com/groupcollage/api/internal/worker"
	"github.com/groupcollage/api/pkg/response"
)

const (
	storeDriverMemory = "memory"
	workerModeInline  = "inline"
)

// @title          Group Collage API
// @version        1.0
// @description    Renders collage variants for group photo orders.
// @host           localhost:8000
// @BasePath       /
// @schemes        http https
// @securityDefinitions.apikey BearerAuth
// @in             header
// @name           Authorization
// @description    Enter your bearer token in the format **Bearer &lt;token&gt;**
func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Configure Swagger host/scheme based on environment
	if cfg.Server.ApiDomain != "" {
		docs.SwaggerInfo.Host = cfg.Server.ApiDomain
		docs.SwaggerInfo.Schemes = []string{"https"}
	} else {
		docs.SwaggerInfo.Host = "localhost:" + cfg.Server.Port
		docs.SwaggerInfo.Schemes = []string{"http"}
	}

	zlog, err := logging.New(cfg.Server.LogLevel, cfg.Server.Env == "development")
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer func() { _ = zlog.Sync() }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize Redis client
	redisOpt := asynq.RedisClientOpt{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	}
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()

	if err := redisClient.Ping(ctx).Err(); err != nil {
		zlog.Warn("redis not available", zap.Error(err))
	}

	// Record store
	var st store.Store
	if cfg.Store.Driver == storeDriverMemory {
		zlog.Info("using in-memory record store")
		st = store.NewMemoryStore()
	} else {
		st = store.NewRedisStore(redisClient)
	}

	// Content store (falls back to inline data URIs when R2 is not configured)
	var content client.ContentStore = client.NewInlineStore()
	r2Configured := false
	if cfg.R2.AccessKeyID != "" && cfg.R2.SecretAccessKey != "" {
		r2Client, err := client.NewR2Client(&cfg.R2)
		if err != nil {
			zlog.Warn("R2 client not initialized", zap.Error(err))
		} else {
			content = r2Client
			r2Configured = true
		}
	} else {
		zlog.Info("R2 storage not configured, embedding renders inline")
	}

	opts, err := compositorOptions(cfg.Render)
	if err != nil {
		zlog.Fatal("invalid render configuration", zap.Error(err))
	}

	fetcher := imagefetch.NewFetcher(imagefetch.Config{
		Workers:  cfg.Render.FetchWorkers,
		Timeout:  time.Duration(cfg.Render.FetchTimeout) * time.Second,
		CDNHosts: cfg.Render.CDNHosts,
	}, nil, zlog.Named("imagefetch"))

	// WebSocket hub
	hub := ws.NewHub(zlog.Named("websocket"))
	go hub.Run(ctx)

	renderService := service.NewRenderService(st, content, fetcher, opts, zlog.Named("render"))
	renderService.SetNotifier(hub)

	var asynqClient *asynq.Client
	if cfg.Worker.Mode == workerModeInline {
		zlog.Info("running render jobs inline")
		renderService.SetDispatcher(service.NewInlineDispatcher(renderService.Drive, zlog.Named("dispatch")))
	} else {
		asynqClient = asynq.NewClient(redisOpt)
		defer asynqClient.Close()
		renderService.SetDispatcher(service.NewAsynqDispatcher(asynqClient))
		go startWorkerServer(cfg, redisOpt, renderService, zlog)
	}

	validate := validator.New()

	// Auth
	var apiAuthMiddleware fiber.Handler
	if cfg.Gateway.Enabled {
		// Behind the gateway: auth is handled by ForwardAuth, read X-User-* headers
		zlog.Info("gateway mode enabled, using header-based auth")
		apiAuthMiddleware = middleware.GatewayAuthMiddleware()
	} else {
		apiAuthMiddleware = middleware.NewAuthMiddleware(cfg.JWT.Secret).Authenticate()
	}
	rateLimiter := middleware.NewRateLimiter(redisClient, zlog.Named("ratelimit"))

	// Initialize Fiber app
	app := fiber.New(fiber.Config{
		ErrorHandler: customErrorHandler,
		BodyLimit:    32 * 1024 * 1024, // rosters may carry inline photos
	})

	// Global middleware
	app.Use(recover.New())
	logFormat := "[${time}] ${status} - ${latency} ${method} ${path}\n"
	if strings.EqualFold(cfg.Server.LogLevel, "debug") {
		logFormat = "[${time}] ${status} - ${latency} ${method} ${path} ${queryParams} ${reqHeaders}\n"
	}
	app.Use(logger.New(logger.Config{
		Format: logFormat,
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PUT,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept,Authorization",
	}))

	app.Get("/swagger/*", fiberSwagger.HandlerDefault)

	handler.RegisterRoutes(app, handler.Routes{
		Orders:      handler.NewOrderHandler(renderService, validate),
		Render:      handler.NewRenderHandler(renderService),
		Auth:        handler.NewAuthHandler(cfg.JWT.Secret),
		Hub:         hub,
		APIAuth:     apiAuthMiddleware,
		RenderLimit: rateLimiter.RenderLimit(cfg.RateLimit.RenderPerHour),
		Health: func(c *fiber.Ctx) error {
			return c.JSON(fiber.Map{
				"status": "ok",
				"services": fiber.Map{
					"redis":  redisClient.Ping(c.UserContext()).Err() == nil,
					"store":  cfg.Store.Driver,
					"worker": cfg.Worker.Mode,
					"r2":     r2Configured,
					"auth":   cfg.Gateway.Enabled || cfg.JWT.Secret != "",
				},
			})
		},
	})

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		zlog.Info("shutting down server")
		cancel()
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			zlog.Error("server shutdown error", zap.Error(err))
		}
	}()

	// Start server
	addr := ":" + cfg.Server.Port
	zlog.Info("server starting", zap.String("addr", addr))
	if err := app.Listen(addr); err != nil {
		zlog.Fatal("server error", zap.Error(err))
	}
}

func compositorOptions(cfg config.RenderConfig) (compositor.Options, error) {
	opts := compositor.DefaultOptions()
	opts.Width = cfg.SquareWidth
	opts.Height = cfg.SquareHeight
	opts.Gap = cfg.Gap
	opts.Quality = cfg.JPEGQuality
	opts.HexScale = cfg.HexScale
	if cfg.PlaceholderHex != "" {
		c, err := compositor.ParseHexColor(cfg.PlaceholderHex)
		if err != nil {
			return opts, err
		}
		opts.Placeholder = c
	}
	return opts, nil
}

func startWorkerServer(cfg *config.Config, redisOpt asynq.RedisClientOpt, renderService *service.RenderService, zlog *zap.Logger) {
	asynqLogLevel := asynq.InfoLevel
	if strings.EqualFold(cfg.Server.LogLevel, "debug") {
		asynqLogLevel = asynq.DebugLevel
	} else if strings.EqualFold(cfg.Server.LogLevel, "warn") {
		asynqLogLevel = asynq.WarnLevel
	} else if strings.EqualFold(cfg.Server.LogLevel, "error") {
		asynqLogLevel = asynq.ErrorLevel
	}

	concurrency := cfg.Worker.Concurrency
	if concurrency <= 0 {
		concurrency = 4
	}

	srv := asynq.NewServer(redisOpt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			service.QueueRender: 1,
		},
		LogLevel: asynqLogLevel,
	})

	mux := asynq.NewServeMux()
	worker.NewRenderWorker(renderService, zlog.Named("worker")).Register(mux)

	if err := srv.Run(mux); err != nil {
		zlog.Error("asynq worker error", zap.Error(err))
	}
}

func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal Server Error"

	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		message = e.Message
	}

	return response.Error(c, code, response.CodeServiceError, message, nil)
}
