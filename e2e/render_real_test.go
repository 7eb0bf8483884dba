package e2e

import (
	"bufio"
	"context"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"github.com/groupcollage/api/internal/client"
	"github.com/groupcollage/api/internal/config"
	"github.com/groupcollage/api/internal/handler"
	"github.com/groupcollage/api/internal/imagefetch"
	"github.com/groupcollage/api/internal/middleware"
	"github.com/groupcollage/api/internal/service"
	"github.com/groupcollage/api/internal/store"
	ws "github.com/groupcollage/api/internal/websocket"
	"github.com/groupcollage/api/internal/worker"
)

// loadEnvFile reads a .env file and sets environment variables.
func loadEnvFile(t *testing.T) {
	t.Helper()
	_, filename, _, _ := runtime.Caller(0)
	envPath := filepath.Join(filepath.Dir(filename), "..", ".env")

	f, err := os.Open(envPath)
	if err != nil {
		t.Skipf("skipping: .env file not found at %s", envPath)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		parts := strings.SplitN(line, "=", 2)
		if len(parts) == 2 {
			os.Setenv(parts[0], parts[1])
		}
	}
}

// setupRealApp creates a full app backed by a real Redis and an Asynq worker.
// Returns the app and a cleanup function.
func setupRealApp(t *testing.T) (*fiber.App, func()) {
	t.Helper()
	loadEnvFile(t)

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	redisOpt := asynq.RedisClientOpt{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       15, // test DB
	}
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       15,
	})
	pingCtx, cancelPing := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancelPing()
	if err := redisClient.Ping(pingCtx).Err(); err != nil {
		redisClient.Close()
		t.Skipf("skipping: redis not reachable at %s: %v", cfg.Redis.Addr, err)
	}

	asynqClient := asynq.NewClient(redisOpt)

	var content client.ContentStore = client.NewInlineStore()
	if cfg.R2.AccessKeyID != "" && cfg.R2.SecretAccessKey != "" {
		r2Client, err := client.NewR2Client(&cfg.R2)
		if err != nil {
			t.Fatalf("failed to create R2 client: %v", err)
		}
		content = r2Client
	}

	ctx, cancel := context.WithCancel(context.Background())
	hub := ws.NewHub(nil)
	go hub.Run(ctx)

	st := store.NewRedisStore(redisClient)
	fetcher := imagefetch.NewFetcher(imagefetch.Config{Workers: 3, Timeout: 10 * time.Second}, nil, nil)
	renderService := service.NewRenderService(st, content, fetcher, smallCanvas, nil)
	renderService.SetDispatcher(service.NewAsynqDispatcher(asynqClient))
	renderService.SetNotifier(hub)

	app := fiber.New(fiber.Config{BodyLimit: 32 * 1024 * 1024})
	handler.RegisterRoutes(app, handler.Routes{
		Orders:      handler.NewOrderHandler(renderService, validator.New()),
		Render:      handler.NewRenderHandler(renderService),
		Auth:        handler.NewAuthHandler(testJWTSecret),
		Hub:         hub,
		APIAuth:     middleware.NewAuthMiddleware(testJWTSecret).Authenticate(),
		RenderLimit: middleware.NewRateLimiter(redisClient, nil).RenderLimit(10000),
		Health: func(c *fiber.Ctx) error {
			return c.JSON(fiber.Map{"status": "ok"})
		},
	})

	// Start Asynq worker server (non-blocking)
	asynqSrv := asynq.NewServer(redisOpt, asynq.Config{
		Concurrency: 2,
		Queues:      map[string]int{service.QueueRender: 1},
		LogLevel:    asynq.WarnLevel,
	})

	mux := asynq.NewServeMux()
	worker.NewRenderWorker(renderService, nil).Register(mux)

	if err := asynqSrv.Start(mux); err != nil {
		t.Fatalf("failed to start asynq worker: %v", err)
	}

	cleanup := func() {
		asynqSrv.Shutdown()
		asynqClient.Close()
		cancel()
		redisClient.Close()
	}

	return app, cleanup
}

// TestRenderFullPipeline_Asynq runs an order through the queue and a real worker.
func TestRenderFullPipeline_Asynq(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping real Redis test in short mode")
	}

	app, cleanup := setupRealApp(t)
	defer cleanup()

	orderID := "e2e-" + uuid.NewString()
	putOrder(t, app, orderID, orderBody(t, "hexagonal", 12, 0))

	t.Log("Enqueueing render job...")
	resp, err := doAuthRequest(t, app, http.MethodPost, "/api/orders/"+orderID+"/render", "")
	if err != nil {
		t.Fatalf("enqueue request failed: %v", err)
	}
	assertStatus(t, resp, http.StatusAccepted)
	resp.Body.Close()

	status := waitForTerminal(t, app, orderID)
	if status["status"] != "completed" {
		t.Fatalf("expected status 'completed', got %v (error: %v)", status["status"], status["error"])
	}
	// 12 square variants plus 12 from the 12-slot hexagon template
	if status["completedCount"] != float64(24) {
		t.Errorf("expected completedCount 24, got %v", status["completedCount"])
	}

	resp, err = doAuthRequest(t, app, http.MethodGet, "/api/orders/"+orderID+"/variants", "")
	if err != nil {
		t.Fatalf("variants request failed: %v", err)
	}
	assertStatus(t, resp, http.StatusOK)

	variants := parseJSON(t, resp)
	hex, _ := variants["hexVariants"].([]interface{})
	if len(hex) != 12 {
		t.Errorf("expected 12 hex variants, got %d", len(hex))
	}
	urls, _ := variants["renderedImageUrlsByVariantId"].(map[string]interface{})
	t.Logf("Rendered %d variants for %s", len(urls), orderID)
}
