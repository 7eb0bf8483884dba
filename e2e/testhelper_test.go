package e2e

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	fiberSwagger "github.com/gofiber/swagger"
	"github.com/redis/go-redis/v9"

	_ "github.com/groupcollage/api/docs"
	"github.com/groupcollage/api/internal/auth"
	"github.com/groupcollage/api/internal/client"
	"github.com/groupcollage/api/internal/compositor"
	"github.com/groupcollage/api/internal/handler"
	"github.com/groupcollage/api/internal/imagefetch"
	"github.com/groupcollage/api/internal/middleware"
	"github.com/groupcollage/api/internal/service"
	"github.com/groupcollage/api/internal/store"
	ws "github.com/groupcollage/api/internal/websocket"
)

const testJWTSecret = "test-secret-for-e2e"

// testApp holds all components needed for testing
type testApp struct {
	app     *fiber.App
	store   store.Store
	service *service.RenderService
}

// smallCanvas keeps composites cheap in tests.
var smallCanvas = compositor.Options{Width: 160, Height: 180, Gap: 4, Quality: 70, HexScale: 0.25}

// setupApp creates a Fiber app wired like main.go, backed by miniredis, an
// inline dispatcher and the inline content store.
func setupApp(t *testing.T) *testApp {
	t.Helper()

	mr := miniredis.RunT(t)
	redisClient := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { redisClient.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	hub := ws.NewHub(nil)
	go hub.Run(ctx)

	st := store.NewRedisStore(redisClient)
	fetcher := imagefetch.NewFetcher(imagefetch.Config{Workers: 3, Timeout: 2 * time.Second}, nil, nil)
	renderService := service.NewRenderService(st, client.NewInlineStore(), fetcher, smallCanvas, nil)
	renderService.SetDispatcher(service.NewInlineDispatcher(renderService.Drive, nil))
	renderService.SetNotifier(hub)

	validate := validator.New()
	rateLimiter := middleware.NewRateLimiter(redisClient, nil)

	app := fiber.New(fiber.Config{
		BodyLimit: 32 * 1024 * 1024,
	})

	app.Get("/swagger/*", fiberSwagger.HandlerDefault)

	handler.RegisterRoutes(app, handler.Routes{
		Orders:      handler.NewOrderHandler(renderService, validate),
		Render:      handler.NewRenderHandler(renderService),
		Auth:        handler.NewAuthHandler(testJWTSecret),
		Hub:         hub,
		APIAuth:     middleware.NewAuthMiddleware(testJWTSecret).Authenticate(),
		RenderLimit: rateLimiter.RenderLimit(10000), // very high so tests don't get blocked
		Health: func(c *fiber.Ctx) error {
			return c.JSON(fiber.Map{
				"status": "ok",
				"services": fiber.Map{
					"redis":  true,
					"store":  "redis",
					"worker": "inline",
					"r2":     false,
					"auth":   true,
				},
			})
		},
	})

	return &testApp{app: app, store: st, service: renderService}
}

// generateToken creates an HMAC JWT token for test requests.
func generateToken(t *testing.T) string {
	t.Helper()
	signed, err := auth.GenerateToken(testJWTSecret, "test-user-123", "test@example.com", time.Hour)
	if err != nil {
		t.Fatalf("failed to generate test token: %v", err)
	}
	return signed
}

// doRequest is a helper to perform HTTP requests against the test app.
func doRequest(app *fiber.App, method, path string, body string, headers map[string]string) (*http.Response, error) {
	var bodyReader io.Reader
	if body != "" {
		bodyReader = strings.NewReader(body)
	}

	req, err := http.NewRequest(method, path, bodyReader)
	if err != nil {
		return nil, err
	}

	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	return app.Test(req, -1)
}

// doAuthRequest performs an authenticated request.
func doAuthRequest(t *testing.T, app *fiber.App, method, path, body string) (*http.Response, error) {
	t.Helper()
	token := generateToken(t)
	return doRequest(app, method, path, body, map[string]string{
		"Authorization": "Bearer " + token,
	})
}

// readBody reads and returns the response body as a string.
func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("failed to read response body: %v", err)
	}
	return string(b)
}

// parseJSON parses response body into a map.
func parseJSON(t *testing.T, resp *http.Response) map[string]interface{} {
	t.Helper()
	body := readBody(t, resp)
	var result map[string]interface{}
	if err := json.Unmarshal([]byte(body), &result); err != nil {
		t.Fatalf("failed to parse JSON: %v\nbody: %s", err, body)
	}
	return result
}

// assertStatus checks the HTTP status code.
func assertStatus(t *testing.T, resp *http.Response, expected int) {
	t.Helper()
	if resp.StatusCode != expected {
		t.Errorf("expected status %d, got %d", expected, resp.StatusCode)
	}
}

// photoDataURI returns a tiny solid PNG encoded as a data URI.
func photoDataURI(t *testing.T, c color.RGBA) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 6, 6))
	for y := 0; y < 6; y++ {
		for x := 0; x < 6; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("failed to encode photo: %v", err)
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes())
}

// orderBody builds an order roster where the first `photographed` members
// carry an inline photo.
func orderBody(t *testing.T, gridKind string, photographed, total int) string {
	t.Helper()
	members := make([]map[string]interface{}, total)
	for i := range members {
		m := map[string]interface{}{
			"id":         fmt.Sprintf("m%d", i),
			"name":       fmt.Sprintf("Member %d", i),
			"rollNumber": fmt.Sprintf("R%03d", i),
		}
		if i < photographed {
			m["photoRef"] = photoDataURI(t, color.RGBA{R: uint8(40 * i), G: 120, B: 200, A: 255})
		}
		members[i] = m
	}
	data, err := json.Marshal(map[string]interface{}{"gridKind": gridKind, "members": members})
	if err != nil {
		t.Fatalf("failed to marshal order: %v", err)
	}
	return string(data)
}

// putOrder imports an order and fails the test on a non-200 response.
func putOrder(t *testing.T, app *fiber.App, orderID, body string) {
	t.Helper()
	resp, err := doAuthRequest(t, app, http.MethodPut, "/api/orders/"+orderID, body)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("order import failed: %d %s", resp.StatusCode, readBody(t, resp))
	}
	resp.Body.Close()
}

// waitForTerminal polls the status endpoint until the job settles.
func waitForTerminal(t *testing.T, app *fiber.App, orderID string) map[string]interface{} {
	t.Helper()
	deadline := time.Now().Add(20 * time.Second)
	for time.Now().Before(deadline) {
		resp, err := doAuthRequest(t, app, http.MethodGet, "/api/orders/"+orderID+"/render/status", "")
		if err != nil {
			t.Fatalf("request failed: %v", err)
		}
		if resp.StatusCode == http.StatusOK {
			status := parseJSON(t, resp)
			if s := status["status"]; s == "completed" || s == "failed" {
				return status
			}
		} else {
			resp.Body.Close()
		}
		time.Sleep(50 * time.Millisecond)
	}
	t.Fatalf("render job for %s did not settle", orderID)
	return nil
}
