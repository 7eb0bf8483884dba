package e2e

import (
	"net/http"
	"strings"
	"testing"
)

func TestOrderRender_FullFlow(t *testing.T) {
	ta := setupApp(t)
	putOrder(t, ta.app, "order-1", orderBody(t, "square", 5, 2))

	resp, err := doAuthRequest(t, ta.app, http.MethodPost, "/api/orders/order-1/render", "")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	assertStatus(t, resp, http.StatusAccepted)

	result := parseJSON(t, resp)
	if result["orderId"] != "order-1" {
		t.Errorf("expected orderId 'order-1', got %v", result["orderId"])
	}
	if result["enqueued"] != true {
		t.Errorf("expected enqueued true, got %v", result["enqueued"])
	}

	status := waitForTerminal(t, ta.app, "order-1")
	if status["status"] != "completed" {
		t.Fatalf("expected status 'completed', got %v (error: %v)", status["status"], status["error"])
	}
	if status["totalCount"] != float64(5) {
		t.Errorf("expected totalCount 5, got %v", status["totalCount"])
	}
	if status["completedCount"] != float64(5) {
		t.Errorf("expected completedCount 5, got %v", status["completedCount"])
	}
	if status["failedCount"] != float64(0) {
		t.Errorf("expected failedCount 0, got %v", status["failedCount"])
	}

	resp, err = doAuthRequest(t, ta.app, http.MethodGet, "/api/orders/order-1/variants", "")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	assertStatus(t, resp, http.StatusOK)

	variants := parseJSON(t, resp)
	square, ok := variants["squareVariants"].([]interface{})
	if !ok || len(square) != 5 {
		t.Fatalf("expected 5 square variants, got %v", variants["squareVariants"])
	}
	urls, ok := variants["renderedImageUrlsByVariantId"].(map[string]interface{})
	if !ok || len(urls) != 5 {
		t.Fatalf("expected 5 rendered urls, got %v", variants["renderedImageUrlsByVariantId"])
	}
	for _, v := range square {
		view := v.(map[string]interface{})
		id, _ := view["variantId"].(string)
		if !strings.HasPrefix(id, "variant-") {
			t.Errorf("unexpected square variant id %q", id)
		}
		url, _ := urls[id].(string)
		if !strings.HasPrefix(url, "data:image/jpeg;base64,") {
			t.Errorf("expected inline jpeg for %s, got %.40q", id, url)
		}
	}
}

func TestOrderRender_SecondRequestIsNoop(t *testing.T) {
	ta := setupApp(t)
	putOrder(t, ta.app, "order-2", orderBody(t, "square", 3, 0))

	resp, err := doAuthRequest(t, ta.app, http.MethodPost, "/api/orders/order-2/render", "")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	assertStatus(t, resp, http.StatusAccepted)
	resp.Body.Close()
	waitForTerminal(t, ta.app, "order-2")

	resp, err = doAuthRequest(t, ta.app, http.MethodPost, "/api/orders/order-2/render", `{"force": false}`)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	assertStatus(t, resp, http.StatusAccepted)

	result := parseJSON(t, resp)
	if result["enqueued"] != false {
		t.Errorf("expected enqueued false, got %v", result["enqueued"])
	}
	if result["status"] != "completed" {
		t.Errorf("expected status 'completed', got %v", result["status"])
	}
}

func TestOrderRender_ForceRerenders(t *testing.T) {
	ta := setupApp(t)
	putOrder(t, ta.app, "order-3", orderBody(t, "hexagonal", 13, 0))

	resp, err := doAuthRequest(t, ta.app, http.MethodPost, "/api/orders/order-3/render", "")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	resp.Body.Close()
	first := waitForTerminal(t, ta.app, "order-3")
	// 13 members fit both a square layout and a hexagon template
	if first["totalCount"] != float64(26) {
		t.Errorf("expected totalCount 26, got %v", first["totalCount"])
	}

	resp, err = doAuthRequest(t, ta.app, http.MethodPost, "/api/orders/order-3/render", `{"force": true}`)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	assertStatus(t, resp, http.StatusAccepted)

	result := parseJSON(t, resp)
	if result["enqueued"] != true {
		t.Errorf("expected enqueued true on force, got %v", result["enqueued"])
	}

	second := waitForTerminal(t, ta.app, "order-3")
	if second["status"] != "completed" {
		t.Errorf("expected status 'completed', got %v", second["status"])
	}
}

func TestOrderRender_NoAuth(t *testing.T) {
	ta := setupApp(t)

	resp, err := doRequest(ta.app, http.MethodPost, "/api/orders/order-1/render", "", nil)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}

	assertStatus(t, resp, http.StatusUnauthorized)
}

func TestOrderRender_UnknownOrder(t *testing.T) {
	ta := setupApp(t)

	resp, err := doAuthRequest(t, ta.app, http.MethodPost, "/api/orders/missing/render", "")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}

	assertStatus(t, resp, http.StatusNotFound)
}

func TestOrderRender_InvalidBody(t *testing.T) {
	ta := setupApp(t)
	putOrder(t, ta.app, "order-4", orderBody(t, "square", 2, 0))

	resp, err := doAuthRequest(t, ta.app, http.MethodPost, "/api/orders/order-4/render", `{"force": `)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}

	assertStatus(t, resp, http.StatusBadRequest)
}

func TestRenderStatus_NotFound(t *testing.T) {
	ta := setupApp(t)
	putOrder(t, ta.app, "order-5", orderBody(t, "square", 2, 0))

	resp, err := doAuthRequest(t, ta.app, http.MethodGet, "/api/orders/order-5/render/status", "")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}

	assertStatus(t, resp, http.StatusNotFound)
}

func TestVariants_BeforeRender(t *testing.T) {
	ta := setupApp(t)
	putOrder(t, ta.app, "order-6", orderBody(t, "square", 4, 0))

	resp, err := doAuthRequest(t, ta.app, http.MethodGet, "/api/orders/order-6/variants", "")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	assertStatus(t, resp, http.StatusOK)

	body := parseJSON(t, resp)
	square, _ := body["squareVariants"].([]interface{})
	if len(square) != 4 {
		t.Errorf("expected 4 square variants, got %d", len(square))
	}
	urls, _ := body["renderedImageUrlsByVariantId"].(map[string]interface{})
	if len(urls) != 0 {
		t.Errorf("expected no rendered urls before render, got %d", len(urls))
	}
}

func TestOrderUpsert_Validation(t *testing.T) {
	ta := setupApp(t)

	resp, err := doAuthRequest(t, ta.app, http.MethodPut, "/api/orders/order-7", `{"gridKind": "triangle", "members": []}`)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}

	assertStatus(t, resp, http.StatusBadRequest)
}

func TestOrderUpsert_DuplicateMemberIDs(t *testing.T) {
	ta := setupApp(t)

	body := `{"gridKind": "square", "members": [
		{"id": "a", "name": "Ada", "photoRef": "https://img.example.com/a.jpg"},
		{"id": "a", "name": "Alan", "photoRef": "https://img.example.com/b.jpg"},
		{"id": "c", "name": "Cleo", "photoRef": "https://img.example.com/c.jpg"}
	]}`
	resp, err := doAuthRequest(t, ta.app, http.MethodPut, "/api/orders/order-8", body)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}

	assertStatus(t, resp, http.StatusBadRequest)

	resp, err = doAuthRequest(t, ta.app, http.MethodGet, "/api/orders/order-8/variants", "")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	assertStatus(t, resp, http.StatusNotFound)
}
