package order

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
)

// makeApp injects a fake JWT token into locals from the X-User-ID header,
// standing in for the jwt middleware.
func makeApp(h *Handler) *fiber.App {
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		if v := c.Get("X-User-ID"); v != "" {
			if id, err := strconv.Atoi(v); err == nil {
				tok := &jwt.Token{Claims: jwt.MapClaims{"user_id": id}}
				c.Locals("user", tok)
			}
		}
		return c.Next()
	})
	h.RegisterProtectedRoutes(app)
	return app
}

func TestCreateOrderRoute_Success(t *testing.T) {
	svc, _ := newTestService(seedInventory())
	app := makeApp(NewHandler(svc))

	body := map[string]any{
		"shippingInfo": map[string]string{
			"recipient":   "Nguyen Van A",
			"phone":       "0901234567",
			"addressLine": "1 Le Loi",
			"city":        "Ho Chi Minh",
		},
		"paymentMethod": "momo",
		"items":         []map[string]int{{"productId": 1, "variantId": 10, "quantity": 2}},
	}
	b, _ := json.Marshal(body)
	req := httptest.NewRequest("POST", "/api/v1/orders", bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-User-ID", "42")

	res, err := app.Test(req, -1)
	if err != nil {
		t.Fatal(err)
	}
	if res.StatusCode != fiber.StatusCreated {
		t.Fatalf("expected 201, got %d", res.StatusCode)
	}

	var out struct {
		Success bool  `json:"success"`
		Order   Order `json:"order"`
	}
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	if !out.Success {
		t.Fatalf("expected success response")
	}
	if out.Order.BuyerID != 42 {
		t.Errorf("buyerId = %d, want 42", out.Order.BuyerID)
	}
	if out.Order.Total != 50030000 {
		t.Errorf("total = %d, want 50030000", out.Order.Total)
	}
	if len(out.Order.Items) != 1 {
		t.Errorf("expected 1 item, got %d", len(out.Order.Items))
	}
}

func TestCreateOrderRoute_Rejections(t *testing.T) {
	svc, _ := newTestService(seedInventory())
	app := makeApp(NewHandler(svc))

	// no token
	body := map[string]any{
		"shippingInfo":  map[string]string{"recipient": "A", "phone": "1", "addressLine": "x", "city": "y"},
		"paymentMethod": "momo",
		"items":         []map[string]int{{"productId": 1, "variantId": 10, "quantity": 1}},
	}
	b, _ := json.Marshal(body)
	req := httptest.NewRequest("POST", "/api/v1/orders", bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	res, _ := app.Test(req, -1)
	if res.StatusCode != fiber.StatusUnauthorized {
		t.Errorf("no token: expected 401, got %d", res.StatusCode)
	}

	// empty items
	body["items"] = []map[string]int{}
	b, _ = json.Marshal(body)
	req = httptest.NewRequest("POST", "/api/v1/orders", bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-User-ID", "42")
	res, _ = app.Test(req, -1)
	if res.StatusCode != fiber.StatusBadRequest {
		t.Errorf("empty items: expected 400, got %d", res.StatusCode)
	}

	// more units than stocked
	body["items"] = []map[string]int{{"productId": 2, "variantId": 20, "quantity": 5}}
	b, _ = json.Marshal(body)
	req = httptest.NewRequest("POST", "/api/v1/orders", bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-User-ID", "42")
	res, _ = app.Test(req, -1)
	if res.StatusCode != fiber.StatusConflict {
		t.Errorf("insufficient stock: expected 409, got %d", res.StatusCode)
	}
}

func TestGetOrderRoute_Ownership(t *testing.T) {
	svc, _ := newTestService(seedInventory())
	app := makeApp(NewHandler(svc))

	ord, err := svc.Create(validInput(LineItem{ProductID: 1, VariantID: 10, Quantity: 1}))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	req := httptest.NewRequest("GET", "/api/v1/orders/"+ord.OrderID, nil)
	req.Header.Set("X-User-ID", "42")
	res, _ := app.Test(req, -1)
	if res.StatusCode != fiber.StatusOK {
		t.Errorf("owner: expected 200, got %d", res.StatusCode)
	}

	req = httptest.NewRequest("GET", "/api/v1/orders/"+ord.OrderID, nil)
	req.Header.Set("X-User-ID", "7")
	res, _ = app.Test(req, -1)
	if res.StatusCode != fiber.StatusNotFound {
		t.Errorf("foreign buyer: expected 404, got %d", res.StatusCode)
	}
}
