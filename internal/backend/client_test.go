package backend

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dujiao-next/storefront/internal/config"
	"github.com/dujiao-next/storefront/internal/models"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	client, err := NewClient(config.BackendConfig{BaseURL: srv.URL + "/"}, nil)
	if err != nil {
		t.Fatalf("new client failed: %v", err)
	}
	return client
}

func TestNewClientRequiresBaseURL(t *testing.T) {
	if _, err := NewClient(config.BackendConfig{BaseURL: "  "}, nil); !errors.Is(err, ErrConfigInvalid) {
		t.Fatalf("expected ErrConfigInvalid, got %v", err)
	}
}

func TestListProductsSendsNoCacheHeaders(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != "/products" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if r.Header.Get("Cache-Control") == "" || r.Header.Get("Pragma") != "no-cache" {
			t.Errorf("missing no-cache headers: %v", r.Header)
		}
		if r.Header.Get("Authorization") != "" {
			t.Errorf("products list should not carry a token")
		}
		_, _ = io.WriteString(w, `[{"id":1,"title":"Tee","price":19.99,"category":"men"},{"id":2,"title":"Bag","price":"45.5"}]`)
	})

	products, err := client.ListProducts(context.Background())
	if err != nil {
		t.Fatalf("list products failed: %v", err)
	}
	if len(products) != 2 {
		t.Fatalf("want 2 products got %d", len(products))
	}
	if products[0].Price.String() != "19.99" || products[1].Price.String() != "45.50" {
		t.Fatalf("unexpected prices: %s %s", products[0].Price, products[1].Price)
	}
}

func TestListProductsAcceptsEnvelope(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"data":[{"id":7,"title":"Cap","price":10}]}`)
	})
	products, err := client.ListProducts(context.Background())
	if err != nil {
		t.Fatalf("list products failed: %v", err)
	}
	if len(products) != 1 || products[0].ID != 7 {
		t.Fatalf("unexpected products: %+v", products)
	}
}

func TestListProductsStatusError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})
	if _, err := client.ListProducts(context.Background()); !errors.Is(err, ErrResponseInvalid) {
		t.Fatalf("expected ErrResponseInvalid, got %v", err)
	}
}

func TestListWishlistKeepsNullProducts(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok-1" {
			t.Errorf("missing bearer token, got %q", r.Header.Get("Authorization"))
		}
		_, _ = io.WriteString(w, `{"data":[{"id":1,"product":{"id":3,"title":"Hat","price":12}},{"id":2,"product":null},{"id":9,"title":"Bare","price":1}]}`)
	})

	items, err := client.ListWishlist(context.Background(), "tok-1")
	if err != nil {
		t.Fatalf("list wishlist failed: %v", err)
	}
	if len(items) != 3 {
		t.Fatalf("want 3 items got %d", len(items))
	}
	if items[0].Product == nil || items[0].Product.ID != 3 {
		t.Fatalf("first item product mismatch: %+v", items[0])
	}
	if items[1].Product != nil {
		t.Fatalf("soft deleted product should decode as nil")
	}
	if items[2].Product == nil || items[2].Product.ID != 9 {
		t.Fatalf("bare product entry should be wrapped: %+v", items[2])
	}
}

func TestListWishlistWithoutToken(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("request should not be sent without token")
	})
	if _, err := client.ListWishlist(context.Background(), ""); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestToggleWishlistPostsProductID(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/wishlist/toggle" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		var body map[string]uint
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode body failed: %v", err)
		}
		if body["product_id"] != 42 {
			t.Errorf("product_id want 42 got %d", body["product_id"])
		}
		_, _ = io.WriteString(w, `{"ok":true}`)
	})
	if err := client.ToggleWishlist(context.Background(), "tok", 42); err != nil {
		t.Fatalf("toggle failed: %v", err)
	}
}

func TestToggleWishlistUnauthorizedStatus(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})
	if err := client.ToggleWishlist(context.Background(), "expired", 1); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestSubmitOrderReadsServerID(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var body map[string]interface{}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode body failed: %v", err)
		}
		if body["client_order_id"] != "1700000000000" {
			t.Errorf("unexpected client order id: %v", body["client_order_id"])
		}
		_, _ = io.WriteString(w, `{"data":{"id":981,"status":"processing"}}`)
	})
	order := models.Order{
		ID:    "1700000000000",
		Items: []models.CartLine{{Product: models.Product{ID: 1, Price: models.NewMoney(10)}, Quantity: 2}},
		Total: models.NewMoney(20),
	}
	result, err := client.SubmitOrder(context.Background(), "tok", order)
	if err != nil {
		t.Fatalf("submit order failed: %v", err)
	}
	if result.ID != "981" || result.Status != "processing" {
		t.Fatalf("unexpected result: %+v", result)
	}
}
