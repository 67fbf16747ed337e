package storefront

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/dujiao-next/storefront/internal/backend"
	"github.com/dujiao-next/storefront/internal/config"
	"github.com/dujiao-next/storefront/internal/models"
	"github.com/dujiao-next/storefront/internal/payment"
	"github.com/dujiao-next/storefront/internal/provider"
	"github.com/dujiao-next/storefront/internal/session"
	"github.com/dujiao-next/storefront/internal/storage"
	"github.com/dujiao-next/storefront/internal/store"

	"github.com/gin-gonic/gin"
)

type envelope struct {
	StatusCode int             `json:"status_code"`
	Msg        string          `json:"msg"`
	Data       json.RawMessage `json:"data"`
}

type fakeBackend struct {
	mu      sync.Mutex
	toggles []string
	orders  int
}

func (f *fakeBackend) handler(t *testing.T) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/products":
			_, _ = io.WriteString(w, `[{"id":1,"title":"Jacket","price":100,"category":"men"},{"id":2,"title":"Ring","price":50,"category":"jewelery"}]`)
		case "/wishlist":
			_, _ = io.WriteString(w, `{"data":[{"product":{"id":2,"title":"Ring","price":50}},{"product":null}]}`)
		case "/wishlist/toggle":
			body, _ := io.ReadAll(r.Body)
			f.mu.Lock()
			f.toggles = append(f.toggles, r.Header.Get("Authorization")+" "+string(body))
			f.mu.Unlock()
			_, _ = io.WriteString(w, `{}`)
		case "/orders":
			f.mu.Lock()
			f.orders++
			f.mu.Unlock()
			_, _ = io.WriteString(w, `{"id":77,"status":"processing"}`)
		default:
			t.Errorf("unexpected backend path %s", r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}
}

type testEnv struct {
	engine  *gin.Engine
	handler *Handler
	backend *fakeBackend
	syncer  *store.DirectSyncer
}

func newTestEnv(t *testing.T, submitOrders bool) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	fb := &fakeBackend{}
	srv := httptest.NewServer(fb.handler(t))
	t.Cleanup(srv.Close)

	cfg := &config.Config{
		Backend:   config.BackendConfig{BaseURL: srv.URL, SubmitOrders: submitOrders},
		Promotion: config.PromotionConfig{ProductIDs: []uint{1}, DiscountPercent: 20},
	}
	client, err := backend.NewClient(cfg.Backend, nil)
	if err != nil {
		t.Fatalf("new backend client failed: %v", err)
	}
	mem := storage.NewMemoryStorage()
	sess := session.NewManager(mem)
	syncer := store.NewDirectSyncer(client, time.Second, nil)
	st := store.New(store.Deps{
		Storage: mem,
		Catalog: client,
		Session: sess,
		Syncer:  syncer,
	}, store.Options{Promotion: cfg.Promotion})
	st.Init(context.Background())

	h := New(&provider.Container{
		Config:        cfg,
		Storage:       mem,
		BackendClient: client,
		Session:       sess,
		Payment:       payment.NewSimulator(),
		Store:         st,
	})

	r := gin.New()
	api := r.Group("/api/v1")
	api.GET("/products", h.GetProducts)
	api.GET("/products/:id", h.GetProduct)
	api.POST("/products/reload", h.ReloadProducts)
	api.GET("/cart", h.GetCart)
	api.POST("/cart/items", h.AddCartItem)
	api.POST("/cart/items/:id/decrease", h.DecreaseCartItem)
	api.DELETE("/cart/items/:id", h.DeleteCartItem)
	api.DELETE("/cart", h.ClearCart)
	api.PUT("/cart/drawer", h.SetCartDrawer)
	api.GET("/wishlist", h.GetWishlist)
	api.GET("/wishlist/:id", h.GetWishlistItem)
	api.POST("/wishlist/toggle", h.ToggleWishlist)
	api.DELETE("/wishlist/:id", h.DeleteWishlistItem)
	api.GET("/orders", h.ListOrders)
	api.GET("/orders/:id", h.GetOrder)
	api.POST("/checkout", h.Checkout)
	api.GET("/session", h.GetSession)
	api.POST("/session", h.CreateSession)
	api.DELETE("/session", h.DeleteSession)

	return &testEnv{engine: r, handler: h, backend: fb, syncer: syncer}
}

func (e *testEnv) do(t *testing.T, method, path, body string) envelope {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = bytes.NewBufferString(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	e.engine.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("%s %s: http status want 200 got %d", method, path, w.Code)
	}
	var env envelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("%s %s: decode envelope failed: %v body=%s", method, path, err, w.Body.String())
	}
	return env
}

func TestProductsCarryPromotion(t *testing.T) {
	env := newTestEnv(t, false)

	resp := env.do(t, http.MethodGet, "/api/v1/products?category=MEN", "")
	var catalog CatalogResponse
	_ = json.Unmarshal(resp.Data, &catalog)
	if resp.StatusCode != 0 || len(catalog.Items) != 1 {
		t.Fatalf("unexpected catalog response: %+v %s", resp, resp.Data)
	}
	if catalog.Items[0].Discount.String() != "20.00" {
		t.Fatalf("promotion discount want 20.00 got %s", catalog.Items[0].Discount)
	}

	if resp := env.do(t, http.MethodGet, "/api/v1/products/99", ""); resp.StatusCode != 404 {
		t.Fatalf("unknown product want 404 got %d", resp.StatusCode)
	}
	if resp := env.do(t, http.MethodGet, "/api/v1/products/abc", ""); resp.StatusCode != 400 {
		t.Fatalf("bad id want 400 got %d", resp.StatusCode)
	}
}

func TestCartFlow(t *testing.T) {
	env := newTestEnv(t, false)

	env.do(t, http.MethodPost, "/api/v1/cart/items", `{"product_id":1,"quantity":3,"color":"black","open_drawer":false}`)
	resp := env.do(t, http.MethodPost, "/api/v1/cart/items", `{"product_id":1}`)
	var cart CartResponse
	_ = json.Unmarshal(resp.Data, &cart)
	if len(cart.Items) != 1 || cart.Items[0].Quantity != 2 || cart.Items[0].Color != "black" {
		t.Fatalf("unexpected cart: %s", resp.Data)
	}
	if cart.Summary.Subtotal.String() != "160.00" || cart.Summary.RawSubtotal.String() != "200.00" {
		t.Fatalf("unexpected summary: %+v", cart.Summary)
	}
	if !cart.DrawerOpen {
		t.Fatalf("second add should open the drawer")
	}

	resp = env.do(t, http.MethodPost, "/api/v1/cart/items/1/decrease", "")
	_ = json.Unmarshal(resp.Data, &cart)
	if cart.Items[0].Quantity != 1 {
		t.Fatalf("decrease should leave 1, got %d", cart.Items[0].Quantity)
	}
	resp = env.do(t, http.MethodDelete, "/api/v1/cart/items/1", "")
	_ = json.Unmarshal(resp.Data, &cart)
	if len(cart.Items) != 0 {
		t.Fatalf("delete should empty cart: %s", resp.Data)
	}

	if resp := env.do(t, http.MethodPost, "/api/v1/cart/items", `{"product_id":42}`); resp.StatusCode != 404 {
		t.Fatalf("unknown product want 404 got %d", resp.StatusCode)
	}
	if resp := env.do(t, http.MethodPut, "/api/v1/cart/drawer", `{"open":false}`); resp.StatusCode != 0 {
		t.Fatalf("drawer update failed: %+v", resp)
	}
}

func TestGuestToggleRequiresLogin(t *testing.T) {
	env := newTestEnv(t, false)

	resp := env.do(t, http.MethodPost, "/api/v1/wishlist/toggle", `{"product_id":2}`)
	if resp.StatusCode != 401 {
		t.Fatalf("guest toggle want 401 got %d", resp.StatusCode)
	}
	var data map[string]string
	_ = json.Unmarshal(resp.Data, &data)
	if data["redirect"] != "/login" {
		t.Fatalf("redirect want /login got %q", data["redirect"])
	}
	if env.handler.Store.IsInWishlist(2) {
		t.Fatalf("guest toggle should not add locally")
	}
}

func TestGuestToggleUnknownProductRequiresLogin(t *testing.T) {
	env := newTestEnv(t, false)

	resp := env.do(t, http.MethodPost, "/api/v1/wishlist/toggle", `{"product_id":42}`)
	if resp.StatusCode != 401 {
		t.Fatalf("guest toggle of unknown product want 401 got %d (%s)", resp.StatusCode, resp.Msg)
	}
	var data map[string]string
	_ = json.Unmarshal(resp.Data, &data)
	if data["redirect"] != "/login" {
		t.Fatalf("redirect want /login got %q", data["redirect"])
	}
}

func TestToggleUnknownProductAddsForSignedInUser(t *testing.T) {
	env := newTestEnv(t, false)
	if resp := env.do(t, http.MethodPost, "/api/v1/session", `{"token":"tok-1"}`); resp.StatusCode != 0 {
		t.Fatalf("sign in failed: %+v", resp)
	}

	resp := env.do(t, http.MethodPost, "/api/v1/wishlist/toggle", `{"product_id":42}`)
	if resp.StatusCode != 0 || !env.handler.Store.IsInWishlist(42) {
		t.Fatalf("toggle outside the catalog should add: %+v", resp)
	}
	env.syncer.Wait()
}

func TestLoginToggleCheckoutLogout(t *testing.T) {
	env := newTestEnv(t, true)

	resp := env.do(t, http.MethodPost, "/api/v1/session", `{"token":"tok-1","user":{"name":"Ada"}}`)
	if resp.StatusCode != 0 {
		t.Fatalf("login failed: %+v", resp)
	}
	if !env.handler.Store.IsInWishlist(2) || len(env.handler.Store.Wishlist()) != 1 {
		t.Fatalf("login should reconcile wishlist from server: %+v", env.handler.Store.Wishlist())
	}

	resp = env.do(t, http.MethodPost, "/api/v1/wishlist/toggle", `{"product_id":1}`)
	if resp.StatusCode != 0 || !env.handler.Store.IsInWishlist(1) {
		t.Fatalf("authenticated toggle should add: %+v", resp)
	}
	env.syncer.Wait()
	env.backend.mu.Lock()
	toggles := append([]string(nil), env.backend.toggles...)
	env.backend.mu.Unlock()
	if len(toggles) != 1 || toggles[0] != `Bearer tok-1 {"product_id":1}` {
		t.Fatalf("unexpected toggle sync: %+v", toggles)
	}

	env.do(t, http.MethodPost, "/api/v1/cart/items", `{"product_id":1}`)
	env.do(t, http.MethodPost, "/api/v1/cart/items", `{"product_id":2}`)
	resp = env.do(t, http.MethodPost, "/api/v1/checkout", `{"payment_method":"card","card_number":"4242424242424242","shipping":{"full_name":"Ada","address":"1 Main","city":"Paris"}}`)
	if resp.StatusCode != 0 {
		t.Fatalf("checkout failed: %+v", resp)
	}
	var checkout CheckoutResponse
	_ = json.Unmarshal(resp.Data, &checkout)
	if checkout.Order.Total.String() != "150.00" {
		t.Fatalf("order total should be undiscounted, got %s", checkout.Order.Total)
	}
	if checkout.Order.Payment == nil || checkout.Order.Payment.Amount.String() != "130.00" {
		t.Fatalf("payment should charge the discounted subtotal: %+v", checkout.Order.Payment)
	}
	if checkout.Order.Status != "processing" || !checkout.Submitted || checkout.Order.RemoteID != "77" {
		t.Fatalf("unexpected checkout result: %+v", checkout)
	}
	if len(env.handler.Store.Cart()) != 0 {
		t.Fatalf("checkout should empty the cart")
	}
	if resp := env.do(t, http.MethodGet, "/api/v1/orders/"+checkout.Order.ID, ""); resp.StatusCode != 0 {
		t.Fatalf("order lookup failed: %+v", resp)
	}

	if resp := env.do(t, http.MethodDelete, "/api/v1/session", ""); resp.StatusCode != 0 {
		t.Fatalf("logout failed: %+v", resp)
	}
	if len(env.handler.Store.Orders()) != 0 || len(env.handler.Store.Wishlist()) != 0 {
		t.Fatalf("logout should clear local data")
	}
	var info session.Info
	resp = env.do(t, http.MethodGet, "/api/v1/session", "")
	_ = json.Unmarshal(resp.Data, &info)
	if info.Authenticated {
		t.Fatalf("session should be cleared")
	}
}

func TestCheckoutValidation(t *testing.T) {
	env := newTestEnv(t, false)
	body := `{"payment_method":"card","card_number":"4242424242424242","shipping":{"full_name":"Ada","address":"1 Main","city":"Paris"}}`

	if resp := env.do(t, http.MethodPost, "/api/v1/checkout", body); resp.StatusCode != 401 {
		t.Fatalf("guest checkout want 401 got %d", resp.StatusCode)
	}
	env.do(t, http.MethodPost, "/api/v1/session", `{"token":"tok-1"}`)
	if resp := env.do(t, http.MethodPost, "/api/v1/checkout", body); resp.StatusCode != 400 || resp.Msg != "cart is empty" {
		t.Fatalf("empty cart want 400 got %+v", resp)
	}
	env.do(t, http.MethodPost, "/api/v1/cart/items", `{"product":{"id":5,"title":"Tee","price":10}}`)
	bad := `{"payment_method":"card","card_number":"1111","shipping":{"full_name":"Ada","address":"1 Main","city":"Paris"}}`
	if resp := env.do(t, http.MethodPost, "/api/v1/checkout", bad); resp.StatusCode != 400 {
		t.Fatalf("invalid card want 400 got %d", resp.StatusCode)
	}
	if len(env.handler.Store.Cart()) != 1 {
		t.Fatalf("failed payment should keep the cart")
	}
	if resp := env.do(t, http.MethodGet, "/api/v1/orders/nope", ""); resp.StatusCode != 404 {
		t.Fatalf("unknown order want 404 got %d", resp.StatusCode)
	}
}

func TestGuestCanDeleteWishlistEntry(t *testing.T) {
	env := newTestEnv(t, false)
	ctx := context.Background()
	_ = storage.SaveJSON(ctx, env.handler.Storage, "wishlist", []models.WishlistEntry{{Product: models.Product{ID: 2}}})

	st := store.New(store.Deps{Storage: env.handler.Storage, Session: env.handler.Session}, store.Options{})
	env.handler.Store = st

	resp := env.do(t, http.MethodGet, "/api/v1/wishlist/2", "")
	var data map[string]interface{}
	_ = json.Unmarshal(resp.Data, &data)
	if data["in_wishlist"] != true {
		t.Fatalf("seeded entry should be present: %s", resp.Data)
	}
	env.do(t, http.MethodDelete, "/api/v1/wishlist/2", "")
	if st.IsInWishlist(2) {
		t.Fatalf("guest delete should remove entry")
	}
}
