// Package backend 封装店铺后端 REST 接口（商品、收藏、订单）。
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/dujiao-next/storefront/internal/config"
	"github.com/dujiao-next/storefront/internal/models"
)

var (
	ErrConfigInvalid   = errors.New("backend config invalid")
	ErrRequestFailed   = errors.New("backend request failed")
	ErrResponseInvalid = errors.New("backend response invalid")
	ErrUnauthorized    = errors.New("backend unauthorized")
)

const (
	defaultTimeout = 10 * time.Second

	pathProducts       = "/products"
	pathWishlist       = "/wishlist"
	pathWishlistToggle = "/wishlist/toggle"
	pathOrders         = "/orders"
)

// WishlistItem 服务端收藏项；商品被软删除时 Product 为 nil
type WishlistItem struct {
	ID      uint            `json:"id,omitempty"`
	Product *models.Product `json:"product"`
}

// UnmarshalJSON 兼容 {"product":{...}} 与直接返回商品对象两种格式
func (w *WishlistItem) UnmarshalJSON(b []byte) error {
	trimmed := bytes.TrimSpace(b)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		*w = WishlistItem{}
		return nil
	}
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &probe); err != nil {
		return err
	}
	if _, ok := probe["product"]; ok {
		type alias WishlistItem
		var out alias
		if err := json.Unmarshal(trimmed, &out); err != nil {
			return err
		}
		*w = WishlistItem(out)
		return nil
	}
	var product models.Product
	if err := json.Unmarshal(trimmed, &product); err != nil {
		return err
	}
	*w = WishlistItem{Product: &product}
	return nil
}

// SubmitOrderResult 服务端下单结果
type SubmitOrderResult struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

// Client 后端 API 客户端
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient 创建后端客户端
func NewClient(cfg config.BackendConfig, httpClient *http.Client) (*Client, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		return nil, fmt.Errorf("%w: base_url is required", ErrConfigInvalid)
	}
	if httpClient == nil {
		timeout := defaultTimeout
		if cfg.TimeoutSeconds > 0 {
			timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	return &Client{baseURL: baseURL, httpClient: httpClient}, nil
}

// ListProducts 拉取商品目录（禁用中间缓存）
func (c *Client) ListProducts(ctx context.Context) ([]models.Product, error) {
	headers := http.Header{}
	headers.Set("Cache-Control", "no-cache, no-store, must-revalidate")
	headers.Set("Pragma", "no-cache")
	headers.Set("Expires", "0")

	body, err := c.do(ctx, http.MethodGet, pathProducts, "", headers, nil)
	if err != nil {
		return nil, err
	}
	var products []models.Product
	if err := decodeList(body, &products); err != nil {
		return nil, err
	}
	return products, nil
}

// ListWishlist 拉取用户收藏（需要 bearer token）
func (c *Client) ListWishlist(ctx context.Context, token string) ([]WishlistItem, error) {
	if strings.TrimSpace(token) == "" {
		return nil, ErrUnauthorized
	}
	body, err := c.do(ctx, http.MethodGet, pathWishlist, token, nil, nil)
	if err != nil {
		return nil, err
	}
	var items []WishlistItem
	if err := decodeList(body, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// ToggleWishlist 切换服务端收藏状态
func (c *Client) ToggleWishlist(ctx context.Context, token string, productID uint) error {
	if strings.TrimSpace(token) == "" {
		return ErrUnauthorized
	}
	payload, err := json.Marshal(map[string]uint{"product_id": productID})
	if err != nil {
		return fmt.Errorf("%w: marshal request failed", ErrRequestFailed)
	}
	_, err = c.do(ctx, http.MethodPost, pathWishlistToggle, token, nil, payload)
	return err
}

// SubmitOrder 提交订单到后端，返回服务端订单号
func (c *Client) SubmitOrder(ctx context.Context, token string, order models.Order) (*SubmitOrderResult, error) {
	if strings.TrimSpace(token) == "" {
		return nil, ErrUnauthorized
	}
	items := make([]map[string]interface{}, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, map[string]interface{}{
			"product_id": item.ID,
			"quantity":   item.Quantity,
			"color":      item.Color,
			"size":       item.Size,
			"price":      item.UnitPrice(),
		})
	}
	payload, err := json.Marshal(map[string]interface{}{
		"client_order_id": order.ID,
		"items":           items,
		"total":           order.Total,
		"payment_method":  order.PaymentMethod,
		"payment":         order.Payment,
		"shipping":        order.Shipping,
		"note":            order.Note,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: marshal request failed", ErrRequestFailed)
	}
	body, err := c.do(ctx, http.MethodPost, pathOrders, token, nil, payload)
	if err != nil {
		return nil, err
	}

	var raw map[string]interface{}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("%w: decode response failed", ErrResponseInvalid)
	}
	if data, ok := raw["data"].(map[string]interface{}); ok {
		raw = data
	}
	result := &SubmitOrderResult{
		ID:     readID(raw),
		Status: readString(raw, "status"),
	}
	if result.ID == "" {
		return nil, fmt.Errorf("%w: missing order id", ErrResponseInvalid)
	}
	return result, nil
}

func (c *Client) do(ctx context.Context, method, endpoint, token string, headers http.Header, body []byte) ([]byte, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, reader)
	if err != nil {
		return nil, fmt.Errorf("%w: build request failed", ErrRequestFailed)
	}
	for key, values := range headers {
		for _, value := range values {
			req.Header.Add(key, value)
		}
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if strings.TrimSpace(token) != "" {
		req.Header.Set("Authorization", "Bearer "+strings.TrimSpace(token))
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s %s: %v", ErrRequestFailed, method, endpoint, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read response failed", ErrRequestFailed)
	}
	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return nil, fmt.Errorf("%w: %s %s status %d", ErrUnauthorized, method, endpoint, resp.StatusCode)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: %s %s status %d", ErrResponseInvalid, method, endpoint, resp.StatusCode)
	}
	return respBody, nil
}

// decodeList 兼容直接数组与 {"data":[...]} 两种响应
func decodeList(body []byte, dest interface{}) error {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return fmt.Errorf("%w: empty body", ErrResponseInvalid)
	}
	if trimmed[0] == '{' {
		var envelope struct {
			Data json.RawMessage `json:"data"`
		}
		if err := json.Unmarshal(trimmed, &envelope); err != nil {
			return fmt.Errorf("%w: decode envelope failed", ErrResponseInvalid)
		}
		trimmed = bytes.TrimSpace(envelope.Data)
		if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
			trimmed = []byte("[]")
		}
	}
	if err := json.Unmarshal(trimmed, dest); err != nil {
		return fmt.Errorf("%w: decode list failed: %v", ErrResponseInvalid, err)
	}
	return nil
}

func readString(raw map[string]interface{}, key string) string {
	if raw == nil {
		return ""
	}
	if value, ok := raw[key].(string); ok {
		return strings.TrimSpace(value)
	}
	return ""
}

func readID(raw map[string]interface{}) string {
	for _, key := range []string{"id", "order_id", "_id"} {
		switch v := raw[key].(type) {
		case string:
			if strings.TrimSpace(v) != "" {
				return strings.TrimSpace(v)
			}
		case float64:
			return strconv.FormatInt(int64(v), 10)
		}
	}
	return ""
}
