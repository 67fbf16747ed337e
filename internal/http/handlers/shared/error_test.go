package shared

import (
	"encoding/json"
	"errors"
	"net/http/httptest"
	"testing"

	"github.com/dujiao-next/storefront/internal/constants"
	"github.com/dujiao-next/storefront/internal/http/response"

	"github.com/gin-gonic/gin"
)

type envelope struct {
	StatusCode int                    `json:"status_code"`
	Msg        string                 `json:"msg"`
	Data       map[string]interface{} `json:"data"`
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var body envelope
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response failed: %v", err)
	}
	return body
}

func TestRespondLoginRequiredCarriesRedirect(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Set("request_id", "req-1")

	RespondLoginRequired(c)

	if w.Code != 200 {
		t.Fatalf("errors are reported in the envelope, got http %d", w.Code)
	}
	body := decodeEnvelope(t, w)
	if body.StatusCode != response.CodeUnauthorized {
		t.Fatalf("want 401, got %d", body.StatusCode)
	}
	if body.Data["redirect"] != constants.LoginPath || body.Data["request_id"] != "req-1" {
		t.Fatalf("unexpected data: %+v", body.Data)
	}
}

func TestRespondErrorWithoutData(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	RespondError(c, response.CodeBadGateway, "catalog reload failed", errors.New("dial tcp"))

	body := decodeEnvelope(t, w)
	if body.StatusCode != response.CodeBadGateway || body.Msg != "catalog reload failed" {
		t.Fatalf("unexpected body: %+v", body)
	}
	if body.Data != nil {
		t.Fatalf("raw error must not leak into data: %+v", body.Data)
	}
}

func TestAsAppErrorUnwrapsChain(t *testing.T) {
	inner := response.WrapError(response.CodeBadRequest, "bad", nil)
	wrapped := errors.Join(errors.New("outer"), inner)
	got, ok := response.AsAppError(wrapped)
	if !ok || got.Code != response.CodeBadRequest {
		t.Fatalf("want app error, got %v %v", got, ok)
	}
}
