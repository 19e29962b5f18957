package handlers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/geocoder89/devnet/internal/actorctx"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Make sure Gin does not spam the console during the test

func init() {
	gin.SetMode(gin.TestMode)
}

func newUUID() string {
	return uuid.NewString()
}

// asActor stands in for the auth middleware: it attaches the given caller to the request context.
func asActor(userID string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if userID != "" {
			c := actorctx.WithUserID(ctx.Request.Context(), userID)
			ctx.Request = ctx.Request.WithContext(c)
		}
		ctx.Next()
	}
}

// small helper function which returns the gin engine to mount one handler per test

func setupRouter(method, path, actor string, h gin.HandlerFunc) *gin.Engine {
	r := gin.New()

	r.Handle(method, path, asActor(actor), h)

	return r
}

func doJSON(r *gin.Engine, method, url, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, url, nil)
	} else {
		req = httptest.NewRequest(method, url, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	return w
}

func msgOf(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()

	var body struct {
		Msg string `json:"msg"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to unmarshal body: %v body=%s", err, w.Body.String())
	}

	return body.Msg
}

func firstErrorMsg(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()

	var body struct {
		Errors []struct {
			Msg string `json:"msg"`
		} `json:"errors"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to unmarshal body: %v body=%s", err, w.Body.String())
	}
	if len(body.Errors) == 0 {
		t.Fatalf("expected errors array, body=%s", w.Body.String())
	}

	return body.Errors[0].Msg
}
