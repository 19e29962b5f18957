package integration_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/geocoder89/devnet/internal/auth"
	"github.com/geocoder89/devnet/internal/config"
	apphttp "github.com/geocoder89/devnet/internal/http"
	"github.com/geocoder89/devnet/internal/observability"
	"github.com/geocoder89/devnet/internal/revocation"
	"github.com/geocoder89/devnet/internal/security"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/crypto/bcrypt"
)

func testConfig() config.Config {
	return config.Config{
		Env:            "test",
		Store:          config.StoreMemory,
		JWTSecret:      "test-secret-key",
		JWTTTL:         time.Hour,
		BcryptCost:     bcrypt.MinCost,
		DBTimeout:      2 * time.Second,
		LoginRateLimit: 1000,
		WriteRateLimit: 1000,
	}
}

// baseDeps wires everything except the stores.
func baseDeps(t *testing.T) apphttp.Deps {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := testConfig()

	tokens, err := auth.NewManager(cfg.JWTSecret, cfg.JWTTTL)
	if err != nil {
		t.Fatalf("token manager: %v", err)
	}

	hasher, err := security.NewHasher(cfg.BcryptCost)
	if err != nil {
		t.Fatalf("hasher: %v", err)
	}

	reg := prometheus.NewRegistry()
	revoked := revocation.NewMemoryStore()

	return apphttp.Deps{
		Config:   cfg,
		Tokens:   tokens,
		Hasher:   hasher,
		Revoked:  revoked,
		Checker:  revoked,
		Prom:     observability.NewProm(reg),
		Gatherer: reg,
	}
}

// function that runs a request and returns the recorder

func doRequest(router http.Handler, method, path, body, token string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
	}

	if token != "" {
		req.Header.Set("x-auth-token", token)
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	return w
}

func mustReadJSON[T any](t *testing.T, w *httptest.ResponseRecorder, out *T) {
	t.Helper()
	err := json.Unmarshal(w.Body.Bytes(), out)
	if err != nil {
		t.Fatalf("failed to unmarshal json: %v, body=%s", err, w.Body.String())
	}
}

func expectStatus(t *testing.T, w *httptest.ResponseRecorder, want int, step string) {
	t.Helper()
	if w.Code != want {
		t.Fatalf("%s: got status %d, want %d, body=%s", step, w.Code, want, w.Body.String())
	}
}

func expectMsg(t *testing.T, w *httptest.ResponseRecorder, want, step string) {
	t.Helper()
	var body struct {
		Msg string `json:"msg"`
	}
	mustReadJSON(t, w, &body)
	if body.Msg != want {
		t.Fatalf("%s: got msg %q, want %q", step, body.Msg, want)
	}
}

type tokenResponse struct {
	Token string `json:"token"`
	User  struct {
		ID     string `json:"id"`
		Name   string `json:"name"`
		Email  string `json:"email"`
		Avatar string `json:"avatar"`
	} `json:"user"`
}

type postResponse struct {
	ID       string `json:"id"`
	User     string `json:"user"`
	Name     string `json:"name"`
	Likes    []any  `json:"likes"`
	Comments []struct {
		ID   string `json:"id"`
		User string `json:"user"`
	} `json:"comments"`
}

func register(t *testing.T, router http.Handler, name, email string) tokenResponse {
	t.Helper()

	w := doRequest(router, http.MethodPost, "/api/users",
		`{"name":"`+name+`","email":"`+email+`","password":"secret1"}`, "")
	expectStatus(t, w, http.StatusOK, "register "+email)

	var resp tokenResponse
	mustReadJSON(t, w, &resp)
	if resp.Token == "" || resp.User.ID == "" {
		t.Fatalf("register %s: empty token or id: %s", email, w.Body.String())
	}

	return resp
}
