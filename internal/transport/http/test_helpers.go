package http

import (
	"bytes"
	"encoding/json"
	"io"
	stdhttp "net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/vblinov/beamchat-server/internal/auth"
	"github.com/vblinov/beamchat-server/internal/chat"
	"github.com/vblinov/beamchat-server/internal/config"
	"github.com/vblinov/beamchat-server/internal/presence"
	"github.com/vblinov/beamchat-server/internal/realtime"
	"github.com/vblinov/beamchat-server/internal/store/sqlite"
)

// startTestServer wires the full stack against an in-memory store and
// serves it over httptest.
func startTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	st, err := sqlite.New(":memory:")
	if err != nil {
		t.Fatalf("failed to create test store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	logger := zerolog.New(nil)

	authService := auth.NewService(st, &auth.JWTConfig{
		Secret:   []byte("test-secret-change-me"),
		Issuer:   "test",
		Audience: "test",
		TTL:      24 * time.Hour,
	})

	registry := presence.NewRegistry()
	router := realtime.NewRouter(registry, &logger)
	chatService := chat.NewService(st, router, &logger)

	server := NewServer(registry, router, authService, chatService, st, config.Config{
		Addr:              ":0",
		ReadHeaderTimeout: time.Second,
		ShutdownTimeout:   time.Second,
	}, &logger)

	ts := httptest.NewServer(server.Handler)
	t.Cleanup(ts.Close)

	return ts
}

// signupUser registers a user over the REST API and returns the session
// token and the created user.
func signupUser(t *testing.T, ts *httptest.Server, email, fullName string) (string, UserResponse) {
	t.Helper()

	resp := doJSON(t, ts, stdhttp.MethodPost, "/api/auth/signup", "", SignupRequest{
		Email:    email,
		FullName: fullName,
		Password: "password123",
	})
	defer resp.Body.Close()

	if resp.StatusCode != stdhttp.StatusCreated {
		body, _ := io.ReadAll(resp.Body)
		t.Fatalf("signup %s: status %d, body %s", email, resp.StatusCode, body)
	}

	var out AuthResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode signup response: %v", err)
	}
	return out.Token, out.User
}

// doJSON issues a request with an optional JSON body and bearer token.
func doJSON(t *testing.T, ts *httptest.Server, method, path, token string, payload any) *stdhttp.Response {
	t.Helper()

	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("marshal request body: %v", err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := stdhttp.NewRequest(method, ts.URL+path, body)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := ts.Client().Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	return resp
}

// decodeBody decodes a JSON response body into out and closes it.
func decodeBody(t *testing.T, resp *stdhttp.Response, out any) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}
