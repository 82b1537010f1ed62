// Package main contains integration tests for the API server wiring.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/loopcrew/loopfeed/internal/api"
	"github.com/loopcrew/loopfeed/internal/middleware"
	"github.com/loopcrew/loopfeed/internal/recommend"
	"github.com/loopcrew/loopfeed/internal/store"
)

// newTestHandler assembles the same routes and middleware chain main builds,
// over in-memory stores. Tracing is left out so tests don't touch the global
// tracer provider.
func newTestHandler(logger *slog.Logger) http.Handler {
	registry := prometheus.NewRegistry()
	httpMetrics := middleware.NewMetrics()
	if err := httpMetrics.Register(registry); err != nil {
		panic(err)
	}
	engineMetrics := recommend.NewMetrics()
	if err := engineMetrics.Register(registry); err != nil {
		panic(err)
	}

	interactions := store.NewInMemoryInteractionStore()
	catalog := store.NewInMemoryCatalog()
	socialGraph := store.NewInMemoryGraph()

	service := recommend.NewService(interactions, catalog, socialGraph, recommend.ServiceConfig{
		Rand:    func() float64 { return 0 },
		Logger:  logger,
		Metrics: engineMetrics,
	})

	recommendationHandlers := api.NewRecommendationHandlers(service, logger)
	healthHandlers := api.NewHealthHandlers(api.HealthHandlersConfig{})

	rateLimitStore := middleware.NewInMemoryRateLimitStore()
	recommendLimit := middleware.RateLimiter(rateLimitStore, middleware.DefaultRecommendationLimit(), middleware.ViewerKeyFunc(), httpMetrics)

	mux := http.NewServeMux()
	recommendationHandlers.RegisterRoutes(mux, recommendLimit)
	mux.HandleFunc("/health", healthHandlers.Health)
	mux.HandleFunc("/ready", healthHandlers.Ready)
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	return middleware.RequestID(
		middleware.Logging(logger)(
			middleware.RateLimiter(rateLimitStore, middleware.DefaultGlobalLimit(), middleware.IPKeyFunc(), httpMetrics)(
				middleware.HTTPMetrics(httpMetrics)(mux))))
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestServerWiring_Endpoints(t *testing.T) {
	server := httptest.NewServer(newTestHandler(discardLogger()))
	defer server.Close()

	tests := []struct {
		name       string
		path       string
		wantStatus int
	}{
		{"health", "/health", http.StatusOK},
		{"ready", "/ready", http.StatusOK},
		{"metrics", "/metrics", http.StatusOK},
		{"recommend posts", "/recommendations/posts/viewer-1", http.StatusOK},
		{"recommend users", "/recommendations/users/viewer-1", http.StatusOK},
		{"trending posts", "/trending/posts", http.StatusOK},
		{"unknown route", "/nope", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := http.Get(server.URL + tt.path)
			if err != nil {
				t.Fatalf("request failed: %v", err)
			}
			defer resp.Body.Close()
			if resp.StatusCode != tt.wantStatus {
				t.Errorf("expected %d, got %d", tt.wantStatus, resp.StatusCode)
			}
		})
	}
}

// TestServerWiring_RecommendationLimitClass verifies recommendation routes
// carry their own per-viewer limit class while the rest of the API stays on
// the global per-IP class.
func TestServerWiring_RecommendationLimitClass(t *testing.T) {
	server := httptest.NewServer(newTestHandler(discardLogger()))
	defer server.Close()

	get := func(path string) *http.Response {
		t.Helper()
		resp, err := http.Get(server.URL + path)
		if err != nil {
			t.Fatalf("request failed: %v", err)
		}
		_, _ = io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
		return resp
	}

	limit := middleware.DefaultRecommendationLimit().RequestsPerWindow
	for i := 0; i < limit; i++ {
		if resp := get("/recommendations/posts/viewer-limited"); resp.StatusCode != http.StatusOK {
			t.Fatalf("request %d: expected 200, got %d", i+1, resp.StatusCode)
		}
	}

	resp := get("/recommendations/posts/viewer-limited")
	if resp.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("expected 429 past the recommendation limit, got %d", resp.StatusCode)
	}
	if resp.Header.Get("Retry-After") == "" {
		t.Error("expected Retry-After header on limited response")
	}

	// Per-viewer keying: another viewer still has headroom
	if resp := get("/recommendations/posts/viewer-other"); resp.StatusCode != http.StatusOK {
		t.Errorf("expected 200 for a different viewer, got %d", resp.StatusCode)
	}

	// Trending is outside the recommendation class
	if resp := get("/trending/posts"); resp.StatusCode != http.StatusOK {
		t.Errorf("expected 200 for trending, got %d", resp.StatusCode)
	}
}

func TestServerWiring_RequestIDPropagated(t *testing.T) {
	server := httptest.NewServer(newTestHandler(discardLogger()))
	defer server.Close()

	resp, err := http.Get(server.URL + "/health")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.Header.Get("X-Request-ID") == "" {
		t.Error("expected X-Request-ID header on response")
	}
}

func TestServerWiring_EmptyStoresYieldEmptyRecommendations(t *testing.T) {
	server := httptest.NewServer(newTestHandler(discardLogger()))
	defer server.Close()

	resp, err := http.Get(server.URL + "/recommendations/posts/viewer-1")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	var body struct {
		Recommendations []string `json:"recommendations"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if body.Recommendations == nil {
		t.Error("expected empty array, got null")
	}
	if len(body.Recommendations) != 0 {
		t.Errorf("expected no recommendations from empty stores, got %v", body.Recommendations)
	}
}

// TestGracefulShutdown_LogOrder verifies the lifecycle log messages appear in
// order around a clean shutdown.
func TestGracefulShutdown_LogOrder(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to find available port: %v", err)
	}

	var logBuf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&logBuf, nil))

	server := &http.Server{
		Handler:      newTestHandler(logger),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverStopped := make(chan struct{})
	go func() {
		logger.Info("starting server", "addr", listener.Addr().String())
		if err := server.Serve(listener); err != nil && err != http.ErrServerClosed {
			t.Errorf("server error: %v", err)
		}
		close(serverStopped)
	}()

	time.Sleep(50 * time.Millisecond)

	logger.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		t.Errorf("server shutdown error: %v", err)
	}

	logger.Info("server stopped")

	select {
	case <-serverStopped:
	case <-time.After(15 * time.Second):
		t.Fatal("server failed to stop in time")
	}

	logs := logBuf.String()
	startIdx := strings.Index(logs, "starting server")
	shutdownIdx := strings.Index(logs, "shutting down server")
	stoppedIdx := strings.Index(logs, "server stopped")

	if startIdx == -1 || shutdownIdx == -1 || stoppedIdx == -1 {
		t.Fatalf("missing lifecycle log messages: %s", logs)
	}
	if startIdx > shutdownIdx || shutdownIdx > stoppedIdx {
		t.Error("lifecycle log messages out of order")
	}
}

// TestGracefulShutdown_InFlightRequests verifies that a request already being
// handled completes before Shutdown returns.
func TestGracefulShutdown_InFlightRequests(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to listen: %v", err)
	}
	addr := listener.Addr().String()

	var mu sync.Mutex
	var requestCompleted bool
	handlerStarted := make(chan struct{})
	handlerCanContinue := make(chan struct{})

	mux := http.NewServeMux()
	mux.HandleFunc("/slow", func(w http.ResponseWriter, r *http.Request) {
		close(handlerStarted)
		<-handlerCanContinue

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"completed"}`))

		mu.Lock()
		requestCompleted = true
		mu.Unlock()
	})

	logger := discardLogger()
	server := &http.Server{
		Handler: middleware.RequestID(middleware.Logging(logger)(mux)),
	}

	serverStopped := make(chan struct{})
	go func() {
		if err := server.Serve(listener); err != nil && err != http.ErrServerClosed {
			t.Errorf("server error: %v", err)
		}
		close(serverStopped)
	}()

	time.Sleep(50 * time.Millisecond)

	requestDone := make(chan *http.Response, 1)
	go func() {
		resp, err := http.Get("http://" + addr + "/slow")
		if err != nil {
			t.Errorf("request error: %v", err)
		}
		requestDone <- resp
	}()

	select {
	case <-handlerStarted:
	case <-time.After(2 * time.Second):
		t.Fatal("handler failed to start in time")
	}

	shutdownDone := make(chan struct{})
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			t.Errorf("shutdown error: %v", err)
		}
		close(shutdownDone)
	}()

	// Let shutdown begin, then release the handler
	time.Sleep(50 * time.Millisecond)
	close(handlerCanContinue)

	var response *http.Response
	select {
	case response = <-requestDone:
	case <-time.After(5 * time.Second):
		t.Fatal("request failed to complete in time")
	}

	select {
	case <-shutdownDone:
	case <-time.After(15 * time.Second):
		t.Fatal("shutdown failed to complete in time")
	}
	select {
	case <-serverStopped:
	case <-time.After(15 * time.Second):
		t.Fatal("server failed to stop in time")
	}

	mu.Lock()
	if !requestCompleted {
		t.Error("expected in-flight request to have completed")
	}
	mu.Unlock()

	if response != nil {
		defer response.Body.Close()
		if response.StatusCode != http.StatusOK {
			t.Errorf("expected status 200, got %d", response.StatusCode)
		}
		body, _ := io.ReadAll(response.Body)
		var result map[string]string
		if err := json.Unmarshal(body, &result); err != nil {
			t.Errorf("failed to parse response: %v", err)
		}
		if result["status"] != "completed" {
			t.Errorf("expected status 'completed', got '%s'", result["status"])
		}
	}
}

// TestSignalNotify verifies that signal.Notify catches the shutdown signals
// main waits on.
func TestSignalNotify(t *testing.T) {
	for _, sig := range []syscall.Signal{syscall.SIGINT, syscall.SIGTERM} {
		t.Run(sig.String(), func(t *testing.T) {
			quit := make(chan os.Signal, 1)
			signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
			defer signal.Stop(quit)

			go func() {
				time.Sleep(50 * time.Millisecond)
				_ = syscall.Kill(syscall.Getpid(), sig)
			}()

			select {
			case got := <-quit:
				if got != sig {
					t.Errorf("expected %v, got %v", sig, got)
				}
			case <-time.After(2 * time.Second):
				t.Errorf("did not receive %v in time", sig)
			}
		})
	}
}
