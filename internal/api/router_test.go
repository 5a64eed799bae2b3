package api

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/aegis-screener/internal/api/handlers"
	"github.com/wonny/aegis-screener/internal/contracts"
	"github.com/wonny/aegis-screener/internal/pipeline"
	"github.com/wonny/aegis-screener/internal/selection"
	"github.com/wonny/aegis-screener/pkg/config"
	"github.com/wonny/aegis-screener/pkg/logger"
)

type stubService struct {
	tracker *pipeline.ProgressTracker
}

func (s *stubService) GetDailyStocks(ctx context.Context, force bool) (*pipeline.Result, error) {
	panic("boom")
}
func (s *stubService) Universe() contracts.UniverseKind    { return contracts.UniverseBoth }
func (s *stubService) Filters() selection.FilterConfig     { return selection.DefaultFilterConfig() }
func (s *stubService) Weights() selection.WeightConfig     { return selection.DefaultWeightConfig() }
func (s *stubService) Progress() *pipeline.ProgressTracker { return s.tracker }

func newTestRouter(t *testing.T) (*Router, *pipeline.ProgressTracker) {
	t.Helper()
	tracker := pipeline.NewProgressTracker()
	h := handlers.NewScreeningHandler(&stubService{tracker: tracker},
		handlers.StreamConfig{PollInterval: time.Millisecond, MaxAge: time.Second, TerminalDelay: time.Millisecond},
		logger.Nop())
	return NewRouter(h, logger.Nop()), tracker
}

func TestRouter_Routes(t *testing.T) {
	router, _ := newTestRouter(t)

	tests := []struct {
		method string
		path   string
		status int
		body   string
	}{
		{"GET", "/", http.StatusOK, "Stock Screener API is running"},
		{"GET", "/health", http.StatusOK, "healthy"},
		{"GET", "/api/health", http.StatusOK, "healthy"},
		{"GET", "/api/filters", http.StatusOK, "eps_growth_or_fcf"},
		{"GET", "/api/daily-stocks", http.StatusInternalServerError, "Internal server error"},
		{"POST", "/api/daily-stocks", http.StatusMethodNotAllowed, ""},
		{"OPTIONS", "/api/daily-stocks", http.StatusNoContent, ""},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, nil))

			assert.Equal(t, tt.status, rec.Code)
			if tt.body != "" {
				assert.Contains(t, rec.Body.String(), tt.body)
			}
			if tt.status != http.StatusMethodNotAllowed {
				assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
			}
		})
	}
}

func TestRouter_WebSocketProgress(t *testing.T) {
	router, tracker := newTestRouter(t)
	tracker.Set(contracts.ProgressState{
		Status:      contracts.StatusComplete,
		Stage:       contracts.StageComplete,
		Message:     "Screening complete! Found 3 stocks.",
		StocksFound: 3,
	})

	srv := httptest.NewServer(router)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/screening-progress"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	var state contracts.ProgressState
	require.NoError(t, conn.ReadJSON(&state))
	assert.Equal(t, contracts.StatusComplete, state.Status)
	assert.Equal(t, 3, state.StocksFound)

	// 종료 후 서버가 정상 종료 프레임 전송
	_, _, err = conn.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.CloseNormalClosure), "got %v", err)
}

func TestRouter_RouteTableIsServed(t *testing.T) {
	router, _ := newTestRouter(t)
	require.Len(t, router.Routes, 7)

	for _, rt := range router.Routes {
		t.Run(rt.Method+" "+rt.Path, func(t *testing.T) {
			assert.NotEmpty(t, rt.Description)

			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, rt.Path, nil))
			assert.Equal(t, http.StatusMethodNotAllowed, rec.Code, "path registered for %s only", rt.Method)
		})
	}
}

// lockedBuffer is written by Start and Shutdown from different goroutines
type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestServer_LogsRoutesAndStops(t *testing.T) {
	router, _ := newTestRouter(t)
	buf := &lockedBuffer{}
	cfg := &config.Config{Port: "0", Env: "test", Universe: config.UniverseConfig{Kind: "both"}}
	server := New(cfg, logger.NewWithWriter(buf, "debug"), router)
	assert.Equal(t, router.Routes, server.Routes())

	errCh := make(chan error, 1)
	go func() { errCh <- server.Start() }()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, server.Shutdown(ctx))

	select {
	case err := <-errCh:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Start did not return after Shutdown")
	}

	out := buf.String()
	assert.Contains(t, out, "Starting screener API")
	assert.Contains(t, out, `"universe":"both"`)
	for _, rt := range router.Routes {
		assert.Contains(t, out, `"path":"`+rt.Path+`"`)
	}
	assert.Contains(t, out, "Screener API stopped")
}
