package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/wonny/aegis-screener/internal/contracts"
)

const writeWait = 10 * time.Second

// StreamConfig controls the progress streams
type StreamConfig struct {
	PollInterval  time.Duration // 500ms
	MaxAge        time.Duration // 5m
	TerminalDelay time.Duration // 1s after complete/error
}

func (c StreamConfig) withDefaults() StreamConfig {
	if c.PollInterval <= 0 {
		c.PollInterval = 500 * time.Millisecond
	}
	if c.MaxAge <= 0 {
		c.MaxAge = 5 * time.Minute
	}
	if c.TerminalDelay < 0 {
		c.TerminalDelay = 0
	}
	return c
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true }, // CORS 허용과 동일
}

// StreamProgress streams ProgressState changes as Server-Sent Events
// GET /api/screening-progress
func (h *ScreeningHandler) StreamProgress(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no") // Disable nginx buffering

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	h.logger.WithField("remote", r.RemoteAddr).Debug("SSE: client connected")

	h.streamProgress(r.Context(), func(state contracts.ProgressState) error {
		data, err := json.Marshal(state)
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, "data: %s\n\n", data); err != nil {
			return err
		}
		flusher.Flush()
		return nil
	})

	h.logger.WithField("remote", r.RemoteAddr).Debug("SSE: stream closed")
}

// StreamProgressWS streams the same states over a websocket
// GET /ws/screening-progress
func (h *ScreeningHandler) StreamProgressWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.WithError(err).Warn("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	// 클라이언트 종료 감지
	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	h.streamProgress(ctx, func(state contracts.ProgressState) error {
		conn.SetWriteDeadline(time.Now().Add(writeWait))
		return conn.WriteJSON(state)
	})

	conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "done"),
		time.Now().Add(writeWait))
}

// streamProgress polls the tracker and emits every changed state. It
// stops shortly after a terminal state, at MaxAge, or when ctx ends.
func (h *ScreeningHandler) streamProgress(ctx context.Context, emit func(contracts.ProgressState) error) {
	tracker := h.service.Progress()

	deadline := time.NewTimer(h.stream.MaxAge)
	defer deadline.Stop()
	ticker := time.NewTicker(h.stream.PollInterval)
	defer ticker.Stop()

	var (
		last    contracts.ProgressState
		started bool
	)

	for {
		state := tracker.Snapshot()
		if !started || state != last {
			if err := emit(state); err != nil {
				return
			}
			last, started = state, true
		}

		if state.IsTerminal() {
			select {
			case <-time.After(h.stream.TerminalDelay):
			case <-ctx.Done():
			}
			return
		}

		select {
		case <-ctx.Done():
			return
		case <-deadline.C:
			return
		case <-ticker.C:
		}
	}
}
