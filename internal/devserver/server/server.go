// Package server exposes the development backend over REST and the
// websocket change-event feed.
package server

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/grovetools/console/internal/devserver/store"
	"github.com/grovetools/console/pkg/backend"
	"github.com/grovetools/console/pkg/feed"
	"github.com/grovetools/console/pkg/models"
	"github.com/grovetools/console/pkg/scope"
)

const (
	pingInterval = 20 * time.Second
	writeWait    = 5 * time.Second
)

// RunningConfig describes the active server settings. It is exposed via
// /api/config so clients can verify what they are talking to.
type RunningConfig struct {
	Addr      string    `json:"addr"`
	Scopes    []string  `json:"scopes"`
	StartedAt time.Time `json:"started_at"`
}

// Server serves the development backend API.
type Server struct {
	logger        *logrus.Entry
	mu            sync.Mutex
	server        *http.Server
	stopped       bool
	store         *store.Store
	token         string
	runningConfig *RunningConfig
	upgrader      websocket.Upgrader
}

// New creates a new Server. An empty token disables authentication.
func New(st *store.Store, token string, logger *logrus.Entry) *Server {
	return &Server{
		logger: logger,
		store:  st,
		token:  token,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4 * 1024,
			WriteBufferSize: 32 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// SetRunningConfig sets the running configuration for the server.
func (s *Server) SetRunningConfig(cfg *RunningConfig) {
	s.runningConfig = cfg
}

// Handler returns the routed HTTP handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET "+backend.PathHealth, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("GET "+backend.PathActions, s.authorized(s.handleGetActions))
	mux.HandleFunc("GET "+backend.PathActivities, s.authorized(s.handleGetActivities))
	mux.HandleFunc("POST "+backend.PathActivities+"/{id}/cancel", s.authorized(s.handleCancelActivity))
	mux.HandleFunc("GET /api/config", s.authorized(s.handleGetConfig))
	mux.HandleFunc("GET "+feed.EventsPath, s.authorized(s.handleEvents))
	return mux
}

// ListenAndServe serves on addr. It blocks until the server stops or fails.
func (s *Server) ListenAndServe(addr string) error {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.Serve(listener)
}

// Serve serves on an existing listener. It returns nil at once when
// Shutdown already ran.
func (s *Server) Serve(listener net.Listener) error {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return listener.Close()
	}
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.server = srv
	s.mu.Unlock()

	s.logger.WithField("addr", listener.Addr().String()).Info("Development backend listening")
	err := srv.Serve(listener)
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Shutdown gracefully stops the server and ends every feed subscription.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down server...")
	s.store.Hub().Disconnect()
	s.mu.Lock()
	s.stopped = true
	srv := s.server
	s.mu.Unlock()
	if srv != nil {
		return srv.Shutdown(ctx)
	}
	return nil
}

func (s *Server) authorized(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.token != "" && r.Header.Get("Authorization") != "Bearer "+s.token {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		next(w, r)
	}
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) handleGetActions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.store.Actions(scope.Parse(r.URL.Query().Get("scope"))))
}

func (s *Server) handleGetActivities(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.store.Activities(scope.Parse(r.URL.Query().Get("scope"))))
}

func (s *Server) handleCancelActivity(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if !s.store.RequestCancel(id) {
		http.Error(w, "activity not found", http.StatusNotFound)
		return
	}
	s.logger.WithField("uuid", id).Info("Activity cancellation requested")
	w.WriteHeader(http.StatusAccepted)
}

func (s *Server) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	if s.runningConfig == nil {
		http.Error(w, "config not initialized", http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, s.runningConfig)
}

func parseCategories(values []string) []models.EventCategory {
	var out []models.EventCategory
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, models.EventCategory(strings.ToUpper(part)))
			}
		}
	}
	if len(out) == 0 {
		out = []models.EventCategory{models.CategoryActivities, models.CategoryServerActions}
	}
	return out
}

// handleEvents upgrades to a websocket and streams change events for the
// requested categories and scope. Subscribers to ACTIVITIES first receive
// the current list so they do not wait for the next change.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	categories := parseCategories(r.URL.Query()["category"])
	sc := scope.Parse(r.URL.Query().Get("scope"))

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	// The hub subscription exists before the handshake completes, so
	// anything published once the client's dial returns is delivered.
	sub, err := s.store.Hub().Subscribe(ctx, categories, sc)
	if err != nil {
		s.logger.WithError(err).Warn("Feed subscription refused")
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
		return
	}
	defer sub.Close()

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.WithError(err).Debug("Websocket upgrade failed")
		return
	}
	defer conn.Close()

	logger := s.logger.WithField("subscription", sub.ID).WithField("scope", sc.String())
	logger.Debug("Feed client connected")

	// Reader: only control frames are expected; a read error means the
	// client went away.
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	write := func(v interface{}) error {
		_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
		return conn.WriteJSON(v)
	}

	if sub.Accepts(models.ChangeEvent{Category: models.CategoryActivities}) {
		initial, err := models.NewChangeEvent(models.CategoryActivities, models.EventChanged, nil, s.store.Activities(nil))
		if err == nil {
			if err := write(initial); err != nil {
				return
			}
		}
	}

	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Debug("Feed client disconnected")
			return
		case ev, ok := <-sub.Events():
			if !ok {
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "feed closed"),
					time.Now().Add(writeWait))
				return
			}
			if err := write(ev); err != nil {
				logger.WithError(err).Debug("Failed to write event")
				return
			}
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		}
	}
}
