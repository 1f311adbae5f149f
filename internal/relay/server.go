package relay

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// all origins are allowed; the relay carries no credentials and
		// rooms are opaque client-supplied keys.
		return true
	},
}

// Server bundles the registry, hub, and router behind an HTTP surface.
type Server struct {
	registry *Registry
	hub      *Hub
	router   *Router
	metrics  *Metrics
}

func NewServer() *Server {
	metrics := NewMetrics()
	registry := NewRegistry()
	hub := NewHub(registry, metrics)
	return &Server{
		registry: registry,
		hub:      hub,
		router:   NewRouter(hub, registry, metrics),
		metrics:  metrics,
	}
}

// Hub exposes the room hub, mainly for tests and the stats endpoint.
func (s *Server) Hub() *Hub { return s.hub }

// Routes builds the chi router: the websocket endpoint plus small JSON
// endpoints for health, stats, and room existence checks.
func (s *Server) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get("/ws", s.serveWS)
	r.Get("/healthz", s.handleHealth)
	r.Get("/stats", s.handleStats)
	r.Get("/exists", s.handleExists)
	r.Method(http.MethodGet, "/metrics", s.metrics)
	return r
}

func (s *Server) serveWS(w http.ResponseWriter, r *http.Request) {
	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("upgrade error", "error", err)
		return
	}

	conn := newSocketConn(uuid.NewString(), ws)
	s.registry.Register(conn)
	s.metrics.IncConn()
	slog.Info("connection opened", "connId", conn.ID(), "remote", r.RemoteAddr)

	go conn.writePump()
	go conn.readPump(s.router)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) handleStats(w http.ResponseWriter, _ *http.Request) {
	rooms, members := s.hub.Stats()
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]int{
		"rooms":       rooms,
		"members":     members,
		"connections": s.registry.Count(),
	})
}

func (s *Server) handleExists(w http.ResponseWriter, r *http.Request) {
	roomID := r.URL.Query().Get("room")
	if roomID == "" {
		http.Error(w, "missing room", http.StatusBadRequest)
		return
	}
	if s.hub.MembersOf(roomID) == nil {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}
