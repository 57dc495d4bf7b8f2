// Package transport owns the HTTP server: the WebSocket upgrade endpoint
// that hands connections to the JSON-RPC subscription protocol, the thin
// read-only HTTP API, and the operational endpoints (health, metrics, docs).
package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"tokenrank/internal/httpapi"
	"tokenrank/internal/rpc"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Server is the HTTP/WebSocket front door.
type Server struct {
	http *http.Server
	log  *zap.Logger
}

// Config carries the bits Server needs beyond its route dependencies.
type Config struct {
	Addr         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// New builds the HTTP server and registers every route.
func New(cfg Config, rpcDeps rpc.Deps, api *httpapi.Handlers, log *zap.Logger) *Server {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /wss", func(w http.ResponseWriter, r *http.Request) {
		serveWebSocket(w, r, rpcDeps, log)
	})

	api.Register(mux)

	mux.HandleFunc("GET /health", handleHealth)
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("GET /swagger-ui", handleSwaggerUI)
	mux.HandleFunc("GET /api-docs/openapi.json", handleOpenAPI)

	return &Server{
		http: &http.Server{
			Addr:         cfg.Addr,
			Handler:      mux,
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
		},
		log: log,
	}
}

// Run starts serving and blocks until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.log.Info("http server listening", zap.String("addr", s.http.Addr))
		if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return s.http.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

func serveWebSocket(w http.ResponseWriter, r *http.Request, deps rpc.Deps, log *zap.Logger) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	socket := rpc.NewSocket(conn, deps, r.RemoteAddr)
	socket.Serve(r.Context())
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().Unix(),
	})
}

func handleSwaggerUI(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html")
	fmt.Fprint(w, `<!DOCTYPE html><html><head><title>tokenrank API</title></head>
<body><div id="swagger-ui"></div>
<script src="https://unpkg.com/swagger-ui-dist/swagger-ui-bundle.js"></script>
<script>window.onload = () => SwaggerUIBundle({url: "/api-docs/openapi.json", dom_id: "#swagger-ui"});</script>
</body></html>`)
}

func handleOpenAPI(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"openapi": "3.0.0",
		"info":    map[string]string{"title": "tokenrank", "version": "1.0.0"},
		"paths": map[string]interface{}{
			"/profile/{user}": map[string]interface{}{},
			"/search/{query}": map[string]interface{}{},
		},
	})
}
