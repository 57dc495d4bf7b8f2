package rpc

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"tokenrank/internal/hub"
	"tokenrank/internal/leaderboard"
	"tokenrank/internal/metrics"
	"tokenrank/internal/store"
)

const (
	writeWait  = 10 * time.Second
	sendBuffer = 100
)

// Deps are the shared resources every socket dispatches into.
type Deps struct {
	Postgres   *store.Postgres
	Redis      *store.Redis
	Engine     *leaderboard.Engine
	Tokens     *hub.Tokens
	Orders     *hub.Orders
	NewContent *hub.NewContent
	Metrics    *metrics.Metrics
	Log        *zap.Logger
}

// Socket owns one upgraded WebSocket connection and its JSON-RPC dispatch
// loop. At most one subscription per method kind is active at a time; a new
// subscribe of the same kind cancels and replaces the previous one.
type Socket struct {
	conn *websocket.Conn
	deps Deps
	log  *zap.Logger

	send chan Response

	mu     sync.Mutex
	active map[Method]context.CancelFunc
}

// NewSocket wraps an already-upgraded connection.
func NewSocket(conn *websocket.Conn, deps Deps, remoteAddr string) *Socket {
	id := uuid.NewString()
	return &Socket{
		conn:   conn,
		deps:   deps,
		log:    deps.Log.With(zap.String("socket_id", id), zap.String("remote_addr", remoteAddr)),
		send:   make(chan Response, sendBuffer),
		active: make(map[Method]context.CancelFunc),
	}
}

// Serve runs the socket's read and write pumps until the connection closes
// or ctx is cancelled. It blocks until the socket is fully torn down.
func (s *Socket) Serve(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	s.deps.Metrics.IncSocketsActive()
	defer s.deps.Metrics.DecSocketsActive()

	writeDone := make(chan struct{})
	go func() {
		defer close(writeDone)
		for {
			select {
			case msg, ok := <-s.send:
				if !ok {
					return
				}
				s.conn.SetWriteDeadline(time.Now().Add(writeWait))
				if err := s.conn.WriteJSON(msg); err != nil {
					return
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			break
		}
		s.handleMessage(ctx, data)
	}

	cancel()
	s.closeActiveSubscriptions()
	<-writeDone
	s.conn.Close()
}

func (s *Socket) handleMessage(ctx context.Context, data []byte) {
	var req Request
	if err := json.Unmarshal(data, &req); err != nil {
		s.sendErrorRaw(ErrParse, "")
		return
	}
	if req.Jsonrpc == "" {
		req.Jsonrpc = "2.0"
	}

	switch req.Method {
	case MethodOrderSubscribe:
		s.subscribeOrder(ctx, req)
	case MethodTokenSubscribe:
		s.subscribeToken(ctx, req)
	case MethodNewContentSubscribe:
		s.subscribeNewContent(ctx, req)
	default:
		s.sendError(req.Method, ErrMethodNotFound, "")
	}
}

// replace installs a new forwarding context for kind, cancelling and
// discarding whatever was previously registered. The returned context is
// cancelled either by a future replace of the same kind or by socket
// shutdown.
func (s *Socket) replace(parent context.Context, kind Method) context.Context {
	subCtx, cancel := context.WithCancel(parent)

	s.mu.Lock()
	if prev, ok := s.active[kind]; ok {
		prev()
	}
	s.active[kind] = cancel
	s.mu.Unlock()

	return subCtx
}

func (s *Socket) closeActiveSubscriptions() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, cancel := range s.active {
		cancel()
	}
	s.active = make(map[Method]context.CancelFunc)
}

func (s *Socket) sendResult(method Method, result interface{}) {
	select {
	case s.send <- successResponse(method, result):
	default:
		s.log.Warn("dropping response, socket send buffer full", zap.String("method", string(method)))
	}
}

func (s *Socket) sendError(method Method, code ErrorCode, message string) {
	s.deps.Metrics.RPCError(string(method), int(code))
	resp := errorResponse(code, message)
	resp.Method = method
	select {
	case s.send <- resp:
	default:
	}
}

func (s *Socket) sendErrorRaw(code ErrorCode, message string) {
	s.deps.Metrics.RPCError("", int(code))
	select {
	case s.send <- errorResponse(code, message):
	default:
	}
}
