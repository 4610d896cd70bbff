package transport

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"tablejack/chat"
	"tablejack/game"
	"tablejack/protocol"
)

// Server accepts websocket sessions, decodes their traffic into commands
// and routes typed payloads back out. It is the game.Notifier for the
// whole process.
type Server struct {
	store   *game.SessionStore
	auth    *Authenticator
	credits game.CreditStore
	manager *game.Manager
	engine  *game.Engine
	chat    *chat.Router
	log     *zap.Logger

	upgrader websocket.Upgrader

	mu    sync.RWMutex
	conns map[string]*Conn // session id -> conn
}

// NewServer wires the socket front end. The chat router and the two engines
// are attached after construction because they need the server as their
// Notifier.
func NewServer(store *game.SessionStore, auth *Authenticator, credits game.CreditStore, log *zap.Logger) *Server {
	return &Server{
		store:   store,
		auth:    auth,
		credits: credits,
		log:     log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		conns: make(map[string]*Conn),
	}
}

// Attach plugs in the command handlers.
func (s *Server) Attach(manager *game.Manager, engine *game.Engine, router *chat.Router) {
	s.manager = manager
	s.engine = engine
	s.chat = router
}

// ServeHTTP upgrades the request and runs the session pumps.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	sock, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	c := newConn(uuid.NewString(), sock, s.log)
	s.mu.Lock()
	s.conns[c.ID] = c
	s.mu.Unlock()

	s.log.Info("session opened", zap.String("session", c.ID), zap.String("remote", r.RemoteAddr))

	go c.writePump()
	c.readPump(s)
}

// dropConn tears a session down: the player gives up their seat, leaves the
// registry and the routing map.
func (s *Server) dropConn(c *Conn) {
	s.mu.Lock()
	delete(s.conns, c.ID)
	s.mu.Unlock()
	c.close()

	userID := s.store.UnlinkSession(c.ID)
	if userID == "" {
		s.log.Info("session closed", zap.String("session", c.ID))
		return
	}
	if p := s.store.TryGetExistingPlayer(userID); p != nil {
		s.manager.Leave(p)
	}
	s.store.RemovePlayer(userID)
	s.log.Info("session closed", zap.String("session", c.ID), zap.String("user_id", userID))
}

func (s *Server) connFor(userID string) *Conn {
	sid, ok := s.store.SessionFor(userID)
	if !ok {
		return nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.conns[sid]
}

func encode(msg protocol.Outbound, log *zap.Logger) []byte {
	data, err := json.Marshal(msg)
	if err != nil {
		log.Error("outbound payload marshal failed", zap.Error(err))
		return nil
	}
	return data
}

// Send implements game.Notifier.
func (s *Server) Send(userID string, msg protocol.Outbound) {
	c := s.connFor(userID)
	if c == nil {
		return
	}
	if data := encode(msg, s.log); data != nil {
		c.enqueue(data)
	}
}

// SendMany implements game.Notifier.
func (s *Server) SendMany(userIDs []string, msg protocol.Outbound) {
	data := encode(msg, s.log)
	if data == nil {
		return
	}
	for _, id := range userIDs {
		if c := s.connFor(id); c != nil {
			c.enqueue(data)
		}
	}
}

// Broadcast implements game.Notifier.
func (s *Server) Broadcast(msg protocol.Outbound) {
	data := encode(msg, s.log)
	if data == nil {
		return
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, c := range s.conns {
		c.enqueue(data)
	}
}
