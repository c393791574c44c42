// Package realtime pushes notifications to browsers over websockets.
package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/R3E-Network/jobhunter/internal/app/metrics"
	"github.com/R3E-Network/jobhunter/internal/errors"
	"github.com/R3E-Network/jobhunter/internal/httputil"
	"github.com/R3E-Network/jobhunter/internal/security"
	"github.com/R3E-Network/jobhunter/pkg/logger"
)

// Connection limits.
const (
	MaxMessageSize = 8192
	WriteWait      = 20 * time.Second
	PingPeriod     = 25 * time.Second
	PongWait       = 30 * time.Second
	sendBuffer     = 16
)

// Destination is the per-user queue a frame is addressed to.
func Destination(userID int64) string {
	return fmt.Sprintf("/user/%d/queue/notifications", userID)
}

// Frame is the JSON envelope of every server to client message.
type Frame struct {
	Type        string          `json:"type"`
	Destination string          `json:"destination,omitempty"`
	Payload     json.RawMessage `json:"payload,omitempty"`
}

// TokenParser validates access tokens presented on the handshake.
type TokenParser interface {
	ParseAccess(token string) (security.Principal, error)
}

type client struct {
	userID int64
	conn   *websocket.Conn
	send   chan []byte
	once   sync.Once
}

func (c *client) close() {
	c.once.Do(func() { close(c.send) })
}

// Hub tracks websocket sessions per user and delivers frames to them.
type Hub struct {
	tokens   TokenParser
	upgrader websocket.Upgrader
	log      *logger.Logger

	mu      sync.RWMutex
	clients map[int64]map[*client]struct{}
	closed  bool
}

// NewHub creates a hub. An empty origins list accepts same-host requests
// only; "*" accepts any origin.
func NewHub(tokens TokenParser, origins []string, log *logger.Logger) *Hub {
	if log == nil {
		log = logger.NewDefault("realtime")
	}
	h := &Hub{
		tokens:  tokens,
		log:     log,
		clients: make(map[int64]map[*client]struct{}),
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     originChecker(origins),
	}
	return h
}

func originChecker(origins []string) func(*http.Request) bool {
	allowed := make(map[string]bool, len(origins))
	all := false
	for _, o := range origins {
		o = strings.TrimRight(strings.TrimSpace(o), "/")
		if o == "*" {
			all = true
		}
		allowed[o] = true
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" || all {
			return true
		}
		if len(allowed) == 0 {
			return strings.HasSuffix(origin, "://"+r.Host)
		}
		return allowed[strings.TrimRight(origin, "/")]
	}
}

// ServeHTTP authenticates the handshake from the token query parameter (or
// a bearer header) and upgrades the connection.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		token = strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
	}
	if token == "" {
		httputil.WriteError(w, r, h.log, errors.Unauthorized("access token is required"))
		return
	}
	p, err := h.tokens.ParseAccess(token)
	if err != nil {
		h.log.LogSecurityEvent(r.Context(), "websocket_rejected", map[string]interface{}{"reason": err.Error()})
		httputil.WriteError(w, r, h.log, errors.InvalidToken(err))
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error.
		h.log.WithContext(r.Context()).WithError(err).Debug("websocket upgrade failed")
		return
	}
	c := &client{userID: p.UserID, conn: conn, send: make(chan []byte, sendBuffer)}
	if !h.register(c) {
		conn.Close()
		return
	}
	h.log.WithFields(map[string]interface{}{"user_id": p.UserID}).Debug("websocket session opened")

	go h.writePump(c)
	go h.readPump(c)
}

func (h *Hub) register(c *client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	set, ok := h.clients[c.userID]
	if !ok {
		set = make(map[*client]struct{})
		h.clients[c.userID] = set
	}
	set[c] = struct{}{}
	metrics.SessionOpened()
	return true
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.clients[c.userID]
	if !ok {
		return
	}
	if _, ok := set[c]; !ok {
		return
	}
	delete(set, c)
	if len(set) == 0 {
		delete(h.clients, c.userID)
	}
	c.close()
	metrics.SessionClosed()
}

func (h *Hub) readPump(c *client) {
	defer func() {
		h.unregister(c)
		c.conn.Close()
	}()
	c.conn.SetReadLimit(MaxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(PongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(PongWait))
	})
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.log.WithError(err).WithField("user_id", c.userID).Debug("websocket read failed")
			}
			return
		}
		_ = c.conn.SetReadDeadline(time.Now().Add(PongWait))
		var in struct {
			Type string `json:"type"`
		}
		if json.Unmarshal(data, &in) == nil && in.Type == "ping" {
			h.enqueue(c, mustFrame(Frame{Type: "pong"}))
		}
	}
}

func (h *Hub) writePump(c *client) {
	ticker := time.NewTicker(PingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(WriteWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(WriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// enqueue drops the frame for a client whose buffer is full rather than
// blocking delivery to everyone else.
func (h *Hub) enqueue(c *client, msg []byte) (ok bool) {
	defer func() {
		if recover() != nil {
			ok = false
		}
	}()
	select {
	case c.send <- msg:
		return true
	default:
		return false
	}
}

// Deliver sends payload to every session of userID on this instance and
// returns the number of sessions reached.
func (h *Hub) Deliver(userID int64, payload []byte) int {
	msg := mustFrame(Frame{Type: "notification", Destination: Destination(userID), Payload: payload})
	h.mu.RLock()
	targets := make([]*client, 0, len(h.clients[userID]))
	for c := range h.clients[userID] {
		targets = append(targets, c)
	}
	h.mu.RUnlock()

	n := 0
	for _, c := range targets {
		if h.enqueue(c, msg) {
			n++
		}
	}
	return n
}

// Sessions returns the number of open sessions of userID.
func (h *Hub) Sessions(userID int64) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userID])
}

// Close disconnects every session.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for uid, set := range h.clients {
		for c := range set {
			c.close()
			metrics.SessionClosed()
		}
		delete(h.clients, uid)
	}
}

func mustFrame(f Frame) []byte {
	b, err := json.Marshal(f)
	if err != nil {
		panic(err)
	}
	return b
}

// Name implements system.Service.
func (h *Hub) Name() string { return "realtime-hub" }

// Start implements system.Service.
func (h *Hub) Start(context.Context) error { return nil }

// Stop implements system.Service.
func (h *Hub) Stop(context.Context) error {
	h.Close()
	return nil
}
