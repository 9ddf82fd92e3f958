package websocket

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/rocketscienceinc/tictactoe-wager/internal/entity"
	"github.com/rocketscienceinc/tictactoe-wager/internal/events"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
	sendBuffer     = 64
)

type gameReader interface {
	GetGame(ctx context.Context, id uint64) (entity.GameView, bool, error)
}

// Hub - live feed of game events. Each connection follows one game.
type Hub struct {
	logger   *slog.Logger
	games    gameReader
	upgrader websocket.Upgrader

	mu      sync.RWMutex
	clients map[uint64]map[*client]struct{}
	closed  bool
}

type client struct {
	hub    *Hub
	conn   *websocket.Conn
	send   chan []byte
	gameID uint64
}

// NewHub - games may be nil, then no snapshot is sent on connect.
// An empty allowedOrigins accepts any origin.
func NewHub(logger *slog.Logger, games gameReader, allowedOrigins []string) *Hub {
	hub := &Hub{
		logger:  logger.With("component", "websocket"),
		games:   games,
		clients: make(map[uint64]map[*client]struct{}),
	}

	hub.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     originChecker(allowedOrigins),
	}

	return hub
}

func originChecker(allowed []string) func(r *http.Request) bool {
	if len(allowed) == 0 {
		return func(*http.Request) bool { return true }
	}

	set := make(map[string]struct{}, len(allowed))
	for _, origin := range allowed {
		set[origin] = struct{}{}
	}

	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}

		_, ok := set["*"]
		if !ok {
			_, ok = set[origin]
		}

		return ok
	}
}

// ServeHTTP - upgrades GET /ws?game=<id> and subscribes the connection to that game.
func (that *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	log := that.logger.With("method", "ServeHTTP")

	gameID, err := strconv.ParseUint(r.URL.Query().Get("game"), 10, 64)
	if err != nil {
		http.Error(w, "game query parameter is required", http.StatusBadRequest)
		return
	}

	conn, err := that.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn("failed to upgrade connection", "error", err)
		return
	}

	c := &client{
		hub:    that,
		conn:   conn,
		send:   make(chan []byte, sendBuffer),
		gameID: gameID,
	}

	if that.games != nil {
		that.sendSnapshot(r.Context(), c)
	}

	if !that.register(c) {
		_ = conn.Close()
		return
	}

	go c.writePump()
	go c.readPump()
}

func (that *Hub) sendSnapshot(ctx context.Context, c *client) {
	view, ok, err := that.games.GetGame(ctx, c.gameID)
	if err != nil {
		that.logger.Warn("failed to load snapshot", "game_id", c.gameID, "error", err)
		return
	}

	if !ok {
		return
	}

	data, err := snapshotMessage(view)
	if err != nil {
		that.logger.Error("failed to marshal snapshot", "error", err)
		return
	}

	c.send <- data
}

// Publish - forwards the event to every subscriber of its game. Slow subscribers are dropped.
func (that *Hub) Publish(_ context.Context, event events.Event) error {
	data, err := eventMessage(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	that.mu.Lock()
	defer that.mu.Unlock()

	for c := range that.clients[event.GameID] {
		select {
		case c.send <- data:
		default:
			that.logger.Warn("dropping slow subscriber", "game_id", event.GameID)
			that.removeLocked(c)
		}
	}

	return nil
}

// Subscribers - number of connections following gameID.
func (that *Hub) Subscribers(gameID uint64) int {
	that.mu.RLock()
	defer that.mu.RUnlock()

	return len(that.clients[gameID])
}

// Close - disconnects every subscriber. Later connections are refused.
func (that *Hub) Close() {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.closed = true

	for _, clients := range that.clients {
		for c := range clients {
			that.removeLocked(c)
		}
	}
}

func (that *Hub) register(c *client) bool {
	that.mu.Lock()
	defer that.mu.Unlock()

	if that.closed {
		return false
	}

	if that.clients[c.gameID] == nil {
		that.clients[c.gameID] = make(map[*client]struct{})
	}
	that.clients[c.gameID][c] = struct{}{}

	that.logger.Debug("subscriber registered", "game_id", c.gameID, "subscribers", len(that.clients[c.gameID]))

	return true
}

func (that *Hub) unregister(c *client) {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.removeLocked(c)
}

func (that *Hub) removeLocked(c *client) {
	clients, ok := that.clients[c.gameID]
	if !ok {
		return
	}

	if _, ok = clients[c]; !ok {
		return
	}

	delete(clients, c)
	close(c.send)

	if len(clients) == 0 {
		delete(that.clients, c.gameID)
	}
}

// readPump only keeps the connection alive; subscribers never send commands.
func (that *client) readPump() {
	defer func() {
		that.hub.unregister(that)
		_ = that.conn.Close()
	}()

	that.conn.SetReadLimit(maxMessageSize)
	_ = that.conn.SetReadDeadline(time.Now().Add(pongWait))
	that.conn.SetPongHandler(func(string) error {
		return that.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := that.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				that.hub.logger.Warn("websocket closed unexpectedly", "game_id", that.gameID, "error", err)
			}

			return
		}
	}
}

func (that *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = that.conn.Close()
	}()

	for {
		select {
		case message, ok := <-that.send:
			_ = that.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = that.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := that.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			_ = that.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := that.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
