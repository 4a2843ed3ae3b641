package server

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/HzRisho/IntelligenceSystems/internal/game"
)

const writeWait = 10 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

type clientMessage struct {
	Type     string `json:"type"`
	Position *int   `json:"position,omitempty"`
}

type serverMessage struct {
	Type    string `json:"type"`
	Message string `json:"message,omitempty"`
	*game.Snapshot
}

func stateMessage(snap game.Snapshot) serverMessage {
	return serverMessage{Type: "state", Snapshot: &snap}
}

func rejectedMessage(snap game.Snapshot) serverMessage {
	return serverMessage{Type: "rejected", Snapshot: &snap}
}

func errorMessage(msg string) serverMessage {
	return serverMessage{Type: "error", Message: msg}
}

type wsClient struct {
	gameID string
	conn   *websocket.Conn
	send   chan []byte
	once   sync.Once
}

// hub fans state out to every socket watching a game.
type hub struct {
	mu    sync.Mutex
	games map[string]map[*wsClient]struct{}
}

func newHub() *hub {
	return &hub{games: make(map[string]map[*wsClient]struct{})}
}

func (h *hub) register(c *wsClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.games[c.gameID]
	if !ok {
		set = make(map[*wsClient]struct{})
		h.games[c.gameID] = set
	}
	set[c] = struct{}{}
}

func (h *hub) unregister(c *wsClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.drop(c)
}

// drop must be called with h.mu held.
func (h *hub) drop(c *wsClient) {
	if set, ok := h.games[c.gameID]; ok {
		delete(set, c)
		if len(set) == 0 {
			delete(h.games, c.gameID)
		}
	}
	c.once.Do(func() { close(c.send) })
}

func (h *hub) broadcast(gameID string, msg serverMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.games[gameID] {
		c.enqueue(data)
	}
}

func (h *hub) sendTo(c *wsClient, msg serverMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.games[c.gameID][c]; ok {
		c.enqueue(data)
	}
}

func (h *hub) closeGame(gameID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.games[gameID] {
		h.drop(c)
	}
}

func (h *hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, set := range h.games {
		for c := range set {
			h.drop(c)
		}
	}
}

func (h *hub) watchers(gameID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.games[gameID])
}

// enqueue drops the message when the client is too slow to keep up.
func (c *wsClient) enqueue(data []byte) {
	select {
	case c.send <- data:
	default:
	}
}

func (s *Server) handleWS(c *gin.Context) {
	gameID := c.Query("gameId")
	session, err := s.manager.Get(gameID)
	if err != nil {
		s.writeError(c, err)
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.log.Warnw("websocket upgrade failed", "error", err)
		return
	}
	client := &wsClient{gameID: gameID, conn: conn, send: make(chan []byte, 16)}
	s.hub.register(client)
	s.hub.sendTo(client, stateMessage(session.Snapshot()))

	go client.writePump()
	go s.readPump(client)
}

func (c *wsClient) writePump() {
	defer c.conn.Close()
	for msg := range c.send {
		_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			return
		}
	}
	_ = c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(writeWait))
}

func (s *Server) readPump(c *wsClient) {
	defer s.hub.unregister(c)
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		var msg clientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			s.hub.sendTo(c, errorMessage("malformed message"))
			continue
		}
		s.dispatch(c, msg)
	}
}

// dispatch handles one client message. A panic is confined to the message
// that caused it, the same way gin.Recovery confines it to one request.
func (s *Server) dispatch(c *wsClient, msg clientMessage) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Errorw("websocket message panicked", "session", c.gameID, "type", msg.Type, "panic", r)
			s.hub.sendTo(c, errorMessage("internal error"))
		}
	}()

	switch msg.Type {
	case "move":
		if msg.Position == nil {
			s.hub.sendTo(c, errorMessage("position required"))
			return
		}
		accepted, snap, err := s.manager.SubmitMove(context.Background(), c.gameID, *msg.Position)
		if err != nil {
			s.hub.sendTo(c, errorMessage(err.Error()))
			return
		}
		if !accepted {
			s.hub.sendTo(c, rejectedMessage(snap))
			return
		}
		s.hub.broadcast(c.gameID, stateMessage(snap))
	case "restart":
		snap, err := s.manager.Restart(c.gameID)
		if err != nil {
			s.hub.sendTo(c, errorMessage(err.Error()))
			return
		}
		s.hub.broadcast(c.gameID, stateMessage(snap))
	default:
		s.hub.sendTo(c, errorMessage("unknown message type"))
	}
}
