package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"fishball-groupbuy/internal/config"
	"fishball-groupbuy/internal/groupbuy"
	"fishball-groupbuy/internal/store"
	"fishball-groupbuy/pkg/debounce"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Server streams a group's three subtrees to connected clients. Each
// connection holds live store subscriptions; every store change is pushed as a
// fresh snapshot of the affected subtree, the same shape a one-shot read would
// return.
type Server struct {
	Store   store.Store
	Service *groupbuy.Service
	Logger  *zap.Logger
	Config  config.Config
}

func New(st store.Store, svc *groupbuy.Service, logger *zap.Logger, cfg config.Config) *Server {
	return &Server{Store: st, Service: svc, Logger: logger, Config: cfg}
}

type outboundMessage struct {
	Type    string `json:"type"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
	Message string `json:"message,omitempty"`
}

// inboundMessage carries live note edits typed by a leader or vendor. These
// are debounced per field before hitting the store so each keystroke does not
// become a write.
type inboundMessage struct {
	Action string `json:"action"`
	Notes  string `json:"notes"`
}

type wsClient struct {
	conn    *websocket.Conn
	writeMu sync.Mutex
}

func (c *wsClient) writeJSON(value any) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
	return c.conn.WriteJSON(value)
}

func (c *wsClient) ping() error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
	return c.conn.WriteMessage(websocket.PingMessage, nil)
}

func (s *Server) GroupWS(w http.ResponseWriter, r *http.Request) {
	groupID := chi.URLParam(r, "groupId")
	if groupID == "" {
		http.Error(w, "groupId is required", http.StatusBadRequest)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		if s.Logger != nil {
			s.Logger.Warn("ws upgrade failed", zap.Error(err))
		}
		return
	}
	client := &wsClient{conn: conn}

	done := make(chan struct{})
	var closeOnce sync.Once
	closeConn := func() {
		closeOnce.Do(func() {
			close(done)
			_ = conn.Close()
		})
	}
	defer closeConn()

	notes := debounce.New(s.Config.NotesDebounceDelay)
	defer notes.Flush()

	unsubscribes := []func(){
		s.subscribeSubtree(client, closeConn, groupbuy.InfoPath(groupID), "info", true),
		s.subscribeSubtree(client, closeConn, groupbuy.OrdersPath(groupID), "orders", false),
		s.subscribeSubtree(client, closeConn, groupbuy.VendorNotesPath(groupID), "vendorNotes", false),
	}
	defer func() {
		for _, unsubscribe := range unsubscribes {
			unsubscribe()
		}
	}()

	go s.heartbeat(client, done, closeConn)

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var msg inboundMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			continue
		}
		s.handleInbound(client, notes, groupID, msg)
	}
}

// subscribeSubtree forwards every snapshot of one subtree to the client. A nil
// info snapshot means the group does not exist; that is surfaced once as an
// error message, not treated as a fault.
func (s *Server) subscribeSubtree(client *wsClient, closeConn func(), path, label string, notFoundFatal bool) func() {
	return s.Store.Subscribe(path,
		func(value any) {
			if value == nil && notFoundFatal {
				_ = client.writeJSON(outboundMessage{
					Type:    "error",
					Error:   string(groupbuy.ErrGroupNotFound),
					Message: "團購不存在",
				})
				return
			}
			if label == "info" {
				value = redactInfo(value)
			}
			if err := client.writeJSON(outboundMessage{Type: label, Data: value}); err != nil {
				closeConn()
			}
		},
		func(err error) {
			if s.Logger != nil {
				s.Logger.Warn("ws subscription error", zap.String("path", path), zap.Error(err))
			}
			_ = client.writeJSON(outboundMessage{
				Type:    "error",
				Error:   string(groupbuy.ErrReadFailed),
				Message: err.Error(),
			})
		},
	)
}

// handleInbound routes a note edit through the connection's debouncer. The
// flush may run after the HTTP request context is gone, so the eventual write
// carries a background context.
func (s *Server) handleInbound(client *wsClient, notes *debounce.Debouncer, groupID string, msg inboundMessage) {
	switch msg.Action {
	case "leaderNotes":
		text := msg.Notes
		notes.Trigger("leaderNotes", func() {
			if err := s.Service.UpdateLeaderNotes(context.Background(), groupID, text); err != nil {
				_ = client.writeJSON(outboundMessage{Type: "error", Error: string(err.Code), Message: err.Message})
			}
		})
	case "vendorNotes":
		text := msg.Notes
		notes.Trigger("vendorNotes", func() {
			if err := s.Service.UpdateVendorNotes(context.Background(), groupID, text); err != nil {
				_ = client.writeJSON(outboundMessage{Type: "error", Error: string(err.Code), Message: err.Message})
			}
		})
	default:
		_ = client.writeJSON(outboundMessage{Type: "error", Error: "UNKNOWN_ACTION", Message: msg.Action})
	}
}

func (s *Server) heartbeat(client *wsClient, done <-chan struct{}, closeConn func()) {
	interval := s.Config.WSHeartbeatInterval
	if interval <= 0 {
		interval = 30 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			if err := client.ping(); err != nil {
				closeConn()
				return
			}
		}
	}
}

// redactInfo drops the leader token before anything reaches a socket.
func redactInfo(value any) any {
	info, ok := value.(map[string]any)
	if !ok {
		return value
	}
	out := make(map[string]any, len(info))
	for key, v := range info {
		if key == "leaderToken" {
			continue
		}
		out[key] = v
	}
	return out
}
