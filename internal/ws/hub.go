package ws

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"

	"gamebot/internal/game"
	"gamebot/internal/logger"
	"gamebot/internal/session"
)

var ErrNotConnected = errors.New("user has no open websocket")

// Events receives decoded client events. *session.Dispatcher satisfies it.
type Events interface {
	SelectGame(ctx context.Context, userID int64, kind game.Kind) error
	HandleText(ctx context.Context, userID int64, text string) error
	HandleClick(ctx context.Context, userID int64, data string) error
	Abort(ctx context.Context, userID int64) (bool, error)
}

// Hub tracks open connections per user and delivers game output to all of
// them. It implements session.Messenger.
type Hub struct {
	mu      sync.RWMutex
	clients map[int64]map[*Client]struct{}
	events  Events
	refSeq  atomic.Int64
	log     *slog.Logger
}

func NewHub() *Hub {
	return &Hub{
		clients: make(map[int64]map[*Client]struct{}),
		log:     logger.With("component", "ws_hub"),
	}
}

// SetEvents attaches the event sink. It must be called before serving clients.
func (h *Hub) SetEvents(e Events) {
	h.mu.Lock()
	h.events = e
	h.mu.Unlock()
}

func (h *Hub) register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.clients[c.UserID]
	if !ok {
		set = make(map[*Client]struct{})
		h.clients[c.UserID] = set
	}
	set[c] = struct{}{}
	h.log.Info("client connected", "user_id", c.UserID, "connections", len(set))
}

func (h *Hub) unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set := h.clients[c.UserID]
	delete(set, c)
	if len(set) == 0 {
		delete(h.clients, c.UserID)
	}
	h.log.Info("client disconnected", "user_id", c.UserID)
}

// Connected returns the number of open connections for userID.
func (h *Hub) Connected(userID int64) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userID])
}

// CloseAll drops every connection.
func (h *Hub) CloseAll() {
	h.mu.RLock()
	var all []*Client
	for _, set := range h.clients {
		for c := range set {
			all = append(all, c)
		}
	}
	h.mu.RUnlock()
	for _, c := range all {
		c.Conn.Close()
	}
}

func (h *Hub) SendText(ctx context.Context, userID int64, text string, format game.Format) error {
	return h.push(ctx, userID, Outbound{Type: MsgText, Text: text, Format: formatName(format)})
}

func (h *Hub) SendGrid(ctx context.Context, userID int64, text string, format game.Format, grid [][]game.Button) (session.MessageRef, error) {
	ref := h.refSeq.Add(1)
	err := h.push(ctx, userID, Outbound{Type: MsgGrid, Ref: ref, Text: text, Format: formatName(format), Grid: buttons(grid)})
	if err != nil {
		return 0, err
	}
	return session.MessageRef(ref), nil
}

func (h *Hub) EditGrid(ctx context.Context, userID int64, ref session.MessageRef, text string, format game.Format, grid [][]game.Button) error {
	return h.push(ctx, userID, Outbound{Type: MsgEdit, Ref: int64(ref), Text: text, Format: formatName(format), Grid: buttons(grid)})
}

func (h *Hub) push(ctx context.Context, userID int64, out Outbound) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	b, err := json.Marshal(out)
	if err != nil {
		return err
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	set := h.clients[userID]
	if len(set) == 0 {
		return ErrNotConnected
	}
	for c := range set {
		if !c.enqueue(b) {
			h.log.Warn("client send buffer full, dropping message", "user_id", userID)
		}
	}
	return nil
}

// handle decodes one client frame and routes it.
func (h *Hub) handle(ctx context.Context, c *Client, raw []byte) {
	var in Inbound
	if err := json.Unmarshal(raw, &in); err != nil {
		c.sendError("malformed message")
		return
	}

	h.mu.RLock()
	events := h.events
	h.mu.RUnlock()
	if events == nil {
		c.sendError("server not ready")
		return
	}

	var err error
	switch in.Type {
	case MsgPlay:
		kind, perr := game.ParseKind(in.Game)
		if perr != nil {
			c.sendError("unknown game")
			return
		}
		err = events.SelectGame(ctx, c.UserID, kind)
	case MsgText:
		err = events.HandleText(ctx, c.UserID, in.Text)
	case MsgClick:
		err = events.HandleClick(ctx, c.UserID, in.Data)
	case MsgStop:
		_, err = events.Abort(ctx, c.UserID)
	case MsgPing:
		c.send(Outbound{Type: MsgPong})
	default:
		c.sendError("unknown message type")
	}
	if err != nil {
		h.log.Error("event handling failed", "user_id", c.UserID, "type", in.Type, "error", err)
	}
}

func formatName(f game.Format) string {
	if f == game.FormatMarkdown {
		return FormatMarkdown
	}
	return FormatPlain
}

func buttons(grid [][]game.Button) [][]Button {
	if len(grid) == 0 {
		return nil
	}
	out := make([][]Button, len(grid))
	for i, row := range grid {
		out[i] = make([]Button, len(row))
		for j, b := range row {
			out[i][j] = Button{Label: b.Label, Data: b.Data}
		}
	}
	return out
}

// GameList is the menu sent to every new connection.
func GameList() []GameInfo {
	kinds := game.Kinds()
	out := make([]GameInfo, len(kinds))
	for i, k := range kinds {
		out[i] = GameInfo{ID: string(k), Title: k.Title()}
	}
	return out
}
