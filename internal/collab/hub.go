// Package collab shares a design between editors over websockets. Each
// design gets a room holding the authoritative document; clients submit
// scene actions and receive everyone else's as broadcasts.
package collab

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/sysdraw/sysdraw/backend-go/internal/document"
)

// Loader fetches the stored document for a design.
type Loader func(ctx context.Context, designID string) (*document.Document, error)

// Saver persists a room's document.
type Saver func(ctx context.Context, designID string, doc *document.Document) error

const (
	DefaultSaveInterval = 30 * time.Second
	saveTimeout         = 15 * time.Second
)

type Room struct {
	designID string
	clients  map[string]*Client // clientID -> client
	presence *PresenceManager
	state    *DocumentState
}

func NewRoom(designID string, doc *document.Document) *Room {
	return &Room{
		designID: designID,
		clients:  make(map[string]*Client),
		presence: NewPresenceManager(),
		state:    NewDocumentState(doc),
	}
}

type Hub struct {
	mu         sync.RWMutex
	rooms      map[string]*Room // designID -> room
	register   chan *Client
	unregister chan *Client

	load         Loader
	save         Saver
	saveInterval time.Duration

	done     chan struct{}
	stopped  chan struct{}
	stopOnce sync.Once
}

type HubOption func(*Hub)

// WithSaveInterval sets how often dirty rooms are saved. Zero disables
// periodic saves; rooms are still saved when emptied and on Stop.
func WithSaveInterval(d time.Duration) HubOption {
	return func(h *Hub) { h.saveInterval = d }
}

func NewHub(load Loader, save Saver, opts ...HubOption) *Hub {
	h := &Hub{
		rooms:        make(map[string]*Room),
		register:     make(chan *Client),
		unregister:   make(chan *Client),
		load:         load,
		save:         save,
		saveInterval: DefaultSaveInterval,
		done:         make(chan struct{}),
		stopped:      make(chan struct{}),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Run processes joins, leaves and periodic saves until Stop is called.
func (h *Hub) Run() {
	defer close(h.stopped)

	var tick <-chan time.Time
	if h.saveInterval > 0 {
		ticker := time.NewTicker(h.saveInterval)
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		select {
		case client := <-h.register:
			h.addClient(client)
		case client := <-h.unregister:
			h.removeClient(client)
		case <-tick:
			h.saveDirty()
		case <-h.done:
			return
		}
	}
}

// Stop ends Run, saves every dirty room and disconnects all clients.
func (h *Hub) Stop() {
	h.stopOnce.Do(func() {
		close(h.done)
		<-h.stopped

		h.saveDirty()

		h.mu.Lock()
		for id, room := range h.rooms {
			for _, c := range room.clients {
				c.close()
			}
			delete(h.rooms, id)
		}
		h.mu.Unlock()
	})
}

func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.done:
		client.close()
	}
}

func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// Room returns the live room for a design, if any.
func (h *Hub) Room(designID string) (*Room, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	room, ok := h.rooms[designID]
	return room, ok
}

// Document returns the live document of a design's room.
func (h *Hub) Document(designID string) (*document.Document, bool) {
	room, ok := h.Room(designID)
	if !ok {
		return nil, false
	}
	return room.state.Document(), true
}

func marshalPayload(v any) json.RawMessage {
	data, err := json.Marshal(v)
	if err != nil {
		slog.Error("marshal payload", "error", err)
		return json.RawMessage("null")
	}
	return data
}

func sendError(c *Client, message string) {
	c.Send(&Message{Type: TypeError, Payload: marshalPayload(ErrorPayload{Message: message})})
}

func (h *Hub) addClient(client *Client) {
	h.mu.RLock()
	room, ok := h.rooms[client.DesignID]
	h.mu.RUnlock()

	if !ok {
		// Runs on the hub goroutine, so the request context is gone.
		ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
		doc, err := h.load(ctx, client.DesignID)
		cancel()
		if err != nil {
			slog.Error("load design", "error", err, "design", client.DesignID)
			sendError(client, "failed to load design")
			client.close()
			return
		}
		room = NewRoom(client.DesignID, doc)
	}

	h.mu.Lock()
	h.rooms[client.DesignID] = room
	room.clients[client.ClientID] = client
	h.mu.Unlock()

	client.Send(&Message{
		Type: TypeWelcome,
		Payload: marshalPayload(WelcomePayload{
			ClientID:    client.ClientID,
			UserID:      client.UserID,
			DisplayName: client.DisplayName,
		}),
	})
	h.sendSync(room, client)
	if stateMsg := room.presence.StateMessage(); stateMsg != nil {
		client.Send(stateMsg)
	}

	joinMsg := &Message{
		Type:     TypePresenceJoin,
		UserID:   client.UserID,
		ClientID: client.ClientID,
		Payload: marshalPayload(PresenceJoinPayload{
			ClientID:    client.ClientID,
			UserID:      client.UserID,
			DisplayName: client.DisplayName,
		}),
	}
	h.broadcastToRoom(client.DesignID, joinMsg, client.ClientID)

	slog.Info("client joined", "user", client.UserID, "design", client.DesignID)
}

func (h *Hub) sendSync(room *Room, client *Client) {
	payload, err := room.state.SyncPayload()
	if err != nil {
		slog.Error("encode document sync", "error", err, "design", room.designID)
		sendError(client, "failed to encode design")
		return
	}
	client.Send(&Message{Type: TypeDocSync, Payload: payload})
}

func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	room, ok := h.rooms[client.DesignID]
	if !ok || room.clients[client.ClientID] != client {
		h.mu.Unlock()
		return
	}

	delete(room.clients, client.ClientID)
	client.close()
	room.presence.Remove(client.ClientID)

	empty := len(room.clients) == 0
	if empty {
		delete(h.rooms, client.DesignID)
	}
	h.mu.Unlock()

	if empty {
		h.saveRoom(room)
	}

	leaveMsg := &Message{
		Type:     TypePresenceLeave,
		UserID:   client.UserID,
		ClientID: client.ClientID,
		Payload: marshalPayload(PresenceLeavePayload{
			ClientID: client.ClientID,
			UserID:   client.UserID,
		}),
	}
	h.broadcastToRoom(client.DesignID, leaveMsg, "")

	slog.Info("client left", "user", client.UserID, "design", client.DesignID)
}

func (h *Hub) saveDirty() {
	h.mu.RLock()
	rooms := make([]*Room, 0, len(h.rooms))
	for _, r := range h.rooms {
		rooms = append(rooms, r)
	}
	h.mu.RUnlock()

	for _, r := range rooms {
		h.saveRoom(r)
	}
}

func (h *Hub) saveRoom(room *Room) {
	if h.save == nil || !room.state.Dirty() {
		return
	}
	doc, seq := room.state.Snapshot()

	ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
	defer cancel()
	if err := h.save(ctx, room.designID, doc); err != nil {
		slog.Error("save design", "error", err, "design", room.designID)
		return
	}
	room.state.MarkSaved(seq)
	slog.Debug("design saved", "design", room.designID, "seq", seq)
}

func (h *Hub) handleMessage(sender *Client, msg *Message) {
	switch msg.Type {
	case TypePresenceUpdate:
		h.handlePresenceUpdate(sender, msg)
	case TypeOpSubmit:
		h.handleOperation(sender, msg)
	case TypeDocRequest:
		if room, ok := h.Room(sender.DesignID); ok {
			h.sendSync(room, sender)
		}
	default:
		slog.Warn("unknown message type", "type", msg.Type, "user", sender.UserID)
	}
}

func (h *Hub) handlePresenceUpdate(sender *Client, msg *Message) {
	var presence PresencePayload
	if err := json.Unmarshal(msg.Payload, &presence); err != nil {
		slog.Warn("invalid presence payload", "error", err)
		return
	}

	presence.UserID = sender.UserID
	presence.DisplayName = sender.DisplayName

	room, ok := h.Room(sender.DesignID)
	if !ok {
		return
	}

	room.presence.Update(sender.ClientID, &presence)

	outMsg := &Message{
		Type:     TypePresenceUpdate,
		UserID:   sender.UserID,
		ClientID: sender.ClientID,
		Payload:  marshalPayload(presence),
	}
	h.broadcastToRoom(sender.DesignID, outMsg, sender.ClientID)
}

func (h *Hub) handleOperation(sender *Client, msg *Message) {
	var submit OperationSubmitPayload
	if err := json.Unmarshal(msg.Payload, &submit); err != nil {
		sendError(sender, "invalid operation payload")
		return
	}
	op := submit.Operation

	room, ok := h.Room(sender.DesignID)
	if !ok {
		return
	}

	applied, seq, changed, err := room.state.Apply(op)
	if err != nil {
		slog.Debug("operation rejected", "error", err, "type", op.Type, "user", sender.UserID)
		sender.Send(&Message{
			Type: TypeOpNack,
			Payload: marshalPayload(OperationNackPayload{
				OperationID: op.ID,
				Reason:      err.Error(),
			}),
		})
		return
	}

	sender.Send(&Message{
		Type: TypeOpAck,
		Seq:  seq,
		Payload: marshalPayload(OperationAckPayload{
			OperationID:     op.ID,
			ServerSeq:       seq,
			ServerTimestamp: time.Now().UnixMilli(),
			Applied:         changed,
		}),
	})
	if !changed {
		return
	}

	doc := room.state.Document()
	room.presence.Prune(func(id string) bool {
		return doc.HasShape(id) || doc.ConnectionIndex(id) >= 0 || doc.GroupIndex(id) >= 0
	})

	h.broadcastToRoom(sender.DesignID, &Message{
		Type:     TypeOpBroadcast,
		UserID:   sender.UserID,
		ClientID: sender.ClientID,
		Seq:      seq,
		Payload: marshalPayload(OperationBroadcastPayload{
			Operation: applied,
			UserID:    sender.UserID,
			ServerSeq: seq,
		}),
	}, sender.ClientID)
}

func (h *Hub) broadcastToRoom(designID string, msg *Message, excludeClientID string) {
	h.mu.RLock()
	room, ok := h.rooms[designID]
	if !ok {
		h.mu.RUnlock()
		return
	}

	clients := make([]*Client, 0, len(room.clients))
	for _, c := range room.clients {
		if c.ClientID != excludeClientID {
			clients = append(clients, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range clients {
		c.Send(msg)
	}
}
