package collab

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/inamate/schematic/internal/document"
	"github.com/inamate/schematic/internal/viewport"
)

const saveTimeout = 10 * time.Second

var ErrHubStopped = errors.New("hub stopped")

// DocumentLoader returns the latest stored document of a drawing.
type DocumentLoader func(ctx context.Context, drawingID string) (*document.Document, error)

// DocumentSaver persists a document of a drawing.
type DocumentSaver func(ctx context.Context, drawingID string, doc *document.Document) error

type Options struct {
	// MarginPx is the culling margin used when a client does not send one.
	MarginPx float64
	Index    IndexOptions
	// SaveInterval is how often dirty documents are saved. Zero disables
	// periodic saves; documents are still saved when a room empties and
	// on Stop.
	SaveInterval time.Duration
}

type Room struct {
	drawingID string
	clients   map[string]*Client // clientID -> client
	presence  *PresenceManager
	state     *DocumentState

	pending int        // registrations on their way to the hub loop
	saveMu  sync.Mutex // serializes saves of this room
}

func NewRoom(drawingID string, state *DocumentState) *Room {
	return &Room{
		drawingID: drawingID,
		clients:   make(map[string]*Client),
		presence:  NewPresenceManager(),
		state:     state,
	}
}

type Hub struct {
	mu         sync.RWMutex
	rooms      map[string]*Room // drawingID -> room
	register   chan *Client
	unregister chan *Client

	load DocumentLoader
	save DocumentSaver
	opts Options

	stop     chan struct{}
	stopOnce sync.Once
	done     chan struct{}
	saves    sync.WaitGroup
}

func NewHub(load DocumentLoader, save DocumentSaver, opts Options) *Hub {
	if !(opts.MarginPx >= 0) {
		opts.MarginPx = viewport.DefaultMarginPx
	}
	return &Hub{
		rooms:      make(map[string]*Room),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		load:       load,
		save:       save,
		opts:       opts,
		stop:       make(chan struct{}),
		done:       make(chan struct{}),
	}
}

func (h *Hub) Run() {
	var tick <-chan time.Time
	if h.opts.SaveInterval > 0 {
		ticker := time.NewTicker(h.opts.SaveInterval)
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
			for _, room := range h.allRooms() {
				h.saves.Add(1)
				go func() {
					defer h.saves.Done()
					h.saveRoom(room)
				}()
			}
		case <-h.stop:
			for _, room := range h.allRooms() {
				h.saveRoom(room)
			}
			h.saves.Wait()
			close(h.done)
			return
		}
	}
}

// Stop saves every dirty document and ends Run. It blocks until Run has
// returned.
func (h *Hub) Stop() {
	h.stopOnce.Do(func() { close(h.stop) })
	<-h.done
}

// Register loads the client's drawing if no room holds it yet and joins the
// client to the room.
func (h *Hub) Register(ctx context.Context, client *Client) error {
	room, err := h.reserveRoom(ctx, client.DrawingID)
	if err != nil {
		return err
	}

	select {
	case h.register <- client:
		return nil
	case <-h.stop:
		err = ErrHubStopped
	case <-ctx.Done():
		err = ctx.Err()
	}

	h.mu.Lock()
	room.pending--
	h.dropIfEmptyLocked(room)
	h.mu.Unlock()
	return err
}

// Unregister removes the client from its room.
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// reserveRoom returns the room of a drawing, creating it from the loader if
// needed, and counts a pending registration against it so it is not dropped
// before the client arrives.
func (h *Hub) reserveRoom(ctx context.Context, drawingID string) (*Room, error) {
	h.mu.Lock()
	room, ok := h.rooms[drawingID]
	if ok {
		room.pending++
		h.mu.Unlock()
		return room, nil
	}
	h.mu.Unlock()

	doc, err := h.load(ctx, drawingID)
	if err != nil {
		return nil, fmt.Errorf("load drawing %s: %w", drawingID, err)
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	room, ok = h.rooms[drawingID]
	if !ok {
		room = NewRoom(drawingID, NewDocumentState(doc, h.opts.Index))
		h.rooms[drawingID] = room
	}
	room.pending++
	return room, nil
}

func (h *Hub) addClient(client *Client) {
	h.mu.Lock()
	room, ok := h.rooms[client.DrawingID]
	if !ok {
		h.mu.Unlock()
		client.close()
		return
	}
	room.pending--
	room.clients[client.ClientID] = client
	h.mu.Unlock()

	doc, seq := room.state.Document()
	client.Send(newMessage(TypeWelcome, WelcomePayload{
		ClientID:  client.ClientID,
		UserID:    client.UserID,
		ServerSeq: seq,
	}))
	client.Send(newMessage(TypeDocSync, DocSyncPayload{Document: doc, ServerSeq: seq}))

	// Send current presence state to new client
	stateMsg := room.presence.StateMessage()
	if stateMsg != nil {
		client.Send(stateMsg)
	}

	// Broadcast join to other clients
	joinMsg := newMessage(TypePresenceJoin, PresenceJoinPayload{
		UserID:      client.UserID,
		DisplayName: client.DisplayName,
	})
	joinMsg.UserID = client.UserID
	h.broadcastToRoom(client.DrawingID, joinMsg, client.ClientID)

	slog.Info("client joined", "user", client.UserID, "drawing", client.DrawingID)
}

func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	room, ok := h.rooms[client.DrawingID]
	if !ok || room.clients[client.ClientID] != client {
		h.mu.Unlock()
		return
	}

	delete(room.clients, client.ClientID)
	client.close()
	room.presence.Remove(client.UserID)
	h.dropIfEmptyLocked(room)
	h.mu.Unlock()

	// Broadcast leave to remaining clients
	leaveMsg := newMessage(TypePresenceLeave, PresenceLeavePayload{UserID: client.UserID})
	leaveMsg.UserID = client.UserID
	h.broadcastToRoom(client.DrawingID, leaveMsg, "")

	slog.Info("client left", "user", client.UserID, "drawing", client.DrawingID)
}

// dropIfEmptyLocked removes a room nobody uses and saves its document in the
// background. The caller must hold h.mu.
func (h *Hub) dropIfEmptyLocked(room *Room) {
	if len(room.clients) > 0 || room.pending > 0 || h.rooms[room.drawingID] != room {
		return
	}
	delete(h.rooms, room.drawingID)
	h.saves.Add(1)
	go func() {
		defer h.saves.Done()
		h.saveRoom(room)
	}()
}

func (h *Hub) saveRoom(room *Room) {
	room.saveMu.Lock()
	defer room.saveMu.Unlock()

	doc, seq, dirty := room.state.Dirty()
	if !dirty || h.save == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
	defer cancel()
	if err := h.save(ctx, room.drawingID, doc); err != nil {
		slog.Error("save drawing", "error", err, "drawing", room.drawingID)
		return
	}
	room.state.MarkSaved(seq)
	slog.Info("drawing saved", "drawing", room.drawingID, "seq", seq)
}

func (h *Hub) handleMessage(sender *Client, msg *Message) {
	switch msg.Type {
	case TypePresenceUpdate:
		h.handlePresenceUpdate(sender, msg)
	case TypeViewUpdate:
		h.handleViewUpdate(sender, msg)
	case TypeOpSubmit:
		h.handleOpSubmit(sender, msg)
	case TypeDocSync:
		if room := h.roomOf(sender.DrawingID); room != nil {
			doc, seq := room.state.Document()
			sender.Send(newMessage(TypeDocSync, DocSyncPayload{Document: doc, ServerSeq: seq}))
		}
	default:
		slog.Warn("unknown message type", "type", msg.Type, "user", sender.UserID)
		sendError(sender, "unknown message type "+msg.Type)
	}
}

func (h *Hub) handlePresenceUpdate(sender *Client, msg *Message) {
	var presence PresencePayload
	if err := json.Unmarshal(msg.Payload, &presence); err != nil {
		slog.Warn("invalid presence payload", "error", err)
		return
	}

	presence.DisplayName = sender.DisplayName

	room := h.roomOf(sender.DrawingID)
	if room == nil {
		return
	}

	room.presence.Update(sender.UserID, &presence)

	// Broadcast to other clients in room
	outMsg := newMessage(TypePresenceUpdate, presence)
	outMsg.UserID = sender.UserID
	h.broadcastToRoom(sender.DrawingID, outMsg, sender.ClientID)
}

func (h *Hub) handleViewUpdate(sender *Client, msg *Message) {
	var p ViewUpdatePayload
	if err := json.Unmarshal(msg.Payload, &p); err != nil {
		sendError(sender, "invalid view payload")
		return
	}
	margin := h.opts.MarginPx
	if p.Margin != nil {
		margin = *p.Margin
	}
	if !(p.Zoom > 0) || p.ScreenWidth < 0 || p.ScreenHeight < 0 || !(margin >= 0) {
		sendError(sender, "view needs a positive zoom and non-negative sizes")
		return
	}

	sender.setView(clientView{
		view: viewport.ViewState{
			Zoom:   p.Zoom,
			Pan:    p.Pan.Vec(),
			PageID: p.PageID,
		},
		screenW: p.ScreenWidth,
		screenH: p.ScreenHeight,
		margin:  margin,
	})

	if room := h.roomOf(sender.DrawingID); room != nil {
		h.sendSnapshot(room, sender)
	}
}

func (h *Hub) handleOpSubmit(sender *Client, msg *Message) {
	var p OperationSubmitPayload
	if err := json.Unmarshal(msg.Payload, &p); err != nil {
		sendError(sender, "invalid operation payload")
		return
	}

	room := h.roomOf(sender.DrawingID)
	if room == nil {
		return
	}

	op := p.Operation
	seq, err := room.state.ApplyOperation(&op)
	if err != nil {
		slog.Debug("operation rejected", "error", err, "op", op.Type, "user", sender.UserID)
		sender.Send(newMessage(TypeOpNack, OperationNackPayload{
			OperationID: op.ID,
			Reason:      err.Error(),
		}))
		return
	}

	ack := newMessage(TypeOpAck, OperationAckPayload{
		OperationID:     op.ID,
		ServerSeq:       seq,
		ServerTimestamp: GetServerTimestamp(),
	})
	ack.Seq = seq
	sender.Send(ack)

	broadcast := newMessage(TypeOpBroadcast, OperationBroadcastPayload{
		Operation: op,
		UserID:    sender.UserID,
		ServerSeq: seq,
	})
	broadcast.UserID = sender.UserID
	broadcast.Seq = seq
	h.broadcastToRoom(sender.DrawingID, broadcast, sender.ClientID)

	// Every view may have gained or lost elements.
	for _, c := range h.clientsOf(sender.DrawingID, "") {
		h.sendSnapshot(room, c)
	}
}

// sendSnapshot sends c the part of the room's document its view shows.
func (h *Hub) sendSnapshot(room *Room, c *Client) {
	cv, ok := c.currentView()
	if !ok {
		return
	}
	doc, vp, st, seq := room.state.Cull(cv.view, cv.screenW, cv.screenH, cv.margin)
	msg := newMessage(TypeViewSnapshot, ViewSnapshotPayload{
		ServerSeq: seq,
		Viewport:  Viewport{MinX: vp.LLx, MinY: vp.LLy, MaxX: vp.URx, MaxY: vp.URy},
		Document:  doc,
		Stats:     st,
	})
	msg.Seq = seq
	c.Send(msg)

	slog.Debug("view snapshot",
		"drawing", room.drawingID,
		"client", c.ClientID,
		"kept", st.Kept(),
		"total", st.Total(),
	)
}

func (h *Hub) roomOf(drawingID string) *Room {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.rooms[drawingID]
}

func (h *Hub) allRooms() []*Room {
	h.mu.RLock()
	defer h.mu.RUnlock()
	rooms := make([]*Room, 0, len(h.rooms))
	for _, r := range h.rooms {
		rooms = append(rooms, r)
	}
	return rooms
}

func (h *Hub) clientsOf(drawingID, excludeClientID string) []*Client {
	h.mu.RLock()
	defer h.mu.RUnlock()
	room, ok := h.rooms[drawingID]
	if !ok {
		return nil
	}
	clients := make([]*Client, 0, len(room.clients))
	for _, c := range room.clients {
		if c.ClientID != excludeClientID {
			clients = append(clients, c)
		}
	}
	return clients
}

func (h *Hub) broadcastToRoom(drawingID string, msg *Message, excludeClientID string) {
	for _, c := range h.clientsOf(drawingID, excludeClientID) {
		c.Send(msg)
	}
}

func newMessage(typ string, payload any) *Message {
	data, err := json.Marshal(payload)
	if err != nil {
		slog.Error("marshal payload", "error", err, "type", typ)
	}
	return &Message{Type: typ, Payload: data}
}

func sendError(c *Client, text string) {
	c.Send(newMessage(TypeError, ErrorPayload{Message: text}))
}
