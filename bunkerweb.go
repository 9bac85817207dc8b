// Bunkerbox
//
// Players join a room, receive a hidden hand of survivor attribute cards,
// and argue their way into the bunker. Each round the group reveals bunker
// requirement cards, players present one of their own cards, then everyone
// votes; the player with the most votes is eliminated. The game ends when
// the round limit passes or enough survivors remain.
//
// Features:
// - WebSockets per room: /path/:roomid and /path/:roomid/ws
// - Rooms created via POST /path/rooms; the creator becomes host
// - Players identified by cookie (playerID)
// - Duplicate display names rejected per room
// - Engine errors sent only to the offending client
// - Rooms auto-reaped after configurable idle timeout
// - Random 6-char room codes over an uppercase+digits alphabet
// - Host-driven phase flow: bunker-reveal, presentation, voting
// - Votes resolve automatically once every active player has voted
// - In-browser QR button to share the current room, backed by go-qrcode

package main

import (
	_ "embed"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
	"github.com/skip2/go-qrcode"
)

// Messages coming from clients
type ClientMessage struct {
	Type     string `json:"type"`                // "join", "start", "reveal", "advance", "vote"
	Name     string `json:"name,omitempty"`      // join
	Kind     string `json:"kind,omitempty"`      // reveal
	TargetID string `json:"target_id,omitempty"` // vote
}

// Sent to a single client when an action is rejected
type ErrorMessage struct {
	Type    string `json:"type"` // "error"
	Code    string `json:"code"`
	Message string `json:"message"`
}

// SessionInfoMessage is sent immediately on connect so the client
// knows its identity and role in this room.
type SessionInfoMessage struct {
	Type     string `json:"type"` // "session_info"
	RoomID   string `json:"room_id"`
	PlayerID string `json:"player_id"`
	IsHost   bool   `json:"is_host"`
	Joined   bool   `json:"joined"` // true if this cookie already has a seat
}

// StateMessage carries the full room snapshot.
type StateMessage struct {
	Type string       `json:"type"` // "state"
	Game GameSnapshot `json:"game"`
}

// EventMessage is one engine event fanned out to every client.
type EventMessage struct {
	Type       string         `json:"type"`  // "event"
	Event      string         `json:"event"` // EventType wire name
	PlayerID   string         `json:"player_id,omitempty"`
	Card       *CardSnapshot  `json:"card,omitempty"`
	Phase      string         `json:"phase,omitempty"`
	Round      int            `json:"round,omitempty"`
	VoteCounts map[string]int `json:"vote_counts,omitempty"`
}

// VoteAckMessage answers the voting client directly.
type VoteAckMessage struct {
	Type     string `json:"type"` // "vote_ack"
	AllVoted bool   `json:"all_voted"`
}

func eventMessage(e Event) EventMessage {
	msg := EventMessage{
		Type:       "event",
		Event:      e.Type.String(),
		PlayerID:   e.PlayerID,
		Phase:      e.Phase.String(),
		Round:      e.Round,
		VoteCounts: e.VoteCounts,
	}
	if e.Card != nil {
		card := snapshotCard(*e.Card)
		msg.Card = &card
	}
	return msg
}

type Client struct {
	conn     *websocket.Conn
	send     chan any
	playerID string
}

type actionRequest struct {
	client *Client
	msg    ClientMessage
}

// Hub fans room state out to the clients connected to one session.
// The engine itself serializes mutations; the hub only owns delivery.
type Hub struct {
	session *Session

	register chan *Client
	unreg    chan *Client
	actions  chan actionRequest
	done     chan struct{}

	mu      sync.Mutex
	clients map[*Client]bool
}

func newHub(session *Session) *Hub {
	return &Hub{
		session:  session,
		register: make(chan *Client),
		unreg:    make(chan *Client),
		actions:  make(chan actionRequest),
		done:     make(chan struct{}),
		clients:  make(map[*Client]bool),
	}
}

func (h *Hub) run(cfg *Config) {
	for {
		select {
		case <-h.done:
			return

		case c := <-h.register:
			snap := h.session.Snapshot()

			isHost := false
			joined := false
			for _, p := range snap.Players {
				if p.ID == c.playerID {
					joined = true
					break
				}
			}
			if len(snap.Players) > 0 && snap.Players[0].ID == c.playerID {
				isHost = true
			}

			h.mu.Lock()
			h.clients[c] = true
			h.mu.Unlock()

			c.send <- SessionInfoMessage{
				Type:     "session_info",
				RoomID:   snap.ID,
				PlayerID: c.playerID,
				IsHost:   isHost,
				Joined:   joined,
			}
			c.send <- StateMessage{Type: "state", Game: snap}

		case c := <-h.unreg:
			h.mu.Lock()
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
			}
			h.mu.Unlock()

			if c.playerID != "" && cfg.playerTimeout > 0 {
				go h.scheduleRemoval(c.playerID, cfg.playerTimeout)
			}

		case ar := <-h.actions:
			h.handleAction(cfg, ar)
		}
	}
}

// closeAll disconnects every client and stops the run loop. The hub
// owner removes the hub from its map first, so pump teardowns and late
// registrations select on done instead of blocking on a dead loop.
func (h *Hub) closeAll() {
	h.mu.Lock()
	for c := range h.clients {
		delete(h.clients, c)
		close(c.send)
	}
	h.mu.Unlock()

	close(h.done)
}

// send with slow-client eviction.
func (h *Hub) trySendLocked(c *Client, msg any) {
	select {
	case c.send <- msg:
	default:
		delete(h.clients, c)
		close(c.send)
	}
}

func (h *Hub) broadcast(events []Event) {
	snap := h.session.Snapshot()

	h.mu.Lock()
	defer h.mu.Unlock()

	for _, e := range events {
		msg := eventMessage(e)
		for c := range h.clients {
			h.trySendLocked(c, msg)
		}
	}

	state := StateMessage{Type: "state", Game: snap}
	for c := range h.clients {
		h.trySendLocked(c, state)
	}
}

func (h *Hub) sendError(c *Client, err error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.trySendLocked(c, ErrorMessage{
		Type:    "error",
		Code:    errorCode(err),
		Message: err.Error(),
	})
}

func (h *Hub) handleAction(cfg *Config, ar actionRequest) {
	c := ar.client
	msg := ar.msg

	var (
		events []Event
		err    error
	)

	switch msg.Type {
	case "join":
		_, events, err = h.session.Join(c.playerID, msg.Name)

	case "start":
		_, events, err = h.session.Start(c.playerID)

	case "reveal":
		kind, ok := parseCardKind(msg.Kind)
		if !ok {
			h.sendError(c, errors.Join(ErrValidation, errors.New("unknown card kind "+msg.Kind)))
			return
		}
		_, events, err = h.session.RevealCard(c.playerID, kind)

	case "advance":
		_, events, err = h.session.AdvancePhase(c.playerID)

	case "vote":
		var allVoted bool
		allVoted, events, err = h.session.CastVote(c.playerID, msg.TargetID)
		if err == nil {
			h.mu.Lock()
			h.trySendLocked(c, VoteAckMessage{Type: "vote_ack", AllVoted: allVoted})
			h.mu.Unlock()
		}

	default:
		return
	}

	if err != nil {
		h.sendError(c, err)
		return
	}

	h.broadcast(events)
}

// scheduleRemoval waits for d, and if no client with this playerID has
// reconnected, drops that player's seat from a still-waiting room and
// broadcasts the roster change.
func (h *Hub) scheduleRemoval(playerID string, d time.Duration) {
	time.Sleep(d)

	h.mu.Lock()
	for c := range h.clients {
		if c.playerID == playerID {
			h.mu.Unlock()
			return
		}
	}
	h.mu.Unlock()

	events := h.session.Leave(playerID)
	if len(events) == 0 {
		return
	}

	h.broadcast(events)
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

const playerCookieName = "bunkerbox_id"

func getOrSetPlayerID(w http.ResponseWriter, r *http.Request) string {
	if c, err := r.Cookie(playerCookieName); err == nil && c.Value != "" {
		return c.Value
	}

	id := uuid.NewString()

	http.SetCookie(w, &http.Cookie{
		Name:     playerCookieName,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	return id
}

// bunkerServer binds the session registry to websocket hubs, one hub
// per live room.
type bunkerServer struct {
	cfg      *Config
	registry *Registry

	mu   sync.Mutex
	hubs map[string]*Hub
}

func newBunkerServer(cfg *Config, registry *Registry) *bunkerServer {
	bs := &bunkerServer{
		cfg:      cfg,
		registry: registry,
		hubs:     make(map[string]*Hub),
	}

	registry.onReap = bs.dropHub
	if cfg.sessionTimeout > 0 {
		go registry.reaperLoop()
	}

	return bs
}

// dropHub is the registry's reap callback: it forgets the room's hub
// and disconnects every client still attached to it.
func (bs *bunkerServer) dropHub(roomID string) {
	bs.mu.Lock()
	hub, ok := bs.hubs[roomID]
	delete(bs.hubs, roomID)
	bs.mu.Unlock()

	if ok {
		hub.closeAll()
	}
}

func (bs *bunkerServer) hub(roomID string) (*Hub, error) {
	session, err := bs.registry.Lookup(roomID)
	if err != nil {
		return nil, err
	}

	bs.mu.Lock()
	defer bs.mu.Unlock()

	if hub, ok := bs.hubs[roomID]; ok {
		return hub, nil
	}

	hub := newHub(session)
	bs.hubs[roomID] = hub
	go hub.run(bs.cfg)
	return hub, nil
}

func httpStatusFor(err error) int {
	switch {
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, ErrRoomNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrRoomIDCollision),
		errors.Is(err, ErrRoomFull),
		errors.Is(err, ErrNameTaken),
		errors.Is(err, ErrRoomAlreadyStarted):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeJSONError(w http.ResponseWriter, err error) {
	writeJSON(w, httpStatusFor(err), map[string]string{
		"code":    errorCode(err),
		"message": err.Error(),
	})
}

// POST /path/rooms creates a room; the caller's cookie identity
// becomes the host seat.
func (bs *bunkerServer) createRoomHandler() httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		playerID := getOrSetPlayerID(w, r)

		var req struct {
			HostName string `json:"host_name"`
			Label    string `json:"label"`
			Mode     string `json:"mode"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSONError(w, errors.Join(ErrValidation, err))
			return
		}

		roomID, hostPlayerID, err := bs.registry.CreateRoom(playerID, req.HostName, req.Label, req.Mode)
		if err != nil {
			writeJSONError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, map[string]string{
			"room_id":        roomID,
			"host_player_id": hostPlayerID,
		})
	}
}

// GET /path/:roomid/state returns the full Game+Roster snapshot. The
// registry consults the durable store for reaped rooms, so finished
// games keep answering here after their live session is released.
func (bs *bunkerServer) stateHandler() httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		snap, err := bs.registry.Snapshot(ps.ByName("roomid"))
		if err != nil {
			writeJSONError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, snap)
	}
}

// WebSocket handler that picks the hub based on :roomid
func (bs *bunkerServer) wsHandler() httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		roomID := ps.ByName("roomid")
		if roomID == "" {
			http.Error(w, "missing room id", http.StatusBadRequest)
			return
		}

		playerID := getOrSetPlayerID(w, r)

		hub, err := bs.hub(roomID)
		if err != nil {
			http.Error(w, "room not found", http.StatusNotFound)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Println("upgrade error:", err)
			return
		}

		client := &Client{
			conn:     conn,
			send:     make(chan any, 8),
			playerID: playerID,
		}

		select {
		case hub.register <- client:
		case <-hub.done:
			_ = conn.Close()
			return
		}

		go client.writePump()
		client.readPump(hub)
	}
}

func (c *Client) readPump(h *Hub) {
	defer func() {
		select {
		case h.unreg <- c:
		case <-h.done:
		}
		_ = c.conn.Close()
	}()

	for {
		var msg ClientMessage
		if err := c.conn.ReadJSON(&msg); err != nil {
			return
		}

		switch msg.Type {
		case "join", "start", "reveal", "advance", "vote":
			select {
			case h.actions <- actionRequest{client: c, msg: msg}:
			case <-h.done:
				return
			}
		default:
			// ignore unknown types
		}
	}
}

func (c *Client) writePump() {
	defer c.conn.Close()

	for msg := range c.send {
		if err := c.conn.WriteJSON(msg); err != nil {
			return
		}
	}
}

// QR handler: generates a PNG QR code for the current room URL using go-qrcode.
func qrHandler(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	roomID := ps.ByName("roomid")
	if roomID == "" {
		http.Error(w, "missing room id", http.StatusBadRequest)
		return
	}

	// Derive scheme (respecting TLS and X-Forwarded-Proto if present).
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		scheme = proto
	}

	// We are at /.../:roomid/qr; strip trailing "/qr" to get the room URL.
	path := strings.TrimSuffix(r.URL.Path, "/qr")

	url := scheme + "://" + r.Host + path

	const qrSize = 320 // mobile-friendly size
	png, err := qrcode.Encode(url, qrcode.Medium, qrSize)
	if err != nil {
		http.Error(w, "qr generation failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	_, _ = w.Write(png)
}

// ---- Static file paths ----

//go:embed bunker/index.html
var indexHTML []byte

//go:embed bunker/app.css
var bunkerboxCSS []byte

//go:embed bunker/app.js
var bunkerboxJS []byte

func getIndexHandler(cfg *Config) func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Header().Set("Cache-Control", "public, max-age=3600")
		w.Header().Set("Expires", time.Now().Add(time.Hour).UTC().Format(http.TimeFormat))
		securityHeaders(cfg, w)

		_ = getOrSetPlayerID(w, r)

		_, _ = w.Write(indexHTML)
	}
}

func getCssHandler(cfg *Config) func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		w.Header().Set("Content-Type", "text/css; charset=utf-8")
		w.Header().Set("Cache-Control", "public, max-age=3600")
		w.Header().Set("Expires", time.Now().Add(time.Hour).UTC().Format(http.TimeFormat))
		securityHeaders(cfg, w)

		_, _ = w.Write(bunkerboxCSS)
	}
}

func getJsHandler(cfg *Config) func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		w.Header().Set("Content-Type", "application/javascript; charset=utf-8")
		w.Header().Set("Cache-Control", "public, max-age=3600")
		w.Header().Set("Expires", time.Now().Add(time.Hour).UTC().Format(http.TimeFormat))
		securityHeaders(cfg, w)

		_, _ = w.Write(bunkerboxJS)
	}
}

// registerBunkerGame sets up routes so that:
//   - $path                    → HTML client (create/join a room)
//   - $path/rooms (POST)       → create a room, returns room + host ids
//   - $path/:roomid            → HTML client
//   - $path/:roomid/ws         → WebSocket for that room
//   - $path/:roomid/state      → JSON Game+Roster snapshot
//   - $path/:roomid/qr         → PNG QR code for that room URL
func registerBunkerGame(cfg *Config, path string, mux *httprouter.Router) error {
	registry, err := newRegistry(cfg, newMemStore())
	if err != nil {
		return err
	}

	bs := newBunkerServer(cfg, registry)

	// Landing page and per-room client view (HTML)
	mux.GET(cfg.prefix+path, getIndexHandler(cfg))
	mux.GET(cfg.prefix+path+"/:roomid", getIndexHandler(cfg))

	// Room creation
	mux.POST(cfg.prefix+path+"/rooms", bs.createRoomHandler())

	// Shared assets (no roomid in route)
	mux.GET(cfg.prefix+"/assets/bunker/app.css", getCssHandler(cfg))
	mux.GET(cfg.prefix+"/assets/bunker/app.js", getJsHandler(cfg))

	// Per-room websocket
	mux.GET(cfg.prefix+path+"/:roomid/ws", bs.wsHandler())

	// Per-room snapshot
	mux.GET(cfg.prefix+path+"/:roomid/state", bs.stateHandler())

	// Per-room QR code
	mux.GET(cfg.prefix+path+"/:roomid/qr", qrHandler)

	return nil
}
