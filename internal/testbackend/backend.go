// Package testbackend is an in-memory stand-in for the collaborative editor
// backend, used by tests that need real HTTP and WebSocket endpoints.
package testbackend

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/vovakirdan/wirecode/internal/proto"
)

const defaultCode = "# Start coding here...\n"

// SuggestFunc produces the autocomplete answer for a request.
type SuggestFunc func(req proto.AutocompleteRequest) proto.AutocompleteResponse

// Backend serves /rooms, /autocomplete and /ws/:roomId from memory.
type Backend struct {
	mu          sync.Mutex
	rooms       map[string]*proto.RoomResponse
	conns       map[string]map[*websocket.Conn]struct{}
	requests    []string
	suggest     SuggestFunc
	createError int
}

// New returns an empty backend with a suggestion func that never completes.
func New() *Backend {
	return &Backend{
		rooms: make(map[string]*proto.RoomResponse),
		conns: make(map[string]map[*websocket.Conn]struct{}),
		suggest: func(proto.AutocompleteRequest) proto.AutocompleteResponse {
			return proto.AutocompleteResponse{}
		},
	}
}

// Handler builds the gin engine serving the backend routes.
func (b *Backend) Handler() http.Handler {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(b.record)
	r.POST("/rooms", b.createRoom)
	r.GET("/rooms/:roomId", b.getRoom)
	r.POST("/autocomplete", b.autocomplete)
	r.GET("/ws/:roomId", b.serveWS)
	return r
}

// AddRoom seeds a room.
func (b *Backend) AddRoom(id, language, code string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.rooms[id] = &proto.RoomResponse{RoomID: id, Language: language, Code: code}
}

// Room returns a copy of the stored room.
func (b *Backend) Room(id string) (proto.RoomResponse, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	room, ok := b.rooms[id]
	if !ok {
		return proto.RoomResponse{}, false
	}
	return *room, true
}

// SetSuggest replaces the autocomplete behaviour.
func (b *Backend) SetSuggest(fn SuggestFunc) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.suggest = fn
}

// FailCreate makes POST /rooms answer with status until reset with 0.
func (b *Backend) FailCreate(status int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.createError = status
}

// Requests returns "METHOD path" for every request served so far.
func (b *Backend) Requests() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.requests...)
}

// Broadcast sends msg to every socket connected to room.
func (b *Backend) Broadcast(ctx context.Context, room string, msg proto.Message) {
	for _, conn := range b.roomConns(room) {
		_ = wsjson.Write(ctx, conn, msg)
	}
}

// SendRaw writes a raw text frame to every socket connected to room.
func (b *Backend) SendRaw(ctx context.Context, room string, data []byte) {
	for _, conn := range b.roomConns(room) {
		_ = conn.Write(ctx, websocket.MessageText, data)
	}
}

// Disconnect closes every socket connected to room.
func (b *Backend) Disconnect(room string) {
	for _, conn := range b.roomConns(room) {
		_ = conn.Close(websocket.StatusGoingAway, "server restart")
	}
}

// Connections returns how many sockets are connected to room.
func (b *Backend) Connections(room string) int {
	return len(b.roomConns(room))
}

func (b *Backend) record(c *gin.Context) {
	b.mu.Lock()
	b.requests = append(b.requests, c.Request.Method+" "+c.Request.URL.Path)
	b.mu.Unlock()
	c.Next()
}

func (b *Backend) createRoom(c *gin.Context) {
	b.mu.Lock()
	status := b.createError
	b.mu.Unlock()
	if status != 0 {
		c.JSON(status, gin.H{"detail": http.StatusText(status)})
		return
	}

	req := proto.CreateRoomRequest{Language: proto.DefaultLanguage}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": "invalid request body"})
		return
	}
	if req.Language == "" {
		req.Language = proto.DefaultLanguage
	}

	room := proto.RoomResponse{RoomID: uuid.NewString(), Code: defaultCode, Language: req.Language}
	b.AddRoom(room.RoomID, room.Language, room.Code)
	c.JSON(http.StatusCreated, room)
}

func (b *Backend) getRoom(c *gin.Context) {
	room, ok := b.Room(c.Param("roomId"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"detail": "Room not found"})
		return
	}
	c.JSON(http.StatusOK, room)
}

func (b *Backend) autocomplete(c *gin.Context) {
	var req proto.AutocompleteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": "invalid request body"})
		return
	}
	b.mu.Lock()
	fn := b.suggest
	b.mu.Unlock()
	c.JSON(http.StatusOK, fn(req))
}

func (b *Backend) serveWS(c *gin.Context) {
	roomID := c.Param("roomId")
	if _, ok := b.Room(roomID); !ok {
		c.JSON(http.StatusNotFound, gin.H{"detail": "Room not found"})
		return
	}

	conn, err := websocket.Accept(c.Writer, c.Request, &websocket.AcceptOptions{InsecureSkipVerify: true})
	if err != nil {
		return
	}
	defer conn.Close(websocket.StatusInternalError, "internal error")

	ctx := c.Request.Context()
	count := b.join(roomID, conn)
	defer func() {
		left := b.leave(roomID, conn)
		b.broadcastExcept(context.Background(), roomID, proto.Message{Type: proto.TypeUserLeft, Count: &left}, nil)
	}()

	if err := wsjson.Write(ctx, conn, proto.Message{Type: proto.TypeUserCountUpdate, Count: &count}); err != nil {
		return
	}
	b.broadcastExcept(ctx, roomID, proto.Message{Type: proto.TypeUserJoined, Count: &count}, conn)

	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			return
		}
		var msg proto.Message
		if err := json.Unmarshal(data, &msg); err != nil {
			_ = wsjson.Write(ctx, conn, proto.Message{Type: proto.TypeError, Message: "Invalid JSON"})
			continue
		}
		switch msg.Type {
		case proto.TypeCodeUpdate:
			b.mu.Lock()
			if room, ok := b.rooms[roomID]; ok {
				room.Code = msg.CodeOrEmpty()
			}
			b.mu.Unlock()
			b.broadcastExcept(ctx, roomID, msg, conn)
		case proto.TypeCursorUpdate:
			b.broadcastExcept(ctx, roomID, msg, conn)
		}
	}
}

func (b *Backend) join(room string, conn *websocket.Conn) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	set, ok := b.conns[room]
	if !ok {
		set = make(map[*websocket.Conn]struct{})
		b.conns[room] = set
	}
	set[conn] = struct{}{}
	return len(set)
}

func (b *Backend) leave(room string, conn *websocket.Conn) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	set := b.conns[room]
	delete(set, conn)
	if len(set) == 0 {
		delete(b.conns, room)
	}
	return len(set)
}

func (b *Backend) roomConns(room string) []*websocket.Conn {
	b.mu.Lock()
	defer b.mu.Unlock()
	conns := make([]*websocket.Conn, 0, len(b.conns[room]))
	for conn := range b.conns[room] {
		conns = append(conns, conn)
	}
	return conns
}

func (b *Backend) broadcastExcept(ctx context.Context, room string, msg proto.Message, sender *websocket.Conn) {
	for _, conn := range b.roomConns(room) {
		if conn == sender {
			continue
		}
		_ = wsjson.Write(ctx, conn, msg)
	}
}

// WSURL turns an httptest server URL into the matching ws:// base.
func WSURL(httpURL string) string {
	return strings.Replace(httpURL, "http", "ws", 1)
}
