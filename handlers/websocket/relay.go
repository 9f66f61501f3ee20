// Package websocket is the real-time relay. Clients hold one Socket.IO
// connection each; joining a conversation places the connection in the room
// "conversation-<id>", and chat messages fan out to every other member of
// that room. Socket.IO owns delivery; the relay mirrors room membership in
// its own registry for lifecycle logs, the health probe, and the membership
// invariants.
package websocket

import (
	"fmt"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/sirupsen/logrus"
	"github.com/zishang520/engine.io/v2/types"
	socketio "github.com/zishang520/socket.io/v2/socket"
)

const roomPrefix = "conversation-"

// registry tracks which connections are in which rooms. All mutation goes
// through one mutex so Join/Broadcast/Disconnect from different connections
// never race; rooms are dropped eagerly once their last member leaves.
type registry struct {
	mu      sync.RWMutex
	rooms   map[string]map[socketio.SocketId]struct{}
	members map[socketio.SocketId]map[string]struct{}
}

func newRegistry() *registry {
	return &registry{
		rooms:   make(map[string]map[socketio.SocketId]struct{}),
		members: make(map[socketio.SocketId]map[string]struct{}),
	}
}

// join adds the connection to the room. Joining twice is a no-op; the return
// value reports whether membership actually changed.
func (g *registry) join(roomID string, id socketio.SocketId) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, ok := g.rooms[roomID][id]; ok {
		return false
	}
	if g.rooms[roomID] == nil {
		g.rooms[roomID] = make(map[socketio.SocketId]struct{})
	}
	if g.members[id] == nil {
		g.members[id] = make(map[string]struct{})
	}
	g.rooms[roomID][id] = struct{}{}
	g.members[id][roomID] = struct{}{}
	return true
}

// leaveAll removes the connection from every room it joined and returns the
// rooms it left. Idempotent; never leaves a dangling membership behind.
func (g *registry) leaveAll(id socketio.SocketId) []string {
	g.mu.Lock()
	defer g.mu.Unlock()

	left := make([]string, 0, len(g.members[id]))
	for roomID := range g.members[id] {
		delete(g.rooms[roomID], id)
		if len(g.rooms[roomID]) == 0 {
			delete(g.rooms, roomID)
		}
		left = append(left, roomID)
	}
	delete(g.members, id)
	return left
}

func (g *registry) has(roomID string, id socketio.SocketId) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	_, ok := g.rooms[roomID][id]
	return ok
}

func (g *registry) count(roomID string) int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.rooms[roomID])
}

func (g *registry) roomCount() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.rooms)
}

var conversations = newRegistry()

// ActiveConversationCount reports how many conversation rooms currently have
// at least one member.
func ActiveConversationCount() int {
	return conversations.roomCount()
}

func conversationRoom(conversationID string) string {
	return roomPrefix + conversationID
}

// newMessagePayload builds the broadcast body: the client's message augmented
// with a server-assigned timestamp and the sender's connection id.
func newMessagePayload(sender socketio.SocketId, message string, now time.Time) map[string]any {
	return map[string]any{
		"message":   message,
		"timestamp": now.UTC().Format(time.RFC3339),
		"sender":    string(sender),
	}
}

// parseChatMessage pulls the message text and conversation id out of a
// chat-message event payload.
func parseChatMessage(datas []any) (message, conversationID string, err error) {
	if len(datas) == 0 {
		return "", "", fmt.Errorf("chat message payload is required")
	}
	fields, ok := datas[0].(map[string]any)
	if !ok {
		return "", "", fmt.Errorf("chat message payload must be an object")
	}
	message, _ = fields["message"].(string)
	conversationID, _ = fields["conversationId"].(string)
	if conversationID == "" {
		return "", "", fmt.Errorf("conversationId is required")
	}
	return message, conversationID, nil
}

func parseConversationID(datas []any) (string, error) {
	if len(datas) == 0 {
		return "", fmt.Errorf("conversation id is required")
	}
	conversationID, ok := datas[0].(string)
	if !ok || conversationID == "" {
		return "", fmt.Errorf("invalid conversation id")
	}
	return conversationID, nil
}

// SetupSocketIO creates the Socket.IO server and wires the relay events.
func SetupSocketIO() *socketio.Server {
	opts := socketio.DefaultServerOptions()
	opts.SetMaxHttpBufferSize(5000000)
	opts.SetPath("/socket.io")
	opts.SetAllowEIO3(true)
	opts.SetCors(&types.Cors{
		Origin:      "*",
		Credentials: true,
	})
	srv := socketio.NewServer(nil, opts)

	srv.On("connection", func(clients ...any) {
		socket, ok := clients[0].(*socketio.Socket)
		if !ok {
			return
		}

		me := socket.Id()
		logrus.WithField("socket_id", me).Info("User connected")

		socket.On("join-conversation", func(datas ...any) {
			conversationID, err := parseConversationID(datas)
			if err != nil {
				_ = socket.Emit("error", map[string]any{"message": err.Error()})
				return
			}

			room := conversationRoom(conversationID)
			socket.Join(socketio.Room(room))
			conversations.join(room, me)
			logrus.WithFields(logrus.Fields{
				"socket_id":       me,
				"conversation_id": conversationID,
				"members":         conversations.count(room),
			}).Info("User joined conversation")
		})

		socket.On("chat-message", func(datas ...any) {
			message, conversationID, err := parseChatMessage(datas)
			if err != nil {
				logrus.WithError(err).WithField("socket_id", me).Warn("Rejected chat message")
				_ = socket.Emit("error", map[string]any{
					"message": "Error processing chat message",
				})
				return
			}

			room := socketio.Room(conversationRoom(conversationID))
			payload := newMessagePayload(me, message, time.Now())

			// Broadcast().To excludes the sender; a member whose channel
			// closed mid-send is dropped by the adapter without aborting
			// delivery to the rest.
			if err := socket.Broadcast().To(room).Emit("new-message", payload); err != nil {
				logrus.WithError(err).WithField("socket_id", me).Warn("Broadcast failed")
				_ = socket.Emit("error", map[string]any{
					"message": "Error processing chat message",
				})
				return
			}

			_ = socket.Emit("message-received", map[string]any{
				"success":   true,
				"messageId": ulid.Make().String(),
			})
		})

		socket.On("file-processing-status", func(datas ...any) {
			// Direct echo to the sender only; the payload is not touched.
			if len(datas) == 0 {
				return
			}
			_ = socket.Emit("processing-update", datas[0])
		})

		socket.On("disconnecting", func(datas ...any) {
			left := conversations.leaveAll(me)
			logrus.WithFields(logrus.Fields{
				"socket_id": me,
				"rooms":     left,
			}).Info("User disconnected")
		})

		socket.On("disconnect", func(datas ...any) {
			socket.RemoveAllListeners("")
			socket.Disconnect(true)
		})
	})

	return srv
}
