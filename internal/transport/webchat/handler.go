// Package webchat is the chat transport: a WebSocket channel with JSON
// frames plus an HTTP fallback for sending single events. It implements
// the presenter the wizards render through.
package webchat

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/egornikitin1224-a11y/telegram-bot-for-hospital/internal/chat"
	"github.com/egornikitin1224-a11y/telegram-bot-for-hospital/internal/wizard"
	"github.com/egornikitin1224-a11y/telegram-bot-for-hospital/pkg/logging"
	"golang.org/x/net/websocket"
)

// Enqueuer feeds inbound events to the dispatcher queue.
type Enqueuer interface {
	Enqueue(ctx context.Context, ev chat.Event) error
}

// InboundFrame is what the chat client sends.
type InboundFrame struct {
	Type     string `json:"type"` // "command", "text", "choice", "ping"
	Command  string `json:"command,omitempty"`
	Text     string `json:"text,omitempty"`
	ChoiceID string `json:"choice_id,omitempty"`
}

// OutboundFrame is what we send to the chat client.
type OutboundFrame struct {
	Type    string          `json:"type"` // "prompt", "prompt_freeform", "message", "connected", "error", "pong"
	Text    string          `json:"text,omitempty"`
	Choices []wizard.Choice `json:"choices,omitempty"`
	UserID  int64           `json:"user_id,omitempty"`
}

// Handler manages chat connections and turns frames into events.
type Handler struct {
	dispatcher Enqueuer
	secret     string
	logger     *logging.Logger

	mu       sync.RWMutex
	sessions map[int64]*wsConn // user id -> active connection
}

type wsConn struct {
	conn *websocket.Conn
	done chan struct{}
}

// NewHandler creates the transport. An empty secret disables the token
// handshake and trusts the client-supplied user id, for local use.
// The dispatcher may be nil at construction and set later; the handler
// and the dispatcher reference each other.
func NewHandler(dispatcher Enqueuer, secret string, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{
		dispatcher: dispatcher,
		secret:     secret,
		logger:     logger.Component("webchat"),
		sessions:   make(map[int64]*wsConn),
	}
}

// SetDispatcher wires the event sink. Must be called before serving.
func (h *Handler) SetDispatcher(dispatcher Enqueuer) {
	h.dispatcher = dispatcher
}

// IdentifyRequest resolves the requesting user. With a secret
// configured the token is mandatory; otherwise the client-supplied
// user parameter is trusted, for local use.
func IdentifyRequest(secret string, r *http.Request) (Identity, error) {
	q := r.URL.Query()
	if secret != "" {
		token := q.Get("token")
		if token == "" {
			if auth := r.Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
				token = strings.TrimPrefix(auth, "Bearer ")
			}
		}
		if token == "" {
			return Identity{}, ErrNoIdentity
		}
		return IdentityFromToken(secret, token)
	}

	userParam := q.Get("user")
	if userParam == "" {
		return Identity{}, ErrNoIdentity
	}
	var id Identity
	if _, err := fmt.Sscanf(userParam, "%d", &id.UserID); err != nil {
		return Identity{}, fmt.Errorf("webchat: bad user parameter %q: %w", userParam, err)
	}
	id.Username = q.Get("username")
	id.FirstName = q.Get("first_name")
	return id, nil
}

// HandleWebSocket upgrades to WebSocket and relays events until the
// client disconnects.
func (h *Handler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	websocket.Handler(func(conn *websocket.Conn) {
		h.serveWS(conn, r)
	}).ServeHTTP(w, r)
}

func (h *Handler) serveWS(conn *websocket.Conn, r *http.Request) {
	identity, err := IdentifyRequest(h.secret, r)
	if err != nil {
		_ = websocket.JSON.Send(conn, OutboundFrame{Type: "error", Text: "unauthorized"})
		return
	}

	_ = websocket.JSON.Send(conn, OutboundFrame{Type: "connected", UserID: identity.UserID})

	wsc := &wsConn{conn: conn, done: make(chan struct{})}
	h.mu.Lock()
	h.sessions[identity.UserID] = wsc
	h.mu.Unlock()
	defer func() {
		h.mu.Lock()
		if h.sessions[identity.UserID] == wsc {
			delete(h.sessions, identity.UserID)
		}
		h.mu.Unlock()
		close(wsc.done)
	}()

	h.logger.Info("connection opened", "user_id", identity.UserID)

	for {
		var frame InboundFrame
		if err := websocket.JSON.Receive(conn, &frame); err != nil {
			h.logger.Debug("connection closed", "user_id", identity.UserID, "error", err)
			return
		}

		if frame.Type == "ping" {
			_ = websocket.JSON.Send(conn, OutboundFrame{Type: "pong"})
			continue
		}

		ev, ok := eventFromFrame(identity, frame)
		if !ok {
			continue
		}
		if err := h.dispatcher.Enqueue(r.Context(), ev); err != nil {
			h.logger.Error("enqueue failed", "user_id", identity.UserID, "error", err)
			_ = websocket.JSON.Send(conn, OutboundFrame{
				Type: "error",
				Text: "Сервис временно недоступен. Попробуйте позже.",
			})
		}
	}
}

func eventFromFrame(id Identity, frame InboundFrame) (chat.Event, bool) {
	ev := chat.Event{
		UserID:    id.UserID,
		Username:  id.Username,
		FirstName: id.FirstName,
	}
	switch frame.Type {
	case "command":
		if frame.Command == "" {
			return chat.Event{}, false
		}
		ev.Kind = chat.EventCommand
		ev.Command = frame.Command
	case "text":
		if strings.TrimSpace(frame.Text) == "" {
			return chat.Event{}, false
		}
		ev.Kind = chat.EventText
		ev.Text = frame.Text
	case "choice":
		if frame.ChoiceID == "" {
			return chat.Event{}, false
		}
		ev.Kind = chat.EventChoice
		ev.ChoiceID = frame.ChoiceID
	default:
		return chat.Event{}, false
	}
	return ev, true
}

// HandleMessage is the HTTP fallback for sending a single event.
// Responses only reach clients holding an open WebSocket.
func (h *Handler) HandleMessage(w http.ResponseWriter, r *http.Request) {
	identity, err := IdentifyRequest(h.secret, r)
	if err != nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	var frame InboundFrame
	if err := json.NewDecoder(r.Body).Decode(&frame); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	ev, ok := eventFromFrame(identity, frame)
	if !ok {
		http.Error(w, "unsupported frame", http.StatusBadRequest)
		return
	}

	if err := h.dispatcher.Enqueue(r.Context(), ev); err != nil {
		http.Error(w, "failed to queue event", http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "queued"})
}

// send delivers a frame to the user's active connection, if any.
func (h *Handler) send(userID int64, frame OutboundFrame) error {
	h.mu.RLock()
	wsc, ok := h.sessions[userID]
	h.mu.RUnlock()
	if !ok {
		return fmt.Errorf("webchat: no active connection for user %d", userID)
	}
	return websocket.JSON.Send(wsc.conn, frame)
}

// Prompt implements wizard.Presenter.
func (h *Handler) Prompt(_ context.Context, userID int64, text string, choices []wizard.Choice) error {
	return h.send(userID, OutboundFrame{Type: "prompt", Text: text, Choices: choices})
}

// PromptFreeform implements wizard.Presenter.
func (h *Handler) PromptFreeform(_ context.Context, userID int64, text string, choices ...wizard.Choice) error {
	return h.send(userID, OutboundFrame{Type: "prompt_freeform", Text: text, Choices: choices})
}

// Say implements wizard.Presenter.
func (h *Handler) Say(_ context.Context, userID int64, text string) error {
	return h.send(userID, OutboundFrame{Type: "message", Text: text})
}
