package ws

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	gorillawebsocket "github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"voicetriage/pkg"
)

// Runner is the pipeline surface the transport drives: full triage runs
// for audio frames and direct synthesis for text commands.
type Runner interface {
	Run(ctx context.Context, sessionID string, role pkg.Role, audio []byte)
	Speak(ctx context.Context, sessionID, text, requestID string)
}

// Handler upgrades HTTP connections to websockets, classifies each session
// by its declared origin, and feeds inbound frames to the pipeline.
type Handler struct {
	hub             *Hub
	runner          Runner
	operatorOrigins map[string]struct{}
	allowedOrigins  map[string]struct{}
	log             zerolog.Logger
}

// NewHandler creates a Handler. Connections from an operator origin get the
// operator role; every other allowed origin is a requester. An empty
// allowed list accepts any origin (development mode).
func NewHandler(hub *Hub, runner Runner, allowedOrigins, operatorOrigins []string, log zerolog.Logger) *Handler {
	h := &Handler{
		hub:             hub,
		runner:          runner,
		operatorOrigins: make(map[string]struct{}, len(operatorOrigins)),
		allowedOrigins:  make(map[string]struct{}, len(allowedOrigins)+len(operatorOrigins)),
		log:             log,
	}
	for _, o := range operatorOrigins {
		h.operatorOrigins[o] = struct{}{}
		h.allowedOrigins[o] = struct{}{}
	}
	for _, o := range allowedOrigins {
		h.allowedOrigins[o] = struct{}{}
	}
	return h
}

func (h *Handler) upgrader() gorillawebsocket.Upgrader {
	return gorillawebsocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if len(h.allowedOrigins) == 0 {
				return true
			}
			_, ok := h.allowedOrigins[r.Header.Get("Origin")]
			return ok
		},
	}
}

// RegisterRoutes registers the websocket endpoint on the provided Echo
// group.
func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.GET("/ws", h.HandleConnect)
}

// roleFor classifies a connection by its Origin header. The role is fixed
// for the session's lifetime; no mid-session switch is supported.
func (h *Handler) roleFor(r *http.Request) pkg.Role {
	if _, ok := h.operatorOrigins[r.Header.Get("Origin")]; ok {
		return pkg.RoleOperator
	}
	return pkg.RoleRequester
}

// HandleConnect upgrades the connection, registers the session with the
// hub, and starts the read and write pumps.
func (h *Handler) HandleConnect(c echo.Context) error {
	up := h.upgrader()
	conn, err := up.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}

	session := &Session{
		ID:   uuid.NewString(),
		Role: h.roleFor(c.Request()),
		Send: make(chan []byte, 256),
	}
	h.hub.Register(session)
	h.log.Info().Str("session_id", session.ID).Str("role", string(session.Role)).Msg("client connected")

	go h.writePump(session, conn)
	go h.readPump(session, conn)

	return nil
}

// readPump consumes inbound frames. Binary frames are audio blobs that each
// start an independent pipeline run; text frames are JSON commands.
func (h *Handler) readPump(session *Session, conn *gorillawebsocket.Conn) {
	defer func() {
		h.hub.Unregister(session.ID)
		conn.Close()
		h.log.Info().Str("session_id", session.ID).Msg("client disconnected")
	}()

	for {
		msgType, payload, err := conn.ReadMessage()
		if err != nil {
			break
		}
		switch msgType {
		case gorillawebsocket.BinaryMessage:
			audio := payload
			go h.runner.Run(context.Background(), session.ID, session.Role, audio)
		case gorillawebsocket.TextMessage:
			var cmd pkg.ClientCommand
			if err := json.Unmarshal(payload, &cmd); err != nil {
				continue // Ignore malformed messages.
			}
			if cmd.Action == "speak" {
				go h.runner.Speak(context.Background(), session.ID, cmd.Text, cmd.RequestID)
			}
		}
	}
}

// writePump writes queued events to the websocket connection.
func (h *Handler) writePump(session *Session, conn *gorillawebsocket.Conn) {
	defer conn.Close()

	for message := range session.Send {
		if err := conn.WriteMessage(gorillawebsocket.TextMessage, message); err != nil {
			break
		}
	}
}
