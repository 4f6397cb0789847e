package realtime

import (
	"context"
	"encoding/json"
	"net/http"

	gorillawebsocket "github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/carepoint/portal/internal/platform/auth"
	"github.com/carepoint/portal/pkg/apperror"
)

var upgrader = gorillawebsocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins; tighten in production.
	},
}

// serverFrame is an acknowledgment or error sent back to the client in
// response to a subscribe attempt.
type serverFrame struct {
	Event   string          `json:"event"`
	Channel string          `json:"channel,omitempty"`
	Error   string          `json:"error,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// Handler owns the WebSocket endpoint and the HTTP channel-authorization
// endpoint used by non-WebSocket transports.
type Handler struct {
	hub *Hub
}

func NewHandler(hub *Hub) *Handler {
	return &Handler{hub: hub}
}

// RegisterRoutes registers the realtime endpoints. Both require an
// authenticated caller.
func (h *Handler) RegisterRoutes(api *echo.Group, ws *echo.Group) {
	api.POST("/realtime/auth", h.AuthorizeChannel)
	ws.GET("", h.HandleConnect)
}

type authRequest struct {
	SocketID string `json:"socket_id"`
	Channel  string `json:"channel_name"`
}

// AuthorizeChannel is the subscription authorization callback: given a
// transport socket id and a requested channel, it returns a grant or the
// appropriate 4xx.
func (h *Handler) AuthorizeChannel(c echo.Context) error {
	callerID, err := auth.CallerID(c.Request().Context())
	if err != nil {
		return apperror.ToHTTP(err)
	}
	var req authRequest
	if err := c.Bind(&req); err != nil {
		return apperror.ToHTTP(apperror.InvalidArgument("malformed request body"))
	}
	if req.Channel == "" {
		return apperror.ToHTTP(apperror.InvalidArgument("channel_name is required"))
	}

	grant, err := h.hub.authorizer.Authorize(c.Request().Context(), callerID, req.SocketID, req.Channel)
	if err != nil {
		return apperror.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, grant)
}

// HandleConnect upgrades the connection, registers the client, and runs the
// read/write pumps until the peer disconnects.
func (h *Handler) HandleConnect(c echo.Context) error {
	callerID, err := auth.CallerID(c.Request().Context())
	if err != nil {
		return apperror.ToHTTP(err)
	}

	ws, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}

	// The request context is canceled the moment this handler returns, but
	// the pumps outlive it. Subscriptions run on a connection-scoped context
	// that ends with the read pump instead.
	ctx, cancel := context.WithCancel(context.WithoutCancel(c.Request().Context()))

	client := NewClient(callerID, &gorillaConnAdapter{ws})
	h.hub.Register(client)

	go h.writePump(client, ws)
	go h.readPump(ctx, cancel, client, ws)

	return nil
}

func (h *Handler) readPump(ctx context.Context, cancel context.CancelFunc, client *Client, ws *gorillawebsocket.Conn) {
	defer func() {
		cancel()
		h.hub.Unregister(client)
		ws.Close()
	}()

	for {
		_, message, err := ws.ReadMessage()
		if err != nil {
			break
		}

		var msg ClientMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			continue // Ignore malformed frames.
		}

		switch msg.Action {
		case "subscribe":
			for _, ch := range msg.Channels {
				grant, err := h.hub.Subscribe(ctx, client, ch)
				if err != nil {
					h.sendFrame(client, serverFrame{
						Event:   "subscription_error",
						Channel: ch,
						Error:   string(apperror.CodeOf(err)),
					})
					continue
				}
				h.sendFrame(client, serverFrame{
					Event:   "subscription_succeeded",
					Channel: ch,
					Data:    grant.UserInfo,
				})
			}
		case "unsubscribe":
			h.hub.Unsubscribe(client, msg.Channels)
		}
	}
}

func (h *Handler) sendFrame(client *Client, frame serverFrame) {
	data, err := json.Marshal(frame)
	if err != nil {
		return
	}
	select {
	case client.Send <- data:
	default:
	}
}

func (h *Handler) writePump(client *Client, ws *gorillawebsocket.Conn) {
	defer ws.Close()

	for message := range client.Send {
		if err := ws.WriteMessage(gorillawebsocket.TextMessage, message); err != nil {
			break
		}
	}
}

// gorillaConnAdapter wraps a gorilla/websocket.Conn to satisfy the Conn
// interface.
type gorillaConnAdapter struct {
	conn *gorillawebsocket.Conn
}

func (a *gorillaConnAdapter) ReadMessage() (int, []byte, error) {
	return a.conn.ReadMessage()
}

func (a *gorillaConnAdapter) WriteMessage(messageType int, data []byte) error {
	return a.conn.WriteMessage(messageType, data)
}

func (a *gorillaConnAdapter) Close() error {
	return a.conn.Close()
}
