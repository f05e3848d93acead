package chat

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"github.com/coder/websocket"
)

const wsReadLimit = 32 << 20 // images and voice notes arrive base64-encoded

// WebSocketChannel implements Channel for the browser web chat. Unlike a
// polling channel it is connection-driven: the HTTP server feeds it through
// ServeHTTP and Start only records the inbound handler.
type WebSocketChannel struct {
	originPatterns []string

	mu      sync.RWMutex
	conns   map[string]*websocket.Conn
	handler func(InboundMessage)
	closed  bool
}

// NewWebSocketChannel creates the web chat channel. originPatterns follows
// the websocket library's AcceptOptions; empty means same-origin only.
func NewWebSocketChannel(originPatterns []string) *WebSocketChannel {
	return &WebSocketChannel{
		originPatterns: originPatterns,
		conns:          make(map[string]*websocket.Conn),
	}
}

// wsInbound is one client frame.
type wsInbound struct {
	Type         string `json:"type"`
	Text         string `json:"text,omitempty"`
	Caption      string `json:"caption,omitempty"`
	Audio        string `json:"audio,omitempty"` // base64
	Filename     string `json:"filename,omitempty"`
	Image        string `json:"image,omitempty"` // base64
	MIMEType     string `json:"mime_type,omitempty"`
	AccessToken  string `json:"access_token,omitempty"`
	RefreshToken string `json:"refresh_token,omitempty"`
}

// wsOutbound is one server frame.
type wsOutbound struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

func (c *WebSocketChannel) Start(_ context.Context, handler func(InboundMessage)) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handler = handler
	return nil
}

func (c *WebSocketChannel) Stop() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	for userID, conn := range c.conns {
		_ = conn.Close(websocket.StatusGoingAway, "server shutting down")
		delete(c.conns, userID)
	}
	return nil
}

func (c *WebSocketChannel) SendMessage(ctx context.Context, userID string, msg OutboundMessage) error {
	return c.writeFrame(ctx, userID, wsOutbound{Type: "message", Text: msg.Text})
}

func (c *WebSocketChannel) SendTyping(ctx context.Context, userID string) error {
	return c.writeFrame(ctx, userID, wsOutbound{Type: "typing"})
}

func (c *WebSocketChannel) writeFrame(ctx context.Context, userID string, frame wsOutbound) error {
	c.mu.RLock()
	conn, ok := c.conns[userID]
	c.mu.RUnlock()
	if !ok {
		return fmt.Errorf("no active connection for user %s", userID)
	}

	data, err := json.Marshal(frame)
	if err != nil {
		return fmt.Errorf("marshal frame: %w", err)
	}
	return conn.Write(ctx, websocket.MessageText, data)
}

// ServeHTTP upgrades the request and runs the read loop until the client
// disconnects. The student is identified by the access token's JWT claims;
// an unidentifiable client is rejected before the upgrade.
func (c *WebSocketChannel) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	userID := userFromToken(r.URL.Query().Get("token"))
	if userID == "" {
		http.Error(w, "missing or invalid token", http.StatusUnauthorized)
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: c.originPatterns,
	})
	if err != nil {
		slog.Error("websocket accept failed", "user_id", userID, "error", err)
		return
	}
	conn.SetReadLimit(wsReadLimit)

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		_ = conn.Close(websocket.StatusGoingAway, "server shutting down")
		return
	}
	if prev, ok := c.conns[userID]; ok {
		_ = prev.Close(websocket.StatusPolicyViolation, "replaced by new connection")
	}
	c.conns[userID] = conn
	c.mu.Unlock()

	slog.Info("web chat connected", "user_id", userID, "ip", r.RemoteAddr)

	defer func() {
		c.mu.Lock()
		if c.conns[userID] == conn {
			delete(c.conns, userID)
		}
		c.mu.Unlock()
		_ = conn.Close(websocket.StatusNormalClosure, "session ended")
		slog.Info("web chat disconnected", "user_id", userID)
	}()

	for {
		_, data, err := conn.Read(r.Context())
		if err != nil {
			status := websocket.CloseStatus(err)
			if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway || errors.Is(err, context.Canceled) {
				return
			}
			slog.Debug("websocket read ended", "user_id", userID, "error", err)
			return
		}

		var frame wsInbound
		if err := json.Unmarshal(data, &frame); err != nil {
			c.sendError(r.Context(), conn, "mensaje inválido")
			continue
		}

		msg, err := c.toInbound(userID, frame)
		if err != nil {
			c.sendError(r.Context(), conn, err.Error())
			continue
		}

		c.mu.RLock()
		handler := c.handler
		c.mu.RUnlock()
		if handler == nil {
			c.sendError(r.Context(), conn, "el asistente aún no está listo")
			continue
		}
		handler(msg)
	}
}

func (c *WebSocketChannel) toInbound(userID string, frame wsInbound) (InboundMessage, error) {
	msg := InboundMessage{
		Channel:      "websocket",
		UserID:       userID,
		Kind:         frame.Type,
		Text:         frame.Text,
		Caption:      frame.Caption,
		AccessToken:  frame.AccessToken,
		RefreshToken: frame.RefreshToken,
	}

	switch frame.Type {
	case KindText, "":
		msg.Kind = KindText
		if strings.TrimSpace(frame.Text) == "" {
			return InboundMessage{}, fmt.Errorf("el mensaje está vacío")
		}
	case KindAudio:
		audio, err := base64.StdEncoding.DecodeString(frame.Audio)
		if err != nil {
			return InboundMessage{}, fmt.Errorf("audio mal codificado")
		}
		msg.Audio = audio
		msg.AudioFilename = frame.Filename
	case KindImage:
		image, err := base64.StdEncoding.DecodeString(frame.Image)
		if err != nil {
			return InboundMessage{}, fmt.Errorf("imagen mal codificada")
		}
		msg.Image = image
		msg.ImageMIME = frame.MIMEType
	default:
		return InboundMessage{}, fmt.Errorf("tipo de mensaje desconocido: %s", frame.Type)
	}

	return msg, nil
}

func (c *WebSocketChannel) sendError(ctx context.Context, conn *websocket.Conn, text string) {
	data, err := json.Marshal(wsOutbound{Type: "error", Text: text})
	if err != nil {
		return
	}
	if err := conn.Write(ctx, websocket.MessageText, data); err != nil {
		slog.Debug("websocket error frame failed", "error", err)
	}
}

// userFromToken pulls the student identity out of the JWT payload without
// verifying the signature; the academic API is the actual authority and
// rejects forged tokens on every fetch.
func userFromToken(token string) string {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return ""
	}
	payload, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		return ""
	}
	var claims struct {
		UserID json.Number `json:"user_id"`
		Sub    string      `json:"sub"`
	}
	if err := json.Unmarshal(payload, &claims); err != nil {
		return ""
	}
	if claims.UserID.String() != "" {
		return claims.UserID.String()
	}
	return claims.Sub
}
