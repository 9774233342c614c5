package socket

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	chatservice "github.com/zhouzirui/mindease/backend/internal/service/chat"
	"github.com/zhouzirui/mindease/backend/internal/service/conversation"
)

const (
	readTimeout  = 60 * time.Second
	pingInterval = 54 * time.Second
	writeTimeout = 10 * time.Second
)

// Handler WebSocket会话处理器，每条文本消息对应一轮对话
type Handler struct {
	chatSvc    *chatservice.Service
	controller *conversation.Controller
	disclaimer string
	upgrader   websocket.Upgrader
}

// New 创建WebSocket处理器
func New(chatSvc *chatservice.Service, controller *conversation.Controller, disclaimer string) *Handler {
	return &Handler{
		chatSvc:    chatSvc,
		controller: controller,
		disclaimer: disclaimer,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// RegisterRoutes 注册WebSocket路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/ws/{sessionID}", h.handleWebSocket)
}

type inboundMessage struct {
	Type      string          `json:"type"`
	SessionID string          `json:"sessionId"`
	Data      json.RawMessage `json:"data"`
}

// TextMessage 用户输入
type TextMessage struct {
	Text string `json:"text"`
}

// GoalMessage 今日目标
type GoalMessage struct {
	Goal string `json:"goal"`
}

type outgoingMessage struct {
	Type      string `json:"type"`
	SessionID string `json:"sessionId,omitempty"`
	Data      any    `json:"data,omitempty"`
	Timestamp int64  `json:"timestamp"`
}

func (h *Handler) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	if _, err := h.chatSvc.GetSession(r.Context(), sessionID); err != nil {
		http.Error(w, "session not found", http.StatusNotFound)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[websocket] upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	log.Printf("[websocket] new connection for session: %s", sessionID)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	conn.SetReadDeadline(time.Now().Add(readTimeout))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(readTimeout))
		return nil
	})

	go pingLoop(ctx, conn)

	h.write(conn, outgoingMessage{
		Type:      "connected",
		SessionID: sessionID,
		Data:      map[string]string{"disclaimer": h.disclaimer},
	})

	for {
		var msg inboundMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("[websocket] read error: %v", err)
			}
			return
		}
		conn.SetReadDeadline(time.Now().Add(readTimeout))

		if reply, ok := h.dispatch(ctx, sessionID, msg); ok {
			h.write(conn, reply)
		}
	}
}

// dispatch 处理一条入站消息，返回需要回写的消息。空白输入不回写。
func (h *Handler) dispatch(ctx context.Context, sessionID string, msg inboundMessage) (outgoingMessage, bool) {
	if msg.SessionID != "" && msg.SessionID != sessionID {
		return errorMessage(sessionID, "session mismatch"), true
	}

	switch msg.Type {
	case "text":
		var payload TextMessage
		if err := json.Unmarshal(msg.Data, &payload); err != nil {
			return errorMessage(sessionID, "invalid text payload"), true
		}
		turn, err := h.controller.HandleTurn(ctx, sessionID, payload.Text)
		if err != nil {
			return errorMessage(sessionID, turnErrorText(err)), true
		}
		if turn.Ignored() {
			return outgoingMessage{}, false
		}
		return outgoingMessage{Type: "reply", SessionID: sessionID, Data: turn}, true
	case "goal":
		var payload GoalMessage
		if err := json.Unmarshal(msg.Data, &payload); err != nil {
			return errorMessage(sessionID, "invalid goal payload"), true
		}
		session, err := h.chatSvc.SetGoal(ctx, sessionID, payload.Goal)
		if err != nil {
			return errorMessage(sessionID, err.Error()), true
		}
		return outgoingMessage{Type: "goal", SessionID: sessionID, Data: session}, true
	default:
		return errorMessage(sessionID, "unsupported message type: "+msg.Type), true
	}
}

func turnErrorText(err error) string {
	switch {
	case errors.Is(err, chatservice.ErrSessionNotFound):
		return "session not found"
	case errors.Is(err, conversation.ErrInputTooLong):
		return err.Error()
	default:
		return "turn failed"
	}
}

func errorMessage(sessionID, message string) outgoingMessage {
	return outgoingMessage{
		Type:      "error",
		SessionID: sessionID,
		Data:      map[string]string{"message": message},
	}
}

func (h *Handler) write(conn *websocket.Conn, msg outgoingMessage) {
	msg.Timestamp = time.Now().Unix()
	conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	if err := conn.WriteJSON(msg); err != nil {
		log.Printf("[websocket] write %s failed: %v", msg.Type, err)
	}
}

// pingLoop 定期发送ping消息；WriteControl可与WriteJSON并发调用
func pingLoop(ctx context.Context, conn *websocket.Conn) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeTimeout)); err != nil {
				return
			}
		}
	}
}
