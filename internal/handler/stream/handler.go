package stream

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/zhouzirui/mindease/backend/internal/service/conversation"
	"github.com/zhouzirui/mindease/backend/pkg/utils"
)

// Handler renders conversation turns as Server-Sent Events.
type Handler struct {
	controller *conversation.Controller
}

// New creates a new stream handler.
func New(controller *conversation.Controller) *Handler {
	return &Handler{controller: controller}
}

// StreamResponse represents one SSE payload.
type StreamResponse struct {
	Event     string  `json:"event"`
	Content   string  `json:"content,omitempty"`
	SessionID string  `json:"sessionId,omitempty"`
	Emotion   string  `json:"emotion,omitempty"`
	Score     float64 `json:"score,omitempty"`
	Finished  bool    `json:"finished,omitempty"`
	Error     string  `json:"error,omitempty"`
}

// HandleStreamRequest runs one turn and streams its stages. Caller errors are
// returned before any SSE header is written so the router can answer with a
// plain status.
func (h *Handler) HandleStreamRequest(ctx context.Context, w http.ResponseWriter, sessionID, userMessage string) error {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return fmt.Errorf("streaming unsupported")
	}

	turn, err := h.controller.HandleTurn(ctx, sessionID, userMessage)
	if err != nil {
		return err
	}
	if turn.Ignored() {
		w.WriteHeader(http.StatusNoContent)
		return nil
	}

	utils.SetupSSEHeaders(w)
	utils.SendSSEChunk(w, flusher, StreamResponse{
		Event:     "start",
		SessionID: sessionID,
	})

	if turn.State == conversation.StateError {
		utils.SendSSEChunk(w, flusher, StreamResponse{
			Event:     "error",
			SessionID: sessionID,
			Content:   turn.Reply,
			Error:     "classification failed",
		})
		utils.SendSSEChunk(w, flusher, StreamResponse{Event: "end", SessionID: sessionID, Finished: true})
		log.Printf("[stream] turn failed session=%s: %v", sessionID, turn.Err)
		return nil
	}

	var top float64
	if len(turn.Scores) > 0 {
		top = turn.Scores[0].Score
	}
	utils.SendSSEChunk(w, flusher, StreamResponse{
		Event:     "emotion",
		SessionID: sessionID,
		Emotion:   string(turn.Emotion),
		Score:     top,
	})
	utils.SendSSEChunk(w, flusher, StreamResponse{
		Event:     "message",
		SessionID: sessionID,
		Content:   turn.Reply,
	})
	if turn.FollowUp != "" {
		utils.SendSSEChunk(w, flusher, StreamResponse{
			Event:     "followup",
			SessionID: sessionID,
			Content:   turn.FollowUp,
		})
	}
	utils.SendSSEChunk(w, flusher, StreamResponse{
		Event:     "end",
		SessionID: sessionID,
		Finished:  true,
	})

	log.Printf("[stream] completed turn session=%s emotion=%s logged=%t", sessionID, turn.Emotion, turn.Logged)
	return nil
}
