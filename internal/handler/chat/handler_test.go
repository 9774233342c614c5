package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/zhouzirui/mindease/backend/internal/analysis/emotion"
	chatmodel "github.com/zhouzirui/mindease/backend/internal/model/chat"
	"github.com/zhouzirui/mindease/backend/internal/service/chat"
	"github.com/zhouzirui/mindease/backend/internal/service/classifier"
	"github.com/zhouzirui/mindease/backend/internal/service/conversation"
	"github.com/zhouzirui/mindease/backend/internal/service/moodlog"
	"github.com/zhouzirui/mindease/backend/internal/service/response"
)

func setupRouter(t *testing.T, transcript bool) (*chi.Mux, *chat.Service) {
	t.Helper()
	chatSvc := chat.NewService()
	logger := moodlog.New(filepath.Join(t.TempDir(), "mood_log.txt"))
	ctrl := conversation.NewController(classifier.NewLexicon(), response.DefaultTable(), logger, chatSvc,
		conversation.Options{TranscriptEnabled: transcript, MaxInputChars: 200})

	r := chi.NewRouter()
	New(chatSvc, ctrl).RegisterRoutes(r)
	return r, chatSvc
}

func doJSON(r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		payload, _ := json.Marshal(body)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	return resp
}

func createSession(t *testing.T, r http.Handler) chatmodel.Session {
	t.Helper()
	resp := doJSON(r, http.MethodPost, "/session", map[string]string{"goal": "sleep better"})
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.Code)
	}
	var session chatmodel.Session
	if err := json.NewDecoder(resp.Body).Decode(&session); err != nil {
		t.Fatalf("decode session: %v", err)
	}
	return session
}

func TestCreateSessionWithoutBody(t *testing.T) {
	r, _ := setupRouter(t, true)
	resp := doJSON(r, http.MethodPost, "/session", nil)
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.Code)
	}
}

func TestCreateSessionInvalidBody(t *testing.T) {
	r, _ := setupRouter(t, true)
	req := httptest.NewRequest(http.MethodPost, "/session", bytes.NewReader([]byte("{")))
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
}

func TestSendMessageReturnsTurn(t *testing.T) {
	r, _ := setupRouter(t, true)
	session := createSession(t, r)

	resp := doJSON(r, http.MethodPost, "/session/"+session.ID+"/messages", map[string]string{
		"content": "I feel so anxious about tomorrow",
	})
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}

	var turn conversation.Turn
	if err := json.NewDecoder(resp.Body).Decode(&turn); err != nil {
		t.Fatalf("decode turn: %v", err)
	}
	if turn.Emotion != emotion.Fear {
		t.Fatalf("expected fear, got %s", turn.Emotion)
	}
	if turn.Reply != response.DefaultTable().Lookup(emotion.Fear) {
		t.Fatalf("unexpected reply %q", turn.Reply)
	}

	transcript := doJSON(r, http.MethodGet, "/session/"+session.ID+"/messages", nil)
	var messages []chatmodel.Message
	if err := json.NewDecoder(transcript.Body).Decode(&messages); err != nil {
		t.Fatalf("decode transcript: %v", err)
	}
	if len(messages) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(messages))
	}
}

func TestSendEmptyMessageIsNoContent(t *testing.T) {
	r, _ := setupRouter(t, true)
	session := createSession(t, r)

	resp := doJSON(r, http.MethodPost, "/session/"+session.ID+"/messages", map[string]string{"content": "  "})
	if resp.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", resp.Code)
	}
}

func TestSendMessageErrors(t *testing.T) {
	r, _ := setupRouter(t, true)
	session := createSession(t, r)

	resp := doJSON(r, http.MethodPost, "/session/missing/messages", map[string]string{"content": "hi"})
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.Code)
	}

	long := string(bytes.Repeat([]byte("a"), 201))
	resp = doJSON(r, http.MethodPost, "/session/"+session.ID+"/messages", map[string]string{"content": long})
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
}

func TestTranscriptDisabled(t *testing.T) {
	r, _ := setupRouter(t, false)
	session := createSession(t, r)

	resp := doJSON(r, http.MethodGet, "/session/"+session.ID+"/messages", nil)
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.Code)
	}
}

func TestGoalAndEndSession(t *testing.T) {
	r, chatSvc := setupRouter(t, true)
	session := createSession(t, r)

	resp := doJSON(r, http.MethodPut, "/session/"+session.ID+"/goal", map[string]string{"goal": "worry less"})
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	got, err := chatSvc.GetSession(context.Background(), session.ID)
	if err != nil {
		t.Fatalf("GetSession err: %v", err)
	}
	if got.Goal != "worry less" {
		t.Fatalf("unexpected goal %q", got.Goal)
	}

	resp = doJSON(r, http.MethodDelete, "/session/"+session.ID, nil)
	if resp.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", resp.Code)
	}
	resp = doJSON(r, http.MethodGet, "/session/"+session.ID, nil)
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 after end, got %d", resp.Code)
	}
}
