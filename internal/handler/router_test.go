package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"testing"

	"github.com/zhouzirui/mindease/backend/internal/config"
	chatService "github.com/zhouzirui/mindease/backend/internal/service/chat"
	"github.com/zhouzirui/mindease/backend/internal/service/classifier"
	"github.com/zhouzirui/mindease/backend/internal/service/conversation"
	"github.com/zhouzirui/mindease/backend/internal/service/moodlog"
	"github.com/zhouzirui/mindease/backend/internal/service/response"
)

func newTestRouter(t *testing.T) (http.Handler, *chatService.Service) {
	t.Helper()
	chatSvc := chatService.NewService()
	logger := moodlog.New(filepath.Join(t.TempDir(), "mood_log.txt"))
	ctrl := conversation.NewController(classifier.NewLexicon(), response.DefaultTable(), logger, chatSvc,
		conversation.Options{TranscriptEnabled: true, MaxInputChars: 20})
	page := config.PageConfig{Title: "MindEase", Disclaimer: config.Disclaimer}
	return NewRouter(page, chatSvc, ctrl), chatSvc
}

func TestMetaRoute(t *testing.T) {
	router, _ := newTestRouter(t)

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/meta", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}

	var page config.PageConfig
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		t.Fatalf("decode meta: %v", err)
	}
	if page.Disclaimer != config.Disclaimer {
		t.Fatalf("unexpected disclaimer %q", page.Disclaimer)
	}
	if resp.Header().Get("Access-Control-Allow-Origin") == "" {
		t.Fatal("expected CORS headers")
	}
}

func TestStreamRouteStatuses(t *testing.T) {
	router, chatSvc := newTestRouter(t)
	session, _ := chatSvc.CreateSession(context.Background(), "")

	cases := []struct {
		name      string
		sessionID string
		message   string
		status    int
	}{
		{"unknown session", "missing", "hello", http.StatusNotFound},
		{"too long", session.ID, "this message is far too long", http.StatusBadRequest},
		{"blank", session.ID, "", http.StatusNoContent},
		{"turn", session.ID, "I am so sad", http.StatusOK},
	}

	for _, tc := range cases {
		target := "/api/stream/" + tc.sessionID + "?message=" + url.QueryEscape(tc.message)
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, target, nil))
		if resp.Code != tc.status {
			t.Fatalf("%s: expected %d, got %d", tc.name, tc.status, resp.Code)
		}
	}
}
