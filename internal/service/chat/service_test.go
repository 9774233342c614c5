package chat_test

import (
	"context"
	"errors"
	"testing"

	"github.com/zhouzirui/mindease/backend/internal/model/chat"
	chatservice "github.com/zhouzirui/mindease/backend/internal/service/chat"
)

func TestServiceGetSession(t *testing.T) {
	svc := chatservice.NewService()
	ctx := context.Background()

	session, err := svc.CreateSession(ctx, "  sleep better  ")
	if err != nil {
		t.Fatalf("CreateSession err: %v", err)
	}

	got, err := svc.GetSession(ctx, session.ID)
	if err != nil {
		t.Fatalf("GetSession err: %v", err)
	}

	if got.ID != session.ID {
		t.Fatalf("unexpected session ID: got %s want %s", got.ID, session.ID)
	}
	if got.Goal != "sleep better" {
		t.Fatalf("unexpected goal: got %q", got.Goal)
	}
}

func TestServiceGetSessionNotFound(t *testing.T) {
	svc := chatservice.NewService()
	ctx := context.Background()

	if _, err := svc.GetSession(ctx, "missing"); !errors.Is(err, chatservice.ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestServiceAppendKeepsOrder(t *testing.T) {
	svc := chatservice.NewService()
	ctx := context.Background()
	session, _ := svc.CreateSession(ctx, "")

	_, err := svc.AppendMessages(ctx, session.ID,
		chat.Message{Role: chat.RoleUser, Content: "hello"},
		chat.Message{Role: chat.RoleAssistant, Content: "hi there"},
	)
	if err != nil {
		t.Fatalf("AppendMessages err: %v", err)
	}

	transcript, err := svc.LoadTranscript(ctx, session.ID)
	if err != nil {
		t.Fatalf("LoadTranscript err: %v", err)
	}
	if len(transcript) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(transcript))
	}
	if transcript[0].Role != chat.RoleUser || transcript[1].Role != chat.RoleAssistant {
		t.Fatalf("unexpected order: %+v", transcript)
	}
	if transcript[0].ID == "" || transcript[0].SessionID != session.ID {
		t.Fatalf("expected id and session id to be assigned: %+v", transcript[0])
	}

	transcript[0].Content = "mutated"
	again, _ := svc.LoadTranscript(ctx, session.ID)
	if again[0].Content != "hello" {
		t.Fatal("LoadTranscript must return a copy")
	}
}

func TestServiceAppendRejectsUnknownRole(t *testing.T) {
	svc := chatservice.NewService()
	ctx := context.Background()
	session, _ := svc.CreateSession(ctx, "")

	_, err := svc.AppendMessages(ctx, session.ID,
		chat.Message{Role: chat.RoleUser, Content: "hello"},
		chat.Message{Role: "system", Content: "nope"},
	)
	if !errors.Is(err, chatservice.ErrInvalidRole) {
		t.Fatalf("expected ErrInvalidRole, got %v", err)
	}

	transcript, _ := svc.LoadTranscript(ctx, session.ID)
	if len(transcript) != 0 {
		t.Fatalf("expected nothing appended, got %d", len(transcript))
	}
}

func TestServiceEndSessionClearsTranscript(t *testing.T) {
	svc := chatservice.NewService()
	ctx := context.Background()
	session, _ := svc.CreateSession(ctx, "")

	if _, err := svc.AppendMessages(ctx, session.ID, chat.Message{Role: chat.RoleUser, Content: "hi"}); err != nil {
		t.Fatalf("AppendMessages err: %v", err)
	}
	if err := svc.EndSession(ctx, session.ID); err != nil {
		t.Fatalf("EndSession err: %v", err)
	}
	if _, err := svc.LoadTranscript(ctx, session.ID); !errors.Is(err, chatservice.ErrSessionNotFound) {
		t.Fatalf("expected transcript to be gone, got %v", err)
	}
	if err := svc.EndSession(ctx, session.ID); !errors.Is(err, chatservice.ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound on second end, got %v", err)
	}
}

func TestServiceSetGoal(t *testing.T) {
	svc := chatservice.NewService()
	ctx := context.Background()
	session, _ := svc.CreateSession(ctx, "")

	updated, err := svc.SetGoal(ctx, session.ID, "feel calmer")
	if err != nil {
		t.Fatalf("SetGoal err: %v", err)
	}
	if updated.Goal != "feel calmer" {
		t.Fatalf("unexpected goal %q", updated.Goal)
	}
	if _, err := svc.SetGoal(ctx, "missing", "x"); !errors.Is(err, chatservice.ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
}
