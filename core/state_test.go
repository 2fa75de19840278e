package core

import (
	"errors"
	"testing"
)

func TestAgentStack(t *testing.T) {
	var s AgentStack
	if s.Current() != Supervisor {
		t.Fatalf("empty stack should resolve to supervisor, got %s", s.Current())
	}
	if _, ok := s.Pop(); ok {
		t.Fatal("pop on empty stack should report false")
	}

	s.Push("hotel_agent")
	s.Push("flight_agent")
	if s.Current() != "flight_agent" || s.Len() != 2 {
		t.Fatalf("unexpected stack: %v", s)
	}

	items := s.Items()
	items[0] = "changed"
	if s[0] != "hotel_agent" {
		t.Error("Items should return a copy")
	}

	top, ok := s.Pop()
	if !ok || top != "flight_agent" || s.Current() != "hotel_agent" {
		t.Fatalf("unexpected pop result %s %v %v", top, ok, s)
	}
}

func TestConversationState_AppendRejectsDuplicates(t *testing.T) {
	s := NewConversationState("t1", nil)
	if err := s.Append(NewAssistantMessage("a", "", FunctionCall{ID: "c1", Name: "x"})); err != nil {
		t.Fatal(err)
	}

	err := s.Append(NewAssistantMessage("a", "", FunctionCall{ID: "c1", Name: "x"}))
	if !errors.Is(err, ErrDuplicateCallID) {
		t.Fatalf("expected ErrDuplicateCallID, got %v", err)
	}

	if err := s.Append(NewToolResultMessage("a", "c1", "x", "ok")); err != nil {
		t.Fatal(err)
	}
	if err := s.Append(NewToolResultMessage("a", "c1", "x", "again")); !errors.Is(err, ErrDuplicateCallID) {
		t.Fatalf("expected ErrDuplicateCallID for second result, got %v", err)
	}
	if len(s.Messages) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(s.Messages))
	}
}

func TestConversationState_PendingToolCalls(t *testing.T) {
	s := NewConversationState("t1", nil)
	_ = s.Append(NewUserMessage("q"))
	if len(s.PendingToolCalls()) != 0 {
		t.Fatal("no assistant message yet")
	}

	_ = s.Append(NewAssistantMessage("a", "", FunctionCall{ID: "1", Name: "x"}, FunctionCall{ID: "2", Name: "y"}))
	_ = s.Append(NewToolResultMessage("a", "1", "x", "ok"))

	pending := s.PendingToolCalls()
	if len(pending) != 1 || pending[0].ID != "2" {
		t.Fatalf("unexpected pending calls: %+v", pending)
	}

	last, ok := s.LastAssistant()
	if !ok || len(last.ToolCalls) != 2 {
		t.Fatalf("unexpected last assistant: %+v", last)
	}
}

func TestConversationState_CloneAndUserContext(t *testing.T) {
	uc := map[string]string{"user_id": "7"}
	s := NewConversationState("t1", uc)
	uc["user_id"] = "changed"
	if v, _ := s.UserValue("user_id"); v != "7" {
		t.Fatalf("user context must be copied on creation, got %s", v)
	}

	_ = s.Append(NewAssistantMessage("a", "", FunctionCall{ID: "1", Name: "x"}))
	s.PushAgent("hotel_agent")

	clone := s.Clone()
	clone.PushAgent("tour_agent")
	clone.Messages[0].ToolCalls[0].Name = "mutated"
	clone.UserContext["user_id"] = "9"

	if s.CurrentAgent() != "hotel_agent" || s.Messages[0].ToolCalls[0].Name != "x" {
		t.Fatal("clone mutation leaked into original")
	}
	if v, _ := s.UserValue("user_id"); v != "7" {
		t.Fatal("clone user context mutation leaked into original")
	}
}

func TestConversationState_TruncateKeepsPairs(t *testing.T) {
	s := NewConversationState("t1", nil)
	_ = s.Append(NewUserMessage("q1"))
	_ = s.Append(NewAssistantMessage("a", "", FunctionCall{ID: "1", Name: "x"}))
	_ = s.Append(NewToolResultMessage("a", "1", "x", "r"))
	_ = s.Append(NewAssistantMessage("a", "answer"))

	s.Truncate(2) // would start on the tool result
	if len(s.Messages) != 1 || s.Messages[0].Content != "answer" {
		t.Fatalf("unexpected truncation: %+v", s.Messages)
	}
	if err := ValidatePairing(s.Messages); err != nil {
		t.Fatalf("truncation broke pairing: %v", err)
	}
}
