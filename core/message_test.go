package core

import (
	"errors"
	"testing"
)

func TestMessage_Constructors(t *testing.T) {
	u := NewUserMessage("hi")
	if u.Role != RoleUser || u.Author != "user" || u.ID == "" || u.Timestamp.IsZero() {
		t.Fatalf("NewUserMessage malformed: %+v", u)
	}

	a := NewAssistantMessage("hotel_agent", "", FunctionCall{ID: "c1", Name: "get_hotels"})
	if !a.HasToolCalls() || a.ToolCallNames()[0] != "get_hotels" {
		t.Fatalf("NewAssistantMessage malformed: %+v", a)
	}

	r := NewToolErrorMessage("hotel_agent", "c1", "get_hotels", "boom")
	if !r.IsToolResult() || !r.IsError || r.ToolCallID != "c1" {
		t.Fatalf("NewToolErrorMessage malformed: %+v", r)
	}

	if !NewAssistantMessage("x", "  ").IsEmpty() {
		t.Error("blank assistant message should be empty")
	}
}

func TestFunctionCall_DecodeArguments(t *testing.T) {
	args, err := FunctionCall{Name: "x"}.DecodeArguments()
	if err != nil || len(args) != 0 {
		t.Fatalf("empty payload: %v %v", args, err)
	}

	args, err = FunctionCall{Arguments: `{"hotel_id": 3}`}.DecodeArguments()
	if err != nil || args["hotel_id"].(float64) != 3 {
		t.Fatalf("decode failed: %v %v", args, err)
	}

	if _, err := (FunctionCall{Arguments: "{"}).DecodeArguments(); err == nil {
		t.Error("expected error for malformed payload")
	}
}

func TestValidatePairing(t *testing.T) {
	call := func(id string) FunctionCall { return FunctionCall{ID: id, Name: "t"} }

	ok := []Message{
		NewUserMessage("q"),
		NewAssistantMessage("a", "", call("1"), call("2")),
		NewToolResultMessage("a", "1", "t", "r1"),
		NewToolResultMessage("a", "2", "t", "r2"),
		NewAssistantMessage("a", "done"),
		NewAssistantMessage("a", "", call("3")), // trailing pending call is allowed
	}
	if err := ValidatePairing(ok); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	unanswered := []Message{
		NewAssistantMessage("a", "", call("1")),
		NewAssistantMessage("a", "next"),
	}
	var pe *ProtocolError
	if err := ValidatePairing(unanswered); !errors.As(err, &pe) || pe.CallID != "1" {
		t.Fatalf("expected protocol error for call 1, got %v", err)
	}

	orphan := []Message{NewToolResultMessage("a", "x", "t", "r")}
	if err := ValidatePairing(orphan); KindOf(err) != KindProtocol {
		t.Fatalf("expected protocol kind, got %v", err)
	}

	reused := []Message{
		NewAssistantMessage("a", "", call("1")),
		NewToolResultMessage("a", "1", "t", "r"),
		NewAssistantMessage("a", "", call("1")),
	}
	if err := ValidatePairing(reused); err == nil {
		t.Fatal("expected error for reused call id")
	}
}
