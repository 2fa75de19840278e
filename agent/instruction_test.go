package agent

import (
	"errors"
	"testing"
	"time"
)

type mockProvider struct {
	text string
	err  error
}

func (m mockProvider) Instruction(PromptData) (string, error) { return m.text, m.err }

var testNow = time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

func TestInstruction_Static(t *testing.T) {
	inst := NewInstructionFromText("static instruction")
	if !inst.IsStatic() {
		t.Fatalf("expected static instruction")
	}
	got, err := inst.Resolve(PromptData{Agent: "hotel", Now: testNow})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "static instruction" {
		t.Fatalf("expected 'static instruction', got %q", got)
	}
}

func TestInstruction_Template(t *testing.T) {
	inst := NewInstructionFromText("You are the {{ .domain }} ({{ .agent }}) on {{ .date }}, user {{ .user.user_id }}.")
	got, err := inst.Resolve(PromptData{
		Agent:       "hotel",
		Domain:      "Hotel Agent",
		Now:         testNow,
		UserContext: map[string]string{"user_id": "42"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "You are the Hotel Agent (hotel) on 2026-03-14, user 42."
	if got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestInstruction_Provider(t *testing.T) {
	inst := NewInstructionFromProvider(mockProvider{text: "dynamic"})
	if inst.IsStatic() {
		t.Fatalf("expected dynamic instruction")
	}
	got, err := inst.Resolve(PromptData{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "dynamic" {
		t.Fatalf("expected 'dynamic', got %q", got)
	}
}

func TestInstruction_ProviderError(t *testing.T) {
	inst := NewInstructionFromProvider(mockProvider{err: errors.New("boom")})
	if _, err := inst.Resolve(PromptData{}); err == nil {
		t.Fatalf("expected error")
	}
}

func TestInstruction_Func(t *testing.T) {
	inst := NewInstructionFromFunc(func(d PromptData) (string, error) { return "agent=" + d.Agent, nil })
	got, err := inst.Resolve(PromptData{Agent: "tour"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "agent=tour" {
		t.Fatalf("expected 'agent=tour', got %q", got)
	}
}
