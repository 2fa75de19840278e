package core

import (
	"errors"
	"strings"
	"testing"
)

func TestStepBudget(t *testing.T) {
	b := NewStepBudget(2)
	if err := b.Take("supervisor"); err != nil {
		t.Fatal(err)
	}
	if err := b.Take("tools(hotel_agent)"); err != nil {
		t.Fatal(err)
	}

	err := b.Take("hotel_agent")
	if !errors.Is(err, ErrRecursionLimit) || KindOf(err) != KindRecursionLimit {
		t.Fatalf("expected recursion limit error, got %v", err)
	}
	if !strings.Contains(err.Error(), "step 3 (hotel_agent)") {
		t.Errorf("error should name the rejected step, got %q", err.Error())
	}
	if b.Taken() != 3 {
		t.Fatalf("expected 3 steps taken, got %d", b.Taken())
	}
}

func TestStepBudget_ZeroLimit(t *testing.T) {
	b := NewStepBudget(0)
	for i := 0; i < 100; i++ {
		if err := b.Take("supervisor"); err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
	}
}

func TestTurnError(t *testing.T) {
	cause := errors.New("timeout")
	err := error(&TurnError{Kind: KindModel, Agent: "hotel_agent", Err: cause})

	if !errors.Is(err, cause) {
		t.Error("TurnError should unwrap to its cause")
	}
	if KindOf(err) != KindModel {
		t.Errorf("unexpected kind %v", KindOf(err))
	}
	if err.Error() != "model error in agent hotel_agent: timeout" {
		t.Errorf("unexpected message %q", err.Error())
	}
}

func TestToolContext(t *testing.T) {
	tc := NewToolContext(nil, "t1", "hotel_agent", "c1", map[string]string{"name": "Ana"}, nil)
	if tc.Context() == nil || tc.Validate() != nil {
		t.Fatal("tool context should default context and validate")
	}
	if v, ok := tc.UserValue("name"); !ok || v != "Ana" {
		t.Fatalf("unexpected user value %q", v)
	}

	uc := tc.UserContext()
	uc["name"] = "changed"
	if v, _ := tc.UserValue("name"); v != "Ana" {
		t.Error("UserContext should return a copy")
	}

	if NewToolContext(nil, "", "a", "", nil, nil).Validate() == nil {
		t.Error("expected validation error for empty ids")
	}
}
