package tool

import (
	"fmt"

	"github.com/hupe1980/travelmesh/core"
)

// Pseudo enumerates the reserved tools that steer control flow between agents.
// They are declared to the model like any other tool but are never executed:
// the router intercepts them and acts on the hand-off instead.
type Pseudo int

const (
	// NotPseudo marks an ordinary domain tool.
	NotPseudo Pseudo = iota
	// ToHotelAgent hands the conversation to the hotel specialist.
	ToHotelAgent
	// ToFlightAgent hands the conversation to the flight specialist.
	ToFlightAgent
	// ToTourAgent hands the conversation to the tour specialist.
	ToTourAgent
	// ToCustomerService hands the conversation to customer service.
	ToCustomerService
	// ToSupervisor keeps the conversation with the supervisor, usually to ask
	// the user a clarifying question.
	ToSupervisor
	// CompleteOrEscalate ends the current specialist task and returns control
	// to the supervisor.
	CompleteOrEscalate
)

var pseudoNames = map[Pseudo]string{
	ToHotelAgent:       "ToHotelAgent",
	ToFlightAgent:      "ToFlightAgent",
	ToTourAgent:        "ToTourAgent",
	ToCustomerService:  "ToCustomerService",
	ToSupervisor:       "ToSupervisor",
	CompleteOrEscalate: "CompleteOrEscalate",
}

var pseudoByName = func() map[string]Pseudo {
	m := make(map[string]Pseudo, len(pseudoNames))
	for p, n := range pseudoNames {
		m[n] = p
	}
	return m
}()

// HandoffPriority is the fixed order in which the supervisor resolves several
// simultaneous hand-off requests. ToSupervisor ranks last.
var HandoffPriority = []Pseudo{ToHotelAgent, ToFlightAgent, ToTourAgent, ToCustomerService, ToSupervisor}

// ParsePseudo classifies a tool name. Unknown names yield NotPseudo, false.
func ParsePseudo(name string) (Pseudo, bool) {
	p, ok := pseudoByName[name]
	return p, ok
}

// String returns the tool name used in model declarations.
func (p Pseudo) String() string {
	if n, ok := pseudoNames[p]; ok {
		return n
	}
	return "NotPseudo"
}

// IsHandoff reports whether p transfers control to a specialist.
func (p Pseudo) IsHandoff() bool {
	switch p {
	case ToHotelAgent, ToFlightAgent, ToTourAgent, ToCustomerService:
		return true
	default:
		return false
	}
}

// IsEscalate reports whether p is the escalate/complete pseudo-tool.
func (p Pseudo) IsEscalate() bool { return p == CompleteOrEscalate }

// pseudoTool declares a Pseudo to the model.
type pseudoTool struct {
	kind        Pseudo
	description string
	parameters  map[string]any
}

// NewPseudoTool returns the model facing declaration of p.
func NewPseudoTool(p Pseudo) Tool {
	t := &pseudoTool{kind: p}

	switch p {
	case ToHotelAgent:
		t.description = "Transfer work to the specialist that searches and books hotels."
		t.parameters = handoffSchema(
			"hotel",
			map[string]any{
				"location":   stringProp("Desired hotel location"),
				"hotel_name": stringProp("Name of the hotel to search for"),
			},
		)
	case ToFlightAgent:
		t.description = "Transfer work to the specialist that searches and books flights."
		t.parameters = handoffSchema(
			"flight",
			map[string]any{
				"route":         stringProp("Desired route (origin-destination)"),
				"flight_number": stringProp("Desired flight number"),
			},
		)
	case ToTourAgent:
		t.description = "Transfer work to the specialist that searches and books tour packages."
		t.parameters = handoffSchema(
			"tour",
			map[string]any{
				"destination": stringProp("Desired tour destination"),
				"tour_name":   stringProp("Name of the tour package"),
			},
		)
	case ToCustomerService:
		t.description = "Transfer work to customer service for booking history, booking details, cancellations and general travel information."
		t.parameters = map[string]any{
			"type": "object",
			"properties": map[string]any{
				"user_id":    stringProp("User id whose booking history is requested"),
				"booking_id": stringProp("Booking id for a specific booking"),
				"request":    stringProp("Additional information or request from the user"),
			},
			"required": []string{"request"},
		}
	case ToSupervisor:
		t.description = "Keep the conversation with the supervisor to clarify the request with the user."
		t.parameters = map[string]any{
			"type": "object",
			"properties": map[string]any{
				"request": stringProp("Follow-up question that must be clarified before continuing"),
			},
			"required": []string{"request"},
		}
	case CompleteOrEscalate:
		t.description = "Mark the current task as completed and/or return control of the conversation " +
			"to the supervisor, who can reroute it based on the user's needs."
		t.parameters = map[string]any{
			"type": "object",
			"properties": map[string]any{
				"cancel": map[string]any{"type": "boolean", "description": "Whether the current task is abandoned"},
				"reason": stringProp("Why control is returned, e.g. the user changed their mind or the task is done"),
			},
			"required": []string{"reason"},
		}
	default:
		panic(fmt.Sprintf("tool: %d is not a pseudo-tool", p))
	}

	return t
}

func handoffSchema(domain string, extra map[string]any) map[string]any {
	props := map[string]any{
		"desired_date": stringProp(fmt.Sprintf("Desired %s date (YYYY-MM-DD)", domain)),
		"request":      stringProp(fmt.Sprintf("Additional information or request from the user about the %s", domain)),
	}
	for k, v := range extra {
		props[k] = v
	}

	return map[string]any{
		"type":       "object",
		"properties": props,
		"required":   []string{"desired_date", "request"},
	}
}

func stringProp(description string) map[string]any {
	return map[string]any{"type": "string", "description": description}
}

func (t *pseudoTool) Name() string               { return t.kind.String() }
func (t *pseudoTool) Description() string        { return t.description }
func (t *pseudoTool) Parameters() map[string]any { return t.parameters }

// Pseudo returns the reserved kind this declaration stands for.
func (t *pseudoTool) Pseudo() Pseudo { return t.kind }

// Call always fails: pseudo-tools are routed, never executed.
func (t *pseudoTool) Call(_ *core.ToolContext, _ map[string]any) (any, error) {
	return nil, NewToolError(t.Name(), "routing tool cannot be executed", CodeExecution)
}
