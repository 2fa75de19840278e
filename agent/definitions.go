package agent

import (
	"fmt"
	"slices"
	"strings"

	"github.com/hupe1980/travelmesh/core"
	"github.com/hupe1980/travelmesh/logging"
	"github.com/hupe1980/travelmesh/tool"
)

// Agent names. The supervisor uses core.Supervisor.
const (
	Hotel           = "hotel"
	Flight          = "flight"
	Tour            = "tour"
	CustomerService = "customer_service"
)

// baseTools holds the tool set of each specialist, in declaration order.
var baseTools = map[string][]string{
	Hotel: {
		"get_hotels", "search_hotels_by_location", "get_hotel_details", "check_available_rooms",
		"book_hotel_room", "process_hotel_payment", "check_unpaid_bookings", "get_booking_details",
		"cancel_hotel_booking",
	},
	Flight: {
		"get_flights", "search_flights_by_route", "get_flight_details", "book_flight",
		"process_flight_payment", "check_unpaid_bookings", "get_booking_details", "cancel_flight_booking",
	},
	Tour: {
		"get_tours", "search_tours_by_destination", "get_tour_details", "check_tour_availability",
		"book_tour", "process_tour_payment", "check_unpaid_bookings", "get_booking_details",
		"cancel_tour_booking",
	},
	CustomerService: {
		"get_user_booking_history", "get_booking_details", "cancel_hotel_booking", "cancel_flight_booking",
		"cancel_tour_booking", "search_currency_rates", "search_travel_articles", "search_general_info",
	},
}

// BaseTools returns a copy of the base tool set of a specialist, or nil for
// the supervisor and unknown names.
func BaseTools(agentName string) []string {
	return slices.Clone(baseTools[agentName])
}

// HandoffTarget maps a hand-off pseudo-tool to the specialist it addresses.
func HandoffTarget(p tool.Pseudo) (string, bool) {
	switch p {
	case tool.ToHotelAgent:
		return Hotel, true
	case tool.ToFlightAgent:
		return Flight, true
	case tool.ToTourAgent:
		return Tour, true
	case tool.ToCustomerService:
		return CustomerService, true
	default:
		return "", false
	}
}

// ToolSource resolves tool names to tools, e.g. *travel.Catalog.
type ToolSource interface {
	Tools(names ...string) ([]tool.Tool, error)
}

// Extensions are tools that are only available in some deployments (external
// search adapters, database tools). They are assigned to agents by name at
// construction time.
type Extensions struct {
	Tools []tool.Tool
}

// DefinitionsOptions configures NewDefinitions.
type DefinitionsOptions struct {
	// Prompts overrides the system prompt per agent name.
	Prompts map[string]Instruction
	Logger  logging.Logger
}

// Definitions is the immutable set of agent definitions.
type Definitions struct {
	byName map[string]*Definition
	order  []string
}

// NewDefinitions builds the supervisor and the four specialists.
func NewDefinitions(src ToolSource, ext Extensions, optFns ...func(o *DefinitionsOptions)) (*Definitions, error) {
	opts := DefinitionsOptions{}
	for _, fn := range optFns {
		fn(&opts)
	}

	logger := logging.OrNoOp(opts.Logger)
	assigned := classifyExtensions(ext.Tools, logger)

	specs := []struct {
		name, domain, description, prompt string
		base                              []string
	}{
		{Hotel, "Hotel Agent", "Searches and books hotels.", hotelPrompt, BaseTools(Hotel)},
		{Flight, "Flight Agent", "Searches and books flights.", flightPrompt, BaseTools(Flight)},
		{Tour, "Tour Agent", "Searches and books tour packages.", tourPrompt, BaseTools(Tour)},
		{CustomerService, "Customer Service", "Booking history, cancellations and travel information.", customerServicePrompt, BaseTools(CustomerService)},
	}

	defs := &Definitions{byName: make(map[string]*Definition, len(specs)+1)}

	supervisor, err := NewDefinition(core.Supervisor, func(o *Options) {
		o.Domain = "Supervisor"
		o.Description = "Routes the conversation to the right specialist."
		o.Instruction = promptFor(opts.Prompts, core.Supervisor, supervisorPrompt)
		for _, p := range []tool.Pseudo{tool.ToHotelAgent, tool.ToFlightAgent, tool.ToTourAgent, tool.ToCustomerService, tool.ToSupervisor, tool.CompleteOrEscalate} {
			o.Tools = append(o.Tools, tool.NewPseudoTool(p))
		}
	})
	if err != nil {
		return nil, err
	}
	defs.add(supervisor)

	for _, s := range specs {
		base, err := src.Tools(s.base...)
		if err != nil {
			return nil, fmt.Errorf("agent %s: %w", s.name, err)
		}

		tools := appendUnique(base, assigned[s.name]...)

		d, err := NewDefinition(s.name, func(o *Options) {
			o.Domain = s.domain
			o.Description = s.description
			o.Instruction = promptFor(opts.Prompts, s.name, s.prompt)
			o.Tools = tools
		})
		if err != nil {
			return nil, err
		}
		defs.add(d)

		logger.Debug("agent.definition.built", "agent", s.name, "tool_count", len(d.tools))
	}

	return defs, nil
}

func (d *Definitions) add(def *Definition) {
	d.byName[def.Name()] = def
	d.order = append(d.order, def.Name())
}

// Get returns the definition named name.
func (d *Definitions) Get(name string) (*Definition, bool) {
	def, ok := d.byName[name]
	return def, ok
}

// Supervisor returns the supervisor definition.
func (d *Definitions) Supervisor() *Definition { return d.byName[core.Supervisor] }

// Names returns the agent names, supervisor first.
func (d *Definitions) Names() []string { return slices.Clone(d.order) }

func promptFor(overrides map[string]Instruction, name, fallback string) Instruction {
	if inst, ok := overrides[name]; ok {
		return inst
	}
	return NewInstructionFromText(fallback)
}

var databaseKeywords = []string{
	"supabase", "execute_sql", "list_schemas", "list_objects", "get_object_details",
	"explain_query", "analyze_workload", "analyze_query", "analyze_db_health", "get_top_queries",
}

// classifyExtensions assigns extension tools to agents by name keywords:
// booking adapters go to hotel (flight ones also to flight), airbnb to hotel,
// tripadvisor to hotel, tour and customer service, database tools to everyone.
func classifyExtensions(tools []tool.Tool, logger logging.Logger) map[string][]tool.Tool {
	out := map[string][]tool.Tool{}

	for _, t := range tools {
		name := strings.ToLower(t.Name())
		matched := false

		if strings.Contains(name, "booking") {
			out[Hotel] = append(out[Hotel], t)
			if strings.Contains(name, "flight") {
				out[Flight] = append(out[Flight], t)
			}
			matched = true
		}

		if strings.Contains(name, "airbnb") {
			out[Hotel] = append(out[Hotel], t)
			matched = true
		}

		if strings.Contains(name, "tripadvisor") {
			out[Hotel] = append(out[Hotel], t)
			out[Tour] = append(out[Tour], t)
			out[CustomerService] = append(out[CustomerService], t)
			matched = true
		}

		if slices.ContainsFunc(databaseKeywords, func(k string) bool { return strings.Contains(name, k) }) {
			for _, a := range []string{Hotel, Flight, Tour, CustomerService} {
				out[a] = append(out[a], t)
			}
			matched = true
		}

		if !matched {
			logger.Warn("agent.extension.unassigned", "tool", t.Name())
		}
	}

	return out
}

func appendUnique(base []tool.Tool, extra ...tool.Tool) []tool.Tool {
	out := slices.Clone(base)

	seen := make(map[string]bool, len(base)+len(extra))
	for _, t := range base {
		seen[t.Name()] = true
	}

	for _, t := range extra {
		if seen[t.Name()] {
			continue
		}
		seen[t.Name()] = true
		out = append(out, t)
	}

	return out
}
