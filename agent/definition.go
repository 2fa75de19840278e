package agent

import (
	"fmt"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/hupe1980/travelmesh/model"
	"github.com/hupe1980/travelmesh/tool"
)

// Options configures a Definition.
type Options struct {
	Domain      string // human label, e.g. "Hotel Agent"
	Description string
	Instruction Instruction
	Tools       []tool.Tool
}

// Definition is the static, immutable configuration of one agent.
type Definition struct {
	name        string
	domain      string
	description string
	instruction Instruction
	tools       []tool.Tool
	index       map[string]tool.Tool
}

// NewDefinition creates a Definition. The escalate pseudo-tool is appended
// when the tool set does not already contain it. Duplicate tool names are
// rejected.
func NewDefinition(name string, optFns ...func(o *Options)) (*Definition, error) {
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("agent name is required")
	}

	opts := Options{Domain: name}
	for _, fn := range optFns {
		fn(&opts)
	}

	d := &Definition{
		name:        name,
		domain:      opts.Domain,
		description: opts.Description,
		instruction: opts.Instruction,
		index:       make(map[string]tool.Tool, len(opts.Tools)+1),
	}

	for _, t := range opts.Tools {
		if _, dup := d.index[t.Name()]; dup {
			return nil, fmt.Errorf("agent %s: duplicate tool %q", name, t.Name())
		}
		d.index[t.Name()] = t
		d.tools = append(d.tools, t)
	}

	escalate := tool.CompleteOrEscalate.String()
	if _, ok := d.index[escalate]; !ok {
		t := tool.NewPseudoTool(tool.CompleteOrEscalate)
		d.index[escalate] = t
		d.tools = append(d.tools, t)
	}

	return d, nil
}

// Name returns the identifier used as graph node and stack entry.
func (d *Definition) Name() string { return d.name }

// Domain returns the human readable label.
func (d *Definition) Domain() string { return d.domain }

// Description returns the agent description.
func (d *Definition) Description() string { return d.description }

// Tools returns the ordered tool set.
func (d *Definition) Tools() []tool.Tool { return slices.Clone(d.tools) }

// Tool looks up a tool of this agent by name.
func (d *Definition) Tool(name string) (tool.Tool, bool) {
	t, ok := d.index[name]
	return t, ok
}

// HasTool reports whether name belongs to the tool set.
func (d *Definition) HasTool(name string) bool {
	_, ok := d.index[name]
	return ok
}

// ToolNames returns the tool names in declaration order.
func (d *Definition) ToolNames() []string {
	names := make([]string, len(d.tools))
	for i, t := range d.tools {
		names[i] = t.Name()
	}
	return names
}

// ToolDefinitions returns the model facing declarations of the tool set.
func (d *Definition) ToolDefinitions() []model.ToolDefinition {
	defs := make([]model.ToolDefinition, len(d.tools))
	for i, t := range d.tools {
		defs[i] = model.ToolDefinition{
			Type: "function",
			Function: model.FunctionDefinition{
				Name:        t.Name(),
				Description: t.Description(),
				Parameters:  t.Parameters(),
			},
		}
	}
	return defs
}

// Instructions renders the system prompt followed by the current date and
// time and the caller supplied user context.
func (d *Definition) Instructions(now time.Time, userContext map[string]string) (string, error) {
	prompt, err := d.instruction.Resolve(PromptData{
		Agent:       d.name,
		Domain:      d.domain,
		Now:         now,
		UserContext: maps.Clone(userContext),
	})
	if err != nil {
		return "", fmt.Errorf("agent %s: render prompt: %w", d.name, err)
	}

	var b strings.Builder

	b.WriteString(prompt)
	fmt.Fprintf(&b, "\n\nCurrent date: %s\nCurrent time: %s", now.Format("2006-01-02"), now.Format("15:04:05"))
	b.WriteString("\n\nUSER CONTEXT: ")
	b.WriteString(formatUserContext(userContext))

	return b.String(), nil
}

func formatUserContext(uc map[string]string) string {
	if len(uc) == 0 {
		return "none"
	}

	keys := slices.Sorted(maps.Keys(uc))

	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + "=" + uc[k]
	}

	return strings.Join(parts, ", ")
}
