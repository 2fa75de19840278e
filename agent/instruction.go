package agent

import (
	"time"

	"github.com/hupe1980/travelmesh/internal/util"
)

// PromptData is the input available when an instruction is resolved.
type PromptData struct {
	Agent       string
	Domain      string
	Now         time.Time
	UserContext map[string]string
}

// Provider supplies dynamic instruction text at runtime.
type Provider interface {
	Instruction(PromptData) (string, error)
}

// Func is a functional adapter to allow ordinary functions to be used as Providers.
type Func func(PromptData) (string, error)

// Instruction implements Provider.
func (f Func) Instruction(d PromptData) (string, error) { return f(d) }

// Instruction represents either a static template or a dynamic provider.
// Static text is rendered as a text/template with the keys agent, domain,
// date, time and user (the user context map).
type Instruction struct {
	text     string
	provider Provider
}

// NewInstructionFromText creates an Instruction from a static template.
func NewInstructionFromText(text string) Instruction { return Instruction{text: text} }

// NewInstructionFromProvider creates an Instruction from a dynamic provider.
func NewInstructionFromProvider(p Provider) Instruction { return Instruction{provider: p} }

// NewInstructionFromFunc creates an Instruction from a function.
func NewInstructionFromFunc(f func(PromptData) (string, error)) Instruction {
	return Instruction{provider: Func(f)}
}

// IsStatic returns true if the instruction is backed by a static template.
func (i Instruction) IsStatic() bool { return i.provider == nil }

// Resolve returns the instruction text, invoking the provider if needed.
func (i Instruction) Resolve(d PromptData) (string, error) {
	if i.provider != nil {
		return i.provider.Instruction(d)
	}

	return util.RenderTemplate(i.text, map[string]any{
		"agent":  d.Agent,
		"domain": d.Domain,
		"date":   d.Now.Format("2006-01-02"),
		"time":   d.Now.Format("15:04:05"),
		"user":   d.UserContext,
	})
}
