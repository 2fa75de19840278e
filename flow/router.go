package flow

import (
	"github.com/hupe1980/travelmesh/agent"
	"github.com/hupe1980/travelmesh/core"
	"github.com/hupe1980/travelmesh/logging"
	"github.com/hupe1980/travelmesh/tool"
)

// Route decides the transition after a specialist's turn. It depends only on
// msg and def, so re-running it on an unchanged state yields the same node.
//
//   - no tool calls: End
//   - any CompleteOrEscalate call: ReturnNode, even next to domain calls
//   - every call in def's tool set: ToolsNode(def)
//   - otherwise: End, the unknown call is never executed
func Route(msg core.Message, def *agent.Definition) Node {
	if !msg.HasToolCalls() {
		return End
	}

	for _, c := range msg.ToolCalls {
		if p, ok := tool.ParsePseudo(c.Name); ok && p.IsEscalate() {
			return ReturnNode
		}
	}

	for _, c := range msg.ToolCalls {
		if !def.HasTool(c.Name) {
			return End
		}
	}

	return ToolsNode(def.Name())
}

// Dispatch decides the transition after a supervisor turn. Hand-off requests
// are resolved in tool.HandoffPriority order: the first category present in
// the turn wins. Staying with the supervisor, or no recognized hand-off, ends
// the run.
func Dispatch(msg core.Message) Node {
	if !msg.HasToolCalls() {
		return End
	}

	requested := make(map[tool.Pseudo]bool, len(msg.ToolCalls))

	for _, c := range msg.ToolCalls {
		if p, ok := tool.ParsePseudo(c.Name); ok {
			requested[p] = true
		}
	}

	for _, p := range tool.HandoffPriority {
		if !requested[p] {
			continue
		}

		if target, ok := agent.HandoffTarget(p); ok {
			return EntryNode(target)
		}

		return End
	}

	return End
}

// InitialNode resolves where a run starts: the top-of-stack specialist, or
// the supervisor when the stack is empty. Stack entries without a definition
// are popped.
func InitialNode(st *core.ConversationState, defs *agent.Definitions, logger logging.Logger) Node {
	return AgentNode(resolveAgent(st, defs, logger))
}

func resolveAgent(st *core.ConversationState, defs *agent.Definitions, logger logging.Logger) string {
	for {
		name := st.CurrentAgent()
		if name == core.Supervisor {
			return name
		}

		if _, ok := defs.Get(name); ok {
			return name
		}

		st.PopAgent()

		logging.OrNoOp(logger).Warn("flow.stack.unknown_agent", "thread_id", st.ThreadID, "agent", name)
	}
}
