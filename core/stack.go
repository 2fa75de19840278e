package core

// Supervisor is the identifier of the top-level routing agent. It is never
// pushed onto an AgentStack; an empty stack means the supervisor is active.
const Supervisor = "supervisor"

// AgentStack records which specialist currently owns the conversation.
// The last element is the top of the stack.
type AgentStack []string

// Push makes name the active agent.
func (s *AgentStack) Push(name string) { *s = append(*s, name) }

// Pop removes and returns the active agent.
func (s *AgentStack) Pop() (string, bool) {
	n := len(*s)
	if n == 0 {
		return "", false
	}

	top := (*s)[n-1]
	*s = (*s)[:n-1]

	return top, true
}

// Peek returns the active agent without removing it.
func (s AgentStack) Peek() (string, bool) {
	if len(s) == 0 {
		return "", false
	}
	return s[len(s)-1], true
}

// Len returns the stack depth.
func (s AgentStack) Len() int { return len(s) }

// Items returns a copy of the stack, bottom first.
func (s AgentStack) Items() []string { return append([]string(nil), s...) }

// Current returns the top of the stack, or Supervisor when empty.
func (s AgentStack) Current() string {
	if top, ok := s.Peek(); ok {
		return top
	}
	return Supervisor
}
