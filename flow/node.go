package flow

// NodeKind enumerates the graph node types.
type NodeKind int

const (
	// NodeEnd terminates the run.
	NodeEnd NodeKind = iota
	// NodeAgent runs one Agent Turn and routes its reply.
	NodeAgent
	// NodeEntry acknowledges a hand-off and pushes the specialist.
	NodeEntry
	// NodeTools executes the pending domain tool calls.
	NodeTools
	// NodeReturn hands control back to the supervisor.
	NodeReturn
)

// Node is one state of the routing graph. Agent is empty for NodeEnd and
// NodeReturn.
type Node struct {
	Kind  NodeKind
	Agent string
}

// End is the terminal node.
var End = Node{Kind: NodeEnd}

// AgentNode returns the Agent Turn node of name.
func AgentNode(name string) Node { return Node{Kind: NodeAgent, Agent: name} }

// EntryNode returns the hand-off entry node of name.
func EntryNode(name string) Node { return Node{Kind: NodeEntry, Agent: name} }

// ToolsNode returns the tool execution node of name.
func ToolsNode(name string) Node { return Node{Kind: NodeTools, Agent: name} }

// ReturnNode is the escalation node.
var ReturnNode = Node{Kind: NodeReturn}

func (n Node) String() string {
	switch n.Kind {
	case NodeAgent:
		return "agent:" + n.Agent
	case NodeEntry:
		return "entry:" + n.Agent
	case NodeTools:
		return "tools:" + n.Agent
	case NodeReturn:
		return "return"
	default:
		return "end"
	}
}
