package flow

import (
	"fmt"

	"github.com/hupe1980/travelmesh/agent"
	"github.com/hupe1980/travelmesh/core"
)

const returnText = "Resuming dialog with the supervisor. The specialist returned control because the request is outside its domain or the task is complete. " +
	"Reflect on the past conversation and route the user directly to the right agent without reconfirming."

func entryText(domain string) string {
	return fmt.Sprintf("The assistant is now the %s. Reflect on the above conversation between the supervisor and the user. "+
		"You have a special domain: use only the tools available to you and do not handle requests outside it. "+
		"If the user changes their mind or needs help outside your domain, call CompleteOrEscalate immediately with a specific reason "+
		"and let the supervisor route the request. Do not mention who you are, just act as the assistant.", domain)
}

// Enter acknowledges a hand-off to def: every pending call gets a tool result
// carrying the domain instructions, then def is pushed onto the stack.
func Enter(st *core.ConversationState, def *agent.Definition) ([]core.Message, error) {
	msgs, err := answerPending(st, core.Supervisor, func(core.FunctionCall) string { return entryText(def.Domain()) })
	if err != nil {
		return msgs, err
	}

	st.PushAgent(def.Name())

	return msgs, nil
}

// ReturnToSupervisor answers every pending call with the resume notice and
// pops the active specialist.
func ReturnToSupervisor(st *core.ConversationState) ([]core.Message, error) {
	author := st.CurrentAgent()

	msgs, err := answerPending(st, author, func(core.FunctionCall) string { return returnText })
	if err != nil {
		return msgs, err
	}

	st.PopAgent()

	return msgs, nil
}

// answerPending appends one result per pending call of the latest assistant
// message, in call order.
func answerPending(st *core.ConversationState, author string, content func(core.FunctionCall) string) ([]core.Message, error) {
	pending := st.PendingToolCalls()
	msgs := make([]core.Message, 0, len(pending))

	for _, c := range pending {
		msg := core.NewToolResultMessage(author, c.ID, c.Name, content(c))
		if err := st.Append(msg); err != nil {
			return msgs, fmt.Errorf("append result for %s: %w", c.ID, err)
		}

		msgs = append(msgs, msg)
	}

	return msgs, nil
}
