package entity

type MessageRole string

const (
	RoleSystem    MessageRole = "system"
	RoleUser      MessageRole = "user"
	RoleAssistant MessageRole = "assistant"
	// RoleTool only appears in display events; the model never sees it.
	RoleTool MessageRole = "tool"
)

type Message struct {
	Role    MessageRole `json:"role"`
	Content string      `json:"content"`
}

// Conversation is the ordered context sent to the model for one run.
// It only grows: there is no way to remove or rewrite a message.
type Conversation struct {
	messages []Message
}

func NewConversation(messages ...Message) *Conversation {
	c := &Conversation{}
	c.Append(messages...)
	return c
}

func (c *Conversation) Append(messages ...Message) {
	c.messages = append(c.messages, messages...)
}

func (c *Conversation) Len() int {
	return len(c.messages)
}

// Messages returns a copy so callers cannot mutate history.
func (c *Conversation) Messages() []Message {
	out := make([]Message, len(c.messages))
	copy(out, c.messages)
	return out
}

func (c *Conversation) Last() (Message, bool) {
	if len(c.messages) == 0 {
		return Message{}, false
	}
	return c.messages[len(c.messages)-1], true
}
