package entity

type EventKind string

const (
	EventAppend      EventKind = "append"
	EventReplaceLast EventKind = "replace_last"
)

// DisplayEvent tells an observer how its visible log changes. It never feeds
// back into the conversation.
type DisplayEvent struct {
	Kind    EventKind   `json:"kind"`
	Role    MessageRole `json:"role"`
	Content string      `json:"content"`
}

func AppendEvent(role MessageRole, content string) DisplayEvent {
	return DisplayEvent{Kind: EventAppend, Role: role, Content: content}
}

func ReplaceLastEvent(role MessageRole, content string) DisplayEvent {
	return DisplayEvent{Kind: EventReplaceLast, Role: role, Content: content}
}
