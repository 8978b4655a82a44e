package output

import "web-agent/internal/domain/entity"

// EventEmitter receives display events synchronously, in order. Transport
// problems are the emitter's business; the executor never sees them.
type EventEmitter interface {
	Emit(event entity.DisplayEvent)
}

type EmitterFunc func(entity.DisplayEvent)

func (f EmitterFunc) Emit(event entity.DisplayEvent) {
	f(event)
}

type discardEmitter struct{}

func (discardEmitter) Emit(entity.DisplayEvent) {}

// DiscardEmitter drops every event.
var DiscardEmitter EventEmitter = discardEmitter{}
