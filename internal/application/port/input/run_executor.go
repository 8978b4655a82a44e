package input

import (
	"context"
	"iter"

	"web-agent/internal/application/port/output"
	"web-agent/internal/domain/entity"
)

type RunExecutor interface {
	// Run drives one goal to a final answer, emitting display events as it
	// goes. A returned error means the run failed fatally.
	Run(ctx context.Context, goal string, steps int, emitter output.EventEmitter) (*entity.RunResult, error)
	// Events exposes the same run as a lazy sequence. A fatal error is
	// yielded as the last element.
	Events(ctx context.Context, goal string, steps int) iter.Seq2[entity.DisplayEvent, error]
}
