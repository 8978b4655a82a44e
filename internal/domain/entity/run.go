package entity

const (
	MinStepBudget     = 1
	MaxStepBudget     = 20
	DefaultStepBudget = 6
)

// ClampSteps bounds a requested step budget to [MinStepBudget, MaxStepBudget].
func ClampSteps(steps int) int {
	if steps < MinStepBudget {
		return MinStepBudget
	}
	if steps > MaxStepBudget {
		return MaxStepBudget
	}
	return steps
}

type RunStatus string

const (
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
)

// RunState lives for exactly one run and is owned by the executor.
type RunState struct {
	ID           string
	Goal         string
	StepBudget   int
	StepIndex    int
	Status       RunStatus
	Conversation *Conversation
}

type RunResult struct {
	RunID     string
	Answer    string
	Steps     int
	ToolCalls int
	// Forced is set when the budget ran out and the answer came from the
	// summary request.
	Forced       bool
	Conversation []Message
}
