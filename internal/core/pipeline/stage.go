package pipeline

// Stage is one phase of the fixed verification pipeline. The working
// stages run strictly in declaration order; Done, Failed and Cancelled
// are absorbing terminal states.
type Stage int

const (
	StageInit Stage = iota
	StageResolve
	StageMerge
	StageAnnotate
	StageVerify
	StageFormat
	StageDone
	StageFailed
	StageCancelled
)

// workingStages is the number of non-terminal stages, used for
// progress percentages.
const workingStages = 6

func (s Stage) String() string {
	switch s {
	case StageInit:
		return "init"
	case StageResolve:
		return "resolve"
	case StageMerge:
		return "merge"
	case StageAnnotate:
		return "annotate"
	case StageVerify:
		return "verify"
	case StageFormat:
		return "format"
	case StageDone:
		return "done"
	case StageFailed:
		return "failed"
	case StageCancelled:
		return "cancelled"
	}
	return "unknown"
}

// Ordinal returns the 1-based position among the six working stages,
// or 0 for terminal states.
func (s Stage) Ordinal() int {
	if s >= StageInit && s <= StageFormat {
		return int(s) + 1
	}
	return 0
}

// Terminal reports whether the stage is an absorbing end state.
func (s Stage) Terminal() bool {
	return s == StageDone || s == StageFailed || s == StageCancelled
}

// Status is the terminal outcome of a run.
type Status int

const (
	StatusDone Status = iota
	StatusFailed
	StatusCancelled
)

func (s Status) String() string {
	switch s {
	case StatusDone:
		return "done"
	case StatusFailed:
		return "failed"
	case StatusCancelled:
		return "cancelled"
	}
	return "unknown"
}

// ProgressEvent is pushed to the external caller after each stage
// transition. Observation only; it never influences control flow.
type ProgressEvent struct {
	RunID   string
	Stage   Stage
	Ordinal int     // 1..6
	Percent float64 // Ordinal/6 * 100
}

// ProgressFunc receives progress events. Must be fast; it runs on the
// pipeline goroutine.
type ProgressFunc func(ProgressEvent)
