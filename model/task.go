package model

import "time"

// TaskKind identifies the unit of work a task runs.
type TaskKind string

const (
	TaskKindSeparate TaskKind = "separate"
	TaskKindEffect   TaskKind = "effect"
)

// TaskStatus is the lifecycle state of a task. Transitions are strictly
// queued -> processing -> completed|failed, and a terminal state is final.
type TaskStatus string

const (
	TaskQueued     TaskStatus = "queued"
	TaskProcessing TaskStatus = "processing"
	TaskCompleted  TaskStatus = "completed"
	TaskFailed     TaskStatus = "failed"
)

// Terminal reports whether the status is a final one.
func (s TaskStatus) Terminal() bool {
	return s == TaskCompleted || s == TaskFailed
}

// SeparationResult holds the output paths of a vocal/instrumental split.
type SeparationResult struct {
	VocalPath        string `json:"vocals"`
	InstrumentalPath string `json:"instruments"`
}

// EffectResult holds the output path of an applied effect.
type EffectResult struct {
	OutputPath string `json:"outputFile"`
}

// TaskResult is the variant result of a completed task. Exactly one field is
// set, matching the task's kind.
type TaskResult struct {
	Separation *SeparationResult `json:"separation,omitempty"`
	Effect     *EffectResult     `json:"effect,omitempty"`
}

// Task is the mutable record tracked by the engine. All fields are owned by
// the engine and only read elsewhere through TaskView snapshots.
type Task struct {
	ID        string
	Kind      TaskKind
	Status    TaskStatus
	Progress  int
	CreatedAt time.Time
	Result    *TaskResult
	Error     string
}

// TaskView is an immutable snapshot of a task, safe to hand to pollers while
// the worker is still running.
type TaskView struct {
	ID        string      `json:"id"`
	Kind      TaskKind    `json:"kind"`
	Status    TaskStatus  `json:"status"`
	Progress  int         `json:"progress"`
	CreatedAt time.Time   `json:"createdAt"`
	Result    *TaskResult `json:"result,omitempty"`
	Error     string      `json:"error,omitempty"`
}

// EffectConfig is a validated effect request: a supported effect name plus a
// user-facing 0-100 intensity knob.
type EffectConfig struct {
	Name      string `json:"effect"`
	Intensity int    `json:"intensity"`
}
