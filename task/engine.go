// Package task implements the asynchronous task engine: task identity,
// lifecycle, progress propagation and a polling read API. Each submitted unit
// of work runs on its own goroutine; the registry is the only shared mutable
// state and every access goes through the engine's lock.
package task

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"audiofx/logger"
	"audiofx/model"
)

// ErrTaskNotFound indicates an unknown or already-reaped task id. Distinct
// from a failed task, which still reports its status.
var ErrTaskNotFound = errors.New("task: not found")

// Work is a unit of background work. It reports coarse progress through the
// callback and returns either a result or an error; panics are contained at
// the worker boundary and recorded as failures.
type Work func(report func(percent int)) (*model.TaskResult, error)

// Engine owns the task registry. Construct with New, pass it explicitly to
// the HTTP layer, and Close it on shutdown to stop the reaper.
type Engine struct {
	mu    sync.RWMutex
	tasks map[string]*model.Task
	subs  map[string][]chan model.TaskView

	retention time.Duration
	sweep     time.Duration

	done      chan struct{}
	closeOnce sync.Once
}

// New creates an engine whose reaper removes terminal tasks older than
// retention, checking every sweep interval.
func New(retention, sweep time.Duration) *Engine {
	e := &Engine{
		tasks:     make(map[string]*model.Task),
		subs:      make(map[string][]chan model.TaskView),
		retention: retention,
		sweep:     sweep,
		done:      make(chan struct{}),
	}
	go e.reapLoop()
	return e
}

// Close stops the reaper. Running workers are not interrupted; they finish
// and record their terminal state as usual.
func (e *Engine) Close() {
	e.closeOnce.Do(func() {
		close(e.done)
	})
}

// Submit registers a task in the queued state, starts a dedicated worker
// goroutine for it and returns the generated id immediately.
func (e *Engine) Submit(kind model.TaskKind, work Work) string {
	id := uuid.NewString()
	t := &model.Task{
		ID:        id,
		Kind:      kind,
		Status:    model.TaskQueued,
		CreatedAt: time.Now(),
	}

	e.mu.Lock()
	e.tasks[id] = t
	e.mu.Unlock()

	go e.run(id, work)

	logger.Debug("task submitted", logger.String("id", id), logger.String("kind", string(kind)))
	return id
}

// SubmitCompleted registers a task that is already done, e.g. when a cached
// result makes recomputation unnecessary. The caller still polls it like any
// other task.
func (e *Engine) SubmitCompleted(kind model.TaskKind, result *model.TaskResult) string {
	id := uuid.NewString()
	t := &model.Task{
		ID:        id,
		Kind:      kind,
		Status:    model.TaskCompleted,
		Progress:  100,
		CreatedAt: time.Now(),
		Result:    result,
	}

	e.mu.Lock()
	e.tasks[id] = t
	e.mu.Unlock()
	return id
}

// Status returns a consistent snapshot of the task. Safe to call while the
// worker is mid-update; readers never observe a half-written task.
func (e *Engine) Status(id string) (model.TaskView, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	t, ok := e.tasks[id]
	if !ok {
		return model.TaskView{}, ErrTaskNotFound
	}
	return snapshot(t), nil
}

// Count returns the number of tracked tasks.
func (e *Engine) Count() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.tasks)
}

// Subscribe returns a channel of task snapshots emitted on every state or
// progress change, plus a cancel function. The channel is closed once the
// task reaches a terminal state (subscribing to an already-terminal task
// yields its final snapshot immediately).
func (e *Engine) Subscribe(id string) (<-chan model.TaskView, func(), error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	t, ok := e.tasks[id]
	if !ok {
		return nil, nil, ErrTaskNotFound
	}

	ch := make(chan model.TaskView, 8)
	ch <- snapshot(t)
	if t.Status.Terminal() {
		close(ch)
		return ch, func() {}, nil
	}

	e.subs[id] = append(e.subs[id], ch)
	cancel := func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		chans := e.subs[id]
		for i, c := range chans {
			if c == ch {
				e.subs[id] = append(chans[:i], chans[i+1:]...)
				return
			}
		}
	}
	return ch, cancel, nil
}

// run is the worker boundary: it moves the task to processing, executes the
// work and records exactly one terminal transition. Panics inside the
// algorithm are contained here and never affect other tasks.
func (e *Engine) run(id string, work Work) {
	defer func() {
		if r := recover(); r != nil {
			e.fail(id, fmt.Errorf("internal processing error: %v", r))
		}
	}()

	e.setProcessing(id)

	result, err := work(func(percent int) {
		e.reportProgress(id, percent)
	})
	if err != nil {
		e.fail(id, err)
		return
	}
	e.complete(id, result)
}

func (e *Engine) setProcessing(id string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	t, ok := e.tasks[id]
	if !ok || t.Status != model.TaskQueued {
		return
	}
	t.Status = model.TaskProcessing
	t.Progress = 0
	e.notifyLocked(id, t)
}

// reportProgress clamps percent to [0, 100] and keeps progress monotonic;
// late out-of-order reports are ignored.
func (e *Engine) reportProgress(id string, percent int) {
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	t, ok := e.tasks[id]
	if !ok || t.Status != model.TaskProcessing {
		return
	}
	if percent <= t.Progress {
		return
	}
	t.Progress = percent
	e.notifyLocked(id, t)
}

func (e *Engine) complete(id string, result *model.TaskResult) {
	e.mu.Lock()
	defer e.mu.Unlock()

	t, ok := e.tasks[id]
	if !ok || t.Status.Terminal() {
		return
	}
	t.Status = model.TaskCompleted
	t.Progress = 100
	t.Result = result
	e.notifyLocked(id, t)
	e.closeSubsLocked(id)

	logger.Info("task completed", logger.String("id", id), logger.String("kind", string(t.Kind)))
}

func (e *Engine) fail(id string, err error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	t, ok := e.tasks[id]
	if !ok || t.Status.Terminal() {
		return
	}
	t.Status = model.TaskFailed
	t.Error = err.Error()
	e.notifyLocked(id, t)
	e.closeSubsLocked(id)

	logger.Warn("task failed",
		logger.String("id", id),
		logger.String("kind", string(t.Kind)),
		logger.ErrorField(err))
}

// notifyLocked pushes the latest snapshot to subscribers without blocking.
// Slow consumers may miss intermediate updates; a terminal snapshot evicts
// the oldest buffered one instead of being dropped.
func (e *Engine) notifyLocked(id string, t *model.Task) {
	view := snapshot(t)
	for _, ch := range e.subs[id] {
		select {
		case ch <- view:
			continue
		default:
		}
		if view.Status.Terminal() {
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- view:
			default:
			}
		}
	}
}

func (e *Engine) closeSubsLocked(id string) {
	for _, ch := range e.subs[id] {
		close(ch)
	}
	delete(e.subs, id)
}

// reapLoop periodically removes terminal tasks past the retention window.
// In-flight tasks are never reaped.
func (e *Engine) reapLoop() {
	ticker := time.NewTicker(e.sweep)
	defer ticker.Stop()

	for {
		select {
		case <-e.done:
			return
		case now := <-ticker.C:
			e.reap(now)
		}
	}
}

func (e *Engine) reap(now time.Time) {
	e.mu.Lock()
	defer e.mu.Unlock()

	for id, t := range e.tasks {
		if t.Status.Terminal() && now.Sub(t.CreatedAt) > e.retention {
			delete(e.tasks, id)
			logger.Debug("task reaped", logger.String("id", id))
		}
	}
}

func snapshot(t *model.Task) model.TaskView {
	return model.TaskView{
		ID:        t.ID,
		Kind:      t.Kind,
		Status:    t.Status,
		Progress:  t.Progress,
		CreatedAt: t.CreatedAt,
		Result:    t.Result,
		Error:     t.Error,
	}
}
