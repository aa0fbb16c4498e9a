// Package queueproc implements the Queue Processor Base (§4.1): a durable,
// at-most-once, in-order FIFO queue with dedup-by-key, backing every stage
// (Download, Video, Upload). Grounded on the Python original's
// QueueProcessor (queue_processor_base.py) base class, adapted to Go's
// goroutine-and-channel scheduling discipline per Design Note "Async I/O and
// cancellation": one worker goroutine, no separate coroutine racing a
// shutdown event against a queue read.
package queueproc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/mblakley/video-grouper/log"
	"github.com/mblakley/video-grouper/task"
)

// ProcessFunc is stage-specific work (§4.1 `process_item`). Its error is
// logged and swallowed by the worker loop: the task is removed from the
// queue regardless of outcome, since retry is the Auditor's job, not
// in-queue redelivery.
type ProcessFunc func(ctx context.Context, t task.Task) error

// Processor is one stage's durable FIFO queue and worker loop.
type Processor struct {
	name      string
	statePath string
	process   ProcessFunc

	mu      sync.Mutex
	pending []task.Task
	keys    map[string]struct{}

	wake     chan struct{}
	shutdown chan struct{}
	stopped  chan struct{}
}

// New builds a Processor. name identifies the stage in logs; statePath is
// the durable queue file (e.g. download_queue_state.json, §6).
func New(name, statePath string, process ProcessFunc) *Processor {
	return &Processor{
		name:      name,
		statePath: statePath,
		process:   process,
		keys:      map[string]struct{}{},
		wake:      make(chan struct{}, 1),
		shutdown:  make(chan struct{}),
		stopped:   make(chan struct{}),
	}
}

// AddWork enqueues t iff task_key(t) is not already known to this stage
// (pending or currently executing), persisting the updated queue before
// returning (§4.1).
func (p *Processor) AddWork(t task.Task) error {
	key := t.Key()

	p.mu.Lock()
	if _, exists := p.keys[key]; exists {
		p.mu.Unlock()
		return nil
	}
	p.keys[key] = struct{}{}
	p.pending = append(p.pending, t)
	err := p.saveLocked()
	p.mu.Unlock()

	if err != nil {
		return err
	}
	log.Log(p.name, "enqueued task", "task_key", key)
	p.signal()
	return nil
}

// QueueLen returns the number of tasks currently pending (not counting the
// one, if any, being executed right now).
func (p *Processor) QueueLen() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.pending)
}

func (p *Processor) signal() {
	select {
	case p.wake <- struct{}{}:
	default:
	}
}

// Start loads persisted tasks in file order into the pending queue, then
// spawns the single worker loop (§4.1).
func (p *Processor) Start() error {
	if err := p.load(); err != nil {
		return err
	}
	go p.run()
	return nil
}

// Stop signals shutdown and blocks until the worker has exited. A task
// already popped and mid-execution runs to completion before the loop
// checks shutdown and exits; nothing is ever popped without being started
// in the same step, so there is no "popped but not started" item to return
// to the queue (§4.1 shutdown semantics, simplified per Design Note "keep a
// single scheduling discipline throughout").
func (p *Processor) Stop() {
	close(p.shutdown)
	<-p.stopped
}

func (p *Processor) run() {
	defer close(p.stopped)
	for {
		select {
		case <-p.shutdown:
			return
		default:
		}

		t, ok := p.popNext()
		if !ok {
			select {
			case <-p.shutdown:
				return
			case <-p.wake:
				continue
			}
		}

		if err := p.process(context.Background(), t); err != nil {
			log.LogError(p.name, "task failed", err, "task_key", t.Key())
		}
		p.completeLocked(t.Key())
	}
}

// popNext removes and returns the head of the pending queue, persisting the
// queue file without it (so the on-disk file and the "currently executing"
// set are always disjoint and together cover every live key).
func (p *Processor) popNext() (task.Task, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.pending) == 0 {
		return task.Task{}, false
	}
	t := p.pending[0]
	p.pending = p.pending[1:]
	if err := p.saveLocked(); err != nil {
		log.LogError(p.name, "error persisting queue after pop", err)
	}
	return t, true
}

// completeLocked removes key from the dedup set once its task has finished
// processing (success or failure — §4.1, failures are logged and swallowed).
func (p *Processor) completeLocked(key string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.keys, key)
}

func (p *Processor) saveLocked() error {
	data, err := json.MarshalIndent(p.pending, "", "  ")
	if err != nil {
		return fmt.Errorf("%s: marshalling queue state: %w", p.name, err)
	}
	tmp := p.statePath + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("%s: writing %s: %w", p.name, tmp, err)
	}
	if err := os.Rename(tmp, p.statePath); err != nil {
		return fmt.Errorf("%s: renaming %s to %s: %w", p.name, tmp, p.statePath, err)
	}
	return nil
}

func (p *Processor) load() error {
	data, err := os.ReadFile(p.statePath)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("%s: reading %s: %w", p.name, p.statePath, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}

	var tasks []task.Task
	if err := json.Unmarshal(data, &tasks); err != nil {
		return fmt.Errorf("%s: unmarshalling %s: %w", p.name, p.statePath, err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	for _, t := range tasks {
		key := t.Key()
		if _, exists := p.keys[key]; exists {
			continue
		}
		p.keys[key] = struct{}{}
		p.pending = append(p.pending, t)
	}
	if len(p.pending) > 0 {
		p.signal()
	}
	log.Log(p.name, "loaded persisted queue", "count", len(tasks))
	return nil
}
