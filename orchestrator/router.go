package orchestrator

import (
	"fmt"

	"github.com/mblakley/video-grouper/task"
)

// Enqueuer matches every stage queue's AddWork signature.
type Enqueuer interface {
	AddWork(t task.Task) error
}

// TaskRouter routes a task to the processor owning its queue, letting
// stages (and the Auditor) enqueue follow-up work without holding direct
// references to one another's processors. Grounded on
// original_source/.../task_queue_service.py's TaskQueueService, adapted
// from its named `set_video_processor`/`set_upload_processor`/
// `set_download_processor` setters plus an if/elif chain on queue_type to a
// small map keyed by task.Queue, since Go's routing can be data rather than
// a chain of identically-shaped branches.
type TaskRouter struct {
	queues map[task.Queue]Enqueuer
}

// NewTaskRouter builds an empty router. Queues are wired in with Register
// once their owning processors exist, which breaks the construction-order
// cycle between a stage's processor (which needs the router to enqueue its
// own follow-up work) and the router (which needs the stage's queue).
func NewTaskRouter() *TaskRouter {
	return &TaskRouter{queues: map[task.Queue]Enqueuer{}}
}

// Register wires q as the destination for tasks routed to queueName.
func (r *TaskRouter) Register(queueName task.Queue, q Enqueuer) {
	r.queues[queueName] = q
}

// AddWork routes t to its queue's processor (§9 QueueType). An unknown or
// unavailable queue is an error rather than a silent drop, mirroring the
// Python original's "No queue processor available" log-and-return-false.
func (r *TaskRouter) AddWork(t task.Task) error {
	q, ok := r.queues[t.QueueName()]
	if !ok || q == nil {
		return fmt.Errorf("no processor available for queue %q (task type %q)", t.QueueName(), t.Type)
	}
	return q.AddWork(t)
}
