package psu

import "sync"

// Queue is a FIFO of commands with a blocking Pop. Any number of goroutines
// may Push; exactly one goroutine is expected to Pop.
type Queue struct {
	mu    sync.Mutex
	cond  *sync.Cond
	items []*Command
}

// NewQueue returns an empty queue.
func NewQueue() *Queue {
	q := &Queue{}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// Push appends cmd and wakes one waiting consumer.
func (q *Queue) Push(cmd *Command) {
	q.mu.Lock()
	q.items = append(q.items, cmd)
	q.mu.Unlock()
	q.cond.Signal()
}

// Pop blocks until the queue is non-empty and removes the head.
func (q *Queue) Pop() *Command {
	q.mu.Lock()
	defer q.mu.Unlock()

	for len(q.items) == 0 {
		q.cond.Wait()
	}
	cmd := q.items[0]
	q.items[0] = nil
	q.items = q.items[1:]
	return cmd
}

// Empty reports whether the queue currently holds no commands.
func (q *Queue) Empty() bool {
	return q.Len() == 0
}

// Len returns the current backlog.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Clear drops all queued commands.
func (q *Queue) Clear() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.items = nil
}
