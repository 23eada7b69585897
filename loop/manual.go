package loop

import "sync"

// Manual is a Scheduler whose tasks run only when the caller asks.
type Manual struct {
	mu    sync.Mutex
	queue []func()
}

func NewManual() *Manual {
	return &Manual{}
}

func (m *Manual) Defer(fn func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queue = append(m.queue, fn)
}

// Pending returns the number of queued tasks.
func (m *Manual) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.queue)
}

// Step runs the tasks queued at the time of the call and returns how many
// ran. Tasks they defer wait for the next Step.
func (m *Manual) Step() int {
	m.mu.Lock()
	q := m.queue
	m.queue = nil
	m.mu.Unlock()
	for _, fn := range q {
		fn()
	}
	return len(q)
}

// RunPending steps until the queue is empty and returns the number of
// tasks run.
func (m *Manual) RunPending() int {
	n := 0
	for {
		k := m.Step()
		if k == 0 {
			return n
		}
		n += k
	}
}
