// Package notify delivers user-facing notifications raised while editing.
package notify

import (
	"fmt"
	"sync"
)

type Severity string

const (
	Error   Severity = "error"
	Warning Severity = "warning"
	Info    Severity = "info"
)

type Notification struct {
	Severity    Severity `json:"severity" yaml:"severity"`
	Title       string   `json:"title,omitempty" yaml:"title,omitempty"`
	Description string   `json:"description" yaml:"description"`
}

func (n Notification) String() string {
	if n.Title == "" {
		return fmt.Sprintf("%s: %s", n.Severity, n.Description)
	}
	return fmt.Sprintf("%s: %s: %s", n.Severity, n.Title, n.Description)
}

// Sink receives notifications. Push must not block for long.
type Sink interface {
	Push(Notification)
}

// Func adapts a function to a Sink.
type Func func(Notification)

func (f Func) Push(n Notification) { f(n) }

// Tee pushes to every sink in order.
func Tee(sinks ...Sink) Sink {
	return Func(func(n Notification) {
		for _, s := range sinks {
			s.Push(n)
		}
	})
}

// Recorder is a Sink keeping what it receives.
type Recorder struct {
	mu  sync.Mutex
	all []Notification
}

func (r *Recorder) Push(n Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.all = append(r.all, n)
}

func (r *Recorder) Notifications() []Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Notification(nil), r.all...)
}
