package editor

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/signadot/ptsync/debug"
	"github.com/signadot/ptsync/ir"
	"github.com/signadot/ptsync/libdiff"
	"github.com/signadot/ptsync/patch"
	"github.com/signadot/ptsync/schema"
)

var (
	ErrReadOnly = errors.New("editor is read-only")
	ErrNoUndo   = errors.New("nothing to undo")
	ErrNoRedo   = errors.New("nothing to redo")
)

// Memory is a Surface editing an in-memory value.
//
// Incoming patches are applied to the value as they arrive. Local edits are
// applied and reported as a Mutation; each edit records its inverse so that
// Undo and Redo can report the patches reverting or replaying it.
type Memory struct {
	props Props
	log   *slog.Logger
	now   func() time.Time

	mu        sync.Mutex
	value     any
	focused   bool
	selection *Selection
	undo      []step
	redo      []step
	closed    bool
	unsub     func()
}

// step is an entry of the undo or redo stack: the patches that were applied
// and the patches which revert them.
type step struct {
	forward []patch.Patch
	inverse []patch.Patch
}

// NewMemory is a Factory.
func NewMemory(props Props) Surface {
	return NewMemoryEditor(props)
}

func NewMemoryEditor(props Props) *Memory {
	log := props.Log
	if log == nil {
		log = slog.Default()
	}
	m := &Memory{
		props: props,
		log:   log.With("component", "editor"),
		now:   time.Now,
		value: ir.Clone(props.Value),
	}
	if props.Incoming != nil {
		m.unsub = props.Incoming.Subscribe(m.receive)
	}
	m.later(func() {
		m.emit(Ready{})
		m.validate(m.Value())
	})
	return m
}

func (m *Memory) later(fn func()) {
	if m.props.Scheduler == nil {
		fn()
		return
	}
	m.props.Scheduler.Defer(fn)
}

func (m *Memory) emit(c Change) {
	m.mu.Lock()
	closed := m.closed
	m.mu.Unlock()
	if closed || m.props.OnChange == nil {
		return
	}
	if debug.Change() {
		debug.Logf("editor emit %s\n", c)
	}
	m.props.OnChange(c)
}

func (m *Memory) validate(v any) {
	if m.props.Type == nil {
		return
	}
	res, err := schema.Validate(m.props.Type, v)
	if err != nil {
		m.emit(Error{Level: LevelError, Description: err.Error()})
		return
	}
	if res != nil {
		m.emit(InvalidValue{Resolution: res, Value: ir.Clone(v)})
	}
}

func (m *Memory) receive(p patch.Patch) {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	next, err := patch.Apply(m.value, p)
	if err == nil {
		m.value = next
	}
	m.mu.Unlock()
	if err != nil {
		m.log.Warn("incoming patch did not apply", "patch", p.String(), "error", err)
		m.emit(Error{Level: LevelWarning, Description: fmt.Sprintf("incoming patch did not apply: %v", err)})
		return
	}
	m.emit(ValueChange{Value: next})
}

// SetValue replaces the value with one supplied by the form and validates
// it. The undo history is kept.
func (m *Memory) SetValue(v any) {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	same := ir.Equal(m.value, v)
	m.value = ir.Clone(v)
	m.mu.Unlock()
	if same {
		return
	}
	m.validate(v)
}

// Edit applies ps as a local edit and reports them as a Mutation stamped
// with the local origin.
func (m *Memory) Edit(ps ...patch.Patch) error {
	if m.props.ReadOnly {
		return ErrReadOnly
	}
	m.mu.Lock()
	before := m.value
	inverse, err := libdiff.Reverse(before, ps...)
	if err != nil {
		m.mu.Unlock()
		return err
	}
	after, err := patch.Apply(before, ps...)
	if err != nil {
		m.mu.Unlock()
		return err
	}
	m.value = after
	out := patch.WithOrigin(patch.Local, ps...)
	patch.Stamp(patch.Local, m.now(), out)
	m.undo = append(m.undo, step{forward: out, inverse: inverse})
	m.redo = nil
	m.mu.Unlock()

	m.emit(Mutation{Patches: out})
	m.emit(ValueChange{Value: after})
	return nil
}

// Undo reverts the last edit and reports the reverting patches.
func (m *Memory) Undo() error {
	m.mu.Lock()
	if len(m.undo) == 0 {
		m.mu.Unlock()
		return ErrNoUndo
	}
	st := m.undo[len(m.undo)-1]
	next, err := patch.Apply(m.value, st.inverse...)
	if err != nil {
		m.mu.Unlock()
		return fmt.Errorf("undo: %w", err)
	}
	m.undo = m.undo[:len(m.undo)-1]
	m.redo = append(m.redo, st)
	m.value = next
	out := patch.WithOrigin(patch.Local, st.inverse...)
	patch.Stamp(patch.Local, m.now(), out)
	m.mu.Unlock()

	m.emit(Undo{Patches: out})
	m.emit(ValueChange{Value: next})
	return nil
}

// Redo replays the last undone edit and reports its patches.
func (m *Memory) Redo() error {
	m.mu.Lock()
	if len(m.redo) == 0 {
		m.mu.Unlock()
		return ErrNoRedo
	}
	st := m.redo[len(m.redo)-1]
	next, err := patch.Apply(m.value, st.forward...)
	if err != nil {
		m.mu.Unlock()
		return fmt.Errorf("redo: %w", err)
	}
	m.redo = m.redo[:len(m.redo)-1]
	m.undo = append(m.undo, st)
	m.value = next
	out := patch.WithOrigin(patch.Local, st.forward...)
	patch.Stamp(patch.Local, m.now(), out)
	m.mu.Unlock()

	m.emit(Redo{Patches: out})
	m.emit(ValueChange{Value: next})
	return nil
}

// Select moves the selection; nil clears it.
func (m *Memory) Select(sel *Selection) {
	m.mu.Lock()
	m.selection = sel
	m.mu.Unlock()
	m.emit(SelectionChange{Selection: sel})
}

// Report emits an Error change.
func (m *Memory) Report(level Level, desc string) {
	m.emit(Error{Level: level, Description: desc})
}

func (m *Memory) Focus() {
	m.mu.Lock()
	m.focused = true
	m.mu.Unlock()
	m.emit(Focus{})
}

func (m *Memory) Blur() {
	m.mu.Lock()
	was := m.focused
	m.focused = false
	m.mu.Unlock()
	if was {
		m.emit(Blur{})
	}
}

// Close unsubscribes from incoming patches. No changes are reported
// afterwards.
func (m *Memory) Close() {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.closed = true
	unsub := m.unsub
	m.mu.Unlock()
	if unsub != nil {
		unsub()
	}
}

func (m *Memory) Value() any {
	m.mu.Lock()
	defer m.mu.Unlock()
	return ir.Clone(m.value)
}

func (m *Memory) Focused() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.focused
}

func (m *Memory) ReadOnly() bool {
	return m.props.ReadOnly
}

func (m *Memory) Selection() *Selection {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.selection
}
