package ptinput

import (
	"github.com/signadot/ptsync/editor"
	"github.com/signadot/ptsync/ir"
)

func (in *Input) selectionChanged(sel *editor.Selection) {
	if sel == nil || sel.Focus == nil {
		return
	}
	in.mu.Lock()
	if sel.Focus.Equal(in.focusPath) {
		in.mu.Unlock()
		return
	}
	p := sel.Focus.Clone()
	in.focusPath = p
	in.mu.Unlock()

	in.later(func() {
		if in.cfg.OnFocus != nil {
			in.cfg.OnFocus(p.Clone())
		}
	})
}

// SetFocusPath records the focus path held by the form. A selection at
// this path is not reported back.
func (in *Input) SetFocusPath(p ir.Path) {
	in.mu.Lock()
	defer in.mu.Unlock()
	in.focusPath = p.Clone()
}

// FocusPath returns the tracked focus path.
func (in *Input) FocusPath() ir.Path {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.focusPath.Clone()
}

// HasFocus reports whether the surface has focus.
func (in *Input) HasFocus() bool {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.hasFocus
}

// GoToContent asks the surface to take focus.
func (in *Input) GoToContent() {
	if s := in.Surface(); s != nil {
		s.Focus()
	}
}

// Handle commands focus on an input's surface.
type Handle struct {
	in *Input
}

// Handle returns the imperative focus handle of the input.
func (in *Input) Handle() *Handle {
	return &Handle{in: in}
}

// Focus focuses the surface. Without a surface it does nothing.
func (h *Handle) Focus() {
	if s := h.in.Surface(); s != nil {
		s.Focus()
	}
}

// Blur blurs the surface. Without a surface it does nothing.
func (h *Handle) Blur() {
	if s := h.in.Surface(); s != nil {
		s.Blur()
	}
}
