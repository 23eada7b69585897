package ptinput

import (
	"github.com/signadot/ptsync/debug"
	"github.com/signadot/ptsync/editor"
	"github.com/signadot/ptsync/notify"
	"github.com/signadot/ptsync/patch"
)

// HandleChange routes a change reported by the surface. It never fails;
// changes it does not know are ignored. After Unmount it does nothing.
func (in *Input) HandleChange(c editor.Change) {
	if !in.live() {
		return
	}
	if debug.Change() {
		debug.Logf("change %s: %s\n", in.id, c)
	}
	switch c := c.(type) {
	case editor.Mutation:
		ps := append([]patch.Patch(nil), c.Patches...)
		in.later(func() { in.emitChange("mutation", ps) })

	case editor.SelectionChange:
		in.selectionChanged(c.Selection)

	case editor.Focus:
		in.mu.Lock()
		in.hasFocus = true
		in.mu.Unlock()

	case editor.Blur:
		in.mu.Lock()
		in.hasFocus = false
		in.mu.Unlock()
		if in.cfg.OnBlur != nil {
			in.cfg.OnBlur()
		}

	case editor.Undo:
		in.emitChange("undo", c.Patches)

	case editor.Redo:
		in.emitChange("redo", c.Patches)

	case editor.InvalidValue:
		in.enterGuard(InvalidValue{Value: c.Value, Resolution: c.Resolution})

	case editor.Error:
		n := notify.Notification{Severity: severity(c.Level), Description: c.Description}
		in.log.Debug("surface error", "level", c.Level, "description", c.Description)
		in.metrics.notifications.WithLabelValues(string(n.Severity)).Inc()
		in.cfg.Notify.Push(n)

	default:
		in.log.Debug("ignoring change", "change", c.String())
	}
}

func (in *Input) emitChange(kind string, ps []patch.Patch) {
	in.metrics.outbound.WithLabelValues(kind).Inc()
	if in.cfg.OnChange != nil {
		in.cfg.OnChange(ps)
	}
}

func severity(l editor.Level) notify.Severity {
	switch l {
	case editor.LevelError:
		return notify.Error
	case editor.LevelWarning:
		return notify.Warning
	default:
		return notify.Info
	}
}
