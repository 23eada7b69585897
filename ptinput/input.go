package ptinput

import (
	"context"
	"log/slog"
	"sync"

	"github.com/signadot/ptsync/editor"
	"github.com/signadot/ptsync/ir"
	"github.com/signadot/ptsync/loop"
	"github.com/signadot/ptsync/notify"
	"github.com/signadot/ptsync/patch"
	"github.com/signadot/ptsync/patchchan"
	"github.com/signadot/ptsync/schema"
	"github.com/signadot/ptsync/transport"

	"github.com/oklog/ulid/v2"
	"github.com/prometheus/client_golang/prometheus"
)

type Config struct {
	// Value is the initial value of the field.
	Value any
	Type  *schema.Type
	// ReadOnly is the form's read-only state. A read-only Type makes the
	// input read-only regardless.
	ReadOnly  bool
	FocusPath ir.Path

	// Transport delivers patches made elsewhere. May be nil.
	Transport transport.Subscriber
	// Editor creates the surface; defaults to editor.NewMemory.
	Editor editor.Factory
	// Scheduler runs deferred callbacks. When nil the Input runs its own
	// loop.Loop on a goroutine until Unmount.
	Scheduler loop.Scheduler

	OnChange func([]patch.Patch)
	OnFocus  func(ir.Path)
	OnBlur   func()
	Notify   notify.Sink

	Log        *slog.Logger
	Registerer prometheus.Registerer
}

// Input is one mounted portable text field.
type Input struct {
	cfg     Config
	id      string
	log     *slog.Logger
	sched   loop.Scheduler
	own     *loop.Loop
	channel *patchchan.Channel
	metrics *metrics

	mu         sync.Mutex
	mounted    bool
	unmounted  bool
	unmount    sync.Once
	unsub      func()
	surface    editor.Surface
	value      any
	snapshot   any
	readOnly   bool
	fullscreen bool
	hasFocus   bool
	focusPath  ir.Path
	invalid    *InvalidValue
	suppressed bool
}

// New creates an unmounted Input from cfg.
func New(cfg *Config) *Input {
	c := *cfg
	if c.Editor == nil {
		c.Editor = editor.NewMemory
	}
	if c.Notify == nil {
		c.Notify = notify.Func(func(notify.Notification) {})
	}
	log := c.Log
	if log == nil {
		log = slog.Default()
	}
	id := ulid.Make().String()
	in := &Input{
		cfg:       c,
		id:        id,
		log:       log.With("component", "ptinput", "editor", id),
		sched:     c.Scheduler,
		channel:   patchchan.New(),
		value:     ir.Clone(c.Value),
		readOnly:  c.ReadOnly,
		focusPath: c.FocusPath.Clone(),
	}
	if in.sched == nil {
		in.own = loop.New(&loop.Config{Log: log})
		in.sched = in.own
		go func() {
			_ = in.own.Run(context.Background())
		}()
	}
	in.metrics = newMetrics(c.Registerer, id)
	return in
}

// ID returns the editor identity token of the input.
func (in *Input) ID() string {
	return in.id
}

// Channel returns the channel remote patches are forwarded on.
func (in *Input) Channel() *patchchan.Channel {
	return in.channel
}

// Mount creates the surface and then subscribes to the transport, so that
// the surface is listening on the channel before the first batch can
// arrive. Calling it again, or after Unmount, does nothing.
func (in *Input) Mount() {
	in.mu.Lock()
	if in.mounted || in.unmounted {
		in.mu.Unlock()
		return
	}
	in.mounted = true
	in.mu.Unlock()

	in.remount()
	if in.cfg.Transport != nil {
		unsub := in.cfg.Transport.Subscribe(in.ingest)
		in.mu.Lock()
		if in.unmounted {
			// unmounted while subscribing
			in.mu.Unlock()
			unsub()
			return
		}
		in.unsub = unsub
		in.mu.Unlock()
	}
	in.log.Debug("mounted")
}

// Unmount releases the transport subscription, closes the channel and the
// surface, and stops all further callbacks, including deferred ones
// already scheduled. It is safe to call more than once, and concurrently
// with Mount.
func (in *Input) Unmount() {
	in.unmount.Do(func() {
		in.mu.Lock()
		in.unmounted = true
		unsub := in.unsub
		in.unsub = nil
		surface := in.surface
		in.surface = nil
		in.mu.Unlock()

		if unsub != nil {
			unsub()
		}
		in.channel.Close()
		if c, ok := surface.(editor.Closer); ok {
			c.Close()
		}
		in.metrics.unregister()
		if in.own != nil {
			in.own.Close()
		}
		in.log.Debug("unmounted")
	})
}

// remount replaces the surface with a new one created from the current
// value and read-only state. The new surface subscribes to the channel
// before the old one is closed.
func (in *Input) remount() {
	in.mu.Lock()
	if !in.mounted || in.unmounted {
		in.mu.Unlock()
		return
	}
	props := editor.Props{
		Value:     ir.Clone(in.value),
		ReadOnly:  in.readOnlyLocked(),
		Type:      in.cfg.Type,
		Incoming:  in.channel,
		OnChange:  in.HandleChange,
		Scheduler: in.sched,
		Log:       in.log,
	}
	in.mu.Unlock()

	surface := in.cfg.Editor(props)

	in.mu.Lock()
	if in.unmounted {
		in.mu.Unlock()
		if c, ok := surface.(editor.Closer); ok {
			c.Close()
		}
		return
	}
	old := in.surface
	in.surface = surface
	in.mu.Unlock()

	if c, ok := old.(editor.Closer); ok {
		c.Close()
	}
}

// Surface returns the current surface, or nil when not mounted.
func (in *Input) Surface() editor.Surface {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.surface
}

// SetValue supplies a new value from the form. A value different from the
// one captured by the invalid-value guard clears it.
func (in *Input) SetValue(v any) {
	in.mu.Lock()
	if in.unmounted {
		in.mu.Unlock()
		return
	}
	in.value = ir.Clone(v)
	in.clearGuardLocked(v)
	surface := in.surface
	in.mu.Unlock()

	if s, ok := surface.(editor.Valuer); ok {
		s.SetValue(v)
	}
}

// Value returns a copy of the last value supplied by the form.
func (in *Input) Value() any {
	in.mu.Lock()
	defer in.mu.Unlock()
	return ir.Clone(in.value)
}

// Snapshot returns the document snapshot delivered with the last batch, or
// nil if that batch carried none.
func (in *Input) Snapshot() any {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.snapshot
}

// SetReadOnly changes the read-only state given by the form; the surface is
// recreated when the effective state changes.
func (in *Input) SetReadOnly(ro bool) {
	in.mu.Lock()
	before := in.readOnlyLocked()
	in.readOnly = ro
	changed := before != in.readOnlyLocked()
	in.mu.Unlock()
	if changed {
		in.remount()
	}
}

// ReadOnly reports whether the field is read-only, either because the form
// says so or because its schema type does.
func (in *Input) ReadOnly() bool {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.readOnlyLocked()
}

func (in *Input) readOnlyLocked() bool {
	return in.readOnly || (in.cfg.Type != nil && in.cfg.Type.ReadOnly)
}

// ToggleFullscreen flips between inline and fullscreen presentation.
func (in *Input) ToggleFullscreen() {
	in.mu.Lock()
	defer in.mu.Unlock()
	in.fullscreen = !in.fullscreen
}

// Fullscreen reports the presentation mode.
func (in *Input) Fullscreen() bool {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.fullscreen
}

// View is what the surrounding UI should render.
type View struct {
	ShowResolution  bool
	ShowEditor      bool
	ShowGoToContent bool
	HasFocus        bool
	Fullscreen      bool
	ReadOnly        bool
	Resolution      *schema.Resolution

	// Title and Description label the field, from its schema type.
	Title       string
	Description string
}

func (in *Input) View() View {
	in.mu.Lock()
	defer in.mu.Unlock()
	blocked := in.invalid != nil && !in.suppressed
	ro := in.readOnlyLocked()
	v := View{
		ShowResolution:  blocked,
		ShowEditor:      !blocked,
		ShowGoToContent: !blocked && !ro && !in.hasFocus,
		HasFocus:        in.hasFocus,
		Fullscreen:      in.fullscreen,
		ReadOnly:        ro,
	}
	if t := in.cfg.Type; t != nil {
		v.Title = t.Title
		v.Description = t.Description
	}
	if blocked {
		v.Resolution = in.invalid.Resolution
	}
	return v
}

func (in *Input) live() bool {
	in.mu.Lock()
	defer in.mu.Unlock()
	return !in.unmounted
}

// later runs fn on the scheduler unless the input has been unmounted by
// then.
func (in *Input) later(fn func()) {
	in.sched.Defer(func() {
		if in.live() {
			fn()
		}
	})
}
