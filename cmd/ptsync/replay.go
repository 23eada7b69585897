package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/signadot/ptsync/editor"
	"github.com/signadot/ptsync/ir"
	"github.com/signadot/ptsync/loop"
	"github.com/signadot/ptsync/notify"
	"github.com/signadot/ptsync/patch"
	"github.com/signadot/ptsync/ptinput"
	"github.com/signadot/ptsync/transport"

	"github.com/scott-cotton/cli"
)

// Session is a scripted editing session.
type Session struct {
	Value     any     `json:"value"`
	ReadOnly  bool    `json:"readOnly,omitempty"`
	FocusPath ir.Path `json:"focusPath,omitempty"`
	Steps     []Step  `json:"steps"`
}

// Step is one step of a session. When a step sets more than one field they
// are performed in the order of the fields below.
type Step struct {
	Comment string `json:"comment,omitempty"`

	// Remote patches arrive from the transport, Edit patches are made on
	// the surface.
	Remote   []patch.Patch   `json:"remote,omitempty"`
	Snapshot any             `json:"snapshot,omitempty"`
	Edit     []patch.Patch   `json:"edit,omitempty"`
	Value    json.RawMessage `json:"value,omitempty"`

	Select      *string `json:"select,omitempty"`
	FocusPath   *string `json:"focusPath,omitempty"`
	Focus       bool    `json:"focus,omitempty"`
	Blur        bool    `json:"blur,omitempty"`
	GoToContent bool    `json:"goToContent,omitempty"`
	Undo        bool    `json:"undo,omitempty"`
	Redo        bool    `json:"redo,omitempty"`
	Ignore      bool    `json:"ignore,omitempty"`
	Resolve     bool    `json:"resolve,omitempty"`
	ReadOnly    *bool   `json:"readOnly,omitempty"`
	Fullscreen  bool    `json:"fullscreen,omitempty"`
	Error       *struct {
		Level       editor.Level `json:"level"`
		Description string       `json:"description"`
	} `json:"error,omitempty"`
}

func replay(cfg *ReplayConfig, cc *cli.Context, args []string) error {
	args, err := cfg.Replay.Parse(cc, args)
	if err != nil {
		return err
	}
	if len(args) != 1 {
		return fmt.Errorf("%w: expected a session file", cli.ErrUsage)
	}
	sess := &Session{}
	if err := readValue(cc, args[0], sess); err != nil {
		return fmt.Errorf("error reading session: %w", err)
	}
	r, err := newReplayer(cfg, cc.Out, sess)
	if err != nil {
		return err
	}
	defer r.in.Unmount()
	for i := range sess.Steps {
		if err := r.step(i, &sess.Steps[i]); err != nil {
			return fmt.Errorf("step %d: %w", i, err)
		}
	}
	fmt.Fprintln(cc.Out, "value:")
	if err := cfg.output(cc.Out, r.memory().Value()); err != nil {
		return err
	}
	fmt.Fprintln(cc.Out, "view:")
	return cfg.output(cc.Out, r.in.View())
}

type replayer struct {
	w       io.Writer
	in      *ptinput.Input
	hub     *transport.Hub
	sched   *loop.Manual
	console notify.Sink
}

func newReplayer(cfg *ReplayConfig, w io.Writer, sess *Session) (*replayer, error) {
	r := &replayer{
		w:       w,
		hub:     transport.NewHub(cfg.Log),
		sched:   loop.NewManual(),
		console: cfg.console(w),
	}
	inCfg := &ptinput.Config{
		Value:     sess.Value,
		ReadOnly:  sess.ReadOnly,
		FocusPath: sess.FocusPath,
		Transport: r.hub,
		Scheduler: r.sched,
		OnChange:  r.onChange,
		OnFocus: func(p ir.Path) {
			fmt.Fprintf(w, "  focus %s\n", p)
		},
		OnBlur: func() {
			fmt.Fprintln(w, "  blur")
		},
		Notify: notify.Func(func(n notify.Notification) {
			fmt.Fprint(w, "  ")
			r.console.Push(n)
		}),
		Log: cfg.Log,
	}
	if cfg.Schema != "" || (cfg.File != nil && cfg.File.Schema != "") {
		typ, err := cfg.schemaType(cfg.Schema)
		if err != nil {
			return nil, err
		}
		inCfg.Type = typ
	}
	r.in = ptinput.New(inCfg)
	r.in.Mount()
	r.sched.RunPending()
	return r, nil
}

func (r *replayer) onChange(ps []patch.Patch) {
	parts := make([]string, len(ps))
	for i := range ps {
		parts[i] = ps[i].String()
	}
	fmt.Fprintf(r.w, "  change [%s]\n", strings.Join(parts, ", "))
	// the form applies the change and passes the new value down
	v, err := patch.Apply(r.in.Value(), ps...)
	if err != nil {
		r.console.Push(notify.Notification{Severity: notify.Error, Description: err.Error()})
		return
	}
	r.in.SetValue(v)
}

func (r *replayer) memory() *editor.Memory {
	m, _ := r.in.Surface().(*editor.Memory)
	return m
}

func (r *replayer) warn(err error) {
	fmt.Fprint(r.w, "  ")
	r.console.Push(notify.Notification{Severity: notify.Warning, Description: err.Error()})
}

func (r *replayer) step(i int, s *Step) error {
	if s.Comment != "" {
		fmt.Fprintf(r.w, "step %d: %s\n", i, s.Comment)
	} else {
		fmt.Fprintf(r.w, "step %d\n", i)
	}
	m := r.memory()
	if m == nil {
		return fmt.Errorf("no surface")
	}
	if len(s.Remote) != 0 || s.Snapshot != nil {
		b := transport.Batch{Patches: s.Remote, Snapshot: s.Snapshot}
		for j := range b.Patches {
			if b.Patches[j].Origin == "" {
				b.Patches[j].Origin = patch.Remote
			}
		}
		if err := r.hub.Publish(context.Background(), b); err != nil {
			return err
		}
		// the form's value follows the document; it already has the local
		// patches
		v := r.in.Snapshot()
		if v == nil {
			var remote []patch.Patch
			for j := range b.Patches {
				if b.Patches[j].Origin != patch.Local {
					remote = append(remote, b.Patches[j])
				}
			}
			var err error
			v, err = patch.Apply(r.in.Value(), remote...)
			if err != nil {
				r.warn(err)
				v = r.in.Value()
			}
		}
		r.in.SetValue(v)
	}
	if len(s.Edit) != 0 {
		if err := m.Edit(s.Edit...); err != nil {
			r.warn(err)
		}
	}
	if len(s.Value) != 0 {
		var v any
		if err := json.Unmarshal(s.Value, &v); err != nil {
			return err
		}
		r.in.SetValue(v)
	}
	if s.Select != nil {
		p, err := ir.ParsePath(*s.Select)
		if err != nil {
			return err
		}
		m.Select(&editor.Selection{Focus: p, Anchor: p})
	}
	if s.FocusPath != nil {
		p, err := ir.ParsePath(*s.FocusPath)
		if err != nil {
			return err
		}
		r.in.SetFocusPath(p)
	}
	if s.Focus {
		r.in.Handle().Focus()
	}
	if s.Blur {
		r.in.Handle().Blur()
	}
	if s.GoToContent {
		r.in.GoToContent()
	}
	if s.Undo {
		if err := m.Undo(); err != nil {
			r.warn(err)
		}
	}
	if s.Redo {
		if err := m.Redo(); err != nil {
			r.warn(err)
		}
	}
	if s.Ignore {
		r.in.IgnoreInvalid()
	}
	if s.Resolve && !r.in.Resolve() {
		r.warn(fmt.Errorf("nothing to resolve"))
	}
	if s.ReadOnly != nil {
		r.in.SetReadOnly(*s.ReadOnly)
	}
	if s.Fullscreen {
		r.in.ToggleFullscreen()
	}
	if s.Error != nil {
		m.Report(s.Error.Level, s.Error.Description)
	}
	r.sched.RunPending()
	if iv := r.in.Invalid(); iv != nil && !r.in.Suppressed() {
		fmt.Fprintf(r.w, "  invalid: %s\n", iv.Resolution)
	}
	return nil
}
