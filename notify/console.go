package notify

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
)

// Console writes notifications as lines of text, colored by severity.
type Console struct {
	mu     sync.Mutex
	w      io.Writer
	colors map[Severity]*color.Color
}

// NewConsole returns a console sink on w. Color is used when useColor is
// true, or, when it is nil, when w is a terminal.
func NewConsole(w io.Writer, useColor *bool) *Console {
	on := false
	switch {
	case useColor != nil:
		on = *useColor
	default:
		if f, ok := w.(*os.File); ok {
			on = isatty.IsTerminal(f.Fd())
		}
	}
	c := &Console{
		w: w,
		colors: map[Severity]*color.Color{
			Error:   color.RGB(220, 50, 47).Add(color.Bold),
			Warning: color.RGB(198, 198, 46),
			Info:    color.New(color.FgBlue),
		},
	}
	for _, col := range c.colors {
		if on {
			col.EnableColor()
		} else {
			col.DisableColor()
		}
	}
	return c
}

func (c *Console) Push(n Notification) {
	c.mu.Lock()
	defer c.mu.Unlock()
	sev := string(n.Severity)
	if col, ok := c.colors[n.Severity]; ok {
		sev = col.Sprint(sev)
	}
	if n.Title != "" {
		fmt.Fprintf(c.w, "%s %s: %s\n", sev, n.Title, n.Description)
		return
	}
	fmt.Fprintf(c.w, "%s %s\n", sev, n.Description)
}
