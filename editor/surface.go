package editor

import (
	"log/slog"

	"github.com/signadot/ptsync/loop"
	"github.com/signadot/ptsync/patchchan"
	"github.com/signadot/ptsync/schema"
)

// Surface is the imperative side of an editing surface.
type Surface interface {
	Focus()
	Blur()
}

// Closer is implemented by surfaces holding resources which must be
// released when they are unmounted.
type Closer interface {
	Close()
}

// Valuer is implemented by surfaces that accept a new value from the form.
type Valuer interface {
	SetValue(v any)
}

// Source delivers incoming patches; *patchchan.Channel implements it.
type Source interface {
	Subscribe(fn patchchan.Handler) func()
}

// Props are the inputs a surface is created with.
type Props struct {
	Value    any
	ReadOnly bool
	Type     *schema.Type
	Incoming Source
	OnChange func(Change)

	// Scheduler is used for events a surface reports asynchronously. When
	// nil they are reported synchronously.
	Scheduler loop.Scheduler
	Log       *slog.Logger
}

type Factory func(Props) Surface
