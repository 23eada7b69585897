package ptinput

import (
	"github.com/signadot/ptsync/debug"
	"github.com/signadot/ptsync/patch"
	"github.com/signadot/ptsync/transport"
)

// ingest forwards the remote patches of b to the channel, in order. Patches
// of local origin are echoes of this input's own edits and are dropped.
func (in *Input) ingest(b transport.Batch) {
	in.mu.Lock()
	if in.unmounted {
		in.mu.Unlock()
		return
	}
	in.snapshot = b.Snapshot
	in.mu.Unlock()

	for i := range b.Patches {
		p := b.Patches[i]
		if p.Origin == patch.Local {
			in.metrics.echoes.Inc()
			if debug.Ingest() {
				debug.Logf("ingest %s: drop echo %s\n", in.id, p)
			}
			continue
		}
		if debug.Ingest() {
			debug.Logf("ingest %s: forward %s\n", in.id, p)
		}
		in.channel.Publish(p)
		in.metrics.forwarded.Inc()
	}
}
