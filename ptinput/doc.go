// Package ptinput keeps a portable text editing surface in sync with the
// form it belongs to.
//
// An [Input] sits between three sources of truth for the field's value: the
// edits made on its surface, the patches arriving from a transport (other
// editors, undo elsewhere) and the value the form passes down. It
//
//   - forwards remote patches from the transport to the surface, dropping
//     the ones it produced itself (ingest.go);
//   - routes the surface's change events to the form: outbound patches,
//     focus moves, blur, notifications (reconcile.go);
//   - withholds the surface while the value is structurally invalid, until
//     the form supplies another value or the user chooses to ignore the
//     problem (guard.go);
//   - tracks focus and the focus path without echoing the form's own
//     updates back to it (focus.go).
//
// All callbacks are invoked either synchronously from the method handling
// the event or from the Input's scheduler. Outbound mutations and focus
// path changes are always deferred; undo, redo and blur never are.
package ptinput
