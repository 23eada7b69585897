// Package debug provides environment gated debug output for ptsync.
package debug

import (
	"os"
	"strconv"
)

type debug struct {
	Ingest bool
	Change bool
	Patch  bool
	Diff   bool
	RPC    bool
}

var d *debug

func init() {
	d = &debug{}
	d.Ingest = boolEnv("PTSYNC_DEBUG_INGEST")
	d.Change = boolEnv("PTSYNC_DEBUG_CHANGE")
	d.Patch = boolEnv("PTSYNC_DEBUG_PATCH")
	d.Diff = boolEnv("PTSYNC_DEBUG_DIFF")
	d.RPC = boolEnv("PTSYNC_DEBUG_RPC")
}

func boolEnv(v string) bool {
	x := os.Getenv(v)
	if x == "" {
		return false
	}
	b, _ := strconv.ParseBool(x)
	return b
}

func Ingest() bool {
	return d.Ingest
}
func Change() bool {
	return d.Change
}
func Patch() bool {
	return d.Patch
}
func Diff() bool {
	return d.Diff
}
func RPC() bool {
	return d.RPC
}
