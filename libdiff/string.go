package libdiff

import (
	"github.com/signadot/ptsync/ir"
	"github.com/signadot/ptsync/patch"

	diffpatch "github.com/sergi/go-diff/diffmatchpatch"
)

// DiffString returns a diffMatchPatch patch at path when the edit from from
// to to touches at most half of the shorter text, and a set patch otherwise.
func DiffString(path ir.Path, from, to string) patch.Patch {
	diffCfg := diffpatch.New()
	diffs := diffCfg.DiffMain(from, to, false)
	diffSize := 0
	for i := range diffs {
		if diffs[i].Type != diffpatch.DiffEqual {
			diffSize += len(diffs[i].Text)
		}
	}
	if from == "" || diffSize > min(len(from), len(to))/2 {
		return patch.SetAt(path.Clone(), to)
	}
	text := diffCfg.PatchToText(diffCfg.PatchMake(from, diffs))
	return patch.DiffMatchPatchAt(path.Clone(), text)
}
