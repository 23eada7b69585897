package libdiff

import (
	"github.com/signadot/ptsync/ir"
	"github.com/signadot/ptsync/patch"

	diffpatch "github.com/sergi/go-diff/diffmatchpatch"
)

// DiffArrayByKey diffs two arrays of keyed objects. Each item key is mapped
// to a rune and the two key sequences are diffed; equal runs recurse into the
// items, deletions unset the item by key and insertions are placed after the
// preceding item of the result (or before the first remaining item).
func DiffArrayByKey(dst []patch.Patch, path ir.Path, from, to []any) []patch.Patch {
	m := map[string]rune{}
	fromRunes := keyRunes(m, from)
	toRunes := keyRunes(m, to)
	diffCfg := diffpatch.New()
	diffs := diffCfg.DiffMainRunes(fromRunes, toRunes, false)

	var deletes, updates, inserts []patch.Patch
	fi, ti := 0, 0
	prevKey := ""
	hasPrev := false
	var pending []any
	flush := func(next []any) {
		if len(pending) == 0 {
			return
		}
		switch {
		case hasPrev:
			inserts = append(inserts, patch.InsertAt(patch.After, path.Append(ir.Key(prevKey)), pending...))
		case len(next) > 0:
			k, _ := ir.KeyOf(next[0])
			inserts = append(inserts, patch.InsertAt(patch.Before, path.Append(ir.Key(k)), pending...))
		default:
			inserts = append(inserts, patch.InsertAt(patch.Before, path.Append(ir.Index(0)), pending...))
		}
		k, _ := ir.KeyOf(pending[len(pending)-1])
		prevKey, hasPrev = k, true
		pending = nil
	}
	for i := range diffs {
		n := len([]rune(diffs[i].Text))
		switch diffs[i].Type {
		case diffpatch.DiffDelete:
			for j := 0; j < n; j++ {
				k, _ := ir.KeyOf(from[fi])
				deletes = append(deletes, patch.UnsetAt(path.Append(ir.Key(k))))
				fi++
			}
		case diffpatch.DiffEqual:
			for j := 0; j < n; j++ {
				flush(to[ti:])
				k, _ := ir.KeyOf(to[ti])
				updates = diffAt(updates, path.Append(ir.Key(k)), from[fi], to[ti])
				prevKey, hasPrev = k, true
				fi++
				ti++
			}
		case diffpatch.DiffInsert:
			for j := 0; j < n; j++ {
				pending = append(pending, ir.Clone(to[ti]))
				ti++
			}
		}
	}
	flush(nil)
	dst = append(dst, deletes...)
	dst = append(dst, updates...)
	return append(dst, inserts...)
}

func keyRunes(m map[string]rune, arr []any) []rune {
	rs := make([]rune, len(arr))
	for i, item := range arr {
		k, _ := ir.KeyOf(item)
		r, ok := m[k]
		if !ok {
			// skip the surrogate range, DiffMainRunes works on valid runes
			r = rune(len(m)) + 0x100
			if r >= 0xD800 {
				r += 0x800
			}
			m[k] = r
		}
		rs[i] = r
	}
	return rs
}
