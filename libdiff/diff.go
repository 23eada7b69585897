package libdiff

import (
	"sort"

	"github.com/signadot/ptsync/debug"
	"github.com/signadot/ptsync/ir"
	"github.com/signadot/ptsync/patch"
)

// Diff returns the patches which transform from into to, or nil when they
// are equal. Applying the result to from with patch.Apply yields a value
// equal to to.
func Diff(from, to any) []patch.Patch {
	res := diffAt(nil, nil, from, to)
	if debug.Diff() {
		debug.Logf("diff gave %d patches\n", len(res))
	}
	return res
}

func diffAt(dst []patch.Patch, path ir.Path, from, to any) []patch.Patch {
	if ir.Equal(from, to) {
		return dst
	}
	ft, tt := ir.TypeOf(from), ir.TypeOf(to)
	if ft != tt {
		return append(dst, patch.SetAt(path.Clone(), ir.Clone(to)))
	}
	switch ft {
	case ir.ObjectType:
		return diffObject(dst, path, from.(map[string]any), to.(map[string]any))
	case ir.ArrayType:
		fa, ta := from.([]any), to.([]any)
		if keyed(fa) && keyed(ta) {
			return DiffArrayByKey(dst, path, fa, ta)
		}
		return diffArrayByIndex(dst, path, fa, ta)
	case ir.StringType:
		return append(dst, DiffString(path, from.(string), to.(string)))
	default:
		return append(dst, patch.SetAt(path.Clone(), ir.Clone(to)))
	}
}

func diffObject(dst []patch.Patch, path ir.Path, from, to map[string]any) []patch.Patch {
	keys := make([]string, 0, len(from)+len(to))
	for k := range from {
		keys = append(keys, k)
	}
	for k := range to {
		if _, ok := from[k]; !ok {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	for _, k := range keys {
		fv, inFrom := from[k]
		tv, inTo := to[k]
		fp := path.Append(ir.Field(k))
		switch {
		case !inTo:
			dst = append(dst, patch.UnsetAt(fp))
		case !inFrom:
			dst = append(dst, patch.SetAt(fp, ir.Clone(tv)))
		default:
			dst = diffAt(dst, fp, fv, tv)
		}
	}
	return dst
}

func diffArrayByIndex(dst []patch.Patch, path ir.Path, from, to []any) []patch.Patch {
	if len(from) != len(to) {
		return append(dst, patch.SetAt(path.Clone(), ir.Clone(to)))
	}
	for i := range from {
		dst = diffAt(dst, path.Append(ir.Index(i)), from[i], to[i])
	}
	return dst
}

// keyed reports whether every item of arr is an object with a unique _key.
func keyed(arr []any) bool {
	seen := make(map[string]struct{}, len(arr))
	for _, item := range arr {
		k, ok := ir.KeyOf(item)
		if !ok {
			return false
		}
		if _, dup := seen[k]; dup {
			return false
		}
		seen[k] = struct{}{}
	}
	return true
}
