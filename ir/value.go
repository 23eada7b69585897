package ir

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// KeyOf returns the "_key" of an array item, if it has one.
func KeyOf(v any) (string, bool) {
	m, ok := v.(map[string]any)
	if !ok {
		return "", false
	}
	k, ok := m["_key"].(string)
	return k, ok
}

// IndexOfKey returns the index of the item of arr whose "_key" is key, or -1.
func IndexOfKey(arr []any, key string) int {
	for i, item := range arr {
		if k, ok := KeyOf(item); ok && k == key {
			return i
		}
	}
	return -1
}

// Get returns the value at p inside v. The boolean result is false when some
// segment of p does not exist.
func Get(v any, p Path) (any, bool) {
	res := v
	for _, seg := range p {
		switch {
		case seg.Field != nil:
			m, ok := res.(map[string]any)
			if !ok {
				return nil, false
			}
			res, ok = m[*seg.Field]
			if !ok {
				return nil, false
			}
		case seg.Index != nil:
			arr, ok := res.([]any)
			if !ok {
				return nil, false
			}
			idx := *seg.Index
			if idx < 0 || idx >= len(arr) {
				return nil, false
			}
			res = arr[idx]
		case seg.Key != nil:
			arr, ok := res.([]any)
			if !ok {
				return nil, false
			}
			idx := IndexOfKey(arr, *seg.Key)
			if idx == -1 {
				return nil, false
			}
			res = arr[idx]
		default:
			return nil, false
		}
	}
	return res, true
}

// Resolve rewrites every keyed segment of p into the index of the matching
// item in v. Segments after the last existing container are resolved as far
// as possible: only keyed segments need to exist.
func Resolve(v any, p Path) (Path, error) {
	res := make(Path, 0, len(p))
	cur := v
	present := true
	for i, seg := range p {
		if seg.Key == nil {
			res = append(res, seg)
			if present {
				cur, present = Get(cur, Path{seg})
			}
			continue
		}
		if !present {
			return nil, fmt.Errorf("%w: %s: parent of keyed segment is missing", ErrNotFound, p[:i+1])
		}
		arr, ok := cur.([]any)
		if !ok {
			return nil, fmt.Errorf("%w: %s: expected Array, got %s", ErrType, p[:i], TypeOf(cur))
		}
		idx := IndexOfKey(arr, *seg.Key)
		if idx == -1 {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, p[:i+1])
		}
		res = append(res, Index(idx))
		cur = arr[idx]
	}
	return res, nil
}

// Pointer returns the RFC 6901 JSON pointer for p. p must not contain keyed
// segments; use Resolve first.
func (p Path) Pointer() (string, error) {
	var b strings.Builder
	for _, seg := range p {
		b.WriteByte('/')
		switch {
		case seg.Field != nil:
			b.WriteString(strings.NewReplacer("~", "~0", "/", "~1").Replace(*seg.Field))
		case seg.Index != nil:
			b.WriteString(strconv.Itoa(*seg.Index))
		case seg.Key != nil:
			return "", fmt.Errorf("keyed segment %s in pointer for %s", seg, p)
		}
	}
	return b.String(), nil
}

// Equal reports whether two decoded JSON values are structurally equal.
// Numbers compare by value regardless of their Go representation.
func Equal(a, b any) bool {
	ta, tb := TypeOf(a), TypeOf(b)
	if ta != tb {
		return false
	}
	switch ta {
	case NullType:
		return true
	case BoolType:
		return a.(bool) == b.(bool)
	case StringType:
		return a.(string) == b.(string)
	case NumberType:
		fa, ea := toFloat(a)
		fb, eb := toFloat(b)
		return ea == nil && eb == nil && fa == fb
	case ArrayType:
		aa, ab := a.([]any), b.([]any)
		if len(aa) != len(ab) {
			return false
		}
		for i := range aa {
			if !Equal(aa[i], ab[i]) {
				return false
			}
		}
		return true
	case ObjectType:
		ma, mb := a.(map[string]any), b.(map[string]any)
		if len(ma) != len(mb) {
			return false
		}
		for k, va := range ma {
			vb, ok := mb[k]
			if !ok || !Equal(va, vb) {
				return false
			}
		}
		return true
	}
	return false
}

func toFloat(v any) (float64, error) {
	switch x := v.(type) {
	case float64:
		return x, nil
	case float32:
		return float64(x), nil
	case int:
		return float64(x), nil
	case int64:
		return float64(x), nil
	case json.Number:
		return x.Float64()
	}
	return 0, fmt.Errorf("%w: %T is not a number", ErrType, v)
}

// Number returns v as a float64 if it is a number.
func Number(v any) (float64, bool) {
	f, err := toFloat(v)
	return f, err == nil
}

// Clone deep copies a decoded JSON value.
func Clone(v any) any {
	switch x := v.(type) {
	case []any:
		res := make([]any, len(x))
		for i := range x {
			res[i] = Clone(x[i])
		}
		return res
	case map[string]any:
		res := make(map[string]any, len(x))
		for k, fv := range x {
			res[k] = Clone(fv)
		}
		return res
	default:
		return v
	}
}
