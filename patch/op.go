package patch

import (
	"fmt"
	"sort"
	"sync"
)

// Op applies patches of one Type to a value. Apply must not modify doc in
// place; it returns the patched value.
type Op interface {
	Type() Type
	Apply(doc any, p *Patch) (any, error)
}

var (
	mu  sync.RWMutex
	ops = map[Type]Op{}
)

func init() {
	for _, op := range []Op{setOp{}, setIfMissingOp{}, unsetOp{}, insertOp{}, dmpOp{}, incOp{sign: 1}, incOp{sign: -1}} {
		if err := Register(op); err != nil {
			panic(err)
		}
	}
}

// Register makes op available to Apply for its Type.
func Register(op Op) error {
	if op == nil {
		return fmt.Errorf("cannot register nil op")
	}
	mu.Lock()
	defer mu.Unlock()
	if _, exists := ops[op.Type()]; exists {
		return fmt.Errorf("op %q already registered", op.Type())
	}
	ops[op.Type()] = op
	return nil
}

// Lookup returns the op registered for t, or nil.
func Lookup(t Type) Op {
	mu.RLock()
	defer mu.RUnlock()
	return ops[t]
}

// Types lists the registered patch types in sorted order.
func Types() []Type {
	mu.RLock()
	defer mu.RUnlock()
	res := make([]Type, 0, len(ops))
	for t := range ops {
		res = append(res, t)
	}
	sort.Slice(res, func(i, j int) bool { return res[i] < res[j] })
	return res
}
