package debug

import (
	"encoding/json"
	"fmt"
	"os"
)

// Logf writes to stderr, rendering decoded json objects and arrays among
// args as indented json.
func Logf(msg string, args ...any) {
	for i, a := range args {
		switch a.(type) {
		case map[string]any, []any:
			d, err := json.MarshalIndent(a, "   |", "  ")
			if err != nil {
				continue
			}
			args[i] = string(d)
		}
	}
	fmt.Fprintf(os.Stderr, msg, args...)
}
