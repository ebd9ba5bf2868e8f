package eql

import (
	"context"
	"fmt"
	"strings"
)

// CollectAll is a package-scope alias for Entity.Results; it drains
// every distinct answer tuple the given *Entity produces.
func CollectAll(ctx context.Context, e *Entity, sources Binding) []Binding {
	return e.Results(ctx, sources)
}

// Pretty renders a Binding as "{name=value, ...}", sorted by name, for
// diagnostics and example output. vars supplies the
// display name for each id; ids not present in vars are skipped.
func Pretty(b Binding, vars map[int64]string) string {
	type pair struct {
		name string
		id   int64
	}
	pairs := make([]pair, 0, len(vars))
	for id, name := range vars {
		if _, ok := b[id]; ok {
			pairs = append(pairs, pair{name, id})
		}
	}
	for i := 1; i < len(pairs); i++ {
		for j := i; j > 0 && pairs[j-1].name > pairs[j].name; j-- {
			pairs[j-1], pairs[j] = pairs[j], pairs[j-1]
		}
	}
	var sb strings.Builder
	sb.WriteByte('{')
	for i, p := range pairs {
		if i > 0 {
			sb.WriteString(", ")
		}
		fmt.Fprintf(&sb, "%s=%v", p.name, b[p.id].Value)
	}
	sb.WriteByte('}')
	return sb.String()
}

// PrettyAll renders each binding in bs on its own line via Pretty.
func PrettyAll(bs []Binding, vars map[int64]string) string {
	lines := make([]string, len(bs))
	for i, b := range bs {
		lines[i] = Pretty(b, vars)
	}
	return strings.Join(lines, "\n")
}
