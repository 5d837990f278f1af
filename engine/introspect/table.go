package introspect

import (
	"fmt"
	"sort"
	"strings"

	"github.com/dlsys-project/depengine/engine"
)

// FormatSnapshot renders an engine.Snapshot result as an aligned,
// human-readable table, resources sorted by name. Intended for CLI and
// debug-log use, not for machine parsing.
func FormatSnapshot(snap map[string]engine.ResourceState) string {
	names := make([]string, 0, len(snap))
	for name := range snap {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	fmt.Fprintf(&b, "%-24s %-6s %-8s %-8s\n", "TAG", "MODE", "READERS", "PENDING")
	for _, name := range names {
		s := snap[name]
		fmt.Fprintf(&b, "%-24s %-6s %-8d %-8d\n", name, s.Mode, s.Readers, s.Pending)
	}
	return b.String()
}
