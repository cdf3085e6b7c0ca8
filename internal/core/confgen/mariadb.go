package confgen

import (
	"fmt"
	"sort"
	"strings"
)

// =============================================================================
// MariaDB Server Configuration
// =============================================================================

// RenderMariaDBConfig produces a mysqld config file fragment from the given
// options. Keys are emitted in sorted order so the output is deterministic.
func RenderMariaDBConfig(options map[string]string) string {
	keys := make([]string, 0, len(options))
	for k := range options {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	lines := []string{"", "[mysqld]"}
	for _, k := range keys {
		lines = append(lines, fmt.Sprintf("%s = %s", k, options[k]))
	}
	lines = append(lines, "")

	return strings.Join(lines, "\n")
}
