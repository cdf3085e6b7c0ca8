package confgen

import (
	"fmt"
	"strings"
)

// =============================================================================
// PHP Configuration
// =============================================================================

// PHPOptionSed returns the sed invocation that rewrites a single php.ini
// option in place. The option name is regex-escaped for its dots; the
// replacement rewrites the whole matching line to "option = value".
func PHPOptionSed(option, value, configPath string) []string {
	escaped := strings.ReplaceAll(option, ".", `\.`)
	expr := fmt.Sprintf("/%s ?=/{ s#.*#%s = %s# }", escaped, option, value)
	return []string{"sed", "-i", "-r", expr, configPath}
}
