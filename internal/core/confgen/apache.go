// Package confgen renders configuration files for the services managed by
// the installer. All functions are pure; writing the output to the target
// system is the caller's job.
package confgen

import (
	"fmt"
	"strings"
)

// =============================================================================
// Apache Site Configuration
// =============================================================================

// Directive is a single Apache configuration directive.
type Directive struct {
	Name  string
	Value string
}

// VirtualHost describes a <VirtualHost> block.
type VirtualHost struct {
	Address    string // e.g. "*" or "*:80"
	Directives []Directive
}

// Directory describes a <Directory> block.
type Directory struct {
	Path       string
	Directives []Directive
}

// ApacheSite describes the content of a sites-available config file.
type ApacheSite struct {
	Hosts       []VirtualHost
	Directories []Directory
}

// Render produces the site config file content. Blocks appear in declaration
// order, each preceded by a blank line, with directives indented four spaces.
func (s ApacheSite) Render() string {
	var lines []string

	for _, host := range s.Hosts {
		lines = append(lines, "", fmt.Sprintf("<VirtualHost %s>", host.Address))
		lines = append(lines, directiveLines(host.Directives)...)
		lines = append(lines, "</VirtualHost>")
	}

	for _, dir := range s.Directories {
		lines = append(lines, "", fmt.Sprintf("<Directory %q>", dir.Path))
		lines = append(lines, directiveLines(dir.Directives)...)
		lines = append(lines, "</Directory>")
	}

	lines = append(lines, "")
	return strings.Join(lines, "\n")
}

func directiveLines(directives []Directive) []string {
	lines := make([]string, 0, len(directives))
	for _, d := range directives {
		lines = append(lines, fmt.Sprintf("    %s %s", d.Name, d.Value))
	}
	return lines
}
