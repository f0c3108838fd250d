package pipeline

import (
	"path/filepath"
	"strings"

	"git.home.luguber.info/inful/buildseq/internal/config"
	"git.home.luguber.info/inful/buildseq/internal/process"
)

// command turns a configured tool into a process.Command run from the project root.
// Args may reference {input} and {output}; when no argument does, operands are appended.
func (p *Pipeline) command(c config.Command, vars map[string]string, operands []string) process.Command {
	args := make([]string, 0, len(c.Args)+len(operands))
	substituted := false
	for _, a := range c.Args {
		expanded := a
		for k, v := range vars {
			expanded = strings.ReplaceAll(expanded, "{"+k+"}", v)
		}
		if expanded != a {
			substituted = true
		}
		args = append(args, expanded)
	}
	if !substituted {
		args = append(args, operands...)
	}
	name := c.Name
	if strings.ContainsRune(name, '/') {
		// A relative binary path such as node_modules/.bin/jsdoc belongs to the project.
		name = p.path(filepath.FromSlash(name))
	}
	return process.Command{Name: name, Args: args, Dir: p.root}
}
