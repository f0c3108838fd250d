package sequencer

import (
	"fmt"
	"sort"
	"strings"
)

// GraphFormat selects the textual representation produced by RenderGraph.
type GraphFormat string

const (
	GraphText    GraphFormat = "text"
	GraphMermaid GraphFormat = "mermaid"
	GraphDOT     GraphFormat = "dot"
)

// SupportedGraphFormats lists the formats accepted by RenderGraph.
func SupportedGraphFormats() []GraphFormat {
	return []GraphFormat{GraphText, GraphMermaid, GraphDOT}
}

// RenderGraph renders the dependency graph of the registry. When roots are given only their
// dependency closure is rendered, which also validates it.
func RenderGraph(reg *Registry, format GraphFormat, roots ...string) (string, error) {
	defs := reg.snapshot()
	names := make([]string, 0, len(defs))
	deps := make(map[string][]string, len(defs))

	if len(roots) > 0 {
		p, err := resolve(defs, roots)
		if err != nil {
			return "", err
		}
		names = append(names, p.order...)
		deps = p.deps
	} else {
		for name, t := range defs {
			names = append(names, name)
			d := append([]string(nil), t.Deps...)
			sort.Strings(d)
			deps[name] = d
		}
		sort.Strings(names)
	}

	var b strings.Builder
	switch format {
	case GraphText, "":
		for _, name := range names {
			if len(deps[name]) == 0 {
				fmt.Fprintf(&b, "%s\n", name)
				continue
			}
			fmt.Fprintf(&b, "%s <- %s\n", name, strings.Join(deps[name], ", "))
		}
	case GraphMermaid:
		b.WriteString("graph TD\n")
		for _, name := range names {
			fmt.Fprintf(&b, "    %s[\"%s\"]\n", mermaidID(name), name)
		}
		for _, name := range names {
			for _, dep := range deps[name] {
				fmt.Fprintf(&b, "    %s --> %s\n", mermaidID(dep), mermaidID(name))
			}
		}
	case GraphDOT:
		b.WriteString("digraph tasks {\n    rankdir=LR;\n")
		for _, name := range names {
			fmt.Fprintf(&b, "    %q;\n", name)
		}
		for _, name := range names {
			for _, dep := range deps[name] {
				fmt.Fprintf(&b, "    %q -> %q;\n", dep, name)
			}
		}
		b.WriteString("}\n")
	default:
		return "", fmt.Errorf("unsupported graph format %q", format)
	}
	return b.String(), nil
}

func mermaidID(name string) string {
	r := strings.NewReplacer(":", "_", "-", "_", ".", "_", " ", "_", "/", "_")
	return r.Replace(name)
}
