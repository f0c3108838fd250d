package sequencer

import (
	"path/filepath"
	"sort"
	"strings"
)

// plan is the resolved dependency closure of one invocation.
type plan struct {
	tasks      map[string]Task
	deps       map[string][]string // deduplicated dependencies
	dependents map[string][]string // reverse edges, sorted
	order      []string            // a valid topological order
	ancestors  map[string]map[string]struct{}
}

// resolve computes the closure of targets, rejecting unknown names, undeclared dependencies,
// cycles and overlapping outputs between tasks that may run concurrently.
func resolve(defs map[string]Task, targets []string) (*plan, error) {
	if len(targets) == 0 {
		return nil, &UnknownTaskError{}
	}
	for _, name := range targets {
		if _, ok := defs[name]; !ok {
			return nil, &UnknownTaskError{Name: name}
		}
	}

	p := &plan{
		tasks:      make(map[string]Task),
		deps:       make(map[string][]string),
		dependents: make(map[string][]string),
		ancestors:  make(map[string]map[string]struct{}),
	}

	stack := append([]string(nil), targets...)
	for len(stack) > 0 {
		name := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if _, seen := p.tasks[name]; seen {
			continue
		}
		t := defs[name]
		p.tasks[name] = t

		seen := make(map[string]struct{}, len(t.Deps))
		deps := make([]string, 0, len(t.Deps))
		for _, dep := range t.Deps {
			if _, dup := seen[dep]; dup {
				continue
			}
			seen[dep] = struct{}{}
			if _, ok := defs[dep]; !ok {
				return nil, &ConfigurationError{Task: name, Dependency: dep}
			}
			deps = append(deps, dep)
			stack = append(stack, dep)
		}
		sort.Strings(deps)
		p.deps[name] = deps
	}

	for name, deps := range p.deps {
		for _, dep := range deps {
			p.dependents[dep] = append(p.dependents[dep], name)
		}
	}
	for name := range p.dependents {
		sort.Strings(p.dependents[name])
	}

	if err := p.topoSort(); err != nil {
		return nil, err
	}
	p.computeAncestors()
	if err := p.checkOutputs(); err != nil {
		return nil, err
	}
	return p, nil
}

// topoSort runs Kahn's algorithm with lexical tie breaking. Tasks never consumed form
// the unresolved set reported by CyclicDependencyError.
func (p *plan) topoSort() error {
	indegree := make(map[string]int, len(p.tasks))
	var ready []string
	for name := range p.tasks {
		indegree[name] = len(p.deps[name])
		if indegree[name] == 0 {
			ready = append(ready, name)
		}
	}
	sort.Strings(ready)

	order := make([]string, 0, len(p.tasks))
	for len(ready) > 0 {
		name := ready[0]
		ready = ready[1:]
		order = append(order, name)
		for _, child := range p.dependents[name] {
			indegree[child]--
			if indegree[child] == 0 {
				ready = insertSorted(ready, child)
			}
		}
	}

	if len(order) != len(p.tasks) {
		unresolved := make([]string, 0, len(p.tasks)-len(order))
		for name, d := range indegree {
			if d > 0 {
				unresolved = append(unresolved, name)
			}
		}
		sort.Strings(unresolved)
		return &CyclicDependencyError{Tasks: unresolved}
	}
	p.order = order
	return nil
}

func (p *plan) computeAncestors() {
	for _, name := range p.order {
		set := make(map[string]struct{})
		for _, dep := range p.deps[name] {
			set[dep] = struct{}{}
			for a := range p.ancestors[dep] {
				set[a] = struct{}{}
			}
		}
		p.ancestors[name] = set
	}
}

// ordered reports whether one of a, b is a transitive dependency of the other.
func (p *plan) ordered(a, b string) bool {
	if _, ok := p.ancestors[a][b]; ok {
		return true
	}
	_, ok := p.ancestors[b][a]
	return ok
}

func (p *plan) checkOutputs() error {
	var writers []string
	for _, name := range p.order {
		if len(p.tasks[name].Outputs) > 0 {
			writers = append(writers, name)
		}
	}
	sort.Strings(writers)

	for i, a := range writers {
		for _, b := range writers[i+1:] {
			if p.ordered(a, b) {
				continue
			}
			for _, pa := range p.tasks[a].Outputs {
				for _, pb := range p.tasks[b].Outputs {
					if pathsOverlap(pa, pb) {
						return &OutputConflictError{A: a, B: b, PathA: pa, PathB: pb}
					}
				}
			}
		}
	}
	return nil
}

// pathsOverlap reports whether a and b are the same path or one contains the other.
func pathsOverlap(a, b string) bool {
	a, b = filepath.Clean(a), filepath.Clean(b)
	if a == b {
		return true
	}
	return isWithin(a, b) || isWithin(b, a)
}

func isWithin(dir, p string) bool {
	if dir == "." {
		return !filepath.IsAbs(p) && p != ".." && !strings.HasPrefix(p, ".."+string(filepath.Separator))
	}
	if dir == string(filepath.Separator) {
		return filepath.IsAbs(p)
	}
	return strings.HasPrefix(p, dir+string(filepath.Separator))
}

func insertSorted(list []string, name string) []string {
	i := sort.SearchStrings(list, name)
	list = append(list, "")
	copy(list[i+1:], list[i:])
	list[i] = name
	return list
}
