package compiler

import (
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/formlogic/internal/form"
)

// CycleWarning reports show-fields logic whose fields depend on each other.
//
// A field only becomes visible when a condition field is already visible,
// so fields that can only be shown through a cycle stay hidden for every
// submission. Other units may still show them from outside the cycle,
// hence a warning rather than an error.
type CycleWarning struct {
	Path    []string `json:"path"` // first field repeated at the end
	Message string   `json:"message"`
	Level   string   `json:"level"`
}

// showGraph has an edge a → b when a show-fields unit conditions on a and
// shows b. Nodes keep form order.
type showGraph struct {
	nodes []string
	edges map[string][]string
	pos   map[string]int
}

// AnalyzeCycles reports each cycle in the show-fields graph, ordered by
// the form position of the cycle's first field. Every path starts at the
// earliest field of its cycle.
func AnalyzeCycles(f *form.Form) []CycleWarning {
	g := newShowGraph(f)
	warnings := []CycleWarning{}
	for _, comp := range g.components() {
		if len(comp) == 1 && !slices.Contains(g.edges[comp[0]], comp[0]) {
			continue
		}
		warnings = append(warnings, g.warning(comp))
	}
	return warnings
}

// newShowGraph skips references to fields the form lacks; Lint reports
// those separately.
func newShowGraph(f *form.Form) *showGraph {
	g := &showGraph{edges: map[string][]string{}, pos: map[string]int{}}
	for i, fld := range f.Fields {
		g.pos[fld.ID] = i
	}
	ids := f.FieldIDs()
	known := func(id string) bool {
		_, ok := ids[id]
		return ok
	}

	for _, unit := range f.Logic {
		if unit.Type != form.LogicShowFields {
			continue
		}
		for _, c := range unit.Conditions {
			if !known(c.Field) {
				continue
			}
			for _, target := range unit.Show {
				if known(target) && !slices.Contains(g.edges[c.Field], target) {
					g.edges[c.Field] = append(g.edges[c.Field], target)
				}
			}
		}
	}
	for _, fld := range f.Fields {
		if len(g.edges[fld.ID]) > 0 {
			g.nodes = append(g.nodes, fld.ID)
		}
	}
	return g
}

// components returns the strongly connected components (Tarjan), each
// sorted by form position, in form order of their first member.
func (g *showGraph) components() [][]string {
	t := tarjan{g: g, index: map[string]int{}, low: map[string]int{}, onStack: map[string]bool{}}
	for _, n := range g.nodes {
		if _, seen := t.index[n]; !seen {
			t.visit(n)
		}
	}
	for _, comp := range t.out {
		slices.SortFunc(comp, func(a, b string) int { return g.pos[a] - g.pos[b] })
	}
	slices.SortFunc(t.out, func(a, b []string) int { return g.pos[a[0]] - g.pos[b[0]] })
	return t.out
}

type tarjan struct {
	g       *showGraph
	next    int
	index   map[string]int
	low     map[string]int
	onStack map[string]bool
	stack   []string
	out     [][]string
}

func (t *tarjan) visit(v string) {
	t.index[v], t.low[v] = t.next, t.next
	t.next++
	t.stack = append(t.stack, v)
	t.onStack[v] = true

	for _, w := range t.g.edges[v] {
		if _, seen := t.index[w]; !seen {
			t.visit(w)
			t.low[v] = min(t.low[v], t.low[w])
		} else if t.onStack[w] {
			t.low[v] = min(t.low[v], t.index[w])
		}
	}
	if t.low[v] != t.index[v] {
		return
	}

	var comp []string
	for {
		top := t.stack[len(t.stack)-1]
		t.stack = t.stack[:len(t.stack)-1]
		t.onStack[top] = false
		comp = append(comp, top)
		if top == v {
			break
		}
	}
	t.out = append(t.out, comp)
}

func (g *showGraph) warning(comp []string) CycleWarning {
	if len(comp) == 1 {
		id := comp[0]
		return CycleWarning{
			Path:    []string{id, id},
			Message: fmt.Sprintf("field %s is shown only by a condition on itself", id),
			Level:   "warning",
		}
	}
	path := g.cycleThrough(comp)
	return CycleWarning{
		Path:    path,
		Message: "fields in logic cycle may never be visible: " + strings.Join(path, " → "),
		Level:   "warning",
	}
}

// cycleThrough finds a simple cycle from comp[0] back to itself using only
// edges inside comp. One always exists in a component of two or more.
func (g *showGraph) cycleThrough(comp []string) []string {
	start := comp[0]
	inComp := make(map[string]bool, len(comp))
	for _, id := range comp {
		inComp[id] = true
	}

	onPath := map[string]bool{start: true}
	path := []string{start}
	var walk func(v string) bool
	walk = func(v string) bool {
		for _, w := range g.edges[v] {
			switch {
			case w == start:
				path = append(path, w)
				return true
			case !inComp[w] || onPath[w]:
				continue
			}
			onPath[w] = true
			path = append(path, w)
			if walk(w) {
				return true
			}
			path = path[:len(path)-1]
			onPath[w] = false
		}
		return false
	}
	walk(start)
	return path
}
