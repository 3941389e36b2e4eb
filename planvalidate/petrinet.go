package planvalidate

import (
	"fmt"
	"sort"

	"github.com/lightning-os/runtime/plan"
)

// net is the Petri net built from a plan: places are events
// referenced by steps (plus a synthesized sink), transitions are steps,
// arcs run event->step for each "on" and step->event for each "emits".
type net struct {
	places      map[string]bool
	transitions []plan.Step
	initial     map[string]int
	final       map[string]int
}

func buildNet(p *plan.Plan, events *plan.EventRegistry) *net {
	declared := make(map[string]plan.Event, len(p.Events))
	for _, e := range p.Events {
		declared[e.Name] = e
	}

	// Places are the events actually referenced by steps —
	// an event declared but never wired to any step is an orphaned
	// event (handled separately below) and takes no part in the net.
	places := make(map[string]bool)
	consumed := make(map[string]bool)
	emitted := make(map[string]bool)
	for _, s := range p.Steps {
		for _, e := range s.On {
			places[e] = true
			consumed[e] = true
		}
		for _, e := range s.Emits {
			places[e] = true
			emitted[e] = true
		}
	}

	initial := make(map[string]int)
	for name := range places {
		if e, ok := declared[name]; ok && e.External() {
			initial[name] = 1
			continue
		}
		if def, ok := events.Get(name); ok && def.External() {
			initial[name] = 1
		}
	}

	final := make(map[string]int)
	for name := range emitted {
		if !consumed[name] {
			final[name] = 1
		}
	}
	if len(final) == 0 {
		places[plan.WorkflowCompleteEvent] = true
		final[plan.WorkflowCompleteEvent] = 1
	}

	return &net{places: places, transitions: p.Steps, initial: initial, final: final}
}

// usesSynthesizedSink reports whether steps with empty emits feed the
// synthesized sink: true whenever the net fell back to that sink.
func (n *net) usesSynthesizedSink() bool {
	_, ok := n.final[plan.WorkflowCompleteEvent]
	return ok && len(n.final) == 1
}

// outputsOf returns the places a transition (step) produces a token in,
// including the synthesized sink when this step has no declared emits and
// the net uses the synthesized sink.
func (n *net) outputsOf(s plan.Step) []string {
	if len(s.Emits) == 0 && n.usesSynthesizedSink() {
		return []string{plan.WorkflowCompleteEvent}
	}
	return s.Emits
}

func markingKey(m map[string]int, places []string) string {
	b := make([]byte, 0, len(places)*4)
	for _, p := range places {
		b = append(b, []byte(p)...)
		b = append(b, '=')
		b = append(b, byte('0'+m[p]))
		b = append(b, ';')
	}
	return string(b)
}

func markingEquals(a, b map[string]int, places []string) bool {
	for _, p := range places {
		if a[p] != b[p] {
			return false
		}
	}
	return true
}

// connectedCheck is the structural half of the well-formed-workflow-net
// check: places and transitions must form a single connected component when
// arcs are treated as undirected edges. The initial/final marking guards
// above already establish that the net has at least one source and one
// sink; this catches a net built from two (or more) separate trigger-to-
// completion chains that never share a place or step — each chain would
// individually look sound, but the plan as a whole is not one workflow.
func connectedCheck(n *net) bool {
	if len(n.places) == 0 {
		return true
	}

	placeNode := func(name string) string { return "p:" + name }
	transNode := func(i int) string { return fmt.Sprintf("t:%d", i) }

	adj := make(map[string][]string)
	addEdge := func(a, b string) {
		adj[a] = append(adj[a], b)
		adj[b] = append(adj[b], a)
	}
	for i, t := range n.transitions {
		tn := transNode(i)
		for _, in := range t.On {
			addEdge(placeNode(in), tn)
		}
		for _, out := range n.outputsOf(t) {
			addEdge(tn, placeNode(out))
		}
	}

	var start string
	for name := range n.places {
		start = placeNode(name)
		break
	}

	visited := map[string]bool{start: true}
	queue := []string{start}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, next := range adj[cur] {
			if !visited[next] {
				visited[next] = true
				queue = append(queue, next)
			}
		}
	}

	for name := range n.places {
		if !visited[placeNode(name)] {
			return false
		}
	}
	for i := range n.transitions {
		if !visited[transNode(i)] {
			return false
		}
	}
	return true
}

const maxTokensPerPlace = 3
const maxReachableMarkings = 20000

// soundnessCheck runs a bounded token-game search from the initial marking:
// it confirms the final marking is reachable (option to complete) and that
// every transition fires at least once along the way (no dead transitions).
// Markings are capped per place to bound the search on malformed nets that
// would otherwise grow unboundedly.
func soundnessCheck(n *net) (reachedFinal bool, unbounded bool, fired map[int]bool) {
	places := make([]string, 0, len(n.places))
	for p := range n.places {
		places = append(places, p)
	}
	sort.Strings(places)

	start := make(map[string]int, len(places))
	for _, p := range places {
		start[p] = n.initial[p]
	}

	visited := map[string]bool{markingKey(start, places): true}
	queue := []map[string]int{start}
	fired = make(map[int]bool)

	for len(queue) > 0 && len(visited) < maxReachableMarkings {
		m := queue[0]
		queue = queue[1:]

		if markingEquals(m, n.final, places) {
			reachedFinal = true
		}

		for ti, t := range n.transitions {
			enabled := true
			for _, in := range t.On {
				if m[in] < 1 {
					enabled = false
					break
				}
			}
			if !enabled {
				continue
			}
			next := make(map[string]int, len(m))
			for k, v := range m {
				next[k] = v
			}
			for _, in := range t.On {
				next[in]--
			}
			overflow := false
			for _, out := range n.outputsOf(t) {
				next[out]++
				if next[out] > maxTokensPerPlace {
					overflow = true
				}
			}
			if overflow {
				unbounded = true
				continue
			}
			fired[ti] = true
			key := markingKey(next, places)
			if !visited[key] {
				visited[key] = true
				queue = append(queue, next)
			}
		}
	}
	return reachedFinal, unbounded, fired
}

// hasCycle runs DFS with a recursion stack over the transition->transition
// graph (two transitions are adjacent if one emits a place the other
// consumes), per the acyclic check.
func hasCycle(n *net) bool {
	adj := make(map[int][]int)
	producers := make(map[string][]int)
	for i, t := range n.transitions {
		for _, out := range n.outputsOf(t) {
			producers[out] = append(producers[out], i)
		}
	}
	for i, t := range n.transitions {
		for _, in := range t.On {
			adj[i] = append(adj[i], producers[in]...)
		}
	}

	const (
		white = 0
		gray  = 1
		black = 2
	)
	color := make([]int, len(n.transitions))

	var visit func(i int) bool
	visit = func(i int) bool {
		color[i] = gray
		for _, j := range adj[i] {
			switch color[j] {
			case gray:
				return true
			case white:
				if visit(j) {
					return true
				}
			}
		}
		color[i] = black
		return false
	}

	for i := range n.transitions {
		if color[i] == white {
			if visit(i) {
				return true
			}
		}
	}
	return false
}

// validatePetriNet is the sequential validator (#5): it is the only one run
// outside the parallel group because the analysis is CPU-bound and the
// token-game search below is not meant to be shared across goroutines.
func validatePetriNet(p *plan.Plan, events *plan.EventRegistry) []ValidationResult {
	var results []ValidationResult

	results = append(results, orphanedEventWarnings(p, events)...)

	n := buildNet(p, events)

	if p.GraphType == plan.GraphAcyclic {
		if hasCycle(n) {
			results = append(results, fail("acyclic", "graph_type is acyclic but the workflow contains a transition cycle"))
		} else {
			results = append(results, ValidationResult{Name: "acyclic", Success: true, Severity: SeverityError, Message: "no transition cycle found"})
		}
	}

	if len(n.initial) == 0 {
		results = append(results, fail("petri_net", "no external event provides an initial token; workflow has no entry point"))
		return results
	}
	if len(n.final) == 0 {
		results = append(results, fail("petri_net", "workflow has no completion place"))
		return results
	}
	if !connectedCheck(n) {
		results = append(results, fail("petri_net", "workflow net is not well-formed: steps and events form more than one disconnected component"))
		return results
	}

	reachedFinal, unbounded, fired := soundnessCheck(n)
	if unbounded {
		results = append(results, fail("petri_net", "workflow net is unbounded: a place can accumulate unboundedly many tokens"))
	} else if !reachedFinal {
		results = append(results, fail("petri_net", "workflow net is not sound: the completion marking is never reached from the initial marking"))
	} else {
		var dead []string
		for i, t := range n.transitions {
			if !fired[i] {
				dead = append(dead, t.Name)
			}
		}
		if len(dead) > 0 {
			sort.Strings(dead)
			results = append(results, fail("petri_net", fmt.Sprintf("workflow net has unreachable steps: %v", dead)))
		} else {
			results = append(results, ValidationResult{Name: "petri_net", Success: true, Severity: SeverityError, Message: "workflow net is sound"})
		}
	}

	return results
}

// orphanedEventWarnings implements Open Question 1's decision: an event
// declared but neither consumed nor emitted by any step is a warning,
// unless it is also external, in which case it is a legitimate pending
// trigger and produces no finding at all.
func orphanedEventWarnings(p *plan.Plan, events *plan.EventRegistry) []ValidationResult {
	referenced := make(map[string]bool)
	for _, s := range p.Steps {
		for _, e := range s.On {
			referenced[e] = true
		}
		for _, e := range s.Emits {
			referenced[e] = true
		}
	}

	var out []ValidationResult
	for _, e := range p.Events {
		if referenced[e.Name] {
			continue
		}
		if e.External() {
			continue
		}
		if def, ok := events.Get(e.Name); ok && def.External() {
			continue
		}
		out = append(out, ValidationResult{
			Name:     "orphaned_event",
			Success:  false,
			Severity: SeverityWarning,
			Message:  fmt.Sprintf("event %q is declared but never consumed or emitted", e.Name),
		})
	}
	return out
}
