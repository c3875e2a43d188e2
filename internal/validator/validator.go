package validator

import (
	"fmt"
	"strings"

	"github.com/aretw0/storefront/internal/runtime"
	"github.com/aretw0/storefront/pkg/domain"
)

// ValidateGraph crawls edges from start and reports states that cannot be
// reached, targets that are not known states, and states that can never lead
// to terminal.
func ValidateGraph(edges []runtime.Edge, states []domain.State, start, terminal domain.State) error {
	known := make(map[domain.State]bool, len(states))
	for _, s := range states {
		known[s] = true
	}

	out := make(map[domain.State][]domain.State)
	in := make(map[domain.State][]domain.State)
	var errors []string
	for _, e := range edges {
		if !known[e.From] {
			errors = append(errors, fmt.Sprintf("Unknown source state: '%s' (%s)", e.From, e.Intent))
		}
		if !known[e.To] {
			errors = append(errors, fmt.Sprintf("Unknown target state: '%s' (%s from '%s')", e.To, e.Intent, e.From))
		}
		out[e.From] = append(out[e.From], e.To)
		in[e.To] = append(in[e.To], e.From)
	}

	reached := crawl(start, out)
	ending := crawl(terminal, in)
	for _, s := range states {
		if !reached[s] {
			errors = append(errors, fmt.Sprintf("Unreachable state: '%s'", s))
		}
		if !ending[s] {
			errors = append(errors, fmt.Sprintf("State never reaches '%s': '%s'", terminal, s))
		}
	}

	if len(errors) > 0 {
		return fmt.Errorf("found %d errors:\n- %s", len(errors), strings.Join(errors, "\n- "))
	}
	return nil
}

// crawl returns every state reachable from root following next.
func crawl(root domain.State, next map[domain.State][]domain.State) map[domain.State]bool {
	visited := make(map[domain.State]bool)
	queue := []domain.State{root}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		if visited[current] {
			continue
		}
		visited[current] = true
		for _, target := range next[current] {
			if !visited[target] {
				queue = append(queue, target)
			}
		}
	}
	return visited
}
