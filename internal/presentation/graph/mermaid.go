package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/storefront/internal/runtime"
	"github.com/aretw0/storefront/pkg/domain"
)

// Overlay contains per-user data to highlight on the graph.
type Overlay struct {
	Current domain.State
}

// GenerateMermaid produces a Mermaid flowchart of the conversation.
// Shapes carry meaning:
// - start and end: ((Circle))
// - waiting_email (free text expected): [/Parallelogram/]
// - other states: [Rectangle]
// Intents leading to the same state are merged into one labelled arrow.
// /start edges are drawn dotted since they apply everywhere.
func GenerateMermaid(edges []runtime.Edge, overlay *Overlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	seen := make(map[domain.State]bool)
	var states []domain.State
	note := func(s domain.State) {
		if !seen[s] {
			seen[s] = true
			states = append(states, s)
		}
	}
	for _, e := range edges {
		note(e.From)
		note(e.To)
	}

	for _, s := range states {
		opener, closer := "[", "]"
		switch s {
		case domain.StateStart, domain.StateEnd:
			opener, closer = "((", "))"
		case domain.StateWaitingEmail:
			opener, closer = "[/", "/]"
		}
		fmt.Fprintf(&sb, "    %s%s\"%s\"%s\n", mermaidID(s), opener, s, closer)
	}

	type pair struct{ from, to domain.State }
	labels := make(map[pair][]string)
	var order []pair
	for _, e := range edges {
		p := pair{e.From, e.To}
		if _, ok := labels[p]; !ok {
			order = append(order, p)
		}
		labels[p] = append(labels[p], string(e.Intent))
	}

	for _, p := range order {
		label := strings.Join(labels[p], " / ")
		arrow := fmt.Sprintf("-- \"%s\" -->", label)
		if label == string(runtime.IntentStart) {
			arrow = fmt.Sprintf("-. \"%s\" .->", label)
		}
		fmt.Fprintf(&sb, "    %s %s %s\n", mermaidID(p.from), arrow, mermaidID(p.to))
	}

	if overlay != nil && overlay.Current != "" {
		sb.WriteString("\n    %% Overlay Styles\n")
		// Black text keeps the highlight readable on both light and dark themes.
		sb.WriteString("    classDef current fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")
		fmt.Fprintf(&sb, "    class %s current;\n", mermaidID(overlay.Current))
	}

	return sb.String()
}

// mermaidID prefixes state names; "end" is a reserved Mermaid keyword.
func mermaidID(s domain.State) string {
	return "s_" + strings.ReplaceAll(string(s), "-", "_")
}
