package render

import (
	"fmt"
	"sort"
	"strings"

	"gmldc/internal/callgraph"
)

// ReachabilityDOT renders the call graph filtered to the reachable set.
// Entry points are highlighted and object events are clustered by object.
func ReachabilityDOT(edges []callgraph.CallEdge, reach callgraph.Reach, entryPoints []string, title string, t Theme) string {
	entrySet := make(map[string]bool, len(entryPoints))
	for _, ep := range entryPoints {
		entrySet[ep] = true
	}

	var kept []callgraph.CallEdge
	refNodes := make(map[string]bool)
	for _, e := range edges {
		if !reach.Has(e.From) || !reach.Has(e.To) {
			continue
		}
		kept = append(kept, e)
		refNodes[e.From] = true
		refNodes[e.To] = true
	}
	for _, ep := range entryPoints {
		refNodes[ep] = true
	}

	ownerFuncs := make(map[string][]string)
	var noOwner []string
	for name := range refNodes {
		if owner := callgraph.Owner(name); owner != "" {
			ownerFuncs[owner] = append(ownerFuncs[owner], name)
		} else {
			noOwner = append(noOwner, name)
		}
	}

	var b strings.Builder
	b.WriteString("digraph reachable {\n")
	b.WriteString("  rankdir=LR;\n")
	b.WriteString("  compound=true;\n")
	b.WriteString("  splines=true;\n")
	b.WriteString("  nodesep=0.4;\n")
	b.WriteString("  ranksep=0.6;\n")
	fmt.Fprintf(&b, "  bgcolor=%q;\n", t.Background)
	fmt.Fprintf(&b, "  node [shape=rect, style=filled, fillcolor=%q, color=%q, penwidth=0.5, fontname=\"Helvetica Neue,Helvetica,Arial\", fontsize=9, fontcolor=%q, height=0.3, margin=\"0.12,0.06\"];\n",
		t.NodeFill, t.NodeBorder, t.TextColor)
	fmt.Fprintf(&b, "  edge [penwidth=0.5, arrowsize=0.5, arrowhead=vee, color=%q];\n", t.EdgeDirect)
	if title != "" {
		fmt.Fprintf(&b, "  labelloc=t;\n  labeljust=l;\n")
		fmt.Fprintf(&b, "  label=<<font face=\"Helvetica Neue,Helvetica\" point-size=\"8\" color=\"%s\">%s</font>>;\n",
			t.TextColor, dotEscape(title))
	}
	b.WriteByte('\n')

	writeNode := func(name string) {
		label := truncLabel(name, 50)
		if entrySet[name] {
			fmt.Fprintf(&b, "    %s [label=%q, penwidth=1.5, color=%q];\n", dotID(name), label, t.EntryBorder)
		} else {
			fmt.Fprintf(&b, "    %s [label=%q];\n", dotID(name), label)
		}
	}

	owners := make([]string, 0, len(ownerFuncs))
	for owner := range ownerFuncs {
		owners = append(owners, owner)
	}
	sort.Strings(owners)
	for _, owner := range owners {
		names := ownerFuncs[owner]
		if len(names) < 2 {
			noOwner = append(noOwner, names...)
			continue
		}
		sort.Strings(names)
		fmt.Fprintf(&b, "  subgraph %s {\n", "cluster_"+dotID(owner))
		fmt.Fprintf(&b, "    label=<<font point-size=\"8\" color=\"%s\">%s</font>>;\n",
			t.TextColor, dotEscape(owner))
		fmt.Fprintf(&b, "    style=dotted; color=%q; penwidth=0.3;\n", t.NodeBorder)
		for _, name := range names {
			writeNode(name)
		}
		b.WriteString("  }\n")
	}
	sort.Strings(noOwner)
	for _, name := range noOwner {
		b.WriteString("  ")
		writeNode(name)
	}
	b.WriteByte('\n')

	for _, e := range kept {
		attrs := fmt.Sprintf("color=%q", t.EdgeDirect)
		if e.Count > 1 {
			attrs += fmt.Sprintf(", penwidth=%.1f", 0.5+float64(e.Count)*0.1)
		}
		fmt.Fprintf(&b, "  %s -> %s [%s];\n", dotID(e.From), dotID(e.To), attrs)
	}

	b.WriteString("}\n")
	return b.String()
}
