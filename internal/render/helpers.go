// Package render produces Graphviz DOT for GML instruction and block CFGs.
package render

import (
	"fmt"
	"strings"
)

// dotEscape escapes a string for use in DOT HTML labels.
func dotEscape(s string) string {
	s = strings.ReplaceAll(s, "&", "&amp;")
	s = strings.ReplaceAll(s, "<", "&lt;")
	s = strings.ReplaceAll(s, ">", "&gt;")
	s = strings.ReplaceAll(s, "\"", "&quot;")
	return s
}

// dotID maps a name to a bare DOT identifier. Characters outside
// [A-Za-z0-9_] are hex-escaped so distinct names stay distinct.
func dotID(name string) string {
	var b strings.Builder
	b.WriteString("n_")
	for _, c := range name {
		if (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') || c == '_' {
			b.WriteRune(c)
		} else {
			fmt.Fprintf(&b, "_%04x", c)
		}
	}
	return b.String()
}

// truncLabel shortens a label to maxLen, appending "..." if truncated.
func truncLabel(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}

// header writes the digraph preamble shared by every CFG rendering.
func header(b *strings.Builder, name, title string, t Theme) {
	fmt.Fprintf(b, "digraph %s {\n", name)
	b.WriteString("  rankdir=TB;\n")
	b.WriteString("  nodesep=0.3;\n")
	b.WriteString("  ranksep=0.4;\n")
	fmt.Fprintf(b, "  bgcolor=%q;\n", t.Background)
	fmt.Fprintf(b, "  node [shape=rect, style=filled, fillcolor=%q, color=%q, penwidth=0.5, fontname=\"Courier,monospace\", fontsize=8, fontcolor=%q, margin=\"0.08,0.04\"];\n",
		t.NodeFill, t.NodeBorder, t.TextColor)
	b.WriteString("  edge [penwidth=0.7, arrowsize=0.5, arrowhead=vee];\n")
	b.WriteString("  labelloc=t;\n  labeljust=l;\n")
	fmt.Fprintf(b, "  label=<<font face=\"Helvetica Neue,Helvetica\" point-size=\"9\" color=\"%s\">%s</font>>;\n",
		t.TextColor, dotEscape(title))
	b.WriteByte('\n')
}

// edge writes one control-flow edge. cond is "T", "F" or "".
func edge(b *strings.Builder, from, to, cond string, t Theme) {
	switch cond {
	case "T":
		fmt.Fprintf(b, "  %s -> %s [color=%q, label=<<font point-size=\"7\" color=\"%s\">T</font>>];\n",
			from, to, t.EdgeTaken, t.EdgeTaken)
	case "F":
		fmt.Fprintf(b, "  %s -> %s [color=%q, label=<<font point-size=\"7\" color=\"%s\">F</font>>];\n",
			from, to, t.EdgeFallthrough, t.EdgeFallthrough)
	default:
		fmt.Fprintf(b, "  %s -> %s [color=%q];\n", from, to, t.EdgeDirect)
	}
}
