package render

import (
	"fmt"
	"strings"

	"gmldc/internal/decompile"
	"gmldc/internal/gml"
)

// maxLine caps instruction text in labels; string pushes can be long.
const maxLine = 72

// BlockDOT renders a per-function basic-block CFG as DOT.
// Each block is a node listing its instructions; edges are control flow.
// The entry block is highlighted. Conditional edges use T/F colors.
func BlockDOT(code *gml.Code, bg *decompile.BlockGraph, syms gml.Symbols, t Theme) string {
	if bg.Len() == 0 {
		return ""
	}

	var b strings.Builder
	header(&b, "cfg", code.Name, t)

	root, _ := bg.Root()
	for _, ref := range bg.Nodes() {
		meta, _ := bg.Meta(ref)
		lines := gml.FormatRange(code.Instructions, meta.Start, meta.End, syms)
		for i, l := range lines {
			lines[i] = dotEscape(truncLabel(l, maxLine))
		}
		// Truncate long blocks.
		if len(lines) > 12 {
			kept := append(lines[:5:5], fmt.Sprintf("... (%d more)", len(lines)-10))
			lines = append(kept, lines[len(lines)-5:]...)
		}
		label := strings.Join(lines, "<br align=\"left\"/>") + "<br align=\"left\"/>"

		attrs := ""
		if ref == root {
			attrs = fmt.Sprintf(", penwidth=1.5, color=%q", t.EntryBorder)
		}
		switch {
		case meta.State.Resolved:
			attrs += fmt.Sprintf(", fillcolor=%q", t.ResolvedFill)
		case len(bg.ChildrenOf(ref)) == 0:
			attrs += fmt.Sprintf(", fillcolor=%q", t.TermFill)
		}
		fmt.Fprintf(&b, "  bb%d [label=<%s>%s];\n", ref, label, attrs)
	}
	b.WriteByte('\n')

	for _, ref := range bg.Nodes() {
		meta, _ := bg.Meta(ref)
		conditional := endsInCondition(code, meta.End)
		for _, c := range bg.ChildrenOf(ref) {
			cond := ""
			if conditional {
				cond = "T"
				if cm, _ := bg.Meta(c); cm.Start == meta.End {
					cond = "F"
				}
			}
			edge(&b, fmt.Sprintf("bb%d", ref), fmt.Sprintf("bb%d", c), cond, t)
		}
	}

	b.WriteString("}\n")
	return b.String()
}

// InstrDOT renders the instruction-level CFG: one node per reachable instruction.
func InstrDOT(code *gml.Code, ig *decompile.InstrGraph, syms gml.Symbols, t Theme) string {
	if ig.Len() == 0 {
		return ""
	}

	var b strings.Builder
	header(&b, "instrs", code.Name, t)

	root, _ := ig.Root()
	for _, ref := range ig.Nodes() {
		i := int(ref)
		label := dotEscape(truncLabel(strings.TrimSpace(gml.FormatRange(code.Instructions, i, i+1, syms)[0]), maxLine))
		attrs := ""
		if ref == root {
			attrs = fmt.Sprintf(", penwidth=1.5, color=%q", t.EntryBorder)
		}
		if len(ig.ChildrenOf(ref)) == 0 {
			attrs += fmt.Sprintf(", fillcolor=%q", t.TermFill)
		}
		fmt.Fprintf(&b, "  i%d [label=<%s>%s];\n", i, label, attrs)
	}
	b.WriteByte('\n')

	for _, ref := range ig.Nodes() {
		i := int(ref)
		conditional := endsInCondition(code, i+1)
		for _, c := range ig.ChildrenOf(ref) {
			cond := ""
			if conditional {
				cond = "T"
				if int(c) == i+1 {
					cond = "F"
				}
			}
			edge(&b, fmt.Sprintf("i%d", i), fmt.Sprintf("i%d", c), cond, t)
		}
	}

	b.WriteString("}\n")
	return b.String()
}

// endsInCondition reports whether the instruction before end is a conditional branch.
func endsInCondition(code *gml.Code, end int) bool {
	if end <= 0 || end > len(code.Instructions) {
		return false
	}
	b, ok := code.Instructions[end-1].(gml.Branch)
	return ok && b.Conditional()
}
