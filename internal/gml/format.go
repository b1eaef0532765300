package gml

import (
	"fmt"
	"strings"
)

// Format renders instructions as a stable listing.
// Each line: <index>  <byte offset>  <instruction>  ; <resolved name>
// Names are looked up through syms when it is non-nil; misses are left unannotated.
func Format(instrs []Instruction, syms Symbols) string {
	if len(instrs) == 0 {
		return ""
	}
	return strings.Join(FormatRange(instrs, 0, len(instrs), syms), "\n") + "\n"
}

// FormatRange renders instrs[start:end] one line per instruction, keeping the
// indices and byte offsets of the whole stream.
func FormatRange(instrs []Instruction, start, end int, syms Symbols) []string {
	off := ByteLength(instrs[:start])
	lines := make([]string, 0, end-start)
	for i := start; i < end; i++ {
		in := instrs[i]
		line := fmt.Sprintf("%4d  0x%06x  %s", i, off, in)
		if syms != nil {
			if name := annotate(in, syms); name != "" {
				line += "  ; " + name
			}
		}
		lines = append(lines, line)
		off += in.Size()
	}
	return lines
}

// annotate returns the symbol an instruction refers to, or "".
func annotate(in Instruction, syms Symbols) string {
	var (
		name string
		err  error
	)
	switch in := in.(type) {
	case Push:
		switch v := in.Value.(type) {
		case Variable:
			name, err = syms.VariableName(VariableRef(v))
		case Function:
			name, err = syms.FunctionName(FunctionRef(v))
		}
	case PushReference:
		name, err = syms.AssetName(in.Kind, in.Index)
	case Call:
		name, err = syms.FunctionName(in.Function)
	case Pop:
		name, err = syms.VariableName(in.Variable)
	}
	if err != nil {
		return ""
	}
	return name
}

// Callees returns the names of the functions called by instrs, in order of appearance.
// Unresolvable calls are reported as func[N].
func Callees(instrs []Instruction, syms Symbols) []string {
	var out []string
	for _, in := range instrs {
		c, ok := in.(Call)
		if !ok {
			continue
		}
		name, err := syms.FunctionName(c.Function)
		if err != nil {
			name = fmt.Sprintf("func[%d]", uint32(c.Function))
		}
		out = append(out, name)
	}
	return out
}
