package render

// Theme holds colors for CFG rendering.
type Theme struct {
	Background string
	NodeFill   string
	NodeBorder string
	TextColor  string

	// Edge colors by kind.
	EdgeTaken       string // conditional branch, jump taken
	EdgeFallthrough string // conditional branch, fallthrough
	EdgeDirect      string // unconditional flow

	// Node accents.
	EntryBorder  string // entry block or instruction
	TermFill     string // no successors (ret, exit)
	ResolvedFill string // blocks a resolver has already decompiled
}

// NASA is the NASA/Bauhaus theme: geometric, monochrome, sparse color.
var NASA = Theme{
	Background: "#F5F5F5",
	NodeFill:   "white",
	NodeBorder: "#1A1A1A",
	TextColor:  "#1A1A1A",

	EdgeTaken:       "#0B3D91", // NASA blue
	EdgeFallthrough: "#FC3D21", // NASA red
	EdgeDirect:      "#424242", // dark gray

	EntryBorder:  "#0B3D91",
	TermFill:     "#ECEFF1", // blue-gray 50
	ResolvedFill: "#E8F5E9", // green 50
}

// Mono renders everything in black on white, for printing.
var Mono = Theme{
	Background:      "white",
	NodeFill:        "white",
	NodeBorder:      "black",
	TextColor:       "black",
	EdgeTaken:       "black",
	EdgeFallthrough: "gray40",
	EdgeDirect:      "black",
	EntryBorder:     "black",
	TermFill:        "gray95",
	ResolvedFill:    "gray90",
}

// ThemeByName returns the named theme and whether it exists.
func ThemeByName(name string) (Theme, bool) {
	switch name {
	case "", "nasa":
		return NASA, true
	case "mono":
		return Mono, true
	}
	return Theme{}, false
}
