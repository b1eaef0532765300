package main

import (
	"fmt"
	"os"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	var err error
	switch os.Args[1] {
	case "decompile":
		err = cmdDecompile(os.Args[2:])
	case "disasm":
		err = cmdDisasm(os.Args[2:])
	case "graph":
		err = cmdGraph(os.Args[2:])
	case "help", "-h", "--help":
		usage()
		os.Exit(0)
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", os.Args[1])
		usage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, `gmldc - GML bytecode decompiler

Usage:
  gmldc decompile --in <bundle> [--out <dir>] [--code <name>]   Decompile code entries to AST dumps
  gmldc disasm    --in <bundle> [--out <dir>] [--code <name>]   Write annotated instruction listings
  gmldc graph     --in <bundle> [--out <dir>] [--code <name>]   Write block CFG and call graph DOT files

Flags:
  --in <path>        Bundle file (.json or .cbor)
  --out <dir>        Output directory (default from gmldc.toml, else "out")
  --config <path>    Configuration file (default gmldc.toml)
  --code <name>      Only process this code entry
  --strict           Fail on first code entry that does not decompile
  --best-effort      Continue and record diagnostics
  --log-level <lvl>  trace, debug, info, warn, error
`)
}
