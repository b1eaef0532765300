package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/zboralski/lattice/render"

	"gmldc/internal/callgraph"
	"gmldc/internal/decompile"
	"gmldc/internal/diag"
	"gmldc/internal/output"
	gmlrender "gmldc/internal/render"
)

func cmdGraph(args []string) error {
	fs := flag.NewFlagSet("graph", flag.ExitOnError)
	cf := addCommonFlags(fs)
	theme := fs.String("theme", "", "DOT theme: nasa or mono")
	instrs := fs.Bool("instrs", false, "render instruction-level CFGs")
	title := fs.String("title", "", "title for the call graph (defaults to the bundle name)")

	if err := fs.Parse(args); err != nil {
		return err
	}
	s, err := openSession(cf)
	if err != nil {
		return err
	}
	if *theme != "" {
		s.cfg.Render.Theme = *theme
	}
	if *instrs {
		s.cfg.Render.Instructions = true
	}
	t, ok := gmlrender.ThemeByName(s.cfg.Render.Theme)
	if !ok {
		return fmt.Errorf("unknown theme %q", s.cfg.Render.Theme)
	}
	if *title == "" {
		*title = filepath.Base(*cf.in)
	}

	outDir := s.cfg.Output.Dir
	syms := &s.bundle.Symbols
	opts, err := s.decompileOptions()
	if err != nil {
		return err
	}

	var diags diag.Diags
	written := 0
	for _, code := range s.codes {
		ig, bg, err := decompile.BuildBlockGraph(code, opts...)
		if err != nil {
			s.log.Warn().Err(err).Str("code", code.Name).Msg("graph failed")
			if stop := diags.Record(s.mode, code.Name, err); stop != nil {
				if err := output.WriteDiagsJSON(outDir, &diags); err != nil {
					return err
				}
				return stop
			}
			continue
		}
		dot := gmlrender.BlockDOT(code, bg, syms, t)
		if s.cfg.Render.Instructions {
			dot = gmlrender.InstrDOT(code, ig, syms, t)
		}
		if err := output.WriteDOT(outDir, code.Name, dot); err != nil {
			return err
		}
		written++
	}
	fmt.Fprintf(os.Stderr, "wrote %d CFGs to %s\n", written, filepath.Join(outDir, "dot"))

	funcs := callgraph.Funcs(s.codes)
	cg := callgraph.BuildCallGraph(funcs, syms)
	if err := output.WriteDOT(outDir, "callgraph", render.DOT(cg, *title)); err != nil {
		return err
	}
	edges := callgraph.CallEdges(funcs, syms)
	entries := callgraph.FindEntryPoints(funcs, edges)
	reachable := callgraph.Reachable(entries, edges)
	fmt.Fprintf(os.Stderr, "entry points: %d, reachable: %d\n", len(entries), len(reachable))
	reachDOT := gmlrender.ReachabilityDOT(edges, reachable, entries, *title+" (reachable)", t)
	if err := output.WriteDOT(outDir, "reachable", reachDOT); err != nil {
		return err
	}

	lcfg, err := callgraph.BuildCFG(funcs, syms)
	if err != nil {
		if stop := diags.Record(s.mode, "cfg", err); stop != nil {
			if err := output.WriteDiagsJSON(outDir, &diags); err != nil {
				return err
			}
			return stop
		}
		fmt.Fprintf(os.Stderr, "skipped cfg.dot: %v\n", err)
		return output.WriteDiagsJSON(outDir, &diags)
	}
	if err := output.WriteDOT(outDir, "cfg", render.DOTCFG(lcfg, *title)); err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "wrote callgraph.dot and cfg.dot to %s\n", filepath.Join(outDir, "dot"))
	return output.WriteDiagsJSON(outDir, &diags)
}
