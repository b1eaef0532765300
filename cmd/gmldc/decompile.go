package main

import (
	"flag"
	"fmt"
	"os"

	"gmldc/internal/decompile"
	"gmldc/internal/diag"
	"gmldc/internal/output"
)

func cmdDecompile(args []string) error {
	fs := flag.NewFlagSet("decompile", flag.ExitOnError)
	cf := addCommonFlags(fs)
	dump := fs.Bool("print", false, "also dump each AST to stdout")

	if err := fs.Parse(args); err != nil {
		return err
	}
	s, err := openSession(cf)
	if err != nil {
		return err
	}
	opts, err := s.decompileOptions()
	if err != nil {
		return err
	}

	outDir := s.cfg.Output.Dir
	var diags diag.Diags
	results := make([]output.Result, 0, len(s.codes))
	for _, code := range s.codes {
		block, err := decompile.DecompileOne(code, &s.bundle.Symbols, opts...)
		if err != nil {
			results = append(results, output.Result{Code: code.Name, Kind: diag.KindOf(err), Error: err.Error()})
			s.log.Warn().Err(err).Str("code", code.Name).Str("kind", string(diag.KindOf(err))).Msg("decompile failed")
			if stop := diags.Record(s.mode, code.Name, err); stop != nil {
				if err := writeReports(outDir, *cf.in, s.mode, results, &diags); err != nil {
					return err
				}
				return stop
			}
			continue
		}
		results = append(results, output.Result{Code: code.Name, OK: true, Statements: len(block)})
		if err := output.WriteAST(outDir, code.Name, block); err != nil {
			return err
		}
		if *dump {
			fmt.Printf("// %s\n%s\n", code.Name, output.DumpAST(block))
		}
	}

	if err := writeReports(outDir, *cf.in, s.mode, results, &diags); err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "decompiled %d / %d code entries into %s\n",
		len(results)-diags.Len(), len(results), outDir)
	for kind, n := range diags.Counts() {
		fmt.Fprintf(os.Stderr, "  %s: %d\n", kind, n)
	}
	return nil
}

// writeReports writes summary.json and diags.json for the entries processed so far.
func writeReports(dir, in string, mode diag.Mode, results []output.Result, diags *diag.Diags) error {
	if err := output.WriteSummaryJSON(dir, output.NewSummary(in, mode, results, diags)); err != nil {
		return err
	}
	return output.WriteDiagsJSON(dir, diags)
}
