package main

import (
	"flag"
	"fmt"
	"os"

	"gmldc/internal/gml"
	"gmldc/internal/output"
)

func cmdDisasm(args []string) error {
	fs := flag.NewFlagSet("disasm", flag.ExitOnError)
	cf := addCommonFlags(fs)
	stdout := fs.Bool("stdout", false, "print listings instead of writing files")

	if err := fs.Parse(args); err != nil {
		return err
	}
	s, err := openSession(cf)
	if err != nil {
		return err
	}

	syms := &s.bundle.Symbols
	for _, code := range s.codes {
		if *stdout {
			fmt.Printf("%s:\n%s\n", code.Name, gml.Format(code.Instructions, syms))
			continue
		}
		if err := output.WriteListing(s.cfg.Output.Dir, code, syms); err != nil {
			return err
		}
	}
	if !*stdout {
		fmt.Fprintf(os.Stderr, "wrote %d listings to %s\n", len(s.codes), s.cfg.Output.Dir)
	}
	return nil
}
