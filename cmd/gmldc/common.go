package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"

	"gmldc/internal/bundle"
	"gmldc/internal/cfg"
	"gmldc/internal/config"
	"gmldc/internal/decompile"
	"gmldc/internal/diag"
	"gmldc/internal/gml"
)

// commonFlags are shared by every subcommand. Flags left at their zero value
// fall back to the configuration file.
type commonFlags struct {
	in         *string
	out        *string
	configPath *string
	code       *string
	strict     *bool
	bestEffort *bool
	logLevel   *string
}

func addCommonFlags(fs *flag.FlagSet) *commonFlags {
	return &commonFlags{
		in:         fs.String("in", "", "bundle file (.json or .cbor)"),
		out:        fs.String("out", "", "output directory"),
		configPath: fs.String("config", config.FileName, "configuration file"),
		code:       fs.String("code", "", "only process this code entry"),
		strict:     fs.Bool("strict", false, "fail on first code entry that does not decompile"),
		bestEffort: fs.Bool("best-effort", false, "continue and record diagnostics"),
		logLevel:   fs.String("log-level", "", "log level"),
	}
}

// session is the resolved state a subcommand runs against.
type session struct {
	cfg    *config.Config
	mode   diag.Mode
	log    zerolog.Logger
	bundle *bundle.Bundle
	codes  []*gml.Code
}

func (f *commonFlags) apply(c *config.Config) error {
	if *f.out != "" {
		c.Output.Dir = *f.out
	}
	if *f.logLevel != "" {
		c.Log.Level = *f.logLevel
	}
	switch {
	case *f.strict && *f.bestEffort:
		return fmt.Errorf("--strict and --best-effort are mutually exclusive")
	case *f.strict:
		c.Decompile.Mode = diag.ModeStrict.String()
	case *f.bestEffort:
		c.Decompile.Mode = diag.ModeBestEffort.String()
	}
	return c.Validate()
}

func openSession(f *commonFlags) (*session, error) {
	if *f.in == "" {
		return nil, fmt.Errorf("--in is required")
	}
	c, err := config.LoadOrDefault(*f.configPath)
	if err != nil {
		return nil, err
	}
	if err := f.apply(c); err != nil {
		return nil, err
	}
	mode, err := diag.ParseMode(c.Decompile.Mode)
	if err != nil {
		return nil, err
	}

	s := &session{cfg: c, mode: mode, log: newLogger(os.Stderr, c)}
	if c.Path != "" {
		s.log.Debug().Str("path", c.Path).Msg("config loaded")
	}

	s.bundle, err = bundle.Read(*f.in)
	if err != nil {
		return nil, err
	}
	if *f.code != "" {
		code, err := s.bundle.Lookup(*f.code)
		if err != nil {
			return nil, err
		}
		s.codes = []*gml.Code{code}
	} else {
		s.codes, err = s.bundle.Codes()
		if err != nil {
			return nil, err
		}
	}
	fmt.Fprintf(os.Stderr, "read %d code entries from %s\n", len(s.codes), *f.in)
	return s, nil
}

func newLogger(w io.Writer, c *config.Config) zerolog.Logger {
	if !c.Log.JSON {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen}
	}
	return zerolog.New(w).Level(c.Level()).With().Timestamp().Logger()
}

// decompileOptions builds the decompiler options from configuration.
func (s *session) decompileOptions() ([]decompile.Option, error) {
	resolvers, err := decompile.ResolversByName(s.cfg.Decompile.Resolvers)
	if err != nil {
		return nil, err
	}
	opts := []decompile.Option{
		decompile.WithLogger(s.log),
		decompile.WithResolvers(resolvers...),
	}
	if s.cfg.Decompile.Trace {
		opts = append(opts, decompile.WithTrace(traceEdges(s.log)))
	}
	return opts, nil
}

func traceEdges(log zerolog.Logger) cfg.TraceFunc {
	return func(parent, child cfg.NodeRef) {
		log.Trace().Int("parent", int(parent)).Int("child", int(child)).Msg("edge")
	}
}
