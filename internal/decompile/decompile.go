// Package decompile rebuilds GML source structure from a function's bytecode.
//
// The pipeline for one function is:
//
//	instructions -> instruction CFG -> block CFG -> resolvers -> ast.Block
//
// Resolvers rewrite the block CFG in place, each collapsing a recognized shape
// into one resolved node, until a single node holds the whole function body.
package decompile

import (
	"fmt"

	"github.com/rs/zerolog"

	"gmldc/internal/ast"
	"gmldc/internal/cfg"
	"gmldc/internal/gml"
)

// Options configures a decompilation.
type Options struct {
	Logger zerolog.Logger
	// Trace observes every edge recorded in the instruction and block graphs.
	Trace cfg.TraceFunc
	// Resolvers replaces DefaultResolvers when non-empty.
	Resolvers []Resolver
}

// Option mutates Options.
type Option func(*Options)

// WithLogger sets the logger resolver applications are reported to.
func WithLogger(l zerolog.Logger) Option {
	return func(o *Options) { o.Logger = l }
}

// WithTrace installs an edge trace hook on both graphs.
func WithTrace(fn cfg.TraceFunc) Option {
	return func(o *Options) { o.Trace = fn }
}

// WithResolvers overrides the resolver set.
func WithResolvers(rs ...Resolver) Option {
	return func(o *Options) { o.Resolvers = rs }
}

func newOptions(opts []Option) Options {
	o := Options{Logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(&o)
	}
	if len(o.Resolvers) == 0 {
		o.Resolvers = DefaultResolvers()
	}
	return o
}

func (o Options) graphOptions() []cfg.Option {
	if o.Trace == nil {
		return nil
	}
	return []cfg.Option{cfg.WithTrace(o.Trace)}
}

// BuildBlockGraph runs the graph stages of the pipeline and returns both graphs
// without resolving anything.
func BuildBlockGraph(code *gml.Code, opts ...Option) (*InstrGraph, *BlockGraph, error) {
	o := newOptions(opts)
	return buildGraphs(code, o)
}

func buildGraphs(code *gml.Code, o Options) (*InstrGraph, *BlockGraph, error) {
	ig, err := BuildInstrGraph(code, o.graphOptions()...)
	if err != nil {
		return nil, nil, err
	}
	bg, err := PartitionBlocks(code, ig, o.graphOptions()...)
	if err != nil {
		return nil, nil, err
	}
	return ig, bg, nil
}

// DecompileOne decompiles one function. It fails without a partial result.
func DecompileOne(code *gml.Code, syms gml.Symbols, opts ...Option) (ast.Block, error) {
	o := newOptions(opts)
	log := o.Logger.With().Str("code", code.Name).Logger()

	ig, bg, err := buildGraphs(code, o)
	if err != nil {
		return nil, fmt.Errorf("decompile %s: %w", code.Name, err)
	}
	log.Debug().
		Int("instructions", len(code.Instructions)).
		Int("reachable", ig.Len()).
		Int("blocks", bg.Len()).
		Msg("graphs built")

	rc := &Context{Code: code, Symbols: syms, Graph: bg, Logger: log}
	if err := rc.Run(o.Resolvers); err != nil {
		return nil, fmt.Errorf("decompile %s: %w", code.Name, err)
	}

	refs := bg.Nodes()
	if len(refs) == 0 {
		return ast.Block{}, nil
	}
	meta, _ := bg.Meta(refs[0])
	if meta.State.Cond != nil {
		return nil, fmt.Errorf("decompile %s: function ends in a dangling condition: %w", code.Name, ErrStructural)
	}
	return meta.State.Block, nil
}
