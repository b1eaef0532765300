// Package diag classifies decompilation failures and accumulates them across
// the code entries of a bundle.
package diag

import (
	"errors"
	"fmt"

	"gmldc/internal/decompile"
	"gmldc/internal/gml"
)

// Kind classifies a diagnostic message.
type Kind string

const (
	KindMalformedOffset  Kind = "malformed_offset"
	KindOffsetUnderflow  Kind = "offset_underflow"
	KindUnresolvedSymbol Kind = "unresolved_symbol"
	KindStackUnderflow   Kind = "stack_underflow"
	KindUnsupported      Kind = "unsupported"
	KindStructural       Kind = "structural"
	KindIncomplete       Kind = "incomplete"
	KindInternal         Kind = "internal"
)

// KindOf maps an error chain to its diagnostic kind.
func KindOf(err error) Kind {
	switch {
	case errors.Is(err, decompile.ErrMalformedOffset):
		return KindMalformedOffset
	case errors.Is(err, decompile.ErrOffsetUnderflow):
		return KindOffsetUnderflow
	case errors.Is(err, gml.ErrUnresolvedSymbol):
		return KindUnresolvedSymbol
	case errors.Is(err, decompile.ErrStackUnderflow):
		return KindStackUnderflow
	case errors.Is(err, decompile.ErrUnsupported):
		return KindUnsupported
	case errors.Is(err, decompile.ErrStructural):
		return KindStructural
	case errors.Is(err, decompile.ErrIncomplete):
		return KindIncomplete
	}
	return KindInternal
}

// Diag records one code entry that failed to decompile.
type Diag struct {
	Code string `json:"code"`
	Kind Kind   `json:"kind"`
	Msg  string `json:"msg"`
}

func (d Diag) String() string {
	return fmt.Sprintf("[%s] %s: %s", d.Kind, d.Code, d.Msg)
}

// Diags accumulates diagnostics.
type Diags struct {
	items []Diag
}

func (d *Diags) Add(code string, kind Kind, msg string) {
	d.items = append(d.items, Diag{Code: code, Kind: kind, Msg: msg})
}

func (d *Diags) Addf(code string, kind Kind, format string, args ...any) {
	d.items = append(d.items, Diag{Code: code, Kind: kind, Msg: fmt.Sprintf(format, args...)})
}

func (d *Diags) Items() []Diag { return d.items }
func (d *Diags) Len() int      { return len(d.items) }

// Counts returns the number of diagnostics per kind.
func (d *Diags) Counts() map[Kind]int {
	out := make(map[Kind]int)
	for _, it := range d.items {
		out[it.Kind]++
	}
	return out
}

// Record classifies err and adds it under code. In strict mode it returns err
// so the caller stops; in best-effort mode it returns nil.
func (d *Diags) Record(mode Mode, code string, err error) error {
	if err == nil {
		return nil
	}
	d.Add(code, KindOf(err), err.Error())
	if mode == ModeStrict {
		return err
	}
	return nil
}

// Mode controls error handling behavior.
type Mode int

const (
	ModeStrict     Mode = iota // first failing code entry stops the run
	ModeBestEffort             // keep going, accumulate diags
)

func (m Mode) String() string {
	if m == ModeBestEffort {
		return "best-effort"
	}
	return "strict"
}

// ParseMode is the inverse of Mode.String.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "", "strict":
		return ModeStrict, nil
	case "best-effort":
		return ModeBestEffort, nil
	}
	return 0, fmt.Errorf("diag: unknown mode %q (want strict or best-effort)", s)
}
