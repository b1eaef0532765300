package diag

import (
	"errors"
	"fmt"
	"testing"

	"gmldc/internal/decompile"
	"gmldc/internal/gml"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		err  error
		want Kind
	}{
		{fmt.Errorf("decompile f: build instruction cfg: %w", decompile.ErrOffsetMisaligned), KindMalformedOffset},
		{fmt.Errorf("wrap: %w", decompile.ErrOffsetOutOfRange), KindMalformedOffset},
		{decompile.ErrOffsetUnderflow, KindOffsetUnderflow},
		{fmt.Errorf("block 0: %w", gml.ErrUnresolvedSymbol), KindUnresolvedSymbol},
		{fmt.Errorf("block 3: %w", decompile.ErrStackUnderflow), KindStackUnderflow},
		{decompile.ErrUnsupported, KindUnsupported},
		{decompile.ErrStructural, KindStructural},
		{decompile.ErrIncomplete, KindIncomplete},
		{errors.New("boom"), KindInternal},
	}
	for _, tc := range tests {
		if got := KindOf(tc.err); got != tc.want {
			t.Errorf("KindOf(%v) = %s, want %s", tc.err, got, tc.want)
		}
	}
}

func TestRecordStrictStopsAtFirstFailure(t *testing.T) {
	var d Diags
	errs := []error{nil, decompile.ErrUnsupported, decompile.ErrIncomplete}

	var stopped error
	for i, err := range errs {
		if stopped = d.Record(ModeStrict, fmt.Sprintf("code%d", i), err); stopped != nil {
			break
		}
	}
	if !errors.Is(stopped, decompile.ErrUnsupported) {
		t.Fatalf("stopped = %v, want unsupported", stopped)
	}
	if d.Len() != 1 {
		t.Fatalf("diags = %d, want 1", d.Len())
	}
	if got := d.Items()[0].String(); got != "[unsupported] code1: unsupported construct" {
		t.Errorf("diag = %q", got)
	}
}

func TestRecordBestEffortContinues(t *testing.T) {
	var d Diags
	for i, err := range []error{decompile.ErrUnsupported, nil, decompile.ErrUnsupported, decompile.ErrStackUnderflow} {
		if got := d.Record(ModeBestEffort, fmt.Sprintf("code%d", i), err); got != nil {
			t.Fatalf("Record returned %v in best-effort mode", got)
		}
	}
	counts := d.Counts()
	if counts[KindUnsupported] != 2 || counts[KindStackUnderflow] != 1 {
		t.Errorf("counts = %v", counts)
	}
	d.Addf("code9", KindInternal, "extra %d", 1)
	if d.Len() != 4 {
		t.Errorf("len = %d, want 4", d.Len())
	}
}

func TestParseMode(t *testing.T) {
	for _, m := range []Mode{ModeStrict, ModeBestEffort} {
		got, err := ParseMode(m.String())
		if err != nil || got != m {
			t.Errorf("ParseMode(%q) = %v, %v", m, got, err)
		}
	}
	if _, err := ParseMode("lenient"); err == nil {
		t.Error("expected error for unknown mode")
	}
}
