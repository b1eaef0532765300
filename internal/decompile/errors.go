package decompile

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformedOffset matches every offset that does not name an instruction boundary.
	ErrMalformedOffset = errors.New("malformed offset")
	// ErrOffsetOutOfRange: the offset lies past the end of the instruction stream.
	ErrOffsetOutOfRange = fmt.Errorf("%w: out of range", ErrMalformedOffset)
	// ErrOffsetMisaligned: the offset falls inside an instruction.
	ErrOffsetMisaligned = fmt.Errorf("%w: misaligned", ErrMalformedOffset)
	// ErrOffsetUnderflow: a backward jump lands before the start of the function.
	ErrOffsetUnderflow = errors.New("offset before start of instructions")

	// ErrStackUnderflow: the simulated operand stack was empty when popped.
	ErrStackUnderflow = errors.New("stack underflow")
	// ErrUnsupported: no resolver handles this construct yet.
	ErrUnsupported = errors.New("unsupported construct")
	// ErrStructural: a jump inside a block leaves the block's own range.
	ErrStructural = errors.New("structural defect")
	// ErrIncomplete: resolution stopped before the graph collapsed to one node.
	ErrIncomplete = errors.New("incomplete decompilation")
)
