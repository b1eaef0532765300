package decompile

import (
	"fmt"

	"gmldc/internal/gml"
)

// Jump offsets are signed byte deltas over variable-length instructions, so a
// target index cannot be computed by index arithmetic. These helpers walk the
// stream summing encoded sizes instead.

// ByteOffsetToIndex returns the index of the instruction starting byteOffset bytes
// into instrs. An offset equal to the stream's total length yields len(instrs).
func ByteOffsetToIndex(instrs []gml.Instruction, byteOffset uint32) (int, error) {
	if byteOffset == 0 {
		return 0, nil
	}
	index := 0
	var offset uint32
	for offset < byteOffset {
		if index >= len(instrs) {
			return 0, fmt.Errorf("byte offset %d in instructions of byte length %d: %w",
				byteOffset, offset, ErrOffsetOutOfRange)
		}
		offset += instrs[index].Size()
		index++
	}
	if offset != byteOffset {
		return 0, fmt.Errorf("byte offset %d (reached %d instead): %w",
			byteOffset, offset, ErrOffsetMisaligned)
	}
	return index, nil
}

// RelativeOffsetToIndex resolves a jump of byteOffset bytes from the instruction at index.
func RelativeOffsetToIndex(instrs []gml.Instruction, index int, byteOffset int32) (int, error) {
	if byteOffset == 0 {
		return index, nil
	}
	if index < 0 || index > len(instrs) {
		return 0, fmt.Errorf("jump from index %d of %d: %w", index, len(instrs), ErrOffsetOutOfRange)
	}
	if byteOffset > 0 {
		rel, err := ByteOffsetToIndex(instrs[index:], uint32(byteOffset))
		if err != nil {
			return 0, fmt.Errorf("jump %+d from index %d: %w", byteOffset, index, err)
		}
		return index + rel, nil
	}
	before := int64(gml.ByteLength(instrs[:index]))
	target := before + int64(byteOffset)
	if target < 0 {
		return 0, fmt.Errorf("jump %+d from index %d (byte %d): %w", byteOffset, index, before, ErrOffsetUnderflow)
	}
	abs, err := ByteOffsetToIndex(instrs[:index], uint32(target))
	if err != nil {
		return 0, fmt.Errorf("jump %+d from index %d: %w", byteOffset, index, err)
	}
	return abs, nil
}
