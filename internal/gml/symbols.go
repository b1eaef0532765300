package gml

import (
	"errors"
	"fmt"
)

// ErrUnresolvedSymbol is returned when a symbol table has no entry for a reference.
var ErrUnresolvedSymbol = errors.New("gml: unresolved symbol")

// Symbols resolves operand references to names.
type Symbols interface {
	FunctionName(ref FunctionRef) (string, error)
	VariableName(ref VariableRef) (string, error)
	AssetName(kind AssetKind, index uint32) (string, error)
}

// Data holds the name tables of one game. Asset tables are keyed by kind.
type Data struct {
	Functions []string               `json:"functions" cbor:"functions"`
	Variables []string               `json:"variables" cbor:"variables"`
	Assets    map[AssetKind][]string `json:"assets,omitempty" cbor:"assets,omitempty"`
}

var _ Symbols = (*Data)(nil)

func lookup(table []string, index uint32, what string) (string, error) {
	if int64(index) >= int64(len(table)) {
		return "", fmt.Errorf("%s %d (table has %d entries): %w", what, index, len(table), ErrUnresolvedSymbol)
	}
	return table[index], nil
}

// FunctionName returns the name of a function.
func (d *Data) FunctionName(ref FunctionRef) (string, error) {
	return lookup(d.Functions, uint32(ref), "function")
}

// VariableName returns the name of a variable.
func (d *Data) VariableName(ref VariableRef) (string, error) {
	return lookup(d.Variables, ref.Index, "variable")
}

// AssetName returns the name of an asset. Room instances have no table and are
// named inst_<HEX id>; function references use the function table.
func (d *Data) AssetName(kind AssetKind, index uint32) (string, error) {
	switch kind {
	case AssetRoomInstance:
		return fmt.Sprintf("inst_%X", index), nil
	case AssetFunction:
		return lookup(d.Functions, index, "function")
	}
	return lookup(d.Assets[kind], index, kind.String())
}
