// Package bundle reads and writes the input files of the gmldc CLI: the symbol
// tables of one game plus the instruction streams of its code entries, as
// JSON or canonical CBOR.
package bundle

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fxamacker/cbor/v2"
	"github.com/goccy/go-json"

	"gmldc/internal/gml"
)

// Bundle is the decoded contents of one bundle file.
type Bundle struct {
	Symbols gml.Data `json:"symbols" cbor:"symbols"`
	Code    []Code   `json:"code" cbor:"code"`
}

// Code is one serialized code entry.
type Code struct {
	Name            string  `json:"name" cbor:"name"`
	ExecutionOffset uint32  `json:"execution_offset,omitempty" cbor:"execution_offset,omitempty"`
	Instructions    []Instr `json:"instructions" cbor:"instructions"`
}

// Format selects the encoding of a bundle file.
type Format int

const (
	FormatJSON Format = iota
	FormatCBOR
)

func (f Format) String() string {
	if f == FormatCBOR {
		return "cbor"
	}
	return "json"
}

// FormatOf picks the format from a file extension: .cbor is CBOR, anything else JSON.
func FormatOf(path string) Format {
	if strings.EqualFold(filepath.Ext(path), ".cbor") {
		return FormatCBOR
	}
	return FormatJSON
}

// cborEncMode is canonical so that equal bundles encode to equal bytes.
var cborEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("bundle: failed to create CBOR enc mode: %v", err))
	}
	cborEncMode = em
}

// Marshal encodes b in format f.
func Marshal(b *Bundle, f Format) ([]byte, error) {
	if f == FormatCBOR {
		data, err := cborEncMode.Marshal(b)
		if err != nil {
			return nil, fmt.Errorf("bundle: marshal cbor: %w", err)
		}
		return data, nil
	}
	data, err := json.MarshalIndent(b, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("bundle: marshal json: %w", err)
	}
	return data, nil
}

// Unmarshal decodes a bundle in format f.
func Unmarshal(data []byte, f Format) (*Bundle, error) {
	var b Bundle
	if f == FormatCBOR {
		if err := cbor.Unmarshal(data, &b); err != nil {
			return nil, fmt.Errorf("bundle: unmarshal cbor: %w", err)
		}
		return &b, nil
	}
	if err := json.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("bundle: unmarshal json: %w", err)
	}
	return &b, nil
}

// Read loads a bundle file, choosing the format from its extension.
func Read(path string) (*Bundle, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("bundle: %w", err)
	}
	b, err := Unmarshal(data, FormatOf(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return b, nil
}

// Write stores b at path, choosing the format from its extension.
func Write(path string, b *Bundle) error {
	data, err := Marshal(b, FormatOf(path))
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("bundle: %w", err)
	}
	return nil
}

// Codes decodes every code entry into instruction streams.
func (b *Bundle) Codes() ([]*gml.Code, error) {
	out := make([]*gml.Code, 0, len(b.Code))
	for _, c := range b.Code {
		code := &gml.Code{Name: c.Name, ExecutionOffset: c.ExecutionOffset}
		for i, r := range c.Instructions {
			in, err := DecodeInstr(r)
			if err != nil {
				return nil, fmt.Errorf("%s: instruction %d: %w", c.Name, i, err)
			}
			code.Instructions = append(code.Instructions, in)
		}
		out = append(out, code)
	}
	return out, nil
}

// Lookup returns the code entry called name.
func (b *Bundle) Lookup(name string) (*gml.Code, error) {
	codes, err := b.Codes()
	if err != nil {
		return nil, err
	}
	for _, c := range codes {
		if c.Name == name {
			return c, nil
		}
	}
	return nil, fmt.Errorf("bundle: no code entry %q", name)
}

// New builds a bundle from decoded code entries.
func New(syms gml.Data, codes []*gml.Code) (*Bundle, error) {
	b := &Bundle{Symbols: syms}
	for _, c := range codes {
		sc := Code{Name: c.Name, ExecutionOffset: c.ExecutionOffset}
		for i, in := range c.Instructions {
			r, err := EncodeInstr(in)
			if err != nil {
				return nil, fmt.Errorf("%s: instruction %d: %w", c.Name, i, err)
			}
			sc.Instructions = append(sc.Instructions, r)
		}
		b.Code = append(b.Code, sc)
	}
	return b, nil
}
