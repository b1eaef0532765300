// Package output writes gmldc results to files.
package output

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/davecgh/go-spew/spew"
	json "github.com/goccy/go-json"

	"gmldc/internal/ast"
	"gmldc/internal/diag"
	"gmldc/internal/gml"
)

var dumper = spew.ConfigState{
	Indent:                  "  ",
	DisablePointerAddresses: true,
	DisableCapacities:       true,
	SortKeys:                true,
}

// DumpAST renders a block as an indented Go-value dump.
func DumpAST(b ast.Block) string {
	return dumper.Sdump(b)
}

// WriteAST writes the dump of a decompiled block to ast/<name>.txt.
func WriteAST(dir, name string, b ast.Block) error {
	return writeFile(filepath.Join(dir, "ast", SanitizeFilename(name)+".txt"), DumpAST(b))
}

// WriteListing writes the annotated instruction listing to asm/<name>.txt.
func WriteListing(dir string, code *gml.Code, syms gml.Symbols) error {
	return writeFile(filepath.Join(dir, "asm", SanitizeFilename(code.Name)+".txt"), gml.Format(code.Instructions, syms))
}

// WriteDOT writes a graph to dot/<name>.dot.
func WriteDOT(dir, name, dot string) error {
	return writeFile(filepath.Join(dir, "dot", SanitizeFilename(name)+".dot"), dot)
}

// Result is one code entry's outcome in summary.json.
type Result struct {
	Code       string    `json:"code"`
	OK         bool      `json:"ok"`
	Statements int       `json:"statements,omitempty"`
	Kind       diag.Kind `json:"kind,omitempty"`
	Error      string    `json:"error,omitempty"`
}

// Summary is the top-level document of summary.json.
type Summary struct {
	Bundle  string            `json:"bundle"`
	Mode    string            `json:"mode"`
	Total   int               `json:"total"`
	Failed  int               `json:"failed"`
	Kinds   map[diag.Kind]int `json:"kinds,omitempty"`
	Results []Result          `json:"results"`
}

// NewSummary builds a summary from per-entry results and the accumulated diags.
func NewSummary(bundle string, mode diag.Mode, results []Result, d *diag.Diags) *Summary {
	return &Summary{
		Bundle:  bundle,
		Mode:    mode.String(),
		Total:   len(results),
		Failed:  d.Len(),
		Kinds:   d.Counts(),
		Results: results,
	}
}

// WriteSummaryJSON writes the run summary to summary.json.
func WriteSummaryJSON(dir string, s *Summary) error {
	return writeJSON(filepath.Join(dir, "summary.json"), s)
}

// WriteDiagsJSON writes every diagnostic to diags.json.
func WriteDiagsJSON(dir string, d *diag.Diags) error {
	items := d.Items()
	if items == nil {
		items = []diag.Diag{}
	}
	return writeJSON(filepath.Join(dir, "diags.json"), items)
}

// SanitizeFilename maps a code entry name to a safe file name.
func SanitizeFilename(name string) string {
	r := strings.NewReplacer(
		"/", "_",
		"\\", "_",
		":", "_",
		"*", "_",
		"?", "_",
		"\"", "_",
		"<", "_",
		">", "_",
		"|", "_",
		" ", "_",
	)
	s := r.Replace(name)
	if len(s) > 200 {
		s = s[:200]
	}
	return s
}

func writeFile(path, text string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("output: mkdir %s: %w", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, []byte(text), 0644); err != nil {
		return fmt.Errorf("output: write %s: %w", path, err)
	}
	return nil
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("output: encode %s: %w", path, err)
	}
	return writeFile(path, string(append(data, '\n')))
}
