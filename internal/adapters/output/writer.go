// Package output provides adapters for writing application output.
package output

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/jedib0t/go-pretty/v6/table"
	"gopkg.in/yaml.v3"

	"github.com/MyCarrier-DevOps/relbump/internal/domain"
)

// Supported plan formats.
const (
	FormatTable = "table"
	FormatJSON  = "json"
	FormatYAML  = "yaml"
)

// ErrUnsupportedFormat indicates an unknown output format.
var ErrUnsupportedFormat = errors.New("unsupported output format")

// Writer writes command results to the configured output destination.
// By default, it writes to stdout and renders plans as a table.
type Writer struct {
	out    io.Writer
	format string
}

// Option configures a Writer.
type Option func(*Writer)

// WithFormat selects the plan format: table, json or yaml.
func WithFormat(format string) Option {
	return func(w *Writer) {
		w.format = format
	}
}

// NewWriter creates a new Writer that writes to stdout.
func NewWriter(opts ...Option) *Writer {
	return NewWriterWithOutput(os.Stdout, opts...)
}

// NewWriterWithOutput creates a new Writer with a custom output destination.
// This is useful for testing.
func NewWriterWithOutput(out io.Writer, opts ...Option) *Writer {
	w := &Writer{out: out, format: FormatTable}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// ValidFormat reports whether format is accepted by WithFormat.
func ValidFormat(format string) bool {
	switch format {
	case FormatTable, FormatJSON, FormatYAML:
		return true
	}
	return false
}

// WriteChangelog writes rendered changelog text, ensuring a trailing newline.
func (w *Writer) WriteChangelog(text string) error {
	if text == "" {
		return nil
	}
	if !strings.HasSuffix(text, "\n") {
		text += "\n"
	}
	_, err := io.WriteString(w.out, text)
	return err
}

// WritePackages writes one package name per line.
func (w *Writer) WritePackages(names []string) error {
	for _, name := range names {
		if _, err := fmt.Fprintln(w.out, name); err != nil {
			return err
		}
	}
	return nil
}

type planRow struct {
	Name      string `json:"name" yaml:"name"`
	Path      string `json:"path" yaml:"path"`
	Current   string `json:"current" yaml:"current"`
	Next      string `json:"next" yaml:"next"`
	Increment string `json:"increment" yaml:"increment"`
}

type planDocument struct {
	Version  string    `json:"version" yaml:"version"`
	Packages []planRow `json:"packages" yaml:"packages"`
}

func newPlanDocument(plan *domain.ReleasePlan) planDocument {
	doc := planDocument{Packages: []planRow{}}
	if plan == nil {
		return doc
	}
	doc.Version = plan.Version
	for _, entry := range plan.Entries {
		doc.Packages = append(doc.Packages, planRow{
			Name:      entry.Name,
			Path:      entry.Path,
			Current:   versionString(entry.Current),
			Next:      versionString(entry.Next),
			Increment: entry.Increment.String(),
		})
	}
	return doc
}

// WritePlan writes a release plan in the configured format.
func (w *Writer) WritePlan(plan *domain.ReleasePlan) error {
	doc := newPlanDocument(plan)

	switch w.format {
	case FormatTable:
		return w.writeTable(doc)
	case FormatJSON:
		return marshalAndWrite(doc, func(v any) ([]byte, error) {
			return json.MarshalIndent(v, "", "  ")
		}, w.out, "json")
	case FormatYAML:
		return marshalAndWrite(doc, yaml.Marshal, w.out, "yaml")
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedFormat, w.format)
	}
}

func (w *Writer) writeTable(doc planDocument) error {
	if len(doc.Packages) == 0 {
		_, err := fmt.Fprintln(w.out, "No packages to release.")
		return err
	}

	tbl := table.NewWriter()
	tbl.SetStyle(table.StyleLight)
	tbl.AppendHeader(table.Row{"Package", "Path", "Current", "Next", "Increment"})
	for _, row := range doc.Packages {
		tbl.AppendRow(table.Row{row.Name, row.Path, row.Current, row.Next, row.Increment})
	}

	_, err := fmt.Fprintln(w.out, tbl.Render())
	return err
}

type versionRow struct {
	Tag     string `json:"tag" yaml:"tag"`
	Version string `json:"version" yaml:"version"`
	Commit  string `json:"commit" yaml:"commit"`
}

// WriteVersions writes the released versions in the configured format.
func (w *Writer) WriteVersions(versions []domain.TaggedVersion) error {
	rows := make([]versionRow, 0, len(versions))
	for _, v := range versions {
		rows = append(rows, versionRow{Tag: v.Tag, Version: versionString(v.Version), Commit: v.Commit})
	}

	switch w.format {
	case FormatTable:
		if len(rows) == 0 {
			_, err := fmt.Fprintln(w.out, "No released versions.")
			return err
		}
		tbl := table.NewWriter()
		tbl.SetStyle(table.StyleLight)
		tbl.AppendHeader(table.Row{"Version", "Tag", "Commit"})
		for _, row := range rows {
			tbl.AppendRow(table.Row{row.Version, row.Tag, shortCommit(row.Commit)})
		}
		_, err := fmt.Fprintln(w.out, tbl.Render())
		return err
	case FormatJSON:
		return marshalAndWrite(rows, func(v any) ([]byte, error) {
			return json.MarshalIndent(v, "", "  ")
		}, w.out, "json")
	case FormatYAML:
		return marshalAndWrite(rows, yaml.Marshal, w.out, "yaml")
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedFormat, w.format)
	}
}

func shortCommit(id string) string {
	if len(id) > 10 {
		return id[:10]
	}
	return id
}

// marshalAndWrite marshals data and writes the result to writer.
func marshalAndWrite(data any, marshal func(any) ([]byte, error), writer io.Writer, label string) error {
	encoded, err := marshal(data)
	if err != nil {
		return fmt.Errorf("%s encode: %w", label, err)
	}
	if len(encoded) > 0 && encoded[len(encoded)-1] != '\n' {
		encoded = append(encoded, '\n')
	}

	if _, err := writer.Write(encoded); err != nil {
		return fmt.Errorf("%s write: %w", label, err)
	}
	return nil
}

func versionString(v *semver.Version) string {
	if v == nil {
		return ""
	}
	return v.String()
}
