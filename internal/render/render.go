// Package render writes result tables as aligned text, CSV or YAML.
package render

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"text/tabwriter"

	"codeberg.org/mutker/powertrace/internal/errors"
	"codeberg.org/mutker/powertrace/internal/table"
	"gopkg.in/yaml.v3"
)

// Renderer writes a table to w.
type Renderer func(w io.Writer, tbl *table.Table) error

var renderers = map[string]Renderer{
	"text": Text,
	"csv":  CSV,
	"yaml": YAML,
}

// For returns the renderer of a format name.
func For(format string) (Renderer, error) {
	r, ok := renderers[format]
	if !ok {
		return nil, errors.New().WithData(errors.ErrInvalidFormat, format)
	}

	return r, nil
}

func formatValue(v float64) string {
	if math.IsNaN(v) {
		return "NaN"
	}

	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Text writes tbl as tab-aligned columns headed by the index and column names.
func Text(w io.Writer, tbl *table.Table) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)

	header := append([]string{tbl.Index}, tbl.Columns...)
	if _, err := fmt.Fprintln(tw, strings.Join(header, "\t")+"\t"); err != nil {
		return err
	}
	for _, row := range tbl.Rows {
		cells := make([]string, 0, len(row.Values)+1)
		cells = append(cells, row.Label)
		for _, v := range row.Values {
			cells = append(cells, formatValue(v))
		}
		if _, err := fmt.Fprintln(tw, strings.Join(cells, "\t")+"\t"); err != nil {
			return err
		}
	}

	return tw.Flush()
}

// CSV writes tbl with a header record. NaN is written as an empty field.
func CSV(w io.Writer, tbl *table.Table) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(append([]string{tbl.Index}, tbl.Columns...)); err != nil {
		return err
	}
	for _, row := range tbl.Rows {
		rec := make([]string, 0, len(row.Values)+1)
		rec = append(rec, row.Label)
		for _, v := range row.Values {
			if math.IsNaN(v) {
				rec = append(rec, "")
				continue
			}
			rec = append(rec, formatValue(v))
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()

	return cw.Error()
}

type yamlRow struct {
	Label  string              `yaml:"label"`
	Values map[string]*float64 `yaml:"values"`
}

type yamlTable struct {
	Name    string    `yaml:"name"`
	Index   string    `yaml:"index"`
	Columns []string  `yaml:"columns"`
	Rows    []yamlRow `yaml:"rows"`
}

// YAML writes tbl as a document; NaN cells become null.
func YAML(w io.Writer, tbl *table.Table) error {
	doc := yamlTable{Name: tbl.Name, Index: tbl.Index, Columns: tbl.Columns}
	for _, row := range tbl.Rows {
		yr := yamlRow{Label: row.Label, Values: make(map[string]*float64, len(row.Values))}
		for c, v := range row.Values {
			if math.IsNaN(v) {
				yr.Values[tbl.Columns[c]] = nil
				continue
			}
			yr.Values[tbl.Columns[c]] = &v
		}
		doc.Rows = append(doc.Rows, yr)
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return err
	}

	return enc.Close()
}
