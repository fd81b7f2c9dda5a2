// Copyright © 2023 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

// Package obs provides a table of observations
// made on the taxa of a phylogeny.
//
// Each observation is a row of the table,
// identified by the observed taxon,
// and with a value for any number of additional columns
// (for example a grouping factor,
// or a covariate of a model).
// Observations are kept in input order,
// which is the order used by the columns
// of a design matrix.
package obs

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// TaxonField is the name of the mandatory column
// with the observed taxon.
const TaxonField = "taxon"

// Data is a table of observations.
type Data struct {
	cols  []string
	index map[string]int
	taxa  []string
	rows  [][]string
}

// New creates a new empty table
// with the indicated columns
// (in addition to the taxon).
// Column names are case insensitive.
func New(cols ...string) (*Data, error) {
	d := &Data{
		index: make(map[string]int, len(cols)),
	}
	for _, c := range cols {
		c = strings.ToLower(strings.TrimSpace(c))
		if c == "" {
			return nil, fmt.Errorf("empty column name")
		}
		if c == TaxonField {
			return nil, fmt.Errorf("column %q: reserved name", c)
		}
		if _, dup := d.index[c]; dup {
			return nil, fmt.Errorf("column %q: defined twice", c)
		}
		d.index[c] = len(d.cols)
		d.cols = append(d.cols, c)
	}
	return d, nil
}

// Add adds a new observation
// for a given taxon,
// with a value for each column,
// in column order.
func (d *Data) Add(taxon string, values ...string) error {
	taxon = canon(taxon)
	if taxon == "" {
		return fmt.Errorf("empty taxon name")
	}
	if len(values) != len(d.cols) {
		return fmt.Errorf("taxon %q: got %d values, want %d", taxon, len(values), len(d.cols))
	}

	row := make([]string, len(values))
	for i, v := range values {
		row[i] = strings.Join(strings.Fields(v), " ")
	}
	d.taxa = append(d.taxa, taxon)
	d.rows = append(d.rows, row)
	return nil
}

// Column returns the values of a column,
// one for each observation.
// The taxon is also a valid column.
func (d *Data) Column(name string) ([]string, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == TaxonField {
		return d.Taxa(), nil
	}
	c, ok := d.index[name]
	if !ok {
		return nil, fmt.Errorf("unknown column %q", name)
	}
	vs := make([]string, 0, len(d.rows))
	for _, r := range d.rows {
		vs = append(vs, r[c])
	}
	return vs, nil
}

// Columns returns the names of the columns
// (without the taxon).
func (d *Data) Columns() []string {
	return slices.Clone(d.cols)
}

// Len returns the number of observations.
func (d *Data) Len() int {
	return len(d.taxa)
}

// Numeric returns the values of a column
// as numbers.
func (d *Data) Numeric(name string) ([]float64, error) {
	vs, err := d.Column(name)
	if err != nil {
		return nil, err
	}
	x := make([]float64, 0, len(vs))
	for i, v := range vs {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, fmt.Errorf("column %q: observation %d: %v", name, i+1, err)
		}
		x = append(x, f)
	}
	return x, nil
}

// Taxa returns the taxon of each observation,
// in observation order.
func (d *Data) Taxa() []string {
	return slices.Clone(d.taxa)
}

// TaxonList returns the sorted list
// of observed taxa.
func (d *Data) TaxonList() []string {
	ls := slices.Clone(d.taxa)
	slices.Sort(ls)
	return slices.Compact(ls)
}

// Canon returns a taxon name
// in its canonical form.
func canon(name string) string {
	name = strings.Join(strings.Fields(name), " ")
	if name == "" {
		return ""
	}
	name = strings.ToLower(name)
	r, n := utf8.DecodeRuneInString(name)
	return string(unicode.ToUpper(r)) + name[n:]
}
