// Copyright © 2023 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

package obs

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ReadTSV reads a table of observations
// from a TSV file.
//
// The TSV file must contain the following field:
//
//   - taxon, the taxonomic name of the observed taxon
//
// Any other field is read as an additional column.
// Rows without a taxon are ignored.
//
// Here is an example file:
//
//	taxon	site	mass
//	Acer campbellii	north	1.5
//	Acer campbellii	south	2.1
//	Acer erythranthum	south	0.7
//	Acer platanoides	north	3.2
func ReadTSV(r io.Reader) (*Data, error) {
	tab := csv.NewReader(r)
	tab.Comma = '\t'
	tab.Comment = '#'

	head, err := tab.Read()
	if err != nil {
		return nil, fmt.Errorf("while reading header: %v", err)
	}
	taxon := -1
	var cols []string
	var pos []int
	for i, h := range head {
		h = strings.ToLower(strings.TrimSpace(h))
		if h == TaxonField {
			taxon = i
			continue
		}
		cols = append(cols, h)
		pos = append(pos, i)
	}
	if taxon < 0 {
		return nil, fmt.Errorf("expecting field %q", TaxonField)
	}

	d, err := New(cols...)
	if err != nil {
		return nil, fmt.Errorf("while reading header: %v", err)
	}
	for {
		row, err := tab.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		ln, _ := tab.FieldPos(0)
		if err != nil {
			return nil, fmt.Errorf("on row %d: %v", ln, err)
		}

		tax := canon(row[taxon])
		if tax == "" {
			continue
		}
		vs := make([]string, 0, len(pos))
		for _, p := range pos {
			vs = append(vs, row[p])
		}
		if err := d.Add(tax, vs...); err != nil {
			return nil, fmt.Errorf("on row %d: %v", ln, err)
		}
	}
	if d.Len() == 0 {
		return nil, fmt.Errorf("while reading data: %v", io.ErrUnexpectedEOF)
	}
	return d, nil
}

// TSV writes observations as a TSV file.
func (d *Data) TSV(w io.Writer) error {
	tab := csv.NewWriter(w)
	tab.Comma = '\t'
	tab.UseCRLF = true

	// header
	header := append([]string{TaxonField}, d.cols...)
	if err := tab.Write(header); err != nil {
		return fmt.Errorf("unable to write header: %v", err)
	}

	for i, tx := range d.taxa {
		row := append([]string{tx}, d.rows[i]...)
		if err := tab.Write(row); err != nil {
			return fmt.Errorf("when writing data: %v", err)
		}
	}

	tab.Flush()
	if err := tab.Error(); err != nil {
		return fmt.Errorf("when writing data: %v", err)
	}
	return nil
}
