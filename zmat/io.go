// Copyright © 2023 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

package zmat

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/js-arias/phyglmm/sparse"
)

var header = []string{
	"tree",
	"row",
	"label",
	"tips",
	"edges",
	"edge",
	"value",
}

// ReadTSV reads a Z matrix from a TSV file.
//
// The TSV file must contain the following fields:
//
//   - tree, the name of the tree
//   - row, the row index (starting at 0)
//   - label, the label of the row (a tip name),
//     empty if the tips of the tree are not labeled
//   - tips, the number of tips of the tree
//   - edges, the number of edges of the tree
//   - edge, the edge index (starting at 0)
//   - value, the value of the entry,
//     a finite non-negative number
//
// Here is an example file:
//
//	# phylogenetic design matrix
//	tree	row	label	tips	edges	edge	value
//	dinosaurs	0	Carnotaurus sastrei	3	4	1	65
//	dinosaurs	0	Carnotaurus sastrei	3	4	3	99
//	dinosaurs	1	Ceratosaurus nasicornis	3	4	1	65
//	dinosaurs	1	Ceratosaurus nasicornis	3	4	2	25
//	dinosaurs	2	Eoraptor lunensis	3	4	0	5
func ReadTSV(r io.Reader) (*Matrix, error) {
	tab := csv.NewReader(r)
	tab.Comma = '\t'
	tab.Comment = '#'

	head, err := tab.Read()
	if err != nil {
		return nil, fmt.Errorf("while reading header: %v", err)
	}
	fields := make(map[string]int, len(head))
	for i, h := range head {
		h = strings.ToLower(h)
		fields[h] = i
	}
	for _, h := range header {
		if _, ok := fields[h]; !ok {
			return nil, fmt.Errorf("expecting field %q", h)
		}
	}

	z := &Matrix{}
	edges := -1
	var ts []sparse.Triplet
	for {
		row, err := tab.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		ln, _ := tab.FieldPos(0)
		if err != nil {
			return nil, fmt.Errorf("on row %d: %v", ln, err)
		}

		f := "tree"
		name := strings.Join(strings.Fields(row[fields[f]]), " ")
		if edges < 0 {
			z.name = name
		} else if name != z.name {
			return nil, fmt.Errorf("on row %d: field %q: got %q, want %q", ln, f, name, z.name)
		}

		f = "tips"
		tips, err := strconv.Atoi(row[fields[f]])
		if err != nil {
			return nil, fmt.Errorf("on row %d: field %q: %v", ln, f, err)
		}
		f = "edges"
		ne, err := strconv.Atoi(row[fields[f]])
		if err != nil {
			return nil, fmt.Errorf("on row %d: field %q: %v", ln, f, err)
		}
		if edges < 0 {
			z.tips = tips
			edges = ne
		} else if tips != z.tips || ne != edges {
			return nil, fmt.Errorf("on row %d: inconsistent dimensions: %d tips, %d edges", ln, tips, ne)
		}

		f = "row"
		r, err := strconv.Atoi(row[fields[f]])
		if err != nil {
			return nil, fmt.Errorf("on row %d: field %q: %v", ln, f, err)
		}
		if r < 0 {
			return nil, fmt.Errorf("on row %d: field %q: invalid value %d", ln, f, r)
		}

		f = "label"
		lb := strings.Join(strings.Fields(row[fields[f]]), " ")
		for len(z.labels) <= r {
			z.labels = append(z.labels, "")
		}
		if z.labels[r] == "" {
			z.labels[r] = lb
		} else if z.labels[r] != lb {
			return nil, fmt.Errorf("on row %d: field %q: got %q, want %q", ln, f, lb, z.labels[r])
		}

		f = "edge"
		e, err := strconv.Atoi(row[fields[f]])
		if err != nil {
			return nil, fmt.Errorf("on row %d: field %q: %v", ln, f, err)
		}

		f = "value"
		v, err := strconv.ParseFloat(row[fields[f]], 64)
		if err != nil {
			return nil, fmt.Errorf("on row %d: field %q: %v", ln, f, err)
		}
		if v < 0 || math.IsInf(v, 0) || math.IsNaN(v) {
			return nil, fmt.Errorf("on row %d: field %q: invalid value %v", ln, f, v)
		}

		ts = append(ts, sparse.Triplet{Row: r, Col: e, Value: v})
	}
	if edges < 0 {
		return nil, fmt.Errorf("while reading data: %v", io.ErrUnexpectedEOF)
	}

	z.labeled = !slices.Contains(z.labels, "")
	if !z.labeled {
		for i := range z.labels {
			z.labels[i] = strconv.Itoa(i + 1)
		}
	}

	m, err := sparse.New(len(z.labels), edges, ts)
	if err != nil {
		return nil, err
	}
	z.m = m
	return z, nil
}

// TSV writes a Z matrix as a TSV file.
//
// If the matrix is not labeled
// the label field is left empty.
func (z *Matrix) TSV(w io.Writer) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "# phylogenetic design matrix\n")
	fmt.Fprintf(bw, "# data save on: %s\n", time.Now().Format(time.RFC3339))

	tab := csv.NewWriter(bw)
	tab.Comma = '\t'
	tab.UseCRLF = true

	if err := tab.Write(header); err != nil {
		return fmt.Errorf("unable to write header: %v", err)
	}

	tips := strconv.Itoa(z.tips)
	edges := strconv.Itoa(z.Edges())
	var err error
	z.m.DoNonZero(func(i, j int, v float64) {
		if err != nil {
			return
		}
		row := []string{
			z.name,
			strconv.Itoa(i),
			label(z, i),
			tips,
			edges,
			strconv.Itoa(j),
			strconv.FormatFloat(v, 'g', -1, 64),
		}
		err = tab.Write(row)
	})
	if err != nil {
		return fmt.Errorf("when writing data: %v", err)
	}

	tab.Flush()
	if err := tab.Error(); err != nil {
		return fmt.Errorf("when writing data: %v", err)
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("when writing data: %v", err)
	}
	return nil
}

func label(z *Matrix, row int) string {
	if !z.labeled {
		return ""
	}
	return z.labels[row]
}
