// Copyright © 2023 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

package reterms

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/js-arias/phyglmm/sparse"
)

// Section is a keyword that identifies
// the component of a term
// in a structure file.
type Section string

// Valid sections.
const (
	// Term definition:
	// row is the position of the term
	// (unique for each term),
	// col the number of observations,
	// value the number of effects
	// (an integer),
	// and label the name of the term.
	TermSection Section = "term"

	// Effect names:
	// row is the effect index,
	// and label the name.
	Cnms Section = "cnms"

	// Levels of the grouping factor:
	// row is the level index,
	// and label the level.
	Levels Section = "level"

	// Grouping factor:
	// row is the observation
	// (or level)
	// and label the level.
	Flist Section = "flist"

	// Correlation parameter:
	// row is the parameter index
	// and value its value.
	Theta Section = "theta"

	// Lower bound of a correlation parameter:
	// row is the parameter index
	// and value its lower bound.
	Lower Section = "lower"

	// Entry of the transposed design block:
	// row is the effect,
	// col the observation.
	Zt Section = "zt"

	// Structural entry of the correlation block.
	Lambda Section = "lambda"

	// Parameter index of a correlation entry:
	// row is the entry index
	// (in row major order),
	// and col the parameter index.
	Lind Section = "lind"
)

var header = []string{
	"section",
	"term",
	"row",
	"col",
	"value",
	"label",
}

type termData struct {
	pos     int
	nobs    int
	effects int
	cols    []string
	levels  []string
	group   []string
	theta   []float64
	lower   []float64
	zt      []sparse.Triplet
	lambda  []sparse.Triplet
	lind    []int
	hasDef  bool
}

// ReadTSV reads a random effects structure
// from a TSV file.
//
// The TSV file must contain the following fields:
//
//   - section, the kind of component
//   - term, the name of the term
//   - row, a row index (starting at 0)
//   - col, a column index (starting at 0)
//   - value, a numeric value
//   - label, a text value
//
// Fields not used by a section can be empty.
// See the description of the Section values
// for the meaning of each field.
//
// Here is an example file
// of a random intercept over two species:
//
//	# random effects structure
//	section	term	row	col	value	label
//	term	species	0	3	2	species
//	cnms	species	0			(Intercept)
//	level	species	0			Acer campbellii
//	level	species	1			Acer platanoides
//	flist	species	0			Acer campbellii
//	flist	species	1			Acer platanoides
//	flist	species	2			Acer platanoides
//	theta	species	0		1
//	lower	species	0		0
//	zt	species	0	0	1
//	zt	species	1	1	1
//	zt	species	1	2	1
//	lambda	species	0	0	1
//	lambda	species	1	1	1
//	lind	species	0	0
//	lind	species	1	0
func ReadTSV(r io.Reader) (*Structure, error) {
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

	terms := make(map[string]*termData)
	positions := make(map[int]string)
	for {
		row, err := tab.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		ln, _ := tab.FieldPos(0)
		if err != nil {
			return nil, fmt.Errorf("on row %d: %v", ln, err)
		}

		f := "section"
		sec := Section(strings.ToLower(strings.TrimSpace(row[fields[f]])))

		f = "term"
		name := strings.TrimSpace(row[fields[f]])
		if name == "" {
			return nil, fmt.Errorf("on row %d: field %q: empty value", ln, f)
		}
		td, ok := terms[name]
		if !ok {
			td = &termData{}
			terms[name] = td
		}

		f = "row"
		i, err := strconv.Atoi(strings.TrimSpace(row[fields[f]]))
		if err != nil {
			return nil, fmt.Errorf("on row %d: field %q: %v", ln, f, err)
		}
		if i < 0 {
			return nil, fmt.Errorf("on row %d: field %q: invalid value %d", ln, f, i)
		}

		label := row[fields["label"]]
		switch sec {
		case TermSection:
			if td.hasDef {
				return nil, fmt.Errorf("on row %d: term %q: defined twice", ln, name)
			}
			if prev, ok := positions[i]; ok {
				return nil, fmt.Errorf("on row %d: term %q: position %d already used by term %q", ln, name, i, prev)
			}
			positions[i] = name
			td.hasDef = true
			td.pos = i
			if td.nobs, err = intField(row, fields, "col"); err != nil {
				return nil, fmt.Errorf("on row %d: %v", ln, err)
			}
			if td.effects, err = intField(row, fields, "value"); err != nil {
				return nil, fmt.Errorf("on row %d: %v", ln, err)
			}
		case Cnms:
			td.cols = setLabel(td.cols, i, label)
		case Levels:
			td.levels = setLabel(td.levels, i, label)
		case Flist:
			td.group = setLabel(td.group, i, label)
		case Theta, Lower:
			v, err := floatField(row, fields, "value")
			if err != nil {
				return nil, fmt.Errorf("on row %d: %v", ln, err)
			}
			if sec == Theta {
				td.theta = setValue(td.theta, i, v)
			} else {
				td.lower = setValue(td.lower, i, v)
			}
		case Zt, Lambda:
			j, err := intField(row, fields, "col")
			if err != nil {
				return nil, fmt.Errorf("on row %d: %v", ln, err)
			}
			v, err := floatField(row, fields, "value")
			if err != nil {
				return nil, fmt.Errorf("on row %d: %v", ln, err)
			}
			t := sparse.Triplet{Row: i, Col: j, Value: v}
			if sec == Zt {
				td.zt = append(td.zt, t)
			} else {
				td.lambda = append(td.lambda, t)
			}
		case Lind:
			p, err := intField(row, fields, "col")
			if err != nil {
				return nil, fmt.Errorf("on row %d: %v", ln, err)
			}
			for len(td.lind) <= i {
				td.lind = append(td.lind, -1)
			}
			td.lind[i] = p
		default:
			return nil, fmt.Errorf("on row %d: unknown section %q", ln, sec)
		}
	}
	if len(terms) == 0 {
		return nil, fmt.Errorf("while reading data: %v", io.ErrUnexpectedEOF)
	}

	names := make([]string, 0, len(terms))
	for n, td := range terms {
		if !td.hasDef {
			return nil, fmt.Errorf("term %q: undefined %q section", n, TermSection)
		}
		names = append(names, n)
	}
	slices.SortFunc(names, func(a, b string) int {
		return terms[a].pos - terms[b].pos
	})

	ts := make([]Term, 0, len(names))
	for _, n := range names {
		td := terms[n]
		design, err := sparse.New(td.effects, td.nobs, td.zt)
		if err != nil {
			return nil, fmt.Errorf("term %q: section %q: %v", n, Zt, err)
		}
		lambda, err := sparse.New(td.effects, td.effects, td.lambda)
		if err != nil {
			return nil, fmt.Errorf("term %q: section %q: %v", n, Lambda, err)
		}
		ts = append(ts, Term{
			Name:   n,
			Cols:   td.cols,
			Levels: td.levels,
			Group:  td.group,
			Design: design,
			Lambda: lambda,
			Lind:   td.lind,
			Theta:  td.theta,
			Lower:  td.lower,
		})
	}

	return assemble(ts)
}

func intField(row []string, fields map[string]int, f string) (int, error) {
	v, err := strconv.Atoi(strings.TrimSpace(row[fields[f]]))
	if err != nil {
		return 0, fmt.Errorf("field %q: %v", f, err)
	}
	return v, nil
}

func floatField(row []string, fields map[string]int, f string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(row[fields[f]]), 64)
	if err != nil {
		return 0, fmt.Errorf("field %q: %v", f, err)
	}
	return v, nil
}

func setLabel(ls []string, i int, label string) []string {
	for len(ls) <= i {
		ls = append(ls, "")
	}
	ls[i] = label
	return ls
}

func setValue(vs []float64, i int, v float64) []float64 {
	for len(vs) <= i {
		vs = append(vs, 0)
	}
	vs[i] = v
	return vs
}

// TSV writes a random effects structure
// as a TSV file.
func (s *Structure) TSV(w io.Writer) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "# random effects structure\n")
	fmt.Fprintf(bw, "# data save on: %s\n", time.Now().Format(time.RFC3339))

	tab := csv.NewWriter(bw)
	tab.Comma = '\t'
	tab.UseCRLF = true

	if err := tab.Write(header); err != nil {
		return fmt.Errorf("unable to write header: %v", err)
	}

	for k, t := range s.terms {
		rows := [][]string{
			{string(TermSection), t.Name, strconv.Itoa(k), strconv.Itoa(s.nobs), strconv.Itoa(t.Effects()), t.Name},
		}
		for i, c := range t.Cols {
			rows = append(rows, []string{string(Cnms), t.Name, strconv.Itoa(i), "", "", c})
		}
		for i, l := range t.Levels {
			rows = append(rows, []string{string(Levels), t.Name, strconv.Itoa(i), "", "", l})
		}
		for i, g := range t.Group {
			rows = append(rows, []string{string(Flist), t.Name, strconv.Itoa(i), "", "", g})
		}
		for i, v := range t.Theta {
			rows = append(rows, []string{string(Theta), t.Name, strconv.Itoa(i), "", formatFloat(v), ""})
		}
		for i, v := range t.Lower {
			rows = append(rows, []string{string(Lower), t.Name, strconv.Itoa(i), "", formatFloat(v), ""})
		}
		t.Design.DoNonZero(func(i, j int, v float64) {
			rows = append(rows, []string{string(Zt), t.Name, strconv.Itoa(i), strconv.Itoa(j), formatFloat(v), ""})
		})
		t.Lambda.DoNonZero(func(i, j int, v float64) {
			rows = append(rows, []string{string(Lambda), t.Name, strconv.Itoa(i), strconv.Itoa(j), formatFloat(v), ""})
		})
		for i, p := range t.Lind {
			rows = append(rows, []string{string(Lind), t.Name, strconv.Itoa(i), strconv.Itoa(p), "", ""})
		}

		if err := tab.WriteAll(rows); err != nil {
			return fmt.Errorf("when writing data: %v", err)
		}
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

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
