// Copyright © 2023 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

// Package zparam implements reading and writing
// of the parameters used to build
// and splice a phylogenetic design matrix.
package zparam

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/js-arias/phyglmm/phylo"
	"github.com/js-arias/phyglmm/reterms"
	"github.com/js-arias/phyglmm/zmat"
)

// Param is a keyword to identify
// the type of parameter in a parameters file.
type Param string

// Valid parameters
const (
	// CPU is the number of workers
	// used to build a Z matrix.
	// If 0,
	// all available processors will be used.
	CPU Param = "cpu"

	// EdgePrefix is the prefix used for the levels
	// of a spliced term.
	EdgePrefix Param = "edgeprefix"

	// Scale is the number of years
	// of a unit of branch length.
	Scale Param = "scale"

	// Term is the name of the phylogenetic term.
	Term Param = "term"

	// Weight is the function applied to branch lengths
	// in the Z matrix.
	Weight Param = "weight"
)

// Valid weight functions.
const (
	Length = "length"
	Sqrt   = "sqrt"
)

// DefaultTerm is the default name
// of the phylogenetic term.
const DefaultTerm = "phylo"

// ZP represents a collection of parameters.
type ZP struct {
	name string // file name

	term   string
	weight string
	prefix string
	cpu    int
	scale  float64
}

// New creates a new parameter collection
// with default values.
func New(name string) *ZP {
	return &ZP{
		name:   name,
		term:   DefaultTerm,
		weight: Length,
		prefix: reterms.EdgePrefix,
		scale:  phylo.MillionYears,
	}
}

var header = []string{
	"parameter",
	"value",
}

// Read reads a parameters file from a TSV file.
// Parameters not defined in the file
// will have its default value.
//
// The TSV must contains the following fields:
//
//   - parameter, the name of the parameter
//   - value, the value of the parameter
//
// Here is an example file:
//
//	# phyglmm parameters
//	parameter	value
//	term	phylo
//	weight	length
//	edgeprefix	edge_
//	scale	1000000
//	cpu	0
func Read(name string) (*ZP, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	zp, err := readTSV(f, name)
	if err != nil {
		return nil, fmt.Errorf("on file %q: %v", name, err)
	}
	return zp, nil
}

func readTSV(r io.Reader, name string) (*ZP, error) {
	tsv := csv.NewReader(r)
	tsv.Comma = '\t'
	tsv.Comment = '#'

	head, err := tsv.Read()
	if err != nil {
		return nil, fmt.Errorf("header: %v", err)
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

	zp := New(name)
	for {
		row, err := tsv.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		ln, _ := tsv.FieldPos(0)
		if err != nil {
			return nil, fmt.Errorf("on row %d: %v", ln, err)
		}

		f := "parameter"
		p := Param(strings.ToLower(strings.TrimSpace(row[fields[f]])))

		f = "value"
		v := strings.TrimSpace(row[fields[f]])
		switch p {
		case CPU:
			c, e := strconv.Atoi(v)
			if e != nil {
				return nil, fmt.Errorf("on row %d, field %q: %v", ln, f, e)
			}
			err = zp.SetCPU(c)
		case EdgePrefix:
			err = zp.SetEdgePrefix(v)
		case Scale:
			s, e := strconv.ParseFloat(v, 64)
			if e != nil {
				return nil, fmt.Errorf("on row %d, field %q: %v", ln, f, e)
			}
			err = zp.SetScale(s)
		case Term:
			err = zp.SetTerm(v)
		case Weight:
			err = zp.SetWeight(v)
		default:
			return nil, fmt.Errorf("on row %d: unknown parameter %q", ln, p)
		}
		if err != nil {
			return nil, fmt.Errorf("on row %d, field %q: %v", ln, f, err)
		}
	}
	return zp, nil
}

// CPU returns the number of workers
// used to build a Z matrix.
func (zp *ZP) CPU() int {
	return zp.cpu
}

// EdgePrefix returns the prefix of the levels
// of a spliced term.
func (zp *ZP) EdgePrefix() string {
	return zp.prefix
}

// Name returns the file name
// of the parameter collection.
func (zp *ZP) Name() string {
	return zp.name
}

// Scale returns the number of years
// of a unit of branch length.
func (zp *ZP) Scale() float64 {
	return zp.scale
}

// Splicer returns a splicer
// that uses the edge prefix of the parameters.
func (zp *ZP) Splicer() reterms.Splicer {
	return reterms.Splicer{Prefix: zp.prefix}
}

// Term returns the name of the phylogenetic term.
func (zp *ZP) Term() string {
	return zp.term
}

// Weight returns the name of the weight function.
func (zp *ZP) Weight() string {
	return zp.weight
}

// WeightFunc returns the weight function
// applied to the branch lengths.
func (zp *ZP) WeightFunc() zmat.Weight {
	switch zp.weight {
	case Length:
		return zmat.Length
	case Sqrt:
		return zmat.Sqrt
	}
	panic("invalid weight function")
}

// SetCPU sets the number of workers
// used to build a Z matrix.
func (zp *ZP) SetCPU(c int) error {
	if c < 0 {
		return fmt.Errorf("invalid number of workers: %d", c)
	}
	zp.cpu = c
	return nil
}

// SetEdgePrefix sets the prefix
// of the levels of a spliced term.
func (zp *ZP) SetEdgePrefix(p string) error {
	p = strings.TrimSpace(p)
	if p == "" {
		return errors.New("empty edge prefix")
	}
	zp.prefix = p
	return nil
}

// SetName sets the name of a parameter collection.
func (zp *ZP) SetName(name string) {
	name = strings.TrimSpace(name)
	if name == "" {
		return
	}
	zp.name = name
}

// SetScale sets the number of years
// of a unit of branch length.
func (zp *ZP) SetScale(s float64) error {
	if s <= 0 || math.IsNaN(s) || math.IsInf(s, 0) {
		return fmt.Errorf("invalid scale value: %v", s)
	}
	zp.scale = s
	return nil
}

// SetTerm sets the name of the phylogenetic term.
func (zp *ZP) SetTerm(t string) error {
	t = strings.TrimSpace(t)
	if t == "" {
		return errors.New("empty term name")
	}
	zp.term = t
	return nil
}

// SetWeight sets the weight function
// applied to branch lengths.
func (zp *ZP) SetWeight(w string) error {
	w = strings.ToLower(strings.TrimSpace(w))
	switch w {
	case Length:
	case Sqrt:
	default:
		return fmt.Errorf("unknown weight function %q", w)
	}
	zp.weight = w
	return nil
}

// Write writes a parameter collection into a file.
func (zp *ZP) Write() (err error) {
	f, err := os.Create(zp.name)
	if err != nil {
		return err
	}
	defer func() {
		e := f.Close()
		if e != nil && err == nil {
			err = e
		}
	}()

	bw := bufio.NewWriter(f)
	fmt.Fprintf(bw, "# phyglmm parameters\n")
	fmt.Fprintf(bw, "# data save on: %s\n", time.Now().Format(time.RFC3339))
	tsv := csv.NewWriter(bw)
	tsv.Comma = '\t'
	tsv.UseCRLF = true

	if err := tsv.Write(header); err != nil {
		return fmt.Errorf("on file %q: while writing header: %v", zp.name, err)
	}

	rows := [][]string{
		{string(Term), zp.term},
		{string(Weight), zp.weight},
		{string(EdgePrefix), zp.prefix},
		{string(Scale), strconv.FormatFloat(zp.scale, 'g', -1, 64)},
		{string(CPU), strconv.Itoa(zp.cpu)},
	}
	if err := tsv.WriteAll(rows); err != nil {
		return fmt.Errorf("on file %q: %v", zp.name, err)
	}

	tsv.Flush()
	if err := tsv.Error(); err != nil {
		return fmt.Errorf("on file %q: while writing data: %v", zp.name, err)
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("on file %q: while writing data: %v", zp.name, err)
	}
	return nil
}
