// Copyright © 2023 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

package project

import (
	"fmt"
	"os"

	"github.com/js-arias/phyglmm/obs"
	"github.com/js-arias/phyglmm/reterms"
	"github.com/js-arias/phyglmm/zmat"
	"github.com/js-arias/phyglmm/zparam"
	"github.com/js-arias/timetree"
)

// Observations reads an observation table
// as defined in a project.
func (p *Project) Observations() (*obs.Data, error) {
	name := p.Path(Observations)
	if name == "" {
		return nil, fmt.Errorf("observations not defined in project %q", p.name)
	}

	f, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	d, err := obs.ReadTSV(f)
	if err != nil {
		return nil, fmt.Errorf("while reading file %q: %v", name, err)
	}
	return d, nil
}

// Params reads the parameters file
// as defined in a project.
// If the parameters are not defined,
// it returns the default parameters.
func (p *Project) Params() (*zparam.ZP, error) {
	name := p.Path(Params)
	if name == "" {
		return zparam.New(""), nil
	}
	return zparam.Read(name)
}

// Structure reads a random effects structure
// as defined in a project.
func (p *Project) Structure() (*reterms.Structure, error) {
	name := p.Path(Structure)
	if name == "" {
		return nil, fmt.Errorf("random effects structure not defined in project %q", p.name)
	}

	f, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	s, err := reterms.ReadTSV(f)
	if err != nil {
		return nil, fmt.Errorf("while reading file %q: %v", name, err)
	}
	return s, nil
}

// Trees reads a tree collection file
// as defined in a project.
func (p *Project) Trees() (*timetree.Collection, error) {
	name := p.Path(Trees)
	if name == "" {
		return nil, fmt.Errorf("trees not defined in project %q", p.name)
	}

	f, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	c, err := timetree.ReadTSV(f)
	if err != nil {
		return nil, fmt.Errorf("while reading file %q: %v", name, err)
	}
	return c, nil
}

// ZMatrix reads a phylogenetic design matrix
// as defined in a project.
func (p *Project) ZMatrix() (*zmat.Matrix, error) {
	name := p.Path(ZMatrix)
	if name == "" {
		return nil, fmt.Errorf("phylogenetic design matrix not defined in project %q", p.name)
	}

	f, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	z, err := zmat.ReadTSV(f)
	if err != nil {
		return nil, fmt.Errorf("while reading file %q: %v", name, err)
	}
	return z, nil
}
