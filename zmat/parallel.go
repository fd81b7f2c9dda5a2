// Copyright © 2023 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

package zmat

import (
	"runtime"
	"sync"

	"github.com/js-arias/phyglmm/phylo"
	"github.com/js-arias/phyglmm/sparse"
)

type pathChanType struct {
	start, end int
	rows       [][]sparse.Triplet

	t *phylo.Tree
	w Weight

	wg *sync.WaitGroup
}

// BuildParallel returns the Z matrix of a tree
// walking the root paths of the tips
// in parallel.
// Use cpu to define the number of process
// used for the build.
// The default (zero) uses all available CPU.
//
// The result is identical to Build.
func BuildParallel(t *phylo.Tree, w Weight, cpu int) *Matrix {
	if w == nil {
		w = Length
	}
	if cpu <= 0 {
		cpu = runtime.NumCPU()
	}

	pathChan := make(chan pathChanType, cpu*2)
	for range cpu {
		go runRootPath(pathChan)
	}

	// each tip writes its own row
	rows := make([][]sparse.Triplet, t.Tips())
	var wg sync.WaitGroup
	step := max(1, t.Tips()/(cpu*4))
	for start := 0; start < t.Tips(); start += step {
		end := min(start+step, t.Tips())
		wg.Add(1)
		pathChan <- pathChanType{
			start: start,
			end:   end,
			rows:  rows,
			t:     t,
			w:     w,
			wg:    &wg,
		}
	}
	wg.Wait()
	close(pathChan)

	var ts []sparse.Triplet
	for _, r := range rows {
		ts = append(ts, r...)
	}
	return newMatrix(t, ts)
}

func runRootPath(c chan pathChanType) {
	for p := range c {
		for i := p.start; i < p.end; i++ {
			p.rows[i] = rootPath(nil, p.t, p.w, i+1)
		}
		p.wg.Done()
	}
}
