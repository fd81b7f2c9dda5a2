// Copyright © 2023 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

package zparam_test

import (
	"os"
	"testing"

	"github.com/js-arias/phyglmm/zparam"
)

func TestZParam(t *testing.T) {
	name := "tmp-z-parameters-for-test.tab"
	zp := zparam.New(name)
	testZP(t, zp, nil, name)

	if got := zp.WeightFunc()(4); got != 4 {
		t.Errorf("weight function %q: got %.6f, want %.6f", zp.Weight(), got, 4.0)
	}
	if p := zp.Splicer().Prefix; p != "edge_" {
		t.Errorf("splicer prefix: got %q, want %q", p, "edge_")
	}

	if err := zp.SetTerm("species"); err != nil {
		t.Fatalf("set term: %v", err)
	}
	if err := zp.SetWeight("SQRT"); err != nil {
		t.Fatalf("set weight: %v", err)
	}
	if err := zp.SetEdgePrefix("branch."); err != nil {
		t.Fatalf("set edge prefix: %v", err)
	}
	if err := zp.SetScale(1000); err != nil {
		t.Fatalf("set scale: %v", err)
	}
	if err := zp.SetCPU(3); err != nil {
		t.Fatalf("set cpu: %v", err)
	}
	if got := zp.WeightFunc()(4); got != 2 {
		t.Errorf("weight function %q: got %.6f, want %.6f", zp.Weight(), got, 2.0)
	}

	defer os.Remove(name)
	if err := zp.Write(); err != nil {
		t.Fatalf("error when writing data: %v", err)
	}

	np, err := zparam.Read(name)
	if err != nil {
		t.Fatalf("error when reading data: %v", err)
	}
	testZP(t, np, zp, name)
}

func TestZParamErrors(t *testing.T) {
	zp := zparam.New("params.tab")

	if err := zp.SetWeight("ou"); err == nil {
		t.Errorf("weight: expecting error")
	}
	if err := zp.SetCPU(-1); err == nil {
		t.Errorf("cpu: expecting error")
	}
	if err := zp.SetScale(0); err == nil {
		t.Errorf("scale: expecting error")
	}
	if err := zp.SetTerm(" "); err == nil {
		t.Errorf("term: expecting error")
	}
	if err := zp.SetEdgePrefix(""); err == nil {
		t.Errorf("edge prefix: expecting error")
	}

	// values are unchanged
	testZP(t, zp, nil, "params.tab")
}

func testZP(t testing.TB, zp, want *zparam.ZP, name string) {
	t.Helper()

	if want == nil {
		want = zparam.New(name)
	}

	if zp.Name() != want.Name() {
		t.Errorf("name: got %q, want %q", zp.Name(), want.Name())
	}
	if zp.Term() != want.Term() {
		t.Errorf("term: got %q, want %q", zp.Term(), want.Term())
	}
	if zp.Weight() != want.Weight() {
		t.Errorf("weight: got %q, want %q", zp.Weight(), want.Weight())
	}
	if zp.EdgePrefix() != want.EdgePrefix() {
		t.Errorf("edge prefix: got %q, want %q", zp.EdgePrefix(), want.EdgePrefix())
	}
	if zp.Scale() != want.Scale() {
		t.Errorf("scale: got %.6f, want %.6f", zp.Scale(), want.Scale())
	}
	if zp.CPU() != want.CPU() {
		t.Errorf("cpu: got %d, want %d", zp.CPU(), want.CPU())
	}
}
