// Copyright © 2023 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

package heatmap_test

import (
	"image"
	"image/color"
	"testing"

	"github.com/js-arias/phyglmm/heatmap"
	"github.com/js-arias/phyglmm/sparse"
)

func TestImage(t *testing.T) {
	m, err := sparse.New(2, 3, []sparse.Triplet{
		{Row: 0, Col: 0, Value: 2},
		{Row: 1, Col: 2, Value: 4},
		{Row: 1, Col: 1, Value: 0},
	})
	if err != nil {
		t.Fatalf("sparse: %v", err)
	}

	img := heatmap.New(m, 5)
	img.Gradient = heatmap.LightGrayScale{}

	if b := img.Bounds(); b != image.Rect(0, 0, 15, 10) {
		t.Errorf("bounds: got %v, want %v", b, image.Rect(0, 0, 15, 10))
	}
	if img.Max() != 4 {
		t.Errorf("max: got %.6f, want %.6f", img.Max(), 4.0)
	}

	tests := map[string]struct {
		x, y int
		want color.Color
	}{
		"empty":      {x: 7, y: 2, want: color.RGBA{255, 255, 255, 255}},
		"half":       {x: 4, y: 4, want: color.RGBA{100, 100, 100, 255}},
		"max":        {x: 14, y: 9, want: color.RGBA{0, 0, 0, 255}},
		"structural": {x: 5, y: 5, want: color.RGBA{200, 200, 200, 255}},
	}
	for name, test := range tests {
		if c := img.At(test.x, test.y); c != test.want {
			t.Errorf("%s: got %v, want %v", name, c, test.want)
		}
	}

	for _, g := range []string{"gray", "incandescent", "iridescent", "rainbow"} {
		if heatmap.Get(g) == nil {
			t.Errorf("gradient %q: not found", g)
		}
	}
	if heatmap.Get("viridis") != nil {
		t.Errorf("gradient %q: unexpected gradient", "viridis")
	}
}
