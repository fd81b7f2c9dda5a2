// Copyright © 2023 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

// Package heatmap implements an image
// of the values of a sparse matrix,
// with a cell for each entry.
package heatmap

import (
	"image"
	"image/color"

	"github.com/js-arias/blind"
	"gonum.org/v1/gonum/mat"
)

// Nonzeroer is a matrix that can iterate
// over its structural entries.
type Nonzeroer interface {
	mat.Matrix
	DoNonZero(fn func(i, j int, v float64))
}

// Image is a heat map of a matrix.
type Image struct {
	// Size of each cell, in pixels
	Cell int

	// Color of the cells without an structural entry
	Background color.Color

	// A Gradient color scheme
	Gradient Gradienter

	rows, cols int
	max        float64
	vals       map[[2]int]float64
}

// New returns a heat map image of a matrix.
// The color of each entry is scaled
// using the maximum absolute value of the matrix.
func New(m Nonzeroer, cell int) *Image {
	if cell < 1 {
		cell = 1
	}
	r, c := m.Dims()
	i := &Image{
		Cell:       cell,
		Background: color.RGBA{255, 255, 255, 255},
		Gradient:   Iridescent{},
		rows:       r,
		cols:       c,
		vals:       make(map[[2]int]float64),
	}
	m.DoNonZero(func(r, c int, v float64) {
		if v < 0 {
			v = -v
		}
		if v > i.max {
			i.max = v
		}
		i.vals[[2]int{r, c}] = v
	})
	return i
}

func (i *Image) ColorModel() color.Model { return color.RGBAModel }
func (i *Image) Bounds() image.Rectangle {
	return image.Rect(0, 0, i.cols*i.Cell, i.rows*i.Cell)
}
func (i *Image) At(x, y int) color.Color {
	r, c := y/i.Cell, x/i.Cell
	v, ok := i.vals[[2]int{r, c}]
	if !ok {
		return i.Background
	}
	if i.max == 0 {
		return i.Gradient.Gradient(0)
	}
	return i.Gradient.Gradient(v / i.max)
}

// Max returns the maximum absolute value
// used to scale the colors.
func (i *Image) Max() float64 {
	return i.max
}

// Gradienter is an interface for types
// that return a color gradient
type Gradienter interface {
	Gradient(v float64) color.Color
}

// Get returns a gradient by its name.
// If the name is unknown,
// it returns nil.
func Get(name string) Gradienter {
	switch name {
	case "gray":
		return LightGrayScale{}
	case "incandescent":
		return Incandescent{}
	case "iridescent":
		return Iridescent{}
	case "rainbow":
		return RainbowPurpleToRed{}
	}
	return nil
}

// LightGrayScale returns a gray scale
// between 200 (light gray)
// to 0 (black).
type LightGrayScale struct{}

func (l LightGrayScale) Gradient(v float64) color.Color {
	v = clamp(v)
	c := 200 - uint8(v*200)
	return color.RGBA{c, c, c, 255}
}

// Incandescent is the incandescent color scheme
// of Paul Tol
// <https://personal.sron.nl/~pault/#fig:scheme_incandescent>.
type Incandescent struct{}

func (i Incandescent) Gradient(v float64) color.Color {
	return blind.Sequential(blind.Incandescent, clamp(v))
}

// Iridescent is the iridescent color scheme
// of Paul Tol
// <https://personal.sron.nl/~pault/#fig:scheme_iridescent>.
type Iridescent struct{}

func (i Iridescent) Gradient(v float64) color.Color {
	return blind.Sequential(blind.Iridescent, clamp(v))
}

// RainbowPurpleToRed is the rainbow color scheme
// of Paul Tol
// <https://personal.sron.nl/~pault/#fig:scheme_rainbow_smooth>
// starting at purple and ending at red.
type RainbowPurpleToRed struct{}

func (r RainbowPurpleToRed) Gradient(v float64) color.Color {
	return blind.Sequential(blind.RainbowPurpleToRed, clamp(v))
}

func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
