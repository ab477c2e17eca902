// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package autodiff provides tape-based reverse-mode differentiation.
//
// A Tape records operations on Variables. Grad walks the tape backwards;
// with CreateGraph the backward pass is itself recorded, so gradients can be
// differentiated again. Gradient penalties need exactly that.
//
// Example:
//
//	tp := autodiff.NewTape()
//	tp.Watch(w)
//	x := tp.Input(batch)
//	y := tp.Mean(tp.MatMul(x, tp.Transpose(tp.Var(w))))
//	g, err := tp.Grad(y, []*autodiff.Variable{x}, autodiff.CreateGraph())
package autodiff

import (
	"github.com/born-ml/wgangp/internal/autodiff"
)

// Tape records operations for automatic differentiation.
type Tape = autodiff.Tape

// Variable is a tensor value tracked by a Tape.
type Variable = autodiff.Variable

// GradOption configures Tape.Grad.
type GradOption = autodiff.GradOption

// ErrNotDifferentiable is returned when differentiating a constant.
var ErrNotDifferentiable = autodiff.ErrNotDifferentiable

// NewTape returns a recording tape.
func NewTape() *Tape {
	return autodiff.NewTape()
}

// NoGrad returns a tape that evaluates without recording.
func NoGrad() *Tape {
	return autodiff.NoGrad()
}

// CreateGraph records the backward pass so its results are differentiable.
func CreateGraph() GradOption {
	return autodiff.CreateGraph()
}
