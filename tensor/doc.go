// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package tensor provides the dense float64 tensors used by wgangp.
//
// # Overview
//
// Tensors are row-major and carry their shape. Images use the
// [batch, height, width, channels] layout, latent batches [batch, dim].
//
// # Basic Usage
//
//	import "github.com/born-ml/wgangp/tensor"
//
//	rng := tensor.NewRNG(42)
//	z := tensor.Randn(tensor.Shape{25, 100}, rng)
//	x, err := tensor.FromSlice([]float64{1, 2, 3, 4}, tensor.Shape{2, 2})
//
// Random functions take an explicit *rand.Rand so runs are reproducible.
package tensor
