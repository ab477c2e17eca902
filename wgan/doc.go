// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package wgan trains Wasserstein GANs with gradient penalty.
//
// # Overview
//
// A Trainer owns a generator, a critic and one optimizer per network. Each
// epoch applies NCritic critic updates followed by one generator update:
//
//	critic:    mean(-critic(real)) + mean(critic(fake)) + λ·GP
//	generator: mean(-critic(generator(z)))
//
// where GP = mean((1 - ||∇x̂ critic(x̂)||)²) over per-sample interpolations x̂
// between real and generated images.
//
// # Basic Usage
//
//	cfg := wgan.DefaultConfig()
//	trainer, err := wgan.Build(cfg,
//	    nn.GeneratorMLP(cfg.LatentDim, cfg.ImgShape, []int{256, 512}),
//	    nn.CriticMLP(cfg.ImgShape, []int{512, 256}),
//	    wgan.WithDataset(wgan.MNIST{Dir: "data/mnist"}),
//	    wgan.WithSeed(42),
//	)
//	if err != nil {
//	    return err
//	}
//	res, err := trainer.Train(ctx, wgan.TrainOptions{Epochs: 1000, BatchSize: 32, SampleInterval: 100})
//
// # Checkpoints
//
// Save writes architecture descriptors, .born weight files (with optimizer
// state) and a YAML metadata file that commits the save. Load rebuilds the
// trainer from that metadata and continues the epoch count.
package wgan
