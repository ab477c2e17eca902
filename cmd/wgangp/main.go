// Package main provides the wgangp command line.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/pkg/errors"

	"github.com/born-ml/wgangp/internal/config"
	"github.com/born-ml/wgangp/internal/gan"
	"github.com/born-ml/wgangp/internal/sampling"
)

const version = "v0.1.0"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		usage(stderr)
		return 2
	}

	var err error
	switch args[0] {
	case "version":
		fmt.Fprintf(stdout, "wgangp %s\n", version)
		return 0
	case "help", "-h", "--help":
		usage(stdout)
		return 0
	case "train":
		err = runTrain(ctx, args[1:], stderr)
	case "generate":
		err = runGenerate(args[1:], stderr)
	default:
		fmt.Fprintf(stderr, "wgangp: unknown command %q\n\n", args[0])
		usage(stderr)
		return 2
	}
	if errors.Is(err, flag.ErrHelp) {
		return 0
	}
	if err != nil {
		fmt.Fprintf(stderr, "wgangp: %v\n", err)
		return 1
	}
	return 0
}

func usage(w io.Writer) {
	fmt.Fprintf(w, "wgangp %s - WGAN-GP training\n\n", version)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  train      Train a generator/critic pair (use -resume to continue)")
	fmt.Fprintln(w, "  generate   Write a sample sheet from a checkpoint")
	fmt.Fprintln(w, "  version    Show version")
}

func runTrain(ctx context.Context, args []string, stderr io.Writer) error {
	fs := flag.NewFlagSet("train", flag.ContinueOnError)
	fs.SetOutput(stderr)
	cfgPath := fs.String("config", "", "Path to YAML config (defaults apply when empty)")
	resume := fs.String("resume", "", "Checkpoint metadata file to resume from")
	epochs := fs.Int("epochs", 0, "Number of epochs to train")
	batchSize := fs.Int("batch-size", 0, "Batch size")
	sampleInterval := fs.Int("sample-interval", 0, "Write a sample sheet every N epochs (0 disables sampling)")
	seed := fs.Uint64("seed", 0, "PRNG seed")
	dataDir := fs.String("data", "", "Directory holding the MNIST IDX files")
	modelDir := fs.String("model-dir", "", "Checkpoint directory (not allowed with -resume, which saves next to the resumed checkpoint)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	set := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })
	if *resume != "" && set["model-dir"] {
		return errors.New("-model-dir cannot be combined with -resume: a resumed run saves next to its checkpoint")
	}

	cfg := config.Default()
	if *cfgPath != "" {
		var err error
		if cfg, err = config.Load(*cfgPath); err != nil {
			return err
		}
	}
	overrides := config.Overrides{
		Epochs:     *epochs,
		BatchSize:  *batchSize,
		Seed:       *seed,
		DatasetDir: *dataDir,
		ModelDir:   *modelDir,
	}
	if set["sample-interval"] {
		overrides.SampleInterval = sampleInterval
	}
	cfg.ApplyOverrides(overrides)
	if err := cfg.Validate(); err != nil {
		return errors.Wrap(err, "invalid config")
	}
	logger, err := cfg.Logger(stderr)
	if err != nil {
		return err
	}

	writer := sampling.NewWriter(cfg.Sampling.Dir,
		sampling.WithGrid(cfg.Sampling.Rows, cfg.Sampling.Cols),
		sampling.WithScale(cfg.Sampling.Scale),
		sampling.WithLogger(logger),
	)
	opts := []gan.Option{
		gan.WithLogger(logger),
		gan.WithDataset(cfg.MNIST()),
		gan.WithSampler(writer),
		gan.WithSampleCount(writer.Capacity()),
		gan.WithNaNPolicy(gan.NaNPolicy(cfg.Training.NaNPolicy)),
		gan.WithLogEvery(cfg.Training.LogEvery),
	}
	if cfg.Seed != 0 {
		opts = append(opts, gan.WithSeed(cfg.Seed))
	}

	var trainer *gan.Trainer
	if *resume != "" {
		trainer, err = gan.Load(*resume, opts...)
		if err == nil && trainer.Config().ModelDir != cfg.Model.Dir {
			logger.Info("resumed run saves next to its checkpoint", "model_dir", trainer.Config().ModelDir)
		}
	} else {
		gen, critic := cfg.Architectures()
		trainer, err = gan.Build(cfg.TrainerConfig(), gen, critic, opts...)
	}
	if err != nil {
		return err
	}

	res, err := trainer.Train(ctx, cfg.TrainOptions())
	switch {
	case errors.Is(err, context.Canceled):
		logger.Warn("interrupted, saving checkpoint", "epoch", trainer.Epoch())
	case err != nil:
		return err
	}
	if err := trainer.Save(); err != nil {
		return err
	}
	logger.Info("done",
		"epoch", trainer.Epoch(),
		"critic_steps", res.CriticSteps,
		"generator_steps", res.GeneratorSteps,
		"sample_errors", len(res.SampleErrors),
		"checkpoint", trainer.ConfigPath(),
	)
	return nil
}

func runGenerate(args []string, stderr io.Writer) error {
	fs := flag.NewFlagSet("generate", flag.ContinueOnError)
	fs.SetOutput(stderr)
	checkpoint := fs.String("checkpoint", "", "Checkpoint metadata file (required)")
	n := fs.Int("n", gan.DefaultSampleCount, "Number of images")
	cols := fs.Int("cols", 5, "Images per row")
	scale := fs.Int("scale", 2, "Pixel upscale factor")
	out := fs.String("out", "grid.png", "Output PNG")
	seed := fs.Uint64("seed", 0, "PRNG seed")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *checkpoint == "" {
		return errors.New("generate: -checkpoint is required")
	}
	if *n < 1 || *cols < 1 {
		return errors.Errorf("generate: -n and -cols must be positive")
	}

	var opts []gan.Option
	if *seed != 0 {
		opts = append(opts, gan.WithSeed(*seed))
	}
	trainer, err := gan.Load(*checkpoint, opts...)
	if err != nil {
		return err
	}
	images, err := trainer.Generate(*n)
	if err != nil {
		return err
	}
	sheet, err := sampling.Render(images, sampling.Layout{
		Rows:    (*n + *cols - 1) / *cols,
		Cols:    *cols,
		Scale:   *scale,
		Caption: fmt.Sprintf("epoch %d", trainer.Epoch()),
	})
	if err != nil {
		return err
	}
	return sampling.WritePNG(*out, sheet)
}
