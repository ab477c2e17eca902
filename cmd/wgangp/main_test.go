package main

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/wgangp/internal/dataset"
)

// writeIDX writes n rows x cols images with a simple gradient pattern.
func writeIDX(t *testing.T, dir string, n, rows, cols int) {
	t.Helper()
	var buf bytes.Buffer
	for _, v := range []uint32{2051, uint32(n), uint32(rows), uint32(cols)} {
		require.NoError(t, binary.Write(&buf, binary.BigEndian, v))
	}
	for i := 0; i < n*rows*cols; i++ {
		buf.WriteByte(byte(i * 7 % 256))
	}
	require.NoError(t, os.WriteFile(filepath.Join(dir, dataset.MNISTTrainImages), buf.Bytes(), 0o600))
}

func TestVersionAndUsage(t *testing.T) {
	var stdout, stderr bytes.Buffer
	assert.Equal(t, 0, run(context.Background(), []string{"version"}, &stdout, &stderr))
	assert.Contains(t, stdout.String(), version)

	assert.Equal(t, 2, run(context.Background(), nil, &stdout, &stderr))
	assert.Equal(t, 2, run(context.Background(), []string{"serve"}, &stdout, &stderr))
	assert.Contains(t, stderr.String(), `unknown command "serve"`)
}

func TestTrainResumeGenerate(t *testing.T) {
	root := t.TempDir()
	data := filepath.Join(root, "mnist")
	require.NoError(t, os.MkdirAll(data, 0o750))
	writeIDX(t, data, 8, 4, 4)

	models := filepath.Join(root, "models")
	images := filepath.Join(root, "images")
	cfgPath := filepath.Join(root, "run.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(fmt.Sprintf(`
seed: 3
log:
  level: warn
dataset:
  dir: %q
model:
  name: small
  dir: %q
  img_shape: [4, 4, 1]
  latent_dim: 5
  n_critic: 2
  generator_hidden: [8]
  critic_hidden: [8]
training:
  epochs: 4
  batch_size: 4
  sample_interval: 2
  checkpoint_interval: 0
sampling:
  dir: %q
  scale: 1
`, data, models, images)), 0o600))

	var stdout, stderr bytes.Buffer
	ctx := context.Background()
	require.Equal(t, 0, run(ctx, []string{"train", "-config", cfgPath}, &stdout, &stderr), stderr.String())
	assert.FileExists(t, filepath.Join(images, "sample_02.png"))
	assert.FileExists(t, filepath.Join(images, "sample_04.png"))
	checkpoint := filepath.Join(models, "small_config.yaml")
	assert.FileExists(t, checkpoint)

	require.Equal(t, 0, run(ctx, []string{"train", "-config", cfgPath, "-resume", checkpoint, "-epochs", "2"}, &stdout, &stderr), stderr.String())
	assert.FileExists(t, filepath.Join(images, "sample_06.png"))

	out := filepath.Join(root, "grid.png")
	require.Equal(t, 0, run(ctx, []string{"generate", "-checkpoint", checkpoint, "-n", "6", "-cols", "3", "-out", out}, &stdout, &stderr), stderr.String())
	assert.FileExists(t, out)
}

func TestTrainFlagOverrides(t *testing.T) {
	root := t.TempDir()
	writeIDX(t, root, 4, 3, 3)
	images := filepath.Join(root, "images")
	cfgPath := filepath.Join(root, "run.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(fmt.Sprintf(`
log: {level: error}
dataset: {dir: %q}
model: {name: flags, dir: %q, img_shape: [3, 3, 1], latent_dim: 2, generator_hidden: [], critic_hidden: []}
training: {epochs: 2, batch_size: 2, sample_interval: 1}
sampling: {dir: %q, scale: 1}
`, root, root, images)), 0o600))

	var stdout, stderr bytes.Buffer
	ctx := context.Background()
	require.Equal(t, 0, run(ctx, []string{"train", "-config", cfgPath, "-sample-interval", "0"}, &stdout, &stderr), stderr.String())
	assert.NoDirExists(t, images)

	checkpoint := filepath.Join(root, "flags_config.yaml")
	require.FileExists(t, checkpoint)
	other := filepath.Join(root, "elsewhere")
	assert.Equal(t, 1, run(ctx, []string{"train", "-config", cfgPath, "-resume", checkpoint, "-model-dir", other}, &stdout, &stderr))
	assert.Contains(t, stderr.String(), "-model-dir cannot be combined with -resume")
	assert.NoDirExists(t, other)
}

func TestTrainSavesOnCancel(t *testing.T) {
	root := t.TempDir()
	writeIDX(t, root, 4, 3, 3)
	cfgPath := filepath.Join(root, "run.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(fmt.Sprintf(`
log: {level: error}
dataset: {dir: %q}
model: {name: cut, dir: %q, img_shape: [3, 3, 1], latent_dim: 2, generator_hidden: [], critic_hidden: []}
training: {epochs: 100, batch_size: 2, sample_interval: 0}
`, root, root)), 0o600))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	var stdout, stderr bytes.Buffer
	require.Equal(t, 0, run(ctx, []string{"train", "-config", cfgPath, "-seed", "1"}, &stdout, &stderr), stderr.String())
	assert.FileExists(t, filepath.Join(root, "cut_config.yaml"))
}

func TestGenerateRequiresCheckpoint(t *testing.T) {
	var stdout, stderr bytes.Buffer
	assert.Equal(t, 1, run(context.Background(), []string{"generate"}, &stdout, &stderr))
	assert.Equal(t, 1, run(context.Background(), []string{"generate", "-checkpoint", "/does/not/exist.yaml"}, &stdout, &stderr))
}

func TestTrainRejectsBadConfig(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("training: {batch_size: -3}\n"), 0o600))
	var stdout, stderr bytes.Buffer
	assert.Equal(t, 1, run(context.Background(), []string{"train", "-config", cfgPath}, &stdout, &stderr))
}
