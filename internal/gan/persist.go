package gan

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/born-ml/wgangp/internal/nn"
	"github.com/born-ml/wgangp/internal/optim"
	"github.com/born-ml/wgangp/internal/tensor"
)

// Metadata is the checkpoint commit record, stored as <model>_config.yaml.
// Paths are relative to the directory holding the metadata file.
type Metadata struct {
	Channels           int          `yaml:"channels"`
	ImgShape           []int        `yaml:"img_shape,flow"`
	LatentDim          int          `yaml:"latent_dim"`
	NCritic            int          `yaml:"n_critic"`
	Epoch              int          `yaml:"epoch"`
	GeneratorPath      string       `yaml:"generator_path"`
	GeneratorArchPath  string       `yaml:"generator_arch_path"`
	CriticPath         string       `yaml:"critic_path"`
	CriticArchPath     string       `yaml:"critic_arch_path"`
	ModelName          string       `yaml:"model_name"`
	RunID              string       `yaml:"run_id"`
	SavedAt            time.Time    `yaml:"saved_at"`
	GPWeight           float64      `yaml:"gp_weight"`
	GeneratorOptimizer optim.Config `yaml:"generator_optimizer"`
	CriticOptimizer    optim.Config `yaml:"critic_optimizer"`
}

// requiredKeys must all be present in a metadata file. A zero value is not
// the same as a missing key: epoch 0 is valid, an absent epoch is not.
var requiredKeys = []string{
	"channels", "img_shape", "latent_dim", "n_critic", "epoch",
	"generator_path", "generator_arch_path", "critic_path", "critic_arch_path",
	"model_name", "run_id", "saved_at", "gp_weight",
	"generator_optimizer", "critic_optimizer",
}

var suffixPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// ConfigPath returns the metadata path Save writes for this trainer.
func (t *Trainer) ConfigPath() string {
	return t.configPath("")
}

func (t *Trainer) configPath(suffix string) string {
	dir := t.cfg.ModelDir
	if dir == "" {
		dir = "."
	}
	return filepath.Join(dir, t.cfg.ModelName+"_config"+suffixPart(suffix)+".yaml")
}

func suffixPart(suffix string) string {
	if suffix == "" {
		return ""
	}
	return "_" + suffix
}

// Save writes a checkpoint into ModelDir:
//
//	<model>_generator_arch.yaml, <model>_critic_arch.yaml
//	<model>_generator.<save id>.born, <model>_critic.<save id>.born
//	<model>_config.yaml
//
// Each file is written to a temporary name, synced and renamed. The
// metadata file goes last and commits the save; weight files from earlier
// saves are removed afterwards.
func (t *Trainer) Save() error {
	return t.save("")
}

// SaveSnapshot writes a checkpoint whose file names carry suffix, e.g.
// <model>_config_<suffix>.yaml. Snapshots never replace the main checkpoint.
func (t *Trainer) SaveSnapshot(suffix string) error {
	if !suffixPattern.MatchString(suffix) {
		return configErrorf("invalid snapshot suffix %q", suffix)
	}
	return t.save(suffix)
}

func (t *Trainer) save(suffix string) error {
	for _, net := range []nn.Network{t.generator, t.critic} {
		if err := net.Architecture().Validate(); err != nil {
			return configErrorf("cannot checkpoint a network without a valid architecture: %v", err)
		}
	}
	dir := t.cfg.ModelDir
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return errors.Wrap(err, "create model dir")
	}

	saveID := uuid.NewString()
	sfx := suffixPart(suffix)
	genBase := t.cfg.ModelName + "_generator" + sfx
	critBase := t.cfg.ModelName + "_critic" + sfx

	meta := Metadata{
		Channels:           t.cfg.Channels(),
		ImgShape:           []int(t.cfg.ImgShape.Clone()),
		LatentDim:          t.cfg.LatentDim,
		NCritic:            t.cfg.NCritic,
		Epoch:              t.epoch,
		GeneratorPath:      genBase + "." + saveID + ".born",
		GeneratorArchPath:  t.cfg.ModelName + "_generator_arch" + sfx + ".yaml",
		CriticPath:         critBase + "." + saveID + ".born",
		CriticArchPath:     t.cfg.ModelName + "_critic_arch" + sfx + ".yaml",
		ModelName:          t.cfg.ModelName,
		RunID:              t.runID,
		SavedAt:            time.Now().UTC().Truncate(time.Second),
		GPWeight:           t.cfg.GPWeight,
		GeneratorOptimizer: t.cfg.GeneratorOptimizer,
		CriticOptimizer:    t.cfg.CriticOptimizer,
	}
	weightMeta := map[string]string{
		"run_id":  t.runID,
		"save_id": saveID,
		"epoch":   fmt.Sprint(t.epoch),
	}

	if err := writeArchitecture(filepath.Join(dir, meta.GeneratorArchPath), t.generator.Architecture()); err != nil {
		return err
	}
	if err := writeArchitecture(filepath.Join(dir, meta.CriticArchPath), t.critic.Architecture()); err != nil {
		return err
	}
	if err := writeWeights(filepath.Join(dir, meta.GeneratorPath), t.generator, t.genOpt, weightMeta); err != nil {
		return err
	}
	if err := writeWeights(filepath.Join(dir, meta.CriticPath), t.critic, t.critOpt, weightMeta); err != nil {
		return err
	}

	data, err := yaml.Marshal(&meta)
	if err != nil {
		return errors.Wrap(err, "encode checkpoint metadata")
	}
	configPath := t.configPath(suffix)
	if err := writeFileAtomic(configPath, data); err != nil {
		return err
	}
	syncDir(dir)

	t.removeSuperseded(dir, genBase, meta.GeneratorPath)
	t.removeSuperseded(dir, critBase, meta.CriticPath)

	t.state = StateCheckpointed
	t.opts.logger.Info("checkpoint saved",
		"path", configPath,
		"epoch", t.epoch,
		"save_id", saveID,
	)
	return nil
}

// removeSuperseded deletes weight files of earlier saves with the same base
// name. Failures only cost disk space, so they are logged.
func (t *Trainer) removeSuperseded(dir, base, keep string) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.opts.logger.Warn("cannot list superseded weights", "dir", dir, "error", err)
		return
	}
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || name == keep || !strings.HasPrefix(name, base+".") || !strings.HasSuffix(name, ".born") {
			continue
		}
		m := filepath.Join(dir, name)
		if err := os.Remove(m); err != nil {
			t.opts.logger.Warn("cannot remove superseded weights", "path", m, "error", err)
		}
	}
}

func writeArchitecture(path string, arch nn.Architecture) error {
	data, err := nn.MarshalArchitecture(arch)
	if err != nil {
		return errors.Wrapf(err, "encode architecture %s", arch.Name)
	}
	return writeFileAtomic(path, data)
}

func writeWeights(path string, net nn.Network, opt optim.Optimizer, meta map[string]string) error {
	tmp := path + ".tmp"
	if err := nn.SaveWeights(tmp, net, opt, meta); err != nil {
		_ = os.Remove(tmp)
		return errors.Wrapf(err, "write %s", path)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return errors.Wrap(err, "commit weights")
	}
	return nil
}

// writeFileAtomic writes data to a temporary file in the target directory,
// syncs it and renames it over path.
func writeFileAtomic(path string, data []byte) error {
	f, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return errors.Wrap(err, "create temp file")
	}
	tmp := f.Name()
	fail := func(err error, msg string) error {
		_ = f.Close()
		_ = os.Remove(tmp)
		return errors.Wrap(err, msg)
	}
	if _, err := f.Write(data); err != nil {
		return fail(err, "write "+path)
	}
	if err := f.Sync(); err != nil {
		return fail(err, "sync "+path)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return errors.Wrap(err, "close "+path)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return errors.Wrap(err, "commit "+path)
	}
	return nil
}

// syncDir makes the renames durable where the platform allows it.
func syncDir(dir string) {
	d, err := os.Open(dir) //nolint:gosec // G304: model dir from configuration
	if err != nil {
		return
	}
	_ = d.Sync()
	_ = d.Close()
}

// ReadMetadata decodes a checkpoint metadata file.
//
// Decoding is strict: unknown keys, missing required keys and inconsistent
// values are reported as ErrCheckpointCorrupt. A required key holding null
// counts as missing.
func ReadMetadata(path string) (Metadata, error) {
	var meta Metadata
	data, err := os.ReadFile(path) //nolint:gosec // G304: checkpoint path chosen by the caller
	if err != nil {
		return meta, corrupt(path, err)
	}

	var present map[string]any
	if err := yaml.Unmarshal(data, &present); err != nil {
		return meta, corrupt(path, err)
	}
	var missing []string
	for _, k := range requiredKeys {
		if v, ok := present[k]; !ok || v == nil {
			missing = append(missing, k)
		}
	}
	if len(missing) > 0 {
		return meta, corrupt(path, errors.Errorf("missing required keys: %s", strings.Join(missing, ", ")))
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&meta); err != nil {
		return meta, corrupt(path, err)
	}

	shape := tensor.Shape(meta.ImgShape)
	switch {
	case len(shape) != 3 || shape.Validate() != nil:
		err = errors.Errorf("invalid img_shape %v", meta.ImgShape)
	case meta.Channels != shape[2]:
		err = errors.Errorf("channels %d disagree with img_shape %v", meta.Channels, meta.ImgShape)
	case meta.LatentDim < 1 || meta.NCritic < 1 || meta.Epoch < 0 || meta.GPWeight < 0:
		err = errors.New("latent_dim, n_critic, epoch or gp_weight out of range")
	case !modelNamePattern.MatchString(meta.ModelName):
		err = errors.Errorf("invalid model_name %q", meta.ModelName)
	}
	if err != nil {
		return meta, corrupt(path, err)
	}
	for _, p := range []string{meta.GeneratorPath, meta.GeneratorArchPath, meta.CriticPath, meta.CriticArchPath} {
		if p == "" || filepath.IsAbs(p) || filepath.Base(p) != p {
			return meta, corrupt(path, errors.Errorf("file reference %q must be a plain file name", p))
		}
	}
	return meta, nil
}

// Load reconstructs a trainer from the metadata file written by Save or
// SaveSnapshot. Networks are rebuilt from their architecture files and the
// weights and optimizer state are restored bit for bit. The epoch counter and
// run id continue from the checkpoint.
//
// Any failure is returned; Load never falls back to a fresh trainer.
func Load(configPath string, opts ...Option) (*Trainer, error) {
	meta, err := ReadMetadata(configPath)
	if err != nil {
		return nil, err
	}
	dir := filepath.Dir(configPath)

	genArch, err := readArchitecture(filepath.Join(dir, meta.GeneratorArchPath))
	if err != nil {
		return nil, err
	}
	critArch, err := readArchitecture(filepath.Join(dir, meta.CriticArchPath))
	if err != nil {
		return nil, err
	}

	cfg := Config{
		ImgShape:           tensor.Shape(meta.ImgShape),
		LatentDim:          meta.LatentDim,
		NCritic:            meta.NCritic,
		GPWeight:           meta.GPWeight,
		ModelName:          meta.ModelName,
		ModelDir:           dir,
		GeneratorOptimizer: meta.GeneratorOptimizer,
		CriticOptimizer:    meta.CriticOptimizer,
	}
	t, err := Build(cfg, genArch, critArch, opts...)
	if err != nil {
		return nil, err
	}

	genPath := filepath.Join(dir, meta.GeneratorPath)
	if _, err := nn.LoadWeights(genPath, t.generator, t.genOpt); err != nil {
		return nil, corrupt(genPath, err)
	}
	critPath := filepath.Join(dir, meta.CriticPath)
	if _, err := nn.LoadWeights(critPath, t.critic, t.critOpt); err != nil {
		return nil, corrupt(critPath, err)
	}

	t.epoch = meta.Epoch
	t.runID = meta.RunID
	t.opts.logger.Info("checkpoint loaded", "path", configPath, "epoch", t.epoch, "run_id", t.runID)
	return t, nil
}

func readArchitecture(path string) (nn.Architecture, error) {
	data, err := os.ReadFile(path) //nolint:gosec // G304: path from checkpoint metadata
	if err != nil {
		return nn.Architecture{}, corrupt(path, err)
	}
	arch, err := nn.UnmarshalArchitecture(data)
	if err != nil {
		return nn.Architecture{}, corrupt(path, err)
	}
	return arch, nil
}
