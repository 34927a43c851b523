package train

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the full training surface. The CLI binds every field to a
// flag; a YAML file can supply base values that flags then override.
type Config struct {
	BatchSize int     `yaml:"batch_size"`
	EmbedDim  int     `yaml:"embed_dim"`
	HiddenDim int     `yaml:"hidden_dim"` // LSTM width per direction, reused by the MLP head
	AttnDim   int     `yaml:"attn_dim"`
	AttnHeads int     `yaml:"attn_heads"`
	Layers    int     `yaml:"layers"`
	MaxLen    int     `yaml:"max_len"`
	Dropout   float32 `yaml:"dropout"`
	LR        float32 `yaml:"learning_rate"`
	Epochs    int     `yaml:"epochs"`
	ClipNorm  float32 `yaml:"clip_norm"` // 0 disables gradient clipping

	DatasetDir string `yaml:"dataset_dir"`
	OutputDir  string `yaml:"output_dir"`

	Seed             int64 `yaml:"seed"`
	FreezeEmbeddings bool  `yaml:"freeze_embeddings"`
}

// DefaultConfig returns the baseline hyperparameters. EmbedDim must
// still match the dataset's pretrained table.
func DefaultConfig() Config {
	return Config{
		BatchSize:        50,
		EmbedDim:         100,
		HiddenDim:        100,
		AttnDim:          100,
		AttnHeads:        10,
		Layers:           1,
		MaxLen:           60,
		Dropout:          0.5,
		LR:               0.001,
		Epochs:           100,
		ClipNorm:         0.5,
		Seed:             42,
		FreezeEmbeddings: true,
	}
}

// LoadConfig reads a YAML file over the defaults. Missing keys keep
// their default values.
func LoadConfig(path string) (Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config: %w", err)
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return Config{}, &ConfigError{Err: fmt.Errorf("parsing %s: %w", path, err)}
	}
	return cfg, nil
}

// Validate rejects impossible hyperparameters. Whether the paths exist
// is checked where they are opened.
func (c Config) Validate() error {
	dims := []struct {
		field string
		value int
	}{
		{"batch_size", c.BatchSize},
		{"embed_dim", c.EmbedDim},
		{"hidden_dim", c.HiddenDim},
		{"attn_dim", c.AttnDim},
		{"attn_heads", c.AttnHeads},
		{"layers", c.Layers},
		{"max_len", c.MaxLen},
		{"epochs", c.Epochs},
	}
	for _, d := range dims {
		if d.value < 1 {
			return configErrorf(d.field, "is %d, expected >= 1", d.value)
		}
	}
	if c.Dropout < 0 || c.Dropout >= 1 {
		return configErrorf("dropout", "is %v, expected in [0, 1)", c.Dropout)
	}
	if c.LR <= 0 {
		return configErrorf("learning_rate", "is %v, expected > 0", c.LR)
	}
	if c.ClipNorm < 0 {
		return configErrorf("clip_norm", "is %v, expected >= 0 (0 disables)", c.ClipNorm)
	}
	if c.DatasetDir == "" {
		return configErrorf("dataset_dir", "required")
	}
	return nil
}
