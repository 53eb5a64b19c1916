package config

// Package config loads the capset.json project file. The file describes where
// the corpus lives and how captions are rendered; CLI flags can override
// individual values.

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/playsight/capset/pkg/annotation"
	"github.com/playsight/capset/pkg/caption"
	"github.com/playsight/capset/pkg/dataset"
)

// DefaultTaskName identifies the structured caption task in the tokenizer config.
const DefaultTaskName = "<PLAYER_CAPTION>"

// DefaultTaskPrompt is the prompt template registered for DefaultTaskName.
const DefaultTaskPrompt = "What are the attributes of the characters in this image?"

// DefaultCaptionKeys are the attributes rendered when the config doesn't name any.
var DefaultCaptionKeys = []string{
	"character_coordinates",
	"emotion",
	"pose",
	"jersey_color",
	"jersey_number",
	"jersey_name",
	"general_description",
}

type Config struct {
	ImagesDir      string     `json:"imagesDir"`
	AnnotationsDir string     `json:"annotationsDir"`
	CatalogPath    string     `json:"catalogPath"`      // SQLite catalog file. Default "capset.sqlite"
	TokenizerPath  string     `json:"tokenizerPath"`    // Extended tokenizer config JSON, used to stamp export manifests. Optional
	CaptionKeys    []string   `json:"captionKeys"`      // Attributes to render. Default DefaultCaptionKeys
	MaxCharacters  int        `json:"maxCharacters"`    // Characters per caption. Default caption.DefaultMaxCharacters
	PlainText      bool       `json:"plainText"`        // Render "key: value" text instead of special tokens
	Percentages    [3]float64 `json:"splitPercentages"` // [train, validation, test]. Default dataset.DefaultPercentages
	Seed           int64      `json:"seed"`             // Split shuffle seed. Default dataset.DefaultSeed
	TaskName       string     `json:"taskName"`         // Default DefaultTaskName
	TaskPrompt     string     `json:"taskPrompt"`       // Default DefaultTaskPrompt
}

// Load reads the config file and applies defaults.
func Load(filename string) (*Config, error) {
	if filename == "" {
		filename = "capset.json"
	}
	raw, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("Error loading %v: %w", filename, err)
	}
	cfg := &Config{}
	if err := json.Unmarshal(raw, cfg); err != nil {
		return nil, fmt.Errorf("Error loading as JSON %v: %w", filename, err)
	}
	cfg.applyDefaults()
	if cfg.ImagesDir == "" || cfg.AnnotationsDir == "" {
		return nil, fmt.Errorf("%v must set imagesDir and annotationsDir", filename)
	}
	if err := annotation.ValidateKeys(cfg.Keys()); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.CatalogPath == "" {
		c.CatalogPath = "capset.sqlite"
	}
	if len(c.CaptionKeys) == 0 {
		c.CaptionKeys = append([]string{}, DefaultCaptionKeys...)
	}
	if c.MaxCharacters == 0 {
		c.MaxCharacters = caption.DefaultMaxCharacters
	}
	if c.Percentages == ([3]float64{}) {
		c.Percentages = dataset.DefaultPercentages
	}
	if c.Seed == 0 {
		c.Seed = dataset.DefaultSeed
	}
	if c.TaskName == "" {
		c.TaskName = DefaultTaskName
	}
	if c.TaskPrompt == "" {
		c.TaskPrompt = DefaultTaskPrompt
	}
}

// Keys returns the caption keys as typed annotation keys.
func (c *Config) Keys() []annotation.Key {
	keys := make([]annotation.Key, 0, len(c.CaptionKeys))
	for _, k := range c.CaptionKeys {
		keys = append(keys, annotation.Key(k))
	}
	return keys
}

// CaptionParams returns the renderer parameters described by the config.
func (c *Config) CaptionParams() caption.Params {
	return caption.Params{
		Keys:          c.Keys(),
		MaxCharacters: c.MaxCharacters,
		Tokenize:      !c.PlainText,
	}
}

// DatasetOptions returns the dataset options for one split.
func (c *Config) DatasetOptions(split dataset.Split) dataset.Options {
	return dataset.Options{
		Split:          split,
		ImagesDir:      c.ImagesDir,
		AnnotationsDir: c.AnnotationsDir,
		Caption:        c.CaptionParams(),
		Percentages:    c.Percentages,
		Seed:           c.Seed,
	}
}
