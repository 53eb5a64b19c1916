package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/playsight/capset/pkg/annotation"
	"github.com/playsight/capset/pkg/dataset"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	fn := filepath.Join(t.TempDir(), "capset.json")
	require.NoError(t, os.WriteFile(fn, []byte(content), 0644))
	return fn
}

func TestLoadDefaults(t *testing.T) {
	fn := writeConfig(t, `{"imagesDir": "/data/images", "annotationsDir": "/data/jsons"}`)
	cfg, err := Load(fn)
	require.NoError(t, err)
	require.Equal(t, "capset.sqlite", cfg.CatalogPath)
	require.Equal(t, DefaultCaptionKeys, cfg.CaptionKeys)
	require.Equal(t, 10, cfg.MaxCharacters)
	require.Equal(t, [3]float64{0.8, 0.1, 0.1}, cfg.Percentages)
	require.Equal(t, int64(42), cfg.Seed)
	require.Equal(t, "<PLAYER_CAPTION>", cfg.TaskName)

	params := cfg.CaptionParams()
	require.True(t, params.Tokenize)
	require.Equal(t, annotation.KeyCoordinates, params.Keys[0])

	opts := cfg.DatasetOptions(dataset.Validation)
	require.Equal(t, dataset.Validation, opts.Split)
	require.Equal(t, "/data/images", opts.ImagesDir)
	require.Equal(t, int64(42), opts.Seed)
}

func TestLoadOverrides(t *testing.T) {
	fn := writeConfig(t, `{
		"imagesDir": "/data/images",
		"annotationsDir": "/data/jsons",
		"tokenizerPath": "/data/tokenizer.json",
		"captionKeys": ["emotion"],
		"maxCharacters": 3,
		"plainText": true,
		"splitPercentages": [0.7, 0.2, 0.1],
		"seed": 7
	}`)
	cfg, err := Load(fn)
	require.NoError(t, err)
	require.Equal(t, []string{"emotion"}, cfg.CaptionKeys)
	require.Equal(t, 3, cfg.MaxCharacters)
	require.False(t, cfg.CaptionParams().Tokenize)
	require.Equal(t, [3]float64{0.7, 0.2, 0.1}, cfg.Percentages)
	require.Equal(t, int64(7), cfg.Seed)
	require.Equal(t, "/data/tokenizer.json", cfg.TokenizerPath)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)

	fn := writeConfig(t, `{nope`)
	_, err = Load(fn)
	require.Error(t, err)

	fn = writeConfig(t, `{"imagesDir": "/data/images"}`)
	_, err = Load(fn)
	require.Error(t, err)

	fn = writeConfig(t, `{"imagesDir": "a", "annotationsDir": "b", "captionKeys": ["shoe_size"]}`)
	_, err = Load(fn)
	require.Error(t, err)
}
