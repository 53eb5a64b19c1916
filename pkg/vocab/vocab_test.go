package vocab

import (
	"path/filepath"
	"testing"

	"github.com/playsight/capset/pkg/annotation"
	"github.com/stretchr/testify/require"
)

func baseConfig() *Config {
	return &Config{
		Version: 1,
		Dim:     8,
		Tokens:  []string{"<s>", "</s>", "the", "player", "ice"},
		Tasks:   map[string]string{"<CAPTION>": "What does the image describe?"},
	}
}

func TestExtend(t *testing.T) {
	base := baseConfig()
	next, newIDs, err := base.Extend(ExtendOptions{
		Tokens: []string{TokenEmotion, CloseToken(TokenEmotion), TokenPose},
		Tasks:  map[string]string{"<PLAYER_CAPTION>": "What are the attributes of the characters in this image?"},
	})
	require.NoError(t, err)
	require.Equal(t, 2, next.Version)
	require.Equal(t, []int{5, 6, 7}, newIDs)
	require.Equal(t, 8, next.Size())
	require.True(t, next.HasToken("<emo>"))
	require.True(t, next.HasToken("</emo>"))
	require.Equal(t, 5, next.TokenID("<emo>"))

	// The receiver is untouched
	require.Equal(t, 1, base.Version)
	require.False(t, base.HasToken("<emo>"))
	require.Equal(t, -1, base.TokenID("<emo>"))

	prompt, err := next.TaskPrompt("<PLAYER_CAPTION>")
	require.NoError(t, err)
	require.Equal(t, "What are the attributes of the characters in this image?", prompt)
	_, err = base.TaskPrompt("<PLAYER_CAPTION>")
	require.Error(t, err)
}

func TestExtendIdempotent(t *testing.T) {
	base := baseConfig()
	opts := ExtendOptions{
		Tokens: []string{TokenEmotion, TokenPose},
		Tasks:  map[string]string{"<PLAYER_CAPTION>": "Describe the players."},
	}
	once, newIDs, err := base.Extend(opts)
	require.NoError(t, err)
	require.Len(t, newIDs, 2)

	// Re-registering the same tokens and task is a no-op
	twice, newIDs, err := once.Extend(opts)
	require.NoError(t, err)
	require.Empty(t, newIDs)
	require.Equal(t, once.Size(), twice.Size())
	require.Equal(t, once.Added, twice.Added)

	// A token that is already part of the base vocabulary is also a no-op
	next, newIDs, err := base.Extend(ExtendOptions{Tokens: []string{"player", TokenEmotion}})
	require.NoError(t, err)
	require.Equal(t, []int{5}, newIDs)
	require.Equal(t, "<emo>", next.Added[len(next.Added)-1])
}

func TestExtendTaskConflict(t *testing.T) {
	base := baseConfig()
	_, _, err := base.Extend(ExtendOptions{
		Tasks: map[string]string{"<CAPTION>": "A different prompt."},
	})
	require.Error(t, err)

	// Same name with the same prompt is fine
	_, _, err = base.Extend(ExtendOptions{
		Tasks: map[string]string{"<CAPTION>": "What does the image describe?"},
	})
	require.NoError(t, err)
}

func TestCaptionTokens(t *testing.T) {
	toks := CaptionTokens()
	seen := map[string]bool{}
	for _, tok := range toks {
		require.False(t, seen[tok], "duplicate token %v", tok)
		seen[tok] = true
	}
	require.True(t, seen["<emo>"])
	require.True(t, seen["</emo>"])
	require.True(t, seen["<tname>"])
	require.True(t, seen["</gdesc>"])
	require.True(t, seen["<loc_0>"])
	require.True(t, seen["<loc_999>"])
	// The <od> wrapper is not emitted by the renderer, so it is not registered
	require.False(t, seen["<od>"])
}

func TestLocationToken(t *testing.T) {
	require.Equal(t, "<loc_0>", LocationToken(0))
	require.Equal(t, "<loc_500>", LocationToken(0.5))
	require.Equal(t, "<loc_999>", LocationToken(1.0))
	require.Equal(t, "<loc_0>", LocationToken(-0.5))
	require.Equal(t, "<loc_999>", LocationToken(1.5))
}

func TestAttributeToken(t *testing.T) {
	tok, ok := AttributeToken(annotation.KeyJerseyNumber)
	require.True(t, ok)
	require.Equal(t, "<jnu>", tok)
	require.Equal(t, "</jnu>", CloseToken(tok))
	_, ok = AttributeToken(annotation.Key("shoe_size"))
	require.False(t, ok)
}

func TestSaveLoadConfig(t *testing.T) {
	dir := t.TempDir()
	fn := filepath.Join(dir, "tokenizer.json")

	base := baseConfig()
	next, _, err := base.Extend(ExtendOptions{Tokens: CaptionTokens()})
	require.NoError(t, err)
	require.NoError(t, next.Save(fn))

	loaded, err := LoadConfig(fn)
	require.NoError(t, err)
	require.Equal(t, next, loaded)

	_, err = LoadConfig(filepath.Join(dir, "missing.json"))
	require.Error(t, err)
}

func TestExtendEmbeddings(t *testing.T) {
	embd := [][]float32{
		{1, 2},
		{3, 4},
	}
	out, err := ExtendEmbeddings(embd, 2, InitMeanOfVocab, 0)
	require.NoError(t, err)
	require.Len(t, out, 4)
	require.Equal(t, []float32{2, 3}, out[2])
	require.Equal(t, []float32{2, 3}, out[3])
	// Input not modified
	require.Len(t, embd, 2)

	out, err = ExtendEmbeddings(embd, 3, InitSameVarRandom, 42)
	require.NoError(t, err)
	require.Len(t, out, 5)
	// Variance of each dimension is 1, so new values lie in [-sqrt(3), sqrt(3)]
	limit := float32(1.7320509)
	for _, row := range out[2:] {
		for _, v := range row {
			require.LessOrEqual(t, v, limit)
			require.GreaterOrEqual(t, v, -limit)
		}
	}

	// Same seed yields the same rows
	again, err := ExtendEmbeddings(embd, 3, InitSameVarRandom, 42)
	require.NoError(t, err)
	require.Equal(t, out, again)

	_, err = ExtendEmbeddings(nil, 1, InitMeanOfVocab, 0)
	require.Error(t, err)
	_, err = ExtendEmbeddings([][]float32{{1}, {2, 3}}, 1, InitMeanOfVocab, 0)
	require.Error(t, err)
	_, err = ExtendEmbeddings(embd, 1, InitStrategy("bogus"), 0)
	require.Error(t, err)
}
