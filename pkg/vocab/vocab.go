package vocab

// Package vocab manages the text processor's token vocabulary and task table.
// The pretrained model ships with a tokenizer config file. We extend that
// config with the special tokens that our caption renderer emits, so that the
// tokenizer treats them as single atomic tokens instead of splitting them into
// sub-word pieces. Extension never mutates an existing config: Extend returns
// a new config with a bumped version, and the caller hands that to the
// model/tokenizer constructor.

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/playsight/capset/pkg/annotation"
)

// Special tokens, one per structured attribute category.
const (
	TokenEmotion            = "<emo>"
	TokenPose               = "<pose>"
	TokenJerseyNumber       = "<jnu>"
	TokenJerseyName         = "<jna>"
	TokenJerseyColor        = "<jco>"
	TokenTeamName           = "<tname>"
	TokenImageRankingScore  = "<ims>"
	TokenHashtags           = "<hashtags>"
	TokenGeneralDescription = "<gdesc>"
	TokenObjectDetection    = "<od>"
)

// NumLocationTokens is the number of quantization buckets for normalized
// coordinates. Coordinate c maps to token <loc_N> with N = int(c * 1000).
const NumLocationTokens = 1000

// AttributeToken maps an annotation key to its special token.
func AttributeToken(k annotation.Key) (string, bool) {
	switch k {
	case annotation.KeyEmotion:
		return TokenEmotion, true
	case annotation.KeyPose:
		return TokenPose, true
	case annotation.KeyJerseyNumber:
		return TokenJerseyNumber, true
	case annotation.KeyJerseyName:
		return TokenJerseyName, true
	case annotation.KeyJerseyColor:
		return TokenJerseyColor, true
	case annotation.KeyTeamName:
		return TokenTeamName, true
	case annotation.KeyImageRankingScore:
		return TokenImageRankingScore, true
	case annotation.KeyHashtags:
		return TokenHashtags, true
	case annotation.KeyGeneralDescription:
		return TokenGeneralDescription, true
	case annotation.KeyCoordinates:
		return TokenObjectDetection, true
	}
	return "", false
}

// CloseToken turns an opening token such as "<emo>" into "</emo>".
func CloseToken(open string) string {
	if len(open) < 2 || open[0] != '<' {
		return open
	}
	return "</" + open[1:]
}

// LocationToken returns the quantized coordinate token for a normalized value.
// Values outside [0,1] are clamped.
func LocationToken(v float64) string {
	n := int(v * NumLocationTokens)
	if n < 0 {
		n = 0
	}
	if n > NumLocationTokens-1 {
		n = NumLocationTokens - 1
	}
	return fmt.Sprintf("<loc_%d>", n)
}

// LocationTokens returns all location tokens, for registration.
func LocationTokens() []string {
	toks := make([]string, NumLocationTokens)
	for i := range toks {
		toks[i] = fmt.Sprintf("<loc_%d>", i)
	}
	return toks
}

// CaptionTokens returns every special token that the caption renderer can
// emit, in registration order: opening and closing attribute tokens, then
// location tokens.
func CaptionTokens() []string {
	keys := append([]annotation.Key{}, annotation.CharacterKeys...)
	keys = append(keys, annotation.SceneKeys...)
	var toks []string
	for _, k := range keys {
		open, _ := AttributeToken(k)
		if k == annotation.KeyCoordinates {
			// Coordinates render as bare <loc_N> tokens, without the <od> wrapper
			continue
		}
		toks = append(toks, open, CloseToken(open))
	}
	return append(toks, LocationTokens()...)
}

// Config is the tokenizer configuration. Token ID = index into Tokens,
// followed by index into Added offset by len(Tokens).
type Config struct {
	Version int               `json:"version"` // Incremented by every Extend
	Dim     int               `json:"dim"`     // Embedding dimension of the text model
	Tokens  []string          `json:"tokens"`  // Base vocabulary of the pretrained tokenizer
	Added   []string          `json:"added"`   // Special tokens added after pretraining
	Tasks   map[string]string `json:"tasks"`   // Task name -> prompt template
}

// LoadConfig loads a tokenizer config from a JSON file.
func LoadConfig(filename string) (*Config, error) {
	raw, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	config := &Config{}
	if err := json.Unmarshal(raw, config); err != nil {
		return nil, fmt.Errorf("Failed to parse tokenizer config %v: %w", filename, err)
	}
	return config, nil
}

// Save writes the config to a JSON file.
func (c *Config) Save(filename string) error {
	raw, err := json.MarshalIndent(c, "", "\t")
	if err != nil {
		return err
	}
	return os.WriteFile(filename, raw, 0644)
}

// Size returns the total vocabulary size (base + added tokens).
func (c *Config) Size() int {
	return len(c.Tokens) + len(c.Added)
}

// TokenID returns the ID of a token, or -1 if it is not in the vocabulary.
func (c *Config) TokenID(tok string) int {
	for i, t := range c.Tokens {
		if t == tok {
			return i
		}
	}
	for i, t := range c.Added {
		if t == tok {
			return len(c.Tokens) + i
		}
	}
	return -1
}

// HasToken returns true if tok is in the vocabulary.
func (c *Config) HasToken(tok string) bool {
	return c.TokenID(tok) != -1
}

// ExtendOptions lists the tokens and tasks to register.
type ExtendOptions struct {
	Tokens []string          // Special tokens to add. Tokens already present are skipped.
	Tasks  map[string]string // Task name -> prompt template
}

// Extend returns a new config with the given tokens and tasks registered, and
// the IDs of the tokens that were actually added. The receiver is not
// modified. Registering a token that is already present is a no-op.
// Registering a task that already exists with the same prompt is a no-op;
// a different prompt for an existing task name is an error, because silently
// redefining a task would change the meaning of previously rendered datasets.
func (c *Config) Extend(opts ExtendOptions) (*Config, []int, error) {
	next := &Config{
		Version: c.Version + 1,
		Dim:     c.Dim,
		Tokens:  append([]string{}, c.Tokens...),
		Added:   append([]string{}, c.Added...),
		Tasks:   map[string]string{},
	}
	for name, prompt := range c.Tasks {
		next.Tasks[name] = prompt
	}

	// Build a set up front, since the base vocabulary can be tens of thousands of tokens
	have := make(map[string]bool, next.Size())
	for _, t := range next.Tokens {
		have[t] = true
	}
	for _, t := range next.Added {
		have[t] = true
	}

	var newIDs []int
	for _, tok := range opts.Tokens {
		if have[tok] {
			continue
		}
		have[tok] = true
		next.Added = append(next.Added, tok)
		newIDs = append(newIDs, next.Size()-1)
	}

	for name, prompt := range opts.Tasks {
		existing, ok := next.Tasks[name]
		if ok && existing != prompt {
			return nil, nil, fmt.Errorf("Task '%v' is already registered with a different prompt", name)
		}
		next.Tasks[name] = prompt
	}

	return next, newIDs, nil
}

// TaskPrompt returns the prompt template of a registered task.
func (c *Config) TaskPrompt(name string) (string, error) {
	prompt, ok := c.Tasks[name]
	if !ok {
		return "", fmt.Errorf("Task '%v' is not registered", name)
	}
	return prompt, nil
}
