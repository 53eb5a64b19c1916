package caption

// Package caption renders annotation records into the token-delimited strings
// that the vision-language model is fine-tuned on.

import (
	"fmt"
	"strings"

	"github.com/playsight/capset/pkg/annotation"
	"github.com/playsight/capset/pkg/vocab"
)

// DefaultMaxCharacters limits how many characters of an annotation contribute
// to the caption. Busy scenes (a goal celebration, a brawl) can carry dozens
// of annotated people, and captions grow linearly with each one.
const DefaultMaxCharacters = 10

// Params configure a Renderer.
type Params struct {
	Keys          []annotation.Key // Attributes to render, in order. Must be valid keys.
	MaxCharacters int              // Maximum characters per annotation. 0 means DefaultMaxCharacters.
	Tokenize      bool             // Wrap values in special tokens. If false, render plain "key: value" text.
}

// Renderer converts annotations into caption strings.
// Rendering is deterministic: the same annotation and params always yield the
// same string.
type Renderer struct {
	keys    []annotation.Key
	maxChar int
	toks    bool
}

// NewRenderer validates the params and returns a Renderer.
// Unknown keys are rejected here rather than silently skipped at render time.
func NewRenderer(params Params) (*Renderer, error) {
	if err := annotation.ValidateKeys(params.Keys); err != nil {
		return nil, err
	}
	if len(params.Keys) == 0 {
		return nil, fmt.Errorf("No caption keys specified")
	}
	maxChar := params.MaxCharacters
	if maxChar <= 0 {
		maxChar = DefaultMaxCharacters
	}
	return &Renderer{
		keys:    append([]annotation.Key{}, params.Keys...),
		maxChar: maxChar,
		toks:    params.Tokenize,
	}, nil
}

// Render builds the caption for one annotation.
// Characters are processed in JSON array order, up to MaxCharacters. Attribute
// values holding the "None" sentinel are dropped. Values are not sanitized for
// reserved token characters; an attribute value containing "</emo>" will
// corrupt the caption. Our annotation pipeline never produces such values.
func (r *Renderer) Render(ann *annotation.Annotation) (string, error) {
	var segments []string

	characters := ann.Characters
	if len(characters) > r.maxChar {
		characters = characters[:r.maxChar]
	}

	for _, c := range characters {
		var parts []string
		for _, k := range r.keys {
			if k == annotation.KeyCoordinates {
				if c.Coordinates != nil {
					parts = append(parts, r.renderCoordinates(*c.Coordinates))
				}
				continue
			}
			if value, ok := c.Attr(k); ok && !annotation.IsSentinel(value) {
				parts = append(parts, r.renderValue(k, value))
			}
		}
		if len(parts) != 0 {
			segments = append(segments, strings.Join(parts, " "))
		}
	}

	// Scene-level attributes come after all character segments, in a fixed order
	for _, k := range annotation.SceneKeys {
		if !r.hasKey(k) {
			continue
		}
		value, err := r.sceneValue(ann, k)
		if err != nil {
			return "", err
		}
		segments = append(segments, r.renderValue(k, value))
	}

	return strings.Join(segments, " "), nil
}

func (r *Renderer) hasKey(k annotation.Key) bool {
	for _, c := range r.keys {
		if c == k {
			return true
		}
	}
	return false
}

func (r *Renderer) renderValue(k annotation.Key, value string) string {
	if !r.toks {
		return fmt.Sprintf("%v: %v", string(k), value)
	}
	open, _ := vocab.AttributeToken(k)
	return open + value + vocab.CloseToken(open)
}

// renderCoordinates quantizes a normalized box into four location tokens.
// The box is not wrapped in <od> tags: location tokens are unambiguous on
// their own, and the decoder's box parser expects them bare.
func (r *Renderer) renderCoordinates(b annotation.Box) string {
	if !r.toks {
		return fmt.Sprintf("%v: [%.3f, %.3f, %.3f, %.3f]", string(annotation.KeyCoordinates), b[0], b[1], b[2], b[3])
	}
	s := strings.Builder{}
	for _, v := range b {
		s.WriteString(vocab.LocationToken(v))
	}
	return s.String()
}

func (r *Renderer) sceneValue(ann *annotation.Annotation, k annotation.Key) (string, error) {
	switch k {
	case annotation.KeyGeneralDescription:
		return ann.GeneralDescription, nil
	case annotation.KeyHashtags:
		tags, err := ann.HashtagList()
		if err != nil {
			return "", err
		}
		return strings.Join(tags, ", "), nil
	case annotation.KeyImageRankingScore:
		return fmt.Sprintf("%d", int(ann.ImageRankingScore)), nil
	}
	return "", fmt.Errorf("Unknown scene key '%v'", k)
}
