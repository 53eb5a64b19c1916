package annotation

// Package annotation defines the on-disk JSON annotation records that accompany
// each image, and helpers for reading them.

import (
	"encoding/json"
	"fmt"
	"os"
)

// Sentinel is the string an annotation tool writes for an attribute that does
// not apply to a character (eg the pose of a spectator's dog).
const Sentinel = "None"

// Character is one annotated person/object within an image.
// Attribute fields hold Sentinel when the attribute is not applicable.
type Character struct {
	Index        int    `json:"character"`             // Position in the annotation's character list
	Coordinates  *Box   `json:"character_coordinates"` // Normalized [0,1] bounding box, nil if not annotated
	Emotion      string `json:"emotion"`
	Pose         string `json:"pose"`
	JerseyColor  string `json:"jersey_color"`
	JerseyNumber string `json:"jersey_number"`
	JerseyName   string `json:"jersey_name"`
	TeamName     string `json:"team_name"`
	IsPlayer     string `json:"is_player"` // "YES" or "NO"
}

// Annotation is the top-level record, one JSON file per image.
type Annotation struct {
	GeneralDescription string       `json:"general_description"`
	ImageSize          [2]int       `json:"image_size"` // [width, height]
	NumberOfCharacters int          `json:"number_of_characters"`
	Hashtags           string       `json:"hashtags"` // Python-style list literal, eg "['#hockey', '#goal']"
	ImageRankingScore  float64      `json:"image_ranking_score"`
	OriginalImageURL   string       `json:"original_image_url"`
	ImageID            int64        `json:"image_id"`
	Characters         []*Character `json:"characters"`
}

// IsSentinel returns true if the attribute value means "not applicable".
func IsSentinel(v string) bool {
	return v == "" || v == Sentinel
}

// Player returns true if the character was annotated as a player.
func (c *Character) Player() bool {
	return c.IsPlayer == "YES"
}

// Parse decodes an annotation record from JSON.
func Parse(raw []byte) (*Annotation, error) {
	ann := &Annotation{}
	if err := json.Unmarshal(raw, ann); err != nil {
		return nil, err
	}
	return ann, nil
}

// Load reads and decodes the annotation file at filename.
func Load(filename string) (*Annotation, error) {
	raw, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	ann, err := Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("Failed to parse annotation %v: %w", filename, err)
	}
	return ann, nil
}

// HashtagList parses the Hashtags field into individual tags.
func (a *Annotation) HashtagList() ([]string, error) {
	return ParseHashtags(a.Hashtags)
}
