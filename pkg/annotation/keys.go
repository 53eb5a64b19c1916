package annotation

import "fmt"

// Key identifies one attribute that can be rendered into a caption.
type Key string

const (
	KeyCoordinates        Key = "character_coordinates"
	KeyEmotion            Key = "emotion"
	KeyPose               Key = "pose"
	KeyJerseyColor        Key = "jersey_color"
	KeyJerseyNumber       Key = "jersey_number"
	KeyJerseyName         Key = "jersey_name"
	KeyTeamName           Key = "team_name"
	KeyGeneralDescription Key = "general_description"
	KeyHashtags           Key = "hashtags"
	KeyImageRankingScore  Key = "image_ranking_score"
)

// CharacterKeys are the attributes that exist per character.
var CharacterKeys = []Key{
	KeyCoordinates,
	KeyEmotion,
	KeyPose,
	KeyJerseyColor,
	KeyJerseyNumber,
	KeyJerseyName,
	KeyTeamName,
}

// SceneKeys are the attributes that exist once per image.
var SceneKeys = []Key{
	KeyGeneralDescription,
	KeyHashtags,
	KeyImageRankingScore,
}

// IsCharacterKey returns true if k is a per-character attribute.
func (k Key) IsCharacterKey() bool {
	for _, c := range CharacterKeys {
		if c == k {
			return true
		}
	}
	return false
}

// IsSceneKey returns true if k is a per-image attribute.
func (k Key) IsSceneKey() bool {
	for _, s := range SceneKeys {
		if s == k {
			return true
		}
	}
	return false
}

// ValidateKeys checks that every key names a known attribute.
func ValidateKeys(keys []Key) error {
	for _, k := range keys {
		if !k.IsCharacterKey() && !k.IsSceneKey() {
			return fmt.Errorf("Unknown caption key '%v'", k)
		}
	}
	return nil
}

// Attr returns the value of a per-character string attribute.
// The second return value is false if k is not a per-character string attribute
// (coordinates are handled separately, because they are not free text).
func (c *Character) Attr(k Key) (string, bool) {
	switch k {
	case KeyEmotion:
		return c.Emotion, true
	case KeyPose:
		return c.Pose, true
	case KeyJerseyColor:
		return c.JerseyColor, true
	case KeyJerseyNumber:
		return c.JerseyNumber, true
	case KeyJerseyName:
		return c.JerseyName, true
	case KeyTeamName:
		return c.TeamName, true
	}
	return "", false
}
