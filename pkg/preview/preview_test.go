package preview

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/bmharper/cimg/v2"
	"github.com/playsight/capset/pkg/annotation"
	"github.com/stretchr/testify/require"
)

func TestRender(t *testing.T) {
	dir := t.TempDir()
	imagePath := filepath.Join(dir, "frame.jpg")
	img := cimg.NewImage(64, 48, cimg.PixelFormatRGB)
	raw, err := cimg.Compress(img, cimg.MakeCompressParams(cimg.Sampling420, 90, 0))
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(imagePath, raw, 0644))

	box := annotation.Box{0.1, 0.1, 0.6, 0.9}
	ann := &annotation.Annotation{
		Characters: []*annotation.Character{
			{Index: 0, Coordinates: &box, Emotion: "Focused", Pose: "Skating", IsPlayer: "YES"},
			{Index: 1, Emotion: "Bored"}, // No box, not drawn
		},
	}

	outputPath := filepath.Join(dir, "preview.png")
	keys := []annotation.Key{annotation.KeyEmotion, annotation.KeyPose}
	require.NoError(t, Render(imagePath, ann, keys, outputPath))

	out, err := cimg.ReadFile(outputPath)
	require.NoError(t, err)
	require.Equal(t, 64, out.Width)
	require.Equal(t, 48, out.Height)

	require.Error(t, Render(imagePath, ann, []annotation.Key{annotation.Key("shoe_size")}, outputPath))
	require.Error(t, Render(filepath.Join(dir, "missing.jpg"), ann, keys, outputPath))
}

func TestCharacterLabel(t *testing.T) {
	c := &annotation.Character{Emotion: "Focused", Pose: "None", TeamName: "Ice Hawks"}
	keys := []annotation.Key{annotation.KeyEmotion, annotation.KeyPose, annotation.KeyTeamName, annotation.KeyCoordinates}
	require.Equal(t, "Focused / Ice Hawks", characterLabel(c, keys))
	require.Equal(t, "", characterLabel(&annotation.Character{}, keys))
}
