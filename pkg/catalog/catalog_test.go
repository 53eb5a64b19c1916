package catalog

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/cyclopcam/logs"
	"github.com/stretchr/testify/require"
)

func annotationJSON(id int, score float64, emotion string) string {
	return fmt.Sprintf(`{
		"general_description": "players in front of the net",
		"image_size": [1280, 720],
		"number_of_characters": 2,
		"hashtags": "['#hockey']",
		"image_ranking_score": %v,
		"original_image_url": "https://example.com/%v.jpg",
		"image_id": %v,
		"characters": [
			{
				"character": 0,
				"character_coordinates": [0.1, 0.1, 0.5, 0.9],
				"emotion": "%v",
				"pose": "Skating",
				"jersey_color": "Red",
				"jersey_number": "None",
				"jersey_name": "None",
				"team_name": "None",
				"is_player": "YES"
			},
			{
				"character": 1,
				"character_coordinates": null,
				"emotion": "None",
				"pose": "None",
				"jersey_color": "None",
				"jersey_number": "None",
				"jersey_name": "None",
				"team_name": "None",
				"is_player": "NO"
			}
		]
	}`, score, id, id, emotion)
}

func setup(t *testing.T) (*Catalog, string, string) {
	t.Helper()
	root := t.TempDir()
	imagesDir := filepath.Join(root, "images")
	annotationsDir := filepath.Join(root, "annotations")
	require.NoError(t, os.Mkdir(imagesDir, 0755))
	require.NoError(t, os.Mkdir(annotationsDir, 0755))

	for i := 0; i < 3; i++ {
		content := annotationJSON(i, float64(i)+0.5, "Focused")
		require.NoError(t, os.WriteFile(filepath.Join(annotationsDir, fmt.Sprintf("%v.json", i)), []byte(content), 0644))
	}
	// Image files exist for 0 and 1, annotation 2 is an orphan
	require.NoError(t, os.WriteFile(filepath.Join(imagesDir, "0.jpg"), []byte("x"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(imagesDir, "1.png"), []byte("x"), 0644))

	c, err := Open(logs.NewTestingLog(t), filepath.Join(root, "catalog.sqlite"))
	require.NoError(t, err)
	return c, imagesDir, annotationsDir
}

func TestRebuild(t *testing.T) {
	c, imagesDir, annotationsDir := setup(t)

	n, err := c.Rebuild(imagesDir, annotationsDir)
	require.NoError(t, err)
	require.Equal(t, 3, n)

	count, err := c.Count()
	require.NoError(t, err)
	require.Equal(t, int64(3), count)

	r, err := c.Get("1")
	require.NoError(t, err)
	require.Equal(t, int64(1), r.ImageID)
	require.Equal(t, filepath.Join(imagesDir, "1.png"), r.ImagePath)
	require.Equal(t, 1280, r.Width)
	require.Equal(t, 2, r.CharacterCount)
	require.Equal(t, 1, r.PlayerCount)
	require.Equal(t, []string{"#hockey"}, r.Hashtags.Data)
	require.Equal(t, 1, r.AttrCoverage.Data["emotion"])
	require.Equal(t, 1, r.AttrCoverage.Data["character_coordinates"])
	require.Zero(t, r.AttrCoverage.Data["jersey_number"])
	require.False(t, r.ScannedAt.IsZero())

	r, err = c.Get("2")
	require.NoError(t, err)
	require.Equal(t, "", r.ImagePath)

	// Rebuild replaces, not accumulates
	n, err = c.Rebuild(imagesDir, annotationsDir)
	require.NoError(t, err)
	require.Equal(t, 3, n)
	count, err = c.Count()
	require.NoError(t, err)
	require.Equal(t, int64(3), count)
}

func TestRebuildSkipsMalformed(t *testing.T) {
	c, imagesDir, annotationsDir := setup(t)
	require.NoError(t, os.WriteFile(filepath.Join(annotationsDir, "bad.json"), []byte("{nope"), 0644))

	n, err := c.Rebuild(imagesDir, annotationsDir)
	require.NoError(t, err)
	require.Equal(t, 3, n)
}

func TestTopRanked(t *testing.T) {
	c, imagesDir, annotationsDir := setup(t)
	_, err := c.Rebuild(imagesDir, annotationsDir)
	require.NoError(t, err)

	top, err := c.TopRanked(2)
	require.NoError(t, err)
	require.Len(t, top, 2)
	require.Equal(t, int64(2), top[0].ImageID)
	require.Equal(t, int64(1), top[1].ImageID)
}

func TestComputeStats(t *testing.T) {
	c, imagesDir, annotationsDir := setup(t)
	_, err := c.Rebuild(imagesDir, annotationsDir)
	require.NoError(t, err)

	stats, err := c.ComputeStats()
	require.NoError(t, err)
	require.Equal(t, int64(3), stats.Images)
	require.Equal(t, int64(1), stats.MissingImages)
	require.Equal(t, int64(6), stats.Characters)
	require.Equal(t, int64(3), stats.Players)
	require.Equal(t, 3, stats.AttrCoverage["emotion"])
	require.Equal(t, 3, stats.AttrCoverage["pose"])
	require.Zero(t, stats.AttrCoverage["team_name"])
}
