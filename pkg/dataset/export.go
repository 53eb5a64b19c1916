package dataset

import (
	"archive/zip"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Manifest describes an exported split archive.
type Manifest struct {
	Split        Split    `json:"split"`
	SampleCount  int      `json:"sampleCount"`
	CaptionKeys  []string `json:"captionKeys"`
	Tokenize     bool     `json:"tokenize"`
	TaskName     string   `json:"taskName,omitempty"`
	TaskPrompt   string   `json:"taskPrompt,omitempty"`
	VocabVersion int      `json:"vocabVersion,omitempty"`
}

// Export writes the split as a zip archive:
//
//	images/<base>.<ext>
//	captions/<base>.txt
//	manifest.json
//
// The manifest's CaptionKeys/Tokenize/TaskName/TaskPrompt/VocabVersion fields
// are taken from the argument, since the dataset itself only retains rendered
// strings.
func (d *Dataset) Export(w io.Writer, manifest Manifest) error {
	manifest.Split = d.split
	manifest.SampleCount = len(d.samples)

	zipWriter := zip.NewWriter(w)

	for _, s := range d.samples {
		name := filepath.Base(s.ImagePath)
		imageZ, err := zipWriter.Create("images/" + name)
		if err != nil {
			return err
		}
		if err := copyFile(imageZ, s.ImagePath); err != nil {
			return err
		}

		base := strings.TrimSuffix(name, filepath.Ext(name))
		captionZ, err := zipWriter.Create("captions/" + base + ".txt")
		if err != nil {
			return err
		}
		if _, err := io.WriteString(captionZ, s.Caption); err != nil {
			return err
		}
	}

	manifestZ, err := zipWriter.Create("manifest.json")
	if err != nil {
		return err
	}
	if err := json.NewEncoder(manifestZ).Encode(&manifest); err != nil {
		return err
	}

	if err := zipWriter.Close(); err != nil {
		return fmt.Errorf("Failed to finalize archive: %w", err)
	}
	return nil
}

func copyFile(dst io.Writer, src string) error {
	file, err := os.Open(src)
	if err != nil {
		return err
	}
	defer file.Close()
	_, err = io.Copy(dst, file)
	return err
}
