package catalog

// Package catalog maintains a SQLite index of the annotation corpus, so the
// CLI can answer questions like "which images rank highest" and "how well is
// each attribute covered" without rescanning thousands of JSON files.

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cyclopcam/dbh"
	"github.com/cyclopcam/logs"
	"github.com/playsight/capset/pkg/annotation"
	"gorm.io/gorm"
)

var imageExtensions = []string{".png", ".jpg", ".jpeg"}

// Catalog is the annotation index.
type Catalog struct {
	log logs.Log
	db  *gorm.DB
}

// Open opens or creates the catalog database at filename.
func Open(log logs.Log, filename string) (*Catalog, error) {
	db, err := dbh.OpenDB(log, dbh.MakeSqliteConfig(filename), Migrations(log), 0)
	if err != nil {
		return nil, fmt.Errorf("Failed to open catalog database %v: %w", filename, err)
	}
	return &Catalog{
		log: log,
		db:  db,
	}, nil
}

// Rebuild erases the catalog and rescans the annotation directory.
// Returns the number of annotations indexed. Malformed annotation files are
// skipped with an error log.
func (c *Catalog) Rebuild(imagesDir, annotationsDir string) (int, error) {
	entries, err := os.ReadDir(annotationsDir)
	if err != nil {
		return 0, fmt.Errorf("Failed to list annotations in %v: %w", annotationsDir, err)
	}

	if err := c.db.Exec("DELETE FROM image_record").Error; err != nil {
		return 0, err
	}

	now := dbh.MakeIntTime(time.Now())
	indexed := 0
	for _, e := range entries {
		if e.IsDir() || strings.ToLower(filepath.Ext(e.Name())) != ".json" {
			continue
		}
		annotationPath := filepath.Join(annotationsDir, e.Name())
		ann, err := annotation.Load(annotationPath)
		if err != nil {
			c.log.Errorf("Skipping %v: %v", annotationPath, err)
			continue
		}
		base := strings.TrimSuffix(e.Name(), ".json")
		record := buildRecord(ann, base, findImage(imagesDir, base), annotationPath)
		record.ScannedAt = now
		if err := c.db.Create(record).Error; err != nil {
			return indexed, err
		}
		indexed++
	}
	c.log.Infof("Catalog rebuilt: %v annotations indexed", indexed)
	return indexed, nil
}

func buildRecord(ann *annotation.Annotation, base, imagePath, annotationPath string) *ImageRecord {
	coverage := map[string]int{}
	players := 0
	for _, ch := range ann.Characters {
		if ch.Player() {
			players++
		}
		for _, k := range annotation.CharacterKeys {
			if k == annotation.KeyCoordinates {
				if ch.Coordinates != nil {
					coverage[string(k)]++
				}
				continue
			}
			if v, ok := ch.Attr(k); ok && !annotation.IsSentinel(v) {
				coverage[string(k)]++
			}
		}
	}
	tags, err := ann.HashtagList()
	if err != nil {
		// Hashtags are informational in the catalog, so a bad literal doesn't
		// disqualify the record
		tags = nil
	}
	return &ImageRecord{
		ImageID:        ann.ImageID,
		Base:           base,
		ImagePath:      imagePath,
		AnnotationPath: annotationPath,
		Width:          ann.ImageSize[0],
		Height:         ann.ImageSize[1],
		RankingScore:   ann.ImageRankingScore,
		CharacterCount: len(ann.Characters),
		PlayerCount:    players,
		Hashtags:       dbh.MakeJSONField(tags),
		AttrCoverage:   dbh.MakeJSONField(coverage),
		SourceURL:      ann.OriginalImageURL,
	}
}

func findImage(imagesDir, base string) string {
	for _, ext := range imageExtensions {
		p := filepath.Join(imagesDir, base+ext)
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// Count returns the number of indexed annotations.
func (c *Catalog) Count() (int64, error) {
	var n int64
	err := c.db.Model(&ImageRecord{}).Count(&n).Error
	return n, err
}

// TopRanked returns the n highest ranked images.
func (c *Catalog) TopRanked(n int) ([]ImageRecord, error) {
	var records []ImageRecord
	err := c.db.Order("ranking_score DESC").Limit(n).Find(&records).Error
	return records, err
}

// Get returns the record with the given base filename.
func (c *Catalog) Get(base string) (*ImageRecord, error) {
	record := &ImageRecord{}
	if err := c.db.First(record, "base = ?", base).Error; err != nil {
		return nil, err
	}
	return record, nil
}

// Stats summarizes the catalog.
type Stats struct {
	Images        int64          `json:"images"`
	MissingImages int64          `json:"missingImages"` // Annotations without an image file
	Characters    int64          `json:"characters"`
	Players       int64          `json:"players"`
	AttrCoverage  map[string]int `json:"attrCoverage"` // Characters with a real value, per attribute key
}

// ComputeStats aggregates the catalog.
func (c *Catalog) ComputeStats() (*Stats, error) {
	stats := &Stats{AttrCoverage: map[string]int{}}
	if err := c.db.Model(&ImageRecord{}).Count(&stats.Images).Error; err != nil {
		return nil, err
	}
	if err := c.db.Model(&ImageRecord{}).Where("image_path = ''").Count(&stats.MissingImages).Error; err != nil {
		return nil, err
	}
	row := c.db.Model(&ImageRecord{}).Select("COALESCE(SUM(character_count), 0), COALESCE(SUM(player_count), 0)").Row()
	if err := row.Scan(&stats.Characters, &stats.Players); err != nil {
		return nil, err
	}

	// Attribute coverage lives in a JSON column, so aggregate it in Go
	var records []ImageRecord
	if err := c.db.Select("attr_coverage").Find(&records).Error; err != nil {
		return nil, err
	}
	for _, r := range records {
		if r.AttrCoverage == nil {
			continue
		}
		for k, n := range r.AttrCoverage.Data {
			stats.AttrCoverage[k] += n
		}
	}
	return stats, nil
}
