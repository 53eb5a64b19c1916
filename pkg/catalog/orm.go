package catalog

import (
	"github.com/cyclopcam/dbh"
)

// BaseModel is our base class for a GORM model.
// The default GORM Model uses int, but we prefer int64
type BaseModel struct {
	ID int64 `gorm:"primaryKey" json:"id"`
}

// ImageRecord is the catalog entry of one annotated image.
// Base is the filename shared by the image and its annotation file.
// ImagePath is empty if no image file was found for the annotation.
// AttrCoverage counts, per attribute key, how many characters carry a real
// (non sentinel) value.
type ImageRecord struct {
	BaseModel
	ImageID        int64                          `json:"imageID"`
	Base           string                         `json:"base"`
	ImagePath      string                         `json:"imagePath"`
	AnnotationPath string                         `json:"annotationPath"`
	Width          int                            `json:"width"`
	Height         int                            `json:"height"`
	RankingScore   float64                        `json:"rankingScore"`
	CharacterCount int                            `json:"characterCount"`
	PlayerCount    int                            `json:"playerCount"`
	Hashtags       *dbh.JSONField[[]string]       `json:"hashtags"`
	AttrCoverage   *dbh.JSONField[map[string]int] `json:"attrCoverage"`
	SourceURL      string                         `json:"sourceURL"`
	ScannedAt      dbh.IntTime                    `json:"scannedAt"`
}
