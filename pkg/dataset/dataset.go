package dataset

// Package dataset pairs images with their JSON annotation files, partitions
// the pairs into train/validation/test splits, and serves (image, caption)
// samples for fine-tuning.

import (
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmharper/cimg/v2"
	"github.com/cyclopcam/logs"
	"github.com/playsight/capset/pkg/annotation"
	"github.com/playsight/capset/pkg/caption"
)

// Split is one of the dataset partitions.
type Split string

const (
	Train      Split = "train"
	Validation Split = "validation"
	Test       Split = "test"
)

// DefaultSeed is the shuffle seed used when Options.Seed is zero, so repeated
// runs assign the same files to the same splits.
const DefaultSeed = 42

// DefaultPercentages is the [train, validation, test] partition of the pair list.
var DefaultPercentages = [3]float64{0.8, 0.1, 0.1}

var imageExtensions = []string{".png", ".jpg", ".jpeg"}

// Options configure a Dataset.
type Options struct {
	Split          Split
	ImagesDir      string
	AnnotationsDir string
	Caption        caption.Params
	Percentages    [3]float64 // [train, validation, test], must sum to 1. Zero value means DefaultPercentages.
	Seed           int64      // Shuffle seed. 0 means DefaultSeed.
}

// Sample is one (image, caption) pair.
// The caption is rendered once at construction; the image is decoded on fetch.
type Sample struct {
	ImagePath      string
	AnnotationPath string
	ImageID        int64
	Caption        string
}

// Dataset serves the samples of one split.
// After construction a Dataset is read-only: fetches are independent and are
// safe to issue from multiple goroutines.
type Dataset struct {
	log     logs.Log
	split   Split
	samples []Sample
}

// New enumerates image/annotation pairs, assigns this split's share, and
// renders all captions.
// An image without a matching annotation file is dropped with a warning.
// A malformed annotation drops its sample with an error log rather than
// failing construction: one bad file out of tens of thousands should not
// block a training run.
func New(log logs.Log, opts Options) (*Dataset, error) {
	if opts.Split != Train && opts.Split != Validation && opts.Split != Test {
		return nil, fmt.Errorf("Invalid split '%v'", opts.Split)
	}
	percentages := opts.Percentages
	if percentages == [3]float64{} {
		percentages = DefaultPercentages
	}
	sum := percentages[0] + percentages[1] + percentages[2]
	if sum < 1-1e-6 || sum > 1+1e-6 {
		return nil, fmt.Errorf("Split percentages %v must sum to 1", percentages)
	}
	seed := opts.Seed
	if seed == 0 {
		seed = DefaultSeed
	}

	renderer, err := caption.NewRenderer(opts.Caption)
	if err != nil {
		return nil, err
	}

	pairs, err := enumeratePairs(log, opts.ImagesDir, opts.AnnotationsDir)
	if err != nil {
		return nil, err
	}
	pairs = assignSplit(pairs, opts.Split, percentages, seed)

	d := &Dataset{
		log:   log,
		split: opts.Split,
	}
	for _, p := range pairs {
		ann, err := annotation.Load(p.annotationPath)
		if err != nil {
			log.Errorf("Skipping %v: %v", p.annotationPath, err)
			continue
		}
		text, err := renderer.Render(ann)
		if err != nil {
			log.Errorf("Skipping %v: %v", p.annotationPath, err)
			continue
		}
		d.samples = append(d.samples, Sample{
			ImagePath:      p.imagePath,
			AnnotationPath: p.annotationPath,
			ImageID:        ann.ImageID,
			Caption:        text,
		})
	}
	log.Infof("Dataset split '%v': %v samples", opts.Split, len(d.samples))
	return d, nil
}

// Split returns the split this dataset serves.
func (d *Dataset) Split() Split {
	return d.split
}

// Len returns the number of samples in this split.
func (d *Dataset) Len() int {
	return len(d.samples)
}

// Samples returns the sample list. Callers must not modify it.
func (d *Dataset) Samples() []Sample {
	return d.samples
}

// At decodes the image of sample i and returns it with the caption.
func (d *Dataset) At(i int) (*cimg.Image, string, error) {
	if i < 0 || i >= len(d.samples) {
		return nil, "", fmt.Errorf("Sample index %v out of range [0, %v)", i, len(d.samples))
	}
	s := d.samples[i]
	img, err := cimg.ReadFile(s.ImagePath)
	if err != nil {
		return nil, "", fmt.Errorf("Failed to decode image %v: %w", s.ImagePath, err)
	}
	return img, s.Caption, nil
}

type pair struct {
	imagePath      string
	annotationPath string
}

// enumeratePairs lists image files and keeps those with a matching
// "<base>.json" annotation. os.ReadDir returns entries sorted by filename, so
// the pair list is deterministic.
func enumeratePairs(log logs.Log, imagesDir, annotationsDir string) ([]pair, error) {
	entries, err := os.ReadDir(imagesDir)
	if err != nil {
		return nil, fmt.Errorf("Failed to list images in %v: %w", imagesDir, err)
	}
	var pairs []pair
	for _, e := range entries {
		if e.IsDir() || !isImageFile(e.Name()) {
			continue
		}
		base := strings.TrimSuffix(e.Name(), filepath.Ext(e.Name()))
		annotationPath := filepath.Join(annotationsDir, base+".json")
		if _, err := os.Stat(annotationPath); err != nil {
			log.Warnf("No annotation file for image %v", e.Name())
			continue
		}
		pairs = append(pairs, pair{
			imagePath:      filepath.Join(imagesDir, e.Name()),
			annotationPath: annotationPath,
		})
	}
	return pairs, nil
}

func isImageFile(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, e := range imageExtensions {
		if ext == e {
			return true
		}
	}
	return false
}

// assignSplit shuffles the pair list with a seeded generator and takes this
// split's contiguous share. The shuffle decorrelates splits from filename
// order (annotation batches often arrive sorted by game), while staying stable
// across repeated construction with the same inputs.
func assignSplit(pairs []pair, split Split, percentages [3]float64, seed int64) []pair {
	rng := rand.New(rand.NewSource(seed))
	rng.Shuffle(len(pairs), func(i, j int) {
		pairs[i], pairs[j] = pairs[j], pairs[i]
	})
	trainLen := int(float64(len(pairs)) * percentages[0])
	validationLen := int(float64(len(pairs)) * percentages[1])
	switch split {
	case Train:
		return pairs[:trainLen]
	case Validation:
		return pairs[trainLen : trainLen+validationLen]
	default:
		return pairs[trainLen+validationLen:]
	}
}
