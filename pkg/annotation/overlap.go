package annotation

import (
	flatbush "github.com/bmharper/flatbush-go"
)

// Overlap is a pair of characters whose bounding boxes overlap more than an
// annotation tool would normally produce. The usual cause is the same person
// annotated twice.
type Overlap struct {
	A   int // Index into Annotation.Characters
	B   int // Index into Annotation.Characters. A < B
	IOU float64
}

// FindOverlaps scans all character pairs and returns those whose boxes overlap
// with IOU >= minIOU. Characters without coordinates are ignored.
func (a *Annotation) FindOverlaps(minIOU float64) []Overlap {
	// Spatial index to avoid O(N^2) comparisons on busy scenes
	fb := flatbush.NewFlatbush[float64]()
	fb.Reserve(len(a.Characters))
	boxed := make([]int, 0, len(a.Characters))
	for i, c := range a.Characters {
		if c.Coordinates == nil {
			continue
		}
		b := *c.Coordinates
		fb.Add(b.X1(), b.Y1(), b.X2(), b.Y2())
		boxed = append(boxed, i)
	}
	fb.Finish()

	var overlaps []Overlap
	for fi, i := range boxed {
		b := *a.Characters[i].Coordinates
		// Search returns flatbush item indices, ie positions in 'boxed'
		for _, fj := range fb.Search(b.X1(), b.Y1(), b.X2(), b.Y2()) {
			if fj <= fi {
				continue
			}
			j := boxed[fj]
			iou := b.IOU(*a.Characters[j].Coordinates)
			if iou >= minIOU {
				overlaps = append(overlaps, Overlap{A: i, B: j, IOU: iou})
			}
		}
	}
	return overlaps
}
