package annotation

// Box is a normalized bounding box [x1, y1, x2, y2], with all values in [0,1],
// relative to the image dimensions.
type Box [4]float64

func (b Box) X1() float64 { return b[0] }
func (b Box) Y1() float64 { return b[1] }
func (b Box) X2() float64 { return b[2] }
func (b Box) Y2() float64 { return b[3] }

func (b Box) Width() float64 {
	return b[2] - b[0]
}

func (b Box) Height() float64 {
	return b[3] - b[1]
}

func (b Box) Area() float64 {
	return b.Width() * b.Height()
}

func (b Box) Intersection(o Box) Box {
	x1 := max(b[0], o[0])
	y1 := max(b[1], o[1])
	x2 := min(b[2], o[2])
	y2 := min(b[3], o[3])
	return Box{x1, y1, max(x1, x2), max(y1, y2)}
}

// Intersection over Union
func (b Box) IOU(o Box) float64 {
	intersection := b.Intersection(o).Area()
	union := b.Area() + o.Area() - intersection
	if union <= 0 {
		return 0
	}
	return intersection / union
}

// Valid returns true if the box is inside the unit square and not inverted.
func (b Box) Valid() bool {
	for _, v := range b {
		if v < 0 || v > 1 {
			return false
		}
	}
	return b[0] <= b[2] && b[1] <= b[3]
}
