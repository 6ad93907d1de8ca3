package vision

// BoundingBox is an axis-aligned face location in image pixels.
// Invariant after Clip: 0 <= X1 < X2 <= imgW and 0 <= Y1 < Y2 <= imgH.
type BoundingBox struct {
	X1 float64 `json:"x1"`
	Y1 float64 `json:"y1"`
	X2 float64 `json:"x2"`
	Y2 float64 `json:"y2"`
}

// Width returns the horizontal extent of the box
func (b BoundingBox) Width() float64 {
	return b.X2 - b.X1
}

// Height returns the vertical extent of the box
func (b BoundingBox) Height() float64 {
	return b.Y2 - b.Y1
}

// Area returns the box area, 0 for degenerate boxes
func (b BoundingBox) Area() float64 {
	if b.X2 <= b.X1 || b.Y2 <= b.Y1 {
		return 0
	}
	return (b.X2 - b.X1) * (b.Y2 - b.Y1)
}

// Clip clamps the box to image bounds
func (b BoundingBox) Clip(imgWidth, imgHeight float64) BoundingBox {
	return BoundingBox{
		X1: max(0, b.X1),
		Y1: max(0, b.Y1),
		X2: min(imgWidth, b.X2),
		Y2: min(imgHeight, b.Y2),
	}
}

// Valid reports whether the box has positive extent
func (b BoundingBox) Valid() bool {
	return b.X2 > b.X1 && b.Y2 > b.Y1
}

// IoU computes the Intersection over Union of two boxes. Boxes whose union
// area is zero yield 0 rather than dividing by zero.
func IoU(a, b BoundingBox) float64 {
	interX1 := max(a.X1, b.X1)
	interY1 := max(a.Y1, b.Y1)
	interX2 := min(a.X2, b.X2)
	interY2 := min(a.Y2, b.Y2)

	interW := max(0, interX2-interX1)
	interH := max(0, interY2-interY1)
	intersection := interW * interH

	union := a.Area() + b.Area() - intersection
	if union == 0 {
		return 0
	}
	return intersection / union
}
