package vision

import (
	"fmt"
	"image"
	"math"

	"gocv.io/x/gocv"
)

// FaceAligner rotates and crops a detected face into a canonical orientation
// and size. Alignment uses the two eye landmarks only: the crop is rotated
// about its own center until the eyes are horizontal, center-square cropped,
// then resized to Size x Size.
type FaceAligner struct {
	Size int
}

// NewFaceAligner returns an aligner producing Size x Size canonical crops
func NewFaceAligner(size int) *FaceAligner {
	if size <= 0 {
		size = 128
	}
	return &FaceAligner{Size: size}
}

// EyeAngle computes the rotation of the eye line in degrees. When the eyes
// share an x coordinate the angle is defined as 0.
func EyeAngle(landmarks Landmarks) float64 {
	dy := landmarks[LandmarkRightEye].Y - landmarks[LandmarkLeftEye].Y
	dx := landmarks[LandmarkRightEye].X - landmarks[LandmarkLeftEye].X
	if dx == 0 {
		return 0
	}
	return math.Atan2(dy, dx) * 180 / math.Pi
}

// Align produces the canonical crop for one detected face. The returned
// rotation angle is the eye-line angle that was corrected. The caller owns
// the returned Mat.
func (a *FaceAligner) Align(img gocv.Mat, face DetectedFace) (gocv.Mat, float64, error) {
	crop, err := CropRegion(img, face.Box)
	if err != nil {
		return gocv.Mat{}, 0, fmt.Errorf("alignment crop failed: %w", err)
	}
	defer crop.Close()

	angle := EyeAngle(face.Landmarks)

	center := image.Pt(crop.Cols()/2, crop.Rows()/2)
	rotation := gocv.GetRotationMatrix2D(center, angle, 1.0)
	defer rotation.Close()

	rotated := gocv.NewMat()
	defer rotated.Close()
	gocv.WarpAffineWithParams(crop, &rotated, rotation,
		image.Pt(crop.Cols(), crop.Rows()), gocv.InterpolationCubic, gocv.BorderConstant, gocv.NewScalar(0, 0, 0, 0))
	if rotated.Empty() {
		return gocv.Mat{}, 0, fmt.Errorf("rotation produced empty crop")
	}

	// center square so the resize does not stretch the face
	minDim := min(rotated.Cols(), rotated.Rows())
	startX := (rotated.Cols() - minDim) / 2
	startY := (rotated.Rows() - minDim) / 2
	square := rotated.Region(image.Rect(startX, startY, startX+minDim, startY+minDim))
	defer square.Close()

	canonical := gocv.NewMat()
	gocv.Resize(square, &canonical, image.Pt(a.Size, a.Size), 0, 0, gocv.InterpolationLinear)
	if canonical.Empty() {
		canonical.Close()
		return gocv.Mat{}, 0, fmt.Errorf("resize to canonical %dx%d failed", a.Size, a.Size)
	}

	return canonical, angle, nil
}
