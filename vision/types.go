// vision/types.go
package vision

// AssetType identifies a class of stored crop asset
type AssetType string

const (
	AssetTypeUnknownFace   AssetType = "unknown_face"
	AssetTypeCropThumbnail AssetType = "crop_thumbnail"
)

// Point2D is a pixel coordinate in image space
type Point2D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Landmark indices within the fixed five-point layout. The order is a
// contract with the detector output, never inferred from geometry.
const (
	LandmarkLeftEye = iota
	LandmarkRightEye
	LandmarkNose
	LandmarkLeftMouth
	LandmarkRightMouth
	LandmarkCount
)

// Landmarks holds the five facial keypoints in contract order
type Landmarks [LandmarkCount]Point2D

// DetectedFace is one detection instance produced by the face detector
type DetectedFace struct {
	Box       BoundingBox `json:"box"`
	Landmarks Landmarks   `json:"landmarks"`
	Score     float64     `json:"score"`
}

// QualityReport captures the fitness of an aligned crop. A crop is usable
// only when all three checks pass.
type QualityReport struct {
	Sharpness  float64 `json:"sharpness"`
	Brightness float64 `json:"brightness"`
	Contrast   float64 `json:"contrast"`

	Sharp       bool `json:"sharp"`
	WellLit     bool `json:"well_lit"`
	HasContrast bool `json:"has_contrast"`
}

// Pass reports whether the crop cleared every check
func (q QualityReport) Pass() bool {
	return q.Sharp && q.WellLit && q.HasContrast
}

// PoseAngles are estimated head rotation angles in degrees
type PoseAngles struct {
	Yaw   float64 `json:"yaw"`
	Pitch float64 `json:"pitch"`
	Roll  float64 `json:"roll"`
}
