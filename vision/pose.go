package vision

import "math"

// EstimateHeadPose derives approximate head rotation angles from the five
// facial landmarks of a detection, using ratio heuristics over the landmark
// geometry.
//
// Yaw follows the horizontal offset of the nose from the eye midpoint,
// normalized by half the image width. Pitch follows the nose's vertical
// position between the eye line and the mouth line. Roll is the eye-line
// angle. The angles are approximate degrees, tuned for range validation
// rather than metric accuracy.
func EstimateHeadPose(landmarks Landmarks, imgWidth, imgHeight int) PoseAngles {
	leftEye := landmarks[LandmarkLeftEye]
	rightEye := landmarks[LandmarkRightEye]
	nose := landmarks[LandmarkNose]
	leftMouth := landmarks[LandmarkLeftMouth]
	rightMouth := landmarks[LandmarkRightMouth]

	// yaw: horizontal nose offset relative to the eye midpoint
	eyeCenterX := (leftEye.X + rightEye.X) / 2
	yaw := 0.0
	if imgWidth > 0 {
		yaw = (nose.X - eyeCenterX) / (float64(imgWidth) / 2) * 50
	}

	// pitch: vertical nose position between the eye line and the mouth line.
	// Looking straight puts the nose roughly halfway; tilting down moves it
	// toward the mouth.
	eyeCenterY := (leftEye.Y + rightEye.Y) / 2
	mouthCenterY := (leftMouth.Y + rightMouth.Y) / 2
	pitch := 0.0
	if expected := math.Abs(mouthCenterY - eyeCenterY); expected > 0 {
		ratio := math.Abs(nose.Y-eyeCenterY) / expected
		pitch = (ratio - 0.5) * 60
	}

	roll := EyeAngle(landmarks)

	return PoseAngles{Yaw: yaw, Pitch: pitch, Roll: roll}
}
