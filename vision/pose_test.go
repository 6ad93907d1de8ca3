package vision

import (
	"math"
	"testing"
)

// frontalLandmarks is a symmetric face with the nose halfway between the
// eye line and the mouth line, centered in a 640x480 image
func frontalLandmarks() Landmarks {
	return Landmarks{
		LandmarkLeftEye:    {X: 280, Y: 200},
		LandmarkRightEye:   {X: 360, Y: 200},
		LandmarkNose:       {X: 320, Y: 240},
		LandmarkLeftMouth:  {X: 290, Y: 280},
		LandmarkRightMouth: {X: 350, Y: 280},
	}
}

func TestEstimateHeadPoseFrontal(t *testing.T) {
	pose := EstimateHeadPose(frontalLandmarks(), 640, 480)

	if math.Abs(pose.Yaw) > 1e-9 {
		t.Errorf("frontal face yaw = %v, want 0", pose.Yaw)
	}
	if math.Abs(pose.Pitch) > 1e-9 {
		t.Errorf("frontal face pitch = %v, want 0", pose.Pitch)
	}
	if math.Abs(pose.Roll) > 1e-9 {
		t.Errorf("level eyes roll = %v, want 0", pose.Roll)
	}
}

func TestEstimateHeadPoseYaw(t *testing.T) {
	tests := []struct {
		name    string
		noseX   float64
		wantPos bool
	}{
		{"nose right of eye center", 384, true},
		{"nose left of eye center", 256, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lm := frontalLandmarks()
			lm[LandmarkNose].X = tt.noseX
			pose := EstimateHeadPose(lm, 640, 480)
			if tt.wantPos && pose.Yaw <= 0 {
				t.Errorf("yaw = %v, want positive", pose.Yaw)
			}
			if !tt.wantPos && pose.Yaw >= 0 {
				t.Errorf("yaw = %v, want negative", pose.Yaw)
			}
		})
	}

	// nose offset of 64px in a 640px image: 64/320*50 = 10 degrees
	lm := frontalLandmarks()
	lm[LandmarkNose].X = 384
	pose := EstimateHeadPose(lm, 640, 480)
	if math.Abs(pose.Yaw-10) > 1e-9 {
		t.Errorf("yaw = %v, want 10", pose.Yaw)
	}
}

func TestEstimateHeadPosePitch(t *testing.T) {
	// nose dropped to the mouth line: ratio 1.0, pitch (1.0-0.5)*60 = 30
	lm := frontalLandmarks()
	lm[LandmarkNose].Y = 280
	pose := EstimateHeadPose(lm, 640, 480)
	if math.Abs(pose.Pitch-30) > 1e-9 {
		t.Errorf("pitch = %v, want 30", pose.Pitch)
	}

	// nose on the eye line: ratio 0, pitch -30
	lm = frontalLandmarks()
	lm[LandmarkNose].Y = 200
	pose = EstimateHeadPose(lm, 640, 480)
	if math.Abs(pose.Pitch+30) > 1e-9 {
		t.Errorf("pitch = %v, want -30", pose.Pitch)
	}
}

func TestEstimateHeadPoseDegenerate(t *testing.T) {
	// eyes and mouth on the same line: pitch falls back to 0 instead of
	// dividing by zero
	lm := Landmarks{
		LandmarkLeftEye:    {X: 280, Y: 200},
		LandmarkRightEye:   {X: 360, Y: 200},
		LandmarkNose:       {X: 320, Y: 200},
		LandmarkLeftMouth:  {X: 290, Y: 200},
		LandmarkRightMouth: {X: 350, Y: 200},
	}
	pose := EstimateHeadPose(lm, 640, 480)
	if pose.Pitch != 0 {
		t.Errorf("degenerate geometry pitch = %v, want 0", pose.Pitch)
	}

	// zero-width image: yaw falls back to 0
	pose = EstimateHeadPose(frontalLandmarks(), 0, 480)
	if pose.Yaw != 0 {
		t.Errorf("zero-width image yaw = %v, want 0", pose.Yaw)
	}
}

func TestEyeAngle(t *testing.T) {
	lm := frontalLandmarks()
	lm[LandmarkRightEye].Y = 280 // right eye 80px lower over 80px horizontal
	angle := EyeAngle(lm)
	if math.Abs(angle-45) > 1e-9 {
		t.Errorf("eye angle = %v, want 45", angle)
	}

	// vertical eye line yields 0 rather than an undefined slope
	lm = frontalLandmarks()
	lm[LandmarkRightEye].X = lm[LandmarkLeftEye].X
	if got := EyeAngle(lm); got != 0 {
		t.Errorf("vertical eye line angle = %v, want 0", got)
	}
}
