package vision

import (
	"gocv.io/x/gocv"
)

// QualityThresholds are the acceptance bounds for an aligned crop
type QualityThresholds struct {
	SharpnessMin  float64 // variance of the Laplacian edge response
	BrightnessMin float64 // mean pixel intensity, lower bound
	BrightnessMax float64 // mean pixel intensity, upper bound
	ContrastMin   float64 // pixel standard deviation
}

// QualityGate rejects blurry, badly lit or flat crops before they reach
// embedding extraction. Bad inputs to the embedding model are worse than
// missing data: they produce misleading embeddings.
type QualityGate struct {
	thresholds QualityThresholds
}

// NewQualityGate builds a gate with the given acceptance bounds
func NewQualityGate(t QualityThresholds) *QualityGate {
	return &QualityGate{thresholds: t}
}

// Check measures sharpness, brightness and contrast of a crop. The report
// passes only when all three checks pass.
func (g *QualityGate) Check(img gocv.Mat) QualityReport {
	if img.Empty() {
		return QualityReport{}
	}

	var gray gocv.Mat
	if img.Channels() == 3 {
		gray = gocv.NewMat()
		gocv.CvtColor(img, &gray, gocv.ColorBGRToGray)
	} else {
		gray = img.Clone()
	}
	defer gray.Close()

	// sharpness: variance of the Laplacian edge response
	laplacian := gocv.NewMat()
	defer laplacian.Close()
	gocv.Laplacian(gray, &laplacian, gocv.MatTypeCV64F, 1, 1, 0, gocv.BorderDefault)
	lapMean, lapStd := laplacian.MeanStdDev()
	defer lapMean.Close()
	defer lapStd.Close()
	lapStdVal := lapStd.GetDoubleAt(0, 0)
	sharpness := lapStdVal * lapStdVal

	grayMean, grayStd := gray.MeanStdDev()
	defer grayMean.Close()
	defer grayStd.Close()
	brightness := grayMean.GetDoubleAt(0, 0)
	contrast := grayStd.GetDoubleAt(0, 0)

	return g.Evaluate(sharpness, brightness, contrast)
}

// Evaluate applies the acceptance bounds to already-measured scalars
func (g *QualityGate) Evaluate(sharpness, brightness, contrast float64) QualityReport {
	return QualityReport{
		Sharpness:   sharpness,
		Brightness:  brightness,
		Contrast:    contrast,
		Sharp:       sharpness > g.thresholds.SharpnessMin,
		WellLit:     brightness >= g.thresholds.BrightnessMin && brightness <= g.thresholds.BrightnessMax,
		HasContrast: contrast > g.thresholds.ContrastMin,
	}
}
