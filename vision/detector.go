package vision

import (
	"image"
	"log"
	"math"

	"gocv.io/x/gocv"
)

// FaceDetector is the contract the detection service satisfies: one forward
// pass at a working resolution, returning every face scoring at or above
// minScore. Implementations must accept re-parameterization of the working
// resolution between calls on the same instance.
type FaceDetector interface {
	Detect(img gocv.Mat, resolution int, minScore float64) []DetectedFace
}

// priorBox defines an anchor box (center_x, center_y, width, height),
// normalized to the working resolution
type priorBox struct {
	cx, cy, w, h float32
}

// generatePriors builds the anchor set for a square working resolution,
// matching the standard SCRFD/RetinaFace ONNX export
func generatePriors(size int) []priorBox {
	minSizes := [][]int{{16, 32}, {64, 128}, {256, 512}}
	steps := []int{8, 16, 32}

	var priors []priorBox
	for k, step := range steps {
		fm := size / step
		for i := 0; i < fm; i++ {
			for j := 0; j < fm; j++ {
				for _, minSize := range minSizes[k] {
					priors = append(priors, priorBox{
						cx: (float32(j) + 0.5) * float32(step) / float32(size),
						cy: (float32(i) + 0.5) * float32(step) / float32(size),
						w:  float32(minSize) / float32(size),
						h:  float32(minSize) / float32(size),
					})
				}
			}
		}
	}
	return priors
}

// decodeBox decodes a raw box prediction against its prior, returning
// normalized corner coordinates
func decodeBox(raw [4]float32, prior priorBox, variances [2]float32) [4]float32 {
	cx := prior.cx + raw[0]*variances[0]*prior.w
	cy := prior.cy + raw[1]*variances[0]*prior.h
	w := prior.w * float32(math.Exp(float64(raw[2]*variances[1])))
	h := prior.h * float32(math.Exp(float64(raw[3]*variances[1])))
	return [4]float32{cx - w/2, cy - h/2, cx + w/2, cy + h/2}
}

// decodeLandmark decodes one raw landmark offset against its prior
func decodeLandmark(dx, dy float32, prior priorBox, variance float32) (float32, float32) {
	return prior.cx + dx*variance*prior.w, prior.cy + dy*variance*prior.h
}

// ScrfdDetector runs an SCRFD-style face detection network through the gocv
// DNN module. One instance is loaded at process startup and shared by every
// pipeline component; the working resolution is a per-call parameter.
type ScrfdDetector struct {
	Net     gocv.Net
	Enabled bool

	MeanVal gocv.Scalar

	// priors are regenerated only when the working resolution changes
	priorCache map[int][]priorBox
}

var boxVariances = [2]float32{0.1, 0.2}

// NewScrfdDetector loads the detection model, preferring CUDA when available
func NewScrfdDetector(modelPath string) *ScrfdDetector {
	if modelPath == "" {
		log.Println("detection(scrfd): model path is empty, disabling detector")
		return &ScrfdDetector{Enabled: false}
	}

	net := gocv.ReadNet(modelPath, "")
	if net.Empty() {
		log.Printf("detection(scrfd): ERROR - ReadNet returned an empty network for %s. Check file path and integrity.", modelPath)
		return &ScrfdDetector{Enabled: false}
	}
	log.Printf("detection(scrfd): successfully loaded detection model from %s", modelPath)

	cudaBackendErr := net.SetPreferableBackend(gocv.NetBackendCUDA)
	cudaTargetErr := net.SetPreferableTarget(gocv.NetTargetCUDA)
	if cudaBackendErr == nil && cudaTargetErr == nil {
		log.Println("detection(scrfd): Set backend/target to CUDA")
	} else {
		net.SetPreferableBackend(gocv.NetBackendDefault)
		net.SetPreferableTarget(gocv.NetTargetCPU)
		log.Println("detection(scrfd): Set backend/target to CPU (Default)")
	}

	return &ScrfdDetector{
		Net:        net,
		Enabled:    true,
		MeanVal:    gocv.NewScalar(104.0, 117.0, 123.0, 0),
		priorCache: make(map[int][]priorBox),
	}
}

func (d *ScrfdDetector) Close() {
	if d != nil && d.Enabled {
		d.Net.Close()
		log.Println("detection(scrfd): closed network")
		d.Enabled = false
	}
}

// Detect runs one forward pass at the given working resolution and returns
// faces scoring at or above minScore, in original image coordinates
func (d *ScrfdDetector) Detect(img gocv.Mat, resolution int, minScore float64) []DetectedFace {
	if d == nil || !d.Enabled || img.Empty() || resolution <= 0 {
		return nil
	}

	imgW := float64(img.Cols())
	imgH := float64(img.Rows())

	blob := gocv.BlobFromImage(img, 1.0, image.Pt(resolution, resolution), d.MeanVal, false, false)
	defer blob.Close()

	d.Net.SetInput(blob, "input")

	outputs := d.Net.ForwardLayers([]string{"bbox", "confidence", "landmark"})
	if len(outputs) < 3 {
		log.Printf("detection(scrfd): expected 3 outputs (boxes, scores, landmarks), got %d", len(outputs))
		return nil
	}
	defer func() {
		for i := range outputs {
			outputs[i].Close()
		}
	}()
	boxes, scores, landmarks := outputs[0], outputs[1], outputs[2]

	priors, ok := d.priorCache[resolution]
	if !ok {
		priors = generatePriors(resolution)
		d.priorCache[resolution] = priors
	}

	numDetections := boxes.Size()[1]
	if len(priors) != numDetections {
		log.Printf("detection(scrfd): priors count (%d) != detections (%d) at resolution %d", len(priors), numDetections, resolution)
		return nil
	}

	var results []DetectedFace
	for i := 0; i < numDetections; i++ {
		score := float64(scores.GetFloatAt(0, i*2+1))
		if score < minScore {
			continue
		}

		var raw [4]float32
		for j := 0; j < 4; j++ {
			raw[j] = boxes.GetFloatAt(0, i*4+j)
		}
		decoded := decodeBox(raw, priors[i], boxVariances)

		box := BoundingBox{
			X1: float64(decoded[0]) * imgW,
			Y1: float64(decoded[1]) * imgH,
			X2: float64(decoded[2]) * imgW,
			Y2: float64(decoded[3]) * imgH,
		}.Clip(imgW, imgH)
		if !box.Valid() {
			continue
		}

		var pts Landmarks
		for j := 0; j < LandmarkCount; j++ {
			lx, ly := decodeLandmark(
				landmarks.GetFloatAt(0, i*10+j*2),
				landmarks.GetFloatAt(0, i*10+j*2+1),
				priors[i], boxVariances[0])
			pts[j] = Point2D{X: float64(lx) * imgW, Y: float64(ly) * imgH}
		}

		results = append(results, DetectedFace{Box: box, Landmarks: pts, Score: score})
	}

	return results
}
