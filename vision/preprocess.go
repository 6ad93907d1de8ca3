package vision

import (
	"image"
	"log"

	"gocv.io/x/gocv"
)

// Preprocessor normalizes lighting and sharpens an image ahead of detection.
// Enhancement is strictly best-effort: any failure returns the input
// unmodified so a bad frame degrades detection quality instead of blocking
// the pipeline.
type Preprocessor struct {
	ClipLimit float64
	TileSize  int
}

// NewPreprocessor returns a Preprocessor with the fixed CLAHE parameters
func NewPreprocessor() *Preprocessor {
	return &Preprocessor{ClipLimit: 2.0, TileSize: 8}
}

// sharpenKernel is the fixed 3x3 convolution applied after equalization
var sharpenKernel = []float32{
	0, -1, 0,
	-1, 5, -1,
	0, -1, 0,
}

// Enhance applies local contrast equalization on the luminance channel and a
// sharpening convolution. The caller owns the returned Mat; when enhancement
// fails the input Mat itself is returned and no new Mat is allocated.
func (p *Preprocessor) Enhance(img gocv.Mat) gocv.Mat {
	if img.Empty() || img.Channels() != 3 {
		return img
	}

	out, ok := p.enhance(img)
	if !ok {
		log.Printf("preprocess: enhancement failed, using original image")
		return img
	}
	return out
}

func (p *Preprocessor) enhance(img gocv.Mat) (result gocv.Mat, ok bool) {
	// gocv surfaces most OpenCV failures as panics
	defer func() {
		if r := recover(); r != nil {
			log.Printf("preprocess: recovered from enhancement failure: %v", r)
			if !result.Empty() {
				result.Close()
			}
			result, ok = gocv.Mat{}, false
		}
	}()

	yuv := gocv.NewMat()
	defer yuv.Close()
	gocv.CvtColor(img, &yuv, gocv.ColorBGRToYUV)
	if yuv.Empty() {
		return gocv.Mat{}, false
	}

	channels := gocv.Split(yuv)
	defer func() {
		for i := range channels {
			channels[i].Close()
		}
	}()
	if len(channels) != 3 {
		return gocv.Mat{}, false
	}

	// equalize luminance only; chroma channels pass through untouched
	clahe := gocv.NewCLAHEWithParams(p.ClipLimit, image.Pt(p.TileSize, p.TileSize))
	defer clahe.Close()

	equalized := gocv.NewMat()
	defer equalized.Close()
	clahe.Apply(channels[0], &equalized)

	merged := gocv.NewMat()
	defer merged.Close()
	gocv.Merge([]gocv.Mat{equalized, channels[1], channels[2]}, &merged)

	bgr := gocv.NewMat()
	defer bgr.Close()
	gocv.CvtColor(merged, &bgr, gocv.ColorYUVToBGR)

	kernel, err := gocv.NewMatFromBytes(3, 3, gocv.MatTypeCV32F, float32SliceToBytes(sharpenKernel))
	if err != nil {
		return gocv.Mat{}, false
	}
	defer kernel.Close()

	sharpened := gocv.NewMat()
	gocv.Filter2D(bgr, &sharpened, -1, kernel, image.Pt(-1, -1), 0, gocv.BorderDefault)
	if sharpened.Empty() {
		sharpened.Close()
		return gocv.Mat{}, false
	}
	return sharpened, true
}
