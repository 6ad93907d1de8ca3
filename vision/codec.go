package vision

import (
	"encoding/base64"
	"fmt"
	"image"
	"regexp"

	"gocv.io/x/gocv"
)

// Photographs and liveness frames arrive base64 encoded, optionally carrying
// a data-URL header that must be stripped before decoding. Unknown-face crops
// are emitted back in the same encoding.

var dataURLPattern = regexp.MustCompile(`^data:image/[^;]+;base64,`)

const cropJpegQuality = 85

// StripDataURL removes a leading data-URL header if present
func StripDataURL(data string) string {
	return dataURLPattern.ReplaceAllString(data, "")
}

// DecodeBase64Bytes strips an optional data-URL header and base64-decodes
// one payload
func DecodeBase64Bytes(data string) ([]byte, error) {
	if data == "" {
		return nil, fmt.Errorf("empty image data")
	}
	raw, err := base64.StdEncoding.DecodeString(StripDataURL(data))
	if err != nil {
		return nil, fmt.Errorf("invalid base64 image data: %w", err)
	}
	return raw, nil
}

// DecodeBase64Image decodes an encoded still image into a BGR pixel buffer,
// returning the decoded payload bytes alongside for callers that read
// metadata from them. The caller owns the returned Mat and must Close it.
func DecodeBase64Image(data string) ([]byte, gocv.Mat, error) {
	raw, err := DecodeBase64Bytes(data)
	if err != nil {
		return nil, gocv.Mat{}, err
	}
	img, err := DecodeImageBytes(raw)
	if err != nil {
		return nil, gocv.Mat{}, err
	}
	return raw, img, nil
}

// DecodeImageBytes decodes raw encoded image bytes (as received on multipart
// or storage reads) into a BGR pixel buffer. Caller closes the Mat.
func DecodeImageBytes(raw []byte) (gocv.Mat, error) {
	img, err := gocv.IMDecode(raw, gocv.IMReadColor)
	if err != nil {
		return gocv.Mat{}, fmt.Errorf("failed to decode image bytes: %w", err)
	}
	if img.Empty() {
		img.Close()
		return gocv.Mat{}, fmt.Errorf("failed to decode image bytes: empty result")
	}
	return img, nil
}

// EncodeJPEG encodes a pixel buffer as JPEG bytes
func EncodeJPEG(img gocv.Mat) ([]byte, error) {
	if img.Empty() {
		return nil, fmt.Errorf("cannot encode empty image")
	}
	buf, err := gocv.IMEncodeWithParams(gocv.JPEGFileExt, img, []int{gocv.IMWriteJpegQuality, cropJpegQuality})
	if err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}
	defer buf.Close()

	out := make([]byte, len(buf.GetBytes()))
	copy(out, buf.GetBytes())
	return out, nil
}

// EncodeBase64Image encodes a pixel buffer as a data-URL JPEG string, the
// inverse of the format clients upload photos and frames in
func EncodeBase64Image(img gocv.Mat) (string, error) {
	raw, err := EncodeJPEG(img)
	if err != nil {
		return "", err
	}
	return "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(raw), nil
}

// CropRegion copies the area of img covered by box, clipped to image bounds.
// The caller owns the returned Mat.
func CropRegion(img gocv.Mat, box BoundingBox) (gocv.Mat, error) {
	if img.Empty() {
		return gocv.Mat{}, fmt.Errorf("cannot crop empty image")
	}
	clipped := box.Clip(float64(img.Cols()), float64(img.Rows()))
	if !clipped.Valid() {
		return gocv.Mat{}, fmt.Errorf("degenerate crop region [%.1f,%.1f,%.1f,%.1f]", box.X1, box.Y1, box.X2, box.Y2)
	}
	rect := image.Rect(int(clipped.X1), int(clipped.Y1), int(clipped.X2), int(clipped.Y2))
	region := img.Region(rect)
	defer region.Close()
	return region.Clone(), nil
}
