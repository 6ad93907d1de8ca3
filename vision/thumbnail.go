package vision

import (
	"bytes"
	"fmt"
	"io"
	"log"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
)

const (
	thumbnailMaxSize       = 160
	thumbnailJpegQuality   = 90
	thumbnailFileExtension = ".jpg"
)

// CropProcessor produces small review thumbnails for stored unknown-face
// crops. It relies on a CropStore implementation for saving the results.
type CropProcessor struct {
	store CropStore
}

func NewCropProcessor(store CropStore) *CropProcessor {
	return &CropProcessor{store: store}
}

// GenerateThumbnail decodes JPEG crop bytes, resizes so the longest side is
// at most thumbnailMaxSize, and saves the result through the store. Returns
// the relative path of the saved thumbnail.
func (p *CropProcessor) GenerateThumbnail(cropJPEG []byte) (string, error) {
	img, err := imaging.Decode(bytes.NewReader(cropJPEG))
	if err != nil {
		return "", fmt.Errorf("failed to decode crop for thumbnailing: %w", err)
	}

	bounds := img.Bounds()
	if bounds.Dx() <= 0 || bounds.Dy() <= 0 {
		return "", fmt.Errorf("invalid crop dimensions: %dx%d", bounds.Dx(), bounds.Dy())
	}

	thumb := img
	if bounds.Dx() > thumbnailMaxSize || bounds.Dy() > thumbnailMaxSize {
		if bounds.Dx() >= bounds.Dy() {
			thumb = imaging.Resize(img, thumbnailMaxSize, 0, imaging.Lanczos)
		} else {
			thumb = imaging.Resize(img, 0, thumbnailMaxSize, imaging.Lanczos)
		}
	}

	reader, writer := io.Pipe()
	go func() {
		err := imaging.Encode(writer, thumb, imaging.JPEG, imaging.JPEGQuality(thumbnailJpegQuality))
		if err != nil {
			log.Printf("vision.thumbnail: failed to encode thumbnail: %v", err)
			writer.CloseWithError(fmt.Errorf("thumbnail encoding failed: %w", err))
			return
		}
		writer.Close()
	}()

	thumbUUID, err := uuid.NewRandom()
	if err != nil {
		reader.Close()
		return "", fmt.Errorf("failed to generate UUID for thumbnail: %w", err)
	}

	savedRelPath, err := p.store.Save(AssetTypeCropThumbnail, thumbUUID.String()+thumbnailFileExtension, reader)
	if err != nil {
		return "", fmt.Errorf("failed to save thumbnail via store: %w", err)
	}
	return savedRelPath, nil
}
